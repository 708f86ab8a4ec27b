package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/stitchfork/seqbond/symbol"
)

// DynamoClient is the narrow slice of the DynamoDB API the store needs.
// *dynamodb.Client satisfies it; tests may substitute a fake.
type DynamoClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoStore is an authoritative store backed by a single DynamoDB table,
// for deployments where many resolvers share one symbol registry.
//
// Table schema:
//   - Partition key: pk (string)
//   - Sort key: sk (string)
//
// Row layout:
//   - pk "fwd#<ns>", sk <text>        -> attr "id" (number)
//   - pk "rev#<ns>", sk <ordinal>     -> attr "text" (string)
//   - pk "seq",      sk <ns>          -> attr "n" (number)
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name seqbond-symbols \
//	  --attribute-definitions AttributeName=pk,AttributeType=S AttributeName=sk,AttributeType=S \
//	  --key-schema AttributeName=pk,KeyType=HASH AttributeName=sk,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
//
// Minting allocates an ordinal with an atomic counter update, then claims
// the forward row with a conditional put. Losing a claim race burns the
// ordinal, which is harmless: the identifier space is append-only and
// sparse ordinals carry no meaning.
type DynamoStore struct {
	client    DynamoClient
	tableName string
}

// NewDynamoStore creates a store over an existing table.
func NewDynamoStore(client DynamoClient, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName}
}

func fwdPK(ns symbol.Namespace) string { return "fwd#" + ns.String() }
func revPK(ns symbol.Namespace) string { return "rev#" + ns.String() }

func (s *DynamoStore) getItem(ctx context.Context, pk, sk string) (map[string]types.AttributeValue, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: pk},
			"sk": &types.AttributeValueMemberS{Value: sk},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return out.Item, nil
}

func idFromItem(item map[string]types.AttributeValue) (symbol.ID, error) {
	n, ok := item["id"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("row missing id attribute")
	}
	u, err := strconv.ParseUint(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed id attribute %q: %w", n.Value, err)
	}
	return symbol.ID(u), nil
}

// Lookup implements Store.
func (s *DynamoStore) Lookup(ctx context.Context, ns symbol.Namespace, text string) (symbol.ID, bool, error) {
	item, err := s.getItem(ctx, fwdPK(ns), text)
	if err != nil {
		return 0, false, err
	}
	if item == nil {
		return 0, false, nil
	}
	id, err := idFromItem(item)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// Text implements Store.
func (s *DynamoStore) Text(ctx context.Context, id symbol.ID) (string, bool, error) {
	item, err := s.getItem(ctx, revPK(id.Namespace()), strconv.FormatUint(id.Ordinal(), 10))
	if err != nil {
		return "", false, err
	}
	if item == nil {
		return "", false, nil
	}
	t, ok := item["text"].(*types.AttributeValueMemberS)
	if !ok {
		return "", false, fmt.Errorf("row missing text attribute")
	}
	return t.Value, true, nil
}

// Mint implements Store.
func (s *DynamoStore) Mint(ctx context.Context, ns symbol.Namespace, text string) (symbol.ID, error) {
	if !ns.Valid() {
		return 0, fmt.Errorf("invalid namespace %s", ns)
	}
	if text == "" {
		return 0, fmt.Errorf("empty symbol text")
	}

	// Fast path: already minted.
	if id, ok, err := s.Lookup(ctx, ns, text); err != nil || ok {
		return id, err
	}

	ord, err := s.nextOrdinal(ctx, ns)
	if err != nil {
		return 0, err
	}
	id := symbol.MakeID(ns, ord)

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: fwdPK(ns)},
			"sk": &types.AttributeValueMemberS{Value: text},
			"id": &types.AttributeValueMemberN{Value: strconv.FormatUint(uint64(id), 10)},
		},
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// Lost the claim race; the winner's row is authoritative.
			winner, ok, lerr := s.Lookup(ctx, ns, text)
			if lerr != nil {
				return 0, lerr
			}
			if !ok {
				return 0, fmt.Errorf("%w: claim race left no winner for %q", ErrUnavailable, text)
			}
			return winner, nil
		}
		return 0, fmt.Errorf("%w: claim symbol: %w", ErrUnavailable, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"pk":   &types.AttributeValueMemberS{Value: revPK(ns)},
			"sk":   &types.AttributeValueMemberS{Value: strconv.FormatUint(id.Ordinal(), 10)},
			"text": &types.AttributeValueMemberS{Value: text},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("%w: write reverse row: %w", ErrUnavailable, err)
	}
	return id, nil
}

func (s *DynamoStore) nextOrdinal(ctx context.Context, ns symbol.Namespace) (uint64, error) {
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: "seq"},
			"sk": &types.AttributeValueMemberS{Value: ns.String()},
		},
		UpdateExpression: aws.String("ADD n :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: allocate ordinal: %w", ErrUnavailable, err)
	}
	n, ok := out.Attributes["n"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("%w: counter row missing n attribute", ErrUnavailable)
	}
	return strconv.ParseUint(n.Value, 10, 64)
}

// PrefixState implements Store.
func (s *DynamoStore) PrefixState(ctx context.Context, ns symbol.Namespace, prefix string) (PrefixState, symbol.ID, error) {
	item, err := s.getItem(ctx, fwdPK(ns), prefix)
	if err != nil {
		return PrefixNone, 0, err
	}
	if item != nil {
		id, err := idFromItem(item)
		if err != nil {
			return PrefixNone, 0, err
		}
		return PrefixComplete, id, nil
	}

	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("pk = :pk AND begins_with(sk, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: fwdPK(ns)},
			":prefix": &types.AttributeValueMemberS{Value: prefix + symbol.UnitSep},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return PrefixNone, 0, fmt.Errorf("%w: prefix query: %w", ErrUnavailable, err)
	}
	if len(out.Items) > 0 {
		return PrefixPartial, 0, nil
	}
	return PrefixNone, 0, nil
}

// Close implements Store. The underlying client is owned by the caller.
func (s *DynamoStore) Close() error { return nil }
