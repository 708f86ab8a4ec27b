// Package s3 provides an S3 implementation of the blobstore.BlobStore
// interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("archives/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
// Archives are written through the SDK's upload manager and listed with
// automatic pagination. A key prefix isolates multiple deployments in a
// shared bucket.
package s3
