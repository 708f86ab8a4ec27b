package bondmap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/stitchfork/seqbond/symbol"
)

// Binary layout, little-endian:
//
//	[Magic:4][Version:4][Compression:1][Pad:3][RawSize:8][Payload][CRC32:4]
//
// Payload (after decompression):
//
//	[Start:8][End:8][BondCount:8] then per bond [A:8][B:8][Count:4]
//
// Bonds are serialized in canonical (A, B) order, so equal maps produce
// identical bytes regardless of construction order. The CRC covers the
// header and the stored (possibly compressed) payload.
const (
	binaryMagic   = 0x53424D31 // "SBM1"
	binaryVersion = 1

	headerSize = 20
	bondSize   = 20
)

// Compression selects the payload codec for persisted bond maps.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

var (
	ErrBinaryMagic     = errors.New("invalid bond map magic")
	ErrBinaryVersion   = errors.New("unsupported bond map version")
	ErrBinaryChecksum  = errors.New("bond map checksum mismatch")
	ErrBinaryTruncated = errors.New("bond map encoding truncated")
)

// Marshal serializes the bond map with the given payload compression.
func Marshal(m *BondMap, comp Compression) ([]byte, error) {
	payload := make([]byte, 0, 24+len(m.counts)*bondSize)
	payload = m.start.AppendBinary(payload)
	payload = m.end.AppendBinary(payload)
	payload = binary.LittleEndian.AppendUint64(payload, uint64(len(m.counts)))
	for _, b := range m.Bonds() {
		payload = b.A.AppendBinary(payload)
		payload = b.B.AppendBinary(payload)
		payload = binary.LittleEndian.AppendUint32(payload, m.counts[b])
	}

	stored := payload
	switch comp {
	case CompressionNone:
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		stored = enc.EncodeAll(payload, nil)
		enc.Close()
	case CompressionLZ4:
		var c lz4.Compressor
		buf := make([]byte, lz4.CompressBlockBound(len(payload)))
		n, err := c.CompressBlock(payload, buf)
		if err != nil {
			return nil, err
		}
		if n == 0 || n >= len(payload) {
			// Incompressible; store raw.
			comp = CompressionNone
		} else {
			stored = buf[:n]
		}
	default:
		return nil, fmt.Errorf("unknown compression %d", comp)
	}

	out := make([]byte, 0, headerSize+len(stored)+4)
	out = binary.LittleEndian.AppendUint32(out, binaryMagic)
	out = binary.LittleEndian.AppendUint32(out, binaryVersion)
	out = append(out, byte(comp), 0, 0, 0)
	out = binary.LittleEndian.AppendUint64(out, uint64(len(payload)))
	out = append(out, stored...)
	out = binary.LittleEndian.AppendUint32(out, crc32.ChecksumIEEE(out))
	return out, nil
}

// MarshalBinary implements encoding.BinaryMarshaler without compression.
func (m *BondMap) MarshalBinary() ([]byte, error) {
	return Marshal(m, CompressionNone)
}

// Unmarshal deserializes a bond map written by Marshal, verifying the
// checksum before touching the payload.
func Unmarshal(data []byte) (*BondMap, error) {
	if len(data) < headerSize+4 {
		return nil, ErrBinaryTruncated
	}

	body, sum := data[:len(data)-4], binary.LittleEndian.Uint32(data[len(data)-4:])
	if crc32.ChecksumIEEE(body) != sum {
		return nil, ErrBinaryChecksum
	}
	if binary.LittleEndian.Uint32(body[0:4]) != binaryMagic {
		return nil, ErrBinaryMagic
	}
	if binary.LittleEndian.Uint32(body[4:8]) != binaryVersion {
		return nil, ErrBinaryVersion
	}
	comp := Compression(body[8])
	rawSize := binary.LittleEndian.Uint64(body[12:20])
	stored := body[headerSize:]

	// rawSize comes off the wire; bound it before sizing any allocation.
	// Bond payloads are ID-dense and never approach this ratio.
	const maxExpand = 256
	if rawSize > uint64(len(stored))*maxExpand {
		return nil, ErrBinaryTruncated
	}

	var payload []byte
	switch comp {
	case CompressionNone:
		payload = stored
	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		payload, err = dec.DecodeAll(stored, make([]byte, 0, rawSize))
		dec.Close()
		if err != nil {
			return nil, fmt.Errorf("zstd payload: %w", err)
		}
	case CompressionLZ4:
		payload = make([]byte, rawSize)
		n, err := lz4.UncompressBlock(stored, payload)
		if err != nil {
			return nil, fmt.Errorf("lz4 payload: %w", err)
		}
		payload = payload[:n]
	default:
		return nil, fmt.Errorf("unknown compression %d", comp)
	}
	if uint64(len(payload)) != rawSize {
		return nil, ErrBinaryTruncated
	}

	if len(payload) < 24 {
		return nil, ErrBinaryTruncated
	}
	m := &BondMap{counts: make(map[Bond]uint32)}
	var err error
	if m.start, err = symbol.IDFromBinary(payload[0:8]); err != nil {
		return nil, err
	}
	if m.end, err = symbol.IDFromBinary(payload[8:16]); err != nil {
		return nil, err
	}
	bondCount := binary.LittleEndian.Uint64(payload[16:24])
	rest := uint64(len(payload) - 24)
	// Divide instead of multiplying: a crafted bondCount must not wrap
	// the comparison around and walk the loop past the payload.
	if rest%bondSize != 0 || bondCount != rest/bondSize {
		return nil, ErrBinaryTruncated
	}

	off := 24
	for i := uint64(0); i < bondCount; i++ {
		a, _ := symbol.IDFromBinary(payload[off : off+8])
		b, _ := symbol.IDFromBinary(payload[off+8 : off+16])
		count := binary.LittleEndian.Uint32(payload[off+16 : off+20])
		if count == 0 {
			return nil, fmt.Errorf("bond %s -> %s with zero count", a, b)
		}
		m.counts[Bond{a, b}] = count
		off += bondSize
	}
	return m, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (m *BondMap) UnmarshalBinary(data []byte) error {
	decoded, err := Unmarshal(data)
	if err != nil {
		return err
	}
	*m = *decoded
	return nil
}
