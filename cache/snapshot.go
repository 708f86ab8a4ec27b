package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"

	"github.com/stitchfork/seqbond/internal/mmap"
	"github.com/stitchfork/seqbond/symbol"
)

// Snapshot file layout, little-endian:
//
//	[Magic:4][Version:4][Count:8][entries...][CRC32:4]
//
// entry: [Space:1][NS:1][KeyLen:4][Key][Kind:1][ID:8][TextLen:4][Text]
//
// The CRC covers everything from Magic through the last entry.
const (
	snapshotMagic   = 0x53424331 // "SBC1"
	snapshotVersion = 1
)

var (
	ErrSnapshotMagic     = errors.New("invalid cache snapshot magic")
	ErrSnapshotVersion   = errors.New("unsupported cache snapshot version")
	ErrSnapshotChecksum  = errors.New("cache snapshot checksum mismatch")
	ErrSnapshotTruncated = errors.New("cache snapshot truncated")
)

// SaveSnapshot writes the current snapshot to path. The write is atomic:
// data lands in a temp file that is fsynced and renamed into place, so a
// crash never leaves a half-written snapshot.
func (c *Cache) SaveSnapshot(path string) error {
	snap := c.snap.Load()

	buf := make([]byte, 0, 16+snap.len()*32)
	buf = binary.LittleEndian.AppendUint32(buf, snapshotMagic)
	buf = binary.LittleEndian.AppendUint32(buf, snapshotVersion)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(snap.len()))

	for k, v := range snap.all() {
		buf = append(buf, byte(k.Space), byte(k.NS))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(k.K)))
		buf = append(buf, k.K...)
		buf = append(buf, byte(v.Kind))
		buf = v.ID.AppendBinary(buf)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.Text)))
		buf = append(buf, v.Text...)
	}
	buf = binary.LittleEndian.AppendUint32(buf, crc32.ChecksumIEEE(buf))

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// LoadSnapshot replaces the cache contents with the entries persisted at
// path. The file is mapped read-only while parsing, so large warm caches
// load without a second in-heap copy of the raw bytes.
func (c *Cache) LoadSnapshot(path string) error {
	m, err := mmap.Open(path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer m.Close()

	data := m.Data()
	if len(data) < 20 {
		return ErrSnapshotTruncated
	}

	body, sum := data[:len(data)-4], binary.LittleEndian.Uint32(data[len(data)-4:])
	if crc32.ChecksumIEEE(body) != sum {
		return ErrSnapshotChecksum
	}
	if binary.LittleEndian.Uint32(body[0:4]) != snapshotMagic {
		return ErrSnapshotMagic
	}
	if binary.LittleEndian.Uint32(body[4:8]) != snapshotVersion {
		return ErrSnapshotVersion
	}
	count := binary.LittleEndian.Uint64(body[8:16])

	next := &hamt{}
	off := 16
	for i := uint64(0); i < count; i++ {
		k, v, n, err := decodeEntry(body[off:])
		if err != nil {
			return fmt.Errorf("snapshot entry %d: %w", i, err)
		}
		next = next.insert(k, v)
		off += n
	}
	if off != len(body) {
		return ErrSnapshotTruncated
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Store(next)
	return nil
}

func decodeEntry(b []byte) (Key, Value, int, error) {
	if len(b) < 6 {
		return Key{}, Value{}, 0, ErrSnapshotTruncated
	}
	k := Key{Space: Keyspace(b[0]), NS: symbol.Namespace(b[1])}
	keyLen := int(binary.LittleEndian.Uint32(b[2:6]))
	off := 6
	if len(b) < off+keyLen+13 {
		return Key{}, Value{}, 0, ErrSnapshotTruncated
	}
	// Copy out of the mapped region: the mapping is unmapped after load.
	k.K = string(b[off : off+keyLen])
	off += keyLen

	v := Value{Kind: ValueKind(b[off])}
	off++
	id, err := symbol.IDFromBinary(b[off : off+8])
	if err != nil {
		return Key{}, Value{}, 0, err
	}
	v.ID = id
	off += 8
	textLen := int(binary.LittleEndian.Uint32(b[off : off+4]))
	off += 4
	if len(b) < off+textLen {
		return Key{}, Value{}, 0, ErrSnapshotTruncated
	}
	v.Text = string(b[off : off+textLen])
	off += textLen
	return k, v, off, nil
}
