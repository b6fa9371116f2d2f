package index

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Snapshot layout, little-endian:
//
//	magic "NVX1" | uint32 dim | uint64 count |
//	count x ( uint32 docLen | docLen bytes document id | dim x float32 )
//
// Entries appear in local-id order, so a vector's position is its local id.
// An orphaned entry is written with docLen 0. Vectors and id-map share the
// one file: they are a single unit of durability and must survive or be
// lost together.
var snapshotMagic = [4]byte{'N', 'V', 'X', '1'}

// persist writes the full snapshot atomically (temp file + rename). On
// failure the index is flagged dirty; the next mutating operation retries
// the flush.
func (u *userIndex) persist() error {
	if err := u.writeSnapshot(); err != nil {
		u.dirty = true
		return err
	}
	u.dirty = false
	return nil
}

func (u *userIndex) writeSnapshot() error {
	tmp, err := os.CreateTemp(filepath.Dir(u.path), ".nvx-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	w := bufio.NewWriter(tmp)
	if _, err := w.Write(snapshotMagic[:]); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write snapshot header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(u.dim)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write snapshot header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(u.vectors))); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write snapshot header: %w", err)
	}

	for i, vec := range u.vectors {
		docID := u.idMap[int64(i)]
		if err := binary.Write(w, binary.LittleEndian, uint32(len(docID))); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write snapshot entry %d: %w", i, err)
		}
		if _, err := w.WriteString(docID); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write snapshot entry %d: %w", i, err)
		}
		if err := binary.Write(w, binary.LittleEndian, vec); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write snapshot entry %d: %w", i, err)
		}
	}

	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), u.path); err != nil {
		return fmt.Errorf("rename snapshot into place: %w", err)
	}
	return nil
}

// load restores vectors and id-map from the snapshot file at u.path.
func (u *userIndex) load() error {
	f, err := os.Open(u.path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	r := bufio.NewReader(f)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return fmt.Errorf("read snapshot header: %w", err)
	}
	if magic != snapshotMagic {
		return fmt.Errorf("not an index snapshot (bad magic %q)", magic)
	}

	var dim uint32
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read snapshot header: %w", err)
	}
	if int(dim) != u.dim {
		return fmt.Errorf("snapshot dimension %d does not match configured dimension %d", dim, u.dim)
	}

	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("read snapshot header: %w", err)
	}

	vectors := make([][]float32, 0, count)
	idMap := make(map[int64]string)
	for i := uint64(0); i < count; i++ {
		var docLen uint32
		if err := binary.Read(r, binary.LittleEndian, &docLen); err != nil {
			return fmt.Errorf("read snapshot entry %d: %w", i, err)
		}
		var docID string
		if docLen > 0 {
			buf := make([]byte, docLen)
			if _, err := io.ReadFull(r, buf); err != nil {
				return fmt.Errorf("read snapshot entry %d: %w", i, err)
			}
			docID = string(buf)
		}
		vec := make([]float32, u.dim)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return fmt.Errorf("read snapshot entry %d: %w", i, err)
		}
		if docID != "" {
			idMap[int64(len(vectors))] = docID
		}
		vectors = append(vectors, vec)
	}

	u.vectors = vectors
	u.idMap = idMap
	return nil
}
