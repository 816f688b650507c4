package zs

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// ChunkSize is the read size used when hashing local files.
const ChunkSize = 4096

// sniffSize is how much of the file head is kept for media type detection.
const sniffSize = 3072

// Inventory resolves each path and computes its MD5 checksum. Paths must be
// regular files. Two paths with the same filename fail with a
// DuplicateNameError before the second one is read.
func Inventory(fsmgr FilesystemManager, paths []string) (map[string]*FileRecord, error) {
	records := make(map[string]*FileRecord, len(paths))

	for _, raw := range paths {
		p, err := fsmgr.Resolve(raw)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", raw, err)
		}
		if p.IsDir() {
			return nil, fmt.Errorf("expected a file, got directory: %s", p.String())
		}

		name := p.Name()
		if existing, ok := records[name]; ok {
			return nil, &DuplicateNameError{Filename: name, First: existing.LocalPath, Second: p.Dir()}
		}

		rec, err := inventoryFile(fsmgr, p)
		if err != nil {
			return nil, err
		}
		records[name] = rec
	}

	return records, nil
}

func inventoryFile(fsmgr FilesystemManager, p *Path) (*FileRecord, error) {
	f, err := fsmgr.Open(p)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", p.String(), err)
	}
	defer f.Close()

	sum, size, head, err := checksum(f)
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", p.String(), err)
	}

	return &FileRecord{
		Filename:  p.Name(),
		LocalPath: p.Dir(),
		Checksum:  sum,
		Size:      size,
		MediaType: mimetype.Detect(head).String(),
	}, nil
}

// checksum streams r in ChunkSize reads and returns the hex MD5, the byte
// count and the leading bytes used for media type detection.
func checksum(r io.Reader) (string, int64, []byte, error) {
	h := md5.New()
	buf := make([]byte, ChunkSize)
	head := make([]byte, 0, sniffSize)
	var size int64

	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
			size += int64(n)
			if room := sniffSize - len(head); room > 0 {
				head = append(head, buf[:min(n, room)]...)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", 0, nil, err
		}
	}

	return hex.EncodeToString(h.Sum(nil)), size, head, nil
}

// MD5Hex returns the hex MD5 of data.
func MD5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
