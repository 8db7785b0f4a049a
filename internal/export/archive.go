package export

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/klauspost/compress/zip"
)

// File is one exported file. Data encodes as base64 in JSON.
type File struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// Archive compresses files into a ZIP with every entry under folder.
// An empty folder puts entries at the root.
func Archive(ctx context.Context, folder string, files []File, modified time.Time) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			zw.Close()
			return nil, fmt.Errorf("archive: %w", err)
		}
		name := f.Name
		if folder != "" {
			name = path.Join(sanitizeName(folder), f.Name)
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("archive %s: %w", name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			zw.Close()
			return nil, fmt.Errorf("archive %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}

// sanitizeName keeps a name usable as a single path element.
func sanitizeName(name string) string {
	out := []rune(name)
	for i, r := range out {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			out[i] = '_'
		}
	}
	if s := string(out); s != "" && s != "." && s != ".." {
		return s
	}
	return "export"
}
