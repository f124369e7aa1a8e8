package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"
)

// Asset is one file of an archive.
type Asset struct {
	Filename string
	MIME     string
	Data     []byte
	Modified time.Time
}

// ArchiveAssets writes assets into a deflated zip, in order. Duplicate or empty
// file names are rejected.
func ArchiveAssets(assets []Asset) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	seen := make(map[string]bool, len(assets))
	for _, asset := range assets {
		if asset.Filename == "" || seen[asset.Filename] {
			return nil, fmt.Errorf("zip: invalid or duplicate file name %q", asset.Filename)
		}
		seen[asset.Filename] = true
		hdr := &zip.FileHeader{Name: asset.Filename, Method: zip.Deflate, Modified: asset.Modified}
		if asset.MIME != "" {
			hdr.Comment = asset.MIME
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
