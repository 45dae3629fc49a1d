package artifact

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/eburon/artifact-web-ui/internal/models"
	"github.com/eburon/artifact-web-ui/internal/modes"
)

type zipFile struct {
	name string
	data []byte
}

// Zip packs an artifact for download: the preview document as index.html, the raw source (or the
// decoded image for image modes) and the prompt that produced it.
func Zip(a models.Artifact) ([]byte, error) {
	mode := modes.Get(a.Mode)
	src := Extract(a.Content)

	files := []zipFile{
		{name: "index.html", data: []byte(Document(mode, a.Content))},
		{name: "prompt.txt", data: []byte(a.Prompt + "\n")},
	}

	if mode.ImageOutput {
		blob, err := models.ParseDataURL(src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse image output: %w", err)
		}
		img, err := base64.StdEncoding.DecodeString(blob.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image output: %w", err)
		}
		_, ext, _ := strings.Cut(blob.MIMEType, "/")
		files = append(files, zipFile{name: "image." + ext, data: img})
	} else if mode.Extension() != "html" {
		files = append(files, zipFile{name: Slug(a.Title) + "." + mode.Extension(), data: []byte(src + "\n")})
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.name,
			Method:   zip.Deflate,
			Modified: a.CreatedAt,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", f.name, err)
		}
		if _, err := w.Write(f.data); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", f.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zip: %w", err)
	}

	return buf.Bytes(), nil
}
