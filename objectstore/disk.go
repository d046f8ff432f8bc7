// Package objectstore is the binary-asset collaborator: it accepts
// uploads and hands back retrievable URLs. The disk implementation
// stores blobs under a root directory served as static files by the
// gateway.
package objectstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type Disk struct {
	log     *slog.Logger
	root    string
	baseURL string
}

func NewDisk(log *slog.Logger, root, baseURL string) (*Disk, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("object store root: %w", err)
	}
	return &Disk{log: log, root: root, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Upload writes the blob under root and returns its public URL. The
// file extension comes from content sniffing, not from the caller, so a
// mislabeled upload still serves with a usable content type.
func (d *Disk) Upload(_ context.Context, data []byte, key string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty upload for key %q", key)
	}

	mtype := mimetype.Detect(data)
	name := sanitizeKey(key) + mtype.Extension()

	path := filepath.Join(d.root, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing blob %q: %w", name, err)
	}

	d.log.Debug("Blob stored", "name", name, "content_type", mtype.String(), "bytes", len(data))
	return d.baseURL + "/" + name, nil
}

// sanitizeKey keeps blob names flat: no separators, no traversal.
func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, key)
}
