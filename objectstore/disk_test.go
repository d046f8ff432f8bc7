package objectstore

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Upload_Sniffs_Extension(t *testing.T) {
	req := require.New(t)
	root := t.TempDir()
	disk, err := NewDisk(slog.Default(), root, "/media/")
	req.NoError(err)

	// Minimal valid PNG signature
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	url, err := disk.Upload(context.Background(), png, "avatar-u1")
	req.NoError(err)
	req.Equal("/media/avatar-u1.png", url)

	stored, err := os.ReadFile(filepath.Join(root, "avatar-u1.png"))
	req.NoError(err)
	req.Equal(png, stored)
}

func Test_Upload_Rejects_Empty_Blob(t *testing.T) {
	req := require.New(t)
	disk, err := NewDisk(slog.Default(), t.TempDir(), "/media")
	req.NoError(err)

	_, err = disk.Upload(context.Background(), nil, "avatar-u1")
	req.Error(err)
}

func Test_Upload_Sanitizes_Key(t *testing.T) {
	req := require.New(t)
	root := t.TempDir()
	disk, err := NewDisk(slog.Default(), root, "/media")
	req.NoError(err)

	url, err := disk.Upload(context.Background(), []byte("plain text"), "../escape/attempt")
	req.NoError(err)
	// The stored name must stay flat inside root
	req.False(strings.Contains(url, ".."))
	req.False(strings.Contains(strings.TrimPrefix(url, "/media/"), "/"))

	entries, err := os.ReadDir(root)
	req.NoError(err)
	req.Len(entries, 1)
}
