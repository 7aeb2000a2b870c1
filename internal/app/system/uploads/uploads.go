// internal/app/system/uploads/uploads.go

// Package uploads stores user-provided files under unique,
// filesystem-safe paths.
package uploads

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
)

// Stored describes a file after it has been written to storage.
type Stored struct {
	Path        string
	FileName    string
	Size        int64
	ContentType string
}

// Save writes the file under prefix/YYYY/MM/<uuid>-<name> and returns its
// storage path. The original filename is kept in the metadata; the stored
// name is sanitized so it cannot escape the prefix or break the filesystem.
func Save(ctx context.Context, store storage.Store, prefix, filename string, r io.Reader, size int64, contentType string) (Stored, error) {
	now := time.Now().UTC()
	dir := fmt.Sprintf("%s/%04d/%02d", prefix, now.Year(), now.Month())
	name := fmt.Sprintf("%s-%s", uuid.New().String()[:8], SanitizeFilename(filename))
	path := filepath.ToSlash(filepath.Join(dir, name))

	opts := &storage.PutOptions{ContentType: contentType}
	if err := store.Put(ctx, path, r, opts); err != nil {
		return Stored{}, fmt.Errorf("store upload: %w", err)
	}

	return Stored{
		Path:        path,
		FileName:    filename,
		Size:        size,
		ContentType: contentType,
	}, nil
}

// SanitizeFilename strips path components and replaces characters outside
// [a-zA-Z0-9._-] with underscores. Long names are truncated to 100 bytes,
// keeping the extension when there is one.
func SanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	// Base maps "" to "." and a bare parent reference to ".."; both would
	// survive the character filter below.
	if filename == "." || filename == ".." {
		filename = ""
	}

	out := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		if allowedFilenameChar(c) {
			out = append(out, c)
		} else {
			out = append(out, '_')
		}
	}

	if len(out) == 0 {
		return "file"
	}
	if len(out) > 100 {
		ext := filepath.Ext(string(out))
		if len(ext) > 0 && len(ext) < 10 {
			out = append(out[:100-len(ext)], ext...)
		} else {
			out = out[:100]
		}
	}
	return string(out)
}

func allowedFilenameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.'
}
