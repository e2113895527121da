// Package upload plans where application documents are stored: the folder for
// each document leaf, the accepted file types and the object key naming.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"startup-intake/internal/intake/docref"

	"github.com/google/uuid"
)

const DefaultMaxFileBytes int64 = 10 << 20

var (
	ErrFileTypeNotAllowed = errors.New("FILE_TYPE_NOT_ALLOWED")
	ErrFileTooLarge       = errors.New("FILE_TOO_LARGE")
	ErrEmptyFile          = errors.New("EMPTY_FILE")
)

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".txt":  "text/plain",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

// File is one uploaded part awaiting storage.
type File struct {
	FileName    string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// StoredObject describes a file after it has been written to object storage.
type StoredObject struct {
	Field       string `json:"field"`
	URL         string `json:"url"`
	Key         string `json:"key"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Uploader stores a file under folder and returns its durable reference.
type Uploader interface {
	Upload(ctx context.Context, file *File, folder string) (*StoredObject, error)
}

// ContentTypeFor maps a file name to the content type stored with the object.
func ContentTypeFor(fileName string) (string, bool) {
	ct, ok := contentTypes[strings.ToLower(filepath.Ext(fileName))]
	return ct, ok
}

// AllowedExtensions lists the accepted extensions without the leading dot.
func AllowedExtensions() []string {
	return []string{"pdf", "doc", "docx", "xls", "xlsx", "txt", "jpg", "jpeg", "png", "gif", "webp"}
}

// Check enforces the extension allow-list and the size limit.
func Check(f *File, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}
	if _, ok := ContentTypeFor(f.FileName); !ok {
		return fmt.Errorf("%w: %q", ErrFileTypeNotAllowed, filepath.Ext(f.FileName))
	}
	if f.Size == 0 {
		return ErrEmptyFile
	}
	if f.Size > maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, f.Size, maxBytes)
	}
	return nil
}

// FolderFor returns the storage folder of a document leaf.
func FolderFor(leaf string) string {
	switch {
	case leaf == "moaFile":
		return "moa-files"
	case leaf == "reconstructionFile":
		return "reconstruction-files"
	case strings.HasPrefix(leaf, "incomeTaxReturns."):
		return "tax-returns"
	}
	if _, field, ok := docref.ParseAnnualLeaf(leaf); ok {
		if field == "balanceSheet" {
			return "balance-sheets"
		}
		return "profit-loss"
	}
	if section, _, ok := strings.Cut(leaf, "."); ok {
		return kebab(section) + "-docs"
	}
	return "documents"
}

// ObjectKey builds "<folder>/<base>_<millis>_<rand><ext>" from the original name.
func ObjectKey(folder, fileName string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	base = unsafeNameChars.ReplaceAllString(base, "_")
	if base == "" {
		base = "file"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s/%s_%d_%s%s", folder, base, now.UnixMilli(), suffix, ext)
}

func kebab(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
