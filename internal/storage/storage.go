// Package storage saves uploaded content files either on local disk or in a
// DigitalOcean Spaces bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Storage persists an uploaded file and returns the URL displays fetch it from.
type Storage interface {
	Save(ctx context.Context, fileHeader *multipart.FileHeader) (string, error)
}

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
	plainExt    = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)
)

// objectName turns an upload's original name into a unique name without
// spaces or path separators: <base>_<timestamp>_<rand><ext>.
func objectName(original string, now time.Time) string {
	original = filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	ext := strings.ToLower(filepath.Ext(original))
	base := strings.TrimSuffix(original, filepath.Ext(original))
	base = unsafeChars.ReplaceAllString(strings.ReplaceAll(base, " ", "_"), "")
	if base == "" {
		base = "file"
	}
	if !plainExt.MatchString(ext) {
		ext = ""
	}
	return fmt.Sprintf("%s_%s_%s%s", base, now.UTC().Format("20060102_150405"), uuid.NewString()[:8], ext)
}

// LocalStorage writes uploads under dir and serves them from publicPrefix.
type LocalStorage struct {
	dir          string
	publicPrefix string
	now          func() time.Time
}

func NewLocalStorage(dir, publicPrefix string) *LocalStorage {
	return &LocalStorage{dir: dir, publicPrefix: publicPrefix, now: time.Now}
}

func (ls *LocalStorage) Dir() string { return ls.dir }

func (ls *LocalStorage) Save(_ context.Context, fileHeader *multipart.FileHeader) (string, error) {
	name := objectName(fileHeader.Filename, ls.now())

	if err := os.MkdirAll(ls.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(ls.dir, name))
	if err != nil {
		return "", fmt.Errorf("create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write uploaded file: %w", err)
	}

	log.Debug().Str("original", fileHeader.Filename).Str("stored", name).Msg("upload saved locally")
	return path.Join(ls.publicPrefix, name), nil
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	case ".html", ".htm":
		return "text/html"
	case ".zip":
		return "application/zip"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
