// Package storage uploads binary assets (avatars, post images) to object storage
// and hands back the public download URL.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/cppla/blogpress/config"
)

// Progress reports how many bytes of an upload have been transferred.
type Progress struct {
	Transferred int64
	Total       int64
}

// Percent returns the whole-number completion percentage, 0 when Total is unknown.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	pct := int(p.Transferred * 100 / p.Total)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// ProgressFunc receives upload progress notifications.
type ProgressFunc func(Progress)

// Object describes an uploaded asset.
type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// ObjectStore is a resumable upload target that yields a retrievable URL.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string, progress ProgressFunc) (*Object, error)
	Remove(ctx context.Context, key string) error
	// KeyFromURL returns the object key for a URL issued by this store.
	KeyFromURL(rawURL string) (string, bool)
}

// New builds the object store selected by cfg.StorageDriver.
func New(ctx context.Context, cfg config.AppConfig) (ObjectStore, error) {
	switch strings.ToLower(cfg.StorageDriver) {
	case "", "minio":
		return NewMinioStore(ctx, MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
	case "firebase":
		return NewFirebaseStore(ctx, FirebaseOptions{
			CredentialsBase64: cfg.FirebaseCredentialsB64,
			ProjectID:         cfg.FirebaseProjectID,
			Bucket:            cfg.FirebaseStorageBucket,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// ObjectKey prefixes the sanitized file name with the millisecond timestamp.
func ObjectKey(now time.Time, filename string) string {
	return fmt.Sprintf("%d%s", now.UnixMilli(), SanitizeFilename(filename))
}

// SanitizeFilename strips path components, quotes and control characters.
func SanitizeFilename(name string) string {
	cleaned := strings.ReplaceAll(name, "\\", "/")
	cleaned = path.Base(cleaned)
	cleaned = strings.ReplaceAll(cleaned, "\"", "")
	cleaned = strings.ReplaceAll(cleaned, "..", "")
	b := make([]rune, 0, len(cleaned))
	for _, r := range cleaned {
		if r < 32 || r == 127 || r == '/' {
			continue
		}
		b = append(b, r)
	}
	s := strings.Join(strings.Fields(string(b)), "-")
	if s == "" || s == "." {
		s = "file"
	}
	return s
}

// progressCounter accumulates transferred bytes and reports them.
type progressCounter struct {
	mu    sync.Mutex
	total int64
	done  int64
	fn    ProgressFunc
}

func newProgressCounter(total int64, fn ProgressFunc) *progressCounter {
	return &progressCounter{total: total, fn: fn}
}

func (c *progressCounter) add(n int64) {
	if c == nil || n <= 0 {
		return
	}
	c.mu.Lock()
	c.done += n
	p := Progress{Transferred: c.done, Total: c.total}
	c.mu.Unlock()
	if c.fn != nil {
		c.fn(p)
	}
}

func (c *progressCounter) set(done int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	if done <= c.done {
		c.mu.Unlock()
		return
	}
	c.done = done
	p := Progress{Transferred: c.done, Total: c.total}
	c.mu.Unlock()
	if c.fn != nil {
		c.fn(p)
	}
}

// Read lets the counter act as a minio progress sink: minio hands it each
// uploaded chunk after the bytes were sent.
func (c *progressCounter) Read(p []byte) (int, error) {
	c.add(int64(len(p)))
	return len(p), nil
}
