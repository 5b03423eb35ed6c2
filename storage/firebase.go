package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

const firebaseDownloadHost = "https://firebasestorage.googleapis.com"

// FirebaseOptions configures Firebase Cloud Storage.
type FirebaseOptions struct {
	CredentialsBase64 string
	ProjectID         string
	Bucket            string
	// ChunkSize of each resumable upload request; 0 uses 256 KiB.
	ChunkSize int
}

// FirebaseStore uploads to the Firebase default bucket using resumable uploads.
type FirebaseStore struct {
	bucket     *gcs.BucketHandle
	bucketName string
	chunkSize  int
}

// NewFirebaseStore initializes the Firebase app and its storage bucket.
func NewFirebaseStore(ctx context.Context, opts FirebaseOptions) (*FirebaseStore, error) {
	if opts.CredentialsBase64 == "" {
		return nil, fmt.Errorf("firebase credentials are missing")
	}
	if opts.Bucket == "" {
		return nil, fmt.Errorf("firebase storage bucket is missing")
	}
	creds, err := base64.StdEncoding.DecodeString(opts.CredentialsBase64)
	if err != nil {
		return nil, fmt.Errorf("decode firebase credentials: %w", err)
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     opts.ProjectID,
		StorageBucket: opts.Bucket,
	}, option.WithCredentialsJSON(creds))
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase storage: %w", err)
	}
	bucket, err := client.DefaultBucket()
	if err != nil {
		return nil, fmt.Errorf("firebase bucket: %w", err)
	}

	chunk := opts.ChunkSize
	if chunk <= 0 {
		chunk = 256 * 1024
	}
	return &FirebaseStore{bucket: bucket, bucketName: opts.Bucket, chunkSize: chunk}, nil
}

// Upload writes r with a resumable upload and returns the tokenized download URL.
func (s *FirebaseStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string, progress ProgressFunc) (*Object, error) {
	token := uuid.NewString()
	counter := newProgressCounter(size, progress)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.ChunkSize = s.chunkSize
	w.Metadata = map[string]string{"firebaseStorageDownloadTokens": token}
	w.ProgressFunc = counter.set

	written, err := io.Copy(w, r)
	if err != nil {
		// cancelling aborts the resumable session
		cancel()
		_ = w.Close()
		return nil, fmt.Errorf("firebase write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("firebase close %s: %w", key, err)
	}
	counter.set(written)

	return &Object{
		Key:         key,
		URL:         FirebaseDownloadURL(s.bucketName, key, token),
		Size:        written,
		ContentType: contentType,
	}, nil
}

// Remove deletes an object.
func (s *FirebaseStore) Remove(ctx context.Context, key string) error {
	return s.bucket.Object(key).Delete(ctx)
}

// KeyFromURL maps a download URL of this bucket back to its object key.
func (s *FirebaseStore) KeyFromURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || !strings.HasPrefix(rawURL, firebaseDownloadHost) {
		return "", false
	}
	prefix := "/v0/b/" + s.bucketName + "/o/"
	if !strings.HasPrefix(u.EscapedPath(), prefix) {
		return "", false
	}
	key, err := url.PathUnescape(strings.TrimPrefix(u.EscapedPath(), prefix))
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}

// FirebaseDownloadURL builds the public URL the Firebase SDKs hand out for an object.
func FirebaseDownloadURL(bucket, key, token string) string {
	return fmt.Sprintf("%s/v0/b/%s/o/%s?alt=media&token=%s",
		firebaseDownloadHost, bucket, url.PathEscape(key), url.QueryEscape(token))
}
