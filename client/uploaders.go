package client

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/cppla/blogpress/storage"
)

// HTTPUploader uploads through the API's /api/upload endpoint.
type HTTPUploader struct {
	Client *Client
}

func (u HTTPUploader) Upload(ctx context.Context, f File, progress ProgressFunc) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	res, err := u.Client.UploadImage(ctx, f.Name, rc, f.Size, progress)
	if err != nil {
		return "", err
	}
	return res.URL, nil
}

// StoreUploader writes straight to an object store under the same
// <unix-millis><filename> key the API uses.
type StoreUploader struct {
	Store storage.ObjectStore
	Now   func() time.Time
}

func (u StoreUploader) Upload(ctx context.Context, f File, progress ProgressFunc) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	now := time.Now
	if u.Now != nil {
		now = u.Now
	}

	// sniff the head, then replay it in front of the rest of the stream
	head := make([]byte, 3072)
	n, err := io.ReadFull(rc, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", err
	}
	head = head[:n]
	body := io.MultiReader(bytes.NewReader(head), rc)

	obj, err := u.Store.Upload(ctx, storage.ObjectKey(now(), f.Name), body, f.Size, mimetype.Detect(head).String(),
		func(p storage.Progress) {
			if progress != nil {
				progress(p.Percent())
			}
		})
	if err != nil {
		return "", err
	}
	return obj.URL, nil
}
