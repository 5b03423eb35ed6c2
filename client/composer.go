package client

import (
	"context"
	"errors"
	"net/url"
	"sync"
)

// HomePath is where the composer navigates after publishing.
const HomePath = "/"

// ErrInvalidCategory is returned by SetCategory for values outside Categories.
var ErrInvalidCategory = errors.New("Invalid category")

// PostAPI is the part of the API the composer needs.
type PostAPI interface {
	CreatePost(ctx context.Context, fields map[string]string) (*Post, error)
}

// PostComposer builds and publishes a new post with an optional cover image.
type PostComposer struct {
	api   PostAPI
	image *ImageUpload

	mu   sync.Mutex
	form Form
}

// NewPostComposer creates a composer. A finished image upload sets image in the form.
func NewPostComposer(api PostAPI, uploader Uploader, opts ...UploadOption) *PostComposer {
	c := &PostComposer{api: api, form: NewForm(nil)}
	c.image = NewImageUpload(uploader, opts...)
	c.image.onSuccess = func(url string) { c.SetField("image", url) }
	return c
}

// Image exposes the cover image upload pipeline.
func (c *PostComposer) Image() *ImageUpload { return c.image }

// Form returns the current form snapshot.
func (c *PostComposer) Form() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// SetField records a user edit (title, content, image).
func (c *PostComposer) SetField(key, value string) {
	c.mu.Lock()
	c.form = c.form.With(key, value)
	c.mu.Unlock()
}

// SetCategory selects one of Categories.
func (c *PostComposer) SetCategory(category string) error {
	for _, v := range Categories {
		if v == category {
			c.SetField("category", category)
			return nil
		}
	}
	return ErrInvalidCategory
}

// SelectImage picks the cover image; UploadImage starts the transfer.
func (c *PostComposer) SelectImage(f File) { c.image.Select(f) }

// UploadImage uploads the selected cover image in the background.
func (c *PostComposer) UploadImage(ctx context.Context) error { return c.image.Start(ctx) }

// Submit publishes the post and returns it with the path to navigate to.
// It is refused locally while the cover image is still uploading.
func (c *PostComposer) Submit(ctx context.Context) (*Post, string, error) {
	if c.image.Uploading() {
		return nil, "", ErrImageUploadInProgress
	}
	post, err := c.api.CreatePost(ctx, c.Form().Changes())
	if err != nil {
		return nil, "", err
	}
	return post, HomePath, nil
}

// PostPath is the page of a published post.
func PostPath(slug string) string {
	return "/post/" + url.PathEscape(slug)
}
