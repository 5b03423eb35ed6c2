package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposerSubmitWhileUploadingMakesNoRequest(t *testing.T) {
	api := &fakePostAPI{}
	up := &gateUploader{release: make(chan struct{}), url: "https://cdn/cover.png"}
	c := NewPostComposer(api, up)
	defer func() { close(up.release); c.Image().Wait() }()

	c.SetField("title", "My Post")
	c.SelectImage(FileFromBytes("cover.png", []byte("png")))
	require.NoError(t, c.UploadImage(context.Background()))

	_, _, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrImageUploadInProgress)
	assert.Equal(t, "Please wait for the image to upload", err.Error())
	assert.Zero(t, api.calls)
}

func TestComposerPublish(t *testing.T) {
	api := &fakePostAPI{}
	c := NewPostComposer(api, &gateUploader{url: "https://cdn/cover.png"})

	assert.ErrorIs(t, c.UploadImage(context.Background()), ErrNoImage)

	c.SetField("title", "My Post")
	c.SetField("content", "<p>hello</p>")
	require.NoError(t, c.SetCategory(CategoryReactJS))
	assert.ErrorIs(t, c.SetCategory("golang"), ErrInvalidCategory)

	c.SelectImage(FileFromBytes("cover.png", []byte("png")))
	require.NoError(t, c.UploadImage(context.Background()))
	c.Image().Wait()

	post, target, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/", target)
	assert.Equal(t, "/post/my-post", PostPath(post.Slug))
	assert.Equal(t, map[string]string{
		"title":    "My Post",
		"content":  "<p>hello</p>",
		"category": "reactjs",
		"image":    "https://cdn/cover.png",
	}, api.lastFields)
}

func TestComposerSurfacesServerMessage(t *testing.T) {
	api := &fakePostAPI{err: &APIError{Status: http.StatusConflict, Message: "A post with this title already exists"}}
	c := NewPostComposer(api, &gateUploader{})
	c.SetField("title", "dup")

	post, target, err := c.Submit(context.Background())
	assert.Nil(t, post)
	assert.Empty(t, target)
	assert.Equal(t, "A post with this title already exists", Message(err))
}

func TestCategoriesMatchEditor(t *testing.T) {
	assert.Equal(t, []string{"uncategorized", "javascript", "reactjs", "nextjs"}, Categories)
}
