package client

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageUploadSuccess(t *testing.T) {
	up := &gateUploader{release: make(chan struct{}), steps: []int{10, 55, 55, 40}, url: "https://cdn/x.png"}

	var mu sync.Mutex
	var progress []int
	iu := NewImageUpload(up, WithOnChange(func(s UploadState) {
		mu.Lock()
		progress = append(progress, s.Progress)
		mu.Unlock()
	}))
	var hooked string
	iu.onSuccess = func(url string) { hooked = url }

	iu.Select(FileFromBytes("avatar.png", []byte("png")))
	assert.Equal(t, "memory://avatar.png", iu.State().Preview)

	require.NoError(t, iu.Start(context.Background()))
	assert.True(t, iu.Uploading())
	assert.ErrorIs(t, iu.Start(context.Background()), ErrUploadInProgress)

	close(up.release)
	iu.Wait()

	st := iu.State()
	assert.False(t, st.Uploading)
	assert.Equal(t, "https://cdn/x.png", st.URL)
	assert.Equal(t, "https://cdn/x.png", st.Preview)
	assert.Equal(t, 100, st.Progress)
	assert.NoError(t, st.Err)
	assert.Equal(t, "https://cdn/x.png", hooked)

	mu.Lock()
	defer mu.Unlock()
	// select, start, 10, 55, finish; repeated and lower values are dropped
	assert.Equal(t, []int{0, 0, 10, 55, 100}, progress)
}

func TestImageUploadFailureResetsSelection(t *testing.T) {
	up := &gateUploader{err: errors.New("storage/unauthorized"), steps: []int{30}}
	iu := NewImageUpload(up)
	iu.Select(FileFromBytes("big.png", []byte("png")))

	require.NoError(t, iu.Start(context.Background()))
	iu.Wait()

	st := iu.State()
	assert.Nil(t, st.File)
	assert.Empty(t, st.Preview)
	assert.Zero(t, st.Progress)
	assert.False(t, st.Uploading)
	assert.ErrorIs(t, st.Err, ErrUploadFailed)
	assert.Equal(t, "Could not upload image (File must be less than 2MB)", st.Err.Error())
}

func TestImageUploadCancelIsFailure(t *testing.T) {
	up := &gateUploader{release: make(chan struct{})}
	iu := NewImageUpload(up)
	iu.Select(FileFromBytes("a.png", []byte("png")))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, iu.Start(ctx))
	cancel()
	iu.Wait()

	assert.ErrorIs(t, iu.State().Err, ErrUploadFailed)
	assert.Nil(t, iu.State().File)
}

func TestImageUploadWithoutFile(t *testing.T) {
	up := &gateUploader{}
	iu := NewImageUpload(up)
	assert.ErrorIs(t, iu.Start(context.Background()), ErrNoImage)
	assert.Equal(t, "Please select an image", iu.State().Err.Error())
	assert.Zero(t, up.calls)
}

func TestImageUploadMaxSize(t *testing.T) {
	up := &gateUploader{}
	iu := NewImageUpload(up, WithMaxSize(2))
	iu.Select(FileFromBytes("a.png", []byte("too big")))

	assert.ErrorIs(t, iu.Start(context.Background()), ErrUploadFailed)
	assert.Nil(t, iu.State().File)
	assert.Zero(t, up.calls)
}

func TestImageUploadReselectSupersedes(t *testing.T) {
	up := &gateUploader{release: make(chan struct{}), url: "https://cdn/old.png"}
	iu := NewImageUpload(up)
	iu.Select(FileFromBytes("old.png", []byte("png")))
	require.NoError(t, iu.Start(context.Background()))

	iu.Select(FileFromBytes("new.png", []byte("png")))
	close(up.release)
	iu.Wait()

	st := iu.State()
	assert.Equal(t, "memory://new.png", st.Preview)
	assert.Empty(t, st.URL)
}
