package client

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// File is an image picked for upload.
type File struct {
	Name    string
	Size    int64
	open    func() (io.ReadCloser, error)
	preview string
}

// FileFromPath describes the file at path without reading it.
func FileFromPath(path string) (File, error) {
	st, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return File{
		Name:    filepath.Base(path),
		Size:    st.Size(),
		open:    func() (io.ReadCloser, error) { return os.Open(path) },
		preview: "file://" + filepath.ToSlash(abs),
	}, nil
}

// FileFromBytes wraps in-memory image data.
func FileFromBytes(name string, data []byte) File {
	return File{
		Name:    name,
		Size:    int64(len(data)),
		open:    func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
		preview: "memory://" + name,
	}
}

// Open returns a fresh reader over the file content.
func (f File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, os.ErrInvalid
	}
	return f.open()
}

// Preview is a local reference usable before the upload completes.
func (f File) Preview() string { return f.preview }

// ProgressFunc receives whole-number upload percentages.
type ProgressFunc func(percent int)

// Uploader performs a resumable upload and returns the retrievable URL.
type Uploader interface {
	Upload(ctx context.Context, f File, progress ProgressFunc) (string, error)
}

// UploadState is a snapshot of an ImageUpload.
type UploadState struct {
	File      *File
	Preview   string
	Progress  int
	Uploading bool
	URL       string
	Err       error
}

// UploadOption configures an ImageUpload.
type UploadOption func(*ImageUpload)

// WithMaxSize rejects files larger than n bytes before any transfer starts.
func WithMaxSize(n int64) UploadOption {
	return func(iu *ImageUpload) { iu.maxSize = n }
}

// WithOnChange receives every published state.
func WithOnChange(fn func(UploadState)) UploadOption {
	return func(iu *ImageUpload) { iu.onChange = fn }
}

// ImageUpload is the select → upload → URL pipeline shared by the profile editor
// and the post composer. Lifecycle: idle → uploading → (succeeded | failed).
type ImageUpload struct {
	uploader  Uploader
	maxSize   int64
	onChange  func(UploadState)
	onSuccess func(url string)

	mu    sync.Mutex
	state UploadState
	gen   int
	done  chan struct{}
}

// NewImageUpload creates a pipeline that transfers through u.
func NewImageUpload(u Uploader, opts ...UploadOption) *ImageUpload {
	iu := &ImageUpload{uploader: u}
	for _, opt := range opts {
		opt(iu)
	}
	return iu
}

// State returns the current snapshot.
func (iu *ImageUpload) State() UploadState {
	iu.mu.Lock()
	defer iu.mu.Unlock()
	return iu.state
}

// Uploading reports whether a transfer is in flight.
func (iu *ImageUpload) Uploading() bool {
	iu.mu.Lock()
	defer iu.mu.Unlock()
	return iu.state.Uploading
}

// Select picks f and shows its local preview. Any in-flight upload is superseded.
func (iu *ImageUpload) Select(f File) {
	iu.mu.Lock()
	iu.gen++
	iu.state = UploadState{File: &f, Preview: f.Preview()}
	st := iu.state
	iu.mu.Unlock()
	iu.publish(st)
}

// Start launches the upload of the selected file in its own goroutine and returns
// immediately. Cancelling ctx aborts the transfer, which is reported as a failure.
func (iu *ImageUpload) Start(ctx context.Context) error {
	iu.mu.Lock()
	switch {
	case iu.state.File == nil:
		iu.state.Err = ErrNoImage
		st := iu.state
		iu.mu.Unlock()
		iu.publish(st)
		return ErrNoImage
	case iu.state.Uploading:
		iu.mu.Unlock()
		return ErrUploadInProgress
	case iu.uploader == nil:
		iu.state.Err = ErrUploadStart
		st := iu.state
		iu.mu.Unlock()
		iu.publish(st)
		return ErrUploadStart
	}

	f := *iu.state.File
	iu.gen++
	gen := iu.gen
	if iu.maxSize > 0 && f.Size > iu.maxSize {
		iu.state = UploadState{Err: ErrUploadFailed}
		st := iu.state
		iu.mu.Unlock()
		iu.publish(st)
		return ErrUploadFailed
	}

	iu.state.Uploading = true
	iu.state.Progress = 0
	iu.state.URL = ""
	iu.state.Err = nil
	done := make(chan struct{})
	iu.done = done
	st := iu.state
	iu.mu.Unlock()
	iu.publish(st)

	go func() {
		defer close(done)
		url, err := iu.uploader.Upload(ctx, f, func(p int) { iu.progress(gen, p) })
		iu.finish(gen, url, err)
	}()
	return nil
}

// Wait blocks until the most recently started upload has finished.
func (iu *ImageUpload) Wait() {
	iu.mu.Lock()
	done := iu.done
	iu.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (iu *ImageUpload) progress(gen, pct int) {
	if pct > 100 {
		pct = 100
	}
	iu.mu.Lock()
	if gen != iu.gen || !iu.state.Uploading || pct <= iu.state.Progress {
		iu.mu.Unlock()
		return
	}
	iu.state.Progress = pct
	st := iu.state
	iu.mu.Unlock()
	iu.publish(st)
}

// finish records the outcome. The success hook runs before Uploading clears so a
// consumer never observes a finished upload whose URL is missing from its form.
func (iu *ImageUpload) finish(gen int, url string, err error) {
	iu.mu.Lock()
	if gen != iu.gen {
		iu.mu.Unlock()
		return
	}
	if err != nil || url == "" {
		iu.state = UploadState{Err: ErrUploadFailed}
	} else {
		if iu.onSuccess != nil {
			iu.onSuccess(url)
		}
		iu.state.Uploading = false
		iu.state.Progress = 100
		iu.state.URL = url
		iu.state.Preview = url
		iu.state.Err = nil
	}
	st := iu.state
	iu.mu.Unlock()
	iu.publish(st)
}

func (iu *ImageUpload) publish(st UploadState) {
	if iu.onChange != nil {
		iu.onChange(st)
	}
}
