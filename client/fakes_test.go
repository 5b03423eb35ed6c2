package client

import (
	"context"
	"sync"
	"sync/atomic"
)

// gateUploader blocks each upload until release is closed (when set).
type gateUploader struct {
	release chan struct{}
	steps   []int
	url     string
	err     error
	calls   int32
}

func (g *gateUploader) Upload(ctx context.Context, f File, progress ProgressFunc) (string, error) {
	atomic.AddInt32(&g.calls, 1)
	for _, s := range g.steps {
		progress(s)
	}
	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if g.err != nil {
		return "", g.err
	}
	return g.url, nil
}

type fakeProfileAPI struct {
	mu          sync.Mutex
	updateCalls int
	deleteCalls int
	lastChanges map[string]string
	updated     *User
	err         error
}

func (f *fakeProfileAPI) UpdateUser(_ context.Context, id string, changes map[string]string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	f.lastChanges = changes
	if f.err != nil {
		return nil, f.err
	}
	u := *f.updated
	return &u, nil
}

func (f *fakeProfileAPI) DeleteUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return f.err
}

type fakePostAPI struct {
	calls      int
	lastFields map[string]string
	err        error
}

func (f *fakePostAPI) CreatePost(_ context.Context, fields map[string]string) (*Post, error) {
	f.calls++
	f.lastFields = fields
	if f.err != nil {
		return nil, f.err
	}
	return &Post{ID: "p1", Title: fields["title"], Slug: "my-post", Category: fields["category"], Image: fields["image"]}, nil
}
