package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/blogpress/storage"
)

func writeEnvelope(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": 0, "message": message, "data": data})
}

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret123" {
			writeEnvelope(w, http.StatusBadRequest, "Invalid email or password", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, "success", map[string]interface{}{
			"token": "tok-1",
			"user":  map[string]interface{}{"_id": "u1", "username": "alice01", "email": body["email"]},
		})
	})
	mux.HandleFunc("/api/user/update/u1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.Header.Get("Authorization") != "Bearer tok-1" {
			writeEnvelope(w, http.StatusUnauthorized, "authentication required", nil)
			return
		}
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeEnvelope(w, http.StatusOK, "success", map[string]interface{}{
			"_id": "u1", "username": body["username"], "email": "a@x.com", "isAdmin": false,
		})
	})
	mux.HandleFunc("/api/user/delete/u1", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusForbidden, "You are not allowed to delete this user", nil)
	})
	mux.HandleFunc("/api/post/getposts", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "reactjs", r.URL.Query().Get("category"))
		assert.Equal(t, "asc", r.URL.Query().Get("order"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		writeEnvelope(w, http.StatusOK, "success", map[string]interface{}{
			"posts":          []map[string]string{{"_id": "p1", "slug": "hello"}},
			"totalPosts":     5,
			"lastMonthPosts": 1,
		})
	})
	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			writeEnvelope(w, http.StatusBadRequest, "Please select an image", nil)
			return
		}
		defer file.Close()
		b, _ := io.ReadAll(file)
		writeEnvelope(w, http.StatusOK, "success", map[string]interface{}{
			"url": "https://cdn/1" + header.Filename, "key": "1" + header.Filename, "size": len(b),
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientSigninAndUpdate(t *testing.T) {
	srv := newAPIServer(t)
	c := New(srv.URL)
	ctx := context.Background()

	_, err := c.Signin(ctx, "a@x.com", "nope")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Invalid email or password", apiErr.Message)

	u, err := c.Signin(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "tok-1", c.Token())

	updated, err := c.UpdateUser(ctx, "u1", map[string]string{"username": "alice02"})
	require.NoError(t, err)
	assert.Equal(t, "alice02", updated.Username)

	err = c.DeleteUser(ctx, "u1")
	assert.Equal(t, "You are not allowed to delete this user", Message(err))
}

func TestClientGetPosts(t *testing.T) {
	srv := newAPIServer(t)
	list, err := New(srv.URL).GetPosts(context.Background(), PostQuery{Category: "reactjs", Limit: 2, Ascending: true})
	require.NoError(t, err)
	require.Len(t, list.Posts, 1)
	assert.Equal(t, "hello", list.Posts[0].Slug)
	assert.EqualValues(t, 5, list.TotalPosts)
}

func TestHTTPUploaderReportsProgress(t *testing.T) {
	srv := newAPIServer(t)
	data := []byte(strings.Repeat("x", 64<<10))

	var mu sync.Mutex
	var seen []int
	url, err := HTTPUploader{Client: New(srv.URL)}.Upload(context.Background(), FileFromBytes("pic.png", data), func(p int) {
		mu.Lock()
		seen = append(seen, p)
		mu.Unlock()
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/1pic.png", url)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, 100, seen[len(seen)-1])
}

func TestProfileEditorOverHTTP(t *testing.T) {
	srv := newAPIServer(t)
	c := New(srv.URL, WithToken("tok-1"))
	store := NewStore(State{CurrentUser: &User{ID: "u1", Username: "alice01"}})
	p := NewProfileEditor(c, store, HTTPUploader{Client: c})

	require.NoError(t, p.SelectAvatar(context.Background(), FileFromBytes("me.png", []byte("png"))))
	p.Avatar().Wait()
	p.SetField("username", "alice03")

	_, err := p.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice03", store.State().CurrentUser.Username)
}

type memObjectStore struct {
	key         string
	contentType string
	body        []byte
}

func (m *memObjectStore) Upload(_ context.Context, key string, r io.Reader, size int64, contentType string, progress storage.ProgressFunc) (*storage.Object, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.key, m.contentType, m.body = key, contentType, b
	progress(storage.Progress{Transferred: int64(len(b)), Total: size})
	return &storage.Object{Key: key, URL: "https://bucket/" + key, Size: int64(len(b)), ContentType: contentType}, nil
}

func (m *memObjectStore) Remove(context.Context, string) error { return nil }

func (m *memObjectStore) KeyFromURL(string) (string, bool) { return "", false }

func TestStoreUploader(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	store := &memObjectStore{}
	up := StoreUploader{Store: store, Now: func() time.Time { return time.UnixMilli(1700000000123) }}

	var last int
	url, err := up.Upload(context.Background(), FileFromBytes("cover art.png", png), func(p int) { last = p })
	require.NoError(t, err)
	assert.Equal(t, "https://bucket/1700000000123cover-art.png", url)
	assert.Equal(t, "image/png", store.contentType)
	assert.Equal(t, png, store.body)
	assert.Equal(t, 100, last)
}
