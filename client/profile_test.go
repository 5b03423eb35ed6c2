package client

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedInStore() *Store {
	return NewStore(State{CurrentUser: &User{ID: "u1", Username: "alice01", Email: "a@x.com"}})
}

func TestProfileSubmitWithoutChangesMakesNoRequest(t *testing.T) {
	api := &fakeProfileAPI{}
	p := NewProfileEditor(api, signedInStore(), &gateUploader{})

	msg, err := p.Submit(context.Background())
	assert.Empty(t, msg)
	assert.ErrorIs(t, err, ErrNoChanges)
	assert.Equal(t, "No changes made", err.Error())
	assert.Zero(t, api.updateCalls)
}

func TestProfileSubmitWhileUploadingMakesNoRequest(t *testing.T) {
	api := &fakeProfileAPI{}
	up := &gateUploader{release: make(chan struct{}), url: "https://cdn/a.png"}
	p := NewProfileEditor(api, signedInStore(), up)
	defer func() { close(up.release); p.Avatar().Wait() }()

	p.SetField("username", "alice02")
	require.NoError(t, p.SelectAvatar(context.Background(), FileFromBytes("a.png", []byte("png"))))

	_, err := p.Submit(context.Background())
	assert.ErrorIs(t, err, ErrUploadInProgress)
	assert.Zero(t, api.updateCalls)
}

func TestProfileSubmitIncludesAvatarFinishedDuringSubmit(t *testing.T) {
	server := User{ID: "u1", Username: "alice02", Email: "a@x.com", ProfilePicture: "https://cdn/late.png"}
	api := &fakeProfileAPI{updated: &server}
	up := &gateUploader{release: make(chan struct{}), url: "https://cdn/late.png"}
	p := NewProfileEditor(api, signedInStore(), up)

	p.SetField("username", "alice02")
	require.NoError(t, p.SelectAvatar(context.Background(), FileFromBytes("late.png", []byte("png"))))

	// the upload completes after the change check but before the upload check
	p.uploading = func() bool {
		close(up.release)
		p.Avatar().Wait()
		return p.Avatar().Uploading()
	}

	_, err := p.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"username": "alice02", "profilePicture": "https://cdn/late.png"}, api.lastChanges)
}

func TestProfileSubmitSuccessStoresServerPayload(t *testing.T) {
	store := signedInStore()
	server := User{ID: "u1", Username: "alice02", Email: "a@x.com", ProfilePicture: "https://cdn/a.png", IsAdmin: true}
	api := &fakeProfileAPI{updated: &server}
	up := &gateUploader{url: "https://cdn/a.png"}
	p := NewProfileEditor(api, store, up)

	var states []State
	store.Subscribe(func(s State) { states = append(states, s) })

	require.NoError(t, p.SelectAvatar(context.Background(), FileFromBytes("a.png", []byte("png"))))
	p.Avatar().Wait()
	p.SetField("username", "alice02")

	msg, err := p.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "User's profile updated successfully", msg)
	assert.Equal(t, map[string]string{"username": "alice02", "profilePicture": "https://cdn/a.png"}, api.lastChanges)

	require.NotNil(t, store.State().CurrentUser)
	assert.Equal(t, server, *store.State().CurrentUser)
	require.Len(t, states, 2)
	assert.True(t, states[0].Loading)
	assert.False(t, states[1].Loading)

	// the saved values become the new baseline
	_, err = p.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNoChanges)
}

func TestProfileSubmitServerErrorDispatchesMessage(t *testing.T) {
	store := signedInStore()
	api := &fakeProfileAPI{err: &APIError{Status: http.StatusBadRequest, Message: "Username must be lowercase"}}
	p := NewProfileEditor(api, store, &gateUploader{})
	p.SetField("username", "Alice01x")

	_, err := p.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Username must be lowercase", err.Error())
	assert.Equal(t, "Username must be lowercase", store.State().Error)
	assert.False(t, store.State().Loading)
	assert.Equal(t, "alice01", store.State().CurrentUser.Username)
}

func TestProfileSubmitTransportErrorDispatchesMessage(t *testing.T) {
	store := signedInStore()
	api := &fakeProfileAPI{err: errors.New("connection refused")}
	p := NewProfileEditor(api, store, &gateUploader{})
	p.SetField("email", "b@x.com")

	_, err := p.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "connection refused", store.State().Error)
}

func TestProfileDeleteAccount(t *testing.T) {
	store := signedInStore()
	api := &fakeProfileAPI{err: &APIError{Status: http.StatusForbidden, Message: "You are not allowed to delete this user"}}
	p := NewProfileEditor(api, store, &gateUploader{})

	err := p.DeleteAccount(context.Background())
	require.Error(t, err)
	assert.Equal(t, "You are not allowed to delete this user", store.State().Error)
	assert.NotNil(t, store.State().CurrentUser)

	api.err = nil
	require.NoError(t, p.DeleteAccount(context.Background()))
	assert.Nil(t, store.State().CurrentUser)
	assert.Empty(t, store.State().Error)
	assert.Equal(t, 2, api.deleteCalls)
}

func TestProfileRequiresSignedInUser(t *testing.T) {
	p := NewProfileEditor(&fakeProfileAPI{}, NewStore(State{}), &gateUploader{})
	p.SetField("username", "someone1")
	_, err := p.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.ErrorIs(t, p.DeleteAccount(context.Background()), ErrNotSignedIn)
}
