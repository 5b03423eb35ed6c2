package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormSnapshotsAreImmutable(t *testing.T) {
	base := NewForm(map[string]string{"username": "alice"})
	assert.False(t, base.HasChanges())

	edited := base.With("email", "a@x.com")
	assert.True(t, edited.HasChanges())
	assert.False(t, base.HasChanges())
	_, ok := base.Get("email")
	assert.False(t, ok)

	again := edited.With("username", "alice2")
	assert.Equal(t, []string{"email", "username"}, again.ChangedKeys())
	assert.Equal(t, map[string]string{"email": "a@x.com", "username": "alice2"}, again.Changes())
	v, _ := edited.Get("username")
	assert.Equal(t, "alice", v)
}

func TestFormSeedValuesAreNotChanges(t *testing.T) {
	f := NewForm(map[string]string{"username": "alice", "email": "a@x.com"})
	assert.Empty(t, f.Changes())
	assert.Empty(t, f.ChangedKeys())

	// setting the same value still counts as a user edit
	f = f.With("username", "alice")
	assert.Equal(t, map[string]string{"username": "alice"}, f.Changes())
}
