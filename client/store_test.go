package client

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduceLifecycle(t *testing.T) {
	u := User{ID: "u1", Username: "alice"}

	s := Reduce(State{}, SignInSuccess(u))
	require.NotNil(t, s.CurrentUser)
	assert.Equal(t, u, *s.CurrentUser)

	s = Reduce(s, UpdateStart())
	assert.True(t, s.Loading)

	s = Reduce(s, UpdateFailure("Username must be lowercase"))
	assert.False(t, s.Loading)
	assert.Equal(t, "Username must be lowercase", s.Error)
	assert.Equal(t, "alice", s.CurrentUser.Username)

	updated := User{ID: "u1", Username: "alice2", ProfilePicture: "https://x/y.png"}
	s = Reduce(s, UpdateSuccess(updated))
	assert.Equal(t, updated, *s.CurrentUser)
	assert.Empty(t, s.Error)

	s = Reduce(s, DeleteUserStart())
	s = Reduce(s, DeleteUserFailure("You are not allowed to delete this user"))
	assert.Equal(t, "You are not allowed to delete this user", s.Error)
	assert.NotNil(t, s.CurrentUser)

	s = Reduce(s, DeleteUserSuccess())
	assert.Nil(t, s.CurrentUser)
	assert.False(t, s.Loading)
}

func TestReduceDoesNotAliasPayload(t *testing.T) {
	u := User{ID: "u1"}
	a := UpdateSuccess(u)
	s := Reduce(State{}, a)
	a.User.Username = "mutated"
	assert.Empty(t, s.CurrentUser.Username)
}

func TestStoreNotifiesInOrder(t *testing.T) {
	st := NewStore(State{})
	var got []string
	st.Subscribe(func(State) { got = append(got, "first") })
	unsub := st.Subscribe(func(State) { got = append(got, "second") })
	st.Subscribe(func(s State) { got = append(got, "third:"+s.Error) })

	st.Dispatch(UpdateFailure("x"))
	assert.Equal(t, []string{"first", "second", "third:x"}, got)

	got = nil
	unsub()
	st.Dispatch(UpdateStart())
	assert.Equal(t, []string{"first", "third:"}, got)
}

func TestStoreStateIsACopy(t *testing.T) {
	st := NewStore(State{CurrentUser: &User{ID: "u1", Username: "a"}})
	s := st.State()
	s.CurrentUser.Username = "changed"
	assert.Equal(t, "a", st.State().CurrentUser.Username)
}

func TestStoreConcurrentDispatch(t *testing.T) {
	st := NewStore(State{})
	count := 0
	st.Subscribe(func(State) { count++ })

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Dispatch(UpdateStart())
			_ = st.State()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, count)
}
