// Package client drives the blog API from the user's side: a shared state store
// mutated only through dispatched actions, an image upload pipeline with progress,
// and the profile editor and post composer flows built on them.
package client

import "sync"

// ActionType names a state transition.
type ActionType string

const (
	ActionSignInStart       ActionType = "user/signInStart"
	ActionSignInSuccess     ActionType = "user/signInSuccess"
	ActionSignInFailure     ActionType = "user/signInFailure"
	ActionUpdateStart       ActionType = "user/updateStart"
	ActionUpdateSuccess     ActionType = "user/updateSuccess"
	ActionUpdateFailure     ActionType = "user/updateFailure"
	ActionDeleteUserStart   ActionType = "user/deleteUserStart"
	ActionDeleteUserSuccess ActionType = "user/deleteUserSuccess"
	ActionDeleteUserFailure ActionType = "user/deleteUserFailure"
	ActionSignOutSuccess    ActionType = "user/signOutSuccess"
)

// Action is a dispatched state transition. Success actions carry User, failures carry Message.
type Action struct {
	Type    ActionType
	User    *User
	Message string
}

func SignInStart() Action { return Action{Type: ActionSignInStart} }
func SignInSuccess(u User) Action { return Action{Type: ActionSignInSuccess, User: &u} }
func SignInFailure(msg string) Action { return Action{Type: ActionSignInFailure, Message: msg} }
func UpdateStart() Action { return Action{Type: ActionUpdateStart} }
func UpdateSuccess(u User) Action { return Action{Type: ActionUpdateSuccess, User: &u} }
func UpdateFailure(msg string) Action { return Action{Type: ActionUpdateFailure, Message: msg} }
func DeleteUserStart() Action { return Action{Type: ActionDeleteUserStart} }
func DeleteUserSuccess() Action { return Action{Type: ActionDeleteUserSuccess} }
func DeleteUserFailure(msg string) Action { return Action{Type: ActionDeleteUserFailure, Message: msg} }
func SignOutSuccess() Action { return Action{Type: ActionSignOutSuccess} }

// State is the single source of truth for the signed-in user.
type State struct {
	CurrentUser *User
	Loading     bool
	Error       string
}

// Reduce returns the state that results from applying a to s. s is not modified.
func Reduce(s State, a Action) State {
	switch a.Type {
	case ActionSignInStart, ActionUpdateStart, ActionDeleteUserStart:
		s.Loading = true
		s.Error = ""
	case ActionSignInSuccess, ActionUpdateSuccess:
		s.CurrentUser = cloneUser(a.User)
		s.Loading = false
		s.Error = ""
	case ActionSignInFailure, ActionUpdateFailure, ActionDeleteUserFailure:
		s.Loading = false
		s.Error = a.Message
	case ActionDeleteUserSuccess, ActionSignOutSuccess:
		s.CurrentUser = nil
		s.Loading = false
		s.Error = ""
	}
	return s
}

func cloneUser(u *User) *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// Store holds State and applies dispatched actions one at a time.
type Store struct {
	dispatchMu sync.Mutex

	mu     sync.RWMutex
	state  State
	nextID int
	subs   map[int]func(State)
	order  []int
}

// NewStore creates a store starting from initial.
func NewStore(initial State) *Store {
	return &Store{state: initial, subs: map[int]func(State){}}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.CurrentUser = cloneUser(st.CurrentUser)
	return st
}

// Dispatch applies a and notifies subscribers in subscription order before returning.
// Subscribers must not call Dispatch.
func (s *Store) Dispatch(a Action) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state
	subs := make([]func(State), 0, len(s.order))
	for _, id := range s.order {
		subs = append(subs, s.subs[id])
	}
	s.mu.Unlock()

	for _, fn := range subs {
		st := next
		st.CurrentUser = cloneUser(next.CurrentUser)
		fn(st)
	}
}

// Subscribe registers fn to receive every new state. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.order = append(s.order, id)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}
