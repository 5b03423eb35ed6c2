package client

import (
	"context"
	"sync"
)

// MsgProfileUpdated is reported after a successful profile update.
const MsgProfileUpdated = "User's profile updated successfully"

// ProfileAPI is the part of the API the profile editor needs.
type ProfileAPI interface {
	UpdateUser(ctx context.Context, id string, changes map[string]string) (*User, error)
	DeleteUser(ctx context.Context, id string) error
}

// ProfileEditor edits the signed-in user's profile and avatar.
type ProfileEditor struct {
	api    ProfileAPI
	store  *Store
	avatar *ImageUpload
	// uploading reports an in-flight avatar upload; replaced in tests
	uploading func() bool

	mu   sync.Mutex
	form Form
}

// NewProfileEditor creates an editor for the store's current user. A finished
// avatar upload sets profilePicture in the form.
func NewProfileEditor(api ProfileAPI, store *Store, uploader Uploader, opts ...UploadOption) *ProfileEditor {
	p := &ProfileEditor{
		api:   api,
		store: store,
		form:  NewForm(profileValues(store.State().CurrentUser)),
	}
	p.avatar = NewImageUpload(uploader, opts...)
	p.avatar.onSuccess = func(url string) { p.SetField("profilePicture", url) }
	p.uploading = p.avatar.Uploading
	return p
}

func profileValues(u *User) map[string]string {
	if u == nil {
		return nil
	}
	return map[string]string{
		"username":       u.Username,
		"email":          u.Email,
		"profilePicture": u.ProfilePicture,
	}
}

// Avatar exposes the avatar upload pipeline.
func (p *ProfileEditor) Avatar() *ImageUpload { return p.avatar }

// Form returns the current form snapshot.
func (p *ProfileEditor) Form() Form {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.form
}

// SetField records a user edit.
func (p *ProfileEditor) SetField(key, value string) {
	p.mu.Lock()
	p.form = p.form.With(key, value)
	p.mu.Unlock()
}

// SelectAvatar picks a new avatar and starts uploading it right away.
func (p *ProfileEditor) SelectAvatar(ctx context.Context, f File) error {
	p.avatar.Select(f)
	return p.avatar.Start(ctx)
}

// Submit sends the changed fields. Empty change sets and pending avatar uploads
// are rejected locally without a request.
func (p *ProfileEditor) Submit(ctx context.Context) (string, error) {
	form := p.Form()
	if !form.HasChanges() {
		return "", ErrNoChanges
	}
	if p.uploading() {
		return "", ErrUploadInProgress
	}
	// re-read: an upload finishing after the first snapshot has written profilePicture
	form = p.Form()
	current := p.store.State().CurrentUser
	if current == nil {
		return "", ErrNotSignedIn
	}

	p.store.Dispatch(UpdateStart())
	updated, err := p.api.UpdateUser(ctx, current.ID, form.Changes())
	if err != nil {
		p.store.Dispatch(UpdateFailure(Message(err)))
		return "", err
	}
	p.store.Dispatch(UpdateSuccess(*updated))
	p.rebase(form, updated)
	return MsgProfileUpdated, nil
}

// rebase seeds the form from the saved user, keeping edits made after submitted was taken.
func (p *ProfileEditor) rebase(submitted Form, saved *User) {
	sent := submitted.Changes()
	p.mu.Lock()
	defer p.mu.Unlock()
	next := NewForm(profileValues(saved))
	for _, k := range p.form.ChangedKeys() {
		now, _ := p.form.Get(k)
		if v, ok := sent[k]; ok && v == now {
			continue
		}
		next = next.With(k, now)
	}
	p.form = next
}

// DeleteAccount deletes the signed-in user. Failures are dispatched with the message.
func (p *ProfileEditor) DeleteAccount(ctx context.Context) error {
	current := p.store.State().CurrentUser
	if current == nil {
		return ErrNotSignedIn
	}

	p.store.Dispatch(DeleteUserStart())
	if err := p.api.DeleteUser(ctx, current.ID); err != nil {
		p.store.Dispatch(DeleteUserFailure(Message(err)))
		return err
	}
	p.store.Dispatch(DeleteUserSuccess())
	return nil
}
