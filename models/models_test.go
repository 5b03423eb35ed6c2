package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidCategory(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, ValidCategory(c), c)
	}
	assert.False(t, ValidCategory("golang"))
	assert.False(t, ValidCategory(""))
}

func TestUserUpdateApply(t *testing.T) {
	name := "newname1"
	pic := "https://img/x.png"
	upd := UserUpdate{Username: &name, ProfilePicture: &pic}
	assert.False(t, upd.Empty())

	u := User{Username: "old", Email: "a@x.com", PasswordHash: "h"}
	upd.Apply(&u)
	assert.Equal(t, "newname1", u.Username)
	assert.Equal(t, "https://img/x.png", u.ProfilePicture)
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, "h", u.PasswordHash)

	assert.True(t, UserUpdate{}.Empty())
}

func TestPrepareCreateKeepsExistingID(t *testing.T) {
	p := Post{ID: "fixed"}
	p.PrepareCreate()
	assert.Equal(t, "fixed", p.ID)
	assert.False(t, p.CreatedAt.IsZero())

	var u User
	u.PrepareCreate()
	assert.Len(t, u.ID, 36)
	assert.Equal(t, u.CreatedAt, u.UpdatedAt)
}
