package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/cppla/blogpress/models"
)

func TestNormalizeFilter(t *testing.T) {
	f := NormalizeFilter(models.PostFilter{StartIndex: -3})
	assert.Equal(t, 0, f.StartIndex)
	assert.Equal(t, 9, f.Limit)

	f = NormalizeFilter(models.PostFilter{Limit: 1000})
	assert.Equal(t, 100, f.Limit)

	f = NormalizeFilter(models.PostFilter{StartIndex: 4, Limit: 2})
	assert.Equal(t, 4, f.StartIndex)
	assert.Equal(t, 2, f.Limit)
}

func TestTranslateGormError(t *testing.T) {
	assert.NoError(t, translateGormError(nil))
	assert.ErrorIs(t, translateGormError(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, translateGormError(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)), ErrDuplicate)

	other := errors.New("boom")
	assert.Equal(t, other, translateGormError(other))
}

func TestTranslateMongoError(t *testing.T) {
	assert.NoError(t, translateMongoError(nil))
	assert.ErrorIs(t, translateMongoError(mongo.ErrNoDocuments), ErrNotFound)

	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, translateMongoError(dup), ErrDuplicate)
}

func TestGormSearchEscapesWildcards(t *testing.T) {
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "user:pass@tcp(127.0.0.1:1)/blog",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	var posts []models.Post
	stmt := NewGormPostRepository(db).
		listQuery(context.Background(), models.PostFilter{SearchTerm: "100%_off!"}).
		Find(&posts).Statement

	assert.Contains(t, stmt.SQL.String(), "LIKE ? ESCAPE '!'")
	require.GreaterOrEqual(t, len(stmt.Vars), 2)
	assert.Equal(t, "%100!%!_off!!%", stmt.Vars[0])
	assert.Equal(t, "%100!%!_off!!%", stmt.Vars[1])
}
