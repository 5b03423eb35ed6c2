package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cppla/blogpress/models"
)

// MongoUserRepository handles user documents in MongoDB.
type MongoUserRepository struct {
	col *mongo.Collection
}

// NewMongoUserRepository uses the "users" collection of db.
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{col: db.Collection("users")}
}

// EnsureIndexes creates the unique indexes on username and email.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("mongo user indexes: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	user.PrepareCreate()
	if _, err := r.col.InsertOne(ctx, user); err != nil {
		return translateMongoError(err)
	}
	return nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, translateMongoError(err)
	}
	return &user, nil
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, translateMongoError(err)
	}
	return &user, nil
}

func (r *MongoUserRepository) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now()}
	if upd.Username != nil {
		set["username"] = *upd.Username
	}
	if upd.Email != nil {
		set["email"] = *upd.Email
	}
	if upd.PasswordHash != nil {
		set["password"] = *upd.PasswordHash
	}
	if upd.ProfilePicture != nil {
		set["profilePicture"] = *upd.ProfilePicture
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user); err != nil {
		return nil, translateMongoError(err)
	}
	return &user, nil
}

func (r *MongoUserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translateMongoError(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MongoPostRepository handles post documents in MongoDB.
type MongoPostRepository struct {
	col *mongo.Collection
}

// NewMongoPostRepository uses the "posts" collection of db.
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{col: db.Collection("posts")}
}

// EnsureIndexes creates unique title/slug indexes and the listing indexes.
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "title", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "updatedAt", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo post indexes: %w", err)
	}
	return nil
}

func (r *MongoPostRepository) Create(ctx context.Context, post *models.Post) error {
	post.PrepareCreate()
	if _, err := r.col.InsertOne(ctx, post); err != nil {
		return translateMongoError(err)
	}
	return nil
}

func (r *MongoPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, translateMongoError(err)
	}
	return &post, nil
}

func (r *MongoPostRepository) List(ctx context.Context, filter models.PostFilter) ([]models.Post, error) {
	f := NormalizeFilter(filter)
	q := bson.M{}
	if f.UserID != "" {
		q["userId"] = f.UserID
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.Slug != "" {
		q["slug"] = f.Slug
	}
	if f.PostID != "" {
		q["_id"] = f.PostID
	}
	if f.SearchTerm != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(f.SearchTerm), "$options": "i"}
		q["$or"] = bson.A{bson.M{"title": pattern}, bson.M{"content": pattern}}
	}

	dir := -1
	if f.Ascending {
		dir = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: dir}}).
		SetSkip(int64(f.StartIndex)).
		SetLimit(int64(f.Limit))

	cur, err := r.col.Find(ctx, q, opts)
	if err != nil {
		return nil, translateMongoError(err)
	}
	defer cur.Close(ctx)

	posts := []models.Post{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, translateMongoError(err)
	}
	return posts, nil
}

func (r *MongoPostRepository) Count(ctx context.Context, since time.Time) (int64, error) {
	q := bson.M{}
	if !since.IsZero() {
		q["createdAt"] = bson.M{"$gte": since}
	}
	n, err := r.col.CountDocuments(ctx, q)
	if err != nil {
		return 0, translateMongoError(err)
	}
	return n, nil
}

func (r *MongoPostRepository) Update(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now()
	set := bson.M{
		"title":     post.Title,
		"slug":      post.Slug,
		"category":  post.Category,
		"content":   post.Content,
		"image":     post.Image,
		"updatedAt": post.UpdatedAt,
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": post.ID}, bson.M{"$set": set})
	if err != nil {
		return translateMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoPostRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translateMongoError(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

var _ UserRepository = (*MongoUserRepository)(nil)
var _ PostRepository = (*MongoPostRepository)(nil)

func translateMongoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return err
	}
}
