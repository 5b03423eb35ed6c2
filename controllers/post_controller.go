package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogpress/config"
	"github.com/cppla/blogpress/middleware"
	"github.com/cppla/blogpress/models"
	"github.com/cppla/blogpress/repository"
	"github.com/cppla/blogpress/storage"
	"github.com/cppla/blogpress/utils"
)

const (
	postListCachePrefix = "cache:posts:list:"
	postListCacheTTL    = time.Hour
)

// PostController manages CRUD operations for posts.
type PostController struct {
	posts repository.PostRepository
	users repository.UserRepository
	store storage.ObjectStore
	cache *utils.Cache
}

// NewPostController creates a PostController. users resolves admin rights; store and cache may be nil.
func NewPostController(posts repository.PostRepository, users repository.UserRepository, store storage.ObjectStore, cache *utils.Cache) *PostController {
	return &PostController{posts: posts, users: users, store: store, cache: cache}
}

type postRequest struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Image    string `json:"image"`
	Content  string `json:"content"`
}

// normalize validates the request and fills post with cleaned values.
func (r postRequest) normalize(post *models.Post) string {
	title := utils.StripTags(strings.TrimSpace(r.Title))
	content := utils.Sanitize(r.Content)
	if title == "" || strings.TrimSpace(content) == "" {
		return "Please provide all required fields"
	}
	category := strings.ToLower(strings.TrimSpace(r.Category))
	if category == "" {
		category = models.CategoryUncategorized
	}
	if !models.ValidCategory(category) {
		return "Invalid category"
	}
	image := strings.TrimSpace(r.Image)
	if image == "" {
		image = config.Get().DefaultPostImage
	}

	post.Title = title
	post.Slug = utils.Slugify(title)
	post.Category = category
	post.Content = content
	post.Image = image
	return ""
}

// CreatePost stores a new post owned by the caller.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, 40020, "Please provide all required fields")
		return
	}

	post := models.Post{UserID: middleware.CurrentUserID(ctx)}
	if msg := req.normalize(&post); msg != "" {
		badRequest(ctx, 40021, msg)
		return
	}
	post.PrepareCreate()
	if post.Slug == "" {
		post.Slug = post.ID
	}

	if err := p.posts.Create(ctx.Request.Context(), &post); err != nil {
		p.failWrite(ctx, err)
		return
	}

	p.cache.InvalidateByPrefix(ctx.Request.Context(), postListCachePrefix)
	utils.Success(ctx, post)
}

type postListResponse struct {
	Posts          []models.Post `json:"posts"`
	TotalPosts     int64         `json:"totalPosts"`
	LastMonthPosts int64         `json:"lastMonthPosts"`
}

// GetPosts lists posts matching the query filters, newest first unless order=asc.
func (p *PostController) GetPosts(ctx *gin.Context) {
	filter := repository.NormalizeFilter(models.PostFilter{
		UserID:     strings.TrimSpace(ctx.Query("userId")),
		Category:   strings.TrimSpace(ctx.Query("category")),
		Slug:       strings.TrimSpace(ctx.Query("slug")),
		PostID:     strings.TrimSpace(ctx.Query("postId")),
		SearchTerm: strings.TrimSpace(ctx.Query("searchTerm")),
		StartIndex: queryInt(ctx, "startIndex"),
		Limit:      queryInt(ctx, "limit"),
		Ascending:  strings.EqualFold(ctx.Query("order"), "asc"),
	})

	reqCtx := ctx.Request.Context()
	cacheKey := ""
	if filter.SearchTerm == "" {
		cacheKey = postListCachePrefix + ctx.Request.URL.RawQuery
		var cached postListResponse
		if p.cache.GetJSON(reqCtx, cacheKey, &cached) {
			utils.Success(ctx, cached)
			return
		}
	}

	posts, err := p.posts.List(reqCtx, filter)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	total, err := p.posts.Count(reqCtx, time.Time{})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	lastMonth, err := p.posts.Count(reqCtx, time.Now().AddDate(0, -1, 0))
	if err != nil {
		utils.Fail(ctx, err)
		return
	}

	resp := postListResponse{Posts: posts, TotalPosts: total, LastMonthPosts: lastMonth}
	if resp.Posts == nil {
		resp.Posts = []models.Post{}
	}
	if cacheKey != "" {
		p.cache.SetJSON(reqCtx, cacheKey, resp, postListCacheTTL)
	}
	utils.Success(ctx, resp)
}

// UpdatePost replaces the editable fields of a post. Author or admin only.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	post, ok := p.loadOwned(ctx, "You are not allowed to update this post")
	if !ok {
		return
	}

	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, 40020, "Please provide all required fields")
		return
	}
	oldImage := post.Image
	if msg := req.normalize(post); msg != "" {
		badRequest(ctx, 40021, msg)
		return
	}
	if post.Slug == "" {
		post.Slug = post.ID
	}

	if err := p.posts.Update(ctx.Request.Context(), post); err != nil {
		p.failWrite(ctx, err)
		return
	}
	if oldImage != post.Image {
		p.removeImage(ctx.Request.Context(), oldImage)
	}

	p.cache.InvalidateByPrefix(ctx.Request.Context(), postListCachePrefix)
	utils.Success(ctx, post)
}

// DeletePost removes a post and, best effort, the image it uploaded. Author or admin only.
func (p *PostController) DeletePost(ctx *gin.Context) {
	post, ok := p.loadOwned(ctx, "You are not allowed to delete this post")
	if !ok {
		return
	}

	if err := p.posts.Delete(ctx.Request.Context(), post.ID); err != nil {
		p.failWrite(ctx, err)
		return
	}
	p.removeImage(ctx.Request.Context(), post.Image)

	p.cache.InvalidateByPrefix(ctx.Request.Context(), postListCachePrefix)
	utils.Message(ctx, "The post has been deleted")
}

func (p *PostController) loadOwned(ctx *gin.Context, forbidden string) (*models.Post, bool) {
	post, err := p.posts.GetByID(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Fail(ctx, utils.NewAppError(http.StatusNotFound, 40402, "Post not found"))
			return nil, false
		}
		utils.Fail(ctx, err)
		return nil, false
	}
	if post.UserID != middleware.CurrentUserID(ctx) && !isAdmin(ctx, p.users) {
		utils.Fail(ctx, utils.NewAppError(http.StatusForbidden, 40303, forbidden))
		return nil, false
	}
	return post, true
}

// removeImage deletes url from the object store when this service issued it.
func (p *PostController) removeImage(ctx context.Context, url string) {
	if p.store == nil || url == "" {
		return
	}
	key, ok := p.store.KeyFromURL(url)
	if !ok {
		return
	}
	if err := p.store.Remove(ctx, key); err != nil {
		utils.Sugar.Warnw("remove post image failed", "key", key, "err", err)
	}
}

func (p *PostController) failWrite(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		utils.Fail(ctx, utils.NewAppError(http.StatusConflict, 40903, "A post with this title already exists"))
	case errors.Is(err, repository.ErrNotFound):
		utils.Fail(ctx, utils.NewAppError(http.StatusNotFound, 40402, "Post not found"))
	default:
		utils.Fail(ctx, err)
	}
}

func queryInt(ctx *gin.Context, name string) int {
	n, err := strconv.Atoi(strings.TrimSpace(ctx.Query(name)))
	if err != nil {
		return 0
	}
	return n
}
