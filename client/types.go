package client

import "time"

// User is the public user payload returned by the API.
type User struct {
	ID             string    `json:"_id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	ProfilePicture string    `json:"profilePicture"`
	IsAdmin        bool      `json:"isAdmin"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Post is a blog post as returned by the API.
type Post struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Category  string    `json:"category"`
	Content   string    `json:"content"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostList is one page of posts plus totals.
type PostList struct {
	Posts          []Post `json:"posts"`
	TotalPosts     int64  `json:"totalPosts"`
	LastMonthPosts int64  `json:"lastMonthPosts"`
}

// PostQuery filters GetPosts. Zero values are omitted.
type PostQuery struct {
	UserID     string
	Category   string
	Slug       string
	PostID     string
	SearchTerm string
	StartIndex int
	Limit      int
	Ascending  bool
}

// UploadResult describes an uploaded image.
type UploadResult struct {
	URL  string `json:"url"`
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// Post categories offered by the composer.
const (
	CategoryUncategorized = "uncategorized"
	CategoryJavaScript    = "javascript"
	CategoryReactJS       = "reactjs"
	CategoryNextJS        = "nextjs"
)

// Categories lists the selectable categories, default first.
var Categories = []string{CategoryUncategorized, CategoryJavaScript, CategoryReactJS, CategoryNextJS}
