package blog

import (
	"time"

	"github.com/2beens/blogbox/internal/user"
)

type Blog struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UserID    int       `json:"user_id"`
}

// FeedItem is one feed entry: the blog with its author and comment count.
type FeedItem struct {
	Blog
	Author        user.Author `json:"author"`
	CommentsCount int         `json:"comments_count"`
}

// Detail is the full view of a single blog: author plus nested comments.
type Detail struct {
	Blog
	Author   user.Author `json:"author"`
	Comments []Comment   `json:"comments"`
}

// Comment is the nested comment view within a blog detail.
type Comment struct {
	ID        int         `json:"id"`
	Comment   string      `json:"comment"`
	BlogID    int         `json:"blog_id"`
	UserID    int         `json:"user_id"`
	CreatedAt time.Time   `json:"created_at"`
	Author    user.Author `json:"author"`
}
