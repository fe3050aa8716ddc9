package comment

import "time"

type Comment struct {
	ID        int       `json:"id"`
	Comment   string    `json:"comment"`
	BlogID    int       `json:"blog_id"`
	UserID    int       `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
