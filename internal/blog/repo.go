package blog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/blogbox/internal/telemetry/tracing"
)

var ErrBlogNotFound = errors.New("blog not found")

var _ blogRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) AddBlog(ctx context.Context, blog *Blog) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.AddBlog")
	defer span.End()

	if blog.CreatedAt.IsZero() {
		blog.CreatedAt = time.Now()
	}

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO blog (title, content, created_at, user_id) VALUES ($1, $2, $3, $4) RETURNING id;`,
		blog.Title, blog.Content, blog.CreatedAt, blog.UserID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return err
	}

	if rows.Next() {
		var id int
		if err := rows.Scan(&id); err == nil {
			blog.ID = id
			return nil
		}
	}

	return errors.New("unexpected error, failed to insert blog")
}

// UpdateBlog touches title and content only, created_at and owner stay as they are
func (r *Repo) UpdateBlog(ctx context.Context, id int, title, content string) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.UpdateBlog")
	span.SetAttributes(attribute.Int("id", id))
	defer span.End()

	tag, err := r.db.Exec(
		ctx,
		`UPDATE blog SET title = $1, content = $2 WHERE id = $3`,
		title, content, id,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrBlogNotFound
	}

	return nil
}

// DeleteBlog removes the blog row, its comments go away with it (FK cascade)
func (r *Repo) DeleteBlog(ctx context.Context, id int) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.DeleteBlog")
	span.SetAttributes(attribute.Int("id", id))
	defer span.End()

	tag, err := r.db.Exec(ctx, `DELETE FROM blog WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBlogNotFound
	}
	return nil
}

// Feed returns all blogs, newest first, with author summary and comment count.
func (r *Repo) Feed(ctx context.Context) ([]FeedItem, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.Feed")
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				b.id, b.title, b.content, b.created_at, b.user_id,
				u.username, u.name,
				COUNT(c.id) AS comments_count
			FROM blog b
			JOIN blog_user u ON u.id = b.user_id
			LEFT JOIN comment c ON c.blog_id = b.id
			GROUP BY b.id, u.id
			ORDER BY b.created_at DESC;
		`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var feed []FeedItem
	for rows.Next() {
		var item FeedItem
		if err := rows.Scan(
			&item.ID, &item.Title, &item.Content, &item.CreatedAt, &item.UserID,
			&item.Author.Username, &item.Author.Name,
			&item.CommentsCount,
		); err != nil {
			return nil, err
		}
		item.Author.ID = item.UserID
		feed = append(feed, item)
	}
	return feed, nil
}

// GetBlog returns one blog with its author and all comments, each with
// their author. ErrBlogNotFound when the blog is absent.
func (r *Repo) GetBlog(ctx context.Context, id int) (*Detail, error) {
	log.Tracef("getting blog %d", id)

	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.GetBlog")
	span.SetAttributes(attribute.Int("id", id))
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`
			SELECT b.id, b.title, b.content, b.created_at, b.user_id, u.username, u.name
			FROM blog b
			JOIN blog_user u ON u.id = b.user_id
			WHERE b.id = $1;
		`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, ErrBlogNotFound
	}

	var detail Detail
	if err := rows.Scan(
		&detail.ID, &detail.Title, &detail.Content, &detail.CreatedAt, &detail.UserID,
		&detail.Author.Username, &detail.Author.Name,
	); err != nil {
		return nil, err
	}
	detail.Author.ID = detail.UserID
	rows.Close()

	comments, err := r.blogComments(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Comments = comments

	return &detail, nil
}

// GetBlogOwner is a light fetch of id and owner only, for ownership checks.
func (r *Repo) GetBlogOwner(ctx context.Context, id int) (*Blog, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.GetBlogOwner")
	span.SetAttributes(attribute.Int("id", id))
	defer span.End()

	rows, err := r.db.Query(ctx, `SELECT id, user_id FROM blog WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, ErrBlogNotFound
	}

	var blog Blog
	if err := rows.Scan(&blog.ID, &blog.UserID); err != nil {
		return nil, err
	}
	return &blog, nil
}

func (r *Repo) blogComments(ctx context.Context, blogID int) ([]Comment, error) {
	rows, err := r.db.Query(
		ctx,
		`
			SELECT c.id, c.comment, c.blog_id, c.user_id, c.created_at, u.username, u.name
			FROM comment c
			JOIN blog_user u ON u.id = c.user_id
			WHERE c.blog_id = $1
			ORDER BY c.created_at;
		`,
		blogID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	comments := make([]Comment, 0)
	for rows.Next() {
		var c Comment
		if err := rows.Scan(
			&c.ID, &c.Comment, &c.BlogID, &c.UserID, &c.CreatedAt,
			&c.Author.Username, &c.Author.Name,
		); err != nil {
			return nil, err
		}
		c.Author.ID = c.UserID
		comments = append(comments, c)
	}
	return comments, nil
}
