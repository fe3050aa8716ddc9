package comment

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/blogbox/internal/telemetry/tracing"
)

var ErrCommentNotFound = errors.New("comment not found")

var _ commentRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// AddComment inserts the comment. A foreign key violation comes back as-is
// when the addressed blog does not exist, callers check for it via pkg.
func (r *Repo) AddComment(ctx context.Context, comment *Comment) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "commentRepo.AddComment")
	defer span.End()

	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO comment (comment, blog_id, user_id, created_at) VALUES ($1, $2, $3, $4) RETURNING id;`,
		comment.Comment, comment.BlogID, comment.UserID, comment.CreatedAt,
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
			comment.ID = id
			return nil
		}
	}

	return errors.New("unexpected error, failed to insert comment")
}

func (r *Repo) GetComment(ctx context.Context, id int) (*Comment, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "commentRepo.GetComment")
	span.SetAttributes(attribute.Int("id", id))
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, comment, blog_id, user_id, created_at FROM comment WHERE id = $1;`,
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
		return nil, ErrCommentNotFound
	}

	var c Comment
	if err := rows.Scan(&c.ID, &c.Comment, &c.BlogID, &c.UserID, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) DeleteComment(ctx context.Context, id int) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "commentRepo.DeleteComment")
	span.SetAttributes(attribute.Int("id", id))
	defer span.End()

	tag, err := r.db.Exec(ctx, `DELETE FROM comment WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCommentNotFound
	}
	return nil
}
