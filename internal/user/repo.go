package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/2beens/blogbox/internal/telemetry/tracing"
	"github.com/2beens/blogbox/pkg"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) CreateUser(ctx context.Context, u *User) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "userRepo.CreateUser")
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO blog_user (name, username, password_hash) VALUES ($1, $2, $3) RETURNING id;`,
		u.Name, u.Username, u.PasswordHash,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return ErrUsernameTaken
		}
		return err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		if pkg.IsUniqueViolationError(err) {
			return ErrUsernameTaken
		}
		return err
	}

	if rows.Next() {
		var id int
		if err := rows.Scan(&id); err == nil {
			u.ID = id
			return nil
		}
	}

	// unique violations can also surface after the rows are drained
	if err := rows.Err(); pkg.IsUniqueViolationError(err) {
		return ErrUsernameTaken
	}

	return errors.New("unexpected error, failed to insert user")
}

func (r *Repo) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "userRepo.GetUserByUsername")
	defer span.End()

	return r.getUser(
		ctx,
		`SELECT id, name, username, password_hash FROM blog_user WHERE username = $1;`,
		username,
	)
}

func (r *Repo) GetUserByID(ctx context.Context, id int) (*User, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "userRepo.GetUserByID")
	defer span.End()

	return r.getUser(
		ctx,
		`SELECT id, name, username, password_hash FROM blog_user WHERE id = $1;`,
		id,
	)
}

func (r *Repo) getUser(ctx context.Context, query string, arg any) (*User, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, ErrUserNotFound
	}

	var u User
	if err := rows.Scan(&u.ID, &u.Name, &u.Username, &u.PasswordHash); err != nil {
		return nil, err
	}
	return &u, nil
}
