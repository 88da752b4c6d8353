package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"postboard/internal/domain"
	"postboard/internal/repository"
)

const createPostsTable = `
CREATE TABLE IF NOT EXISTS posts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	image_url TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_user_updated ON posts(user_id, updated_at DESC);
`

const selectPostColumns = `SELECT id, user_id, title, body, image_url, created_at, updated_at FROM posts`

type PostRepository struct {
	pool *pgxpool.Pool
}

func NewPostRepository(pool *pgxpool.Pool) repository.PostRepository {
	return &PostRepository{pool: pool}
}

func (r *PostRepository) Init(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createPostsTable); err != nil {
		return fmt.Errorf("create posts table: %w", err)
	}
	return nil
}

func (r *PostRepository) Create(ctx context.Context, post *domain.Post) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
INSERT INTO posts (id, user_id, title, body, image_url, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		post.ID,
		post.UserID,
		post.Title,
		post.Body,
		post.ImageURL,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *PostRepository) Get(ctx context.Context, userID, id string) (*domain.Post, error) {
	row := r.pool.QueryRow(ctx, selectPostColumns+`
WHERE id = $1 AND user_id = $2`,
		id,
		userID,
	)
	return scanPost(row)
}

func (r *PostRepository) ListByUser(ctx context.Context, userID string) ([]domain.Post, error) {
	rows, err := r.pool.Query(ctx, selectPostColumns+`
WHERE user_id = $1
ORDER BY updated_at DESC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []domain.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}

	return posts, rows.Err()
}

func (r *PostRepository) Update(ctx context.Context, userID, id string, in domain.PostInput) (*domain.Post, error) {
	var post *domain.Post
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		post, err = scanPost(tx.QueryRow(ctx, selectPostColumns+`
WHERE id = $1 AND user_id = $2`,
			id,
			userID,
		))
		if err != nil {
			return err
		}

		post.Apply(in, time.Now())

		tag, err := tx.Exec(ctx, `
UPDATE posts
SET title = $1, body = $2, image_url = $3, updated_at = $4
WHERE id = $5 AND user_id = $6`,
			post.Title,
			post.Body,
			post.ImageURL,
			post.UpdatedAt,
			id,
			userID,
		)
		if err != nil {
			return fmt.Errorf("update post: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrPostNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (r *PostRepository) Delete(ctx context.Context, userID, id string) (*domain.Post, error) {
	row := r.pool.QueryRow(ctx, `
DELETE FROM posts
WHERE id = $1 AND user_id = $2
RETURNING id, user_id, title, body, image_url, created_at, updated_at`,
		id,
		userID,
	)
	return scanPost(row)
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var post domain.Post
	if err := row.Scan(
		&post.ID,
		&post.UserID,
		&post.Title,
		&post.Body,
		&post.ImageURL,
		&post.CreatedAt,
		&post.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}

	post.CreatedAt = post.CreatedAt.UTC()
	post.UpdatedAt = post.UpdatedAt.UTC()
	return &post, nil
}
