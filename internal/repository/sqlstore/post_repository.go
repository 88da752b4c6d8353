package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"postboard/internal/domain"
	"postboard/internal/repository"
)

var createPostsTable = map[Dialect][]string{
	DialectSQLite: {`
CREATE TABLE IF NOT EXISTS posts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	image_url TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_user_updated ON posts(user_id, updated_at DESC)`,
	},
	DialectMySQL: {`
CREATE TABLE IF NOT EXISTS posts (
	id VARCHAR(36) NOT NULL PRIMARY KEY,
	user_id VARCHAR(64) NOT NULL,
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	image_url TEXT NOT NULL,
	created_at DATETIME(6) NOT NULL,
	updated_at DATETIME(6) NOT NULL,
	INDEX idx_posts_user_updated (user_id, updated_at)
)`,
	},
}

const selectPostColumns = `SELECT id, user_id, title, body, image_url, created_at, updated_at FROM posts`

type PostRepository struct {
	db *DB
}

func NewPostRepository(db *DB) repository.PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Init(ctx context.Context) error {
	if err := r.db.execAll(ctx, createPostsTable[r.db.Dialect]); err != nil {
		return fmt.Errorf("create posts table: %w", err)
	}
	return nil
}

func (r *PostRepository) Create(ctx context.Context, post *domain.Post) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO posts (id, user_id, title, body, image_url, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
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
	row := r.db.QueryRowContext(ctx, selectPostColumns+`
WHERE id = ? AND user_id = ?`,
		id,
		userID,
	)
	return scanPost(row)
}

func (r *PostRepository) ListByUser(ctx context.Context, userID string) ([]domain.Post, error) {
	rows, err := r.db.QueryContext(ctx, selectPostColumns+`
WHERE user_id = ?
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
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	post, err := scanPost(tx.QueryRowContext(ctx, selectPostColumns+`
WHERE id = ? AND user_id = ?`,
		id,
		userID,
	))
	if err != nil {
		return nil, err
	}

	post.Apply(in, time.Now())

	res, err := tx.ExecContext(ctx, `
UPDATE posts
SET title = ?, body = ?, image_url = ?, updated_at = ?
WHERE id = ? AND user_id = ?`,
		post.Title,
		post.Body,
		post.ImageURL,
		post.UpdatedAt,
		id,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	if aff, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("post update rows affected: %w", err)
	} else if aff == 0 {
		return nil, domain.ErrPostNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit post update: %w", err)
	}
	return post, nil
}

func (r *PostRepository) Delete(ctx context.Context, userID, id string) (*domain.Post, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	post, err := scanPost(tx.QueryRowContext(ctx, selectPostColumns+`
WHERE id = ? AND user_id = ?`,
		id,
		userID,
	))
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return nil, fmt.Errorf("delete post: %w", err)
	}
	if aff, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("post delete rows affected: %w", err)
	} else if aff == 0 {
		return nil, domain.ErrPostNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit post delete: %w", err)
	}
	return post, nil
}

func scanPost(scanner interface {
	Scan(dest ...any) error
}) (*domain.Post, error) {
	var post domain.Post
	if err := scanner.Scan(
		&post.ID,
		&post.UserID,
		&post.Title,
		&post.Body,
		&post.ImageURL,
		&post.CreatedAt,
		&post.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}

	post.CreatedAt = post.CreatedAt.UTC()
	post.UpdatedAt = post.UpdatedAt.UTC()
	return &post, nil
}
