package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"postboard/internal/domain"
)

// setupTestPool connects to the database named by POSTBOARD_TEST_POSTGRES_DSN.
func setupTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("POSTBOARD_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTBOARD_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	pool, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to open postgres: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := NewPostRepository(pool).Init(ctx); err != nil {
		t.Fatalf("failed to init posts: %v", err)
	}
	if err := NewUserRepository(pool).Init(ctx); err != nil {
		t.Fatalf("failed to init users: %v", err)
	}
	return pool
}

func TestPostRepository_Lifecycle(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewPostRepository(pool)
	ctx := context.Background()

	owner := "user-" + uuid.NewString()
	post := &domain.Post{
		ID:       uuid.NewString(),
		UserID:   owner,
		Title:    "Hello",
		Body:     "World body",
		ImageURL: "https://x/img.png",
	}
	if err := repo.Create(ctx, post); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := repo.Get(ctx, "someone-else", post.ID); !errors.Is(err, domain.ErrPostNotFound) {
		t.Errorf("Get as other user: err = %v, want ErrPostNotFound", err)
	}

	updated, err := repo.Update(ctx, owner, post.ID, domain.PostInput{Title: "Hi", Body: "Another body", ImageURL: "https://x/2.png"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !updated.UpdatedAt.After(post.UpdatedAt) || !updated.CreatedAt.Equal(post.CreatedAt) {
		t.Errorf("timestamps: created %v -> %v, updated %v -> %v", post.CreatedAt, updated.CreatedAt, post.UpdatedAt, updated.UpdatedAt)
	}

	posts, err := repo.ListByUser(ctx, owner)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "Hi" {
		t.Errorf("ListByUser = %+v", posts)
	}

	deleted, err := repo.Delete(ctx, owner, post.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if deleted.ImageURL != "https://x/2.png" {
		t.Errorf("deleted ImageURL = %q", deleted.ImageURL)
	}
	if _, err := repo.Delete(ctx, owner, post.ID); !errors.Is(err, domain.ErrPostNotFound) {
		t.Errorf("second Delete: err = %v, want ErrPostNotFound", err)
	}
}

func TestUserRepository_Duplicate(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()

	name := "user-" + uuid.NewString()
	if err := repo.Create(ctx, &domain.User{ID: uuid.NewString(), Username: name, PasswordHash: "h"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	err := repo.Create(ctx, &domain.User{ID: uuid.NewString(), Username: name, PasswordHash: "h"})
	if !errors.Is(err, domain.ErrUserAlreadyExists) {
		t.Fatalf("err = %v, want ErrUserAlreadyExists", err)
	}
}
