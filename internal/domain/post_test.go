package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestPostApply(t *testing.T) {
	base := time.Date(2024, 2, 18, 10, 0, 0, 0, time.UTC)
	in := PostInput{Title: "t", Body: "b", ImageURL: "u"}

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{name: "clock moved forward", now: base.Add(time.Second), want: base.Add(time.Second)},
		{name: "same instant", now: base, want: base.Add(time.Microsecond)},
		{name: "clock went backwards", now: base.Add(-time.Hour), want: base.Add(time.Microsecond)},
		{name: "sub-microsecond truncated", now: base.Add(time.Second + 999), want: base.Add(time.Second)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Post{ID: "id", UserID: "u1", CreatedAt: base, UpdatedAt: base}
			p.Apply(in, tt.now)

			if !p.UpdatedAt.Equal(tt.want) {
				t.Errorf("UpdatedAt = %v, want %v", p.UpdatedAt, tt.want)
			}
			if p.Title != "t" || p.Body != "b" || p.ImageURL != "u" {
				t.Errorf("fields not replaced: %+v", p)
			}
			if p.ID != "id" || p.UserID != "u1" || !p.CreatedAt.Equal(base) {
				t.Errorf("immutable fields changed: %+v", p)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := fmt.Errorf("create post: %w", Required("title"))

	if !IsValidation(err) {
		t.Fatal("expected wrapped ValidationError to be detected")
	}
	var v *ValidationError
	if !errors.As(err, &v) {
		t.Fatal("errors.As did not find ValidationError")
	}
	if v.Field != "title" {
		t.Errorf("Field = %q, want title", v.Field)
	}
	if v.Error() != "title is required" {
		t.Errorf("Error() = %q", v.Error())
	}
	if IsValidation(ErrUnauthorized) {
		t.Error("ErrUnauthorized is not a validation error")
	}
}
