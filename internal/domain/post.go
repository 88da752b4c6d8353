package domain

import "time"

// Post is a user-owned titled record with body text and an image reference.
type Post struct {
	ID        string
	UserID    string
	Title     string
	Body      string
	ImageURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PostInput carries the caller-editable fields of a Post.
type PostInput struct {
	Title    string
	Body     string
	ImageURL string
}

// Apply replaces the editable fields and advances UpdatedAt to now, or just past
// the previous value when the clock has not moved forward.
func (p *Post) Apply(in PostInput, now time.Time) {
	p.Title = in.Title
	p.Body = in.Body
	p.ImageURL = in.ImageURL

	now = now.UTC().Truncate(time.Microsecond)
	if !now.After(p.UpdatedAt) {
		now = p.UpdatedAt.Add(time.Microsecond)
	}
	p.UpdatedAt = now
}
