package main

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"postboard/internal/client"
	"postboard/internal/client/state"
)

func renderList(w io.Writer, s state.State) {
	posts := s.Newest()
	if len(posts) == 0 {
		fmt.Fprintln(w, "No posts available")
		return
	}

	fmt.Fprintf(w, "Posts (%d)\n", len(posts))
	for _, post := range posts {
		fmt.Fprintln(w)
		renderPost(w, post)
	}
}

func renderPost(w io.Writer, post client.Post) {
	fmt.Fprintf(w, "%s  [%s]\n", post.Title, post.ID)
	fmt.Fprintln(w, strings.Repeat("-", utf8.RuneCountInString(post.Title)))
	fmt.Fprintln(w, post.Body)
	fmt.Fprintf(w, "image: %s\n", post.ImageURL)
	fmt.Fprintln(w, postTimestamp(post))
}

func postTimestamp(post client.Post) string {
	if post.CreatedAt.Equal(post.UpdatedAt) {
		return formatDate(post.CreatedAt)
	}
	return "updated:" + formatDate(post.UpdatedAt)
}

// formatDate renders t as "January 2nd, 2006 (3:04 PM)" in the local zone.
func formatDate(t time.Time) string {
	t = t.Local()
	return fmt.Sprintf("%s %d%s, %d (%s)", t.Month(), t.Day(), ordinal(t.Day()), t.Year(), t.Format("3:04 PM"))
}

func ordinal(day int) string {
	if day%100 >= 11 && day%100 <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
