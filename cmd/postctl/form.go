package main

import (
	"fmt"
	"unicode/utf8"

	"postboard/internal/client"
)

const (
	minTitleLen    = 3
	minBodyLen     = 10
	minImageURLLen = 5
)

// validateForm applies the form's minimum lengths before anything is sent.
func validateForm(data client.PostData) error {
	checks := []struct {
		field string
		value string
		min   int
	}{
		{"title", data.Title, minTitleLen},
		{"body", data.Body, minBodyLen},
		{"imageUrl", data.ImageURL, minImageURLLen},
	}
	for _, c := range checks {
		if utf8.RuneCountInString(c.value) < c.min {
			return fmt.Errorf("%s must contain at least %d characters", c.field, c.min)
		}
	}
	return nil
}
