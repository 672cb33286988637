package utils

import "github.com/microcosm-cc/bluemonday"

// Community posts are plain text; strip every element rather than allowing
// a formatting subset.
var postPolicy = bluemonday.StrictPolicy()

// Sanitize strips all HTML from user-submitted text.
func Sanitize(input string) string {
	return postPolicy.Sanitize(input)
}
