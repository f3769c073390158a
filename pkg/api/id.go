package api

import (
	"crypto/rand"
	"strings"
)

const (
	postIDPrefix = "post_"
	postIDChars  = 24
	alphabet     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewPostID returns "post_" followed by 24 random alphanumeric characters.
// Post IDs double as run IDs in the run history.
func NewPostID() string {
	var b strings.Builder
	b.Grow(len(postIDPrefix) + postIDChars)
	b.WriteString(postIDPrefix)

	buf := make([]byte, postIDChars*2)
	for n := 0; n < postIDChars; {
		rand.Read(buf)
		for _, c := range buf {
			// Drop the top two of 64 buckets so every character is
			// equally likely.
			if c &= 63; int(c) >= len(alphabet) {
				continue
			}
			b.WriteByte(alphabet[c])
			if n++; n == postIDChars {
				break
			}
		}
	}
	return b.String()
}

// ValidatePostID reports whether id has the shape produced by NewPostID.
func ValidatePostID(id string) bool {
	rest, ok := strings.CutPrefix(id, postIDPrefix)
	if !ok || len(rest) != postIDChars {
		return false
	}
	for i := 0; i < len(rest); i++ {
		if strings.IndexByte(alphabet, rest[i]) < 0 {
			return false
		}
	}
	return true
}
