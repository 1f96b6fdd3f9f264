package gravatar

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
	"unicode"
)

const baseURL = "https://www.gravatar.com/avatar/"

// Options controls how avatar URLs are built.
type Options struct {
	// DefaultImage is served when the address has no Gravatar.
	DefaultImage string
	// Rating is the maximum rating of the image.
	Rating string
	// Size is the edge length in pixels.
	Size int
}

// URL returns the Gravatar URL for email.
// Returns an empty string if email is empty.
func URL(email string, opts Options) string {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return ""
	}

	hash := sha256.Sum256([]byte(email))
	u := baseURL + hex.EncodeToString(hash[:])

	params := url.Values{}
	if opts.DefaultImage != "" {
		params.Add("d", opts.DefaultImage)
	}
	if opts.Rating != "" {
		params.Add("r", opts.Rating)
	}
	if opts.Size > 0 {
		params.Add("s", strconv.Itoa(opts.Size))
	}
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// Initials returns up to two upper-case letters for a username,
// used as avatar placeholder when no image is available.
func Initials(username string) string {
	fields := strings.FieldsFunc(username, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var b strings.Builder
	for _, f := range fields {
		r := []rune(f)[0]
		b.WriteRune(unicode.ToUpper(r))
		if b.Len() >= 2 || len(fields) == 1 {
			break
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}

// IsValidDefaultImage checks if the provided default image value is valid for Gravatar.
func IsValidDefaultImage(defaultImage string) bool {
	switch defaultImage {
	case "404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank":
		return true
	}
	return false
}

// IsValidRating checks if the provided rating value is valid for Gravatar.
func IsValidRating(rating string) bool {
	switch rating {
	case "g", "pg", "r", "x":
		return true
	}
	return false
}

// IsValidSize checks if the provided size value is valid for Gravatar (1-2048 pixels).
func IsValidSize(size int) bool {
	return size >= 1 && size <= 2048
}
