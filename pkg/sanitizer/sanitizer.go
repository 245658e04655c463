package sanitizer

import (
	"regexp"
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reKeepLettersDigits = regexp.MustCompile(`[^0-9\p{L}]+`)
	reTrimUnderscores   = regexp.MustCompile(`_+`)
	reBlobRef           = regexp.MustCompile(`[^A-Za-z0-9._/\-]+`)
)

func trimAndLower(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return s
}

func collapseUnderscores(s string) string {
	s = reTrimUnderscores.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// SanitizeRoomType folds a room type to its catalogue key, so "Deluxe  Suite"
// and "deluxe-suite" are the same type.
func SanitizeRoomType(input string) string {
	p := Pipeline{
		trimAndLower,
		func(s string) string { return reKeepLettersDigits.ReplaceAllString(s, "_") },
		collapseUnderscores,
	}
	return p.Apply(input)
}

// SanitizePhotoRef keeps only characters valid in a blob key.
func SanitizePhotoRef(input string) string {
	p := Pipeline{
		strings.TrimSpace,
		func(s string) string { return reBlobRef.ReplaceAllString(s, "") },
		func(s string) string { return strings.Trim(s, "/") },
	}
	return p.Apply(input)
}

func SanitizeGuestID(input string) string {
	return TrimAndNormalize(input)
}
