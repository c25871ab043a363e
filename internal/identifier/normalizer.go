// Package identifier extracts and validates YouTube video ids from raw
// input that may be a bare id, a watch URL, a short link, or an
// embed/shorts/live path.
package identifier

import (
	"fmt"
	"regexp"
)

// VideoID is an 11-character YouTube video identifier.
type VideoID string

const videoIDPattern = `[A-Za-z0-9_-]{11}`

var (
	bareIDRe = regexp.MustCompile(`^` + videoIDPattern + `$`)

	// urlPatterns covers watch/embed/shorts/live paths and the youtu.be
	// short-link host. Order matters only in that the first capturing
	// match wins; patterns are mutually exclusive in practice.
	urlPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[?&]v=(` + videoIDPattern + `)`),
		regexp.MustCompile(`youtu\.be/(` + videoIDPattern + `)`),
		regexp.MustCompile(`/embed/(` + videoIDPattern + `)`),
		regexp.MustCompile(`/shorts/(` + videoIDPattern + `)`),
		regexp.MustCompile(`/live/(` + videoIDPattern + `)`),
		regexp.MustCompile(`/v/(` + videoIDPattern + `)`),
	}
)

// ErrInvalidID is returned when no valid video id could be extracted.
type ErrInvalidID struct {
	Input string
}

func (e *ErrInvalidID) Error() string {
	return fmt.Sprintf("invalid video identifier: %q", e.Input)
}

// Normalize extracts a VideoID from raw input. Accepts a bare 11-char id,
// a canonical watch URL, a youtu.be short link, or an embed/shorts/live
// path. Only the first valid 11-char capture is returned.
func Normalize(raw string) (VideoID, error) {
	if bareIDRe.MatchString(raw) {
		return VideoID(raw), nil
	}
	for _, re := range urlPatterns {
		if m := re.FindStringSubmatch(raw); m != nil {
			return VideoID(m[1]), nil
		}
	}
	return "", &ErrInvalidID{Input: raw}
}

// Valid reports whether s matches the video id shape, without attempting
// URL extraction.
func Valid(s VideoID) bool {
	return bareIDRe.MatchString(string(s))
}
