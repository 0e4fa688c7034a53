// Package naming derives object names for the files written during one run.
//
// A pattern holds one double-quoted date-time format and a wildcard:
//
//	"yyyy-MM-dd'T'HH:mm:ss"*.json
//
// The quoted format is rendered once, in UTC, when the Namer is created. Every
// file of the run shares that timestamp and differs only in the wildcard, which
// is empty for the first file and "-n" for file n.
package naming

import (
	"strconv"
	"strings"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/errors"
)

// Wildcard is the per-file sequence placeholder.
const Wildcard = "*"

// Namer produces the file names of one run.
type Namer struct {
	base string
}

// New resolves pattern at instant now. The quoted section spans from the first to
// the last double quote of the pattern.
func New(pattern string, now time.Time) (*Namer, error) {
	start := strings.Index(pattern, `"`)
	end := strings.LastIndex(pattern, `"`)
	if start < 0 || end == start {
		return nil, errors.NewError("resolveFilePattern", errors.ErrInvalidFilePattern).
			WithMessage("pattern " + strconv.Quote(pattern) + " has no quoted date format")
	}
	if !strings.Contains(pattern, Wildcard) {
		return nil, errors.NewError("resolveFilePattern", errors.ErrInvalidFilePattern).
			WithMessage("pattern " + strconv.Quote(pattern) + " has no wildcard")
	}

	stamp, err := formatDateTime(pattern[start+1:end], now.UTC())
	if err != nil {
		return nil, errors.NewError("resolveFilePattern", errors.ErrInvalidFilePattern).
			WithMessage(err.Error())
	}

	return &Namer{base: pattern[:start] + stamp + pattern[end+1:]}, nil
}

// Base returns the resolved pattern with the wildcard still in place.
func (n *Namer) Base() string {
	return n.base
}

// Name returns the name of the file with the given zero-based sequence number.
func (n *Namer) Name(seq int) string {
	suffix := ""
	if seq > 0 {
		suffix = "-" + strconv.Itoa(seq)
	}
	return strings.ReplaceAll(n.base, Wildcard, suffix)
}

// Key joins an optional folder and a file name into an object key.
func Key(folder, name string) string {
	if folder == "" {
		return name
	}
	return folder + "/" + name
}
