package extract

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// ErrContentTooShort marks pages that returned something, just not enough to
// plausibly be a job description. Triggers fallback to the next method.
var ErrContentTooShort = errors.New("extracted content below minimum length")

// Method pulls readable text from one URL. Implementations must respect ctx
// and return ErrContentTooShort (possibly wrapped) on thin pages.
type Method interface {
	Name() string
	Attempt(ctx context.Context, url string) (string, error)
}

// Result is the outcome of extracting one candidate. Attempted lists every
// method tried in order; Method names the one that succeeded.
type Result struct {
	URL       string
	Text      string
	Method    string
	Attempted []string
	Err       error
}

func (r Result) OK() bool { return r.Err == nil }

var wsRun = regexp.MustCompile(`[ \t]{2,}`)
var nlRun = regexp.MustCompile(`\n{3,}`)

// cleanText collapses whitespace runs so length checks and LLM prompts see
// content, not formatting.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = wsRun.ReplaceAllString(s, " ")
	s = nlRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
