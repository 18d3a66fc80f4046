package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"
)

const (
	// DefaultKeyword is the substring a token must contain to qualify
	DefaultKeyword = "part"
	// DefaultOccurrence selects the part list label, not the page heading
	DefaultOccurrence = 2
	// DefaultTimeout bounds a single engine call
	DefaultTimeout = 60 * time.Second
)

// Qualifies reports whether a token's trimmed, lowercased text contains keyword
func Qualifies(text, keyword string) bool {
	return strings.Contains(strings.ToLower(strings.TrimSpace(text)), keyword)
}

// FindOccurrence returns the index of the n-th qualifying token, scanning
// strictly in report order and stopping at the match. ok is false when fewer
// than n tokens qualify, even if some do.
func FindOccurrence(tokens []Token, keyword string, n int) (index int, ok bool) {
	if n < 1 {
		return -1, false
	}
	count := 0
	for i, tok := range tokens {
		if !Qualifies(tok.Text, keyword) {
			continue
		}
		count++
		if count == n {
			return i, true
		}
	}
	return -1, false
}

// Location is the outcome of locating the label on one image
type Location struct {
	Tokens []Token // everything the engine reported, in order
	Index  int     // index into Tokens of the located label, -1 if not found
	Found  bool
}

// Box returns the located label's box; the zero box when not found
func (l Location) Box() BoundingBox {
	if !l.Found {
		return BoundingBox{}
	}
	return l.Tokens[l.Index].Box
}

// Locator finds the n-th token containing Keyword on an image
type Locator struct {
	Engine     Engine
	Keyword    string
	Occurrence int
	Timeout    time.Duration // zero disables the bound
}

// NewLocator returns a Locator with the two-occurrence "part" policy
func NewLocator(engine Engine) *Locator {
	return &Locator{
		Engine:     engine,
		Keyword:    DefaultKeyword,
		Occurrence: DefaultOccurrence,
		Timeout:    DefaultTimeout,
	}
}

// Locate runs OCR on img and returns where the label is. A label that is
// not present is reported through Location.Found, not as an error; engine
// failures, including timeouts, are returned as *EngineError.
func (l *Locator) Locate(ctx context.Context, img image.Image) (Location, error) {
	tokens, err := l.recognize(ctx, img)
	if err != nil {
		return Location{Index: -1}, err
	}
	idx, ok := FindOccurrence(tokens, strings.ToLower(l.Keyword), l.Occurrence)
	return Location{Tokens: tokens, Index: idx, Found: ok}, nil
}

type recognizeResult struct {
	tokens []Token
	err    error
}

// recognize calls the engine in its own goroutine so that an engine which
// ignores ctx still cannot block past the timeout.
func (l *Locator) recognize(ctx context.Context, img image.Image) ([]Token, error) {
	if l.Engine == nil {
		return nil, &EngineError{Engine: "none", Err: errors.New("no OCR engine configured")}
	}
	name := l.Engine.Name()

	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	done := make(chan recognizeResult, 1)
	go func() {
		tokens, err := l.Engine.Recognize(ctx, img)
		done <- recognizeResult{tokens: tokens, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			var engineErr *EngineError
			if errors.As(res.err, &engineErr) {
				return nil, res.err
			}
			return nil, &EngineError{Engine: name, Err: res.err}
		}
		return res.tokens, nil
	case <-ctx.Done():
		return nil, &EngineError{Engine: name, Err: fmt.Errorf("recognition abandoned: %w", ctx.Err())}
	}
}
