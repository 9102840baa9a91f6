package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/ports"
)

// Mask replaces every redacted match.
const Mask = "***"

type redactMiddleware struct {
	next     ports.TranscriptStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware creates a middleware that masks text matching the patterns
// in the prompt and system text of every saved turn.
// It panics if a pattern does not compile.
func NewRedactMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.TranscriptStore) ports.TranscriptStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactMiddleware) Save(ctx context.Context, transcript *domain.Transcript) error {
	// Clone to avoid side effects on the caller's transcript.
	cloned := transcript.Clone()
	for i := range cloned.Turns {
		cloned.Turns[i].Prompt = m.mask(cloned.Turns[i].Prompt)
		cloned.Turns[i].System = m.mask(cloned.Turns[i].System)
	}
	return m.next.Save(ctx, cloned)
}

func (m *redactMiddleware) mask(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, Mask)
	}
	return s
}

func (m *redactMiddleware) Load(ctx context.Context, thread string) (*domain.Transcript, error) {
	return m.next.Load(ctx, thread)
}

func (m *redactMiddleware) Delete(ctx context.Context, thread string) error {
	return m.next.Delete(ctx, thread)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
