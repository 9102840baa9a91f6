package ports

import (
	"context"

	"github.com/aretw0/weft/pkg/domain"
)

// TranscriptStore defines the interface for persisting thread transcripts.
type TranscriptStore interface {
	// Save persists the transcript of a thread, replacing any previous version.
	Save(ctx context.Context, transcript *domain.Transcript) error

	// Load retrieves the transcript of a thread.
	// Returns domain.ErrTranscriptNotFound if the thread has no transcript.
	Load(ctx context.Context, thread string) (*domain.Transcript, error)

	// Delete removes the transcript of a thread.
	Delete(ctx context.Context, thread string) error

	// List returns the names of all stored threads.
	List(ctx context.Context) ([]string, error)
}
