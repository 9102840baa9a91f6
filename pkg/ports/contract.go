package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weft/pkg/domain"
)

func sampleTranscript(thread string) *domain.Transcript {
	tr := domain.NewTranscript(thread)
	tr.Turns = append(tr.Turns,
		domain.TurnRecord{
			ID:        "01J0000000000000000000000A",
			Step:      0,
			Prompt:    "Hello\n\nworld!",
			System:    "Be brief.",
			Actions:   []string{"search"},
			CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		domain.TurnRecord{
			ID:        "01J0000000000000000000000B",
			Step:      0,
			ToolCall:  1,
			Prompt:    "Result: 42",
			CreatedAt: time.Date(2026, 1, 2, 3, 4, 6, 0, time.UTC),
		},
	)
	return tr
}

// RunTranscriptStoreContract runs a suite of tests to verify that a TranscriptStore implementation
// adheres to the defined interface contract.
func RunTranscriptStoreContract(t *testing.T, store TranscriptStore) {
	ctx := context.Background()
	thread := "contract-test-thread-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		tr := sampleTranscript(thread)
		require.NoError(t, store.Save(ctx, tr), "Save should not return error")

		loaded, err := store.Load(ctx, thread)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, thread, loaded.Thread)
		require.Len(t, loaded.Turns, 2)
		assert.Equal(t, tr.Turns[0].Prompt, loaded.Turns[0].Prompt)
		assert.Equal(t, tr.Turns[0].System, loaded.Turns[0].System)
		assert.Equal(t, []string{"search"}, loaded.Turns[0].Actions)
		assert.Equal(t, 1, loaded.Turns[1].ToolCall)
		assert.True(t, tr.Turns[1].CreatedAt.Equal(loaded.Turns[1].CreatedAt))
	})

	t.Run("Save Replaces", func(t *testing.T) {
		tr := sampleTranscript(thread)
		tr.Turns = tr.Turns[:1]
		require.NoError(t, store.Save(ctx, tr))

		loaded, err := store.Load(ctx, thread)
		require.NoError(t, err)
		assert.Len(t, loaded.Turns, 1)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+thread)
		assert.ErrorIs(t, err, domain.ErrTranscriptNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sampleTranscript(thread)))
		require.NoError(t, store.Delete(ctx, thread), "Delete should not return error")

		_, err := store.Load(ctx, thread)
		assert.ErrorIs(t, err, domain.ErrTranscriptNotFound, "Load after Delete should return ErrTranscriptNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := thread + "-1"
		id2 := thread + "-2"
		_ = store.Save(ctx, sampleTranscript(id1))
		_ = store.Save(ctx, sampleTranscript(id2))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		threads, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, threads, id1)
		assert.Contains(t, threads, id2)
	})
}
