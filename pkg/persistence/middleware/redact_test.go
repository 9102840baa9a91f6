package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/weft/pkg/persistence/middleware"
)

func TestRedactMiddleware_Masking(t *testing.T) {
	underlyingStore := NewMockStore()
	// Mask e-mail addresses and card-like numbers
	mw := middleware.NewRedactMiddleware([]string{`[\w.]+@[\w.]+`, `\d{4}-\d{4}-\d{4}-\d{4}`})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	tr := transcript("pii-thread", "mail jdoe@example.com card 1234-5678-9012-3456 ok")

	// 1. Save
	if err := secureStore.Save(ctx, tr); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Verify the caller's transcript is NOT MODIFIED
	if tr.Turns[0].Prompt != "mail jdoe@example.com card 1234-5678-9012-3456 ok" {
		t.Error("Middleware modified original transcript in memory!")
	}

	// 2. Load from Underlying Store (Should be masked)
	stored, err := underlyingStore.Load(ctx, "pii-thread")
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if got := stored.Turns[0].Prompt; got != "mail *** card *** ok" {
		t.Errorf("Prompt should be masked, got: %q", got)
	}
	if got := stored.Turns[0].System; got != "system mail *** card *** ok" {
		t.Errorf("System should be masked, got: %q", got)
	}
}

func TestChain_Order(t *testing.T) {
	underlyingStore := NewMockStore()
	key := generateKey(t)
	store := middleware.Chain(underlyingStore,
		middleware.NewRedactMiddleware([]string{"secret"}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
	)

	ctx := context.Background()
	if err := store.Save(ctx, transcript("chain", "a secret")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := store.Load(ctx, "chain")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	// Redaction is outermost, so the text was masked before encryption.
	if loaded.Turns[0].Prompt != "a ***" {
		t.Errorf("got %q", loaded.Turns[0].Prompt)
	}
}
