package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/aretw0/weft/pkg/domain"
)

const bucketTranscripts = "transcripts"

// Store implements ports.TranscriptStore on a single bbolt database file.
// Each thread is one key in the transcripts bucket, holding the JSON transcript.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript database: %w", err)
	}
	store, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an open database, creating the transcripts bucket if needed.
func New(db *bolt.DB) (*Store, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketTranscripts))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize transcript bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Save persists the transcript, replacing any previous version.
func (s *Store) Save(ctx context.Context, transcript *domain.Transcript) error {
	if transcript.Thread == "" {
		return fmt.Errorf("thread cannot be empty")
	}
	data, err := json.Marshal(transcript)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketTranscripts)).Put([]byte(transcript.Thread), data)
	})
}

// Load retrieves the transcript of a thread.
func (s *Store) Load(ctx context.Context, thread string) (*domain.Transcript, error) {
	var tr *domain.Transcript
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketTranscripts)).Get([]byte(thread))
		if v == nil {
			return domain.ErrTranscriptNotFound
		}
		// v is only valid inside the transaction.
		tr = &domain.Transcript{}
		if err := json.Unmarshal(v, tr); err != nil {
			return fmt.Errorf("failed to unmarshal transcript: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tr, nil
}

// Delete removes the transcript of a thread.
func (s *Store) Delete(ctx context.Context, thread string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketTranscripts)).Delete([]byte(thread))
	})
}

// List returns the stored threads in key order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	threads := []string{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketTranscripts)).ForEach(func(k, _ []byte) error {
			threads = append(threads, string(k))
			return nil
		})
	})
	return threads, err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
