package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("document not found")

// DocumentStore keeps JSON documents grouped by collection.
type DocumentStore interface {
	// Put stores doc under id, replacing any previous document
	Put(ctx context.Context, collection, id string, doc any) error

	// Get returns the raw document, or ErrNotFound
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)

	// All returns every document of a collection ordered by id
	All(ctx context.Context, collection string) ([]json.RawMessage, error)

	// Delete removes a document; deleting a missing document is not an error
	Delete(ctx context.Context, collection, id string) error
}

// GetAs loads a document and decodes it into a T.
func GetAs[T any](ctx context.Context, s DocumentStore, collection, id string) (*T, error) {
	raw, err := s.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return &v, nil
}

// AllAs loads and decodes every document of a collection.
func AllAs[T any](ctx context.Context, s DocumentStore, collection string) ([]T, error) {
	raws, err := s.All(ctx, collection)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", collection, err)
		}
		out = append(out, v)
	}
	return out, nil
}
