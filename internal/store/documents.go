package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Documents is a typed view over one collection. T is encoded as JSON.
type Documents[T any] struct {
	store      Store
	collection Collection
}

func NewDocuments[T any](s Store, c Collection) *Documents[T] {
	return &Documents[T]{store: s, collection: c}
}

func (d *Documents[T]) Collection() Collection {
	return d.collection
}

func (d *Documents[T]) Get(ctx context.Context, key string) (*T, error) {
	raw, err := d.store.Get(ctx, d.collection, key)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s %s: %w", d.collection, key, err)
	}
	return &v, nil
}

func (d *Documents[T]) Put(ctx context.Context, key string, v *T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", d.collection, key, err)
	}
	return d.store.Put(ctx, d.collection, key, raw)
}

// Update decodes the stored document, lets fn mutate it and writes it
// back atomically. An error from fn aborts the write and is returned as is.
func (d *Documents[T]) Update(ctx context.Context, key string, fn func(*T) error) error {
	return d.store.Update(ctx, d.collection, key, func(raw []byte) ([]byte, error) {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s %s: %w", d.collection, key, err)
		}
		if err := fn(&v); err != nil {
			return nil, err
		}
		return json.Marshal(&v)
	})
}

func (d *Documents[T]) PutField(ctx context.Context, key string, path []string, value any) error {
	return d.store.PutField(ctx, d.collection, key, path, value)
}

// List decodes every document of the collection. A document that no
// longer decodes into T fails the whole listing.
func (d *Documents[T]) List(ctx context.Context) ([]*T, error) {
	raws, err := d.store.List(ctx, d.collection)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(raws))
	for i, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s #%d: %w", d.collection, i, err)
		}
		out = append(out, &v)
	}
	return out, nil
}
