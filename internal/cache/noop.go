package cache

import "context"

// NoopStore is used when caching is disabled; it never holds a value.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) Get(context.Context, string) ([]byte, error) { return nil, ErrNotFound }
func (n *NoopStore) Put(context.Context, string, []byte) error   { return nil }
func (n *NoopStore) Delete(context.Context, string) error        { return nil }
func (n *NoopStore) Close() error                                { return nil }
