package sse_test

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/pragatiboard/pragati/internal/app/store/docstore"
)

type failingReader struct{ n atomic.Int32 }

func (f *failingReader) calls() int32 { return f.n.Load() }

func (f *failingReader) Get(context.Context, docstore.Doc) (docstore.Document, error) {
	return docstore.Document{}, docstore.ErrNotFound
}

func (f *failingReader) List(context.Context, docstore.Collection, docstore.ListOptions) ([]docstore.Document, error) {
	f.n.Add(1)
	return nil, errors.New("backend down")
}
