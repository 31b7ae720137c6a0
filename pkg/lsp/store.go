package lsp

import (
	"sync"

	"github.com/Sumatoshi-tech/importonly/pkg/checker"
)

// document is an open text document and the diagnostics last published for it.
type document struct {
	text  string
	diags []checker.Diagnostic
}

// DocumentStore is a thread-safe store for open documents keyed by URI.
type DocumentStore struct {
	documents map[string]document
	mu        sync.RWMutex
}

// NewDocumentStore creates a new empty DocumentStore.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]document),
	}
}

// Set stores document content for the given URI and forgets its diagnostics.
func (ds *DocumentStore) Set(uri, content string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.documents[uri] = document{text: content}
}

// Get retrieves document content by URI.
func (ds *DocumentStore) Get(uri string) (string, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	doc, ok := ds.documents[uri]

	return doc.text, ok
}

// SetDiagnostics records diagnostics for an open document. It is a no-op
// once the document is closed.
func (ds *DocumentStore) SetDiagnostics(uri string, diags []checker.Diagnostic) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if doc, ok := ds.documents[uri]; ok {
		doc.diags = diags
		ds.documents[uri] = doc
	}
}

// Diagnostics returns the diagnostics last recorded for uri.
func (ds *DocumentStore) Diagnostics(uri string) []checker.Diagnostic {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	return ds.documents[uri].diags
}

// Delete removes document content by URI.
func (ds *DocumentStore) Delete(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	delete(ds.documents, uri)
}

// Len returns the number of open documents.
func (ds *DocumentStore) Len() int {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	return len(ds.documents)
}
