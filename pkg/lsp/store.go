package lsp

import (
	"slices"
	"sync"

	"github.com/Sumatoshi-tech/rotalsp/pkg/engine"
)

type storedDocument struct {
	text string
	doc  *engine.Document
}

// DocumentStore is a thread-safe store of open documents keyed by URI. Each
// entry keeps the raw text and its parsed form so hover and completion reuse
// the symbol table built on the last change.
type DocumentStore struct {
	documents map[string]storedDocument
	mu        sync.RWMutex
}

// NewDocumentStore creates a new empty DocumentStore.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]storedDocument),
	}
}

// Set stores and parses document content for the given URI.
func (ds *DocumentStore) Set(uri, content string) *engine.Document {
	doc := engine.ParseDocument(content)

	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.documents[uri] = storedDocument{text: content, doc: doc}

	return doc
}

// Get retrieves the parsed document for a URI.
func (ds *DocumentStore) Get(uri string) (*engine.Document, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	entry, ok := ds.documents[uri]

	return entry.doc, ok
}

// Text retrieves the raw content for a URI.
func (ds *DocumentStore) Text(uri string) (string, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	entry, ok := ds.documents[uri]

	return entry.text, ok
}

// Delete removes a document.
func (ds *DocumentStore) Delete(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	delete(ds.documents, uri)
}

// URIs returns the open document URIs in sorted order.
func (ds *DocumentStore) URIs() []string {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	uris := make([]string, 0, len(ds.documents))
	for uri := range ds.documents {
		uris = append(uris, uri)
	}

	slices.Sort(uris)

	return uris
}
