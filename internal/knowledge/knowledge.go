// Package knowledge wraps the knowledge-search collaborator the correlator
// queries. The default implementation is an embedded chromem-go vector store;
// the engine never sees more than the Searcher interface.
package knowledge

import (
	"context"
)

// Document is one knowledge-base hit.
type Document struct {
	Title          string
	Content        string
	Path           string
	Category       string
	Tags           []string
	RelevanceScore float64
}

type Searcher interface {
	SearchDocuments(ctx context.Context, query string) ([]Document, error)
}

// NullSearcher is wired when no knowledge base is configured.
type NullSearcher struct{}

func (NullSearcher) SearchDocuments(context.Context, string) ([]Document, error) {
	return nil, nil
}
