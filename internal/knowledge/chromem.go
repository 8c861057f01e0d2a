package knowledge

import (
	"context"
	"fmt"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/raidpulse/raidpulse-backend/internal/pkg/logger"
)

const defaultCollection = "community-knowledge"

// ChromemSearcher serves knowledge queries from an embedded chromem-go
// vector store. The embedding function is pluggable so tests run without any
// model: see HashEmbedding.
type ChromemSearcher struct {
	mu     sync.Mutex
	col    *chromem.Collection
	log    *logger.Logger
	maxHit int
}

func NewChromemSearcher(log *logger.Logger, embed chromem.EmbeddingFunc) (*ChromemSearcher, error) {
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(defaultCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("create knowledge collection: %w", err)
	}
	return &ChromemSearcher{
		col:    col,
		log:    log.With("service", "ChromemSearcher"),
		maxHit: 3,
	}, nil
}

// AddDocument indexes one knowledge document. Tags and category travel as
// metadata so SearchDocuments can rebuild the full Document.
func (s *ChromemSearcher) AddDocument(ctx context.Context, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.col.AddDocument(ctx, chromem.Document{
		ID:      doc.Path,
		Content: doc.Content,
		Metadata: map[string]string{
			"title":    doc.Title,
			"category": doc.Category,
			"tags":     strings.Join(doc.Tags, ","),
		},
	})
}

func (s *ChromemSearcher) SearchDocuments(ctx context.Context, query string) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.maxHit
	if count := s.col.Count(); count < n {
		n = count
	}
	if n == 0 {
		return nil, nil
	}

	results, err := s.col.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("knowledge query: %w", err)
	}

	out := make([]Document, 0, len(results))
	for _, res := range results {
		doc := Document{
			Title:          res.Metadata["title"],
			Content:        res.Content,
			Path:           res.ID,
			Category:       res.Metadata["category"],
			RelevanceScore: float64(res.Similarity),
		}
		if tags := res.Metadata["tags"]; tags != "" {
			doc.Tags = strings.Split(tags, ",")
		}
		out = append(out, doc)
	}
	return out, nil
}
