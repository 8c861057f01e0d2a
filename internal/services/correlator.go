package services

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	types "github.com/raidpulse/raidpulse-backend/internal/domain"
	"github.com/raidpulse/raidpulse-backend/internal/knowledge"
	"github.com/raidpulse/raidpulse-backend/internal/observability"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/logger"
)

const (
	maxMemoryMatches    = 3
	maxKnowledgeMatches = 3
	maxInsights         = 3
	insightThreshold    = 0.3
)

// MemoriesProvider is what the correlator needs from the engagement side.
type MemoriesProvider interface {
	GetUserMemories(ctx context.Context, userID uuid.UUID, limit int) []types.MemorySummary
}

type InsightService interface {
	// QueryKnowledgeAndMemory combines a member's cached memories with
	// knowledge-base hits into ranked insights. Empty inputs shrink the
	// bundle; nothing here ever fails the caller.
	QueryKnowledgeAndMemory(ctx context.Context, query string, userID uuid.UUID, limit int) *types.InsightBundle
}

type insightService struct {
	log      *logger.Logger
	memories MemoriesProvider
	searcher knowledge.Searcher

	mu  sync.Mutex
	rng *rand.Rand // injectable so tests pin the template choice
}

func NewInsightService(log *logger.Logger, memories MemoriesProvider, searcher knowledge.Searcher, rng *rand.Rand) InsightService {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &insightService{
		log:      log.With("service", "InsightService"),
		memories: memories,
		searcher: searcher,
		rng:      rng,
	}
}

func (s *insightService) QueryKnowledgeAndMemory(ctx context.Context, query string, userID uuid.UUID, limit int) *types.InsightBundle {
	ctx, span := observability.Tracer().Start(ctx, "insight.QueryKnowledgeAndMemory")
	defer span.End()

	bundle := &types.InsightBundle{}
	if limit <= 0 {
		limit = maxInsights
	}

	if userID != uuid.Nil {
		bundle.Memories = s.matchingMemories(ctx, query, userID)
	}

	docs, err := s.searcher.SearchDocuments(ctx, query)
	if err != nil {
		s.log.Warn("knowledge search failed", "error", err)
		docs = nil
	}
	if len(docs) > maxKnowledgeMatches {
		docs = docs[:maxKnowledgeMatches]
	}
	for _, d := range docs {
		bundle.Knowledge = append(bundle.Knowledge, types.KnowledgeDoc{
			Title:          d.Title,
			Content:        d.Content,
			Path:           d.Path,
			Category:       d.Category,
			Tags:           d.Tags,
			RelevanceScore: d.RelevanceScore,
		})
	}

	if len(bundle.Memories) == 0 || len(bundle.Knowledge) == 0 {
		return bundle
	}

	var insights []types.Insight
	for _, mem := range bundle.Memories {
		for _, doc := range bundle.Knowledge {
			score := correlate(mem, doc, query)
			if score <= insightThreshold {
				continue
			}
			insights = append(insights, types.Insight{
				Type:             "correlation",
				MemoryContext:    mem.Content,
				KnowledgeContext: doc.Title,
				CorrelationScore: score,
				Text:             s.renderInsight(mem, doc, score),
			})
		}
	}
	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].CorrelationScore > insights[j].CorrelationScore
	})
	if len(insights) > maxInsights {
		insights = insights[:maxInsights]
	}
	if len(insights) > limit {
		insights = insights[:limit]
	}
	bundle.CombinedInsights = insights
	return bundle
}

// matchingMemories keeps up to three cached memories whose text or kind
// contains the query, case-insensitive.
func (s *insightService) matchingMemories(ctx context.Context, query string, userID uuid.UUID) []types.MemorySummary {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil
	}
	var out []types.MemorySummary
	for _, mem := range s.memories.GetUserMemories(ctx, userID, fragmentsPerUser) {
		if strings.Contains(strings.ToLower(mem.Content), needle) ||
			strings.Contains(strings.ToLower(mem.Kind), needle) {
			out = append(out, mem)
			if len(out) == maxMemoryMatches {
				break
			}
		}
	}
	return out
}

// platformAffinity rewards pairs where the memory's platform and the
// document's category tend to talk about the same world.
var platformAffinity = map[string][]string{
	types.PlatformTelegram: {"community", "engagement"},
	types.PlatformTwitter:  {"social-platforms", "raids"},
	types.PlatformDiscord:  {"community", "coordination"},
}

func correlate(mem types.MemorySummary, doc types.KnowledgeDoc, query string) float64 {
	queryTokens := tokenize(query)
	memTokens := tokenize(mem.Content + " " + mem.Kind)

	score := 0.0

	// Both sides touching the query is the strongest signal.
	if intersects(memTokens, queryTokens) && tagsIntersect(doc.Tags, queryTokens) {
		score += 0.4
	}

	for _, cat := range platformAffinity[mem.Platform] {
		if strings.EqualFold(doc.Category, cat) {
			score += 0.2
			break
		}
	}

	shared := 0.0
	docTokens := tokenize(doc.Title + " " + doc.Content)
	for tok := range memTokens {
		if len(tok) > 3 && docTokens[tok] {
			shared += 0.1
			if shared >= 0.3 {
				break
			}
		}
	}
	score += shared

	if score > 1 {
		score = 1
	}
	return score
}

func tokenize(text string) map[string]bool {
	out := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		if tok != "" {
			out[tok] = true
		}
	}
	return out
}

func intersects(a, b map[string]bool) bool {
	for tok := range b {
		if a[tok] {
			return true
		}
	}
	return false
}

func tagsIntersect(tags []string, tokens map[string]bool) bool {
	for _, tag := range tags {
		if tokens[strings.ToLower(tag)] {
			return true
		}
	}
	return false
}

var insightTemplates = []string{
	"Your recent %s activity lines up with %q (match %.0f%%).",
	"Based on what you've been doing around %s, %q looks relevant (match %.0f%%).",
	"There's a connection between your %s interactions and %q (match %.0f%%).",
}

func (s *insightService) renderInsight(mem types.MemorySummary, doc types.KnowledgeDoc, score float64) string {
	s.mu.Lock()
	tmpl := insightTemplates[s.rng.Intn(len(insightTemplates))]
	s.mu.Unlock()
	return fmt.Sprintf(tmpl, mem.Kind, doc.Title, score*100)
}
