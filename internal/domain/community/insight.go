package community

import "time"

// Insight is an ephemeral correlation between one cached memory and one
// knowledge document. Computed on demand, never persisted.
type Insight struct {
	Type             string  `json:"type"`
	MemoryContext    string  `json:"memory_context"`
	KnowledgeContext string  `json:"knowledge_context"`
	CorrelationScore float64 `json:"correlation_score"`
	Text             string  `json:"text"`
}

// InsightBundle is the full answer to a knowledge-and-memory query.
type InsightBundle struct {
	Memories         []MemorySummary `json:"memories"`
	Knowledge        []KnowledgeDoc  `json:"knowledge"`
	CombinedInsights []Insight       `json:"combined_insights"`
}

// MemorySummary is the slice of an interaction the fragment cache and the
// correlator work with.
type MemorySummary struct {
	Kind      string    `json:"kind"`
	Content   string    `json:"content"`
	Platform  string    `json:"platform"`
	Weight    float64   `json:"weight"`
	CreatedAt time.Time `json:"created_at"`
}

// KnowledgeDoc mirrors what the knowledge-search collaborator returns.
type KnowledgeDoc struct {
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Path           string   `json:"path"`
	Category       string   `json:"category"`
	Tags           []string `json:"tags"`
	RelevanceScore float64  `json:"relevance_score"`
}
