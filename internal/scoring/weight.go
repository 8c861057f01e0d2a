// Package scoring turns raw interactions into the scalar worth the rest of
// the engine is built on. Everything here is pure: the caller supplies the
// clock reading, nothing reads global state.
package scoring

import (
	"math"
	"strings"
	"time"

	types "github.com/raidpulse/raidpulse-backend/internal/domain"
)

type Engine struct {
	tables Tables
}

func NewEngine(tables Tables) *Engine {
	return &Engine{tables: tables}
}

func (e *Engine) Tables() Tables { return e.tables }

// HighValue reports whether a computed weight should trigger a standing
// update.
func (e *Engine) HighValue(weight float64) bool {
	return weight >= e.tables.HighValueThreshold
}

// Weight computes the decayed, context-sensitive worth of one interaction.
// Stages, in order: base type weight, sentiment multiplier, content-length
// band, quality-language bonus, exponential time decay, context bonuses,
// final floor.
func (e *Engine) Weight(in types.RawInteraction, now time.Time) float64 {
	w := e.tables.baseWeight(in.InteractionType)

	// sentiment in [-1,1] scales the weight by [0.5, 1.5]
	w *= 1 + in.SentimentScore*0.5

	switch n := len(in.Content); {
	case n > 100:
		w *= 1.2
	case n < 20:
		w *= 0.8
	}

	if matched := e.countQualityTerms(in.Content); matched > 0 {
		w *= 1 + 0.1*float64(matched)
	}

	w *= e.decay(in.Timestamp, now)

	if in.Context.MentionsOthers {
		w *= e.tables.MentionsOthersFactor
	}
	if in.Context.HelpsNewbie {
		w *= e.tables.HelpsNewbieFactor
	}
	if in.Context.SharesResources {
		w *= e.tables.SharesResourcesFactor
	}

	if w < e.tables.WeightFloor {
		w = e.tables.WeightFloor
	}
	return w
}

// decay halves the weight roughly once per DecayHalfLifeHours, floored so old
// interactions never reach zero.
func (e *Engine) decay(at, now time.Time) float64 {
	hours := now.Sub(at).Hours()
	if hours < 0 {
		hours = 0
	}
	d := math.Exp(-hours / e.tables.DecayHalfLifeHours)
	if d < e.tables.DecayFloor {
		return e.tables.DecayFloor
	}
	return d
}

func (e *Engine) countQualityTerms(content string) int {
	if content == "" {
		return 0
	}
	lower := strings.ToLower(content)
	count := 0
	for _, term := range e.tables.QualityTerms {
		if strings.Contains(lower, term) {
			count++
		}
	}
	return count
}

// QualityScore is the secondary [0,1] display signal. Additive, not
// multiplicative, and independent of time decay.
func (e *Engine) QualityScore(in types.RawInteraction) float64 {
	score := 0.5

	switch n := len(in.Content); {
	case n > 200:
		score += 0.2
	case n > 50:
		score += 0.1
	case n < 10:
		score -= 0.2
	}

	score += 0.1 * float64(e.countQualityTerms(in.Content))
	score += in.SentimentScore * 0.2

	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
