package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	types "github.com/raidpulse/raidpulse-backend/internal/domain"
)

// Tables holds every tunable the weight engine reads. The defaults match the
// community bot's long-standing values; deployments can override them from a
// YAML file without a rebuild.
type Tables struct {
	TypeWeights       map[string]float64 `yaml:"type_weights"`
	DefaultTypeWeight float64            `yaml:"default_type_weight"`
	QualityTerms      []string           `yaml:"quality_terms"`

	MentionsOthersFactor  float64 `yaml:"mentions_others_factor"`
	HelpsNewbieFactor     float64 `yaml:"helps_newbie_factor"`
	SharesResourcesFactor float64 `yaml:"shares_resources_factor"`

	DecayHalfLifeHours float64 `yaml:"decay_half_life_hours"`
	DecayFloor         float64 `yaml:"decay_floor"`
	WeightFloor        float64 `yaml:"weight_floor"`

	HighValueThreshold float64 `yaml:"high_value_threshold"`
}

func DefaultTables() Tables {
	return Tables{
		TypeWeights: map[string]float64{
			types.InteractionMentorBehavior:       3.0,
			types.InteractionRaidInitiation:       2.5,
			types.InteractionCommunityHelp:        2.5,
			types.InteractionKnowledgeSharing:     2.0,
			types.InteractionConstructiveFeedback: 1.8,
			types.InteractionQualityEngagement:    1.5,
			types.InteractionRaidParticipation:    1.0,
			types.InteractionTelegramMessage:      0.5,
			types.InteractionSpamReport:           -1.0,
			types.InteractionToxicBehavior:        -2.0,
		},
		DefaultTypeWeight: 1.0,
		QualityTerms: []string{
			"because", "therefore", "specifically", "however",
			"example", "consider", "suggest", "explain",
		},
		MentionsOthersFactor:  1.3,
		HelpsNewbieFactor:     1.5,
		SharesResourcesFactor: 1.4,
		DecayHalfLifeHours:    168,
		DecayFloor:            0.1,
		WeightFloor:           -0.5,
		HighValueThreshold:    2.0,
	}
}

// LoadTables reads overrides from a YAML file on top of the defaults. Only
// keys present in the file replace their defaults.
func LoadTables(path string) (Tables, error) {
	t := DefaultTables()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read scoring tables: %w", err)
	}
	var override Tables
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return t, fmt.Errorf("parse scoring tables: %w", err)
	}
	t.merge(override)
	return t, nil
}

func (t *Tables) merge(o Tables) {
	for k, v := range o.TypeWeights {
		t.TypeWeights[k] = v
	}
	if o.DefaultTypeWeight != 0 {
		t.DefaultTypeWeight = o.DefaultTypeWeight
	}
	if len(o.QualityTerms) > 0 {
		t.QualityTerms = o.QualityTerms
	}
	if o.MentionsOthersFactor != 0 {
		t.MentionsOthersFactor = o.MentionsOthersFactor
	}
	if o.HelpsNewbieFactor != 0 {
		t.HelpsNewbieFactor = o.HelpsNewbieFactor
	}
	if o.SharesResourcesFactor != 0 {
		t.SharesResourcesFactor = o.SharesResourcesFactor
	}
	if o.DecayHalfLifeHours != 0 {
		t.DecayHalfLifeHours = o.DecayHalfLifeHours
	}
	if o.DecayFloor != 0 {
		t.DecayFloor = o.DecayFloor
	}
	if o.WeightFloor != 0 {
		t.WeightFloor = o.WeightFloor
	}
	if o.HighValueThreshold != 0 {
		t.HighValueThreshold = o.HighValueThreshold
	}
}

func (t Tables) baseWeight(interactionType string) float64 {
	if w, ok := t.TypeWeights[interactionType]; ok {
		return w
	}
	return t.DefaultTypeWeight
}
