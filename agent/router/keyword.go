package router

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "tokenpilot/agent/contract"
)

const (
	// DefaultThreshold is the minimum confidence required to route away from
	// the default agent.
	DefaultThreshold = 0.5

	// DefaultMatchBonus is added once for multiple keyword hits and once for
	// recency stickiness.
	DefaultMatchBonus = 0.2
)

// KeywordProfile maps lowercase domain keywords to weights in [0,1] for one
// candidate agent.
type KeywordProfile struct {
	AgentID string
	Weights map[string]float64
}

// KeywordStrategy scores a query against every profile and picks the best
// candidate above the threshold. Two candidates tied at the top confidence is
// an ambiguity, resolved toward the default agent, as is any score below the
// threshold.
type KeywordStrategy struct {
	profiles  []KeywordProfile
	defaultID string
	threshold float64
	bonus     float64

	// Exact-match shortcut: a query naming a known asset together with a
	// price-intent word routes to shortcutID at full confidence, ahead of the
	// general scoring.
	shortcutID   string
	assetTokens  map[string]struct{}
	intentTokens map[string]struct{}
}

type KeywordOption func(*KeywordStrategy)

func WithThreshold(threshold float64) KeywordOption {
	return func(s *KeywordStrategy) {
		if threshold > 0 {
			s.threshold = threshold
		}
	}
}

func WithMatchBonus(bonus float64) KeywordOption {
	return func(s *KeywordStrategy) {
		if bonus >= 0 {
			s.bonus = bonus
		}
	}
}

// WithPriceShortcut enables the asset+price exact-match shortcut toward the
// given agent.
func WithPriceShortcut(agentID string, assets, intents []string) KeywordOption {
	return func(s *KeywordStrategy) {
		s.shortcutID = strings.ToLower(strings.TrimSpace(agentID))
		s.assetTokens = toSet(assets)
		s.intentTokens = toSet(intents)
	}
}

func NewKeywordStrategy(profiles []KeywordProfile, defaultID string, opts ...KeywordOption) *KeywordStrategy {
	s := &KeywordStrategy{
		profiles:  profiles,
		defaultID: strings.ToLower(strings.TrimSpace(defaultID)),
		threshold: DefaultThreshold,
		bonus:     DefaultMatchBonus,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *KeywordStrategy) Select(ctx context.Context, query string, recent []contractx.Interaction) (string, error) {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return s.defaultID, nil
	}

	if s.shortcutID != "" && s.matchesPriceShortcut(tokens) {
		log.Debug().Str("agent_id", s.shortcutID).Msg("asset+price shortcut matched")
		return s.shortcutID, nil
	}

	prevID := previousAgentID(recent)

	bestID := s.defaultID
	bestConfidence := 0.0
	ambiguous := false
	for _, profile := range s.profiles {
		confidence := s.confidence(profile, tokens, prevID)
		switch {
		case confidence > bestConfidence:
			bestConfidence = confidence
			bestID = profile.AgentID
			ambiguous = false
		case confidence > 0 && confidence == bestConfidence:
			ambiguous = true
		}
	}

	log.Debug().
		Str("agent_id", bestID).
		Float64("confidence", bestConfidence).
		Bool("ambiguous", ambiguous).
		Msg("keyword routing scored")

	if ambiguous || bestConfidence < s.threshold {
		return s.defaultID, nil
	}
	return bestID, nil
}

func (s *KeywordStrategy) confidence(profile KeywordProfile, tokens []string, prevID string) float64 {
	matches := 0
	maxWeight := 0.0
	for _, tok := range tokens {
		weight, ok := profile.Weights[tok]
		if !ok {
			continue
		}
		matches++
		if weight > maxWeight {
			maxWeight = weight
		}
	}
	if matches == 0 {
		return 0
	}

	confidence := maxWeight
	if matches > 1 {
		confidence += s.bonus
	}
	if prevID != "" && prevID == profile.AgentID {
		confidence += s.bonus
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

func (s *KeywordStrategy) matchesPriceShortcut(tokens []string) bool {
	hasAsset := false
	hasIntent := false
	for _, tok := range tokens {
		if _, ok := s.assetTokens[tok]; ok {
			hasAsset = true
		}
		if _, ok := s.intentTokens[tok]; ok {
			hasIntent = true
		}
	}
	return hasAsset && hasIntent
}

// tokenize lowercases and splits on whitespace, trimming surrounding
// punctuation so "price?" still matches the "price" keyword.
func tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:'\"()")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
