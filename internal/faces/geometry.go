package faces

import (
	"github.com/Jeff496/PicAI-sub001/internal/models"
	"github.com/Jeff496/PicAI-sub001/internal/recognition"
)

// MatchLevel classifies a similarity score against the tagging policy.
type MatchLevel string

const (
	// MatchAutoTag means the similarity is high enough to apply without
	// user confirmation.
	MatchAutoTag MatchLevel = "auto_tag"
	// MatchSuggest means the match is offered for user confirmation.
	MatchSuggest MatchLevel = "suggest"
	MatchNone    MatchLevel = "none"
)

// NormalizeBoundingBox converts a recognition-service box into the stored
// 0-1 representation. A nil source box yields nil (caller treats it as "no
// box"); individual missing components come through as 0.
func NormalizeBoundingBox(raw *recognition.BoundingBox) *models.BoundingBox {
	if raw == nil {
		return nil
	}
	return &models.BoundingBox{
		Left:   clamp01(raw.Left),
		Top:    clamp01(raw.Top),
		Width:  clamp01(raw.Width),
		Height: clamp01(raw.Height),
	}
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

// ClassifyMatch maps a similarity score to a match level. Both thresholds
// are inclusive: a score exactly at the boundary meets it.
func ClassifyMatch(similarity, autoTagThreshold, suggestThreshold float64) MatchLevel {
	switch {
	case similarity >= autoTagThreshold:
		return MatchAutoTag
	case similarity >= suggestThreshold:
		return MatchSuggest
	default:
		return MatchNone
	}
}
