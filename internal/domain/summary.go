package domain

import (
	"errors"
	"strings"
)

// Summary bullet count bounds
const (
	MinSummaryBullets = 3
	MaxSummaryBullets = 5
)

// Common validation errors for Summary
var (
	ErrSummaryBulletCount   = errors.New("summary must contain between 3 and 5 bullets")
	ErrEmptySummaryBullet   = errors.New("summary bullets cannot be empty")
	ErrEmptySummaryNextStep = errors.New("summary next step cannot be empty")
)

// Summary is the fixed-shape output of the extractive summarizer: between
// three and five ordered bullet strings plus exactly one next-step string.
// It is persisted as JSON on the owning SummaryRequest once the request
// is sent.
type Summary struct {
	Bullets  []string `json:"bullets"`
	NextStep string   `json:"next_step"`
}

// Validate checks if the Summary has valid data.
// Returns an error if any field fails validation.
func (s *Summary) Validate() error {
	if len(s.Bullets) < MinSummaryBullets || len(s.Bullets) > MaxSummaryBullets {
		return ErrSummaryBulletCount
	}

	for _, bullet := range s.Bullets {
		if strings.TrimSpace(bullet) == "" {
			return ErrEmptySummaryBullet
		}
	}

	if strings.TrimSpace(s.NextStep) == "" {
		return ErrEmptySummaryNextStep
	}

	return nil
}
