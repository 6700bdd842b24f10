// Package results persists analysis products to an embedded database so
// downstream tooling gets structured records instead of scraping stdout.
package results

import (
	"time"

	"gorm.io/gorm"
)

// AnalysisRun is one pipeline invocation against one target.
type AnalysisRun struct {
	ID        string `gorm:"primaryKey"`
	Target    string `gorm:"index;not null"`
	Kind      string `gorm:"not null"` // "trojan" or "habitable-zone"
	Period    float64
	Epoch     float64
	NPoints   int
	CreatedAt time.Time

	Depths     []DepthMeasurement `gorm:"foreignKey:RunID"`
	Candidates []CandidateSignal  `gorm:"foreignKey:RunID"`
	Bootstraps []BootstrapRun     `gorm:"foreignKey:RunID"`
}

// DepthMeasurement is one phase-windowed depth estimate with its threshold
// test outcome.
type DepthMeasurement struct {
	gorm.Model

	RunID             string `gorm:"index;not null"`
	Label             string `gorm:"not null"` // "known", "L4", "L5", "candidate-1", ...
	PhaseCenter       float64
	PhaseHalfWidth    float64
	DepthPPM          float64
	UncertaintyPPM    float64
	SignificanceSigma float64
	NPoints           int
	NBaseline         int
	Detected          bool
}

// CandidateSignal is one ranked periodogram peak.
type CandidateSignal struct {
	gorm.Model

	RunID         string `gorm:"index;not null"`
	Scope         string `gorm:"not null"` // "full-range" or "habitable-zone"
	Rank          int
	PeriodDays    float64
	Power         float64
	DepthPercent  float64
	DurationHours float64
	KnownMatch    string // label of the matched known planet, if any
}

// BootstrapRun is the period-stability result for one candidate.
type BootstrapRun struct {
	gorm.Model

	RunID          string `gorm:"index;not null"`
	CandidatePd    float64
	MeanPeriod     float64
	StdPeriod      float64
	Samples        int
	Stable         bool
	StabilityRatio float64 // std/mean
}
