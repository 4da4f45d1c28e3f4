// Package estimate turns queue-position figures into an approval-date
// forecast. The math is deliberately simple; the value is in being
// honest about confidence and never blowing up the pipeline over bad
// inputs.
package estimate

import (
	"context"
	"log/slog"
	"math"
	"time"

	"casetrack-backend/lib/timezone"
	"casetrack-backend/services/status"
)

// ETA is a completion forecast for one case.
type ETA struct {
	EstimatedApprovalDate   time.Time
	EstimatedProcessingDate time.Time
	DaysRemaining           int
	ConfidenceLevel         string
	// ProgressPercentage is how far through the configured queue the
	// case has moved, rounded to one decimal.
	ProgressPercentage float64

	PositionInQueue int
	ProcessingRate  float64

	// IsFallback marks an estimate derived from the submission date
	// alone because the record carried no usable queue data.
	IsFallback bool
}

const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

// Estimator computes ETAs. The zero value is not usable; construct
// with New.
type Estimator struct {
	// DefaultRate substitutes for missing or nonsense processing rates.
	DefaultRate float64
	// TotalQueue anchors the progress percentage.
	TotalQueue int
	// Now is replaceable in tests.
	Now func() time.Time
}

func New() *Estimator {
	return &Estimator{
		DefaultRate: 490,
		TotalQueue:  91580,
		Now:         timezone.Now,
	}
}

// Estimate produces a forecast for the record. It never fails: when
// the record has no queue data the estimate degrades to a
// submission-date heuristic, and when even that is unusable it
// degrades to a fixed placeholder.
func (e *Estimator) Estimate(ctx context.Context, record *status.Record) ETA {
	if !record.HasQueueData() {
		slog.DebugContext(
			ctx, "no queue data, estimating from submission date",
			"case_number", record.CaseNumber,
		)
		return e.fallback(record)
	}

	rate := record.ProcessingRate
	if rate <= 0 {
		rate = e.DefaultRate
	}

	baseDays := int(math.Ceil(float64(record.PositionInQueue) / rate))
	totalDays := baseDays + int(math.Ceil(float64(baseDays)*0.2))
	if totalDays < 1 {
		totalDays = 1
	}

	now := e.Now()
	return ETA{
		EstimatedApprovalDate:   nextWeekday(now.AddDate(0, 0, totalDays)),
		EstimatedProcessingDate: nextWeekday(now.AddDate(0, 0, baseDays)),
		DaysRemaining:           totalDays,
		ConfidenceLevel:         confidenceLevel(ConfidenceScore(record.PositionInQueue, rate, totalDays)),
		ProgressPercentage:      e.progress(record.PositionInQueue),
		PositionInQueue:         record.PositionInQueue,
		ProcessingRate:          rate,
	}
}

func (e *Estimator) fallback(record *status.Record) ETA {
	now := e.Now()

	submitted, err := time.Parse("2006-01-02", record.SubmissionDate)
	if err != nil {
		// no queue data and no submission date, nothing to go on
		return ETA{
			EstimatedApprovalDate:   nextWeekday(now.AddDate(0, 0, 180)),
			EstimatedProcessingDate: nextWeekday(now.AddDate(0, 0, 60)),
			DaysRemaining:           180,
			ConfidenceLevel:         ConfidenceLow,
			ProgressPercentage:      50.0,
			ProcessingRate:          e.DefaultRate,
			IsFallback:              true,
		}
	}

	elapsed := int(now.Sub(submitted).Hours() / 24)
	remaining := 180 - elapsed
	if remaining < 30 {
		remaining = 30
	}

	return ETA{
		EstimatedApprovalDate:   nextWeekday(now.AddDate(0, 0, remaining)),
		EstimatedProcessingDate: nextWeekday(now.AddDate(0, 0, 60)),
		DaysRemaining:           remaining,
		ConfidenceLevel:         ConfidenceLow,
		ProgressPercentage:      50.0,
		ProcessingRate:          e.DefaultRate,
		IsFallback:              true,
	}
}

func (e *Estimator) progress(position int) float64 {
	if e.TotalQueue <= 0 {
		return 0
	}
	p := float64(e.TotalQueue-position) / float64(e.TotalQueue) * 100
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return math.Round(p*10) / 10
}

// ConfidenceScore is a pure function of the three inputs: closer
// positions, faster rates and shorter horizons each earn more weight,
// on top of a 0.1 floor.
func ConfidenceScore(position int, rate float64, daysRemaining int) float64 {
	score := 0.1

	switch {
	case position <= 100:
		score += 0.3
	case position <= 500:
		score += 0.2
	case position <= 1000:
		score += 0.1
	default:
		score += 0.05
	}

	switch {
	case rate >= 100:
		score += 0.3
	case rate >= 50:
		score += 0.2
	case rate >= 25:
		score += 0.1
	default:
		score += 0.05
	}

	switch {
	case daysRemaining <= 30:
		score += 0.2
	case daysRemaining <= 90:
		score += 0.15
	case daysRemaining <= 180:
		score += 0.1
	default:
		score += 0.05
	}

	return score
}

func confidenceLevel(score float64) string {
	switch {
	case score >= 0.7:
		return ConfidenceHigh
	case score >= 0.5:
		return ConfidenceMedium
	}
	return ConfidenceLow
}

// nextWeekday pushes weekend landings forward to Monday.
func nextWeekday(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, 2)
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	}
	return t
}
