package status

import (
	"context"

	"casetrack-backend/lib/timezone"

	"github.com/mazen160/go-random"
)

// MockOptions parameterize synthetic status generation.
type MockOptions struct {
	// Status is the label the mock record reports.
	Status string
	// BaselinePosition is the assumed queue position at submission
	// time.
	BaselinePosition int
	// FallbackPosition is used when the submission date is unusable.
	FallbackPosition  int
	TotalApplications int
	ProcessingRate    float64
}

// MockStrategy synthesizes a status record without any network I/O.
// It sits first in the chain and only activates when mock mode is
// enabled in config.
type MockStrategy struct {
	opts MockOptions
}

func NewMockStrategy(opts MockOptions) *MockStrategy {
	if opts.Status == "" {
		opts.Status = StatusPendingReview
	}
	if opts.BaselinePosition == 0 {
		opts.BaselinePosition = 2000
	}
	if opts.FallbackPosition == 0 {
		opts.FallbackPosition = 1500
	}
	if opts.TotalApplications == 0 {
		opts.TotalApplications = 5000
	}
	if opts.ProcessingRate == 0 {
		opts.ProcessingRate = 50
	}
	return &MockStrategy{opts: opts}
}

func (s *MockStrategy) Name() string { return "mock" }

func (s *MockStrategy) Attempt(ctx context.Context, c Case) (*Record, error) {
	position := s.opts.FallbackPosition
	if submitted, err := c.SubmissionTime(); err == nil {
		elapsed := int(timezone.Now().Sub(submitted).Hours() / 24)

		base := s.opts.BaselinePosition - int(float64(elapsed)*s.opts.ProcessingRate)
		if base < 1 {
			base = 1
		}
		jitter, err := random.IntRange(-200, 201)
		if err != nil {
			jitter = 0
		}
		position = base + jitter
		if position < 1 {
			position = 1
		}
	}

	return &Record{
		CaseNumber:        c.Number,
		Status:            s.opts.Status,
		PositionInQueue:   position,
		TotalApplications: s.opts.TotalApplications,
		ProcessingRate:    s.opts.ProcessingRate,
		LastProcessedDate: timezone.Now().AddDate(0, 0, -1).Format("2006-01-02"),
		SubmissionDate:    c.SubmissionDate,
		EmployerLetter:    c.EmployerLetter,
		FormType:          FormTypeFromCaseNumber(c.Number),
		CaseType:          CaseTypeFromFormType(FormTypeFromCaseNumber(c.Number)),
		Office:            ServiceCenterFromCaseNumber(c.Number),
		IsMockData:        true,
		DataSource:        "mock",
	}, nil
}
