package status

import (
	"time"

	"casetrack-backend/lib/textutil"
)

// Canonical status labels. Remote sources emit free text; labels are
// normalized into this set where possible and carried verbatim
// otherwise.
const (
	StatusApproved           = "Approved"
	StatusDenied             = "Denied"
	StatusPendingReview      = "Pending Review"
	StatusInQueue            = "In Queue"
	StatusInProcessing       = "In Processing"
	StatusFinalReview        = "Final Review"
	StatusCompleted          = "Completed"
	StatusCaseNotFound       = "Case Not Found"
	StatusAccessDenied       = "Access Denied"
	StatusServiceUnavailable = "Service Temporarily Unavailable"
	StatusUnknown            = "Unknown"
)

// Case identifies the application being tracked.
type Case struct {
	Number string
	// SubmissionDate is an ISO date (2006-01-02).
	SubmissionDate string
	EmployerLetter string
	EmployerName   string
}

// SubmissionTime parses the case's submission date.
func (c Case) SubmissionTime() (time.Time, error) {
	return time.Parse("2006-01-02", c.SubmissionDate)
}

// Record is the one status snapshot a resolution attempt produces.
// Exactly one record (or none at all) comes out of a resolve; records
// from different strategies are never merged.
type Record struct {
	CaseNumber string `json:"case_number"`
	Status     string `json:"status"`

	// queue data, when the source exposes it
	PositionInQueue   int     `json:"position_in_queue,omitempty"`
	TotalApplications int     `json:"total_applications,omitempty"`
	ProcessingRate    float64 `json:"processing_rate,omitempty"`

	CompletionDate    string `json:"completion_date,omitempty"`
	LastProcessedDate string `json:"last_processed_date,omitempty"`
	LastUpdated       string `json:"last_updated,omitempty"`
	RemainingDays     int    `json:"remaining_days,omitempty"`
	HasRemainingDays  bool   `json:"-"`

	// descriptive fields derived from the receipt-number prefix
	FormType string `json:"form_type,omitempty"`
	CaseType string `json:"case_type,omitempty"`
	Office   string `json:"office,omitempty"`

	Details        string `json:"details,omitempty"`
	SubmissionDate string `json:"submission_date,omitempty"`
	EmployerName   string `json:"employer_name,omitempty"`
	EmployerLetter string `json:"employer_letter,omitempty"`

	IsMockData bool   `json:"is_mock_data,omitempty"`
	DataSource string `json:"data_source,omitempty"`
	Method     string `json:"method,omitempty"`
}

// HasQueueData reports whether the record carries enough queue info to
// drive an ETA estimate.
func (r *Record) HasQueueData() bool {
	return r.PositionInQueue > 0
}

// NormalizeStatusLabel folds explicit approval/denial language into
// the canonical labels. Anything else passes through untouched.
func NormalizeStatusLabel(label string) string {
	if textutil.ContainsAny(label, "approved", "certified") {
		return StatusApproved
	}
	if textutil.ContainsAny(label, "denied", "rejected") {
		return StatusDenied
	}
	return label
}

// statusFromRemainingDays derives a pipeline-stage label from how many
// days of queue are left ahead of the case.
func statusFromRemainingDays(days int) string {
	switch {
	case days <= 0:
		return StatusCompleted
	case days <= 30:
		return StatusFinalReview
	case days <= 90:
		return StatusInProcessing
	default:
		return StatusInQueue
	}
}
