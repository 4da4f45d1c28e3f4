package status

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"casetrack-backend/lib/telemetry"
	"casetrack-backend/lib/timezone"

	"github.com/go-resty/resty/v2"
)

// DashboardOptions configure the undocumented dashboard backend the
// tracking site is served from. None of this is a published contract;
// the endpoint and field names were observed from the site's own
// traffic, so every value has a fallback.
type DashboardOptions struct {
	// BaseURL of the backend, e.g. https://backend.example.com
	BaseURL string
	// SiteURL is sent as Origin/Referer so the backend treats the
	// request like one from its own frontend.
	SiteURL string
	Timeout time.Duration

	// fallbacks for fields the response may omit
	DefaultBacklog    int
	DefaultDailyRate  float64
	DefaultMedianDays int
}

// DashboardStrategy asks the tracking site's backend for aggregate
// queue metrics and derives the case's position from its submission
// date.
type DashboardStrategy struct {
	http *resty.Client
	opts DashboardOptions
}

func NewDashboardStrategy(opts DashboardOptions) *DashboardStrategy {
	if opts.DefaultBacklog == 0 {
		opts.DefaultBacklog = 91580
	}
	if opts.DefaultDailyRate == 0 {
		opts.DefaultDailyRate = 490
	}
	if opts.DefaultMedianDays == 0 {
		opts.DefaultMedianDays = 485
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseURL)
	client.SetTimeout(opts.Timeout)
	client.SetHeaders(map[string]string{
		"accept":       "application/json",
		"content-type": "application/json",
		"origin":       opts.SiteURL,
		"referer":      opts.SiteURL + "/",
	})
	telemetry.InstrumentResty(client, "status/dashboard")

	return &DashboardStrategy{http: client, opts: opts}
}

func (s *DashboardStrategy) Name() string { return "dashboard_api" }

type dashboardResponse struct {
	Metrics struct {
		CurrentBacklog  int     `json:"current_backlog"`
		ProcessedCases  float64 `json:"processed_cases"`
		ProcessingTimes struct {
			MedianDays int    `json:"median_days"`
			AsOfDate   string `json:"as_of_date"`
		} `json:"processing_times"`
	} `json:"metrics"`
}

func (s *DashboardStrategy) Attempt(ctx context.Context, c Case) (*Record, error) {
	res, err := s.http.R().
		SetContext(ctx).
		SetQueryParam("days", "30").
		Get("/api/data/dashboard")
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != 200 {
		return nil, fmt.Errorf("dashboard returned status %d", res.StatusCode())
	}

	var data dashboardResponse
	err = json.Unmarshal(res.Body(), &data)
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	_ = json.Unmarshal(res.Body(), &payload)

	backlog := data.Metrics.CurrentBacklog
	if backlog <= 0 {
		backlog = s.opts.DefaultBacklog
	}
	dailyRate := data.Metrics.ProcessedCases
	if dailyRate <= 0 {
		dailyRate = s.opts.DefaultDailyRate
	}
	medianDays := data.Metrics.ProcessingTimes.MedianDays
	if medianDays <= 0 {
		medianDays = s.opts.DefaultMedianDays
	}

	submitted, err := c.SubmissionTime()
	if err != nil {
		return nil, fmt.Errorf("invalid submission date %q: %w", c.SubmissionDate, err)
	}
	elapsedDays := int(timezone.Now().Sub(submitted).Hours() / 24)

	// some deployments report the position directly; otherwise derive
	// it from the backlog drained since submission
	position := pickInt(payload, "queue_position", "position", "position_in_queue")
	if position == 0 {
		position = backlog - int(float64(elapsedDays)*dailyRate)
	}
	if position < 1 {
		position = 1
	}
	remaining := medianDays - elapsedDays
	if remaining < 0 {
		remaining = 0
	}
	completion := submitted.AddDate(0, 0, medianDays)

	return &Record{
		CaseNumber:        c.Number,
		Status:            statusFromRemainingDays(remaining),
		PositionInQueue:   position,
		TotalApplications: backlog,
		ProcessingRate:    dailyRate,
		CompletionDate:    completion.Format("2006-01-02"),
		LastProcessedDate: data.Metrics.ProcessingTimes.AsOfDate,
		RemainingDays:     remaining,
		HasRemainingDays:  true,
		SubmissionDate:    c.SubmissionDate,
		EmployerLetter:    c.EmployerLetter,
		DataSource:        hostOf(s.opts.BaseURL),
	}, nil
}

func hostOf(link string) string {
	parsed, err := url.Parse(link)
	if err != nil || parsed.Host == "" {
		return link
	}
	return parsed.Host
}
