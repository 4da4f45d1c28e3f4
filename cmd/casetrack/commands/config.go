package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"casetrack-backend/lib/configutil"
	"casetrack-backend/services/estimate"
	"casetrack-backend/services/notify"
	"casetrack-backend/services/status"
)

type CaseConfig struct {
	Number string `json:"number"`
	// SubmissionDate is an ISO date (2006-01-02).
	SubmissionDate string `json:"submission_date"`
	EmployerName   string `json:"employer_name"`
	EmployerLetter string `json:"employer_letter"`
}

type TrackingConfig struct {
	// SiteURL is the public tracker page driven by page automation.
	SiteURL string `json:"site_url"`
	// DashboardURL is the tracker's backend API origin.
	DashboardURL string `json:"dashboard_url"`

	// official case-status API, used when credentials are present
	APIBaseURL   string `json:"api_base_url"`
	TokenURL     string `json:"token_url"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`

	WebFormURL string `json:"web_form_url"`

	// DebugHttpDir dumps raw HTTP transcripts from the automation
	// session for debugging scrape breakage.
	DebugHttpDir string `json:"debug_http_dir"`

	// Mock short-circuits the whole chain with deterministic-ish fake
	// data, for drills and demos.
	Mock bool `json:"mock"`

	// Retries bounds API retry loops; TimeoutSeconds applies per call.
	Retries        int `json:"retries"`
	TimeoutSeconds int `json:"timeout_seconds"`
}

type MockConfig struct {
	Status            string  `json:"status"`
	BaselinePosition  int     `json:"baseline_position"`
	FallbackPosition  int     `json:"fallback_position"`
	TotalApplications int     `json:"total_applications"`
	ProcessingRate    float64 `json:"processing_rate"`
}

type EstimateConfig struct {
	DefaultRate float64 `json:"default_rate"`
	TotalQueue  int     `json:"total_queue"`
}

type NotifyConfig struct {
	Method string            `json:"method"`
	Smtp   notify.SmtpConfig `json:"smtp"`
}

type Config struct {
	Case     CaseConfig     `json:"case"`
	Tracking TrackingConfig `json:"tracking"`
	Mock     MockConfig     `json:"mock"`
	Estimate EstimateConfig `json:"estimate"`
	Notify   NotifyConfig   `json:"notify"`
}

func loadConfig() (Config, error) {
	config, err := configutil.ReadConfig[Config](*configFile)
	if err != nil {
		return config, fmt.Errorf("read %s: %w", *configFile, err)
	}

	configutil.EnvOverride(&config.Case.Number, "CASETRACK_CASE_NUMBER")
	configutil.EnvOverride(&config.Tracking.ClientSecret, "CASETRACK_CLIENT_SECRET")
	configutil.EnvOverride(&config.Notify.Smtp.Password, "CASETRACK_SMTP_PASSWORD")
	if v := os.Getenv("CASETRACK_MOCK"); v != "" {
		config.Tracking.Mock = v == "1" || strings.EqualFold(v, "true")
	}

	if config.Case.Number == "" {
		return config, fmt.Errorf("case.number is not configured")
	}
	if config.Case.SubmissionDate != "" {
		if _, err := (status.Case{SubmissionDate: config.Case.SubmissionDate}).SubmissionTime(); err != nil {
			return config, fmt.Errorf("case.submission_date: %w", err)
		}
	}
	return config, nil
}

func (c Config) trackedCase() status.Case {
	return status.Case{
		Number:         c.Case.Number,
		SubmissionDate: c.Case.SubmissionDate,
		EmployerName:   c.Case.EmployerName,
		EmployerLetter: c.Case.EmployerLetter,
	}
}

// buildResolver assembles the strategy chain in resolution order. Mock
// mode runs the mock strategy alone so fake data can never leak into a
// real report.
func buildResolver(c Config) *status.Resolver {
	if c.Tracking.Mock {
		return status.NewResolver(status.NewMockStrategy(status.MockOptions{
			Status:            c.Mock.Status,
			BaselinePosition:  c.Mock.BaselinePosition,
			FallbackPosition:  c.Mock.FallbackPosition,
			TotalApplications: c.Mock.TotalApplications,
			ProcessingRate:    c.Mock.ProcessingRate,
		}))
	}

	timeout := time.Duration(c.Tracking.TimeoutSeconds) * time.Second

	var strategies []status.Strategy
	if c.Tracking.DashboardURL != "" {
		strategies = append(strategies, status.NewDashboardStrategy(status.DashboardOptions{
			BaseURL: c.Tracking.DashboardURL,
			SiteURL: c.Tracking.SiteURL,
			Timeout: timeout,
		}))
	}
	if c.Tracking.ClientID != "" && c.Tracking.ClientSecret != "" {
		strategies = append(strategies, status.NewOAuthAPIStrategy(status.OAuthAPIOptions{
			ClientID:     c.Tracking.ClientID,
			ClientSecret: c.Tracking.ClientSecret,
			TokenURL:     c.Tracking.TokenURL,
			BaseURL:      c.Tracking.APIBaseURL,
			Retries:      c.Tracking.Retries,
			Timeout:      timeout,
		}))
	}
	if c.Tracking.SiteURL != "" {
		strategies = append(strategies, status.NewAutomationStrategy(status.AutomationOptions{
			URL:     c.Tracking.SiteURL,
			Timeout: timeout,
			DumpDir: c.Tracking.DebugHttpDir,
		}))
	}
	strategies = append(strategies, status.NewWebFormStrategy(status.WebFormOptions{
		URL:     c.Tracking.WebFormURL,
		Timeout: timeout,
	}))

	return status.NewResolver(strategies...)
}

func (c Config) estimator() *estimate.Estimator {
	e := estimate.New()
	if c.Estimate.DefaultRate > 0 {
		e.DefaultRate = c.Estimate.DefaultRate
	}
	if c.Estimate.TotalQueue > 0 {
		e.TotalQueue = c.Estimate.TotalQueue
	}
	return e
}
