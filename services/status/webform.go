package status

import (
	"context"
	"fmt"
	"strings"
	"time"

	"casetrack-backend/lib/htmlutil"
	"casetrack-backend/lib/telemetry"
	"casetrack-backend/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// WebFormOptions configure the public case-status lookup form, the
// no-credential path that backs the official site's search box.
type WebFormOptions struct {
	URL     string
	Timeout time.Duration
}

type WebFormStrategy struct {
	http *resty.Client
	opts WebFormOptions
}

func NewWebFormStrategy(opts WebFormOptions) *WebFormStrategy {
	if opts.URL == "" {
		opts.URL = "https://egov.uscis.gov/casestatus/mycasestatus.do"
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeader(
		"user-agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	)
	telemetry.InstrumentResty(client, "status/web_form")

	return &WebFormStrategy{http: client, opts: opts}
}

func (s *WebFormStrategy) Name() string { return "web_form" }

func (s *WebFormStrategy) Attempt(ctx context.Context, c Case) (*Record, error) {
	res, err := s.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"appReceiptNum":  c.Number,
			"initCaseSearch": "CHECK STATUS",
		}).
		Post(s.opts.URL)
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != 200 {
		return nil, fmt.Errorf("status lookup returned status %d", res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.String()))
	if err != nil {
		return nil, fmt.Errorf("parse status page: %w", err)
	}

	block := doc.Find("div.rows.text-center").First()
	if block.Length() == 0 {
		return nil, nil
	}

	label := htmlutil.CleanText(block.Find("h1").First().Text())
	if label == "" {
		label = htmlutil.CleanText(block.Find("strong").First().Text())
	}
	details := htmlutil.CleanText(block.Find("p").First().Text())
	if label == "" && details == "" {
		return nil, nil
	}

	if strings.Contains(strings.ToLower(label+details), "not found") {
		label = StatusCaseNotFound
	} else if label == "" {
		label = StatusUnknown
	}

	formType := FormTypeFromCaseNumber(c.Number)
	return &Record{
		CaseNumber:     c.Number,
		Status:         NormalizeStatusLabel(label),
		LastUpdated:    timezone.Now().Format("2006-01-02"),
		FormType:       formType,
		CaseType:       CaseTypeFromFormType(formType),
		Office:         ServiceCenterFromCaseNumber(c.Number),
		Details:        details,
		SubmissionDate: c.SubmissionDate,
		DataSource:     hostOf(s.opts.URL),
	}, nil
}
