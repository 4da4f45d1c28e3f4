package status

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"

	"casetrack-backend/lib/telemetry"
	"casetrack-backend/lib/textutil"
	"casetrack-backend/lib/timezone"

	"github.com/go-resty/resty/v2"
)

// OAuthAPIOptions configure the officially documented case-status API,
// which uses OAuth2 client-credential tokens.
type OAuthAPIOptions struct {
	ClientID     string
	ClientSecret string
	// TokenURL is the access-token exchange endpoint.
	TokenURL string
	// BaseURL of the case-status resource; the case number is appended
	// as a path segment.
	BaseURL string
	Retries int
	Timeout time.Duration
	// BackoffUnit scales retry waits; production leaves it at one
	// second, tests shrink it.
	BackoffUnit time.Duration

	DataSource string
}

// OAuthAPIStrategy calls the authenticated case-status API. Auth,
// not-found and outage responses become well-formed records rather
// than failures so a notification can still go out.
type OAuthAPIStrategy struct {
	http *resty.Client
	opts OAuthAPIOptions

	accessToken string
}

func NewOAuthAPIStrategy(opts OAuthAPIOptions) *OAuthAPIStrategy {
	if opts.Retries == 0 {
		opts.Retries = 3
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}
	if opts.BackoffUnit == 0 {
		opts.BackoffUnit = time.Second
	}
	if opts.DataSource == "" {
		opts.DataSource = hostOf(opts.BaseURL)
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeader("accept", "application/json")
	telemetry.InstrumentResty(client, "status/oauth_api")

	return &OAuthAPIStrategy{http: client, opts: opts}
}

func (s *OAuthAPIStrategy) Name() string { return "official_api_oauth2" }

func (s *OAuthAPIStrategy) fetchAccessToken(ctx context.Context) (string, error) {
	res, err := s.http.R().
		SetContext(ctx).
		SetBasicAuth(s.opts.ClientID, s.opts.ClientSecret).
		SetHeader("content-type", "application/x-www-form-urlencoded").
		SetFormData(map[string]string{
			"grant_type": "client_credentials",
			"scope":      "case-status",
		}).
		Post(s.opts.TokenURL)
	if err != nil {
		return "", err
	}
	if res.StatusCode() != 200 {
		return "", fmt.Errorf("token exchange returned status %d", res.StatusCode())
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	err = json.Unmarshal(res.Body(), &token)
	if err != nil {
		return "", err
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("no access token in exchange response")
	}
	return token.AccessToken, nil
}

func (s *OAuthAPIStrategy) Attempt(ctx context.Context, c Case) (*Record, error) {
	if s.opts.ClientID == "" || s.opts.ClientSecret == "" {
		return nil, nil
	}

	if s.accessToken == "" {
		token, err := s.fetchAccessToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("obtain access token: %w", err)
		}
		s.accessToken = token
	}

	refreshed := false
	var lastErr error

	for attempt := 0; attempt < s.opts.Retries; attempt++ {
		res, err := s.http.R().
			SetContext(ctx).
			SetAuthToken(s.accessToken).
			Get(fmt.Sprintf("%s/%s", s.opts.BaseURL, c.Number))
		if err != nil {
			lastErr = err
			s.backoff(ctx, attempt)
			continue
		}

		switch res.StatusCode() {
		case 200:
			record := s.parseBody(res.Body(), c)
			if record == nil {
				return nil, fmt.Errorf("unparseable api response")
			}
			return record, nil

		case 401:
			if refreshed {
				// second auth failure, the credentials are no good
				return s.syntheticRecord(c, StatusAccessDenied,
					"API access requires authentication."), nil
			}
			refreshed = true
			token, err := s.fetchAccessToken(ctx)
			if err != nil {
				return s.syntheticRecord(c, StatusAccessDenied,
					"API access requires authentication."), nil
			}
			s.accessToken = token
			// retry the same call without consuming a retry slot
			attempt--

		case 404:
			return s.syntheticRecord(c, StatusCaseNotFound,
				"The case number was not found in the system."), nil

		default:
			if res.StatusCode() < 500 {
				return nil, fmt.Errorf("api returned status %d", res.StatusCode())
			}
			if attempt == s.opts.Retries-1 {
				return s.syntheticRecord(c, StatusServiceUnavailable,
					"The case status API is temporarily unavailable. Please try again later."), nil
			}
			slog.WarnContext(
				ctx, "case status api unavailable, backing off",
				"status", res.StatusCode(), "attempt", attempt+1, "retries", s.opts.Retries,
			)
			s.backoff(ctx, attempt)
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("api retries exhausted")
	}
	return nil, lastErr
}

// backoff waits 2^attempt seconds plus uniform jitter.
func (s *OAuthAPIStrategy) backoff(ctx context.Context, attempt int) {
	wait := time.Duration((math.Pow(2, float64(attempt)) + rand.Float64()) * float64(s.opts.BackoffUnit))
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

// parseBody handles both the JSON responses the API documents and the
// plain-text ones it occasionally emits anyway.
func (s *OAuthAPIStrategy) parseBody(body []byte, c Case) *Record {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return s.parseTextBody(string(body), c)
	}

	label := pickString(payload, "status", "caseStatus", "statusText")
	if label == "" {
		label = StatusUnknown
	}
	formType := pickString(payload, "formType", "form")
	if formType == "" {
		formType = FormTypeFromCaseNumber(c.Number)
	}
	office := pickString(payload, "office", "serviceCenter")
	if office == "" {
		office = "USCIS Service Center"
	}

	return &Record{
		CaseNumber:     c.Number,
		Status:         NormalizeStatusLabel(label),
		LastUpdated:    pickString(payload, "lastUpdated", "updatedDate", "lastModified"),
		FormType:       formType,
		CaseType:       CaseTypeFromFormType(formType),
		Office:         office,
		Details:        pickString(payload, "details", "description", "message"),
		SubmissionDate: c.SubmissionDate,
		DataSource:     s.opts.DataSource,
	}
}

func (s *OAuthAPIStrategy) parseTextBody(text string, c Case) *Record {
	label := ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if textutil.ContainsAny(line, "received", "approved", "denied", "pending", "processing") {
			label = line
			break
		}
	}
	if label == "" {
		return nil
	}

	details := text
	if len(details) > 200 {
		details = details[:200] + "..."
	}
	formType := FormTypeFromCaseNumber(c.Number)

	return &Record{
		CaseNumber:     c.Number,
		Status:         NormalizeStatusLabel(label),
		LastUpdated:    timezone.Now().Format("2006-01-02"),
		FormType:       formType,
		CaseType:       CaseTypeFromFormType(formType),
		Office:         "USCIS Service Center",
		Details:        details,
		SubmissionDate: c.SubmissionDate,
		DataSource:     s.opts.DataSource,
		Method:         "api_text",
	}
}

func (s *OAuthAPIStrategy) syntheticRecord(c Case, label, details string) *Record {
	formType := FormTypeFromCaseNumber(c.Number)
	return &Record{
		CaseNumber:     c.Number,
		Status:         label,
		LastUpdated:    timezone.Now().Format("2006-01-02"),
		FormType:       formType,
		CaseType:       CaseTypeFromFormType(formType),
		Office:         "USCIS Service Center",
		Details:        details,
		SubmissionDate: c.SubmissionDate,
		DataSource:     s.opts.DataSource,
	}
}

// pickString returns the first non-empty string value among candidate
// keys. Undocumented backends rename fields between deployments, so
// every logical field gets a list of spellings.
func pickString(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := payload[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// pickInt is pickString for positive numeric fields.
func pickInt(payload map[string]any, keys ...string) int {
	for _, key := range keys {
		if v, ok := payload[key].(float64); ok && v > 0 {
			return int(v)
		}
	}
	return 0
}
