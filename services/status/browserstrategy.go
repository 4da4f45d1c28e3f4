package status

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"casetrack-backend/lib/browser"
	"casetrack-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

// AutomationOptions configure the interactive fallback: drive the
// tracker site the way a person would and read whatever comes back.
type AutomationOptions struct {
	URL string
	// NavigateRetries bounds initial page loads before giving up.
	NavigateRetries int
	// NavigateWait is the pause between navigation retries.
	NavigateWait time.Duration
	Timeout      time.Duration
	// DumpDir forwards to the session for HTTP transcript dumps.
	DumpDir string

	// NewSession overrides how sessions are acquired; tests inject
	// fakes here. Nil means a real HTTP session.
	NewSession func() (browser.Session, error)
}

// AutomationStrategy fills in the tracker site's lookup form, cascades
// through submission methods until the page reacts, and then mines both
// the captured network traffic and the result page for status data.
type AutomationStrategy struct {
	opts AutomationOptions
	http *resty.Client
}

func NewAutomationStrategy(opts AutomationOptions) *AutomationStrategy {
	if opts.NavigateRetries == 0 {
		opts.NavigateRetries = 3
	}
	if opts.NavigateWait == 0 {
		opts.NavigateWait = time.Second * 2
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}
	if opts.NewSession == nil {
		opts.NewSession = func() (browser.Session, error) {
			return browser.NewSession(browser.Options{
				Timeout: opts.Timeout,
				DumpDir: opts.DumpDir,
			})
		}
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	telemetry.InstrumentResty(client, "status/automation_replay")

	return &AutomationStrategy{opts: opts, http: client}
}

func (s *AutomationStrategy) Name() string { return "page_automation" }

// apiPathKeywords mark captured requests worth replaying.
var apiPathKeywords = []string{"api", "predict", "search", "status", "case"}

func (s *AutomationStrategy) Attempt(ctx context.Context, c Case) (*Record, error) {
	session, err := s.opts.NewSession()
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer session.Close()

	page, err := s.navigate(ctx, session)
	if err != nil {
		return nil, err
	}

	result, err := s.submitLookup(ctx, session, page, c)
	if err != nil {
		return nil, err
	}
	if result == nil {
		// nothing reacted to the submission
		return nil, nil
	}

	// Captured traffic first: a JSON endpoint beats screen text.
	for _, req := range session.Requests() {
		if !matchesAPIPath(req.URL) {
			continue
		}
		if record := tryAPICall(ctx, s.http, req.URL, c); record != nil {
			record.Method = "captured_api"
			return record, nil
		}
	}

	if record := ExtractFromPageText(result.Text(), c); record != nil {
		return record, nil
	}
	return nil, nil
}

func (s *AutomationStrategy) navigate(ctx context.Context, session browser.Session) (*browser.Page, error) {
	var lastErr error
	for attempt := 0; attempt < s.opts.NavigateRetries; attempt++ {
		page, err := session.Navigate(ctx, s.opts.URL)
		if err == nil {
			return page, nil
		}
		lastErr = err
		slog.WarnContext(
			ctx, "page load failed, retrying",
			"url", s.opts.URL, "attempt", attempt+1, "err", err,
		)
		select {
		case <-time.After(s.opts.NavigateWait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("load %s: %w", s.opts.URL, lastErr)
}

// submitLookup fills the lookup form and cascades through submission
// methods until the page changes. A nil page with nil error means no
// method got a reaction.
func (s *AutomationStrategy) submitLookup(
	ctx context.Context, session browser.Session, page *browser.Page, c Case,
) (*browser.Page, error) {
	forms := session.Forms(page)
	if len(forms) == 0 {
		return nil, fmt.Errorf("no forms on %s", page.URL)
	}

	for _, form := range forms {
		caseInput := browser.FindInput(form, []string{"case", "number"})
		if caseInput == nil {
			caseInput = browser.FindTextInput(form)
		}
		if caseInput == nil {
			continue
		}
		form.Fill(caseInput, c.Number)

		if c.EmployerLetter != "" {
			if in := browser.FindInput(form, []string{"employer", "letter"}); in != nil {
				form.Fill(in, c.EmployerLetter)
			}
		}

		for _, method := range browser.SubmitCascade {
			after, err := session.Submit(ctx, page, form, method)
			if err != nil {
				slog.DebugContext(
					ctx, "submission method failed",
					"method", method.String(), "err", err,
				)
				continue
			}
			if browser.Changed(page, after) {
				slog.DebugContext(
					ctx, "lookup form submitted",
					"method", method.String(), "url", after.URL,
				)
				return after, nil
			}
		}
	}
	return nil, nil
}

func matchesAPIPath(link string) bool {
	link = strings.ToLower(link)
	for _, keyword := range apiPathKeywords {
		if strings.Contains(link, keyword) {
			return true
		}
	}
	return false
}
