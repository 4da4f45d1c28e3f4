package status

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"casetrack-backend/lib/browser"
	"casetrack-backend/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func fakePage(t *testing.T, link, title, body string) *browser.Page {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		fmt.Sprintf("<html><head><title>%s</title></head><body>%s</body></html>", title, body),
	))
	require.NoError(t, err)
	return &browser.Page{URL: link, Title: title, Doc: doc}
}

// fakeSession scripts the page-automation driver: it serves a fixed
// landing page and only reacts to one submission method.
type fakeSession struct {
	landing   *browser.Page
	result    *browser.Page
	succeedOn browser.SubmitMethod
	requests  []browser.Request

	tried  []browser.SubmitMethod
	filled map[string]string
	closed bool
}

func (s *fakeSession) Navigate(ctx context.Context, link string) (*browser.Page, error) {
	return s.landing, nil
}

func (s *fakeSession) Forms(page *browser.Page) []*browser.Form {
	form := &browser.Form{
		Action: page.URL,
		Method: "POST",
		Inputs: []browser.Input{
			{Name: "case_number", Placeholder: "Case Number", Type: "text"},
			{Name: "employer_letter", Type: "text"},
		},
	}
	return []*browser.Form{form}
}

func (s *fakeSession) Submit(
	ctx context.Context, page *browser.Page, form *browser.Form, method browser.SubmitMethod,
) (*browser.Page, error) {
	s.tried = append(s.tried, method)
	s.filled = map[string]string{}
	for key, values := range form.Values() {
		s.filled[key] = values[0]
	}
	if method == s.succeedOn {
		return s.result, nil
	}
	return s.landing, nil
}

func (s *fakeSession) Requests() []browser.Request { return s.requests }

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

func automationStrategy(session browser.Session) *AutomationStrategy {
	return NewAutomationStrategy(AutomationOptions{
		URL:          "https://tracker.example.com",
		NavigateWait: time.Millisecond,
		NewSession:   func() (browser.Session, error) { return session, nil },
	})
}

func TestAutomationStrategyCascadesToResultPage(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/status")
	defer cleanup()

	session := &fakeSession{
		landing: fakePage(t, "https://tracker.example.com", "Tracker", "<p>enter a case below</p>"),
		result: fakePage(t, "https://tracker.example.com/result", "Result",
			"<p>Your Queue Position: 420</p><p>Remaining: 60 days</p>"),
		succeedOn: browser.SubmitForm,
	}

	record, err := automationStrategy(session).Attempt(context.Background(), Case{
		Number:         "WAC1234567890",
		EmployerLetter: "letter.pdf",
	})
	require.NoError(t, err)
	require.NotNil(t, record)
	require.Equal(t, 420, record.PositionInQueue)
	require.Equal(t, StatusInProcessing, record.Status)

	require.Equal(t, []browser.SubmitMethod{
		browser.SubmitClick,
		browser.SubmitScriptedClick,
		browser.SubmitForm,
	}, session.tried)
	require.Equal(t, "WAC1234567890", session.filled["case_number"])
	require.Equal(t, "letter.pdf", session.filled["employer_letter"])
	require.True(t, session.closed)
}

func TestAutomationStrategyReplaysCapturedAPI(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/status")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		fmt.Fprint(w, `{"status": "Case Was Approved", "message": "congratulations"}`)
	}))
	t.Cleanup(server.Close)

	session := &fakeSession{
		landing:   fakePage(t, "https://tracker.example.com", "Tracker", "<p>lookup</p>"),
		result:    fakePage(t, "https://tracker.example.com/done", "Done", "<p>thanks</p>"),
		succeedOn: browser.SubmitClick,
		requests: []browser.Request{
			{Method: "GET", URL: "https://tracker.example.com/static/app.js"},
			{Method: "POST", URL: server.URL + "/api/predictions"},
		},
	}

	record, err := automationStrategy(session).Attempt(context.Background(), Case{Number: "WAC1234567890"})
	require.NoError(t, err)
	require.NotNil(t, record)
	require.Equal(t, StatusApproved, record.Status)
	require.Equal(t, "congratulations", record.Details)
	require.Equal(t, "captured_api", record.Method)
	require.True(t, session.closed)
}

func TestAutomationStrategyNothingReacts(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/status")
	defer cleanup()

	// succeedOn left at SubmitClick but the "result" is the same page,
	// so nothing ever counts as a reaction
	landing := fakePage(t, "https://tracker.example.com", "Tracker", "<p>lookup</p>")
	session := &fakeSession{landing: landing, result: landing}

	record, err := automationStrategy(session).Attempt(context.Background(), Case{Number: "WAC1234567890"})
	require.NoError(t, err)
	require.Nil(t, record)
	require.True(t, session.closed)
}
