package status

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"casetrack-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func webFormServer(t *testing.T, heading, body string) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "WAC1234567890", r.FormValue("appReceiptNum"))

		fmt.Fprintf(w, `<html><body>
			<div class="rows text-center">
				<h1>%s</h1>
				<p>%s</p>
			</div>
		</body></html>`, heading, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestWebFormStrategy(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/status")
	defer cleanup()

	server := webFormServer(t, "Case Was Received",
		"On March 1, 2025, we received your Form I-140.")
	strategy := NewWebFormStrategy(WebFormOptions{URL: server.URL + "/casestatus/mycasestatus.do"})

	record, err := strategy.Attempt(context.Background(), Case{Number: "WAC1234567890"})
	require.NoError(t, err)
	require.Equal(t, "Case Was Received", record.Status)
	require.Equal(t, "On March 1, 2025, we received your Form I-140.", record.Details)
	require.Equal(t, "I-140", record.FormType)
	require.Equal(t, "California Service Center", record.Office)
}

func TestWebFormStrategyNormalizesApproval(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/status")
	defer cleanup()

	server := webFormServer(t, "Case Was Approved", "Your petition was approved.")
	strategy := NewWebFormStrategy(WebFormOptions{URL: server.URL})

	record, err := strategy.Attempt(context.Background(), Case{Number: "WAC1234567890"})
	require.NoError(t, err)
	require.Equal(t, StatusApproved, record.Status)
}

func TestWebFormStrategyCaseNotFound(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/status")
	defer cleanup()

	server := webFormServer(t, "Validation Error",
		"The receipt number entered was not found in our system.")
	strategy := NewWebFormStrategy(WebFormOptions{URL: server.URL})

	record, err := strategy.Attempt(context.Background(), Case{Number: "WAC1234567890"})
	require.NoError(t, err)
	require.Equal(t, StatusCaseNotFound, record.Status)
}

func TestWebFormStrategyMissingResultBlock(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/status")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>maintenance</p></body></html>")
	}))
	t.Cleanup(server.Close)

	strategy := NewWebFormStrategy(WebFormOptions{URL: server.URL})
	record, err := strategy.Attempt(context.Background(), Case{Number: "WAC1234567890"})
	require.NoError(t, err)
	require.Nil(t, record)
}
