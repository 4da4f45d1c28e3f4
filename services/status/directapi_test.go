package status

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"casetrack-backend/lib/telemetry"
	"casetrack-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

func TestDashboardStrategy(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/status")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/data/dashboard", r.URL.Path)
		require.Equal(t, "30", r.URL.Query().Get("days"))

		w.Header().Set("content-type", "application/json")
		fmt.Fprint(w, `{
			"metrics": {
				"current_backlog": 90000,
				"processed_cases": 500,
				"processing_times": {"median_days": 400, "as_of_date": "2025-06-01"}
			}
		}`)
	}))
	t.Cleanup(server.Close)

	strategy := NewDashboardStrategy(DashboardOptions{BaseURL: server.URL})
	submitted := timezone.Now().AddDate(0, 0, -100).Format("2006-01-02")
	elapsed := elapsedDaysSince(t, submitted)

	record, err := strategy.Attempt(context.Background(), Case{
		Number:         "PERM-2025-001",
		SubmissionDate: submitted,
	})
	require.NoError(t, err)
	require.Equal(t, 90000-elapsed*500, record.PositionInQueue)
	require.Equal(t, 90000, record.TotalApplications)
	require.Equal(t, 500.0, record.ProcessingRate)
	require.Equal(t, 400-elapsed, record.RemainingDays)
	require.True(t, record.HasRemainingDays)
	require.Equal(t, StatusInQueue, record.Status)
	require.Equal(t, "2025-06-01", record.LastProcessedDate)
}

func TestDashboardStrategyAppliesDefaults(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/status")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		fmt.Fprint(w, `{"metrics": {}}`)
	}))
	t.Cleanup(server.Close)

	strategy := NewDashboardStrategy(DashboardOptions{BaseURL: server.URL})
	submitted := timezone.Now().AddDate(0, 0, -10).Format("2006-01-02")
	elapsed := elapsedDaysSince(t, submitted)

	record, err := strategy.Attempt(context.Background(), Case{
		Number:         "PERM-2025-001",
		SubmissionDate: submitted,
	})
	require.NoError(t, err)
	require.Equal(t, 91580-elapsed*490, record.PositionInQueue)
	require.Equal(t, 91580, record.TotalApplications)
	require.Equal(t, 490.0, record.ProcessingRate)
	require.Equal(t, 485-elapsed, record.RemainingDays)
}

// mirrors how strategies count elapsed days, so assertions don't drift
// with the time of day the tests run at
func elapsedDaysSince(t *testing.T, date string) int {
	submitted, err := (Case{SubmissionDate: date}).SubmissionTime()
	require.NoError(t, err)
	return int(timezone.Now().Sub(submitted).Hours() / 24)
}

func TestDashboardStrategyRequiresSubmissionDate(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/status")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		fmt.Fprint(w, `{"metrics": {}}`)
	}))
	t.Cleanup(server.Close)

	strategy := NewDashboardStrategy(DashboardOptions{BaseURL: server.URL})
	_, err := strategy.Attempt(context.Background(), Case{Number: "PERM-2025-001"})
	require.Error(t, err)
}

func TestDashboardStrategyErrorOnBadStatus(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:services/status")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	strategy := NewDashboardStrategy(DashboardOptions{BaseURL: server.URL})
	_, err := strategy.Attempt(context.Background(), Case{
		Number:         "PERM-2025-001",
		SubmissionDate: "2025-01-01",
	})
	require.Error(t, err)
}
