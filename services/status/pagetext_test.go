package status

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const samplePageText = `
PERM Processing Dashboard

Your Queue Position: 1,250
Processing Rate: 490 / day
Completion Date: 6/15/2026
Remaining: 120 days
Current Backlog: 91,580
Confidence Level: 85%
`

func TestExtractFromPageText(t *testing.T) {
	c := Case{Number: "WAC1234567890", SubmissionDate: "2025-01-10"}
	record := ExtractFromPageText(samplePageText, c)
	require.NotNil(t, record)

	want := &Record{
		CaseNumber:        "WAC1234567890",
		Status:            StatusInQueue,
		PositionInQueue:   1250,
		TotalApplications: 91580,
		ProcessingRate:    490,
		CompletionDate:    "6/15/2026",
		RemainingDays:     120,
		HasRemainingDays:  true,
		FormType:          "I-140",
		CaseType:          "Immigrant Petition for Alien Worker",
		Office:            "California Service Center",
		Details:           "Confidence level: 85%",
		SubmissionDate:    "2025-01-10",
	}
	if diff := cmp.Diff(want, record); diff != "" {
		t.Fatalf("unexpected record (-want +got):\n%s", diff)
	}
}

func TestExtractRejectsEmptyPage(t *testing.T) {
	c := Case{Number: "WAC1234567890"}
	require.Nil(t, ExtractFromPageText("", c))
	require.Nil(t, ExtractFromPageText("Welcome! Please enter your case number below.", c))
}

func TestExtractApprovalLanguageWins(t *testing.T) {
	c := Case{Number: "WAC1234567890"}
	text := "Your Queue Position: 10\nRemaining: 45 days\nYour case has been approved."
	record := ExtractFromPageText(text, c)
	require.NotNil(t, record)
	require.Equal(t, StatusApproved, record.Status)
	require.False(t, record.HasRemainingDays)
}

func TestExtractDenialLanguageWins(t *testing.T) {
	c := Case{Number: "WAC1234567890"}
	record := ExtractFromPageText("Your Queue Position: 10\nThe application was denied.", c)
	require.NotNil(t, record)
	require.Equal(t, StatusDenied, record.Status)
}

func TestExtractWaitWeeks(t *testing.T) {
	c := Case{Number: "WAC1234567890"}
	record := ExtractFromPageText("Your Queue Position: 300\nEstimated Wait: ~8 weeks", c)
	require.NotNil(t, record)
	require.Equal(t, 56, record.RemainingDays)
	require.Equal(t, StatusInProcessing, record.Status)
}

func TestExtractRemainingDaysDriveStatus(t *testing.T) {
	c := Case{Number: "WAC1234567890"}
	for _, test := range []struct {
		text string
		want string
	}{
		{"Your Queue Position: 5\nRemaining: 0 days", StatusCompleted},
		{"Your Queue Position: 5\nRemaining: 14 days", StatusFinalReview},
		{"Your Queue Position: 5\nRemaining: 60 days", StatusInProcessing},
		{"Your Queue Position: 5\nRemaining: 200 days", StatusInQueue},
	} {
		record := ExtractFromPageText(test.text, c)
		require.NotNil(t, record, "text %q", test.text)
		require.Equal(t, test.want, record.Status, "text %q", test.text)
	}
}
