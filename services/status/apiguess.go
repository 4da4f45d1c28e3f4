package status

import (
	"context"
	"encoding/json"
	"strings"

	"casetrack-backend/lib/htmlutil"
	"casetrack-backend/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// payloadShapes are the request bodies a captured-but-undocumented
// endpoint is tried with, most common field spelling first.
func payloadShapes(c Case) []map[string]string {
	return []map[string]string{
		{"case_number": c.Number, "employer_letter": c.EmployerLetter},
		{"caseNumber": c.Number, "employerLetter": c.EmployerLetter},
		{"case": c.Number, "letter": c.EmployerLetter},
	}
}

// tryAPICall probes an endpoint discovered from captured page traffic.
// Each payload shape is tried as a JSON POST and then a GET with query
// parameters; the first parseable response wins.
func tryAPICall(ctx context.Context, client *resty.Client, endpoint string, c Case) *Record {
	for _, payload := range payloadShapes(c) {
		res, err := client.R().
			SetContext(ctx).
			SetHeader("content-type", "application/json").
			SetBody(payload).
			Post(endpoint)
		if err == nil && res.StatusCode() == 200 {
			if record := parseGuessedResponse(res.String(), c); record != nil {
				return record
			}
		}

		res, err = client.R().
			SetContext(ctx).
			SetQueryParams(payload).
			Get(endpoint)
		if err == nil && res.StatusCode() == 200 {
			if record := parseGuessedResponse(res.String(), c); record != nil {
				return record
			}
		}
	}
	return nil
}

func parseGuessedResponse(body string, c Case) *Record {
	var payload map[string]any
	if err := json.Unmarshal([]byte(body), &payload); err == nil {
		label := pickString(payload, "status", "caseStatus", "statusText", "result")
		if label == "" {
			return nil
		}
		formType := FormTypeFromCaseNumber(c.Number)
		return &Record{
			CaseNumber:     c.Number,
			Status:         NormalizeStatusLabel(label),
			LastUpdated:    timezone.Now().Format("2006-01-02"),
			FormType:       formType,
			CaseType:       CaseTypeFromFormType(formType),
			Office:         ServiceCenterFromCaseNumber(c.Number),
			Details:        pickString(payload, "details", "description", "message"),
			SubmissionDate: c.SubmissionDate,
		}
	}

	// Some endpoints answer with an HTML fragment instead of JSON.
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}
	return ExtractFromPageText(htmlutil.DocumentText(doc), c)
}
