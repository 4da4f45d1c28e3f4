package status

import (
	"regexp"
	"strconv"
	"strings"

	"casetrack-backend/lib/textutil"
)

// Processing-authority result pages render their numbers in prose.
// Each pattern captures one figure; the set below covers the phrasings
// observed on the live dashboard and its redesigns.
var (
	queuePositionRe  = regexp.MustCompile(`(?i)your queue position:\s*([\d,]+)`)
	processingRateRe = regexp.MustCompile(`(?i)(\d+)\s*/\s*day`)
	completionDateRe = regexp.MustCompile(`(?i)completion date:\s*(\d{1,2}/\d{1,2}/\d{4})`)
	remainingDaysRe  = regexp.MustCompile(`(?i)remaining:\s*(\d+)\s*days`)
	backlogRe        = regexp.MustCompile(`(?i)current backlog:\s*([\d,]+)`)
	confidenceRe     = regexp.MustCompile(`(?i)confidence level:\s*(\d+)%`)
	waitWeeksRe      = regexp.MustCompile(`(?i)estimated wait:\s*~?(\d+)\s*weeks?`)
)

const defaultPageRate = 490

// ExtractFromPageText pulls queue figures out of rendered page text.
// It returns nil when the text carries nothing beyond defaults, so a
// blank or unrelated page never masquerades as a result.
func ExtractFromPageText(text string, c Case) *Record {
	position := intFromMatch(queuePositionRe, text)
	rate := intFromMatch(processingRateRe, text)
	completion := stringFromMatch(completionDateRe, text)
	remaining := intFromMatch(remainingDaysRe, text)
	backlog := intFromMatch(backlogRe, text)
	confidence := intFromMatch(confidenceRe, text)
	waitWeeks := intFromMatch(waitWeeksRe, text)

	if rate == 0 {
		rate = defaultPageRate
	}

	// Something concrete must have been found; a default rate alone
	// does not count.
	if position == 0 && rate == defaultPageRate && completion == "" {
		return nil
	}

	label := ""
	hasRemaining := false
	if textutil.ContainsAny(text, "approved", "certified") {
		label = StatusApproved
	} else if textutil.ContainsAny(text, "denied", "rejected") {
		label = StatusDenied
	} else if remainingDaysRe.MatchString(text) {
		label = statusFromRemainingDays(remaining)
		hasRemaining = true
	} else if waitWeeks > 0 {
		remaining = waitWeeks * 7
		label = statusFromRemainingDays(remaining)
		hasRemaining = true
	} else {
		label = StatusInQueue
	}

	details := ""
	if confidence > 0 {
		details = "Confidence level: " + strconv.Itoa(confidence) + "%"
	}

	formType := FormTypeFromCaseNumber(c.Number)
	return &Record{
		CaseNumber:        c.Number,
		Status:            label,
		PositionInQueue:   position,
		TotalApplications: backlog,
		ProcessingRate:    float64(rate),
		CompletionDate:    completion,
		RemainingDays:     remaining,
		HasRemainingDays:  hasRemaining,
		FormType:          formType,
		CaseType:          CaseTypeFromFormType(formType),
		Office:            ServiceCenterFromCaseNumber(c.Number),
		Details:           details,
		SubmissionDate:    c.SubmissionDate,
	}
}

func intFromMatch(re *regexp.Regexp, text string) int {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0
	}
	return n
}

func stringFromMatch(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}
