// Package browser models the page-automation capability used by the
// scraping fallbacks: navigate to a page, inspect its forms, fill and
// submit them, and observe the network traffic the interaction
// produced. The concrete session here is plain HTTP plus parsed HTML;
// callers only depend on the Session interface so a heavier renderer
// can be swapped in without touching them.
package browser

import (
	"context"
	"strings"

	"casetrack-backend/lib/htmlutil"
	"casetrack-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// Request is one observed network request issued by a session.
type Request struct {
	Method string
	URL    string
	Body   string
}

// Page is a rendered document.
type Page struct {
	URL   string
	Title string
	Doc   *goquery.Document
}

// Text returns the page's visible text.
func (p *Page) Text() string {
	if p.Doc == nil {
		return ""
	}
	return htmlutil.DocumentText(p.Doc)
}

// SubmitMethod selects how a form submission is driven. Some sites
// only react to one of these, so callers cascade through them in order
// until the page changes.
type SubmitMethod int

const (
	// SubmitClick emulates clicking the submit button: the button's
	// name/value pair is part of the submitted data.
	SubmitClick SubmitMethod = iota
	// SubmitScriptedClick emulates a script-driven click: same target,
	// no submitter pair.
	SubmitScriptedClick
	// SubmitForm emulates form.submit(): always posts the field values
	// to the form action.
	SubmitForm
	// SubmitEnterKey emulates pressing Enter in a text field: implicit
	// submission with the values as query parameters.
	SubmitEnterKey
)

func (m SubmitMethod) String() string {
	switch m {
	case SubmitClick:
		return "click"
	case SubmitScriptedClick:
		return "scripted_click"
	case SubmitForm:
		return "form_submit"
	case SubmitEnterKey:
		return "enter_key"
	}
	return "unknown"
}

// SubmitCascade is the default order of submission attempts.
var SubmitCascade = []SubmitMethod{
	SubmitClick,
	SubmitScriptedClick,
	SubmitForm,
	SubmitEnterKey,
}

// Session is the opaque page-interaction capability. Acquire one, use
// it, and release it with Close on every exit path.
type Session interface {
	Navigate(ctx context.Context, link string) (*Page, error)
	Forms(page *Page) []*Form
	Submit(ctx context.Context, page *Page, form *Form, method SubmitMethod) (*Page, error)
	// Requests returns the network requests observed since the last
	// Navigate call.
	Requests() []Request
	Close() error
}

// Changed reports whether the submission moved the session off the
// starting page, which is the only observable success signal on sites
// without a stable contract.
func Changed(before, after *Page) bool {
	if after == nil {
		return false
	}
	return after.URL != before.URL || after.Title != before.Title
}

// FindInput returns the first form input whose name, id or placeholder
// matches any of the given matchers.
func FindInput(form *Form, matchers []string) *Input {
	for i := range form.Inputs {
		in := &form.Inputs[i]
		if textutil.MatchName(in.Name, matchers) ||
			textutil.MatchName(in.Id, matchers) ||
			textutil.MatchName(in.Placeholder, matchers) {
			return in
		}
	}
	return nil
}

// FindTextInput returns the first generic text input of the form.
func FindTextInput(form *Form) *Input {
	for i := range form.Inputs {
		in := &form.Inputs[i]
		t := strings.ToLower(in.Type)
		if t == "" || t == "text" || t == "search" {
			return in
		}
	}
	return nil
}
