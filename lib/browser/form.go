package browser

import (
	"net/url"
	"strings"

	"casetrack-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Input is a fillable form field.
type Input struct {
	Name        string
	Id          string
	Placeholder string
	Type        string
}

// Button is a submit control.
type Button struct {
	Name  string
	Value string
	Text  string
}

// Form is a parsed HTML form together with its current field values.
type Form struct {
	Action  string
	Method  string
	Inputs  []Input
	Buttons []Button

	values url.Values
}

// Fill sets the value submitted for the given input.
func (f *Form) Fill(in *Input, value string) {
	if f.values == nil {
		f.values = url.Values{}
	}
	key := in.Name
	if key == "" {
		key = in.Id
	}
	if key == "" {
		return
	}
	f.values.Set(key, value)
}

// Values returns a copy of the data the form would currently submit.
func (f *Form) Values() url.Values {
	out := url.Values{}
	for k, vs := range f.values {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// parseForms extracts every form on the page, pre-filling values that
// already carry one (hidden fields, tokens).
func parseForms(pageUrl *url.URL, doc *goquery.Document) []*Form {
	var forms []*Form

	doc.Find("form").Each(func(_ int, sel *goquery.Selection) {
		form := &Form{
			Method: strings.ToUpper(sel.AttrOr("method", "GET")),
			values: url.Values{},
		}

		action := sel.AttrOr("action", "")
		if resolved, err := pageUrl.Parse(action); err == nil {
			form.Action = resolved.String()
		} else {
			form.Action = pageUrl.String()
		}

		sel.Find("input,select,textarea").Each(func(_ int, in *goquery.Selection) {
			typ := strings.ToLower(in.AttrOr("type", ""))
			if typ == "submit" || typ == "button" || typ == "image" {
				form.Buttons = append(form.Buttons, Button{
					Name:  in.AttrOr("name", ""),
					Value: in.AttrOr("value", ""),
					Text:  in.AttrOr("value", ""),
				})
				return
			}

			input := Input{
				Name:        in.AttrOr("name", ""),
				Id:          in.AttrOr("id", ""),
				Placeholder: in.AttrOr("placeholder", ""),
				Type:        typ,
			}
			form.Inputs = append(form.Inputs, input)

			if input.Name != "" {
				if value := in.AttrOr("value", ""); value != "" {
					form.values.Set(input.Name, value)
				}
			}
		})

		sel.Find("button").Each(func(_ int, btn *goquery.Selection) {
			typ := strings.ToLower(btn.AttrOr("type", "submit"))
			if typ != "submit" {
				return
			}
			form.Buttons = append(form.Buttons, Button{
				Name:  btn.AttrOr("name", ""),
				Value: btn.AttrOr("value", ""),
				Text:  htmlutil.CleanText(btn.Text()),
			})
		})

		forms = append(forms, form)
	})

	return forms
}
