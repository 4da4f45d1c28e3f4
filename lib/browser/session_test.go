package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"casetrack-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

const lookupPage = `<html>
<head><title>Case Lookup</title></head>
<body>
<form action="/lookup" method="post">
	<input type="hidden" name="csrf" value="tok123">
	<input type="text" id="case-input" name="case_number" placeholder="Enter your case number">
	<input type="text" name="employer_letter">
	<button type="submit" name="action" value="check">Check Status</button>
</form>
</body>
</html>`

func lookupServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, lookupPage)
	})
	mux.HandleFunc("/lookup", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Result</title></head><body>done</body></html>`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestNavigateAndParseForms(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:lib/browser")
	defer cleanup()

	server := lookupServer(t)
	session, err := NewSession(Options{})
	require.NoError(t, err)
	defer session.Close()

	page, err := session.Navigate(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, "Case Lookup", page.Title)

	forms := session.Forms(page)
	require.Len(t, forms, 1)

	form := forms[0]
	require.Equal(t, server.URL+"/lookup", form.Action)
	require.Equal(t, "POST", form.Method)
	require.Len(t, form.Buttons, 1)
	require.Equal(t, "Check Status", form.Buttons[0].Text)

	// hidden token pre-filled
	require.Equal(t, "tok123", form.Values().Get("csrf"))

	in := FindInput(form, []string{"case", "number"})
	require.NotNil(t, in)
	require.Equal(t, "case_number", in.Name)

	letter := FindInput(form, []string{"employer", "letter"})
	require.NotNil(t, letter)
	require.Equal(t, "employer_letter", letter.Name)
}

func TestSubmitMethods(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:lib/browser")
	defer cleanup()

	for _, test := range []struct {
		method     SubmitMethod
		wantVerb   string
		wantButton bool
	}{
		{SubmitClick, "POST", true},
		{SubmitScriptedClick, "POST", false},
		{SubmitForm, "POST", false},
		{SubmitEnterKey, "GET", false},
	} {
		t.Run(test.method.String(), func(t *testing.T) {
			var gotVerb, gotQuery, gotBody string
			mux := http.NewServeMux()
			mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, lookupPage)
			})
			mux.HandleFunc("/lookup", func(w http.ResponseWriter, r *http.Request) {
				gotVerb = r.Method
				gotQuery = r.URL.RawQuery
				require.NoError(t, r.ParseForm())
				gotBody = r.PostForm.Encode()
				fmt.Fprint(w, `<html><head><title>Result</title></head><body>done</body></html>`)
			})
			server := httptest.NewServer(mux)
			defer server.Close()

			session, err := NewSession(Options{})
			require.NoError(t, err)
			defer session.Close()

			page, err := session.Navigate(context.Background(), server.URL)
			require.NoError(t, err)
			form := session.Forms(page)[0]
			form.Fill(FindInput(form, []string{"case"}), "WAC1234567890")

			after, err := session.Submit(context.Background(), page, form, test.method)
			require.NoError(t, err)
			require.True(t, Changed(page, after))
			require.Equal(t, test.wantVerb, gotVerb)

			submitted := gotBody
			if test.wantVerb == "GET" {
				submitted = gotQuery
			}
			require.Contains(t, submitted, "case_number=WAC1234567890")
			require.Contains(t, submitted, "csrf=tok123")
			if test.wantButton {
				require.Contains(t, submitted, "action=check")
			} else {
				require.NotContains(t, submitted, "action=check")
			}
		})
	}
}

func TestRequestsCaptured(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:lib/browser")
	defer cleanup()

	server := lookupServer(t)
	session, err := NewSession(Options{})
	require.NoError(t, err)
	defer session.Close()

	page, err := session.Navigate(context.Background(), server.URL)
	require.NoError(t, err)

	form := session.Forms(page)[0]
	form.Fill(FindInput(form, []string{"case"}), "WAC1234567890")
	_, err = session.Submit(context.Background(), page, form, SubmitForm)
	require.NoError(t, err)

	requests := session.Requests()
	require.Len(t, requests, 1)
	require.Equal(t, "POST", requests[0].Method)
	require.Equal(t, server.URL+"/lookup", requests[0].URL)
	require.Contains(t, requests[0].Body, "case_number=WAC1234567890")
}

func TestRecordRequestLeavesReaderBodyIntact(t *testing.T) {
	session := &httpSession{http: resty.New()}

	body := strings.NewReader("case_number=WAC1234567890")
	req := session.http.R().SetBody(body)
	require.NoError(t, session.recordRequest(session.http, req))

	// the snapshot must not consume the body the request still has to send
	remaining, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, "case_number=WAC1234567890", string(remaining))

	requests := session.Requests()
	require.Len(t, requests, 1)
	require.Empty(t, requests[0].Body)
}

func TestChanged(t *testing.T) {
	a := &Page{URL: "https://x/1", Title: "A"}
	require.False(t, Changed(a, &Page{URL: "https://x/1", Title: "A"}))
	require.True(t, Changed(a, &Page{URL: "https://x/2", Title: "A"}))
	require.True(t, Changed(a, &Page{URL: "https://x/1", Title: "B"}))
	require.False(t, Changed(a, nil))
}

func TestClosedSessionRefusesWork(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:lib/browser")
	defer cleanup()

	session, err := NewSession(Options{})
	require.NoError(t, err)
	require.NoError(t, session.Close())
	require.NoError(t, session.Close())

	_, err = session.Navigate(context.Background(), "https://example.com")
	require.ErrorIs(t, err, ErrSessionClosed)
}
