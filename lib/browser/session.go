package browser

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"

	"casetrack-backend/lib/htmlutil"
	"casetrack-backend/lib/restyutil"
	"casetrack-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

var ErrSessionClosed = fmt.Errorf("browser session is closed")

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type Options struct {
	UserAgent string
	Timeout   time.Duration
	// DumpDir, when set, writes a transcript of every HTTP exchange
	// there for debugging scrape breakage.
	DumpDir string
}

// httpSession satisfies Session with a cookie-jar resty client. It has
// no script engine, which is fine for the sites this project targets:
// their meaningful state transitions are plain navigations and form
// posts, and anything script-only surfaces in the captured network
// requests instead.
type httpSession struct {
	http     *resty.Client
	page     *Page
	requests []Request
	closed   bool
}

func NewSession(opts Options) (Session, error) {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	client.SetHeader("user-agent", ua)

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}
	client.SetTimeout(timeout)

	telemetry.InstrumentResty(client, "browser/http")
	if opts.DumpDir != "" {
		restyutil.InstrumentClient(client, restyutil.NewFilesystemOutput(opts.DumpDir))
	}

	s := &httpSession{http: client}
	client.OnBeforeRequest(s.recordRequest)

	return s, nil
}

func (s *httpSession) recordRequest(_ *resty.Client, req *resty.Request) error {
	entry := Request{Method: req.Method, URL: req.URL}
	// only value bodies are snapshotted: reading an io.Reader body here
	// would drain it before the request goes out
	switch body := req.Body.(type) {
	case string:
		entry.Body = body
	case []byte:
		entry.Body = string(body)
	}
	if entry.Body == "" && len(req.FormData) > 0 {
		entry.Body = req.FormData.Encode()
	}
	s.requests = append(s.requests, entry)
	return nil
}

func (s *httpSession) pageFromResponse(res *resty.Response) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, err
	}
	return &Page{
		URL:   res.RawResponse.Request.URL.String(),
		Title: htmlutil.CleanText(doc.Find("title").Text()),
		Doc:   doc,
	}, nil
}

func (s *httpSession) Navigate(ctx context.Context, link string) (*Page, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}

	res, err := s.http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		return nil, err
	}
	if res.StatusCode() >= 400 {
		return nil, fmt.Errorf("navigate %s: status %d", link, res.StatusCode())
	}

	s.requests = nil
	page, err := s.pageFromResponse(res)
	if err != nil {
		return nil, err
	}
	s.page = page
	return page, nil
}

func (s *httpSession) Forms(page *Page) []*Form {
	pageUrl, err := url.Parse(page.URL)
	if err != nil {
		return nil
	}
	return parseForms(pageUrl, page.Doc)
}

func (s *httpSession) Submit(ctx context.Context, page *Page, form *Form, method SubmitMethod) (*Page, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}

	values := form.Values()

	switch method {
	case SubmitClick:
		// a real click submits the button's own name/value pair too
		for _, btn := range form.Buttons {
			if btn.Name != "" {
				values.Set(btn.Name, btn.Value)
				break
			}
		}
		return s.submitValues(ctx, form.Action, form.Method, values)
	case SubmitScriptedClick:
		return s.submitValues(ctx, form.Action, form.Method, values)
	case SubmitForm:
		return s.submitValues(ctx, form.Action, "POST", values)
	case SubmitEnterKey:
		return s.submitValues(ctx, form.Action, "GET", values)
	}
	return nil, fmt.Errorf("unknown submit method %d", method)
}

func (s *httpSession) submitValues(ctx context.Context, action, method string, values url.Values) (*Page, error) {
	req := s.http.R().SetContext(ctx)

	var res *resty.Response
	var err error
	if method == "POST" {
		res, err = req.
			SetHeader("content-type", "application/x-www-form-urlencoded").
			SetBody(values.Encode()).
			Post(action)
	} else {
		res, err = req.SetQueryParamsFromValues(values).Get(action)
	}
	if err != nil {
		return nil, err
	}
	if res.StatusCode() >= 400 {
		return nil, fmt.Errorf("submit %s: status %d", action, res.StatusCode())
	}

	return s.pageFromResponse(res)
}

func (s *httpSession) Requests() []Request {
	return append([]Request(nil), s.requests...)
}

func (s *httpSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.http.GetClient().CloseIdleConnections()
	return nil
}
