package testkit

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// MockTransport is an http.RoundTripper answering from a scenario's
// httpMocks. Install it on pkg/http's DefaultClient:
//
//	apphttp.DefaultClient.Transport = testkit.NewMockTransport(sc, nil)
//	defer apphttp.ResetTransport()
type MockTransport struct {
	mu      sync.Mutex
	steps   []mockEntry
	require bool
	errs    []error
}

type mockEntry struct {
	step  MockStep
	calls int
}

// NewMockTransport builds a transport from sc. expand, when non-nil, fills
// {{vars}} in match URLs, bodies and expected form values.
func NewMockTransport(sc *Scenario, expand func(string) string) *MockTransport {
	if expand == nil {
		expand = func(s string) string { return s }
	}
	mt := &MockTransport{require: sc.IsMockRequired}
	for _, step := range sc.HTTPMocks {
		step.MatchURL = expand(step.MatchURL)
		step.Body = []byte(expand(string(step.Body)))
		form := make(map[string]string, len(step.ExpectForm))
		for k, v := range step.ExpectForm {
			form[k] = expand(v)
		}
		step.ExpectForm = form
		mt.steps = append(mt.steps, mockEntry{step: step})
	}
	return mt
}

func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}

	mt.mu.Lock()
	defer mt.mu.Unlock()

	for i := range mt.steps {
		e := &mt.steps[i]
		if e.step.Method != "" && !strings.EqualFold(e.step.Method, req.Method) {
			continue
		}
		if !strings.HasPrefix(req.URL.String(), e.step.MatchURL) {
			continue
		}
		e.calls++
		mt.checkForm(e.step, body)
		return response(req, e.step), nil
	}

	if mt.require {
		return nil, fmt.Errorf("testkit: unexpected outgoing call to %s", req.URL)
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Status:     "404 Not Found",
		Body:       io.NopCloser(strings.NewReader(`{"error":{"message":"no mock configured"}}`)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func (mt *MockTransport) checkForm(step MockStep, body []byte) {
	if len(step.ExpectForm) == 0 {
		return
	}
	form, err := url.ParseQuery(string(body))
	if err != nil {
		mt.errs = append(mt.errs, fmt.Errorf("testkit: %s: request body is not a form: %w", step.MatchURL, err))
		return
	}
	for k, want := range step.ExpectForm {
		if got := form.Get(k); got != want {
			mt.errs = append(mt.errs, fmt.Errorf("testkit: %s: form field %q = %q, want %q", step.MatchURL, k, got, want))
		}
	}
}

// Errors returns form mismatches and steps that were never called.
func (mt *MockTransport) Errors() []error {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	errs := append([]error(nil), mt.errs...)
	for _, e := range mt.steps {
		if e.calls == 0 {
			errs = append(errs, fmt.Errorf("testkit: mock %s was never called", e.step.MatchURL))
		}
	}
	return errs
}

func response(req *http.Request, step MockStep) *http.Response {
	code := step.StatusCode
	if code == 0 {
		code = http.StatusOK
	}
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: code,
		Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(step.Body)),
		Request:    req,
	}
}
