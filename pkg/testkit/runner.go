package testkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	apphttp "github.com/rssabbir-dev/m-buy-sell-backend/pkg/http"
)

// Options configures a run.
type Options struct {
	// Token mints a bearer token for a scenario's "as" uid.
	Token func(uid string) string
	// Vars seeds the variables scenarios can reference as {{name}}.
	Vars map[string]string
}

// Run executes every scenario in one file, in order.
func Run(t *testing.T, handler http.Handler, path string, opts Options) {
	t.Helper()
	newSession(opts).file(t, handler, path)
}

// RunDir executes every *.json file in dir in lexical order. Variables
// captured in one file are visible to the files after it.
func RunDir(t *testing.T, handler http.Handler, dir string, opts Options) {
	t.Helper()

	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(paths) == 0 {
		t.Fatalf("testkit: no scenario files found in %q", dir)
	}
	s := newSession(opts)
	for _, path := range paths {
		s.file(t, handler, path)
	}
}

type session struct {
	opts Options
	vars map[string]string
}

func newSession(opts Options) *session {
	vars := make(map[string]string, len(opts.Vars))
	for k, v := range opts.Vars {
		vars[k] = v
	}
	return &session{opts: opts, vars: vars}
}

func (s *session) file(t *testing.T, handler http.Handler, path string) {
	t.Helper()
	scenarios, err := LoadFile(path)
	if err != nil {
		t.Fatalf("%v", err)
	}
	for _, sc := range scenarios {
		t.Run(sc.Name, func(t *testing.T) {
			s.run(t, handler, sc)
		})
	}
}

func (s *session) run(t *testing.T, handler http.Handler, sc *Scenario) {
	t.Helper()

	body, err := sc.requestBody()
	if err != nil {
		t.Fatalf("[%s] read request body: %v", sc.Name, err)
	}

	mt := NewMockTransport(sc, s.expand)
	apphttp.DefaultClient.Transport = mt
	defer apphttp.ResetTransport()

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader([]byte(s.expand(string(body))))
	}
	req := httptest.NewRequest(strings.ToUpper(sc.Method), s.expand(sc.URL), reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	switch {
	case sc.Token != "":
		req.Header.Set("Authorization", "Bearer "+sc.Token)
	case sc.As != "":
		if s.opts.Token == nil {
			t.Fatalf("[%s] scenario authenticates as %q but Options.Token is nil", sc.Name, sc.As)
		}
		req.Header.Set("Authorization", "Bearer "+s.opts.Token(s.expand(sc.As)))
	}
	for k, v := range sc.Headers {
		req.Header.Set(k, s.expand(v))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	AssertStatusCode(t, sc, rec.Code, rec.Body.Bytes())

	var decoded any
	if len(sc.Expect) > 0 || len(sc.Capture) > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("[%s] response is not JSON: %v\nbody: %s", sc.Name, err, rec.Body.String())
		}
	}
	AssertFields(t, sc, decoded, s.expand)
	if sc.ResponseFileName != "" {
		AssertJSONFile(t, sc, rec.Body.Bytes())
	}
	AssertMocksAllCalled(t, sc, mt)

	for name, path := range sc.Capture {
		v, ok := lookup(decoded, path)
		if !ok || v == nil {
			t.Fatalf("[%s] capture %q: nothing at %q", sc.Name, name, path)
		}
		s.vars[name] = fmt.Sprint(v)
	}
}

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)

// expand replaces {{name}} with the variable's value. Unknown names are left
// in place so the mismatch shows up in the assertion that uses them.
func (s *session) expand(in string) string {
	return placeholder.ReplaceAllStringFunc(in, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if v, ok := s.vars[name]; ok {
			return v
		}
		return m
	})
}
