package testkit

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/rssabbir-dev/m-buy-sell-backend/pkg/http"
)

func echoHandler() http.Handler {
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, code int, data any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]any{"status": code, "data": data}) //nolint:errcheck
	}
	mux.HandleFunc("POST /items", func(w http.ResponseWriter, r *http.Request) {
		var in struct{ Name string }
		json.NewDecoder(r.Body).Decode(&in) //nolint:errcheck
		write(w, http.StatusCreated, map[string]any{
			"id":    "item-7",
			"name":  in.Name,
			"owner": strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer tok-"),
			"tags":  []string{"a", "b"},
		})
	})
	mux.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, map[string]any{"id": r.PathValue("id"), "trace": r.Header.Get("X-Trace")})
	})
	mux.HandleFunc("GET /upstream", func(w http.ResponseWriter, r *http.Request) {
		var out struct {
			Value string `json:"value"`
		}
		resp, err := apphttp.Post("https://upstream.test/v1/things").
			WithContext(r.Context()).
			Form(url.Values{"q": {"lamp"}}).
			Send()
		if err == nil {
			err = resp.Decode(&out)
		}
		if err != nil {
			write(w, http.StatusBadGateway, err.Error())
			return
		}
		write(w, http.StatusOK, out)
	})
	return mux
}

func TestRun_StoryWithCaptureAndMocks(t *testing.T) {
	Run(t, echoHandler(), "testdata/echo.json", Options{
		Token: func(uid string) string { return "tok-" + uid },
		Vars:  map[string]string{"item": "lamp"},
	})
}

func TestLoadFile_SingleObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "one.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"ping","url":"/ping","expectedCode":200}`), 0o600))

	scenarios, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.Equal(t, "GET", scenarios[0].Method)
}

func TestLoadFile_RejectsIncompleteScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"no url","expectedCode":200}]`), 0o600))

	_, err := LoadFile(path)
	assert.ErrorContains(t, err, "url is required")
}

func TestLookup(t *testing.T) {
	var doc any
	require.NoError(t, json.Unmarshal([]byte(`{"data":[{"id":"a"},{"id":"b","n":2}]}`), &doc))

	v, ok := lookup(doc, "data.1.id")
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	v, ok = lookup(doc, "data.1.n")
	assert.True(t, ok)
	assert.Equal(t, float64(2), v)

	_, ok = lookup(doc, "data.5.id")
	assert.False(t, ok)
	_, ok = lookup(doc, "data.id")
	assert.False(t, ok)
}

func TestMockTransport_ReportsUncalledAndFormMismatch(t *testing.T) {
	sc := &Scenario{HTTPMocks: []MockStep{
		{MatchURL: "https://a.test/", ExpectForm: map[string]string{"amount": "1999"}},
		{MatchURL: "https://b.test/"},
	}}
	mt := NewMockTransport(sc, nil)

	req, err := http.NewRequest(http.MethodPost, "https://a.test/pay", strings.NewReader("amount=19"))
	require.NoError(t, err)
	resp, err := mt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	errs := mt.Errors()
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), `form field "amount"`)
	assert.Contains(t, errs[1].Error(), "b.test")
}

func TestMockTransport_UnmatchedCall(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://nowhere.test/", nil)
	require.NoError(t, err)

	resp, err := NewMockTransport(&Scenario{}, nil).RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, err = NewMockTransport(&Scenario{IsMockRequired: true}, nil).RoundTrip(req)
	assert.Error(t, err)
}
