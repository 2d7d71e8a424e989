package testkit

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode checks the response code and prints the body on mismatch.
func AssertStatusCode(t *testing.T, sc *Scenario, got int, body []byte) {
	t.Helper()
	assert.Equal(t, sc.ExpectedCode, got, "[%s] HTTP status code mismatch\nbody: %s", sc.Name, body)
}

// AssertFields checks every "expect" entry against the decoded body. String
// expectations are expanded first; "*" only requires a non-null value.
func AssertFields(t *testing.T, sc *Scenario, decoded any, expand func(string) string) {
	t.Helper()
	for path, want := range sc.Expect {
		got, ok := lookup(decoded, path)
		if str, isStr := want.(string); isStr {
			if str == "*" {
				assert.True(t, ok && got != nil, "[%s] %s: expected a value", sc.Name, path)
				continue
			}
			want = expand(str)
		}
		if !assert.True(t, ok, "[%s] %s: missing from response", sc.Name, path) {
			continue
		}
		assert.Equal(t, want, got, "[%s] %s mismatch", sc.Name, path)
	}
}

// AssertJSONFile compares the whole body with ResponseFileName, ignoring key
// order and whitespace.
func AssertJSONFile(t *testing.T, sc *Scenario, actual []byte) {
	t.Helper()
	expected, err := os.ReadFile(sc.resolve(sc.ResponseFileName))
	require.NoError(t, err, "[%s] read response file", sc.Name)

	var want, got any
	require.NoError(t, json.Unmarshal(expected, &want), "[%s] response file is not valid JSON", sc.Name)
	if !assert.NoError(t, json.Unmarshal(actual, &got), "[%s] response is not valid JSON\nbody: %s", sc.Name, actual) {
		return
	}
	assert.Equal(t, want, got, "[%s] response body mismatch", sc.Name)
}

// AssertMocksAllCalled fails for every mock step that was never hit or that
// saw a request it did not expect.
func AssertMocksAllCalled(t *testing.T, sc *Scenario, mt *MockTransport) {
	t.Helper()
	for _, err := range mt.Errors() {
		assert.NoError(t, err, "[%s]", sc.Name)
	}
}

// lookup walks a decoded JSON value along a dot path. Numeric segments index
// arrays: "data.0.id".
func lookup(v any, path string) (any, bool) {
	cur := v
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}
