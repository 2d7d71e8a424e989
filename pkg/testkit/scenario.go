// Package testkit drives HTTP API tests from JSON scenario files.
//
// A scenario file holds one scenario or an array of them. Arrays run in
// order and share variables, so a file can tell a whole story: create an
// order, capture its id, pay for it.
//
//	[
//	  {
//	    "name": "buyer places an order",
//	    "method": "POST",
//	    "url": "/orders/u1",
//	    "as": "u1",
//	    "body": {"product_id": "{{product}}"},
//	    "expectedCode": 201,
//	    "capture": {"order": "data.id"}
//	  }
//	]
//
// Outgoing calls made through pkg/http are answered by httpMocks, so a
// scenario never reaches the real payment provider.
package testkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Scenario is one request and what its response must look like.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	Method          string            `json:"method"`
	URL             string            `json:"url"`
	As              string            `json:"as"`    // uid to send a bearer token for
	Token           string            `json:"token"` // raw bearer token, for bad-credential cases
	Headers         map[string]string `json:"headers"`
	Body            json.RawMessage   `json:"body"`
	RequestFileName string            `json:"requestFileName"` // body file, relative to the scenario

	ExpectedCode     int               `json:"expectedCode"`
	Expect           map[string]any    `json:"expect"`           // dot path → value; "*" means present
	ResponseFileName string            `json:"responseFileName"` // full JSON body to compare
	Capture          map[string]string `json:"capture"`          // variable → dot path

	IsMockRequired bool       `json:"isMockRequired"` // fail on an outgoing call with no mock
	HTTPMocks      []MockStep `json:"httpMocks"`

	dir string
}

// MockStep answers outgoing requests whose URL starts with MatchURL.
type MockStep struct {
	Method     string            `json:"method"`
	MatchURL   string            `json:"matchUrl"`
	StatusCode int               `json:"statusCode"`
	Body       json.RawMessage   `json:"body"`
	ExpectForm map[string]string `json:"expectForm"` // form fields the request must carry
}

// LoadFile reads a scenario file holding a single object or an array.
func LoadFile(path string) ([]*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve path %q: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var scenarios []*Scenario
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &scenarios)
	} else {
		var s Scenario
		err = json.Unmarshal(trimmed, &s)
		scenarios = []*Scenario{&s}
	}
	if err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}

	for i, s := range scenarios {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("testkit: %q scenario %d: %w", abs, i, err)
		}
		s.dir = filepath.Dir(abs)
	}
	return scenarios, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.URL == "" {
		return fmt.Errorf("url is required")
	}
	if s.ExpectedCode == 0 {
		return fmt.Errorf("expectedCode is required")
	}
	if s.Method == "" {
		s.Method = "GET"
	}
	for i, m := range s.HTTPMocks {
		if m.MatchURL == "" {
			return fmt.Errorf("httpMocks[%d].matchUrl is required", i)
		}
	}
	return nil
}

// requestBody returns the inline body, or the contents of RequestFileName.
func (s *Scenario) requestBody() ([]byte, error) {
	if len(s.Body) > 0 {
		return s.Body, nil
	}
	if s.RequestFileName == "" {
		return nil, nil
	}
	return os.ReadFile(s.resolve(s.RequestFileName))
}

func (s *Scenario) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}
