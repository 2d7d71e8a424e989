// Package bind decodes and validates an HTTP request body into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rssabbir-dev/m-buy-sell-backend/config"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/validate"
)

// ErrEmptyBody is returned when a body is required but absent.
var ErrEmptyBody = errors.New("request body is empty")

// JSON decodes r.Body into dest, capped at MAX_BODY_BYTES, and validates it.
// It returns (errs, nil) on validation failures and (nil, err) when the body
// is malformed or too large.
func JSON(r *http.Request, dest any) (map[string]string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, config.MaxBodyBytes())

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return nil, ErrEmptyBody
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if errs := validate.Struct(dest); validate.HasErrors(errs) {
		return errs, nil
	}
	return nil, nil
}
