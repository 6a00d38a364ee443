package apiclient

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
)

const fallbackErrorMessage = "API error"

type response struct {
	statusCode int
	body       []byte
}

func (r response) ok() bool {
	return r.statusCode >= http.StatusOK && r.statusCode < http.StatusMultipleChoices
}

func (r response) unauthorized() bool {
	return r.statusCode == http.StatusUnauthorized
}

// result maps a final response to the value returned by Do.
func (r response) result() (json.RawMessage, error) {
	if !r.ok() {
		return nil, &APIError{
			StatusCode: r.statusCode,
			Message:    errorMessage(r.body),
			Body:       r.body,
		}
	}
	trimmed := bytes.TrimSpace(r.body)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if !json.Valid(trimmed) {
		return nil, errors.Errorf("[response.result] status %d: body is not valid JSON", r.statusCode)
	}
	return json.RawMessage(trimmed), nil
}

// errorMessage prefers the "detail" member, then the compacted JSON body, then a
// fixed fallback when the body is not JSON.
func errorMessage(body []byte) string {
	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		return fallbackErrorMessage
	}

	if obj, ok := payload.(map[string]interface{}); ok {
		switch detail := obj["detail"].(type) {
		case nil:
		case string:
			if detail != "" {
				return detail
			}
		default:
			if encoded, err := json.Marshal(detail); err == nil {
				return string(encoded)
			}
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, body); err != nil {
		return fallbackErrorMessage
	}
	return compact.String()
}
