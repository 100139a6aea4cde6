package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Data    any    `json:"data,omitempty"`
	Details any    `json:"details,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	V       int    `json:"v"`
	Success bool   `json:"success"`
}

// EnvelopeTransformer wraps response bodies in an Envelope. Raw byte
// bodies (Markdown export) pass through untouched.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch body := v.(type) {
	case []byte, Envelope, *Envelope:
		return v, nil
	case *APIError:
		return &Envelope{
			V:       envelopeVersion,
			Success: false,
			Error:   body.Message,
			Code:    body.Code,
			Details: body.Details,
		}, nil
	default:
		return &Envelope{V: envelopeVersion, Success: true, Data: v}, nil
	}
}
