package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// Version is the server release reported in the OpenAPI document and to
// local network discovery.
const Version = "1.0.0"

// envelopeVersion is the "v" field clients branch on.
const envelopeVersion = 1

// Envelope wraps every successful response body.
type Envelope struct {
	Data    any  `json:"data,omitempty"`
	V       int  `json:"v"`
	Success bool `json:"success"`
}

// ErrorEnvelope wraps every error response body. Error repeats Message for
// clients that only read a single string.
type ErrorEnvelope struct {
	Details any    `json:"details,omitempty"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	V       int    `json:"v"`
	Success bool   `json:"success"`
}

// EnvelopeTransformer is a huma.Transformer that wraps response bodies in
// Envelope or ErrorEnvelope.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch body := v.(type) {
	case *APIError:
		return errorEnvelope(body), nil
	case Envelope, *Envelope, ErrorEnvelope, *ErrorEnvelope:
		return v, nil
	default:
		return Envelope{V: envelopeVersion, Success: true, Data: v}, nil
	}
}

func errorEnvelope(e *APIError) ErrorEnvelope {
	return ErrorEnvelope{
		V:       envelopeVersion,
		Success: false,
		Error:   e.Message,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}
