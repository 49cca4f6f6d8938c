package httputil

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shopboard/shopboard-backend/pkg/errors"
)

// Envelope is the response shape every JSON endpoint uses. Exactly one
// of Data and Errors is non-null and both keys are always serialized;
// Meta always carries the request id.
type Envelope struct {
	Data   interface{}    `json:"data"`
	Errors []ErrorBody    `json:"errors"`
	Meta   map[string]any `json:"meta"`
}

// ErrorBody represents one error in the response
type ErrorBody struct {
	Status int               `json:"status"`
	Code   string            `json:"code"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}

func baseMeta(r *http.Request) map[string]any {
	return map[string]any{
		"request_id": GetRequestID(r.Context()),
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(env)
}

// JSON sends a success response
func JSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	writeJSON(w, statusCode, Envelope{
		Data: data,
		Meta: baseMeta(r),
	})
}

// JSONWithMeta sends a success response with extra metadata entries.
// The request id is always present and cannot be overridden.
func JSONWithMeta(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}, meta map[string]any) {
	merged := baseMeta(r)
	for k, v := range meta {
		if k == "request_id" {
			continue
		}
		merged[k] = v
	}
	writeJSON(w, statusCode, Envelope{
		Data: data,
		Meta: merged,
	})
}

// Error sends an error response. Unrecognized errors are reported as
// internal without leaking their message.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		appErr = errors.Internal("an unexpected error occurred").WithCause(err)
	}

	meta := baseMeta(r)
	if appErr.Current != nil {
		meta["current"] = appErr.Current
	}
	if appErr.RetryAfter > 0 {
		seconds := int(appErr.RetryAfter.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	writeJSON(w, appErr.StatusCode, Envelope{
		Errors: []ErrorBody{{
			Status: appErr.StatusCode,
			Code:   appErr.Code,
			Detail: appErr.Detail,
			Fields: appErr.Fields,
		}},
		Meta: meta,
	})
}

// NotModified sends a 304 response. The caller is expected to have set
// the ETag header already.
func NotModified(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotModified)
}

// DecodeJSON decodes the request body into the provided struct
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.BadRequest("invalid JSON body").WithCause(err)
	}
	return nil
}
