package pkg

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

type ErrorCode string

const (
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden          ErrorCode = "FORBIDDEN"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeValidation         ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeServerError        ErrorCode = "SERVER_ERROR"
)

// ResponseError is the error half of the wire contract. Code is the primary
// branching value for clients, the HTTP status is secondary.
type ResponseError struct {
	Message string    `json:"message"`
	Code    ErrorCode `json:"code"`
}

// Response is the envelope wrapping every API response:
//
//	success: {ok: true, data: ..., error: null}
//	failure: {ok: false, data: null, error: {message, code}}
type Response struct {
	OK    bool           `json:"ok"`
	Data  any            `json:"data"`
	Error *ResponseError `json:"error"`
}

func WriteOK(w http.ResponseWriter, data any) {
	WriteData(w, data, http.StatusOK)
}

func WriteData(w http.ResponseWriter, data any, statusCode int) {
	writeResponse(w, Response{OK: true, Data: data}, statusCode)
}

func WriteError(w http.ResponseWriter, statusCode int, message string, code ErrorCode) {
	writeResponse(w, Response{
		OK: false,
		Error: &ResponseError{
			Message: message,
			Code:    code,
		},
	}, statusCode)
}

// WriteServerError reports an internal fault to the client without leaking
// any details, those stay in the server logs
func WriteServerError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, "Internal Server Error", ErrCodeServerError)
}

func writeResponse(w http.ResponseWriter, resp Response, statusCode int) {
	respJson, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal response envelope: %s", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(respJson); err != nil {
		log.Errorf("failed to write response [%s]: %s", respJson, err)
	}
}
