package utils

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/itchan-dev/msgboard/shared/errors"
	"github.com/itchan-dev/msgboard/shared/logger"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrorBody is the JSON envelope of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteErrorAndStatusCode maps *errors.ErrorWithStatusCode to its status.
// Anything else is a 500 whose detail stays in the log.
func WriteErrorAndStatusCode(w http.ResponseWriter, err error) {
	if e, ok := errors.As(err); ok {
		code := e.Code
		if code == "" {
			code = codeForStatus(e.StatusCode)
		}
		WriteError(w, e.StatusCode, code, e.Message)
		return
	}
	logger.Log.Error("internal error", "error", err)
	WriteError(w, http.StatusInternalServerError, errors.CodeInternal, "internal server error")
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorBody{Error: ErrorDetail{Code: code, Message: message}})
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return errors.CodeInvalidRequest
	case http.StatusNotFound:
		return errors.CodeNotFound
	case http.StatusRequestEntityTooLarge:
		return errors.CodePayloadTooLarge
	case http.StatusTooManyRequests:
		return errors.CodeRateLimited
	default:
		return errors.CodeInternal
	}
}

// ValidateStruct runs the struct's validate tags and reports the first
// failing field as a 400.
func ValidateStruct(body any) error {
	if err := validate.Struct(body); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return errors.Validation("invalid " + fe.Field() + ": must satisfy " + fe.Tag() + paramSuffix(fe.Param()))
		}
		return errors.Validation("invalid request")
	}
	return nil
}

func paramSuffix(param string) string {
	if param == "" {
		return ""
	}
	return "=" + param
}
