package core

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// FieldError reports a problem with one input field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is returned by services for input rejected after struct validation,
// e.g. an email already taken.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	switch {
	case err.Err != nil:
		return err.Err.Error()
	case len(err.Fields) > 0:
		return err.Fields[0].Field + ": " + err.Fields[0].Error
	}
	return ""
}

// Field returns the message attached to fld, if any.
func (err ValidationError) Field(fld string) (string, bool) {
	for _, f := range err.Fields {
		if f.Field == fld {
			return f.Error, true
		}
	}
	return "", false
}

// FieldErrors flattens validation failures into field -> message pairs.
// It returns nil when err is not a validation failure.
func FieldErrors(err error, translator ut.Translator) map[string]string {
	switch origErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		fldErrs := make(map[string]string, len(origErr))
		for _, vErr := range origErr {
			fldErrs[vErr.Field()] = vErr.Translate(translator)
		}
		return fldErrs
	case *ValidationError:
		fldErrs := make(map[string]string, len(origErr.Fields))
		for _, fErr := range origErr.Fields {
			fldErrs[fErr.Field] = fErr.Error
		}
		if len(fldErrs) == 0 && origErr.Err != nil {
			fldErrs["error"] = origErr.Err.Error()
		}
		return fldErrs
	}
	return nil
}

// ErrorMessage renders err as a single human readable line.
// Validation failures are reported for the first failing field, prefixed with its name.
func ErrorMessage(err error, translator ut.Translator) string {
	if err == nil {
		return ""
	}
	if vErrs, ok := errors.Cause(err).(validator.ValidationErrors); ok && len(vErrs) > 0 {
		fld, msg := vErrs[0].Field(), vErrs[0].Translate(translator)
		if strings.HasPrefix(msg, fld+" ") {
			return msg
		}
		return fld + ": " + msg
	}
	return err.Error()
}

type shutdown struct {
	message string
}

// NewShutdownError marks err as fatal to the server; error handlers signal shutdown on it.
func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string { return s.message }

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
