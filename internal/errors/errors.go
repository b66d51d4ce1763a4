/**
 * Custom error types for the recipe digitizer
 *
 * Setup errors (missing source, missing results) are fatal and stop the run.
 * Per-page errors are recorded on the page record and never abort the batch.
 */

package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode enum for structured error handling
type ErrorCode string

const (
	// Setup errors - fatal, no partial output
	ErrorSourceNotFound  ErrorCode = "SOURCE_NOT_FOUND"
	ErrorResultsNotFound ErrorCode = "RESULTS_NOT_FOUND"
	ErrorSetupFailed     ErrorCode = "SETUP_FAILED"

	// Per-page errors - recorded, processing continues
	ErrorRasterization ErrorCode = "RASTERIZATION_ERROR"
	ErrorOCRFailed     ErrorCode = "OCR_FAILED"

	// Render errors - fatal only when no document can be produced at all
	ErrorRenderFailed ErrorCode = "RENDER_FAILED"
)

// ProcessingError represents a structured processing error
type ProcessingError struct {
	Code      ErrorCode
	Message   string
	Page      int
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *ProcessingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

// HasCode reports whether err is a ProcessingError carrying the given code
func HasCode(err error, code ErrorCode) bool {
	var pe *ProcessingError
	if stderrors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

// Factory functions for common errors

func NewSourceNotFoundError(path string) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorSourceNotFound,
		Message:   fmt.Sprintf("Source document not found: %s", path),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"path": path,
		},
	}
}

func NewResultsNotFoundError(path string) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorResultsNotFound,
		Message:   fmt.Sprintf("OCR results not found: %s", path),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"path": path,
		},
	}
}

func NewSetupError(msg string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorSetupFailed,
		Message:   msg,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewRasterizationError(page int, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorRasterization,
		Message:   fmt.Sprintf("Failed to rasterize page %d", page),
		Page:      page,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewOCRFailedError(page int, engine string, cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorOCRFailed,
		Message:   fmt.Sprintf("OCR failed on page %d (engine: %s)", page, engine),
		Page:      page,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"engine": engine,
		},
		Cause: cause,
	}
}

func NewRenderFailedError(cause error) *ProcessingError {
	return &ProcessingError{
		Code:      ErrorRenderFailed,
		Message:   "Failed to produce review document",
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// ToMap converts error to map for artifact persistence
func (e *ProcessingError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}

	if e.Page > 0 {
		result["page"] = e.Page
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}
