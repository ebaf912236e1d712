// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Recommendation domain errors
const (
	ErrCodeDataIntegrity             ErrorCode = "DATA_INTEGRITY_VIOLATION"
	ErrCodeCatalogLoadFailed         ErrorCode = "CATALOG_LOAD_FAILED"
	ErrCodeHistoryPersistenceFailed  ErrorCode = "HISTORY_PERSISTENCE_FAILED"
	ErrCodeHistoryQueryFailed        ErrorCode = "HISTORY_QUERY_FAILED"
	ErrCodeFeedbackPersistenceFailed ErrorCode = "FEEDBACK_PERSISTENCE_FAILED"
	ErrCodeInvalidFeedbackValue      ErrorCode = "INVALID_FEEDBACK_VALUE"
)

// Input errors
const (
	ErrCodeParseError       ErrorCode = "PARSE_ERROR"
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
)

// Infrastructure errors
const (
	ErrCodeDatabaseConnectionFailed      ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed          ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout                  ErrorCode = "QUERY_TIMEOUT"
	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout                 ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound                 ErrorCode = "INDEX_NOT_FOUND"
	ErrCodeInternal                      ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// AsStandardError finds the first StandardError in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err's chain carries a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewDataIntegrityError reports a catalog that cannot be served. Never retryable.
func NewDataIntegrityError(source, details string) *StandardError {
	return newError(ErrCodeDataIntegrity, "Menu catalog failed integrity checks",
		fmt.Sprintf("source: %s, %s", source, details), false, nil).
		WithMetadata("source", source)
}

func NewCatalogLoadFailedError(source string, err error) *StandardError {
	return newError(ErrCodeCatalogLoadFailed, "Menu catalog could not be loaded",
		fmt.Sprintf("source: %s, error: %v", source, err), true, err).
		WithMetadata("source", source)
}

func NewHistoryPersistenceError(backend string, err error) *StandardError {
	return newError(ErrCodeHistoryPersistenceFailed, "Recommendation history could not be persisted",
		fmt.Sprintf("backend: %s, error: %v", backend, err), true, err).
		WithMetadata("backend", backend)
}

func NewHistoryQueryFailedError(backend string, err error) *StandardError {
	return newError(ErrCodeHistoryQueryFailed, "Recommendation history query failed",
		fmt.Sprintf("backend: %s, error: %v", backend, err), true, err).
		WithMetadata("backend", backend)
}

func NewFeedbackPersistenceError(err error) *StandardError {
	return newError(ErrCodeFeedbackPersistenceFailed, "Menu feedback could not be persisted", err.Error(), true, err)
}

func NewInvalidFeedbackValueError(value string) *StandardError {
	return newError(ErrCodeInvalidFeedbackValue, "Feedback must be good or bad",
		fmt.Sprintf("feedback: %q", value), false, nil)
}

func NewParseError(err error) *StandardError {
	return newError(ErrCodeParseError, "Failed to parse job variables", err.Error(), false, err)
}

func NewValidationFailedError(messages []string) *StandardError {
	return newError(ErrCodeValidationFailed, "Input validation failed", strings.Join(messages, "; "), false, nil)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true, err)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(query string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("query: %s, error: %v", query, err), true, err)
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(query string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout", fmt.Sprintf("query: %s", query), true, nil)
}

func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeElasticsearchConnectionFailed, "Elasticsearch connection error", err.Error(), true, err)
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("index: %s, error: %v", index, err), true, err)
}

func NewSearchTimeoutError(index string) *StandardError {
	return newError(ErrCodeSearchTimeout, "Elasticsearch query timeout", fmt.Sprintf("index: %s", index), true, nil)
}

func NewIndexNotFoundError(index string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Elasticsearch index not found", fmt.Sprintf("index: %s", index), false, nil)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError("EXTERNAL_SERVICE_ERROR", fmt.Sprintf("External service '%s' error", service), err.Error(), true, err)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError("TIMEOUT_ERROR", fmt.Sprintf("Service '%s' timeout", service), err.Error(), true, err)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError("RESOURCE_NOT_FOUND", fmt.Sprintf("Resource not found in %s", service), details, false, nil)
}

func NewAuthenticationError(details string) *StandardError {
	return newError("AUTHENTICATION_ERROR", "Authentication failed", details, false, nil)
}

// ==========================
// 4. Retry & Mapping Policy
// ==========================

// BPMNErrorMapping renames internal codes for boundary events; unmapped codes pass through.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeDataIntegrity:             "DATA_INTEGRITY_VIOLATION",
	ErrCodeCatalogLoadFailed:         "CATALOG_LOAD_FAILED",
	ErrCodeHistoryPersistenceFailed:  "HISTORY_PERSISTENCE_FAILED",
	ErrCodeHistoryQueryFailed:        "HISTORY_QUERY_FAILED",
	ErrCodeFeedbackPersistenceFailed: "FEEDBACK_PERSISTENCE_FAILED",
	ErrCodeInvalidFeedbackValue:      "INVALID_FEEDBACK_VALUE",
	ErrCodeParseError:                "PARSE_ERROR",
	ErrCodeValidationFailed:          "VALIDATION_FAILED",
	ErrCodeQueryTimeout:              "QUERY_TIMEOUT",
	ErrCodeSearchTimeout:             "SEARCH_TIMEOUT",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCatalogLoadFailed,
		ErrCodeHistoryQueryFailed,
		ErrCodeFeedbackPersistenceFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchQueryFailed:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeSearchTimeout:
		return 2

	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INTEGRITY") || strings.Contains(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.Contains(codeStr, "HISTORY"):
		return "HISTORY"
	case strings.Contains(codeStr, "FEEDBACK"):
		return "FEEDBACK"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "PARSE") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
