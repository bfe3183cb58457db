package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents transport failures and timeouts
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeStatus represents a non-2xx HTTP response
	ErrorTypeStatus ErrorType = "status"
	// ErrorTypeRateLimit represents a 429/430 response from the site
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeParsing represents HTML or JSON parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypePhone represents an unsuccessful phone reveal
	ErrorTypePhone ErrorType = "phone"
	// ErrorTypeExport represents exporter I/O errors
	ErrorTypeExport ErrorType = "export"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// CrawlerError represents a crawler-specific error
type CrawlerError struct {
	Type       ErrorType
	Target     string
	Message    string
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *CrawlerError) Error() string {
	target := e.Target
	if target == "" {
		target = "-"
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, target, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, target, e.Message)
}

// Unwrap returns the underlying error
func (e *CrawlerError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether a later attempt could succeed.
// The crawler never retries on its own; the worker logs the flag with each failure
func (e *CrawlerError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork:
		return true
	case ErrorTypeStatus:
		return e.StatusCode >= 500
	default:
		return false
	}
}

// New creates a new CrawlerError
func New(errType ErrorType, target, message string, err error) *CrawlerError {
	return &CrawlerError{
		Type:    errType,
		Target:  target,
		Message: message,
		Err:     err,
	}
}

// NewNetwork creates a new network error
func NewNetwork(target, message string, err error) *CrawlerError {
	return New(ErrorTypeNetwork, target, message, err)
}

// NewStatus creates a new unexpected-status error
func NewStatus(target string, statusCode int) *CrawlerError {
	e := New(ErrorTypeStatus, target, fmt.Sprintf("unexpected status code: %d", statusCode), nil)
	e.StatusCode = statusCode
	return e
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(target string, statusCode int, retryAfter string) *CrawlerError {
	message := "rate limited"
	if retryAfter != "" {
		message = fmt.Sprintf("rate limited; retry after %s", retryAfter)
	}
	e := New(ErrorTypeRateLimit, target, message, nil)
	e.StatusCode = statusCode
	return e
}

// NewParsing creates a new parsing error
func NewParsing(target, message string, err error) *CrawlerError {
	return New(ErrorTypeParsing, target, message, err)
}

// NewPhone creates a new phone resolution error
func NewPhone(listingID, message string, err error) *CrawlerError {
	return New(ErrorTypePhone, listingID, message, err)
}

// NewExport creates a new exporter error
func NewExport(path, message string, err error) *CrawlerError {
	return New(ErrorTypeExport, path, message, err)
}

// NewValidation creates a new validation error
func NewValidation(target, message string) *CrawlerError {
	return New(ErrorTypeValidation, target, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *CrawlerError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// TypeOf returns the ErrorType of the first CrawlerError in err's chain,
// or an empty string when there is none
func TypeOf(err error) ErrorType {
	var ce *CrawlerError
	if errors.As(err, &ce) {
		return ce.Type
	}
	return ""
}

// Is reports whether err carries a CrawlerError of the given type
func Is(err error, errType ErrorType) bool {
	return TypeOf(err) == errType
}

// Retryable reports whether err carries a CrawlerError worth another attempt
func Retryable(err error) bool {
	var ce *CrawlerError
	return errors.As(err, &ce) && ce.IsRetryable()
}
