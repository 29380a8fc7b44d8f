package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory groups failures by how the session loop should react to them.
type ErrorCategory string

const (
	// Fatal at startup only: the bot refuses to run.
	ErrorCategoryFatal         ErrorCategory = "FATAL"
	ErrorCategoryCredentials   ErrorCategory = "CREDENTIALS"
	ErrorCategoryConfiguration ErrorCategory = "CONFIG"

	// Per-symbol / per-order failures: logged and skipped, never fatal.
	ErrorCategoryMarketData ErrorCategory = "MARKET_DATA"
	ErrorCategoryAccount    ErrorCategory = "ACCOUNT"
	ErrorCategoryOrder      ErrorCategory = "ORDER"
	ErrorCategoryProtection ErrorCategory = "PROTECTION"

	// Transport-level failures: caught at the narrowest scope.
	ErrorCategoryTransport ErrorCategory = "TRANSPORT"
	ErrorCategoryTimeout   ErrorCategory = "TIMEOUT"
	ErrorCategoryRateLimit ErrorCategory = "RATE_LIMIT"
)

// Sentinel errors for the trade decision path. Callers branch with errors.Is.
var (
	// ErrInsufficientData: not enough bars to compute volatility. Skip symbol.
	ErrInsufficientData = errors.New("insufficient bar data for volatility window")

	// ErrInvalidAccountState: buying power exhausted at validation time.
	ErrInvalidAccountState = errors.New("buying power is zero or negative")

	// ErrOrderRejected: broker terminated the order without a fill.
	ErrOrderRejected = errors.New("order rejected by broker")

	// ErrOrderTimeout: fill wait expired with the order still non-terminal.
	ErrOrderTimeout = errors.New("order fill wait timed out")

	// ErrUnprotectedPosition: an entry filled but no trailing stop guards it.
	// The most dangerous failure mode; must be surfaced loudly.
	ErrUnprotectedPosition = errors.New("filled position has no protective order")
)

// TradingError is a categorized error with component/operation context.
type TradingError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
}

func (e *TradingError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

func (e *TradingError) Unwrap() error {
	return e.Underlying
}

// IsFatal reports whether this error should stop the bot at startup.
func (e *TradingError) IsFatal() bool {
	return e.Category == ErrorCategoryFatal ||
		e.Category == ErrorCategoryCredentials ||
		e.Category == ErrorCategoryConfiguration
}

// New creates a categorized trading error.
func New(category ErrorCategory, component, operation, message string) *TradingError {
	return &TradingError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
	}
}

// Wrap attaches category and context to an existing error.
func Wrap(err error, category ErrorCategory, component, operation string) *TradingError {
	if err == nil {
		return nil
	}
	return &TradingError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
	}
}

// Common constructors

func NewCredentialsError(component, operation, message string) *TradingError {
	return New(ErrorCategoryCredentials, component, operation, message)
}

func NewConfigurationError(component, operation, message string) *TradingError {
	return New(ErrorCategoryConfiguration, component, operation, message)
}

func NewTransportError(component, operation string, err error) *TradingError {
	return Wrap(err, ErrorCategoryTransport, component, operation)
}

func NewOrderError(component, operation string, err error) *TradingError {
	return Wrap(err, ErrorCategoryOrder, component, operation)
}

func NewProtectionError(component, operation string, err error) *TradingError {
	return Wrap(err, ErrorCategoryProtection, component, operation)
}

// Categorize classifies a generic error from a broker or data client.
func Categorize(err error, component, operation string) *TradingError {
	if err == nil {
		return nil
	}

	var terr *TradingError
	if errors.As(err, &terr) {
		return terr
	}

	msg := strings.ToLower(err.Error())

	if strings.Contains(msg, "timeout") || strings.Contains(msg, "context deadline exceeded") {
		return Wrap(err, ErrorCategoryTimeout, component, operation)
	}
	if strings.Contains(msg, "connection") || strings.Contains(msg, "network") ||
		strings.Contains(msg, "dns") || strings.Contains(msg, "dial") {
		return Wrap(err, ErrorCategoryTransport, component, operation)
	}
	if strings.Contains(msg, "unauthorized") || strings.Contains(msg, "forbidden") ||
		strings.Contains(msg, "api key") {
		return Wrap(err, ErrorCategoryCredentials, component, operation)
	}
	if strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests") {
		return Wrap(err, ErrorCategoryRateLimit, component, operation)
	}
	if strings.Contains(msg, "insufficient") || strings.Contains(msg, "buying power") {
		return Wrap(err, ErrorCategoryAccount, component, operation)
	}
	if strings.Contains(msg, "rejected") || strings.Contains(msg, "order") {
		return Wrap(err, ErrorCategoryOrder, component, operation)
	}

	return Wrap(err, ErrorCategoryTransport, component, operation)
}
