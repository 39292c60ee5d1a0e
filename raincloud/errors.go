package raincloud

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error (connection reset, unreachable host)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeAuth indicates the portal rejected the credentials or a re-login failed
	ErrTypeAuth
	// ErrTypeAuthExpired indicates a status request came back 403; recovered by one re-login
	ErrTypeAuthExpired
	// ErrTypeHTTP indicates an unexpected HTTP status code
	ErrTypeHTTP
	// ErrTypeParse indicates a malformed HTML page or status payload
	ErrTypeParse
	// ErrTypeValidation indicates a caller supplied a disallowed value
	ErrTypeValidation
	// ErrTypeDiscovery indicates the setup page did not expose an expected element
	ErrTypeDiscovery
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the portal refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeUnknown indicates an unknown or unexpected error
	ErrTypeUnknown
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeAuth:
		return "Authentication Error"
	case ErrTypeAuthExpired:
		return "Session Expired"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeDiscovery:
		return "Discovery Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// DiscoveryLevel names the level of the controller/faucet/zone tree a
// discovery error refers to.
type DiscoveryLevel string

const (
	LevelController DiscoveryLevel = "controller"
	LevelFaucet     DiscoveryLevel = "faucet"
	LevelZone       DiscoveryLevel = "zone"
)

// PortalError represents an error that occurred while talking to the portal
type PortalError struct {
	Type       ErrorType      // Category of error
	Message    string         // Human-readable error message
	StatusCode int            // HTTP status code (if applicable)
	Err        error          // Underlying error (if any)
	Level      DiscoveryLevel // Tree level for discovery errors
	Retryable  bool           // Whether the error is retryable
}

// Error implements the error interface
func (e *PortalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *PortalError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError maps a transport failure onto a PortalError.
func ClassifyNetworkError(err error) *PortalError {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) {
		return &PortalError{
			Type:      ErrTypeTimeout,
			Message:   "Request timed out",
			Err:       err,
			Retryable: true,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &PortalError{
			Type:    ErrTypeDNS,
			Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:     err,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return &PortalError{
			Type:      ErrTypeConnectionRefused,
			Message:   "Portal refused connection",
			Err:       err,
			Retryable: true,
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return ClassifyNetworkError(urlErr.Err)
	}

	return &PortalError{
		Type:      ErrTypeNetwork,
		Message:   "Network error occurred",
		Err:       err,
		Retryable: true,
	}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(message string, err error) *PortalError {
	classified := ClassifyNetworkError(err)
	if classified != nil {
		classified.Message = message
		return classified
	}
	return &PortalError{
		Type:      ErrTypeNetwork,
		Message:   message,
		Retryable: true,
	}
}

// NewAuthError creates an authentication error
func NewAuthError(statusCode int, message string) *PortalError {
	return &PortalError{
		Type:       ErrTypeAuth,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewAuthExpiredError creates the transient 403 error used internally to
// trigger the single re-login.
func NewAuthExpiredError(message string) *PortalError {
	return &PortalError{
		Type:       ErrTypeAuthExpired,
		Message:    message,
		StatusCode: http.StatusForbidden,
		Retryable:  true,
	}
}

// NewHTTPError creates an HTTP-level error
func NewHTTPError(statusCode int, message string) *PortalError {
	return &PortalError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *PortalError {
	return &PortalError{
		Type:    ErrTypeParse,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *PortalError {
	return &PortalError{
		Type:    ErrTypeValidation,
		Message: message,
	}
}

// NewDiscoveryError creates a discovery error for the given tree level
func NewDiscoveryError(level DiscoveryLevel, message string) *PortalError {
	return &PortalError{
		Type:    ErrTypeDiscovery,
		Message: message,
		Level:   level,
	}
}

func asPortalError(err error) (*PortalError, bool) {
	var pe *PortalError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsNetworkError checks if an error is a network error (including timeout, connection refused, DNS)
func IsNetworkError(err error) bool {
	if pe, ok := asPortalError(err); ok {
		return pe.Type == ErrTypeNetwork ||
			pe.Type == ErrTypeTimeout ||
			pe.Type == ErrTypeConnectionRefused ||
			pe.Type == ErrTypeDNS
	}
	return false
}

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool {
	if pe, ok := asPortalError(err); ok {
		return pe.Type == ErrTypeAuth
	}
	return false
}

// IsAuthExpiredError checks if an error is a recoverable 403
func IsAuthExpiredError(err error) bool {
	if pe, ok := asPortalError(err); ok {
		return pe.Type == ErrTypeAuthExpired
	}
	return false
}

// IsHTTPError checks if an error is an HTTP error
func IsHTTPError(err error) bool {
	if pe, ok := asPortalError(err); ok {
		return pe.Type == ErrTypeHTTP
	}
	return false
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	if pe, ok := asPortalError(err); ok {
		return pe.Type == ErrTypeParse
	}
	return false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	if pe, ok := asPortalError(err); ok {
		return pe.Type == ErrTypeValidation
	}
	return false
}

// IsDiscoveryError checks if an error is a discovery error
func IsDiscoveryError(err error) bool {
	if pe, ok := asPortalError(err); ok {
		return pe.Type == ErrTypeDiscovery
	}
	return false
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	if pe, ok := asPortalError(err); ok {
		return pe.Retryable
	}
	return false
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	pe, ok := asPortalError(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch pe.Type {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The portal did not respond in time.",
			"Troubleshooting:",
			"  • Check your internet connection",
			"  • Try increasing --timeout",
			"  • The portal may be under maintenance, try again later",
		}, "\n")

	case ErrTypeConnectionRefused, ErrTypeNetwork:
		return strings.Join([]string{
			"Could not reach the portal.",
			"Troubleshooting:",
			"  • Check your internet connection",
			"  • Verify --base-url and --proxy settings",
			"  • Use --insecure only if a proxy intercepts TLS",
		}, "\n")

	case ErrTypeDNS:
		return strings.Join([]string{
			"Could not resolve the portal hostname.",
			"Troubleshooting:",
			"  • Verify --base-url is spelled correctly",
			"  • Check your network DNS settings",
		}, "\n")

	case ErrTypeAuth, ErrTypeAuthExpired:
		return strings.Join([]string{
			"The portal rejected the login.",
			"Troubleshooting:",
			"  • Check the e-mail address used with --username",
			"  • Check RAINCLOUD_PASSWORD or re-enter the password",
			"  • Log in once through the website to confirm the account is active",
		}, "\n")

	case ErrTypeDiscovery:
		return strings.Join([]string{
			fmt.Sprintf("The setup page did not list any %s.", pe.Level),
			"Troubleshooting:",
			"  • Make sure the account has at least one paired controller and faucet",
			"  • The portal layout may have changed; run with --log-level debug",
		}, "\n")

	case ErrTypeHTTP:
		if pe.StatusCode >= 500 {
			return fmt.Sprintf("The portal returned a server error (HTTP %d). Try again later.", pe.StatusCode)
		}
		return fmt.Sprintf("The portal returned HTTP error %d. Check the request parameters.", pe.StatusCode)

	case ErrTypeParse:
		return strings.Join([]string{
			"Failed to parse the portal's response.",
			"The portal layout may have changed; run with --log-level debug for details.",
		}, "\n")

	case ErrTypeValidation:
		return "The requested value is not allowed. Check the error message for details."

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	pe, ok := asPortalError(err)
	if !ok {
		return err.Error()
	}

	switch pe.Type {
	case ErrTypeTimeout:
		return "Portal not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Portal refused connection"
	case ErrTypeDNS:
		return "Cannot resolve portal hostname"
	case ErrTypeAuth, ErrTypeAuthExpired:
		return "Authentication failed - check credentials"
	case ErrTypeNetwork:
		return "Network error - check connection"
	case ErrTypeHTTP:
		return fmt.Sprintf("Portal error (HTTP %d)", pe.StatusCode)
	case ErrTypeParse:
		return "Failed to parse portal response"
	case ErrTypeDiscovery:
		return fmt.Sprintf("No %s found on the setup page", pe.Level)
	default:
		return pe.Message
	}
}
