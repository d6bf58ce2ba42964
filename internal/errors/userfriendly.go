package errors

import (
	"fmt"
	"strings"
)

// UserFriendlyError provides user-friendly error messages with context and hints
type UserFriendlyError struct {
	Message string
	Reason  string
	Hint    string
	Try     string
	Err     error
}

func (e UserFriendlyError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Message)
	if e.Reason != "" {
		buf.WriteString("\n  Reason: " + e.Reason)
	}
	if e.Hint != "" {
		buf.WriteString("\n  Hint: " + e.Hint)
	}
	if e.Try != "" {
		buf.WriteString("\n  Try: " + e.Try)
	}
	if e.Err != nil {
		buf.WriteString("\n  Details: " + e.Err.Error())
	}
	return buf.String()
}

func (e UserFriendlyError) Unwrap() error {
	return e.Err
}

// WrapNetworkError wraps network errors with user-friendly context
func WrapNetworkError(err error, host string, port int) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Failed to communicate with server at %s:%d", host, port),
		Reason:  extractNetworkReason(err),
		Hint:    "The target may not be a game server, or there may be a network connectivity issue",
		Try:     fmt.Sprintf("hytale-lab timing --target %s --port %d --count 1", host, port),
		Err:     err,
	}
}

// WrapDecodeError wraps packet decode errors with user-friendly context
func WrapDecodeError(err error, packetHex string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: "Packet decode failed",
		Reason:  extractDecodeReason(err),
		Hint:    "The schema may not match the server build, or the capture may be truncated",
		Try:     fmt.Sprintf("hytale-lab decode --hex %s --schema schemas/hytale.yaml", packetHex),
		Err:     err,
	}
}

// WrapConfigError wraps configuration errors with user-friendly context
func WrapConfigError(err error, configPath string) error {
	if err == nil {
		return nil
	}

	return UserFriendlyError{
		Message: fmt.Sprintf("Configuration error in %s", configPath),
		Reason:  err.Error(),
		Hint:    "See configs/hytale_lab.yaml.example for a working configuration",
		Try:     fmt.Sprintf("hytale-lab schema validate --config %s", configPath),
		Err:     err,
	}
}

func extractNetworkReason(err error) string {
	errStr := err.Error()

	// Common network error patterns
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return "Connection timeout - server may be offline or dropping unsolicited UDP"
	}
	if strings.Contains(errStr, "connection refused") {
		return "Connection refused - server may not be listening on this port"
	}
	if strings.Contains(errStr, "no route to host") {
		return "No route to host - network routing issue or server unreachable"
	}
	if strings.Contains(errStr, "connection reset") {
		return "Connection reset - server closed the connection unexpectedly"
	}

	return "Network communication failed"
}

func extractDecodeReason(err error) string {
	errStr := err.Error()

	if strings.Contains(errStr, "truncated") {
		return "Packet ended before the schema was satisfied"
	}
	if strings.Contains(errStr, "unknown packet") {
		return "Packet ID is not present in the loaded schema"
	}

	return "Packet does not match the schema"
}
