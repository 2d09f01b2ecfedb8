package domain

import "strings"

// ErrorHint translates common provider failures into a friendlier hint.
// Returns "" when no translation applies; the verbatim provider text is
// always kept on the ledger row regardless.
func ErrorHint(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "i/o timeout") || strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return "connection timed out: check the SMTP host, port and network"
	case strings.Contains(msg, "535") || strings.Contains(msg, "username and password not accepted") || strings.Contains(msg, "authentication failed"):
		return "authentication failed: check the sender email and app password"
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host"):
		return "could not reach the SMTP server: check the host and port"
	}
	return ""
}
