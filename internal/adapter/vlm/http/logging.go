package http

import (
	"regexp"
)

// MaxLoggedResponseLength limits how much of a model response lands in logs.
const MaxLoggedResponseLength = 200

// TruncateForLogging shortens a response body for log output.
func TruncateForLogging(text string) string {
	if len(text) <= MaxLoggedResponseLength {
		return text
	}
	return text[:MaxLoggedResponseLength] + "... (truncated)"
}

var urlSecretRegex = regexp.MustCompile(`(key|api_key|apikey|token|secret)=[^&\s]+`)

// RedactURLSecrets removes API keys and tokens from URLs embedded in
// error messages before they are logged.
func RedactURLSecrets(s string) string {
	return urlSecretRegex.ReplaceAllString(s, "$1=REDACTED")
}
