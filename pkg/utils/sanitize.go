// Package utils provides small helpers shared by the suite packages.
package utils

import (
	"net/url"
	"regexp"
	"strings"
)

// SensitivePatterns matches credentials that can leak into log lines through
// URLs, headers or error messages returned by the browser engine.
var SensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(api[_-]?key|secret|token|password|auth)\s*[:=]\s*['"]?([a-zA-Z0-9_\-+/=]{8,})['"]?`),
	regexp.MustCompile(`(?i)(bearer\s+)([a-zA-Z0-9_\-+/=]{20,})`),
	regexp.MustCompile(`(?i)(authorization:\s*bearer\s+)([a-zA-Z0-9_\-+/=]{20,})`),
}

var (
	urlPattern      = regexp.MustCompile(`https?://[^\s"'<>]+`)
	// userinfoPattern catches credentials in URLs that net/url rejects.
	userinfoPattern = regexp.MustCompile(`(//[^/\s:@]+):[^/\s@]+@`)
)

// trailingPunct is sentence punctuation that urlPattern swallows after a URL.
const trailingPunct = ".,;:!?)]"

// SanitizeLog removes sensitive information from log messages.
func SanitizeLog(message string) string {
	result := urlPattern.ReplaceAllStringFunc(message, func(match string) string {
		trimmed := strings.TrimRight(match, trailingPunct)
		return RedactURL(trimmed) + match[len(trimmed):]
	})

	for _, pattern := range SensitivePatterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			// keep the key name so the line stays readable
			if i := strings.IndexAny(match, ":="); i > 0 {
				return match[:i+1] + " ***REDACTED***"
			}
			return "***REDACTED***"
		})
	}

	return result
}

// RedactURL hides userinfo passwords in a URL. When the URL does not parse,
// a user:password@ prefix is still masked.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return userinfoPattern.ReplaceAllString(raw, "${1}:xxxxx@")
	}
	if u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); !ok {
		return raw
	}
	return u.Redacted()
}
