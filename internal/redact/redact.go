// Package redact scrubs sensitive information from strings before they are
// logged or returned in error responses. Error messages in this service can
// carry candidate PII (email addresses, phone numbers), consent tokens,
// entity identifiers, and provider credentials, none of which may leak into
// logs or API payloads.
package redact

import (
	"regexp"
	"sync"
)

// Constants for redaction placeholders
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
)

// Precompiled regex patterns
var (
	// Database connection strings
	dbConnRegex = regexp.MustCompile(`(?i)(postgres|mysql|mongodb|db|database|connection)://[^@]+@`)

	// Credentials and provider secrets
	passwordRegex = regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`)
	apiKeyRegex   = regexp.MustCompile(
		`(?i)(api[_-]?key|token|secret|key|access|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)
	awsKeyRegex = regexp.MustCompile(`(AKIA|AccessKey(Id)?)([^a-zA-Z0-9])?[A-Z0-9]{8,}`)
	// Standard three-part base64url JWT, as issued by the auth layer
	jwtTokenRegex = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`)

	// Candidate, interview and import identifiers. Must run before the
	// phone pattern so the digit runs inside a UUID are not mistaken for
	// a phone number.
	uuidRegex = regexp.MustCompile(
		`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`,
	)

	// Opaque consent tokens are long lowercase hex strings. Must run
	// before the path pattern so a token embedded in a consent URL is
	// scrubbed on its own rather than swallowed into a path match.
	consentTokenRegex = regexp.MustCompile(`\b[0-9a-f]{32,}\b`)

	// Candidate phone numbers, E.164 or national format with common
	// separators
	phoneRegex = regexp.MustCompile(
		`\+\d{1,3}(?:[\s.-]?\d{1,4}){2,6}|\b0[1-9](?:[\s.-]?\d{2}){4}\b`,
	)

	// File and object-storage paths
	unixPathRegex = regexp.MustCompile(`(/[\w.-]+){2,}`)
	winPathRegex  = regexp.MustCompile(`[A-Za-z]:\\[^\\]+(\\[^\\]+)+`)

	// Stack trace fragments
	stackTraceRegex = regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`)

	// Candidate and recruiter email addresses
	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)

	// SQL fragments surfaced by driver errors
	sqlRegex = regexp.MustCompile(
		`(?i)(SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP|GRANT)[\s\w,*()]+(?:FROM|INTO|SET|TABLE|DATABASE|SCHEMA|VIEW)(?:[\s\w,*()='"]+)?`,
	)

	// Internal host names
	hostPortRegex = regexp.MustCompile(
		`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}(?::\d{1,5})?\b`,
	)

	// Patterns are applied in order; earlier matches shield their text
	// from later patterns.
	patterns = []*regexp.Regexp{
		dbConnRegex, passwordRegex, apiKeyRegex, awsKeyRegex, jwtTokenRegex,
		uuidRegex, consentTokenRegex, phoneRegex,
		unixPathRegex, winPathRegex, stackTraceRegex, emailRegex, sqlRegex,
		hostPortRegex,
	}

	patternPlaceholders = map[*regexp.Regexp]string{
		dbConnRegex:       RedactedCredentialPlaceholder,
		passwordRegex:     RedactedCredentialPlaceholder,
		apiKeyRegex:       RedactedKeyPlaceholder,
		awsKeyRegex:       RedactedKeyPlaceholder,
		jwtTokenRegex:     "[REDACTED_JWT]",
		uuidRegex:         "[REDACTED_UUID]",
		consentTokenRegex: "[REDACTED_TOKEN]",
		phoneRegex:        "[REDACTED_PHONE]",
		unixPathRegex:     RedactedPathPlaceholder,
		winPathRegex:      RedactedPathPlaceholder,
		stackTraceRegex:   "[STACK_TRACE_REDACTED]",
		emailRegex:        "[REDACTED_EMAIL]",
		sqlRegex:          "[REDACTED_SQL]",
		hostPortRegex:     "[REDACTED_HOST]",
	}

	mu sync.RWMutex
)

// String redacts sensitive information from the input string
func String(input string) string {
	if input == "" {
		return input
	}

	mu.RLock()
	defer mu.RUnlock()

	result := input
	for _, pattern := range patterns {
		placeholder := RedactionPlaceholder
		if ph, ok := patternPlaceholders[pattern]; ok {
			placeholder = ph
		}
		result = pattern.ReplaceAllString(result, placeholder)
	}

	return result
}

// Error redacts sensitive information from an error's Error() output
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}
