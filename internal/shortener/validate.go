package shortener

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	defaultProtocol = "https"
	maxURLLength    = 2048
)

// explicitScheme matches any scheme followed by "//", recognized or not.
var explicitScheme = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)

// hasProtocol reports whether raw starts with http:// or https://, ignoring case.
func hasProtocol(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// ValidateURL checks that raw is a well-formed absolute URL and returns the
// value to store. A missing protocol is assumed to be https for the check
// only; the returned value is the caller's input with surrounding
// whitespace removed.
func ValidateURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: url must not be empty", ErrInvalidURL)
	}
	if len(trimmed) > maxURLLength {
		return "", fmt.Errorf("%w: url exceeds %d characters", ErrInvalidURL, maxURLLength)
	}

	candidate := trimmed
	if !hasProtocol(candidate) {
		if explicitScheme.MatchString(candidate) {
			return "", fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
		}
		candidate = defaultProtocol + "://" + candidate
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, parseReason(err))
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if parsed.User != nil {
		return "", fmt.Errorf("%w: url must not carry credentials", ErrInvalidURL)
	}
	if parsed.Hostname() == "" {
		return "", fmt.Errorf("%w: url must have a host", ErrInvalidURL)
	}
	if strings.ContainsAny(parsed.Hostname(), " \t") {
		return "", fmt.Errorf("%w: host contains whitespace", ErrInvalidURL)
	}

	return trimmed, nil
}

// NormalizeProtocol prefixes the default protocol onto stored URLs that
// lack one. Values that already carry http:// or https:// are unchanged.
func NormalizeProtocol(stored string) string {
	if hasProtocol(stored) {
		return stored
	}
	return defaultProtocol + "://" + stored
}

func parseReason(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err.Error()
	}
	return err.Error()
}
