package limiter

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MinFormFillTime = 2 * time.Second
	FormTokenTTL    = time.Hour
)

// MinFillTime reports whether a form was filled faster than min. A form
// without a start time counts as filled instantly.
func MinFillTime(startedAt, now time.Time, min time.Duration) bool {
	if startedAt.IsZero() {
		return true
	}
	return now.Sub(startedAt) < min
}

// HoneypotFilled reports whether the hidden "website" field carries a value.
func HoneypotFilled(value string) bool {
	return value != ""
}

// IssueFormToken returns a random token that embeds its issue time.
func IssueFormToken(now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return random + "." + strconv.FormatInt(now.UnixMilli(), 36)
}

// ValidFormToken accepts tokens issued less than an hour before now.
func ValidFormToken(token string, now time.Time) bool {
	i := strings.LastIndexByte(token, '.')
	if i <= 0 || i == len(token)-1 {
		return false
	}
	ms, err := strconv.ParseInt(token[i+1:], 36, 64)
	if err != nil {
		return false
	}
	age := now.Sub(time.UnixMilli(ms))
	return age >= 0 && age < FormTokenTTL
}

var sensitiveWords = func() []*regexp.Regexp {
	words := []string{"database", "sql", "connection", "server", "internal",
		"stack", "trace", "debug", "dev", "localhost"}
	patterns := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		patterns[i] = regexp.MustCompile(`(?i)` + w)
	}
	return patterns
}()

// SanitizeError masks words that describe backend internals.
func SanitizeError(msg string) string {
	for _, p := range sensitiveWords {
		msg = p.ReplaceAllString(msg, "[FILTERED]")
	}
	return msg
}
