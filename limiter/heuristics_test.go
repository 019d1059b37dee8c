package limiter

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMinFillTime(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	assert.True(t, MinFillTime(time.Time{}, now, MinFormFillTime))
	assert.True(t, MinFillTime(now.Add(-time.Second), now, MinFormFillTime))
	assert.False(t, MinFillTime(now.Add(-3*time.Second), now, MinFormFillTime))
}

func TestHoneypotFilled(t *testing.T) {
	assert.False(t, HoneypotFilled(""))
	assert.True(t, HoneypotFilled("http://spam.example"))
}

func TestFormToken(t *testing.T) {
	issued := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	token := IssueFormToken(issued)

	assert.True(t, ValidFormToken(token, issued.Add(59*time.Minute)))
	assert.False(t, ValidFormToken(token, issued.Add(time.Hour)))
	assert.False(t, ValidFormToken(token, issued.Add(-time.Minute)))
	assert.False(t, ValidFormToken("", issued))
	assert.False(t, ValidFormToken("abc.", issued))
	assert.False(t, ValidFormToken("abc.!!", issued))
	assert.NotEqual(t, token, IssueFormToken(issued))
}

func TestSanitizeError(t *testing.T) {
	got := SanitizeError("SQL connection to localhost refused by Database server")
	assert.Equal(t, "[FILTERED] [FILTERED] to [FILTERED] refused by [FILTERED] [FILTERED]", got)
	assert.Equal(t, "Invalid login credentials", SanitizeError("Invalid login credentials"))
	assert.False(t, strings.Contains(SanitizeError("stack trace"), "stack"))
}
