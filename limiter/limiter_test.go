package limiter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type clock struct{ t time.Time }

func newClock() *clock {
	return &clock{t: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newLimiter(c *clock, p Policy) *Limiter {
	return New(NewMemoryStorage(), p, WithClock(c.now))
}

func TestLimiter_LoginBackoff(t *testing.T) {
	c := newClock()
	l := newLimiter(c, LoginPolicy)

	s := l.RecordFailure("login")
	assert.False(t, s.Blocked)
	assert.Equal(t, 2, s.AttemptsLeft)
	c.advance(time.Second)
	l.RecordFailure("login")
	c.advance(time.Second)
	s = l.RecordFailure("login")
	assert.True(t, s.Blocked)
	assert.Equal(t, 60, s.RetryAfter)

	c.advance(time.Second)
	assert.True(t, l.IsBlocked("login"))
	assert.GreaterOrEqual(t, l.Remaining("login"), 59*time.Second)

	c.advance(time.Minute)
	assert.False(t, l.IsBlocked("login"))
	assert.Zero(t, l.Remaining("login"))
}

func TestLimiter_BackoffDoubles(t *testing.T) {
	c := newClock()
	l := newLimiter(c, LoginPolicy)
	for i := 0; i < 3; i++ {
		l.RecordFailure("login")
	}
	s := l.RecordFailure("login")
	assert.Equal(t, 120, s.RetryAfter)
	s = l.RecordFailure("login")
	assert.Equal(t, 240, s.RetryAfter)
}

func TestLimiter_SuccessResets(t *testing.T) {
	c := newClock()
	l := newLimiter(c, LoginPolicy)
	for i := 0; i < 3; i++ {
		l.RecordFailure("login")
	}
	require.True(t, l.IsBlocked("login"))

	l.RecordSuccess("login")
	s := l.Status("login")
	assert.False(t, s.Blocked)
	assert.Zero(t, s.Failures)
	assert.Equal(t, 3, s.AttemptsLeft)
}

func TestLimiter_FlatPolicies(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		want   time.Duration
	}{
		{name: "register", policy: RegisterPolicy, want: 10 * time.Minute},
		{name: "reset", policy: ResetPolicy, want: 15 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClock()
			l := newLimiter(c, tt.policy)
			for i := 0; i < 4; i++ {
				l.RecordFailure(tt.name)
			}
			assert.Equal(t, tt.want, l.Remaining(tt.name))
		})
	}
}

func TestLimiter_RateWindow(t *testing.T) {
	c := newClock()
	l := newLimiter(c, Policy{Threshold: 2, Window: time.Minute, Backoff: Flat(time.Minute)})

	l.RecordAttempt("reset")
	assert.False(t, l.RateStatus("reset").Blocked)
	c.advance(10 * time.Second)
	l.RecordAttempt("reset")
	assert.True(t, l.RateStatus("reset").Blocked)

	c.advance(55 * time.Second)
	assert.False(t, l.RateStatus("reset").Blocked)
}

func TestLimiter_FailuresExpireWithWindow(t *testing.T) {
	tests := []struct {
		name    string
		gap     time.Duration
		blocked bool
	}{
		{name: "inside window", gap: 5 * time.Minute, blocked: true},
		{name: "a day apart", gap: 24 * time.Hour, blocked: false},
		{name: "window edge", gap: 8 * time.Minute, blocked: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClock()
			l := newLimiter(c, LoginPolicy)
			var s Status
			for i := 0; i < 3; i++ {
				s = l.RecordFailure("login")
				c.advance(tt.gap)
			}
			assert.Equal(t, tt.blocked, s.Blocked)
		})
	}

	c := newClock()
	l := newLimiter(c, LoginPolicy)
	l.RecordFailure("login")
	l.RecordFailure("login")
	c.advance(LoginPolicy.Window)
	s := l.Status("login")
	assert.Zero(t, s.Failures)
	assert.Equal(t, 3, s.AttemptsLeft)
	s = l.RecordFailure("login")
	assert.Equal(t, 1, s.Failures)
}

func TestLimiter_RateStatus(t *testing.T) {
	c := newClock()
	l := newLimiter(c, ResetPolicy)

	for i := 0; i < 3; i++ {
		s := l.RateStatus("reset")
		require.False(t, s.Blocked)
		assert.Equal(t, 3-i, s.AttemptsLeft)
		l.RecordAttempt("reset")
		c.advance(time.Minute)
	}
	s := l.RateStatus("reset")
	assert.True(t, s.Blocked)
	assert.Equal(t, 12*60, s.RetryAfter)
	// attempts never turn into a failure block
	assert.False(t, l.IsBlocked("reset"))

	c.advance(12 * time.Minute)
	assert.False(t, l.RateStatus("reset").Blocked)
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	c := newClock()
	l := newLimiter(c, LoginPolicy)
	for i := 0; i < 3; i++ {
		l.RecordFailure("login:a@b.co")
	}
	assert.True(t, l.IsBlocked("login:a@b.co"))
	assert.False(t, l.IsBlocked("login:c@d.co"))
}

func TestFileStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	fs, err := OpenFileStorage(path, zap.NewNop())
	require.NoError(t, err)
	c := newClock()
	l := New(fs, LoginPolicy, WithClock(c.now))
	for i := 0; i < 3; i++ {
		l.RecordFailure("login")
	}

	reopened, err := OpenFileStorage(path, zap.NewNop())
	require.NoError(t, err)
	again := New(reopened, LoginPolicy, WithClock(c.now))
	assert.True(t, again.IsBlocked("login"))

	again.Reset("login")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "blockUntil_login")
}

func TestOpenFileStorage_Null(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("null"), 0o600))
	fs, err := OpenFileStorage(path, zap.NewNop())
	require.NoError(t, err)

	fs.Set("darkMode_u1", "true")
	v, ok := fs.Get("darkMode_u1")
	assert.True(t, ok)
	assert.Equal(t, "true", v)
}

func TestOpenFileStorage_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := OpenFileStorage(path, zap.NewNop())
	assert.Error(t, err)
}
