// Package limiter throttles repeated form failures on the client side. It is
// a usability aid; the store enforces its own limits.
package limiter

import (
	"encoding/json"
	"math"
	"strconv"
	"sync"
	"time"
)

type Policy struct {
	Threshold int
	Window    time.Duration
	// Backoff receives how many failures are past the threshold, 0 for the
	// failure that reaches it.
	Backoff func(over int) time.Duration
}

// Exponential doubles base for every failure past the threshold.
func Exponential(base time.Duration) func(int) time.Duration {
	return func(over int) time.Duration {
		if over < 0 {
			over = 0
		}
		if over > 30 {
			over = 30
		}
		return base * time.Duration(1<<uint(over))
	}
}

func Flat(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

var (
	LoginPolicy    = Policy{Threshold: 3, Window: 15 * time.Minute, Backoff: Exponential(time.Minute)}
	RegisterPolicy = Policy{Threshold: 3, Window: 15 * time.Minute, Backoff: Flat(10 * time.Minute)}
	ResetPolicy    = Policy{Threshold: 3, Window: 15 * time.Minute, Backoff: Flat(15 * time.Minute)}
)

type Status struct {
	Blocked      bool          `json:"blocked"`
	Remaining    time.Duration `json:"-"`
	RetryAfter   int           `json:"retry_after"`
	Failures     int           `json:"failures"`
	AttemptsLeft int           `json:"attempts_left"`
}

type Limiter struct {
	mu     sync.Mutex
	store  Storage
	policy Policy
	now    func() time.Time
}

type Option func(*Limiter)

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

func New(store Storage, policy Policy, opts ...Option) *Limiter {
	l := &Limiter{store: store, policy: policy, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func rateKey(key string) string  { return "rate_" + key }
func failKey(key string) string  { return "fail_" + key }
func blockKey(key string) string { return "blockUntil_" + key }
func sinceKey(key string) string { return "failSince_" + key }

func (l *Limiter) attempts(key string) []int64 {
	raw, ok := l.store.Get(rateKey(key))
	if !ok {
		return nil
	}
	var attempts []int64
	if err := json.Unmarshal([]byte(raw), &attempts); err != nil {
		return nil
	}
	return attempts
}

func (l *Limiter) saveAttempts(key string, attempts []int64) {
	if attempts == nil {
		attempts = []int64{}
	}
	raw, _ := json.Marshal(attempts)
	l.store.Set(rateKey(key), string(raw))
}

// failures counts the failures of the current window. An expired window is
// dropped while reading it.
func (l *Limiter) failures(key string, now time.Time) int {
	raw, ok := l.store.Get(sinceKey(key))
	if !ok {
		return 0
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || now.Sub(time.UnixMilli(ms)) >= l.policy.Window {
		l.store.Remove(sinceKey(key))
		l.store.Remove(failKey(key))
		return 0
	}
	raw, ok = l.store.Get(failKey(key))
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

// blockedUntil drops an expired block while reading it.
func (l *Limiter) blockedUntil(key string, now time.Time) (time.Time, bool) {
	raw, ok := l.store.Get(blockKey(key))
	if !ok {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		l.store.Remove(blockKey(key))
		return time.Time{}, false
	}
	until := time.UnixMilli(ms)
	if !now.Before(until) {
		l.store.Remove(blockKey(key))
		return time.Time{}, false
	}
	return until, true
}

func (l *Limiter) RecordAttempt(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recordAttempt(key, l.now())
}

func (l *Limiter) recordAttempt(key string, now time.Time) {
	l.saveAttempts(key, append(l.attempts(key), now.UnixMilli()))
}

// RecordFailure counts a failed submission and blocks the key once the
// threshold is reached inside one window. The window opens with the first
// failure.
func (l *Limiter) RecordFailure(key string) Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()

	failures := l.failures(key, now) + 1
	if failures == 1 {
		l.store.Set(sinceKey(key), strconv.FormatInt(now.UnixMilli(), 10))
	}
	l.store.Set(failKey(key), strconv.Itoa(failures))
	if failures >= l.policy.Threshold {
		until := now.Add(l.policy.Backoff(failures - l.policy.Threshold))
		l.store.Set(blockKey(key), strconv.FormatInt(until.UnixMilli(), 10))
	}
	return l.status(key, now)
}

func (l *Limiter) RecordSuccess(key string) {
	l.Reset(key)
}

func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.store.Remove(rateKey(key))
	l.store.Remove(failKey(key))
	l.store.Remove(blockKey(key))
	l.store.Remove(sinceKey(key))
}

func (l *Limiter) IsBlocked(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, blocked := l.blockedUntil(key, l.now())
	return blocked
}

// Remaining is how long the key stays blocked, 0 when it is not.
func (l *Limiter) Remaining(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	until, blocked := l.blockedUntil(key, now)
	if !blocked {
		return 0
	}
	return until.Sub(now)
}

// RateStatus prunes attempts older than the window and reports the rest.
// A limited key frees up when its oldest attempt leaves the window.
func (l *Limiter) RateStatus(key string) Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	recent := []int64{}
	for _, ms := range l.attempts(key) {
		if now.Sub(time.UnixMilli(ms)) < l.policy.Window {
			recent = append(recent, ms)
		}
	}
	l.saveAttempts(key, recent)

	s := Status{Failures: len(recent)}
	if len(recent) == 0 || len(recent) < l.policy.Threshold {
		s.AttemptsLeft = l.policy.Threshold - len(recent)
		return s
	}
	s.Blocked = true
	s.Remaining = time.UnixMilli(recent[0]).Add(l.policy.Window).Sub(now)
	s.RetryAfter = CeilSeconds(s.Remaining)
	return s
}

func (l *Limiter) Status(key string) Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status(key, l.now())
}

func (l *Limiter) status(key string, now time.Time) Status {
	s := Status{Failures: l.failures(key, now)}
	if until, blocked := l.blockedUntil(key, now); blocked {
		s.Blocked = true
		s.Remaining = until.Sub(now)
		s.RetryAfter = CeilSeconds(s.Remaining)
	}
	if left := l.policy.Threshold - s.Failures; left > 0 {
		s.AttemptsLeft = left
	}
	return s
}

func CeilSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

func CeilMinutes(d time.Duration) int {
	return int(math.Ceil(d.Minutes()))
}
