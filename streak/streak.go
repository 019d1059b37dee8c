// Package streak keeps the count of consecutive days with recorded activity.
package streak

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hpmalinova/monifly/contract"
	"github.com/hpmalinova/monifly/events"
	"github.com/hpmalinova/monifly/model"
)

const (
	LevelBasic     = "basic"
	LevelSolid     = "solid"
	LevelGolden    = "golden"
	LevelLegendary = "legendary"
)

func day(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Effective is the streak as of now: kept when the last activity was today
// or yesterday, otherwise broken.
func Effective(current int, last *time.Time, now time.Time, loc *time.Location) int {
	if last == nil {
		return 0
	}
	today := day(now, loc)
	lastDay := day(*last, loc)
	if lastDay.Equal(today) || lastDay.Equal(today.AddDate(0, 0, -1)) {
		return current
	}
	return 0
}

// Next applies one activity at now. It reports false when activity was
// already counted today.
func Next(p model.Profile, now time.Time, loc *time.Location) (model.Profile, bool) {
	if p.LastActivityDate != nil && day(*p.LastActivityDate, loc).Equal(day(now, loc)) {
		return p, false
	}
	p.CurrentStreak = Effective(p.CurrentStreak, p.LastActivityDate, now, loc) + 1
	if p.CurrentStreak > p.MaxStreak {
		p.MaxStreak = p.CurrentStreak
	}
	at := now
	p.LastActivityDate = &at
	return p, true
}

func Level(days int) string {
	switch {
	case days >= 100:
		return LevelLegendary
	case days >= 30:
		return LevelGolden
	case days >= 7:
		return LevelSolid
	default:
		return LevelBasic
	}
}

// View is what the streak badge shows for a profile.
func View(p model.Profile, now time.Time, loc *time.Location) model.StreakTemplate {
	current := Effective(p.CurrentStreak, p.LastActivityDate, now, loc)
	today := p.LastActivityDate != nil && day(*p.LastActivityDate, loc).Equal(day(now, loc))
	return model.StreakTemplate{Current: current, Max: p.MaxStreak, Level: Level(current), Today: today}
}

// Tracker advances streaks when activity is recorded.
type Tracker struct {
	profiles contract.ProfileRepo
	bus      *events.Bus
	loc      *time.Location
	log      *zap.Logger
}

func NewTracker(profiles contract.ProfileRepo, bus *events.Bus, loc *time.Location, log *zap.Logger) *Tracker {
	if loc == nil {
		loc = time.UTC
	}
	return &Tracker{profiles: profiles, bus: bus, loc: loc, log: log}
}

// Attach subscribes the tracker to the bus.
func (t *Tracker) Attach() func() {
	return t.bus.Subscribe(func(ctx context.Context, e events.Event) {
		if a, ok := e.(events.ActivityRecorded); ok {
			if _, err := t.Record(ctx, a.UserID, a.At); err != nil {
				t.log.Warn("streak update failed", zap.String("user", a.UserID), zap.Error(err))
			}
		}
	})
}

// Record applies one activity and persists the result.
func (t *Tracker) Record(ctx context.Context, userID string, at time.Time) (*model.Profile, error) {
	profile, err := t.profiles.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	next, changed := Next(*profile, at, t.loc)
	if !changed {
		return profile, nil
	}
	if err := t.profiles.UpdateStreak(ctx, userID, next.CurrentStreak, next.MaxStreak, *next.LastActivityDate); err != nil {
		return nil, err
	}
	t.bus.Publish(ctx, events.StreakUpdated{
		UserID: userID,
		Streak: next.CurrentStreak,
		Max:    next.MaxStreak,
		Level:  Level(next.CurrentStreak),
	})
	return &next, nil
}
