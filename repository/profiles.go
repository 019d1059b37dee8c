package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpmalinova/monifly/model"
)

type ProfileRepoSQL struct {
	store *Store
}

func NewProfileRepo(store *Store) *ProfileRepoSQL {
	return &ProfileRepoSQL{store: store}
}

const profileColumns = `id, full_name, country_code, current_streak, max_streak, last_activity_date,
	has_seen_welcome, welcome_seen_at`

func (p *ProfileRepoSQL) Find(ctx context.Context, userID string) (*model.Profile, error) {
	var (
		profile      model.Profile
		lastActivity sql.NullTime
		welcomeSeen  sql.NullTime
	)
	statement := "SELECT " + profileColumns + " FROM profiles WHERE id = ?"
	err := p.store.queryRow(ctx, statement, userID).Scan(&profile.ID, &profile.FullName, &profile.CountryCode,
		&profile.CurrentStreak, &profile.MaxStreak, &lastActivity, &profile.HasSeenWelcome, &welcomeSeen)
	if err != nil {
		return nil, classify(err)
	}
	if lastActivity.Valid {
		at := lastActivity.Time
		profile.LastActivityDate = &at
	}
	if welcomeSeen.Valid {
		at := welcomeSeen.Time
		profile.WelcomeSeenAt = &at
	}
	return &profile, nil
}

func (p *ProfileRepoSQL) Create(ctx context.Context, profile *model.Profile) error {
	statement := "INSERT INTO profiles(" + profileColumns + ") VALUES(?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := p.store.exec(ctx, statement, profile.ID, profile.FullName, profile.CountryCode, profile.CurrentStreak,
		profile.MaxStreak, nullTime(profile.LastActivityDate), profile.HasSeenWelcome, nullTime(profile.WelcomeSeenAt))
	return classify(err)
}

func (p *ProfileRepoSQL) Update(ctx context.Context, userID string, update model.ProfileUpdate) error {
	statement := "UPDATE profiles SET full_name = ?, country_code = ? WHERE id = ?"
	return expectOne(p.store.exec(ctx, statement, update.FullName, update.CountryCode, userID))
}

func (p *ProfileRepoSQL) UpdateStreak(ctx context.Context, userID string, current, max int, lastActivity time.Time) error {
	statement := "UPDATE profiles SET current_streak = ?, max_streak = ?, last_activity_date = ? WHERE id = ?"
	return expectOne(p.store.exec(ctx, statement, current, max, lastActivity, userID))
}

func (p *ProfileRepoSQL) MarkWelcomeSeen(ctx context.Context, userID string, at time.Time) error {
	statement := "UPDATE profiles SET has_seen_welcome = ?, welcome_seen_at = ? WHERE id = ?"
	return expectOne(p.store.exec(ctx, statement, true, at, userID))
}
