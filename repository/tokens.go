package repository

import (
	"context"
	"time"

	"github.com/hpmalinova/monifly/model"
)

// TokenRepoSQL stores refresh tokens and recovery codes.
type TokenRepoSQL struct {
	store *Store
}

func NewTokenRepo(store *Store) *TokenRepoSQL {
	return &TokenRepoSQL{store: store}
}

func (t *TokenRepoSQL) Save(ctx context.Context, token *model.Token) error {
	statement := "INSERT INTO auth_tokens(token, user_id, purpose, expires_at, used) VALUES(?, ?, ?, ?, ?)"
	_, err := t.store.exec(ctx, statement, token.Value, token.UserID, token.Purpose, token.ExpiresAt, false)
	return classify(err)
}

// Consume marks the token used. Tokens that are unknown, used or expired
// are reported as not found.
func (t *TokenRepoSQL) Consume(ctx context.Context, value, purpose string, now time.Time) (*model.Token, error) {
	var token model.Token
	err := t.store.inTx(ctx, func(tx *sqlTx) error {
		statement := `SELECT token, user_id, purpose, expires_at, used FROM auth_tokens
						WHERE token = ? AND purpose = ? FOR UPDATE`
		err := tx.queryRow(statement, value, purpose).
			Scan(&token.Value, &token.UserID, &token.Purpose, &token.ExpiresAt, &token.Used)
		if err != nil {
			return classify(err)
		}
		if token.Used || !now.Before(token.ExpiresAt) {
			return notFound
		}
		token.Used = true
		return expectOne(tx.exec("UPDATE auth_tokens SET used = ? WHERE token = ?", true, value))
	})
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (t *TokenRepoSQL) RevokeAll(ctx context.Context, userID, purpose string) error {
	statement := "UPDATE auth_tokens SET used = ? WHERE user_id = ? AND purpose = ? AND used = ?"
	_, err := t.store.exec(ctx, statement, true, userID, purpose, false)
	return classify(err)
}
