package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hpmalinova/monifly/model"
)

type UserRepoSQL struct {
	store *Store
	now   func() time.Time
}

func NewUserRepo(store *Store) *UserRepoSQL {
	return &UserRepoSQL{store: store, now: time.Now}
}

const userColumns = "id, email, password, full_name, country_code, created_at"

// Create stores the user with a lower-cased email. A taken email is a conflict.
func (u *UserRepoSQL) Create(ctx context.Context, user *model.User) (*model.User, error) {
	created := *user
	created.ID = uuid.NewString()
	created.Email = strings.ToLower(strings.TrimSpace(created.Email))
	created.CreatedAt = u.now().UTC()

	statement := "INSERT INTO users(" + userColumns + ") VALUES(?, ?, ?, ?, ?, ?)"
	_, err := u.store.exec(ctx, statement, created.ID, created.Email, created.Password, created.FullName,
		created.CountryCode, created.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &created, nil
}

func (u *UserRepoSQL) FindByID(ctx context.Context, id string) (*model.User, error) {
	return u.findOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

func (u *UserRepoSQL) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return u.findOne(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (u *UserRepoSQL) findOne(ctx context.Context, statement string, arg interface{}) (*model.User, error) {
	var user model.User
	err := u.store.queryRow(ctx, statement, arg).
		Scan(&user.ID, &user.Email, &user.Password, &user.FullName, &user.CountryCode, &user.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &user, nil
}

func (u *UserRepoSQL) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return expectOne(u.store.exec(ctx, "UPDATE users SET password = ? WHERE id = ?", passwordHash, id))
}

// Delete removes an account that owns nothing yet.
func (u *UserRepoSQL) Delete(ctx context.Context, id string) error {
	return expectOne(u.store.exec(ctx, "DELETE FROM users WHERE id = ?", id))
}
