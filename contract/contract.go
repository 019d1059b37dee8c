package contract

import (
	"context"
	"time"

	"github.com/hpmalinova/monifly/model"
)

// Every repository call is scoped to the owning user; rows of other owners
// behave as if they did not exist.

type UserRepo interface {
	Create(ctx context.Context, user *model.User) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

type ProfileRepo interface {
	Find(ctx context.Context, userID string) (*model.Profile, error)
	Create(ctx context.Context, profile *model.Profile) error
	Update(ctx context.Context, userID string, update model.ProfileUpdate) error
	UpdateStreak(ctx context.Context, userID string, current, max int, lastActivity time.Time) error
	MarkWelcomeSeen(ctx context.Context, userID string, at time.Time) error
}

type CategoryRepo interface {
	FindAll(ctx context.Context) ([]model.Category, error)
	FindByType(ctx context.Context, cType string) ([]model.Category, error)
	FindByName(ctx context.Context, cType, name string) (*model.Category, error)
}

type TransactionRepo interface {
	Find(ctx context.Context, userID string, start, count int) ([]model.Transaction, error)
	FindAll(ctx context.Context, userID string) ([]model.Transaction, error)
	FindByID(ctx context.Context, userID, id string) (*model.Transaction, error)
	Create(ctx context.Context, t *model.Transaction) (*model.Transaction, error)
	Update(ctx context.Context, t *model.Transaction) (*model.Transaction, error)
	Delete(ctx context.Context, userID, id string) error
}

type DebtRepo interface {
	Find(ctx context.Context, userID string) ([]model.Debt, error)
	FindByID(ctx context.Context, userID, id string) (*model.Debt, error)
	Create(ctx context.Context, d *model.Debt) (*model.Debt, error)
	Update(ctx context.Context, d *model.Debt) (*model.Debt, error)
	Delete(ctx context.Context, userID, id string) error
	AddPayment(ctx context.Context, p *model.DebtPayment) (*model.DebtPayment, error)
	DeletePayment(ctx context.Context, userID, debtID, paymentID string) error
}

type GoalRepo interface {
	Find(ctx context.Context, userID string) ([]model.Goal, error)
	FindByID(ctx context.Context, userID, id string) (*model.Goal, error)
	Create(ctx context.Context, g *model.Goal) (*model.Goal, error)
	Update(ctx context.Context, g *model.Goal) (*model.Goal, error)
	Delete(ctx context.Context, userID, id string) error
}

type TokenRepo interface {
	Save(ctx context.Context, token *model.Token) error
	// Consume marks an unused, unexpired token as used and returns it.
	Consume(ctx context.Context, value, purpose string, now time.Time) (*model.Token, error)
	RevokeAll(ctx context.Context, userID, purpose string) error
}
