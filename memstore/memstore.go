// Package memstore keeps every repository in process memory. It backs the
// "memory" store driver and the handler tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hpmalinova/monifly/contract"
	"github.com/hpmalinova/monifly/model"
)

var notFound = contract.E(contract.NotFound, "record not found")

type Store struct {
	mu           sync.Mutex
	now          func() time.Time
	users        map[string]model.User
	profiles     map[string]model.Profile
	transactions map[string]model.Transaction
	debts        map[string]model.Debt
	goals        map[string]model.Goal
	tokens       map[string]model.Token
}

func New() *Store {
	return &Store{
		now:          time.Now,
		users:        map[string]model.User{},
		profiles:     map[string]model.Profile{},
		transactions: map[string]model.Transaction{},
		debts:        map[string]model.Debt{},
		goals:        map[string]model.Goal{},
		tokens:       map[string]model.Token{},
	}
}

// SetClock replaces the clock used for created_at stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Users() *Users               { return &Users{s} }
func (s *Store) Profiles() *Profiles         { return &Profiles{s} }
func (s *Store) Categories() *Categories     { return &Categories{} }
func (s *Store) Transactions() *Transactions { return &Transactions{s} }
func (s *Store) Debts() *Debts               { return &Debts{s} }
func (s *Store) Goals() *Goals               { return &Goals{s} }
func (s *Store) Tokens() *Tokens             { return &Tokens{s} }

type Users struct{ s *Store }

func (u *Users) Create(ctx context.Context, user *model.User) (*model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	created := *user
	created.Email = strings.ToLower(strings.TrimSpace(created.Email))
	for _, existing := range u.s.users {
		if existing.Email == created.Email {
			return nil, contract.FieldError(contract.Conflict, "email", "already exists")
		}
	}
	created.ID = uuid.NewString()
	created.CreatedAt = u.s.now().UTC()
	u.s.users[created.ID] = created
	return &created, nil
}

func (u *Users) FindByID(ctx context.Context, id string) (*model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil, notFound
	}
	return &user, nil
}

func (u *Users) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, user := range u.s.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, notFound
}

func (u *Users) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[id]
	if !ok {
		return notFound
	}
	user.Password = passwordHash
	u.s.users[id] = user
	return nil
}

func (u *Users) Delete(ctx context.Context, id string) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if _, ok := u.s.users[id]; !ok {
		return notFound
	}
	delete(u.s.users, id)
	return nil
}

type Profiles struct{ s *Store }

func (p *Profiles) Find(ctx context.Context, userID string) (*model.Profile, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	profile, ok := p.s.profiles[userID]
	if !ok {
		return nil, notFound
	}
	return &profile, nil
}

func (p *Profiles) Create(ctx context.Context, profile *model.Profile) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if _, ok := p.s.profiles[profile.ID]; ok {
		return contract.E(contract.Conflict, "already exists")
	}
	p.s.profiles[profile.ID] = *profile
	return nil
}

func (p *Profiles) update(userID string, fn func(*model.Profile)) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	profile, ok := p.s.profiles[userID]
	if !ok {
		return notFound
	}
	fn(&profile)
	p.s.profiles[userID] = profile
	return nil
}

func (p *Profiles) Update(ctx context.Context, userID string, update model.ProfileUpdate) error {
	return p.update(userID, func(profile *model.Profile) {
		profile.FullName = update.FullName
		profile.CountryCode = update.CountryCode
	})
}

func (p *Profiles) UpdateStreak(ctx context.Context, userID string, current, max int, lastActivity time.Time) error {
	return p.update(userID, func(profile *model.Profile) {
		profile.CurrentStreak = current
		profile.MaxStreak = max
		profile.LastActivityDate = &lastActivity
	})
}

func (p *Profiles) MarkWelcomeSeen(ctx context.Context, userID string, at time.Time) error {
	return p.update(userID, func(profile *model.Profile) {
		profile.HasSeenWelcome = true
		profile.WelcomeSeenAt = &at
	})
}

// Categories serves the default catalogue.
type Categories struct{}

func (c *Categories) FindAll(ctx context.Context) ([]model.Category, error) {
	return append([]model.Category{}, model.DefaultCategories...), nil
}

func (c *Categories) FindByType(ctx context.Context, cType string) ([]model.Category, error) {
	categories := []model.Category{}
	for _, category := range model.DefaultCategories {
		if category.Type == cType {
			categories = append(categories, category)
		}
	}
	return categories, nil
}

func (c *Categories) FindByName(ctx context.Context, cType, name string) (*model.Category, error) {
	for _, category := range model.DefaultCategories {
		if category.Type == cType && category.Name == name {
			found := category
			return &found, nil
		}
	}
	return nil, notFound
}

type Transactions struct{ s *Store }

func (t *Transactions) owned(userID string) []model.Transaction {
	out := []model.Transaction{}
	for _, tx := range t.s.transactions {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (t *Transactions) Find(ctx context.Context, userID string, start, count int) ([]model.Transaction, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	all := t.owned(userID)
	newest := make([]model.Transaction, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		newest = append(newest, all[i])
	}
	if start >= len(newest) {
		return []model.Transaction{}, nil
	}
	end := start + count
	if end > len(newest) {
		end = len(newest)
	}
	return newest[start:end], nil
}

func (t *Transactions) FindAll(ctx context.Context, userID string) ([]model.Transaction, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.owned(userID), nil
}

func (t *Transactions) FindByID(ctx context.Context, userID, id string) (*model.Transaction, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	tx, ok := t.s.transactions[id]
	if !ok || tx.UserID != userID {
		return nil, notFound
	}
	return &tx, nil
}

func (t *Transactions) Create(ctx context.Context, tx *model.Transaction) (*model.Transaction, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	created := *tx
	created.ID = uuid.NewString()
	created.CreatedAt = t.s.now().UTC()
	t.s.transactions[created.ID] = created
	return &created, nil
}

func (t *Transactions) Update(ctx context.Context, tx *model.Transaction) (*model.Transaction, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	existing, ok := t.s.transactions[tx.ID]
	if !ok || existing.UserID != tx.UserID {
		return nil, notFound
	}
	existing.Amount, existing.Type, existing.Description = tx.Amount, tx.Type, tx.Description
	existing.Category, existing.Account = tx.Category, tx.Account
	t.s.transactions[tx.ID] = existing
	return &existing, nil
}

func (t *Transactions) Delete(ctx context.Context, userID, id string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	tx, ok := t.s.transactions[id]
	if !ok || tx.UserID != userID {
		return notFound
	}
	delete(t.s.transactions, id)
	return nil
}

type Debts struct{ s *Store }

func (d *Debts) Find(ctx context.Context, userID string) ([]model.Debt, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	out := []model.Debt{}
	for _, debt := range d.s.debts {
		if debt.UserID == userID {
			out = append(out, copyDebt(debt))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func copyDebt(d model.Debt) model.Debt {
	d.Payments = append([]model.DebtPayment(nil), d.Payments...)
	return d
}

func (d *Debts) FindByID(ctx context.Context, userID, id string) (*model.Debt, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	debt, ok := d.s.debts[id]
	if !ok || debt.UserID != userID {
		return nil, notFound
	}
	found := copyDebt(debt)
	return &found, nil
}

func (d *Debts) Create(ctx context.Context, debt *model.Debt) (*model.Debt, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	created := *debt
	created.Normalize()
	created.ID = uuid.NewString()
	created.RemainingAmount = created.OriginalAmount
	created.PaidInstallments = 0
	created.Payments = nil
	created.CreatedAt = d.s.now().UTC()
	d.s.debts[created.ID] = created
	return &created, nil
}

func (d *Debts) Update(ctx context.Context, debt *model.Debt) (*model.Debt, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	existing, ok := d.s.debts[debt.ID]
	if !ok || existing.UserID != debt.UserID {
		return nil, notFound
	}
	updated := *debt
	updated.Normalize()
	updated.Payments = existing.Payments
	updated.PaidInstallments = existing.PaidInstallments
	updated.CreatedAt = existing.CreatedAt
	updated.RemainingAmount = updated.OriginalAmount.Sub(existing.TotalPaid())
	if updated.RemainingAmount.IsNegative() {
		return nil, contract.FieldError(contract.Validation, "original_amount", "is below the amount already paid")
	}
	if len(updated.Payments) > 0 {
		settle(&updated)
	}
	d.s.debts[debt.ID] = updated
	found := copyDebt(updated)
	return &found, nil
}

func (d *Debts) Delete(ctx context.Context, userID, id string) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	debt, ok := d.s.debts[id]
	if !ok || debt.UserID != userID {
		return notFound
	}
	delete(d.s.debts, id)
	return nil
}

func settle(debt *model.Debt) {
	debt.RemainingAmount = debt.Pending()
	switch {
	case !debt.RemainingAmount.IsPositive():
		debt.Status = model.DebtPaid
	case debt.Status == model.DebtPaid:
		debt.Status = model.DebtActive
	}
}

func (d *Debts) AddPayment(ctx context.Context, p *model.DebtPayment) (*model.DebtPayment, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	debt, ok := d.s.debts[p.DebtID]
	if !ok || debt.UserID != p.UserID {
		return nil, notFound
	}
	pending := debt.Pending()
	if p.Amount.GreaterThan(pending) {
		return nil, contract.FieldError(contract.Validation, "amount", "exceeds the pending amount "+pending.StringFixed(2))
	}
	created := *p
	created.ID = uuid.NewString()
	if created.PaymentDate.IsZero() {
		created.PaymentDate = d.s.now().UTC()
	}
	debt.Payments = append(debt.Payments, created)
	if debt.PaymentType == model.PaymentInstallments {
		debt.PaidInstallments++
	}
	settle(&debt)
	d.s.debts[debt.ID] = debt
	return &created, nil
}

func (d *Debts) DeletePayment(ctx context.Context, userID, debtID, paymentID string) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	debt, ok := d.s.debts[debtID]
	if !ok || debt.UserID != userID {
		return notFound
	}
	for i, p := range debt.Payments {
		if p.ID == paymentID {
			debt.Payments = append(debt.Payments[:i:i], debt.Payments[i+1:]...)
			if debt.PaymentType == model.PaymentInstallments && debt.PaidInstallments > 0 {
				debt.PaidInstallments--
			}
			settle(&debt)
			d.s.debts[debtID] = debt
			return nil
		}
	}
	return notFound
}

type Goals struct{ s *Store }

func (g *Goals) Find(ctx context.Context, userID string) ([]model.Goal, error) {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	out := []model.Goal{}
	for _, goal := range g.s.goals {
		if goal.UserID == userID {
			out = append(out, goal)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (g *Goals) FindByID(ctx context.Context, userID, id string) (*model.Goal, error) {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	goal, ok := g.s.goals[id]
	if !ok || goal.UserID != userID {
		return nil, notFound
	}
	return &goal, nil
}

func (g *Goals) Create(ctx context.Context, goal *model.Goal) (*model.Goal, error) {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	created := *goal
	created.ID = uuid.NewString()
	created.Status = model.GoalStatusFor(created.CurrentSaved, created.TargetAmount)
	created.CreatedAt = g.s.now().UTC()
	g.s.goals[created.ID] = created
	return &created, nil
}

func (g *Goals) Update(ctx context.Context, goal *model.Goal) (*model.Goal, error) {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	existing, ok := g.s.goals[goal.ID]
	if !ok || existing.UserID != goal.UserID {
		return nil, notFound
	}
	updated := *goal
	updated.CreatedAt = existing.CreatedAt
	updated.Status = model.GoalStatusFor(updated.CurrentSaved, updated.TargetAmount)
	g.s.goals[goal.ID] = updated
	return &updated, nil
}

func (g *Goals) Delete(ctx context.Context, userID, id string) error {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	goal, ok := g.s.goals[id]
	if !ok || goal.UserID != userID {
		return notFound
	}
	delete(g.s.goals, id)
	return nil
}

type Tokens struct{ s *Store }

func (t *Tokens) Save(ctx context.Context, token *model.Token) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.tokens[token.Value]; ok {
		return contract.E(contract.Conflict, "already exists")
	}
	saved := *token
	saved.Used = false
	t.s.tokens[token.Value] = saved
	return nil
}

func (t *Tokens) Consume(ctx context.Context, value, purpose string, now time.Time) (*model.Token, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	token, ok := t.s.tokens[value]
	if !ok || token.Purpose != purpose || token.Used || !now.Before(token.ExpiresAt) {
		return nil, notFound
	}
	token.Used = true
	t.s.tokens[value] = token
	return &token, nil
}

func (t *Tokens) RevokeAll(ctx context.Context, userID, purpose string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for value, token := range t.s.tokens {
		if token.UserID == userID && token.Purpose == purpose {
			token.Used = true
			t.s.tokens[value] = token
		}
	}
	return nil
}

var (
	_ contract.UserRepo        = (*Users)(nil)
	_ contract.ProfileRepo     = (*Profiles)(nil)
	_ contract.CategoryRepo    = (*Categories)(nil)
	_ contract.TransactionRepo = (*Transactions)(nil)
	_ contract.DebtRepo        = (*Debts)(nil)
	_ contract.GoalRepo        = (*Goals)(nil)
	_ contract.TokenRepo       = (*Tokens)(nil)
)
