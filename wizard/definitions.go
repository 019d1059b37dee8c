package wizard

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/hpmalinova/monifly/model"
	"github.com/hpmalinova/monifly/validation"
)

const dateLayout = "2006-01-02"

// FieldErrors maps field names to messages for a record that failed to build.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + e[name]
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Forms builds the form definitions of the app.
type Forms struct {
	validate *validator.Validate
	trans    ut.Translator
	now      func() time.Time
	loc      *time.Location
}

func NewForms(validate *validator.Validate, trans ut.Translator, now func() time.Time, loc *time.Location) *Forms {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Forms{validate: validate, trans: trans, now: now, loc: loc}
}

// Kinds accepted by Lookup.
const (
	FormIncome       = "income"
	FormExpense      = "expense"
	FormDebt         = "debt"
	FormGoal         = "goal"
	FormRegistration = "registration"
)

func (f *Forms) Lookup(kind string) (*Definition, bool) {
	switch kind {
	case FormIncome, FormExpense:
		return f.Transaction(kind), true
	case FormDebt:
		return f.Debt(), true
	case FormGoal:
		return f.Goal(), true
	case FormRegistration:
		return f.Registration(), true
	}
	return nil, false
}

func (f *Forms) check(record interface{}, errs FieldErrors) error {
	if err := f.validate.Struct(record); err != nil {
		messages, ok := validation.Messages(err, f.trans)
		if !ok {
			return err
		}
		for name, msg := range messages {
			name = snake(name)
			if _, exists := errs[name]; !exists {
				errs[name] = msg
			}
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func parseAmount(raw string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	return d, err == nil
}

func (f *Forms) parseDate(raw string) (time.Time, bool) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(raw), f.loc)
	return t, err == nil
}

func (f *Forms) today() time.Time {
	now := f.now().In(f.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, f.loc)
}

// Transaction is the four step income or expense form.
func (f *Forms) Transaction(txType string) *Definition {
	return &Definition{
		Name: txType,
		Steps: []Step{
			{ID: "amount", Title: "Amount", Fields: []Field{{Name: "amount", Kind: Number}}},
			{ID: "description", Title: "Description", Fields: []Field{{Name: "description", Kind: Text}}},
			{ID: "category", Title: "Category", Fields: []Field{
				{Name: "category", Kind: Choice, Options: model.CategoryNames(model.DefaultCategories, txType)},
			}},
			{ID: "account", Title: "Account", Fields: []Field{
				{Name: "account", Kind: Choice, Options: model.AccountNames(txType)},
			}},
		},
		OpenEditAtEnd: true,
		Seed: func(record interface{}) (Data, error) {
			t, ok := record.(*model.Transaction)
			if !ok {
				return nil, fmt.Errorf("transaction form cannot seed %T", record)
			}
			return Data{
				"amount":      t.Amount.String(),
				"description": t.Description,
				"category":    t.Category,
				"account":     t.Account,
			}, nil
		},
		Build: func(d Data, editing bool) (interface{}, error) {
			errs := FieldErrors{}
			amount, ok := parseAmount(d["amount"])
			if !ok {
				errs["amount"] = "amount must be a number"
			}
			if !contains(model.CategoryNames(model.DefaultCategories, txType), d["category"]) {
				errs["category"] = "unknown category"
			}
			if !contains(model.AccountNames(txType), d["account"]) {
				errs["account"] = "unknown account"
			}
			t := &model.Transaction{
				Amount:      amount,
				Type:        txType,
				Description: strings.TrimSpace(d["description"]),
				Category:    d["category"],
				Account:     d["account"],
			}
			if err := f.check(t, errs); err != nil {
				return nil, err
			}
			return t, nil
		},
	}
}

func isInstallments(d Data) bool {
	return d["payment_type"] == model.PaymentInstallments
}

func (f *Forms) Debt() *Definition {
	return &Definition{
		Name: FormDebt,
		Steps: []Step{
			{ID: "basics", Title: "Basic information", Fields: []Field{
				{Name: "title", Kind: Text},
				{Name: "description", Kind: Text, Optional: true},
				{Name: "original_amount", Kind: Number},
			}},
			{ID: "type", Title: "Debt type", Fields: []Field{
				{Name: "type", Kind: Choice, Options: []string{model.DebtOwing, model.DebtOwed}},
				{Name: "creditor_debtor_name", Kind: Text, Optional: true},
			}},
			{ID: "payment", Title: "Payment", Fields: []Field{
				{Name: "payment_type", Kind: Choice, Options: []string{model.PaymentFixed, model.PaymentInstallments}},
				{Name: "payment_frequency", Kind: Choice, RequiredWhen: isInstallments, Options: []string{"weekly", "biweekly", "monthly"}},
				{Name: "total_installments", Kind: Integer, RequiredWhen: isInstallments},
			}},
			{ID: "details", Title: "Details", Fields: []Field{
				{Name: "due_date", Kind: Date, Optional: true},
				{Name: "status", Kind: Choice, Options: []string{model.DebtActive, model.DebtPaid, model.DebtOverdue, model.DebtCancelled}},
			}},
		},
		Defaults: Data{
			"type":               model.DebtOwing,
			"payment_type":       model.PaymentFixed,
			"payment_frequency":  "monthly",
			"total_installments": "1",
			"status":             model.DebtActive,
		},
		Seed: func(record interface{}) (Data, error) {
			debt, ok := record.(*model.Debt)
			if !ok {
				return nil, fmt.Errorf("debt form cannot seed %T", record)
			}
			d := Data{
				"title":                debt.Title,
				"description":          debt.Description,
				"original_amount":      debt.OriginalAmount.String(),
				"type":                 debt.Type,
				"creditor_debtor_name": debt.CreditorDebtorName,
				"payment_type":         debt.PaymentType,
				"payment_frequency":    debt.PaymentFrequency,
				"total_installments":   strconv.Itoa(debt.TotalInstallments),
				"status":               debt.Status,
			}
			if d["title"] == "" {
				d["title"] = debt.Description
			}
			if d["payment_frequency"] == "" {
				d["payment_frequency"] = "monthly"
			}
			if debt.TotalInstallments < 1 {
				d["total_installments"] = "1"
			}
			if debt.DueDate != nil {
				d["due_date"] = debt.DueDate.In(f.loc).Format(dateLayout)
			}
			return d, nil
		},
		Build: func(d Data, editing bool) (interface{}, error) {
			errs := FieldErrors{}
			debt := &model.Debt{
				Title:              strings.TrimSpace(d["title"]),
				Description:        strings.TrimSpace(d["description"]),
				Type:               d["type"],
				PaymentType:        d["payment_type"],
				CreditorDebtorName: strings.TrimSpace(d["creditor_debtor_name"]),
				Status:             d["status"],
			}
			if debt.Title == "" {
				errs["title"] = "title is required"
			}
			amount, ok := parseAmount(d["original_amount"])
			if !ok || !amount.IsPositive() {
				errs["original_amount"] = "amount must be a number greater than 0"
			}
			debt.OriginalAmount = amount
			debt.RemainingAmount = amount
			if isInstallments(d) {
				n, err := strconv.Atoi(strings.TrimSpace(d["total_installments"]))
				if err != nil || n < 1 {
					errs["total_installments"] = "installments must be at least 1"
				}
				debt.TotalInstallments = n
				debt.PaymentFrequency = d["payment_frequency"]
			}
			if raw := strings.TrimSpace(d["due_date"]); raw != "" {
				due, ok := f.parseDate(raw)
				if !ok {
					errs["due_date"] = "due date must look like 2006-01-02"
				} else {
					debt.DueDate = &due
				}
			}
			debt.Normalize()
			if err := f.check(debt, errs); err != nil {
				return nil, err
			}
			return debt, nil
		},
	}
}

func (f *Forms) Goal() *Definition {
	return &Definition{
		Name: FormGoal,
		Steps: []Step{
			{ID: "basics", Title: "Goal", Fields: []Field{
				{Name: "title", Kind: Text},
				{Name: "description", Kind: Text, Optional: true},
			}},
			{ID: "amounts", Title: "Amounts", Fields: []Field{
				{Name: "target_amount", Kind: Number},
				{Name: "current_saved", Kind: Number, Optional: true},
			}},
			{ID: "schedule", Title: "Schedule", Fields: []Field{
				{Name: "target_date", Kind: Date},
			}},
		},
		Defaults: Data{"current_saved": "0"},
		Seed: func(record interface{}) (Data, error) {
			g, ok := record.(*model.Goal)
			if !ok {
				return nil, fmt.Errorf("goal form cannot seed %T", record)
			}
			d := Data{
				"title":         g.Title,
				"description":   g.Description,
				"target_amount": g.TargetAmount.String(),
				"current_saved": g.CurrentSaved.String(),
			}
			if !g.TargetDate.IsZero() {
				d["target_date"] = g.TargetDate.In(f.loc).Format(dateLayout)
			}
			return d, nil
		},
		Build: func(d Data, editing bool) (interface{}, error) {
			errs := FieldErrors{}
			g := &model.Goal{
				Title:       strings.TrimSpace(d["title"]),
				Description: strings.TrimSpace(d["description"]),
				Status:      model.GoalActive,
			}
			if g.Title == "" {
				errs["title"] = "title is required"
			}
			target, ok := parseAmount(d["target_amount"])
			if !ok || !target.IsPositive() {
				errs["target_amount"] = "target amount must be greater than 0"
			}
			current := decimal.Zero
			if raw := strings.TrimSpace(d["current_saved"]); raw != "" {
				if current, ok = parseAmount(raw); !ok {
					errs["current_saved"] = "current amount must be a number"
				}
			}
			// contributions may carry a saved goal past its target and
			// its date into the past, so edits keep both
			switch {
			case current.IsNegative():
				errs["current_saved"] = "current amount cannot be negative"
			case !editing && current.GreaterThan(target):
				errs["current_saved"] = "current amount cannot exceed the target"
			}
			due, ok := f.parseDate(d["target_date"])
			switch {
			case !ok:
				errs["target_date"] = "target date is required"
			case !editing && !due.After(f.today()):
				errs["target_date"] = "target date must be after today"
			}
			g.TargetAmount, g.CurrentSaved, g.TargetDate = target, current, due
			g.Status = model.GoalStatusFor(current, target)
			if err := f.check(g, errs); err != nil {
				return nil, err
			}
			return g, nil
		},
	}
}

// Registration collects the sign up fields.
func (f *Forms) Registration() *Definition {
	return &Definition{
		Name: FormRegistration,
		Steps: []Step{
			{ID: "name", Title: "Name", Fields: []Field{{Name: "name", Kind: Text}}},
			{ID: "credentials", Title: "Credentials", Fields: []Field{
				{Name: "email", Kind: Text},
				{Name: "password", Kind: Text, Secret: true},
			}},
			{ID: "country", Title: "Country", Fields: []Field{{Name: "country", Kind: Text, Optional: true}}},
		},
		Defaults: Data{"country": model.DefaultCountryCode},
		Build: func(d Data, editing bool) (interface{}, error) {
			r := &model.UserRegister{
				Name:     strings.TrimSpace(d["name"]),
				Email:    strings.TrimSpace(d["email"]),
				Password: d["password"],
				Country:  strings.ToUpper(strings.TrimSpace(d["country"])),
			}
			if err := f.check(r, FieldErrors{}); err != nil {
				return nil, err
			}
			return r, nil
		},
	}
}

// snake maps json names like "paymentFrequency" to form field names.
func snake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}
