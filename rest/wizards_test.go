package rest

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpmalinova/monifly/model"
	"github.com/hpmalinova/monifly/wizard"
)

// stateView is the part of wizard.State the tests read back.
type stateView struct {
	Form    string      `json:"form"`
	Step    int         `json:"step"`
	Data    wizard.Data `json:"data"`
	Editing bool        `json:"editing"`
	Steps   []struct {
		ID       string `json:"id"`
		Complete bool   `json:"complete"`
	} `json:"steps"`
}

type wizardReply struct {
	ID    string    `json:"id"`
	State stateView `json:"state"`
}

func (ta *testApp) wizard(t *testing.T, method, path string, body interface{}, token string, code int) wizardReply {
	t.Helper()
	rr := ta.do(method, path, body, token)
	require.Equal(t, code, rr.Code, rr.Body.String())
	var reply wizardReply
	decodeBody(t, rr, &reply)
	// step changes are throttled
	ta.clock.advance(time.Second)
	return reply
}

func TestWizard_Expense(t *testing.T) {
	ta := newTestApp(t)
	token := ta.signIn(t, "ana@example.com")

	w := ta.wizard(t, http.MethodPost, "/api/wizards/expense", nil, token, http.StatusCreated)
	require.NotEmpty(t, w.ID)
	assert.Equal(t, "expense", w.State.Form)
	assert.Equal(t, 0, w.State.Step)
	base := "/api/wizards/" + w.ID

	rr := ta.do(http.MethodPost, base+"/next", nil, token)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Complete the current step first", errorOf(t, rr))

	ta.wizard(t, http.MethodPatch, base, map[string]string{"amount": "12.5"}, token, http.StatusOK)
	w = ta.wizard(t, http.MethodPost, base+"/next", nil, token, http.StatusOK)
	assert.Equal(t, 1, w.State.Step)

	rr = ta.do(http.MethodPatch, base, map[string]string{"color": "red"}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	ta.wizard(t, http.MethodPatch, base, map[string]string{
		"description": "Lunch", "category": "food", "account": "cash",
	}, token, http.StatusOK)

	rr = ta.do(http.MethodPost, base+"/submit", nil, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	w = ta.wizard(t, http.MethodPost, base+"/jump/4", nil, token, http.StatusOK)
	assert.Equal(t, 3, w.State.Step)
	rr = ta.do(http.MethodPost, base+"/jump/9", nil, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ta.do(http.MethodPost, base+"/submit", nil, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var saved struct {
		Record model.Transaction `json:"record"`
		State  stateView         `json:"state"`
	}
	decodeBody(t, rr, &saved)
	assert.Equal(t, "12.5", saved.Record.Amount.String())
	assert.Equal(t, model.Expense, saved.Record.Type)
	assert.Equal(t, 0, saved.State.Step)
	assert.Empty(t, saved.State.Data["amount"])

	rows, err := ta.store.Transactions().FindAll(context.Background(), saved.Record.UserID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWizard_Cooldown(t *testing.T) {
	ta := newTestApp(t)
	token := ta.signIn(t, "ana@example.com")

	w := ta.wizard(t, http.MethodPost, "/api/wizards/goal", nil, token, http.StatusCreated)
	base := "/api/wizards/" + w.ID
	rr := ta.do(http.MethodPost, base+"/jump/2", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = ta.do(http.MethodPost, base+"/prev", nil, token)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestWizard_EditDebt(t *testing.T) {
	ta := newTestApp(t)
	token := ta.signIn(t, "ana@example.com")
	debt := createDebt(t, ta, token, map[string]interface{}{
		"title": "Rent", "originalAmount": "900", "type": model.DebtOwing, "paymentType": model.PaymentFixed,
	})

	w := ta.wizard(t, http.MethodPost, "/api/wizards/debt?edit="+debt.ID, nil, token, http.StatusCreated)
	assert.True(t, w.State.Editing)
	assert.Equal(t, "Rent", w.State.Data["title"])
	base := "/api/wizards/" + w.ID

	ta.wizard(t, http.MethodPatch, base, map[string]string{"title": "Flat rent"}, token, http.StatusOK)
	last := len(w.State.Steps)
	for i := 0; i < last-1; i++ {
		ta.wizard(t, http.MethodPost, base+"/next", nil, token, http.StatusOK)
	}
	rr := ta.do(http.MethodPost, base+"/submit", nil, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = ta.do(http.MethodGet, "/api/debts/"+debt.ID, nil, token)
	var got model.DebtTemplate
	decodeBody(t, rr, &got)
	assert.Equal(t, "Flat rent", got.Title)

	rr = ta.do(http.MethodPost, "/api/wizards/debt?edit=missing", nil, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestWizard_EditGoalPastTarget(t *testing.T) {
	ta := newTestApp(t)
	token := ta.signIn(t, "ana@example.com")
	rr := ta.do(http.MethodPost, "/api/goals", map[string]interface{}{
		"title": "Shoes", "targetAmount": "100", "targetDate": ta.clock.now().AddDate(0, 0, 2),
	}, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var goal model.GoalTemplate
	decodeBody(t, rr, &goal)

	rr = ta.do(http.MethodPost, "/api/goals/"+goal.ID+"/contribute", map[string]string{"amount": "130"}, token)
	require.Equal(t, http.StatusOK, rr.Code)
	ta.clock.advance(5 * 24 * time.Hour)

	rr = ta.do(http.MethodPut, "/api/goals/"+goal.ID, map[string]interface{}{
		"title": "Shoes", "targetAmount": "100", "currentSaved": "130", "targetDate": goal.TargetDate,
	}, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	w := ta.wizard(t, http.MethodPost, "/api/wizards/goal?edit="+goal.ID, nil, token, http.StatusCreated)
	base := "/api/wizards/" + w.ID
	ta.wizard(t, http.MethodPatch, base, map[string]string{"title": "Running shoes"}, token, http.StatusOK)
	for i := w.State.Step; i < len(w.State.Steps)-1; i++ {
		ta.wizard(t, http.MethodPost, base+"/next", nil, token, http.StatusOK)
	}
	rr = ta.do(http.MethodPost, base+"/submit", nil, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = ta.do(http.MethodGet, "/api/goals/"+goal.ID, nil, token)
	decodeBody(t, rr, &goal)
	assert.Equal(t, "Running shoes", goal.Title)
	assert.Equal(t, "130", goal.CurrentSaved.String())
	assert.Equal(t, model.GoalCompleted, goal.Status)
}

func TestWizard_OwnerScopeAndDiscard(t *testing.T) {
	ta := newTestApp(t)
	ana := ta.signIn(t, "ana@example.com")
	ben := ta.signIn(t, "ben@example.com")

	w := ta.wizard(t, http.MethodPost, "/api/wizards/income", nil, ana, http.StatusCreated)
	base := "/api/wizards/" + w.ID

	rr := ta.do(http.MethodGet, base, nil, ben)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ta.do(http.MethodDelete, base, nil, ana)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = ta.do(http.MethodGet, base, nil, ana)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestWizard_Registration(t *testing.T) {
	ta := newTestApp(t)

	w := ta.wizard(t, http.MethodPost, "/auth/wizards/registration", nil, "", http.StatusCreated)
	base := "/auth/wizards/" + w.ID

	w = ta.wizard(t, http.MethodPatch, base, map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "Secret123", "country": "bg",
	}, "", http.StatusOK)
	assert.Equal(t, wizard.Masked, w.State.Data["password"])
	assert.NotContains(t, ta.do(http.MethodGet, base, nil, "").Body.String(), "Secret123")
	ta.wizard(t, http.MethodPost, base+"/jump/3", nil, "", http.StatusOK)

	rr := ta.do(http.MethodPost, base+"/submit", nil, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var saved struct {
		Record model.User `json:"record"`
	}
	decodeBody(t, rr, &saved)
	assert.Equal(t, "ana@example.com", saved.Record.Email)

	profile, err := ta.store.Profiles().Find(context.Background(), saved.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, "BG", profile.CountryCode)

	// the wizard is closed after a sign up
	rr = ta.do(http.MethodGet, base, nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
