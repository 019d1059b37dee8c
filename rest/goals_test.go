package rest

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpmalinova/monifly/model"
)

func TestGoals_ContributeCompletes(t *testing.T) {
	ta := newTestApp(t)
	token := ta.signIn(t, "ana@example.com")
	now := ta.clock.now()
	target := time.Date(now.Year(), now.Month()+3, 15, 12, 0, 0, 0, time.UTC)

	rr := ta.do(http.MethodPost, "/api/goals", map[string]interface{}{
		"title": "Bike", "targetAmount": "1000", "currentSaved": "400", "targetDate": target,
	}, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var goal model.GoalTemplate
	decodeBody(t, rr, &goal)
	assert.Equal(t, model.GoalActive, goal.Status)
	assert.EqualValues(t, 40, goal.Progress)
	assert.Equal(t, 3, goal.MonthsRemaining)
	assert.Equal(t, "200", goal.MonthlyRequired.String())

	rr = ta.do(http.MethodPost, "/api/goals/"+goal.ID+"/contribute", map[string]string{"amount": "0"}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ta.do(http.MethodPost, "/api/goals/"+goal.ID+"/contribute", map[string]string{"amount": "600"}, token)
	require.Equal(t, http.StatusOK, rr.Code)
	decodeBody(t, rr, &goal)
	assert.Equal(t, model.GoalCompleted, goal.Status)
	assert.EqualValues(t, 100, goal.Progress)

	rr = ta.do(http.MethodGet, "/api/goals", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	var goals []model.GoalTemplate
	decodeBody(t, rr, &goals)
	require.Len(t, goals, 1)

	rr = ta.do(http.MethodDelete, "/api/goals/"+goal.ID, nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = ta.do(http.MethodGet, "/api/goals/"+goal.ID, nil, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGoals_Validation(t *testing.T) {
	ta := newTestApp(t)
	token := ta.signIn(t, "ana@example.com")
	future := ta.clock.now().AddDate(0, 1, 0)

	tests := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{"over target", map[string]interface{}{
			"title": "x", "targetAmount": "100", "currentSaved": "150", "targetDate": future,
		}, "currentSaved"},
		{"past date", map[string]interface{}{
			"title": "x", "targetAmount": "100", "targetDate": ta.clock.now().AddDate(0, 0, -1),
		}, "targetDate"},
		{"no date", map[string]interface{}{"title": "x", "targetAmount": "100"}, "targetDate"},
		{"no target", map[string]interface{}{"title": "x", "targetAmount": "0", "targetDate": future}, "targetAmount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ta.do(http.MethodPost, "/api/goals", tt.body, token)
			require.Equal(t, http.StatusBadRequest, rr.Code)
			var body struct {
				Fields map[string]string `json:"fields"`
			}
			decodeBody(t, rr, &body)
			assert.Contains(t, body.Fields, tt.field)
		})
	}
}

func TestProfile(t *testing.T) {
	ta := newTestApp(t)
	token := ta.signIn(t, "ana@example.com")

	rr := ta.do(http.MethodPut, "/api/profile", map[string]string{"fullName": "Ana Maria", "countryCode": "mx"}, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var p model.Profile
	decodeBody(t, rr, &p)
	assert.Equal(t, "Ana Maria", p.FullName)
	assert.Equal(t, "MX", p.CountryCode)

	rr = ta.do(http.MethodPut, "/api/profile", map[string]string{"fullName": "", "countryCode": "MEX"}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ta.do(http.MethodPost, "/api/profile/welcome", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	decodeBody(t, rr, &p)
	require.True(t, p.HasSeenWelcome)
	first := *p.WelcomeSeenAt

	ta.clock.advance(time.Minute)
	rr = ta.do(http.MethodPost, "/api/profile/welcome", nil, token)
	decodeBody(t, rr, &p)
	assert.True(t, first.Equal(*p.WelcomeSeenAt))
}

func TestProfile_CreatedOnFirstUse(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()
	user, err := ta.store.Users().Create(ctx, &model.User{Email: "raw@example.com", Password: "x"})
	require.NoError(t, err)
	claims := &model.UserToken{Email: user.Email}
	claims.Subject = user.ID

	req := newRequestAs(http.MethodGet, "/", claims)
	p, err := ta.app.profile(req)
	require.NoError(t, err)
	assert.Equal(t, "raw", p.FullName)
	assert.Equal(t, model.DefaultCountryCode, p.CountryCode)

	stored, err := ta.store.Profiles().Find(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, p.FullName, stored.FullName)
}

func TestStreakAndTheme(t *testing.T) {
	ta := newTestApp(t)
	token := ta.signIn(t, "ana@example.com")

	rr := ta.do(http.MethodGet, "/api/streak", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	var st model.StreakTemplate
	decodeBody(t, rr, &st)
	assert.Equal(t, 0, st.Current)

	rr = ta.do(http.MethodPost, "/api/transactions", map[string]string{
		"amount": "5", "type": model.Expense, "description": "Bread", "category": "food", "account": "cash",
	}, token)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ta.do(http.MethodGet, "/api/streak", nil, token)
	decodeBody(t, rr, &st)
	assert.Equal(t, 1, st.Current)
	assert.True(t, st.Today)
	assert.Equal(t, "basic", st.Level)

	rr = ta.do(http.MethodGet, "/api/preferences/theme", nil, token)
	assert.JSONEq(t, `{"darkMode":false}`, rr.Body.String())
	rr = ta.do(http.MethodPut, "/api/preferences/theme", map[string]bool{"darkMode": true}, token)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = ta.do(http.MethodGet, "/api/preferences/theme", nil, token)
	assert.JSONEq(t, `{"darkMode":true}`, rr.Body.String())
	v, ok := ta.app.State.Get("darkMode_" + claimsOf(t, ta, token).UserID())
	assert.True(t, ok)
	assert.Equal(t, "true", v)
}
