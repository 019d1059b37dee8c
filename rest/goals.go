package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/hpmalinova/monifly/analytics"
	"github.com/hpmalinova/monifly/model"
)

func (a *App) getGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := a.Goals.Find(r.Context(), userID(r))
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, analytics.GoalViews(goals, a.now()))
}

func (a *App) getGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := a.Goals.FindByID(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, analytics.GoalView(*goal, a.now()))
}

func (a *App) today() time.Time {
	now := a.now().In(a.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.loc)
}

// decodeGoal reads a goal body. New goals may not start past their target
// and need a target date after today. Contributions can carry a goal past
// both, so updates keep them.
func (a *App) decodeGoal(w http.ResponseWriter, r *http.Request, creating bool) (*model.Goal, bool) {
	goal := &model.Goal{}
	if !decode(w, r, goal) {
		return nil, false
	}
	goal.Title = strings.TrimSpace(goal.Title)
	goal.Status = model.GoalStatusFor(goal.CurrentSaved, goal.TargetAmount)
	if !a.validate(w, goal) {
		return nil, false
	}

	fields := map[string]string{}
	if creating && goal.CurrentSaved.GreaterThan(goal.TargetAmount) {
		fields["currentSaved"] = "current amount cannot exceed the target"
	}
	switch {
	case goal.TargetDate.IsZero():
		fields["targetDate"] = "target date is required"
	case creating && !goal.TargetDate.After(a.today()):
		fields["targetDate"] = "target date must be after today"
	}
	if len(fields) > 0 {
		respondWithValidationError(fields, w)
		return nil, false
	}
	goal.UserID = userID(r)
	return goal, true
}

func (a *App) createGoal(w http.ResponseWriter, r *http.Request) {
	goal, ok := a.decodeGoal(w, r, true)
	if !ok {
		return
	}
	created, err := a.Goals.Create(r.Context(), goal)
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, analytics.GoalView(*created, a.now()))
}

func (a *App) updateGoal(w http.ResponseWriter, r *http.Request) {
	goal, ok := a.decodeGoal(w, r, false)
	if !ok {
		return
	}
	goal.ID = mux.Vars(r)["id"]
	updated, err := a.Goals.Update(r.Context(), goal)
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, analytics.GoalView(*updated, a.now()))
}

func (a *App) deleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := a.Goals.Delete(r.Context(), userID(r), mux.Vars(r)["id"]); err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// contributeGoal adds to the saved amount. Reaching the target completes the goal.
func (a *App) contributeGoal(w http.ResponseWriter, r *http.Request) {
	c := &model.Contribution{}
	if !decode(w, r, c) || !a.validate(w, c) {
		return
	}
	goal, err := a.Goals.FindByID(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	goal.CurrentSaved = goal.CurrentSaved.Add(c.Amount)
	updated, err := a.Goals.Update(r.Context(), goal)
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, analytics.GoalView(*updated, a.now()))
}
