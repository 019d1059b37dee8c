package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hpmalinova/monifly/analytics"
	"github.com/hpmalinova/monifly/events"
	"github.com/hpmalinova/monifly/model"
)

const dashboardRecent = 10

// Categories //

func (a *App) getCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.Categories.FindAll(r.Context())
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, categories)
}

func (a *App) getCategoriesByType(w http.ResponseWriter, r *http.Request) {
	categories, err := a.Categories.FindByType(r.Context(), mux.Vars(r)["type"])
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, categories)
}

func (a *App) getAccounts(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, model.AccountNames(mux.Vars(r)["type"]))
}

// Transactions //

func (a *App) getTransactions(w http.ResponseWriter, r *http.Request) {
	start, count, ok := getStartCount(w, r)
	if !ok {
		return
	}
	rows, err := a.Transactions.Find(r.Context(), userID(r), start, count)
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, rows)
}

func (a *App) getTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := a.Transactions.FindByID(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, t)
}

func (a *App) checkCategory(w http.ResponseWriter, r *http.Request, t *model.Transaction) bool {
	if _, err := a.Categories.FindByName(r.Context(), t.Type, t.Category); err != nil {
		respondWithValidationError(map[string]string{"category": "unknown category"}, w)
		return false
	}
	return true
}

func (a *App) createTransaction(w http.ResponseWriter, r *http.Request) {
	t := &model.Transaction{}
	if !decode(w, r, t) || !a.validate(w, t) || !a.checkCategory(w, r, t) {
		return
	}
	created, err := a.saveTransaction(r, t, "")
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (a *App) updateTransaction(w http.ResponseWriter, r *http.Request) {
	t := &model.Transaction{}
	if !decode(w, r, t) || !a.validate(w, t) || !a.checkCategory(w, r, t) {
		return
	}
	updated, err := a.saveTransaction(r, t, mux.Vars(r)["id"])
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

// saveTransaction creates t, or updates the record id when id is set. New
// records count as activity for the streak.
func (a *App) saveTransaction(r *http.Request, t *model.Transaction, id string) (*model.Transaction, error) {
	t.UserID = userID(r)
	if id != "" {
		t.ID = id
		return a.Transactions.Update(r.Context(), t)
	}
	created, err := a.Transactions.Create(r.Context(), t)
	if err != nil {
		return nil, err
	}
	a.Bus.Publish(r.Context(), events.ActivityRecorded{UserID: t.UserID, At: a.now()})
	return created, nil
}

func (a *App) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := a.Transactions.Delete(r.Context(), userID(r), mux.Vars(r)["id"]); err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Pages //

func (a *App) getDashboard(w http.ResponseWriter, r *http.Request) {
	profile, err := a.profile(r)
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	rows, err := a.Transactions.FindAll(r.Context(), userID(r))
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	recent, err := a.Transactions.Find(r.Context(), userID(r), 0, dashboardRecent)
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, model.DashboardTemplate{
		Profile:      *profile,
		Transactions: recent,
		Summary:      analytics.Totals(rows),
	})
}

func (a *App) getAnalytics(w http.ResponseWriter, r *http.Request) {
	rows, err := a.Transactions.FindAll(r.Context(), userID(r))
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	goals, err := a.Goals.Find(r.Context(), userID(r))
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, analytics.Build(rows, goals, a.now(), a.loc))
}
