package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/hpmalinova/monifly/analytics"
	"github.com/hpmalinova/monifly/model"
)

const dateLayout = "2006-01-02"

func (a *App) getDebts(w http.ResponseWriter, r *http.Request) {
	filter, sortBy, err := analytics.ParseListing(r.FormValue("filter"), r.FormValue("sort"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request filter or sort parameter")
		return
	}
	debts, err := a.Debts.Find(r.Context(), userID(r))
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, analytics.Debts(debts, filter, sortBy, a.now()))
}

func (a *App) getDebt(w http.ResponseWriter, r *http.Request) {
	debt, err := a.Debts.FindByID(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, analytics.DebtView(*debt, a.now()))
}

// decodeDebt reads and checks a debt body. Installment debts need at least
// one installment.
func (a *App) decodeDebt(w http.ResponseWriter, r *http.Request) (*model.Debt, bool) {
	debt := &model.Debt{}
	if !decode(w, r, debt) {
		return nil, false
	}
	debt.Title = strings.TrimSpace(debt.Title)
	debt.Normalize()
	if !a.validate(w, debt) {
		return nil, false
	}
	if debt.PaymentType == model.PaymentInstallments && debt.TotalInstallments < 1 {
		respondWithValidationError(map[string]string{"totalInstallments": "installments must be at least 1"}, w)
		return nil, false
	}
	debt.UserID = userID(r)
	return debt, true
}

func (a *App) createDebt(w http.ResponseWriter, r *http.Request) {
	debt, ok := a.decodeDebt(w, r)
	if !ok {
		return
	}
	created, err := a.Debts.Create(r.Context(), debt)
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, analytics.DebtView(*created, a.now()))
}

func (a *App) updateDebt(w http.ResponseWriter, r *http.Request) {
	debt, ok := a.decodeDebt(w, r)
	if !ok {
		return
	}
	debt.ID = mux.Vars(r)["id"]
	updated, err := a.Debts.Update(r.Context(), debt)
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, analytics.DebtView(*updated, a.now()))
}

// deleteDebt removes the debt together with its payments.
func (a *App) deleteDebt(w http.ResponseWriter, r *http.Request) {
	if err := a.Debts.Delete(r.Context(), userID(r), mux.Vars(r)["id"]); err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) addPayment(w http.ResponseWriter, r *http.Request) {
	req := &model.PaymentRequest{}
	if !decode(w, r, req) || !a.validate(w, req) {
		return
	}
	p := &model.DebtPayment{
		DebtID: mux.Vars(r)["id"],
		UserID: userID(r),
		Amount: req.Amount,
		Notes:  strings.TrimSpace(req.Notes),
	}
	if req.PaymentDate != "" {
		date, err := time.ParseInLocation(dateLayout, req.PaymentDate, a.loc)
		if err != nil {
			respondWithValidationError(map[string]string{"paymentDate": "payment date must look like 2006-01-02"}, w)
			return
		}
		p.PaymentDate = date
	}
	a.recordPayment(w, r, p)
}

// markDebtPaid pays whatever is still pending.
func (a *App) markDebtPaid(w http.ResponseWriter, r *http.Request) {
	debt, err := a.Debts.FindByID(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	pending := debt.Pending()
	if !pending.IsPositive() {
		respondWithError(w, http.StatusConflict, "The debt is already paid")
		return
	}
	a.recordPayment(w, r, &model.DebtPayment{
		DebtID: debt.ID,
		UserID: debt.UserID,
		Amount: pending,
		Notes:  model.MarkedAsPaidNote,
	})
}

func (a *App) recordPayment(w http.ResponseWriter, r *http.Request, p *model.DebtPayment) {
	if _, err := a.Debts.AddPayment(r.Context(), p); err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	debt, err := a.Debts.FindByID(r.Context(), p.UserID, p.DebtID)
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, analytics.DebtView(*debt, a.now()))
}

func (a *App) deletePayment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := a.Debts.DeletePayment(r.Context(), userID(r), vars["id"], vars["pid"]); err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	debt, err := a.Debts.FindByID(r.Context(), userID(r), vars["id"])
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, analytics.DebtView(*debt, a.now()))
}
