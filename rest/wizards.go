package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/hpmalinova/monifly/analytics"
	"github.com/hpmalinova/monifly/limiter"
	"github.com/hpmalinova/monifly/model"
	"github.com/hpmalinova/monifly/session"
	"github.com/hpmalinova/monifly/wizard"
)

// ownerFunc scopes wizards to whoever drives them.
type ownerFunc func(r *http.Request) string

func userOwner(r *http.Request) string {
	return userID(r)
}

// anonymousOwner keys public wizards by client since there is no user yet.
func (a *App) anonymousOwner(r *http.Request) string {
	return "anon:" + a.clientKey(r)
}

func (a *App) wizardOptions() []wizard.Option {
	return []wizard.Option{wizard.WithClock(a.now)}
}

func respondWithWizard(w http.ResponseWriter, code int, id string, wz *wizard.Wizard) {
	respondWithJSON(w, code, map[string]interface{}{"id": id, "state": wz.State()})
}

// respondWithWizardError maps wizard failures. Store errors fall through to
// respondWithStoreError.
func (a *App) respondWithWizardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wizard.ErrTransitioning), errors.Is(err, wizard.ErrSubmitting):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, wizard.ErrNoSuchStep),
		errors.Is(err, wizard.ErrUnknownField),
		errors.Is(err, wizard.ErrNotLastStep):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, wizard.ErrNoSuchWizard):
		respondWithError(w, http.StatusNotFound, "Wizard not found")
	default:
		a.respondWithStoreError(w, err)
	}
}

// startWizard opens an income, expense, debt or goal form. With ?edit=<id>
// the form is seeded from that record.
func (a *App) startWizard(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	def, ok := a.Forms.Lookup(kind)
	if !ok {
		respondWithError(w, http.StatusNotFound, "Unknown form")
		return
	}

	wz := wizard.New(def, a.wizardOptions()...)
	if editID := r.FormValue("edit"); editID != "" {
		record, err := a.editRecord(r.Context(), kind, userID(r), editID)
		if err != nil {
			a.respondWithStoreError(w, err)
			return
		}
		if wz, err = wizard.NewEdit(def, editID, record, a.wizardOptions()...); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	id := a.Wizards.Start(userOwner(r), kind, wz)
	respondWithWizard(w, http.StatusCreated, id, wz)
}

func (a *App) editRecord(ctx context.Context, kind, uid, id string) (interface{}, error) {
	switch kind {
	case wizard.FormIncome, wizard.FormExpense:
		t, err := a.Transactions.FindByID(ctx, uid, id)
		if err != nil {
			return nil, err
		}
		if t.Type != kind {
			return nil, fmt.Errorf("%w: %s form cannot edit a %s", wizard.ErrNoSuchWizard, kind, t.Type)
		}
		return t, nil
	case wizard.FormDebt:
		return a.Debts.FindByID(ctx, uid, id)
	case wizard.FormGoal:
		return a.Goals.FindByID(ctx, uid, id)
	}
	return nil, wizard.ErrNoSuchWizard
}

func (a *App) startRegistrationWizard(w http.ResponseWriter, r *http.Request) {
	def, _ := a.Forms.Lookup(wizard.FormRegistration)
	wz := wizard.New(def, a.wizardOptions()...)
	id := a.Wizards.Start(a.anonymousOwner(r), wizard.FormRegistration, wz)
	respondWithWizard(w, http.StatusCreated, id, wz)
}

func (a *App) getWizard(owner ownerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		wz, _, err := a.Wizards.Get(owner(r), id)
		if err != nil {
			a.respondWithWizardError(w, err)
			return
		}
		respondWithWizard(w, http.StatusOK, id, wz)
	}
}

// setWizardFields applies a batch of raw field values.
func (a *App) setWizardFields(owner ownerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		wz, _, err := a.Wizards.Get(owner(r), id)
		if err != nil {
			a.respondWithWizardError(w, err)
			return
		}
		values := wizard.Data{}
		if !decode(w, r, &values) {
			return
		}
		if err := wz.SetAll(values); err != nil {
			a.respondWithWizardError(w, err)
			return
		}
		respondWithWizard(w, http.StatusOK, id, wz)
	}
}

// moveWizard handles next, prev and jump/{step}. Steps are 1-based on the wire.
func (a *App) moveWizard(owner ownerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		wz, _, err := a.Wizards.Get(owner(r), vars["id"])
		if err != nil {
			a.respondWithWizardError(w, err)
			return
		}

		switch vars["move"] {
		case "next":
			err = wz.Advance()
		case "prev":
			err = wz.Retreat()
		default:
			step, convErr := strconv.Atoi(vars["step"])
			if convErr != nil {
				respondWithError(w, http.StatusBadRequest, "Invalid step")
				return
			}
			err = wz.JumpTo(step - 1)
		}
		if err != nil {
			var stepErr *wizard.StepError
			if errors.As(err, &stepErr) {
				respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
					"error": "Complete the current step first",
					"step":  stepErr.ID,
					"state": wz.State(),
				})
				return
			}
			a.respondWithWizardError(w, err)
			return
		}
		respondWithWizard(w, http.StatusOK, vars["id"], wz)
	}
}

func (a *App) submitWizard(owner ownerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		wz, kind, err := a.Wizards.Get(owner(r), id)
		if err != nil {
			a.respondWithWizardError(w, err)
			return
		}

		if kind == wizard.FormRegistration {
			l := a.Limits[limitRegister]
			key := a.limitKey(limitRegister, r)
			if l.IsBlocked(key) {
				st := l.Status(key)
				respondBlocked(w, st, fmt.Sprintf("Too many sign up attempts. Try again in %d minutes.", limiter.CeilMinutes(st.Remaining)))
				return
			}
		}

		saved, err := wz.Submit(r.Context(), a.saver(r, kind))
		if err != nil {
			a.respondWithWizardError(w, err)
			return
		}
		if kind == wizard.FormRegistration {
			a.Limits[limitRegister].RecordSuccess(a.limitKey(limitRegister, r))
			_ = a.Wizards.Discard(owner(r), id)
		}
		respondWithJSON(w, http.StatusCreated, map[string]interface{}{
			"id":     id,
			"record": saved,
			"state":  wz.State(),
		})
	}
}

// saver persists whatever record the form of kind builds.
func (a *App) saver(r *http.Request, kind string) wizard.Saver {
	return wizard.SaverFunc(func(ctx context.Context, record interface{}, editID string) (interface{}, error) {
		switch rec := record.(type) {
		case *model.Transaction:
			return a.saveTransaction(r, rec, editID)
		case *model.Debt:
			rec.UserID = userID(r)
			var saved *model.Debt
			var err error
			if editID != "" {
				rec.ID = editID
				saved, err = a.Debts.Update(ctx, rec)
			} else {
				saved, err = a.Debts.Create(ctx, rec)
			}
			if err != nil {
				return nil, err
			}
			return analytics.DebtView(*saved, a.now()), nil
		case *model.Goal:
			rec.UserID = userID(r)
			var saved *model.Goal
			var err error
			if editID != "" {
				rec.ID = editID
				saved, err = a.Goals.Update(ctx, rec)
			} else {
				saved, err = a.Goals.Create(ctx, rec)
			}
			if err != nil {
				return nil, err
			}
			return analytics.GoalView(*saved, a.now()), nil
		case *model.UserRegister:
			created, err := a.Auth.SignUp(ctx, rec.Email, rec.Password, model.UserMetadata{
				FullName:    rec.Name,
				CountryCode: rec.Country,
			})
			if err != nil {
				if !errors.Is(err, session.ErrUserExists) {
					a.Limits[limitRegister].RecordFailure(a.limitKey(limitRegister, r))
				}
				return nil, err
			}
			return created, nil
		}
		return nil, fmt.Errorf("%s form built unexpected record %T", kind, record)
	})
}

// discardWizard closes a form without saving.
func (a *App) discardWizard(owner ownerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := a.Wizards.Discard(owner(r), mux.Vars(r)["id"]); err != nil {
			a.respondWithWizardError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
