package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/hpmalinova/monifly/events"
	"github.com/hpmalinova/monifly/limiter"
	"github.com/hpmalinova/monifly/model"
	"github.com/hpmalinova/monifly/session"
)

const minLoginPassword = 6

func (a *App) limitKey(form string, r *http.Request) string {
	return form + ":" + a.clientKey(r)
}

func respondBlocked(w http.ResponseWriter, st limiter.Status, message string) {
	w.Header().Set("Retry-After", strconv.Itoa(st.RetryAfter))
	respondWithJSON(w, http.StatusTooManyRequests, map[string]interface{}{
		"error":       message,
		"retry_after": st.RetryAfter,
	})
}

func (a *App) setSessionCookie(w http.ResponseWriter, s *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    s.AccessToken,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: "token", Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	creds := &model.UserLogin{}
	if !decode(w, r, creds) {
		return
	}

	l := a.Limits[limitLogin]
	key := a.limitKey(limitLogin, r)
	if l.IsBlocked(key) {
		st := l.Status(key)
		respondBlocked(w, st, fmt.Sprintf("Too many attempts. Try again in %d seconds.", st.RetryAfter))
		return
	}

	if limiter.HoneypotFilled(creds.Website) {
		respondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if err := a.Validator.Var(creds.Email, "required,email"); err != nil {
		respondWithError(w, http.StatusBadRequest, "Please enter a valid email address.")
		return
	}
	if len(creds.Password) < minLoginPassword {
		respondWithError(w, http.StatusBadRequest, "Password must be at least 6 characters.")
		return
	}
	var started time.Time
	if creds.FormStartedAt > 0 {
		started = time.UnixMilli(creds.FormStartedAt)
	}
	if limiter.MinFillTime(started, a.now(), limiter.MinFormFillTime) {
		respondWithError(w, http.StatusBadRequest, "Please take your time to fill in the form.")
		return
	}

	s, err := a.Auth.SignIn(r.Context(), creds.Email, creds.Password)
	if err != nil {
		if !errors.Is(err, session.ErrInvalidCredentials) {
			a.respondWithStoreError(w, err)
			return
		}
		st := l.RecordFailure(key)
		if st.Blocked {
			respondBlocked(w, st, fmt.Sprintf("Too many failed attempts. Blocked for %d minutes.", limiter.CeilMinutes(st.Remaining)))
			return
		}
		respondWithJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"error":         fmt.Sprintf("Invalid login credentials. Attempts left: %d", st.AttemptsLeft),
			"attempts_left": st.AttemptsLeft,
		})
		return
	}
	l.RecordSuccess(key)

	a.setSessionCookie(w, s)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"session":  s,
		"redirect": session.Navigate(events.SignedIn, session.ViewLogin),
	})
}

func (a *App) register(w http.ResponseWriter, r *http.Request) {
	user := &model.UserRegister{}
	if !decode(w, r, user) {
		return
	}
	a.signUp(w, r, user)
}

// signUp is shared by the register endpoint and the registration wizard.
func (a *App) signUp(w http.ResponseWriter, r *http.Request, user *model.UserRegister) {
	l := a.Limits[limitRegister]
	key := a.limitKey(limitRegister, r)
	if l.IsBlocked(key) {
		st := l.Status(key)
		respondBlocked(w, st, fmt.Sprintf("Too many sign up attempts. Try again in %d minutes.", limiter.CeilMinutes(st.Remaining)))
		return
	}
	if limiter.HoneypotFilled(user.Website) {
		respondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if user.FormToken != "" && !limiter.ValidFormToken(user.FormToken, a.now()) {
		respondWithError(w, http.StatusBadRequest, "The form expired, please reload it.")
		return
	}

	// Validate User struct
	if !a.validate(w, user) {
		return
	}

	created, err := a.Auth.SignUp(r.Context(), user.Email, user.Password, model.UserMetadata{
		FullName:    user.Name,
		CountryCode: user.Country,
	})
	if err != nil {
		if errors.Is(err, session.ErrUserExists) {
			respondWithJSON(w, http.StatusConflict, map[string]string{
				"error": "An account with this email already exists.",
				"email": user.Email,
			})
			return
		}
		if st := l.RecordFailure(key); st.Blocked {
			respondBlocked(w, st, fmt.Sprintf("Too many sign up attempts. Try again in %d minutes.", limiter.CeilMinutes(st.Remaining)))
			return
		}
		a.respondWithStoreError(w, err)
		return
	}
	l.RecordSuccess(key)

	respondWithJSON(w, http.StatusCreated, created)
}

func (a *App) refresh(w http.ResponseWriter, r *http.Request) {
	req := &model.RefreshRequest{}
	if !decode(w, r, req) || !a.validate(w, req) {
		return
	}
	s, err := a.Auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	a.setSessionCookie(w, s)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"session": s})
}

func (a *App) forgotPassword(w http.ResponseWriter, r *http.Request) {
	req := &model.EmailRequest{}
	if !decode(w, r, req) {
		return
	}

	// unknown emails answer like known ones, so resets are throttled by rate
	l := a.Limits[limitReset]
	key := a.limitKey(limitReset, r)
	if st := l.RateStatus(key); st.Blocked {
		respondBlocked(w, st, fmt.Sprintf("Too many requests. Try again in %d minutes.", limiter.CeilMinutes(st.Remaining)))
		return
	}
	if err := a.Validator.Var(req.Email, "required,email"); err != nil {
		respondWithError(w, http.StatusBadRequest, "Please enter a valid email address.")
		return
	}
	l.RecordAttempt(key)

	err := a.Auth.ResetPasswordForEmail(r.Context(), req.Email, a.siteURL+session.ViewUpdatePassword)
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Email sent. Check your inbox to reset your password.",
	})
}

func (a *App) exchangeCode(w http.ResponseWriter, r *http.Request) {
	req := &model.CodeRequest{}
	if !decode(w, r, req) {
		return
	}
	s, err := a.Auth.ExchangeCode(r.Context(), req.Code)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCode) {
			respondWithError(w, http.StatusBadRequest, "Invalid or expired link. Request a new one.")
			return
		}
		a.respondWithStoreError(w, err)
		return
	}
	a.setSessionCookie(w, s)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"session":  s,
		"redirect": session.ViewUpdatePassword,
	})
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	if err := a.Auth.SignOut(r.Context(), userID(r)); err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	clearSessionCookie(w)
	respondWithJSON(w, http.StatusOK, map[string]string{"redirect": session.ViewLogin})
}

func (a *App) updatePassword(w http.ResponseWriter, r *http.Request) {
	req := &model.PasswordUpdate{}
	if !decode(w, r, req) || !a.validate(w, req) {
		return
	}
	if err := a.Auth.UpdatePassword(r.Context(), userID(r), req.Password); err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{
		"message":  "Password updated.",
		"redirect": session.ViewLogin,
	})
}

// limits reports the limiter state of a form so clients can show a countdown.
func (a *App) limits(w http.ResponseWriter, r *http.Request) {
	form := mux.Vars(r)["form"]
	l, ok := a.Limits[form]
	if !ok {
		respondWithError(w, http.StatusNotFound, "Unknown form")
		return
	}
	if form == limitReset {
		respondWithJSON(w, http.StatusOK, l.RateStatus(a.limitKey(form, r)))
		return
	}
	respondWithJSON(w, http.StatusOK, l.Status(a.limitKey(form, r)))
}

func (a *App) formToken(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"token": limiter.IssueFormToken(a.now())})
}

// guard tells the client where a view request has to go.
func (a *App) guard(w http.ResponseWriter, r *http.Request) {
	path := r.FormValue("path")
	if path == "" {
		respondWithError(w, http.StatusBadRequest, "Missing path parameter")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"redirect": session.Guard(path, a.hasSession(r))})
}

func (a *App) realtime(w http.ResponseWriter, r *http.Request) {
	if a.Hub == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Realtime updates are disabled")
		return
	}
	a.Hub.Serve(w, r, userID(r))
}
