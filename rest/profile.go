package rest

import (
	"errors"
	"net/http"
	"strings"

	"github.com/hpmalinova/monifly/contract"
	"github.com/hpmalinova/monifly/model"
	"github.com/hpmalinova/monifly/session"
	"github.com/hpmalinova/monifly/streak"
)

const themeTrue = "true"

// profile loads the caller's profile and creates the default one for
// accounts that have none yet.
func (a *App) profile(r *http.Request) (*model.Profile, error) {
	ctx := r.Context()
	uid := userID(r)
	p, err := a.Profiles.Find(ctx, uid)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, contract.ErrNotFound) {
		return nil, err
	}

	claims := claimsFrom(ctx)
	country := strings.ToUpper(claims.UserMetadata.CountryCode)
	if country == "" {
		country = model.DefaultCountryCode
	}
	created := &model.Profile{
		ID:          uid,
		FullName:    session.DisplayName(claims.UserMetadata, claims.Email),
		CountryCode: country,
	}
	if err := a.Profiles.Create(ctx, created); err != nil {
		// lost a race with another request
		if errors.Is(err, contract.ErrConflict) {
			return a.Profiles.Find(ctx, uid)
		}
		return nil, err
	}
	return created, nil
}

func (a *App) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := a.profile(r)
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}

func (a *App) updateProfile(w http.ResponseWriter, r *http.Request) {
	update := model.ProfileUpdate{}
	if !decode(w, r, &update) {
		return
	}
	update.FullName = strings.TrimSpace(update.FullName)
	update.CountryCode = strings.ToUpper(strings.TrimSpace(update.CountryCode))
	if !a.validate(w, update) {
		return
	}
	if _, err := a.profile(r); err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	if err := a.Profiles.Update(r.Context(), userID(r), update); err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	a.getProfile(w, r)
}

// markWelcomeSeen records that the onboarding modal was shown. Repeated
// calls keep the first timestamp.
func (a *App) markWelcomeSeen(w http.ResponseWriter, r *http.Request) {
	p, err := a.profile(r)
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	if !p.HasSeenWelcome {
		if err := a.Profiles.MarkWelcomeSeen(r.Context(), userID(r), a.now()); err != nil {
			a.respondWithStoreError(w, err)
			return
		}
	}
	a.getProfile(w, r)
}

func (a *App) getStreak(w http.ResponseWriter, r *http.Request) {
	p, err := a.profile(r)
	if err != nil {
		a.respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, streak.View(*p, a.now(), a.loc))
}

func themeKey(r *http.Request) string {
	return "darkMode_" + userID(r)
}

func (a *App) getTheme(w http.ResponseWriter, r *http.Request) {
	v, _ := a.State.Get(themeKey(r))
	respondWithJSON(w, http.StatusOK, model.Theme{DarkMode: v == themeTrue})
}

func (a *App) setTheme(w http.ResponseWriter, r *http.Request) {
	theme := model.Theme{}
	if !decode(w, r, &theme) {
		return
	}
	value := "false"
	if theme.DarkMode {
		value = themeTrue
	}
	a.State.Set(themeKey(r), value)
	respondWithJSON(w, http.StatusOK, theme)
}
