package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hpmalinova/monifly/contract"
	"github.com/hpmalinova/monifly/events"
	"github.com/hpmalinova/monifly/limiter"
	"github.com/hpmalinova/monifly/realtime"
	"github.com/hpmalinova/monifly/session"
	"github.com/hpmalinova/monifly/streak"
	"github.com/hpmalinova/monifly/validation"
	"github.com/hpmalinova/monifly/wizard"
)

// Forms guarded by the attempt limiter.
const (
	limitLogin    = "login"
	limitRegister = "register"
	limitReset    = "reset"
)

// Deps are the collaborators the controllers work with.
type Deps struct {
	Users        contract.UserRepo
	Profiles     contract.ProfileRepo
	Categories   contract.CategoryRepo
	Transactions contract.TransactionRepo
	Debts        contract.DebtRepo
	Goals        contract.GoalRepo
	Auth         *session.Provider
	Bus          *events.Bus
	Hub          *realtime.Hub
	// State is the client-state storage behind the limiter and preferences.
	State   limiter.Storage
	Log     *zap.Logger
	SiteURL string
	// TrustProxy lets X-Forwarded-For name the client.
	TrustProxy bool
	Location   *time.Location
	Now        func() time.Time
}

type App struct {
	Router *mux.Router

	Users        contract.UserRepo
	Profiles     contract.ProfileRepo
	Categories   contract.CategoryRepo
	Transactions contract.TransactionRepo
	Debts        contract.DebtRepo
	Goals        contract.GoalRepo
	Auth         *session.Provider
	Bus          *events.Bus
	Hub          *realtime.Hub
	Streaks      *streak.Tracker
	State        limiter.Storage
	Limits       map[string]*limiter.Limiter
	Forms        *wizard.Forms
	Wizards      *wizard.Registry

	Validator  *validator.Validate
	Translator ut.Translator

	log        *zap.Logger
	siteURL    string
	trustProxy bool
	loc        *time.Location
	now        func() time.Time
	detach     []func()
}

func (a *App) Init(d Deps) error {
	a.Users, a.Profiles, a.Categories = d.Users, d.Profiles, d.Categories
	a.Transactions, a.Debts, a.Goals = d.Transactions, d.Debts, d.Goals
	a.Auth, a.Bus, a.Hub, a.State = d.Auth, d.Bus, d.Hub, d.State
	a.siteURL, a.loc, a.now, a.log = d.SiteURL, d.Location, d.Now, d.Log
	a.trustProxy = d.TrustProxy
	if a.loc == nil {
		a.loc = time.UTC
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	if a.State == nil {
		a.State = limiter.NewMemoryStorage()
	}

	var err error
	a.Validator, a.Translator, err = validation.New()
	if err != nil {
		return err
	}

	a.Forms = wizard.NewForms(a.Validator, a.Translator, a.now, a.loc)
	a.Wizards = wizard.NewRegistry(wizard.DefaultIdleTimeout, a.now)

	clock := limiter.WithClock(a.now)
	a.Limits = map[string]*limiter.Limiter{
		limitLogin:    limiter.New(a.State, limiter.LoginPolicy, clock),
		limitRegister: limiter.New(a.State, limiter.RegisterPolicy, clock),
		limitReset:    limiter.New(a.State, limiter.ResetPolicy, clock),
	}

	a.Streaks = streak.NewTracker(a.Profiles, a.Bus, a.loc, a.log)
	a.detach = append(a.detach, a.Streaks.Attach())
	if a.Hub != nil {
		a.detach = append(a.detach, a.Hub.Attach(a.Bus))
	}

	a.Router = mux.NewRouter()
	a.initializeRoutes()
	return nil
}

// Close unsubscribes the app from the event bus.
func (a *App) Close() {
	for _, fn := range a.detach {
		fn()
	}
	a.detach = nil
}

// Run serves until ctx is done and then shuts down gracefully.
func (a *App) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.log.Info("shutting down http server")
	return srv.Shutdown(shutdownCtx)
}

func (a *App) initializeRoutes() {
	a.Router.Use(a.logRequests)
	a.Router.HandleFunc("/healthz", a.health).Methods(http.MethodGet)

	// Session aware public routes
	a.Router.HandleFunc("/auth/refresh", a.refresh).Methods(http.MethodPost)
	a.Router.HandleFunc("/auth/guard", a.guard).Methods(http.MethodGet)
	a.Router.HandleFunc("/auth/limits/{form}", a.limits).Methods(http.MethodGet)
	a.Router.HandleFunc("/auth/form-token", a.formToken).Methods(http.MethodGet)

	// Public only routes
	p := a.Router.PathPrefix("/auth").Subrouter()
	p.Use(a.PublicOnly)
	p.HandleFunc("/login", a.login).Methods(http.MethodPost)
	p.HandleFunc("/register", a.register).Methods(http.MethodPost)
	p.HandleFunc("/forgot-password", a.forgotPassword).Methods(http.MethodPost)
	p.HandleFunc("/exchange", a.exchangeCode).Methods(http.MethodPost)
	p.HandleFunc("/wizards/registration", a.startRegistrationWizard).Methods(http.MethodPost)
	p.HandleFunc("/wizards/{id}", a.getWizard(a.anonymousOwner)).Methods(http.MethodGet)
	p.HandleFunc("/wizards/{id}", a.setWizardFields(a.anonymousOwner)).Methods(http.MethodPatch)
	p.HandleFunc("/wizards/{id}/{move:next|prev}", a.moveWizard(a.anonymousOwner)).Methods(http.MethodPost)
	p.HandleFunc("/wizards/{id}/jump/{step:[0-9]+}", a.moveWizard(a.anonymousOwner)).Methods(http.MethodPost)
	p.HandleFunc("/wizards/{id}/submit", a.submitWizard(a.anonymousOwner)).Methods(http.MethodPost)
	p.HandleFunc("/wizards/{id}", a.discardWizard(a.anonymousOwner)).Methods(http.MethodDelete)

	// Auth route
	s := a.Router.PathPrefix("/api").Subrouter()
	s.Use(a.JwtVerify)
	s.HandleFunc("/logout", a.logout).Methods(http.MethodPost)
	s.HandleFunc("/password", a.updatePassword).Methods(http.MethodPut)
	s.HandleFunc("/realtime", a.realtime).Methods(http.MethodGet)

	s.HandleFunc("/dashboard", a.getDashboard).Methods(http.MethodGet)
	s.HandleFunc("/categories", a.getCategories).Methods(http.MethodGet)
	s.HandleFunc("/categories/{type:income|expense}", a.getCategoriesByType).Methods(http.MethodGet)
	s.HandleFunc("/accounts/{type:income|expense}", a.getAccounts).Methods(http.MethodGet)

	s.HandleFunc("/transactions", a.getTransactions).Methods(http.MethodGet)
	s.HandleFunc("/transactions", a.createTransaction).Methods(http.MethodPost)
	s.HandleFunc("/transactions/{id}", a.getTransaction).Methods(http.MethodGet)
	s.HandleFunc("/transactions/{id}", a.updateTransaction).Methods(http.MethodPut)
	s.HandleFunc("/transactions/{id}", a.deleteTransaction).Methods(http.MethodDelete)

	s.HandleFunc("/debts", a.getDebts).Methods(http.MethodGet)
	s.HandleFunc("/debts", a.createDebt).Methods(http.MethodPost)
	s.HandleFunc("/debts/{id}", a.getDebt).Methods(http.MethodGet)
	s.HandleFunc("/debts/{id}", a.updateDebt).Methods(http.MethodPut)
	s.HandleFunc("/debts/{id}", a.deleteDebt).Methods(http.MethodDelete)
	s.HandleFunc("/debts/{id}/payments", a.addPayment).Methods(http.MethodPost)
	s.HandleFunc("/debts/{id}/paid", a.markDebtPaid).Methods(http.MethodPost)
	s.HandleFunc("/debts/{id}/payments/{pid}", a.deletePayment).Methods(http.MethodDelete)

	s.HandleFunc("/goals", a.getGoals).Methods(http.MethodGet)
	s.HandleFunc("/goals", a.createGoal).Methods(http.MethodPost)
	s.HandleFunc("/goals/{id}", a.getGoal).Methods(http.MethodGet)
	s.HandleFunc("/goals/{id}", a.updateGoal).Methods(http.MethodPut)
	s.HandleFunc("/goals/{id}", a.deleteGoal).Methods(http.MethodDelete)
	s.HandleFunc("/goals/{id}/contribute", a.contributeGoal).Methods(http.MethodPost)

	s.HandleFunc("/analytics", a.getAnalytics).Methods(http.MethodGet)

	s.HandleFunc("/profile", a.getProfile).Methods(http.MethodGet)
	s.HandleFunc("/profile", a.updateProfile).Methods(http.MethodPut)
	s.HandleFunc("/profile/welcome", a.markWelcomeSeen).Methods(http.MethodPost)
	s.HandleFunc("/streak", a.getStreak).Methods(http.MethodGet)
	s.HandleFunc("/preferences/theme", a.getTheme).Methods(http.MethodGet)
	s.HandleFunc("/preferences/theme", a.setTheme).Methods(http.MethodPut)

	s.HandleFunc("/wizards/{kind:income|expense|debt|goal}", a.startWizard).Methods(http.MethodPost)
	s.HandleFunc("/wizards/{id}", a.getWizard(userOwner)).Methods(http.MethodGet)
	s.HandleFunc("/wizards/{id}", a.setWizardFields(userOwner)).Methods(http.MethodPatch)
	s.HandleFunc("/wizards/{id}/{move:next|prev}", a.moveWizard(userOwner)).Methods(http.MethodPost)
	s.HandleFunc("/wizards/{id}/jump/{step:[0-9]+}", a.moveWizard(userOwner)).Methods(http.MethodPost)
	s.HandleFunc("/wizards/{id}/submit", a.submitWizard(userOwner)).Methods(http.MethodPost)
	s.HandleFunc("/wizards/{id}", a.discardWizard(userOwner)).Methods(http.MethodDelete)
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
