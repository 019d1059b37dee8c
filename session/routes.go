package session

import "github.com/hpmalinova/monifly/events"

// Views the client can be on.
const (
	ViewLogin          = "/login"
	ViewForgotPassword = "/forgot-password"
	ViewUpdatePassword = "/update-password"
	ViewDashboard      = "/"
	ViewAnalytics      = "/analytics"
	ViewProfile        = "/profile"
	ViewDebts          = "/debts"
	ViewGoals          = "/goals"
)

var publicOnly = map[string]bool{
	ViewLogin:          true,
	ViewForgotPassword: true,
	ViewUpdatePassword: true,
}

var protected = map[string]bool{
	ViewDashboard: true,
	ViewAnalytics: true,
	ViewProfile:   true,
	ViewDebts:     true,
	ViewGoals:     true,
}

func IsPublicOnly(path string) bool { return publicOnly[path] }

func IsProtected(path string) bool { return protected[path] }

// Guard returns where a request for path has to be redirected, or "" when
// it may be served.
func Guard(path string, hasSession bool) string {
	switch {
	case publicOnly[path]:
		if hasSession {
			return ViewDashboard
		}
		return ""
	case protected[path]:
		if !hasSession {
			return ViewLogin
		}
		return ""
	case hasSession:
		return ViewDashboard
	default:
		return ViewLogin
	}
}

// Navigate maps a session change seen on view to the view to move to.
func Navigate(kind, view string) string {
	switch kind {
	case events.PasswordRecovery:
		return ViewUpdatePassword
	case events.SignedIn:
		if publicOnly[view] {
			return ViewDashboard
		}
	case events.SignedOut:
		return ViewLogin
	}
	return ""
}
