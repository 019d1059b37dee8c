package rest

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hpmalinova/monifly/contract"
	"github.com/hpmalinova/monifly/limiter"
	"github.com/hpmalinova/monifly/validation"
	"github.com/hpmalinova/monifly/wizard"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithValidationError(fields map[string]string, w http.ResponseWriter) {
	respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":  "Invalid request payload",
		"fields": fields,
	})
}

// validate runs the struct tags and answers 400 when they fail.
func (a *App) validate(w http.ResponseWriter, v interface{}) bool {
	err := a.Validator.Struct(v)
	if err == nil {
		return true
	}
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		// translate all error at once
		respondWithValidationError(translate(errs, a.Translator), w)
		return false
	}
	respondWithError(w, http.StatusBadRequest, "Invalid request payload")
	return false
}

func translate(errs validator.ValidationErrors, trans ut.Translator) map[string]string {
	fields, _ := validation.Messages(errs, trans)
	return fields
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

// friendly messages for rejected columns.
var constraintMessages = map[string]string{
	"payment_type":      `invalid payment type, use "fixed" or "installments"`,
	"payment_frequency": `invalid payment frequency, use "weekly", "biweekly" or "monthly"`,
	"status":            "invalid status",
	"type":              "invalid type",
	"amount":            "amount must be greater than 0",
	"original_amount":   "amount must be greater than 0",
	"target_amount":     "target amount must be greater than 0",
	"current_saved":     "saved amount cannot be negative",
}

var kindStatus = map[contract.Kind]int{
	contract.NotFound:           http.StatusNotFound,
	contract.Validation:         http.StatusBadRequest,
	contract.Constraint:         http.StatusBadRequest,
	contract.PermissionDenied:   http.StatusForbidden,
	contract.Conflict:           http.StatusConflict,
	contract.InvalidCredentials: http.StatusUnauthorized,
	contract.SessionMissing:     http.StatusUnauthorized,
	contract.SessionExpired:     http.StatusUnauthorized,
	contract.InvalidCode:        http.StatusBadRequest,
	contract.RateLimited:        http.StatusTooManyRequests,
	contract.Unavailable:        http.StatusServiceUnavailable,
}

// respondWithStoreError maps typed errors to a status and a message safe to
// show. Anything untyped is logged and reported as internal.
func (a *App) respondWithStoreError(w http.ResponseWriter, err error) {
	var fieldErrs wizard.FieldErrors
	if errors.As(err, &fieldErrs) {
		respondWithValidationError(fieldErrs, w)
		return
	}
	var stepErr *wizard.StepError
	if errors.As(err, &stepErr) {
		respondWithError(w, http.StatusBadRequest, stepErr.Error())
		return
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		respondWithValidationError(translate(verrs, a.Translator), w)
		return
	}

	var e *contract.Error
	if !errors.As(err, &e) {
		a.log.Error("request failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Something went wrong, please try again")
		return
	}

	code, ok := kindStatus[e.Kind]
	if !ok {
		a.log.Error("request failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Something went wrong, please try again")
		return
	}

	switch e.Kind {
	case contract.Constraint:
		if msg, ok := constraintMessages[e.Field]; ok {
			respondWithError(w, code, msg)
			return
		}
		respondWithError(w, code, "value rejected")
	case contract.Unavailable:
		a.log.Warn("store unavailable", zap.Error(err))
		respondWithError(w, code, "Service unavailable, please try again")
	case contract.NotFound:
		respondWithError(w, code, "Not found")
	default:
		msg := e.Message
		if e.Field != "" && e.Kind == contract.Validation {
			respondWithValidationError(map[string]string{e.Field: msg}, w)
			return
		}
		respondWithError(w, code, limiter.SanitizeError(msg))
	}
}

// getStartCount reads the start and count paging parameters. start is
// 1-based on the wire.
func getStartCount(w http.ResponseWriter, r *http.Request) (start, count int, ok bool) {
	count, err := strconv.Atoi(r.FormValue("count"))
	if err != nil && r.FormValue("count") != "" {
		respondWithError(w, http.StatusBadRequest, "Invalid request count parameter")
		return 0, 0, false
	}
	start, err = strconv.Atoi(r.FormValue("start"))
	if err != nil && r.FormValue("start") != "" {
		respondWithError(w, http.StatusBadRequest, "Invalid request start parameter")
		return 0, 0, false
	}

	const (
		minOffset = 0
		minLimit  = 1
		maxLimit  = 10
	)

	start--
	if count > maxLimit || count < minLimit {
		count = maxLimit
	}
	if start < minOffset {
		start = minOffset
	}
	return start, count, true
}

// clientKey identifies the caller for the attempt limiter and anonymous
// wizards. X-Forwarded-For is only read behind a trusted proxy; anyone else
// could rotate it per request.
func (a *App) clientKey(r *http.Request) string {
	if a.trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			return strings.TrimSpace(strings.Split(fwd, ",")[0])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working behind the recorder.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer cannot hijack")
	}
	return h.Hijack()
}

func (a *App) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		a.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(started)))
	})
}
