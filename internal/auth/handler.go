package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rsvphq/firstaccess/internal/middleware"
	"github.com/rsvphq/firstaccess/internal/telemetry/metrics"
	"github.com/rsvphq/firstaccess/internal/telemetry/tracing"
	"github.com/rsvphq/firstaccess/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

// ResetNotifier delivers the password reset email. Implementations must never
// fail the request: delivery problems are theirs to log.
type ResetNotifier interface {
	PasswordResetRequested(ctx context.Context, toEmail, resetLink string)
}

type Handler struct {
	service          *Service
	notifier         ResetNotifier
	resetLinkBaseURL string
	metrics          *metrics.Manager
}

func NewHandler(
	service *Service,
	notifier ResetNotifier,
	resetLinkBaseURL string,
	metrics *metrics.Manager,
) *Handler {
	return &Handler{
		service:          service,
		notifier:         notifier,
		resetLinkBaseURL: resetLinkBaseURL,
		metrics:          metrics,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	metricsManager *metrics.Manager,
	loginAllowedPerMin int,
) {
	authSubrouter := mainRouter.PathPrefix("/a").Subrouter()
	authSubrouter.
		HandleFunc("/login", handler.handleLogin).
		Methods("POST", "OPTIONS").Name("login")
	authSubrouter.
		HandleFunc("/logout", handler.handleLogout).
		Methods("GET", "OPTIONS").Name("logout")
	authSubrouter.
		HandleFunc("/reset/request", handler.handleResetRequest).
		Methods("POST", "OPTIONS").Name("reset-request")
	authSubrouter.
		HandleFunc("/reset/confirm", handler.handleResetConfirm).
		Methods("POST", "OPTIONS").Name("reset-confirm")

	// rate limit the credential endpoints to prevent abuse
	authSubrouter.Use(middleware.RateLimit(rateLimiter, "auth", loginAllowedPerMin, metricsManager))
}

func (handler *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.login")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var creds Credentials
	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			log.Errorf("login, unmarshal json params: %s", err)
			http.Error(w, "login failed", http.StatusBadRequest)
			span.SetStatus(codes.Error, "bad-json")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Errorf("login failed, parse form error: %s", err)
			http.Error(w, "parse form error", http.StatusInternalServerError)
			span.SetStatus(codes.Error, "bad-form")
			return
		}
		creds = Credentials{
			Username: r.Form.Get("username"),
			Password: r.Form.Get("password"),
		}
	}

	if creds.Username == "" {
		http.Error(w, "error, username empty", http.StatusBadRequest)
		return
	}
	if creds.Password == "" {
		http.Error(w, "error, password empty", http.StatusBadRequest)
		return
	}

	token, err := handler.service.Login(r.Context(), creds)
	if err != nil {
		if errors.Is(err, ErrWrongCredentials) {
			log.Tracef("failed login attempt for user: %s", creds.Username)
			handler.metrics.CounterFailedLogins.Inc()
			http.Error(w, "error, wrong credentials", http.StatusBadRequest)
			span.SetStatus(codes.Error, "wrong-credentials")
			return
		}
		log.Errorf("login failed: %s", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		span.SetStatus(codes.Error, "login-err")
		return
	}

	log.Trace("new login success")
	span.SetStatus(codes.Ok, "ok")
	pkg.WriteJSONResponseOK(w, fmt.Sprintf(`{"token": "%s"}`, token))
}

func (handler *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.logout")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	authToken := r.Header.Get(middleware.AuthTokenHeader)
	if err := handler.service.Logout(r.Context(), authToken); err != nil {
		http.Error(w, "no can do", http.StatusUnauthorized)
		span.SetStatus(codes.Error, "not-logged")
		return
	}

	log.Printf("logout for [%s] success", authToken)
	span.SetStatus(codes.Ok, "ok")
	pkg.WriteTextResponseOK(w, "logged-out")
}

func (handler *Handler) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.resetRequest")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "parse form error", http.StatusInternalServerError)
		span.SetStatus(codes.Error, "bad-form")
		return
	}

	email := r.Form.Get("email")
	if email == "" {
		http.Error(w, "error, email empty", http.StatusBadRequest)
		return
	}

	token, admin, err := handler.service.IssueResetToken(ctx, email)
	if err != nil {
		// same response as the happy path, do not reveal whether the
		// email belongs to an admin
		if !errors.Is(err, ErrAdminNotFound) {
			log.Errorf("issue reset token for [%s]: %s", email, err)
		}
		span.SetStatus(codes.Ok, "ok")
		pkg.WriteTextResponseOK(w, "reset-requested")
		return
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", handler.resetLinkBaseURL, token)
	go handler.notifier.PasswordResetRequested(context.WithoutCancel(ctx), admin.Email, resetLink)

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteTextResponseOK(w, "reset-requested")
}

func (handler *Handler) handleResetConfirm(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.resetConfirm")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "parse form error", http.StatusInternalServerError)
		span.SetStatus(codes.Error, "bad-form")
		return
	}

	token := r.Form.Get("token")
	newPassword := r.Form.Get("password")
	if token == "" || newPassword == "" {
		http.Error(w, "error, token or password empty", http.StatusBadRequest)
		return
	}

	if err := handler.service.ConsumeResetToken(ctx, token, newPassword); err != nil {
		if errors.Is(err, ErrResetTokenInvalid) {
			http.Error(w, "error, invalid or expired token", http.StatusBadRequest)
			span.SetStatus(codes.Error, "invalid-token")
			return
		}
		log.Errorf("consume reset token: %s", err)
		http.Error(w, "password update failed", http.StatusInternalServerError)
		span.SetStatus(codes.Error, "reset-err")
		return
	}

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteTextResponseOK(w, "password-updated")
}
