package registration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rsvphq/firstaccess/internal/telemetry/metrics"
	"github.com/rsvphq/firstaccess/internal/telemetry/tracing"
	"github.com/rsvphq/firstaccess/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

type Api interface {
	Add(ctx context.Context, submission *Submission) (*Submission, error)
	Get(ctx context.Context, id int) (*Submission, error)
	Delete(ctx context.Context, id int) error
	List(ctx context.Context) ([]Submission, error)
	Count(ctx context.Context) (int, error)
	UpdateCheckIn(ctx context.Context, id int, checkedIn bool) error
}

// Notifier sends the emails triggered by an accepted registration. It must
// never fail the request: delivery problems are its own to log.
type Notifier interface {
	RegistrationReceived(ctx context.Context, submission Submission)
}

type Handler struct {
	api      Api
	gate     *Gate
	notifier Notifier
	metrics  *metrics.Manager
}

func NewHandler(
	api Api,
	gate *Gate,
	notifier Notifier,
	metrics *metrics.Manager,
) *Handler {
	return &Handler{
		api:      api,
		gate:     gate,
		notifier: notifier,
		metrics:  metrics,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	mainRouter.HandleFunc("/register", handler.HandleRegister).Methods("POST", "OPTIONS").Name("register")
	mainRouter.HandleFunc("/register/limit", handler.HandleLimit).Methods("GET", "OPTIONS").Name("register-limit")
	mainRouter.HandleFunc("/submissions", handler.HandleList).Methods("GET", "OPTIONS").Name("list-submissions")
	mainRouter.HandleFunc("/submissions/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-submission")
	mainRouter.HandleFunc("/submissions/{id}/checkin", handler.HandleCheckIn).Methods("POST", "OPTIONS").Name("checkin-submission")
}

type registerRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	ShirtSize   string `json:"shirtSize"`
	SneakerSize string `json:"sneakerSize"`
}

func (handler *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "registrationHandler.register")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var req registerRequest
	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Errorf("register, unmarshal json params: %s", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			span.SetStatus(codes.Error, "bad-json")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Errorf("register failed, parse form error: %s", err)
			http.Error(w, "parse form error", http.StatusInternalServerError)
			span.SetStatus(codes.Error, "bad-form")
			return
		}
		req = registerRequest{
			FirstName:   r.Form.Get("firstName"),
			LastName:    r.Form.Get("lastName"),
			Email:       r.Form.Get("email"),
			Phone:       r.Form.Get("phone"),
			ShirtSize:   r.Form.Get("shirtSize"),
			SneakerSize: r.Form.Get("sneakerSize"),
		}
	}

	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		http.Error(w, "error, first name, last name and email are required", http.StatusBadRequest)
		span.SetStatus(codes.Error, "missing-fields")
		return
	}

	// evaluated fresh per attempt, current count and current moment
	open, err := handler.gate.IsOpen(ctx)
	if err != nil {
		log.Errorf("register, gate check: %s", err)
		http.Error(w, "something went wrong, please try again", http.StatusInternalServerError)
		span.SetStatus(codes.Error, "gate-err")
		return
	}
	if !open {
		handler.metrics.CounterRegistrationsDenied.Inc()
		http.Error(w, "registration is closed", http.StatusForbidden)
		span.SetStatus(codes.Error, "gate-closed")
		return
	}

	submission := &Submission{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		ShirtSize:   req.ShirtSize,
		SneakerSize: req.SneakerSize,
		CreatedAt:   time.Now(),
	}

	added, err := handler.api.Add(ctx, submission)
	if err != nil {
		log.Errorf("failed to add new submission [%s %s]: %s", req.FirstName, req.LastName, err)
		http.Error(w, "something went wrong, please try again", http.StatusInternalServerError)
		span.SetStatus(codes.Error, "add-err")
		return
	}

	handler.metrics.CounterRegistrations.Inc()
	log.Printf("new registration: [%s %s]: %d", added.FirstName, added.LastName, added.ID)

	// fire-and-forget relative to the response, failures are logged only
	go handler.notifier.RegistrationReceived(context.WithoutCancel(ctx), *added)

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteJSONResponseOK(w, fmt.Sprintf(`{"success": true, "id": %d}`, added.ID))
}

func (handler *Handler) HandleLimit(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "registrationHandler.limit")
	defer span.End()

	currentCount, maxEntries, open, err := handler.gate.Status(ctx)
	if err != nil {
		log.Errorf("check limit: %s", err)
		http.Error(w, "failed to check limit", http.StatusInternalServerError)
		span.SetStatus(codes.Error, "count-err")
		return
	}

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteJSONResponseOK(w, fmt.Sprintf(
		`{"currentCount": %d, "maxEntries": %d, "limitReached": %t}`,
		currentCount, maxEntries, !open,
	))
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	submissions, err := handler.api.List(r.Context())
	if err != nil {
		log.Errorf("list submissions error: %s", err)
		http.Error(w, "failed to get submissions", http.StatusInternalServerError)
		return
	}

	if len(submissions) == 0 {
		submissions = []Submission{}
	}

	submissionsJson, err := json.Marshal(submissions)
	if err != nil {
		log.Errorf("marshal submissions error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resJson := fmt.Sprintf(`{"submissions": %s, "total": %d}`, submissionsJson, len(submissions))
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, []byte(resJson))
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	idStr := vars["id"]
	if idStr == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	if err := handler.api.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrSubmissionNotFound) {
			http.Error(w, "error, submission not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete submission %d: %s", id, err)
		http.Error(w, "error, submission not deleted, internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponse(w, "", fmt.Sprintf("deleted:%d", id), http.StatusOK)
}

func (handler *Handler) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	idStr := vars["id"]
	if idStr == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "parse form error", http.StatusInternalServerError)
		return
	}
	checkedIn, err := strconv.ParseBool(r.Form.Get("checkedIn"))
	if err != nil {
		http.Error(w, "error, checkedIn invalid", http.StatusBadRequest)
		return
	}

	if err := handler.api.UpdateCheckIn(r.Context(), id, checkedIn); err != nil {
		if errors.Is(err, ErrSubmissionNotFound) {
			http.Error(w, "error, submission not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to update check-in for %d: %s", id, err)
		http.Error(w, "error, failed to update check-in", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponse(w, "", fmt.Sprintf("updated:%d", id), http.StatusOK)
}
