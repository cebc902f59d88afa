package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/acompanythatsellseverything/mrhost-checkin/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Server exposes the batch checks and the reservation webhook over HTTP.
type Server struct {
	compliance     *app.ComplianceService
	checkout       *app.CheckoutService
	reconciliation *app.ReconciliationService
	log            *logrus.Logger
}

// NewServer wires the HTTP surface.
func NewServer(
	compliance *app.ComplianceService,
	checkout *app.CheckoutService,
	reconciliation *app.ReconciliationService,
	log *logrus.Logger,
) *Server {
	return &Server{
		compliance:     compliance,
		checkout:       checkout,
		reconciliation: reconciliation,
		log:            log,
	}
}

// Router builds the chi router with all routes registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/check_registrations", s.handleCheckRegistrations)
	r.Get("/check_verifications", s.handleCheckVerifications)
	r.Get("/check_arrivals", s.handleCheckArrivals)
	r.Get("/checkout", s.handleCheckout)
	r.Post("/webhook/reservation", s.handleWebhook)

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Errorf("Failed to encode response: %v", err)
	}
}

// runBatch executes one batch check and reports its per-reservation outcome
// map; a batch-level failure is a 500 with the error text.
func (s *Server) runBatch(w http.ResponseWriter, r *http.Request, name string, run func() (app.BatchResult, error)) {
	s.log.Infof("GET /%s called", name)

	result, err := run()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCheckRegistrations(w http.ResponseWriter, r *http.Request) {
	s.runBatch(w, r, "check_registrations", func() (app.BatchResult, error) {
		return s.compliance.CheckRegistrations(r.Context())
	})
}

func (s *Server) handleCheckVerifications(w http.ResponseWriter, r *http.Request) {
	s.runBatch(w, r, "check_verifications", func() (app.BatchResult, error) {
		return s.compliance.CheckVerifications(r.Context())
	})
}

func (s *Server) handleCheckArrivals(w http.ResponseWriter, r *http.Request) {
	s.runBatch(w, r, "check_arrivals", func() (app.BatchResult, error) {
		return s.compliance.CheckArrivals(r.Context())
	})
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	s.runBatch(w, r, "checkout", func() (app.BatchResult, error) {
		return s.checkout.Checkout(r.Context())
	})
}

// webhookEvent is the reservation event body; some platform configurations
// nest the fields under a "result" key.
type webhookEvent struct {
	ID          int64  `json:"id"`
	ArrivalDate string `json:"arrivalDate"`
}

type webhookPayload struct {
	webhookEvent
	Result *webhookEvent `json:"result"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	s.log.Info("POST /webhook/reservation called")

	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid webhook body: "+err.Error(), http.StatusInternalServerError)
		return
	}

	event := payload.webhookEvent
	if payload.Result != nil {
		event = *payload.Result
	}
	s.log.Infof("Received reservation event: id=%d arrivalDate=%q", event.ID, event.ArrivalDate)

	status, err := s.reconciliation.HandleEvent(event.ID, event.ArrivalDate)
	if err != nil {
		s.writeJSON(w, http.StatusOK, map[string]string{"error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": status})
}
