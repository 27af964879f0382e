// Package router assembles the HTTP surface: public auth routes, the
// authenticated API, and operational endpoints.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/medassist/telehealth-platform/internal/accounts"
	"github.com/medassist/telehealth-platform/internal/appointments"
	"github.com/medassist/telehealth-platform/internal/booking"
	"github.com/medassist/telehealth-platform/internal/diagnosis"
	"github.com/medassist/telehealth-platform/internal/doctors"
	httpmiddleware "github.com/medassist/telehealth-platform/internal/http/middleware"
	"github.com/medassist/telehealth-platform/internal/video"
	"github.com/medassist/telehealth-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	SessionValidator    httpmiddleware.TokenValidator
	AccountsHandler     *accounts.Handler
	DoctorsHandler      *doctors.Handler
	AppointmentsHandler *appointments.Handler
	BookingHandler      *booking.Handler
	DiagnosisHandler    *diagnosis.Handler
	VideoHandler        *video.Handler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints.
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.AccountsHandler != nil {
			public.Post("/auth/signup/patient", cfg.AccountsHandler.SignupPatient)
			public.Post("/auth/signup/doctor", cfg.AccountsHandler.SignupDoctor)
			public.Post("/auth/signin", cfg.AccountsHandler.SignIn)
		}
	})

	// Everything below requires a session.
	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.SessionAuth(cfg.SessionValidator))

		if cfg.AccountsHandler != nil {
			private.Post("/auth/signout", cfg.AccountsHandler.SignOut)
			private.Get("/auth/me", cfg.AccountsHandler.Me)
		}
		if cfg.DoctorsHandler != nil {
			private.Mount("/doctors", cfg.DoctorsHandler.Routes())
		}
		if cfg.AppointmentsHandler != nil {
			private.Get("/appointments", cfg.AppointmentsHandler.List)
			private.Get("/appointments/{appointmentID}/report", cfg.AppointmentsHandler.GetReport)
		}
		if cfg.BookingHandler != nil {
			private.Post("/appointments/book", cfg.BookingHandler.Book)
		}
		if cfg.VideoHandler != nil {
			private.Post("/appointments/{appointmentID}/join", cfg.VideoHandler.Join)
		}
		if cfg.DiagnosisHandler != nil {
			private.Route("/intake", func(intake chi.Router) {
				intake.Post("/analyze", cfg.DiagnosisHandler.Analyze)
				intake.Get("/state", cfg.DiagnosisHandler.GetState)
			})
			private.Get("/patients/me/chat-history", cfg.DiagnosisHandler.ChatHistory)
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
