package http

import (
	"net/http"

	"github.com/account-recovery/internal/config"
	"github.com/account-recovery/internal/transport/http/handler"
	appmiddleware "github.com/account-recovery/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)

	// 5 requests/second, burst of 10 per client IP.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	healthH := handler.NewHealthHandler()
	recoveryH := handler.NewRecoveryHandler(deps.Recovery, deps.JWTProvider)
	verifyH := handler.NewVerificationHandler(deps.Recovery, deps.JWTProvider)
	questionH := handler.NewQuestionHandler(deps.Questions)

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Get("/security-questions", questionH.List)
		r.With(sensitiveRL.Limit).Post("/recovery/sessions", recoveryH.Start)
		r.With(sensitiveRL.Limit).Post("/verification/redeem", verifyH.Redeem)

		// ── Session-bound routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/recovery/sessions/current", recoveryH.Current)
			r.Post("/security-questions/{op}", questionH.Apply)

			r.Group(func(r chi.Router) {
				r.Use(sensitiveRL.Limit)

				r.Post("/recovery/steps/email", recoveryH.Email)
				r.Post("/recovery/steps/channel", recoveryH.Channel)
				r.Post("/recovery/steps/otp", recoveryH.OTP)
				r.Post("/recovery/steps/security-question", recoveryH.SecurityQuestion)
				r.Post("/recovery/steps/password", recoveryH.Password)
				r.Post("/recovery/steps/confirm-reset", recoveryH.ConfirmReset)
			})
		})
	})

	return r
}
