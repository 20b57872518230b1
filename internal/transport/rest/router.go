package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/lottobill/lottobill-backend/internal/config"
	mw "github.com/lottobill/lottobill-backend/internal/transport/middleware"
)

// TokenValidator resolves a bearer token to a user ID.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (uuid.UUID, error)
}

// RouterDeps carries everything the HTTP router wires together.
type RouterDeps struct {
	Log       *slog.Logger
	Auth      *AuthHandler
	Bills     *BillHandler
	Draws     *DrawHandler
	Odds      *OddsHandler
	Templates *TemplateHandler
	Health    *HealthHandler
	Validator TokenValidator
	CORS      config.CORSConfig
	Limiter   *mw.RateLimiter
}

// NewRouter builds the full HTTP handler: probes at the root, the API under
// /api/v1 behind bearer auth.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   splitCSV(deps.CORS.AllowedOrigins),
		AllowedMethods:   splitCSV(deps.CORS.AllowedMethods),
		AllowedHeaders:   splitCSV(deps.CORS.AllowedHeaders),
		AllowCredentials: deps.CORS.AllowCredentials,
		MaxAge:           deps.CORS.MaxAge,
	}))
	r.Use(mw.RequestID)
	r.Use(mw.Recovery(deps.Log))
	r.Use(mw.Logger(deps.Log))

	r.Get("/live", deps.Health.Live)
	r.Get("/ready", deps.Health.Ready)
	r.Get("/health", deps.Health.Health)

	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/auth/register", deps.Auth.Register)
		api.Post("/auth/login", deps.Auth.Login)

		api.Group(func(authed chi.Router) {
			authed.Use(mw.Auth(deps.Validator))

			if deps.Limiter != nil {
				// The parse chain can hit the AI collaborator; keep it
				// behind a per-IP budget.
				authed.With(deps.Limiter.Limit(30)).Post("/bills", deps.Bills.Create)
				authed.With(deps.Limiter.Limit(30)).Post("/bills/preview", deps.Bills.Preview)
			} else {
				authed.Post("/bills", deps.Bills.Create)
				authed.Post("/bills/preview", deps.Bills.Preview)
			}
			authed.Get("/bills", deps.Bills.List)
			authed.Get("/bills/{billID}", deps.Bills.Get)
			authed.Post("/bills/{billID}/settle", deps.Bills.Settle)
			authed.Post("/bills/{billID}/calibrate", deps.Bills.Calibrate)

			authed.Post("/draws", deps.Draws.Record)
			authed.Get("/draws/latest", deps.Draws.LatestAll)
			authed.Get("/draws/{region}/latest", deps.Draws.Latest)

			authed.Get("/odds", deps.Odds.Get)
			authed.Put("/odds", deps.Odds.Put)
			authed.Post("/odds/text", deps.Odds.PutText)

			authed.Get("/templates", deps.Templates.List)
			authed.Post("/templates", deps.Templates.Create)
		})
	})

	return r
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
