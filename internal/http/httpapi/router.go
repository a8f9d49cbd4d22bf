package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"fundraiser/internal/http/handlers"
	"fundraiser/internal/middleware"
)

type Options struct {
	Logger        zerolog.Logger
	JWTSecret     string
	JWTIssuer     string
	CORSOrigins   []string
	RatePerMinute int
	Locales       *middleware.Locales
	CountryLookup middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	rate := opts.RatePerMinute
	if rate <= 0 {
		rate = 30
	}
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.CORSOrigins),
	)
	if opts.Locales != nil {
		r.Use(middleware.I18N(opts.Locales, opts.CountryLookup))
	}

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/campaigns", func(r chi.Router) {
		r.Get("/", app.ListCampaigns)
		r.Get("/stats", app.Stats)
		r.Get("/{id}", app.GetCampaign)
		r.Get("/{id}/donations/export", app.ExportDonations)
		r.Get("/{id}/donations/{donationID}", app.FindDonation)
		r.Get("/{id}/donations/{donationID}/history", app.DonationHistory)

		r.Group(func(r chi.Router) {
			r.Use(
				middleware.AuthJWT(opts.JWTSecret, opts.JWTIssuer),
				middleware.RateLimit(rate, time.Minute),
			)
			r.Post("/", app.CreateCampaign)
			r.Put("/{id}", app.UpdateCampaign)
			r.Post("/{id}/archive", app.ArchiveCampaign)
			r.Post("/{id}/donations", app.RegisterDonation)
			r.Put("/{id}/donations/{donationID}", app.UpdateDonation)
		})
	})

	return r
}
