package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ppmimesir/wisuda/internal/config"
	"github.com/ppmimesir/wisuda/internal/google"
	"github.com/ppmimesir/wisuda/internal/handlers"
	"github.com/ppmimesir/wisuda/internal/services"
)

// Deps is everything the routes need.
type Deps struct {
	Config      config.Config
	Log         *zap.SugaredLogger
	DB          *gorm.DB
	Registrants *services.Registrants
	Quota       *services.QuotaGate
	Media       *services.MediaService
	Settings    *services.Settings
	Google      *google.Client
	Auth        *handlers.AdminAuth
	Gatherer    prometheus.Gatherer
}

func Router(d Deps) http.Handler {
	env := handlers.Env{Log: d.Log, Production: d.Config.Production()}
	loc := d.Config.Location()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   d.Config.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	r.Get("/healthz", handlers.Health(d.DB))
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	// Public API
	r.Route("/api", func(ar chi.Router) {
		ar.Post("/media", handlers.UploadMedia(env, d.Media, d.Config.MaxUploadBytes))
		ar.Post("/registrants", handlers.CreateRegistrant(env, d.Registrants))
		ar.Get("/registration/status", handlers.RegistrationStatus(env, d.Quota))
		ar.Get("/verify/{reg_id}", handlers.Verify(env, d.Registrants))
	})

	// QR image
	r.Get("/qr/{reg_id}.png", handlers.QR(env, d.Registrants))

	r.Route("/admin", func(ar chi.Router) {
		ar.Post("/login", d.Auth.Login(env))
		ar.Post("/logout", d.Auth.Logout)

		ar.Group(func(ag chi.Router) {
			ag.Use(d.Auth.RequireAdmin)

			// Registrants
			ag.Get("/registrants", handlers.AdminListRegistrants(env, d.Registrants))
			ag.Get("/registrants.csv", handlers.AdminRosterCSV(env, d.Registrants, loc))
			ag.Get("/registrants/{id}", handlers.AdminGetRegistrant(env, d.Registrants))
			ag.Patch("/registrants/{id}", handlers.AdminUpdateRegistrant(env, d.Registrants))
			ag.Delete("/registrants/{id}", handlers.AdminDeleteRegistrant(env, d.Registrants))
			ag.Post("/registrants/{id}/regenerate", handlers.AdminRegenerate(env, d.Registrants))

			// Capacity & settings
			ag.Get("/capacity", handlers.AdminCapacity(env, d.Quota, d.Registrants))
			ag.Get("/settings", handlers.AdminListSettings(env, d.Settings))
			ag.Post("/settings", handlers.AdminCreateSettings(env, d.Settings))
			ag.Post("/settings/{id}/activate", handlers.AdminActivateSettings(env, d.Settings))
			ag.Delete("/settings/{id}", handlers.AdminDeleteSettings(env, d.Settings))

			ag.Get("/media/{id}", handlers.AdminMedia(env, d.Media))

			// Google Sheets export
			ag.Get("/google/connect", handlers.AdminGoogleConnect(env, d.Google))
			ag.Get("/google/callback", handlers.AdminGoogleCallback(env, d.Google))
			ag.Get("/google/status", handlers.AdminGoogleStatus(env, d.Google))
			ag.Post("/google/sheet", handlers.AdminGoogleSheet(env, d.Google))
			ag.Post("/google/export", handlers.AdminGoogleExport(env, d.Google, d.Registrants, loc))
		})
	})

	return r
}

// requestLogger writes one structured line per request.
func requestLogger(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Infow("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
