package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Ryan02062001/thankaroo-backend/api/controllers"
	webhookcontrollers "github.com/Ryan02062001/thankaroo-backend/api/controllers/webhooks"
	"github.com/Ryan02062001/thankaroo-backend/api/middleware"
	"github.com/Ryan02062001/thankaroo-backend/internal/ai"
	"github.com/Ryan02062001/thankaroo-backend/internal/auth"
	"github.com/Ryan02062001/thankaroo-backend/internal/billing"
	"github.com/Ryan02062001/thankaroo-backend/internal/gifts"
	"github.com/Ryan02062001/thankaroo-backend/internal/lists"
	"github.com/Ryan02062001/thankaroo-backend/internal/notes"
	"github.com/Ryan02062001/thankaroo-backend/internal/plans"
	"github.com/Ryan02062001/thankaroo-backend/internal/reminders"
	"github.com/Ryan02062001/thankaroo-backend/internal/usage"
	stripewebhook "github.com/Ryan02062001/thankaroo-backend/internal/webhooks/stripe"
	"github.com/Ryan02062001/thankaroo-backend/pkg/auth/session"
	"github.com/Ryan02062001/thankaroo-backend/pkg/config"
	"github.com/Ryan02062001/thankaroo-backend/pkg/logger"
	"github.com/Ryan02062001/thankaroo-backend/pkg/metrics"
	"github.com/Ryan02062001/thankaroo-backend/pkg/redis"
	"github.com/Ryan02062001/thankaroo-backend/pkg/stripe"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Deps collects everything the HTTP surface needs.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	Redis          *redis.Client
	SessionManager sessionManager
	ReadyChecks    map[string]func() error

	AuthService     auth.Service
	RegisterService auth.RegisterService

	Lists     *lists.Service
	Gifts     *gifts.Service
	Notes     *notes.Service
	Reminders *reminders.Service
	Drafts    *ai.Service

	Plans       *plans.Service
	Usage       *usage.Repository
	Billing     *billing.Service
	BillingRepo billing.Repository

	StripeClient  *stripe.Client
	StripeWebhook *stripewebhook.Service
	WebhookGuard  *stripewebhook.IdempotencyGuard

	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(d.HTTPMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, d.ReadyChecks, logg))
	})

	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/prices", controllers.PublicPrices(d.Billing, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(d.StripeWebhook, d.StripeClient, d.WebhookGuard, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).Post("/login", controllers.AuthLogin(d.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, d.Redis, logg)).Post("/register", controllers.AuthRegister(d.RegisterService, logg))
		r.Post("/logout", controllers.AuthLogout(d.SessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.SessionManager, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.SessionManager, logg))

		r.Route("/lists", func(r chi.Router) {
			r.Get("/", controllers.ListsIndex(d.Lists, logg))
			r.Post("/", controllers.ListsCreate(d.Lists, logg))
			r.Route("/{listId}", func(r chi.Router) {
				r.Get("/", controllers.ListsGet(d.Lists, logg))
				r.Patch("/", controllers.ListsUpdate(d.Lists, logg))
				r.Delete("/", controllers.ListsDelete(d.Lists, logg))

				r.Route("/gifts", func(r chi.Router) {
					r.Get("/", controllers.GiftsIndex(d.Gifts, logg))
					r.Post("/", controllers.GiftsCreate(d.Gifts, logg))
					r.Get("/export.csv", controllers.GiftsExportCSV(d.Gifts, logg))
					r.Post("/import", controllers.GiftsImportCSV(d.Gifts, logg))
				})

				r.Route("/reminders", func(r chi.Router) {
					r.Get("/", controllers.RemindersIndex(d.Reminders, logg))
					r.Post("/", controllers.RemindersCreate(d.Reminders, logg))
				})

				r.Route("/reminder-settings", func(r chi.Router) {
					r.Get("/", controllers.ReminderSettingsGet(d.Reminders, logg))
					r.Put("/", controllers.ReminderSettingsPut(d.Reminders, logg))
				})
			})
		})

		r.Route("/gifts/{giftId}", func(r chi.Router) {
			r.Patch("/", controllers.GiftsUpdate(d.Gifts, logg))
			r.Delete("/", controllers.GiftsDelete(d.Gifts, logg))
			r.Post("/toggle-thank-you", controllers.GiftsToggleThankYou(d.Gifts, logg))
		})

		r.Route("/notes", func(r chi.Router) {
			r.Get("/", controllers.NotesIndex(d.Notes, logg))
			r.Post("/", controllers.NotesCreate(d.Notes, logg))
			r.Post("/draft", controllers.NotesDraft(d.Drafts, logg))
			r.Route("/{noteId}", func(r chi.Router) {
				r.Put("/", controllers.NotesUpdate(d.Notes, logg))
				r.Delete("/", controllers.NotesDelete(d.Notes, logg))
				r.Post("/sent", controllers.NotesMarkSent(d.Notes, logg))
			})
		})

		r.Route("/reminders", func(r chi.Router) {
			r.Get("/calendar.ics", controllers.RemindersCalendar(d.Reminders, logg))
			r.Route("/{reminderId}", func(r chi.Router) {
				r.Patch("/", controllers.RemindersUpdate(d.Reminders, logg))
				r.Delete("/", controllers.RemindersDelete(d.Reminders, logg))
				r.Post("/complete", controllers.RemindersComplete(d.Reminders, logg))
			})
		})

		r.Route("/billing", func(r chi.Router) {
			r.Get("/summary", controllers.BillingSummary(d.Plans, d.Usage, d.BillingRepo, logg))
			r.Post("/checkout-session", controllers.BillingCheckoutSession(d.Billing, logg))
			r.Get("/portal-session", controllers.BillingPortalSession(d.Billing, logg))
			r.Post("/portal-session", controllers.BillingPortalSession(d.Billing, logg))
			r.Post("/backfill", controllers.BillingBackfill(d.Billing, logg))
		})
	})

	return r
}
