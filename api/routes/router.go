package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/journeyos/backend/api/controllers"
	"github.com/journeyos/backend/api/middleware"
	"github.com/journeyos/backend/internal/notifications"
	"github.com/journeyos/backend/internal/preferences"
	pkgauth "github.com/journeyos/backend/pkg/auth"
	"github.com/journeyos/backend/pkg/config"
	"github.com/journeyos/backend/pkg/logger"
)

// RouterParams carries everything the HTTP surface needs.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	Verifier    pkgauth.TokenVerifier
	DB          controllers.Pinger
	Redis       controllers.Pinger
	PubSub      controllers.Pinger
	Notifier    notifications.Service
	Preferences preferences.Service
	// Realtime serves the websocket endpoint; it runs its own token check
	// before the upgrade, so it mounts outside the Auth middleware.
	Realtime http.Handler
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":     params.DB,
			"redis":  params.Redis,
			"pubsub": params.PubSub,
		}))
	})

	r.Handle("/metrics", promhttp.Handler())

	if params.Realtime != nil {
		r.Handle("/ws", params.Realtime)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(params.Verifier, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(params.Notifier, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(params.Notifier, logg))
			r.Patch("/{notificationId}/read", controllers.MarkNotificationRead(params.Notifier, logg))
			r.Patch("/read-all", controllers.MarkAllNotificationsRead(params.Notifier, logg))
		})

		r.Route("/users/me/notification-preferences", func(r chi.Router) {
			r.Get("/", controllers.GetNotificationPreferences(params.Preferences, logg))
			r.Patch("/", controllers.UpdateNotificationPreferences(params.Preferences, logg))
			r.Delete("/", controllers.ResetNotificationPreferences(params.Preferences, logg))
		})
	})

	return r
}
