// Package server собирает Fiber-приложение и HTTP-обработчик realtime-слушателя.
package server

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/rajivgeraev/barterhub/internal/cascade"
	"github.com/rajivgeraev/barterhub/internal/config"
	"github.com/rajivgeraev/barterhub/internal/db"
	"github.com/rajivgeraev/barterhub/internal/events"
	applog "github.com/rajivgeraev/barterhub/internal/logger"
	"github.com/rajivgeraev/barterhub/internal/middleware"
	"github.com/rajivgeraev/barterhub/internal/realtime"
	"github.com/rajivgeraev/barterhub/internal/services/chat"
	"github.com/rajivgeraev/barterhub/internal/services/exchange"
	"github.com/rajivgeraev/barterhub/internal/services/favorite"
	"github.com/rajivgeraev/barterhub/internal/services/item"
	"github.com/rajivgeraev/barterhub/internal/services/notification"
	"github.com/rajivgeraev/barterhub/internal/services/profile"
	"github.com/rajivgeraev/barterhub/internal/services/rating"
)

// Store объединяет методы хранилища всех сервисов
type Store interface {
	exchange.Store
	rating.Store
	chat.Store
	notification.Store
	item.Store
	profile.Store
	favorite.Store
	Ping(ctx context.Context) error
}

// Deps внешние зависимости приложения, которыми владеет точка входа
type Deps struct {
	Store    Store
	Tokens   middleware.TokenVerifier
	Events   events.Publisher
	Realtime realtime.Publisher
}

// Server собранное приложение
type Server struct {
	App           *fiber.App
	Notifications *notification.NotificationService
	// Cascade фоновые побочные эффекты; дренируется при остановке
	Cascade *cascade.Runner
}

// New создает приложение и регистрирует все маршруты
func New(cfg *config.Config, deps Deps, log logrus.FieldLogger) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "BarterHub API",
		ErrorHandler: middleware.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowOrigins,
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Client-Info", "Apikey"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))
	app.Use(middleware.Metrics())

	app.Get("/health", healthHandler(deps.Store))

	runner := cascade.NewRunner(applog.ForService(log, "cascade"))
	notifications := notification.NewNotificationService(deps.Store, deps.Realtime, applog.ForService(log, "notification"))
	exchanges := exchange.NewExchangeService(deps.Store, notifications, deps.Events, runner, applog.ForService(log, "exchange"))
	ratings := rating.NewRatingService(deps.Store, notifications, deps.Events, runner, applog.ForService(log, "rating"))
	chats := chat.NewChatService(deps.Store, notifications, deps.Events, runner, cfg.MessageMaxLength, applog.ForService(log, "chat"))
	items := item.NewItemService(deps.Store, applog.ForService(log, "item"))
	profiles := profile.NewProfileService(deps.Store)
	favorites := favorite.NewFavoriteService(deps.Store)

	auth := middleware.AuthMiddleware(deps.Tokens)
	functions := app.Group("/functions/v1", auth)
	api := app.Group("/api", auth)

	// Ответ на preflight без заголовка Access-Control-Request-Method
	functions.Options("/*", func(c fiber.Ctx) error {
		return c.SendString("ok")
	})

	exchanges.SetupRoutes(functions, api)
	ratings.SetupRoutes(functions, api)
	chats.SetupRoutes(functions, api)
	notifications.SetupRoutes(api)
	items.SetupRoutes(api)
	profiles.SetupRoutes(api)
	favorites.SetupRoutes(api)

	return &Server{App: app, Notifications: notifications, Cascade: runner}
}

func healthHandler(store Store) fiber.Handler {
	return func(c fiber.Ctx) error {
		ctx, cancel := db.GetContext(c.Context())
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
				"error":  err.Error(),
			})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// RealtimeHandler обслуживает websocket-ленту и метрики Prometheus
func RealtimeHandler(ws http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", ws)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
