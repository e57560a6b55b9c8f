package notification

import "github.com/gofiber/fiber/v3"

// SetupRoutes настраивает маршруты для API уведомлений
func (s *NotificationService) SetupRoutes(api fiber.Router) {
	notifications := api.Group("/notifications")

	notifications.Get("/", s.GetNotifications)
	notifications.Put("/read-all", s.MarkAllRead)
	notifications.Put("/:id/read", s.MarkNotificationRead)
}
