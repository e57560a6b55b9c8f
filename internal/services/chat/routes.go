package chat

import "github.com/gofiber/fiber/v3"

// SetupRoutes настраивает маршруты для API сообщений
func (s *ChatService) SetupRoutes(functions, api fiber.Router) {
	functions.Post("/send-message", s.SendMessage)

	conversations := api.Group("/conversations")
	conversations.Get("/", s.GetConversations)
	conversations.Get("/:id/messages", s.GetConversationMessages)
}
