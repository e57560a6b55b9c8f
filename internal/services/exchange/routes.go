package exchange

import "github.com/gofiber/fiber/v3"

// SetupRoutes настраивает маршруты для API обменов
func (s *ExchangeService) SetupRoutes(functions, api fiber.Router) {
	functions.Post("/create-exchange-request", s.CreateExchangeRequest)
	functions.Post("/respond-to-exchange", s.RespondToExchange)
	functions.Post("/complete-exchange", s.CompleteExchange)

	exchanges := api.Group("/exchanges")
	exchanges.Get("/", s.GetMyExchanges)
	exchanges.Get("/:id", s.GetExchange)
}
