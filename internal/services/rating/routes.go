package rating

import "github.com/gofiber/fiber/v3"

// SetupRoutes настраивает маршруты для оценок
func (s *RatingService) SetupRoutes(functions, api fiber.Router) {
	functions.Post("/rate-exchange", s.RateExchange)

	api.Get("/profiles/:id/ratings", s.GetUserRatings)
}
