package favorite

import "github.com/gofiber/fiber/v3"

// SetupRoutes настраивает маршруты для API избранного
func (s *FavoriteService) SetupRoutes(api fiber.Router) {
	favorites := api.Group("/favorites")

	favorites.Get("/", s.GetFavorites)
	favorites.Post("/", s.AddToFavorites)
	favorites.Delete("/:id", s.RemoveFromFavorites)
	favorites.Get("/:id/check", s.CheckFavorite)
}
