package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func buildRouter(s *storefront) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// UI
	r.Get("/", uiHandler)

	// Health/info
	r.Get("/healthz", healthzHandler)
	r.Get("/api/v1/server-info", s.serverInfoHandler)

	// Catalog APIs
	r.Get("/api/v1/search", s.searchHandler)
	r.Get("/api/v1/games", s.gamesByTagsHandler)
	r.Get("/api/v1/games/{id}", s.gameByIDHandler)
	r.Get("/api/v1/categories", s.categoriesHandler)
	r.Get("/api/v1/categories/{name}/games", s.categoryGamesHandler)
	r.Get("/api/v1/collections", s.collectionsHandler)
	r.Get("/api/v1/collections/{name}", s.collectionHandler)

	// Carousel sessions
	r.Post("/api/v1/carousel/sessions", s.createCarouselHandler)
	r.Get("/api/v1/carousel/sessions/{id}", s.carouselStatusHandler)
	r.Delete("/api/v1/carousel/sessions/{id}", s.closeCarouselHandler)
	r.Get("/api/v1/carousel/sessions/{id}/events", s.carouselEventsHandler)
	r.Post("/api/v1/carousel/sessions/{id}/{action}", s.carouselActionHandler)

	return r
}
