package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/izzyreal/stitch/internal/protocol"
	"github.com/izzyreal/stitch/internal/search"
	"github.com/izzyreal/stitch/internal/server/httpx"
)

func (s *storefront) searchHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	res := s.Index().Search(q)
	httpx.WriteJSON(w, http.StatusOK, protocol.NewSearchResponse(q, res))
}

func (s *storefront) gamesByTagsHandler(w http.ResponseWriter, r *http.Request) {
	games := s.Index().GamesByTags(splitTags(r.URL.Query().Get("tags")))
	httpx.WriteJSON(w, http.StatusOK, protocol.GamesResponse{
		Games: protocol.NewGameViews(games),
		Total: len(games),
	})
}

func (s *storefront) gameByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		http.Error(w, "invalid game id", http.StatusBadRequest)
		return
	}
	g, ok := s.Index().Game(id)
	if !ok {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, protocol.GameResponse{Game: protocol.NewGameView(g)})
}

func (s *storefront) categoriesHandler(w http.ResponseWriter, r *http.Request) {
	cat := s.Catalog()
	httpx.WriteJSON(w, http.StatusOK, protocol.CategoriesResponse{
		Categories: cat.Categories(),
		Shortcuts:  search.CategoryNames(),
		Vocabulary: cat.Vocabulary(),
	})
}

func (s *storefront) categoryGamesHandler(w http.ResponseWriter, r *http.Request) {
	games := s.Index().GamesByCategory(chi.URLParam(r, "name"))
	httpx.WriteJSON(w, http.StatusOK, protocol.GamesResponse{
		Games: protocol.NewGameViews(games),
		Total: len(games),
	})
}

func (s *storefront) collectionsHandler(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, protocol.CollectionsResponse{Collections: s.Catalog().CollectionNames()})
}

func (s *storefront) collectionHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	games, ok := s.Index().Collection(name)
	if !ok {
		http.Error(w, "collection not found", http.StatusNotFound)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, protocol.CollectionResponse{Name: name, Games: protocol.NewGameViews(games)})
}

// splitTags parses "a,b , c" and drops empty entries.
func splitTags(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
