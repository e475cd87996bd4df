package server

import (
	"strings"

	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SearchPosts handles GET /api/search?query=&mode=&scope=&mediaOnly=&page=&limit=
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("query", c.Query("q")))
	if query == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Search query is required"))
	}

	mode := service.SearchMode(strings.ToLower(c.Query("mode", string(service.SearchContent))))
	if !mode.Valid() {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewUnsupportedSearchModeError(string(mode)))
	}

	scope := service.SearchScope(strings.ToLower(c.Query("scope")))
	if !scope.Valid() {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("scope must be everyone or following"))
	}

	mediaOnly, err := parseBool(c, "mediaOnly")
	if err != nil {
		return nil
	}
	p, err := parsePagination(c)
	if err != nil {
		return nil
	}

	page, err := s.searchService.Search(c.UserContext(), middleware.ViewerFrom(c), service.SearchInput{
		Query:     query,
		Mode:      mode,
		Scope:     scope,
		MediaOnly: mediaOnly,
		Page:      p.Page,
		PageSize:  p.Limit,
	})
	if err != nil {
		return respondError(c, err)
	}
	return respondPage(c, page, p)
}
