package server

import (
	"chirp/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/feed?page=&limit=
func (s *Server) GetFeed(c *fiber.Ctx) error {
	p, err := parsePagination(c)
	if err != nil {
		return nil
	}

	page, err := s.feedService.GetFeed(c.UserContext(), middleware.ViewerFrom(c), p.Page, p.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return respondPage(c, page, p)
}
