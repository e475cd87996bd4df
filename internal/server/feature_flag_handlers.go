package server

import (
	"chirp/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags handles GET /api/feature-flags
// It returns the configured flags and how each evaluates for the current viewer.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	viewer := middleware.ViewerFrom(c)

	if s.featureFlags == nil {
		return c.JSON(fiber.Map{
			"raw":       map[string]string{},
			"evaluated": map[string]bool{},
		})
	}

	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(viewer.UserID),
	})
}
