package server

import (
	"strings"

	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/service"
	"chirp/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type mediaRequest struct {
	URL  string           `json:"url"`
	Kind models.MediaKind `json:"kind"`
}

type createPostRequest struct {
	Kind     models.PostKind `json:"kind"`
	Audience models.Audience `json:"audience"`
	Body     string          `json:"body"`
	ParentID *uint           `json:"parent_id"`
	Hashtags []string        `json:"hashtags"`
	Mentions []uint          `json:"mentions"`
	Media    []mediaRequest  `json:"media"`
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	media := make([]validation.MediaDraft, 0, len(req.Media))
	for _, m := range req.Media {
		media = append(media, validation.MediaDraft{URL: m.URL, Kind: m.Kind})
	}

	view, err := s.postService.CreatePost(c.UserContext(), middleware.ViewerFrom(c), service.CreatePostInput{
		Kind:     req.Kind,
		Audience: req.Audience,
		Body:     req.Body,
		ParentID: req.ParentID,
		Hashtags: req.Hashtags,
		Mentions: req.Mentions,
		Media:    media,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(view)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	view, err := s.postService.GetPost(c.UserContext(), middleware.ViewerFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// GetChildren handles GET /api/posts/:id/children?kind=REPLY&page=&limit=
func (s *Server) GetChildren(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	kind := models.PostKind(strings.ToUpper(strings.TrimSpace(c.Query("kind"))))
	if !kind.IsChild() {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("kind must be RESHARE, REPLY or QUOTE"))
	}

	p, err := parsePagination(c)
	if err != nil {
		return nil
	}

	page, err := s.postService.GetChildren(c.UserContext(), middleware.ViewerFrom(c), id, kind, p.Page, p.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return respondPage(c, page, p)
}
