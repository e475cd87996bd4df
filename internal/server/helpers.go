package server

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"chirp/internal/models"
	"chirp/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed page/limit query parameters.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

const defaultPageLimit = 20

// PagedResponse is the envelope of every list endpoint.
type PagedResponse struct {
	Data       []models.PostView `json:"data"`
	Pagination PageInfo          `json:"pagination"`
}

type PageInfo struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// parsePagination reads page and limit. Missing values take defaults; present
// values outside page >= 1 and 1 <= limit <= MaxPageSize are rejected with 400.
func parsePagination(c *fiber.Ctx) (Pagination, error) {
	p := Pagination{Page: 1, Limit: defaultPageLimit}

	var err error
	if p.Page, err = positiveQuery(c, "page", p.Page, 0); err != nil {
		return p, err
	}
	if p.Limit, err = positiveQuery(c, "limit", p.Limit, service.MaxPageSize); err != nil {
		return p, err
	}
	return p, nil
}

// positiveQuery parses an integer query parameter that must be >= 1 and, when
// max > 0, <= max. On failure it writes a 400 and returns errResponseWritten.
func positiveQuery(c *fiber.Ctx, name string, def, max int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 || (max > 0 && v > max) {
		msg := name + " must be a positive integer"
		if max > 0 {
			msg = name + " must be between 1 and " + strconv.Itoa(max)
		}
		_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(msg))
		return 0, errResponseWritten
	}
	return v, nil
}

// parseBool reads a boolean query flag. Absent means false.
func parseBool(c *fiber.Ctx, name string) (bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(name+" must be true or false"))
		return false, errResponseWritten
	}
	return v, nil
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "postId" -> "post ID", "parentPostId" -> "parent post ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// respondError writes err with the status its code maps to.
func respondError(c *fiber.Ctx, err error) error {
	if models.ErrorCode(err) == "" {
		err = models.NewInternalError(err)
	}
	return models.RespondWithError(c, models.StatusFor(err), err)
}

func respondPage(c *fiber.Ctx, page *models.Page, p Pagination) error {
	return c.JSON(PagedResponse{
		Data: page.Posts,
		Pagination: PageInfo{
			Page:  p.Page,
			Limit: p.Limit,
			Total: page.Total,
		},
	})
}
