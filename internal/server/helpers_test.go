package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanizeParam(t *testing.T) {
	tests := map[string]string{
		"id":           "ID",
		"postId":       "post ID",
		"parentPostId": "parent post ID",
		"kind":         "kind",
	}
	for in, want := range tests {
		assert.Equal(t, want, humanizeParam(in), in)
	}
}

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		p, err := parsePagination(c)
		if err != nil {
			return nil
		}
		return c.JSON(p)
	})

	tests := []struct {
		query  string
		status int
		want   Pagination
	}{
		{"", http.StatusOK, Pagination{Page: 1, Limit: 20}},
		{"?page=3&limit=50", http.StatusOK, Pagination{Page: 3, Limit: 50}},
		{"?limit=%20100%20", http.StatusOK, Pagination{Page: 1, Limit: 100}},
		{"?page=0", http.StatusBadRequest, Pagination{}},
		{"?limit=101", http.StatusBadRequest, Pagination{}},
		{"?limit=abc", http.StatusBadRequest, Pagination{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))
			require.NoError(t, err)
			require.Equal(t, tt.status, resp.StatusCode)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.want, decode[Pagination](t, resp))
			}
		})
	}
}
