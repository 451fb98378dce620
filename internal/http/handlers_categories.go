package http

import (
	"net/http"
	"time"

	"finanse/internal/core"
	"finanse/internal/icons"
	"finanse/internal/view"
)

type categoryJSON struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Icon      string            `json:"icon"`
	Glyph     string            `json:"glyph"`
	Color     string            `json:"color"`
	Type      core.CategoryType `json:"type"`
	CreatedAt time.Time         `json:"createdAt"`
}

type createCategoryResponse struct {
	Category categoryJSON `json:"category"`
	// Similar lists existing names that look like duplicates of the new one.
	Similar []string `json:"similar"`
}

type categoriesResponse struct {
	Categories []view.CategoryRow `json:"categories"`
}

// GET /api/categories?type=&q=
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	typ, err := ParseCategoryTypeFilter(q.Get("type"))
	if err != nil {
		s.fail(w, r, "list categories", err)
		return
	}

	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	rows := s.categories.Render(snap, typ, q.Get("q"))
	NewResponse().Version(snap.Version).JSON(categoriesResponse{Categories: rows}).Write(w)
}

// POST /api/categories
func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	body := NewRequestBodyParser(w, r)
	if err := body.Parse(); err != nil {
		s.fail(w, r, "create category", err)
		return
	}

	c, similar, err := s.ledger.AddCategory(r.Context(), core.Category{
		Name:  body.Get("name"),
		Icon:  body.Get("icon"),
		Color: body.Get("color"),
		Type:  core.CategoryType(body.Get("type")),
	})
	if err != nil {
		s.fail(w, r, "create category", err)
		return
	}
	s.appMetrics.categoriesCreated.Add(1)
	if similar == nil {
		similar = []string{}
	}

	NewResponse().
		Status(http.StatusCreated).
		Version(s.ledger.Version()).
		JSON(createCategoryResponse{
			Category: categoryJSON{
				ID:        c.ID,
				Name:      c.Name,
				Icon:      c.Icon,
				Glyph:     icons.Glyph(c.Icon),
				Color:     c.Color,
				Type:      c.Type,
				CreatedAt: c.CreatedAt,
			},
			Similar: similar,
		}).
		Write(w)
}

// DELETE /api/categories/{id}
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, "delete category", err)
		return
	}
	s.appMetrics.deletions.Add(1)
	NewResponse().Status(http.StatusNoContent).Version(s.ledger.Version()).Write(w)
}
