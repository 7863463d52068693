package api

import (
	"github.com/starford/docuflow/internal/models"
	"github.com/starford/docuflow/internal/render"
)

// CreateDocumentRequest is the request body for creating a document.
// An empty CategoryID files the document under the first category.
type CreateDocumentRequest struct {
	Name       string `json:"name"`
	CategoryID string `json:"categoryId"`
}

// CreateCategoryRequest is the request body for creating a category.
type CreateCategoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// DocumentListResponse wraps a filtered document listing.
type DocumentListResponse struct {
	Documents []models.Document `json:"documents"`
	Total     int               `json:"total"`
}

// CategoryListResponse wraps the category listing.
type CategoryListResponse struct {
	Categories []models.Category `json:"categories"`
}

// ConfirmRequiredResponse is returned when a delete is not confirmed.
type ConfirmRequiredResponse struct {
	Error  string `json:"error"`
	Prompt string `json:"prompt"`
}

// CardDTO is one grid card as shown on the page.
type CardDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Icon       string `json:"icon"`
	Date       string `json:"date"`
	Size       string `json:"size"`
	Category   string `json:"category"`
	Color      string `json:"color"`
	Background string `json:"background"`
}

// NavItemDTO is one sidebar entry.
type NavItemDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color,omitempty"`
	Active bool   `json:"active"`
}

// ViewResponse is the session's current render model.
type ViewResponse struct {
	Heading        string       `json:"heading"`
	ActiveCategory string       `json:"activeCategory"`
	Search         string       `json:"search"`
	Navigation     []NavItemDTO `json:"navigation"`
	Cards          []CardDTO    `json:"cards"`
	Empty          bool         `json:"empty"`
	UploadOpen     bool         `json:"uploadOpen"`
	CategoryOpen   bool         `json:"categoryOpen"`
}

func newViewResponse(p render.Page) ViewResponse {
	nav := make([]NavItemDTO, 0, len(p.Nav.Items)+1)
	for _, it := range append([]render.NavItem{p.Nav.All}, p.Nav.Items...) {
		nav = append(nav, NavItemDTO{ID: it.ID, Name: it.Name, Color: it.Color, Active: it.Active})
	}
	cards := make([]CardDTO, len(p.Grid.Cards))
	for i, c := range p.Grid.Cards {
		cards[i] = CardDTO{
			ID:         c.ID,
			Name:       c.Name,
			Icon:       string(c.Icon),
			Date:       c.Date,
			Size:       c.Size,
			Category:   c.Category,
			Color:      c.Color,
			Background: c.BadgeBackground,
		}
	}
	return ViewResponse{
		Heading:        p.Heading,
		ActiveCategory: p.Active,
		Search:         p.Search,
		Navigation:     nav,
		Cards:          cards,
		Empty:          p.Grid.Empty,
		UploadOpen:     p.Upload.Visible,
		CategoryOpen:   p.CategoryDialog.Visible,
	}
}
