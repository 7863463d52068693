// Package render turns catalog state into view models and HTML.
package render

import (
	"strings"
	"time"

	"github.com/starford/docuflow/internal/filter"
	"github.com/starford/docuflow/internal/models"
)

// Icon is a Font Awesome file icon class.
type Icon string

const (
	IconPDF         Icon = "fa-file-pdf"
	IconImage       Icon = "fa-file-image"
	IconSpreadsheet Icon = "fa-file-excel"
	IconWord        Icon = "fa-file-word"
	IconFile        Icon = "fa-file"
)

// iconRules is evaluated in order; the first rule with a matching
// substring wins.
var iconRules = []struct {
	needles []string
	icon    Icon
}{
	{[]string{"pdf"}, IconPDF},
	{[]string{"image"}, IconImage},
	{[]string{"spreadsheet", "excel"}, IconSpreadsheet},
	{[]string{"word", "doc"}, IconWord},
}

// FileIcon picks the icon for a document type string.
func FileIcon(typ string) Icon {
	for _, rule := range iconRules {
		for _, n := range rule.needles {
			if strings.Contains(typ, n) {
				return rule.icon
			}
		}
	}
	return IconFile
}

// InvalidDate is shown for dates that cannot be parsed.
const InvalidDate = "Invalid Date"

// FormatDate renders an ISO-8601 timestamp or a bare date as "Jan 2, 2006"
// in UTC.
func FormatDate(iso string) string {
	t, err := time.Parse(time.RFC3339Nano, iso)
	if err != nil {
		if t, err = time.Parse(time.DateOnly, iso); err != nil {
			return InvalidDate
		}
	}
	return t.UTC().Format("Jan 2, 2006")
}

// ResolveCategory finds the category with id, falling back to the first
// category when the reference is dangling. It returns the zero Category
// only when cats is empty.
func ResolveCategory(id string, cats []models.Category) models.Category {
	for _, c := range cats {
		if c.ID == id {
			return c
		}
	}
	if len(cats) == 0 {
		return models.Category{}
	}
	return cats[0]
}

// Card is one document tile in the grid.
type Card struct {
	ID              string
	Name            string
	Icon            Icon
	Date            string
	Size            string
	Category        string
	Color           string
	BadgeBackground string
}

// GridView is the document grid, or an empty-state marker.
type GridView struct {
	Cards []Card
	Empty bool
}

// Grid builds cards for docs in order.
func Grid(docs []models.Document, cats []models.Category) GridView {
	if len(docs) == 0 {
		return GridView{Cards: []Card{}, Empty: true}
	}
	cards := make([]Card, len(docs))
	for i, d := range docs {
		cat := ResolveCategory(d.CategoryID, cats)
		cards[i] = Card{
			ID:              d.ID,
			Name:            d.Name,
			Icon:            FileIcon(d.Type),
			Date:            FormatDate(d.Date),
			Size:            d.Size,
			Category:        cat.Name,
			Color:           cat.Color,
			BadgeBackground: cat.Color + "20",
		}
	}
	return GridView{Cards: cards}
}

// NavItem is one entry of the category sidebar.
type NavItem struct {
	ID     string
	Name   string
	Color  string
	Active bool
}

// Option is one choice in the document form's category selector.
type Option struct {
	ID   string
	Name string
}

// NavView is the sidebar plus the mirrored selector options.
type NavView struct {
	All     NavItem
	Items   []NavItem
	Options []Option
}

// Categories builds the sidebar with the active entry highlighted. The
// "All" entry is synthetic and not part of cats.
func Categories(cats []models.Category, active string) NavView {
	v := NavView{
		All:     NavItem{ID: filter.All, Name: "All Documents", Active: active == filter.All},
		Items:   make([]NavItem, len(cats)),
		Options: make([]Option, len(cats)),
	}
	for i, c := range cats {
		v.Items[i] = NavItem{ID: c.ID, Name: c.Name, Color: c.Color, Active: c.ID == active}
		v.Options[i] = Option{ID: c.ID, Name: c.Name}
	}
	return v
}

// Heading is the page title for the active category.
func Heading(active string, cats []models.Category) string {
	if active == filter.All {
		return "All Documents"
	}
	name := "Documents"
	for _, c := range cats {
		if c.ID == active && c.Name != "" {
			name = c.Name
			break
		}
	}
	return name + " Documents"
}

// Swatch is one color choice in the category dialog.
type Swatch struct {
	Color    string
	Selected bool
}

// UploadDialog is the document-creation dialog.
type UploadDialog struct {
	Visible    bool
	Name       string
	CategoryID string
}

// CategoryDialog is the category-creation dialog.
type CategoryDialog struct {
	Visible  bool
	Name     string
	Swatches []Swatch
}

// ConfirmPrompt is a pending yes/no question.
type ConfirmPrompt struct {
	Prompt string
	Action string // form target that receives confirm=yes|no
}

// Page is everything needed to draw the organizer.
type Page struct {
	Heading        string
	Active         string
	Search         string
	Nav            NavView
	Grid           GridView
	Upload         UploadDialog
	CategoryDialog CategoryDialog
	Notices        []string
	Confirm        *ConfirmPrompt
	LiveUpdates    bool
}
