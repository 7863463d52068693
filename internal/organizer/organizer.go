// Package organizer holds the interactive state of the document organizer
// and the actions that change it.
package organizer

import (
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/docuflow/internal/apperr"
	"github.com/starford/docuflow/internal/catalog"
	"github.com/starford/docuflow/internal/filter"
	"github.com/starford/docuflow/internal/models"
	"github.com/starford/docuflow/internal/render"
)

// User-facing messages.
const (
	MsgDocumentNameRequired = "Please enter a document name"
	MsgCategoryNameRequired = "Please enter a category name"
	MsgColorRequired        = "Please select a color"
	MsgConfirmDelete        = "Are you sure you want to delete this document?"
	MsgPreviewUnavailable   = "Document preview would open here!"
)

// Simulated attributes of every new document.
const (
	SimulatedType = "pdf"
	SimulatedSize = "1.2 MB"
)

// Swatches is the fixed palette offered by the category dialog.
var Swatches = []string{
	"#ef4444", "#f59e0b", "#10b981", "#06b6d4",
	"#3b82f6", "#8b5cf6", "#ec4899", "#64748b",
}

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type uploadDialog struct {
	visible    bool
	name       string
	categoryID string
}

type categoryDialog struct {
	visible bool
	name    string
	color   string
}

// Session is the organizer's application state: the catalog plus the
// active filters and the two dialogs. All methods are safe for concurrent
// use; they serialize on one lock like a single interaction thread.
type Session struct {
	store  *catalog.Store
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	active   string
	search   string
	upload   uploadDialog
	category categoryDialog
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithClock overrides the time source used for new documents.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// NewSession creates a session showing all documents with both dialogs hidden.
func NewSession(store *catalog.Store, opts ...SessionOption) *Session {
	s := &Session{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
		active: filter.All,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying catalog.
func (s *Session) Store() *catalog.Store {
	return s.store
}

// SelectCategory makes id (a category id or filter.All) the active filter.
func (s *Session) SelectCategory(id string) {
	if id == "" {
		id = filter.All
	}
	s.mu.Lock()
	s.active = id
	s.mu.Unlock()
}

// ActiveCategory returns the active category filter.
func (s *Session) ActiveCategory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetSearch replaces the free-text search term.
func (s *Session) SetSearch(q string) {
	s.mu.Lock()
	s.search = q
	s.mu.Unlock()
}

// Search returns the current search term.
func (s *Session) Search() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search
}

// Visible returns the documents that pass the active filters.
func (s *Session) Visible() []models.Document {
	s.mu.Lock()
	active, search := s.active, s.search
	s.mu.Unlock()
	return filter.Apply(s.store.Documents(), active, search)
}

// OpenUploadDialog shows the document-creation dialog.
func (s *Session) OpenUploadDialog() {
	s.mu.Lock()
	s.upload.visible = true
	s.mu.Unlock()
}

// CloseUploadDialog hides the document-creation dialog.
func (s *Session) CloseUploadDialog() {
	s.mu.Lock()
	s.upload.visible = false
	s.mu.Unlock()
}

// SetDocumentName sets the name field of the document dialog.
func (s *Session) SetDocumentName(name string) {
	s.mu.Lock()
	s.upload.name = name
	s.mu.Unlock()
}

// SetDocumentCategory sets the category selector of the document dialog.
func (s *Session) SetDocumentCategory(id string) {
	s.mu.Lock()
	s.upload.categoryID = id
	s.mu.Unlock()
}

// PickFile copies a chosen or dropped file's name into the name field.
// The file itself is never read. An empty name leaves the field alone.
func (s *Session) PickFile(filename string) {
	if filename == "" {
		return
	}
	s.SetDocumentName(filename)
}

// OpenCategoryDialog shows the category-creation dialog.
func (s *Session) OpenCategoryDialog() {
	s.mu.Lock()
	s.category.visible = true
	s.mu.Unlock()
}

// CloseCategoryDialog hides the category-creation dialog.
func (s *Session) CloseCategoryDialog() {
	s.mu.Lock()
	s.category.visible = false
	s.mu.Unlock()
}

// SetCategoryName sets the name field of the category dialog.
func (s *Session) SetCategoryName(name string) {
	s.mu.Lock()
	s.category.name = name
	s.mu.Unlock()
}

// SelectColor selects a swatch in the category dialog.
func (s *Session) SelectColor(color string) {
	s.mu.Lock()
	s.category.color = color
	s.mu.Unlock()
}

// SaveDocument creates a document from the dialog fields, then closes the
// dialog and clears the name. On a validation failure the user is notified
// and nothing changes.
func (s *Session) SaveDocument(p Prompter) (*models.Document, error) {
	s.mu.Lock()
	name, categoryID := s.upload.name, s.upload.categoryID
	s.mu.Unlock()

	doc, err := s.AddDocument(name, categoryID, p)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.upload.visible = false
	s.upload.name = ""
	s.mu.Unlock()
	return doc, nil
}

// AddDocument validates name and records a new document in categoryID. An
// empty categoryID means the first category, which is what the selector
// shows by default.
func (s *Session) AddDocument(name, categoryID string, p Prompter) (*models.Document, error) {
	if err := validation.Validate(name, validation.Required.Error(MsgDocumentNameRequired)); err != nil {
		return nil, s.reject(p, err)
	}
	if categoryID == "" {
		if cats := s.store.Categories(); len(cats) > 0 {
			categoryID = cats[0].ID
		}
	}

	doc := models.Document{
		ID:         catalog.NewID(),
		Name:       name,
		CategoryID: categoryID,
		Type:       SimulatedType,
		Size:       SimulatedSize,
		Date:       models.FormatDate(s.now()),
	}
	if err := s.store.AddDocument(doc); err != nil {
		return nil, err
	}
	s.logger.Debug("document created", slog.String("id", doc.ID), slog.String("category", categoryID))
	return &doc, nil
}

// DeleteDocument asks for confirmation and removes the document. A declined
// prompt is a no-op and reports false.
func (s *Session) DeleteDocument(id string, p Prompter) (bool, error) {
	if !p.Confirm(MsgConfirmDelete) {
		return false, nil
	}
	removed, err := s.store.RemoveDocument(id)
	if err != nil {
		return removed, err
	}
	s.logger.Debug("document deleted", slog.String("id", id), slog.Bool("removed", removed))
	return removed, nil
}

// SaveCategory creates a category from the dialog fields, then closes the
// dialog and clears the name. The selected color is kept.
func (s *Session) SaveCategory(p Prompter) (*models.Category, error) {
	s.mu.Lock()
	name, color := s.category.name, s.category.color
	s.mu.Unlock()

	cat, err := s.AddCategory(name, color, p)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.category.visible = false
	s.category.name = ""
	s.mu.Unlock()
	return cat, nil
}

// AddCategory validates and appends a category. Names and colors need not
// be unique.
func (s *Session) AddCategory(name, color string, p Prompter) (*models.Category, error) {
	err := validation.Errors{
		"name": validation.Validate(name, validation.Required.Error(MsgCategoryNameRequired)),
		"color": validation.Validate(color,
			validation.Required.Error(MsgColorRequired),
			validation.Match(hexColorRe).Error(MsgColorRequired),
		),
	}.Filter()
	if err != nil {
		return nil, s.reject(p, firstError(err, "name", "color"))
	}

	cat := models.Category{ID: catalog.NewID(), Name: name, Color: color}
	if err := s.store.AddCategory(cat); err != nil {
		return nil, err
	}
	s.logger.Debug("category created", slog.String("id", cat.ID))
	return &cat, nil
}

// OpenDocument is the card's primary action. Previews are not implemented,
// so the user is only told so.
func (s *Session) OpenDocument(id string, p Prompter) {
	s.logger.Debug("opening document", slog.String("id", id))
	p.Notify(MsgPreviewUnavailable)
}

// View renders the current state.
func (s *Session) View() render.Page {
	s.mu.Lock()
	active, search := s.active, s.search
	upload, category := s.upload, s.category
	s.mu.Unlock()

	cats := s.store.Categories()
	docs := filter.Apply(s.store.Documents(), active, search)

	swatches := make([]render.Swatch, len(Swatches))
	for i, c := range Swatches {
		swatches[i] = render.Swatch{Color: c, Selected: c == category.color}
	}

	return render.Page{
		Heading: render.Heading(active, cats),
		Active:  active,
		Search:  search,
		Nav:     render.Categories(cats, active),
		Grid:    render.Grid(docs, cats),
		Upload: render.UploadDialog{
			Visible:    upload.visible,
			Name:       upload.name,
			CategoryID: upload.categoryID,
		},
		CategoryDialog: render.CategoryDialog{
			Visible:  category.visible,
			Name:     category.name,
			Swatches: swatches,
		},
	}
}

// reject notifies the user of a validation failure and returns it as ErrInvalid.
func (s *Session) reject(p Prompter, err error) error {
	p.Notify(err.Error())
	return fmt.Errorf("%w: %s", apperr.ErrInvalid, err.Error())
}

// firstError picks the first failing field of a validation.Errors in the
// given order so the user sees one message at a time.
func firstError(err error, order ...string) error {
	errs, ok := err.(validation.Errors)
	if !ok {
		return err
	}
	for _, k := range order {
		if e, ok := errs[k]; ok {
			return e
		}
	}
	return err
}
