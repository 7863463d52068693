package api

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/docuflow/internal/apperr"
	"github.com/starford/docuflow/internal/organizer"
	"github.com/starford/docuflow/internal/render"
)

// maxPickBytes bounds the multipart form of the file picker. Only the
// filename is used; the parts beyond memory spill to temp files.
const maxPickBytes = 32 << 20

// Pages serves the HTML organizer. Every action posts a form and redirects
// back to the page (post/redirect/get).
type Pages struct {
	sess        *organizer.Session
	renderer    *render.Renderer
	flash       *flash
	liveUpdates bool
}

// NewPages creates the page handlers. liveUpdates makes the page reload on
// catalog change events.
func NewPages(sess *organizer.Session, renderer *render.Renderer, liveUpdates bool) *Pages {
	return &Pages{sess: sess, renderer: renderer, flash: &flash{}, liveUpdates: liveUpdates}
}

// Mount registers the page routes on r.
func (p *Pages) Mount(r chi.Router) {
	r.Get("/", p.Index)
	r.Get("/fragments/grid", p.GridFragment)
	r.Get("/fragments/nav", p.NavFragment)

	r.Post("/categories", p.CreateCategory)
	r.Post("/categories/select", p.SelectCategory)

	r.Post("/documents", p.CreateDocument)
	r.Post("/documents/pick", p.PickFile)
	r.Post("/documents/{id}/open", p.OpenDocument)
	r.Post("/documents/{id}/delete", p.DeleteDocument)

	r.Post("/dialogs/category/color", p.SelectColor)
	r.Post("/dialogs/{name}/{action}", p.ToggleDialog)
}

func (p *Pages) prompter(r *http.Request, action string) *formPrompter {
	return &formPrompter{flash: p.flash, answer: r.PostFormValue("confirm"), action: action}
}

func (p *Pages) redirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// fail handles a non-validation action error. Validation failures were
// already shown to the user through the prompter.
func (p *Pages) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, apperr.ErrInvalid) {
		p.redirect(w, r)
		return
	}
	slog.Error(op+" failed", slog.String("error", err.Error()))
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// Index handles GET /. The category and q query parameters update the
// session filters; absent parameters leave them as they are.
func (p *Pages) Index(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Has("category") {
		p.sess.SelectCategory(q.Get("category"))
	}
	if q.Has("q") {
		p.sess.SetSearch(q.Get("q"))
	}

	page := p.sess.View()
	page.Notices, page.Confirm = p.flash.take()
	page.LiveUpdates = p.liveUpdates

	var buf bytes.Buffer
	if err := p.renderer.Page(&buf, page); err != nil {
		slog.Error("render page failed", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// GridFragment handles GET /fragments/grid.
func (p *Pages) GridFragment(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := p.renderer.Grid(&buf, p.sess.View().Grid); err != nil {
		slog.Error("render grid failed", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// NavFragment handles GET /fragments/nav.
func (p *Pages) NavFragment(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := p.renderer.Nav(&buf, p.sess.View().Nav); err != nil {
		slog.Error("render nav failed", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// SelectCategory handles POST /categories/select.
func (p *Pages) SelectCategory(w http.ResponseWriter, r *http.Request) {
	p.sess.SelectCategory(r.PostFormValue("category"))
	p.redirect(w, r)
}

// CreateDocument handles POST /documents from the upload dialog.
func (p *Pages) CreateDocument(w http.ResponseWriter, r *http.Request) {
	p.sess.SetDocumentName(r.PostFormValue("name"))
	p.sess.SetDocumentCategory(r.PostFormValue("category"))
	if _, err := p.sess.SaveDocument(p.prompter(r, "")); err != nil {
		p.fail(w, r, "create document", err)
		return
	}
	p.redirect(w, r)
}

// PickFile handles POST /documents/pick (multipart/form-data, field "file").
// Only the filename is used; the content is discarded unread.
func (p *Pages) PickFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPickBytes)
	if err := r.ParseMultipartForm(maxPickBytes); err != nil {
		http.Error(w, "file too large or invalid multipart", http.StatusBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		// Nothing chosen: keep the dialog as it is.
		p.redirect(w, r)
		return
	}
	_ = file.Close()

	p.sess.PickFile(header.Filename)
	p.sess.OpenUploadDialog()
	p.redirect(w, r)
}

// OpenDocument handles POST /documents/{id}/open.
func (p *Pages) OpenDocument(w http.ResponseWriter, r *http.Request) {
	p.sess.OpenDocument(chi.URLParam(r, "id"), p.prompter(r, ""))
	p.redirect(w, r)
}

// DeleteDocument handles POST /documents/{id}/delete. The first post asks
// for confirmation; the answer arrives as confirm=yes or confirm=no.
func (p *Pages) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if _, err := p.sess.DeleteDocument(chi.URLParam(r, "id"), p.prompter(r, r.URL.Path)); err != nil {
		p.fail(w, r, "delete document", err)
		return
	}
	p.redirect(w, r)
}

// CreateCategory handles POST /categories from the category dialog.
func (p *Pages) CreateCategory(w http.ResponseWriter, r *http.Request) {
	p.sess.SetCategoryName(r.PostFormValue("name"))
	if color := r.PostFormValue("color"); color != "" {
		p.sess.SelectColor(color)
	}
	if _, err := p.sess.SaveCategory(p.prompter(r, "")); err != nil {
		p.fail(w, r, "create category", err)
		return
	}
	p.redirect(w, r)
}

// SelectColor handles POST /dialogs/category/color. The typed name rides
// along with the swatch button and is kept.
func (p *Pages) SelectColor(w http.ResponseWriter, r *http.Request) {
	p.sess.SetCategoryName(r.PostFormValue("name"))
	p.sess.SelectColor(r.PostFormValue("color"))
	p.redirect(w, r)
}

// ToggleDialog handles POST /dialogs/{name}/{open|close}.
func (p *Pages) ToggleDialog(w http.ResponseWriter, r *http.Request) {
	name, action := chi.URLParam(r, "name"), chi.URLParam(r, "action")
	switch name + "/" + action {
	case "upload/open":
		p.sess.OpenUploadDialog()
	case "upload/close":
		p.sess.CloseUploadDialog()
	case "category/open":
		p.sess.OpenCategoryDialog()
	case "category/close":
		p.sess.CloseCategoryDialog()
	default:
		http.NotFound(w, r)
		return
	}
	p.redirect(w, r)
}
