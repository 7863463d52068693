// Package tui is the terminal front end of the organizer, built on Bubble Tea.
package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/starford/docuflow/internal/catalog"
	"github.com/starford/docuflow/internal/organizer"
	"github.com/starford/docuflow/internal/render"
)

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeUpload
	modePickFile
	modeCategory
	modeConfirm
)

type pane int

const (
	paneCategories pane = iota
	paneDocuments
)

// ChangedMsg reports a catalog change made outside this model.
type ChangedMsg catalog.Change

// pendingConfirm is a delete question waiting for y or n.
type pendingConfirm struct {
	prompt string
	id     string
}

// Model is the Bubble Tea model of the organizer.
type Model struct {
	sess    *organizer.Session
	styles  Styles
	changes <-chan catalog.Change

	mode      mode
	focus     pane
	navCursor int
	docCursor int

	search     textinput.Model
	nameInput  textinput.Model
	picker     filepicker.Model
	uploadCat  int
	swatch     int
	confirm    *pendingConfirm
	status     string
	width      int
	height     int
	pickerRoot string
}

// Option configures a Model.
type Option func(*Model)

// WithChanges makes the model redraw when a change arrives on ch.
func WithChanges(ch <-chan catalog.Change) Option {
	return func(m *Model) { m.changes = ch }
}

// WithPickerRoot sets the directory the file picker starts in.
func WithPickerRoot(dir string) Option {
	return func(m *Model) { m.pickerRoot = dir }
}

// New creates the model over sess.
func New(sess *organizer.Session, opts ...Option) Model {
	search := textinput.New()
	search.Placeholder = "Search documents..."
	search.Prompt = "/ "
	search.SetValue(sess.Search())

	name := textinput.New()

	m := Model{
		sess:       sess,
		styles:     DefaultStyles(),
		search:     search,
		nameInput:  name,
		picker:     filepicker.New(),
		pickerRoot: ".",
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.navCursor = m.activeIndex()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.waitForChange()
}

func (m Model) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	ch := m.changes
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return ChangedMsg(c)
	}
}

// prompter answers Confirm with a fixed answer, or defers the question to
// the y/n bar when unanswered.
type prompter struct {
	m        *Model
	answered bool
	answer   bool
	asked    string
}

func (p *prompter) Confirm(prompt string) bool {
	if p.answered {
		return p.answer
	}
	p.asked = prompt
	return false
}

func (p *prompter) Notify(message string) {
	p.m.status = message
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.picker.Height = max(msg.Height-12, 5)
		return m, nil
	case ChangedMsg:
		m.clamp()
		return m, m.waitForChange()
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeUpload:
			return m.updateUpload(msg)
		case modePickFile:
			return m.updatePicker(msg)
		case modeCategory:
			return m.updateCategory(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		default:
			return m.updateBrowse(msg)
		}
	}

	if m.mode == modePickFile {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	page := m.sess.View()
	m.status = ""

	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "tab", "shift+tab":
		if m.focus == paneCategories {
			m.focus = paneDocuments
		} else {
			m.focus = paneCategories
		}
	case "up", "k":
		if m.focus == paneCategories {
			m.navCursor = max(m.navCursor-1, 0)
		} else {
			m.docCursor = max(m.docCursor-1, 0)
		}
	case "down", "j":
		if m.focus == paneCategories {
			m.navCursor = min(m.navCursor+1, len(page.Nav.Items))
		} else {
			m.docCursor = min(m.docCursor+1, max(len(page.Grid.Cards)-1, 0))
		}
	case "enter":
		if m.focus == paneCategories {
			m.sess.SelectCategory(m.navID(page.Nav))
			m.docCursor = 0
		} else if card, ok := m.currentCard(page); ok {
			m.sess.OpenDocument(card.ID, &prompter{m: &m})
		}
	case "/":
		m.mode = modeSearch
		return m, m.search.Focus()
	case "n":
		m.sess.OpenUploadDialog()
		m.uploadCat = 0
		m.sess.SetDocumentCategory(optionID(page.Nav.Options, 0))
		m.nameInput.SetValue(page.Upload.Name)
		m.mode = modeUpload
		return m, m.nameInput.Focus()
	case "c":
		m.sess.OpenCategoryDialog()
		m.nameInput.SetValue(page.CategoryDialog.Name)
		m.mode = modeCategory
		return m, m.nameInput.Focus()
	case "d", "x", "delete":
		if card, ok := m.currentCard(page); ok {
			return m.deleteDocument(card.ID)
		}
	}
	return m, nil
}

// deleteDocument runs the delete action. The first run records the
// confirmation question; the answer replays it.
func (m Model) deleteDocument(id string) (tea.Model, tea.Cmd) {
	p := &prompter{m: &m}
	if _, err := m.sess.DeleteDocument(id, p); err != nil {
		m.status = err.Error()
		return m, nil
	}
	if p.asked != "" {
		m.confirm = &pendingConfirm{prompt: p.asked, id: id}
		m.mode = modeConfirm
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var answer bool
	switch msg.String() {
	case "y", "Y", "enter":
		answer = true
	case "n", "N", "esc":
		answer = false
	default:
		return m, nil
	}
	pending := m.confirm
	m.confirm = nil
	m.mode = modeBrowse
	if pending == nil {
		return m, nil
	}

	p := &prompter{m: &m, answered: true, answer: answer}
	if _, err := m.sess.DeleteDocument(pending.id, p); err != nil {
		m.status = err.Error()
	}
	m.clamp()
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.search.Blur()
		m.mode = modeBrowse
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.sess.SetSearch(m.search.Value())
	m.docCursor = 0
	return m, cmd
}

func (m Model) updateUpload(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	page := m.sess.View()
	switch msg.Type {
	case tea.KeyEsc:
		m.sess.CloseUploadDialog()
		m.nameInput.Blur()
		m.mode = modeBrowse
		return m, nil
	case tea.KeyTab:
		if n := len(page.Nav.Options); n > 0 {
			m.uploadCat = (m.uploadCat + 1) % n
			m.sess.SetDocumentCategory(optionID(page.Nav.Options, m.uploadCat))
		}
		return m, nil
	case tea.KeyShiftTab:
		if n := len(page.Nav.Options); n > 0 {
			m.uploadCat = (m.uploadCat + n - 1) % n
			m.sess.SetDocumentCategory(optionID(page.Nav.Options, m.uploadCat))
		}
		return m, nil
	case tea.KeyCtrlO:
		m.picker = filepicker.New()
		m.picker.CurrentDirectory = m.pickerRoot
		m.picker.Height = max(m.height-12, 5)
		m.mode = modePickFile
		return m, m.picker.Init()
	case tea.KeyEnter:
		if _, err := m.sess.SaveDocument(&prompter{m: &m}); err != nil {
			return m, nil
		}
		m.nameInput.Reset()
		m.nameInput.Blur()
		m.mode = modeBrowse
		m.docCursor = 0
		return m, nil
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	m.sess.SetDocumentName(m.nameInput.Value())
	return m, cmd
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		m.mode = modeUpload
		return m, nil
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.pickFile(path)
	}
	return m, cmd
}

// pickFile copies the chosen file's name into the upload dialog.
func (m *Model) pickFile(path string) {
	name := filepath.Base(path)
	m.sess.PickFile(name)
	m.nameInput.SetValue(name)
	m.mode = modeUpload
}

func (m Model) updateCategory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.sess.CloseCategoryDialog()
		m.nameInput.Blur()
		m.mode = modeBrowse
		return m, nil
	case tea.KeyTab, tea.KeyRight:
		m.swatch = (m.swatch + 1) % len(organizer.Swatches)
		m.sess.SelectColor(organizer.Swatches[m.swatch])
		return m, nil
	case tea.KeyShiftTab, tea.KeyLeft:
		n := len(organizer.Swatches)
		m.swatch = (m.swatch + n - 1) % n
		m.sess.SelectColor(organizer.Swatches[m.swatch])
		return m, nil
	case tea.KeyEnter:
		if _, err := m.sess.SaveCategory(&prompter{m: &m}); err != nil {
			return m, nil
		}
		m.nameInput.Reset()
		m.nameInput.Blur()
		m.mode = modeBrowse
		return m, nil
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	m.sess.SetCategoryName(m.nameInput.Value())
	return m, cmd
}

// navID maps the sidebar cursor to a category id; row 0 is "All".
func (m Model) navID(nav render.NavView) string {
	if m.navCursor == 0 || m.navCursor > len(nav.Items) {
		return nav.All.ID
	}
	return nav.Items[m.navCursor-1].ID
}

func (m Model) activeIndex() int {
	nav := m.sess.View().Nav
	for i, it := range nav.Items {
		if it.Active {
			return i + 1
		}
	}
	return 0
}

func (m Model) currentCard(page render.Page) (render.Card, bool) {
	if m.docCursor < 0 || m.docCursor >= len(page.Grid.Cards) {
		return render.Card{}, false
	}
	return page.Grid.Cards[m.docCursor], true
}

// clamp keeps the cursors inside the lists after they shrink.
func (m *Model) clamp() {
	page := m.sess.View()
	m.navCursor = min(m.navCursor, len(page.Nav.Items))
	m.docCursor = min(m.docCursor, max(len(page.Grid.Cards)-1, 0))
}

func optionID(opts []render.Option, i int) string {
	if i < 0 || i >= len(opts) {
		return ""
	}
	return opts[i].ID
}

var iconLabels = map[render.Icon]string{
	render.IconPDF:         "PDF",
	render.IconImage:       "IMG",
	render.IconSpreadsheet: "XLS",
	render.IconWord:        "DOC",
	render.IconFile:        "FILE",
}

// View implements tea.Model.
func (m Model) View() string {
	page := m.sess.View()
	s := m.styles

	var nav strings.Builder
	navItems := append([]render.NavItem{page.Nav.All}, page.Nav.Items...)
	for i, it := range navItems {
		cursor := "  "
		if m.focus == paneCategories && i == m.navCursor {
			cursor = s.Cursor.Render("> ")
		}
		label := it.Name
		if it.Color != "" {
			label = lipgloss.NewStyle().Foreground(lipgloss.Color(it.Color)).Render("■ ") + label
		}
		if it.Active {
			label = s.Active.Render(label)
		}
		nav.WriteString(cursor + label + "\n")
	}

	var docs strings.Builder
	docs.WriteString(s.Title.Render(page.Heading) + "\n")
	docs.WriteString(s.SearchIcon.Render("search: ") + m.search.View() + "\n\n")
	if page.Grid.Empty {
		docs.WriteString(s.Muted.Render("No documents found") + "\n")
	}
	for i, c := range page.Grid.Cards {
		cursor := "  "
		if m.focus == paneDocuments && i == m.docCursor {
			cursor = s.Cursor.Render("> ")
		}
		fmt.Fprintf(&docs, "%s%-4s %s  %s  %s\n", cursor, iconLabels[c.Icon], c.Name,
			s.Muted.Render(c.Date+" • "+c.Size), badge(c.Category, c.Color))
	}

	navPane, docPane := s.Sidebar, s.Pane
	if m.focus == paneCategories {
		navPane = s.Sidebar.BorderForeground(s.Focused.GetBorderTopForeground())
	} else {
		docPane = s.Focused
	}
	out := lipgloss.JoinHorizontal(lipgloss.Top,
		navPane.Render(strings.TrimRight(nav.String(), "\n")),
		docPane.Render(strings.TrimRight(docs.String(), "\n")),
	)

	switch m.mode {
	case modeUpload:
		out += "\n" + s.Dialog.Render(m.uploadView(page))
	case modePickFile:
		out += "\n" + s.Dialog.Render("Choose a file (esc to go back)\n\n"+m.picker.View())
	case modeCategory:
		out += "\n" + s.Dialog.Render(m.categoryView(page))
	case modeConfirm:
		if m.confirm != nil {
			out += "\n" + s.Confirm.Render(m.confirm.prompt+" (y/n)")
		}
	}

	if m.status != "" {
		out += "\n" + s.Status.Render(m.status)
	}
	out += "\n" + s.Help.Render(m.help())
	return out
}

func (m Model) uploadView(page render.Page) string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Upload Document") + "\n")
	b.WriteString("Name: " + m.nameInput.View() + "\n")
	b.WriteString("Category: ")
	for i, o := range page.Nav.Options {
		if i == m.uploadCat {
			b.WriteString(m.styles.Active.Render(o.Name))
		} else {
			b.WriteString(m.styles.Muted.Render(o.Name))
		}
		b.WriteString(" ")
	}
	return b.String()
}

func (m Model) categoryView(page render.Page) string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("New Category") + "\n")
	b.WriteString("Name: " + m.nameInput.View() + "\n")
	b.WriteString("Color: ")
	for _, sw := range page.CategoryDialog.Swatches {
		mark := "○"
		if sw.Selected {
			mark = "●"
		}
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(sw.Color)).Render(mark) + " ")
	}
	return b.String()
}

func (m Model) help() string {
	switch m.mode {
	case modeSearch:
		return "type to filter • enter/esc done"
	case modeUpload:
		return "enter save • tab category • ctrl+o choose file • esc cancel"
	case modePickFile:
		return "↑/↓ move • enter select • esc back"
	case modeCategory:
		return "enter create • ←/→ color • esc cancel"
	case modeConfirm:
		return "y confirm • n cancel"
	}
	return "tab switch pane • ↑/↓ move • enter select/open • / search • n new document • c new category • d delete • q quit"
}

// Run starts the full-screen program and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, sess *organizer.Session, opts ...Option) error {
	p := tea.NewProgram(New(sess, opts...), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
