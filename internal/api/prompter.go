package api

import (
	"sync"

	"github.com/starford/docuflow/internal/render"
)

// flash holds notices and a pending confirmation until the next page render.
// There is one local user, so one flash serves every request.
type flash struct {
	mu      sync.Mutex
	notices []string
	confirm *render.ConfirmPrompt
}

func (f *flash) notify(msg string) {
	f.mu.Lock()
	f.notices = append(f.notices, msg)
	f.mu.Unlock()
}

func (f *flash) ask(prompt, action string) {
	f.mu.Lock()
	f.confirm = &render.ConfirmPrompt{Prompt: prompt, Action: action}
	f.mu.Unlock()
}

func (f *flash) clearConfirm() {
	f.mu.Lock()
	f.confirm = nil
	f.mu.Unlock()
}

// take returns and clears everything queued.
func (f *flash) take() ([]string, *render.ConfirmPrompt) {
	f.mu.Lock()
	defer f.mu.Unlock()
	notices, confirm := f.notices, f.confirm
	f.notices, f.confirm = nil, nil
	return notices, confirm
}

// formPrompter answers confirmations from a submitted confirm field. Without
// an answer it queues the question, so the next page shows a yes/no form
// posting back to action.
type formPrompter struct {
	flash  *flash
	answer string
	action string
}

func (p *formPrompter) Confirm(prompt string) bool {
	switch p.answer {
	case "yes":
		p.flash.clearConfirm()
		return true
	case "no":
		p.flash.clearConfirm()
		return false
	}
	p.flash.ask(prompt, p.action)
	return false
}

func (p *formPrompter) Notify(message string) {
	p.flash.notify(message)
}
