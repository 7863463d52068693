package organizer

// Prompter is the blocking dialog capability actions use to ask the user
// something or tell them something.
type Prompter interface {
	// Confirm asks a yes/no question and reports the answer.
	Confirm(prompt string) bool
	// Notify shows a message that needs no answer.
	Notify(message string)
}

// Scripted answers every Confirm with Answer and records all prompts and
// notices. It serves non-interactive front ends and tests.
type Scripted struct {
	Answer  bool
	Prompts []string
	Notices []string
}

func (s *Scripted) Confirm(prompt string) bool {
	s.Prompts = append(s.Prompts, prompt)
	return s.Answer
}

func (s *Scripted) Notify(message string) {
	s.Notices = append(s.Notices, message)
}
