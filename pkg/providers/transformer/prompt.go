package transformer

import "strings"

// buildSystemPrompt folds the rewrite request's optional fields into one
// instruction string shared by every adapter, since spec's transform
// signature carries selected_text/context/writing_style as separate
// parameters but every provider here takes a single prompt string.
func buildSystemPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Rewrite the dictated text for clarity and correct grammar. Return only the rewritten text.")
	if req.WritingStyle != "" {
		b.WriteString(" Writing style: ")
		b.WriteString(req.WritingStyle)
		b.WriteString(".")
	}
	if req.Context != "" {
		b.WriteString(" Context: ")
		b.WriteString(req.Context)
	}
	if req.SelectedText != "" {
		b.WriteString(" The user had this text selected before dictating, treat it as reference only: ")
		b.WriteString(req.SelectedText)
	}
	return b.String()
}
