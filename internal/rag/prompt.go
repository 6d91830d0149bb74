package rag

import (
	"fmt"
	"strings"
	"text/template"
)

// NoAnswerSentinel is the phrase the model is instructed to reply with when the
// retrieved context does not contain the answer. Callers detect it by substring.
const NoAnswerSentinel = "I have no information about this"

const promptText = `Answer the user's Question using the Context given to you.
Base your answer ONLY on the information in this context.
If the answer is not in the context, say '` + NoAnswerSentinel + `.'

Context:
{{.Context}}

Question: {{.Question}}

Answer:
`

// Prompt is the fixed instruction template with a context slot and a question
// slot.
type Prompt struct {
	tmpl *template.Template
}

func NewPrompt() *Prompt {
	return &Prompt{tmpl: template.Must(template.New("answer").Parse(promptText))}
}

// Render fills the template. doc may be nil, which leaves the context empty.
func (p *Prompt) Render(doc *Document, question string) (string, error) {
	var sb strings.Builder
	err := p.tmpl.Execute(&sb, struct {
		Context  string
		Question string
	}{
		Context:  FormatContext(doc),
		Question: question,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return sb.String(), nil
}

// FormatContext renders a retrieved document as the context block.
func FormatContext(doc *Document) string {
	if doc == nil {
		return ""
	}
	var sb strings.Builder
	for _, f := range []struct{ label, key string }{
		{"Track", "track"},
		{"Artist", "artist"},
		{"Genre", "genre"},
	} {
		if v := doc.Metadata[f.key]; v != "" {
			fmt.Fprintf(&sb, "%s: %s\n", f.label, v)
		}
	}
	if sb.Len() > 0 {
		sb.WriteString("Lyrics:\n")
	}
	sb.WriteString(doc.Content)
	return sb.String()
}
