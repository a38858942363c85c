package prompt

import (
	"strings"

	"github.com/agenthands/mindmap/internal/mindmap"
)

// Input carries the substitution values for one composition. Instructions,
// when set, replaces the template's default instructions verbatim.
type Input struct {
	MainTheme    string
	Focus        string
	MapType      string
	Instructions string
}

// Composer produces request text deterministically from the registry:
// identical inputs yield byte-identical prompts.
type Composer struct {
	Registry Registry
}

func NewComposer(r Registry) *Composer {
	return &Composer{Registry: r}
}

func substitute(text, theme, focus string) string {
	return strings.NewReplacer(
		"{main_theme}", theme,
		"{focus}", focus,
	).Replace(text)
}

// ComposeBase builds the one-shot generation prompt.
func (c *Composer) ComposeBase(in Input) (string, error) {
	t, err := c.Registry.Template(in.MapType)
	if err != nil {
		return "", err
	}
	instructions := in.Instructions
	if instructions == "" {
		instructions = substitute(t.Instructions, in.MainTheme, in.Focus)
	}

	var b strings.Builder
	b.WriteString(instructions)
	if in.Focus != "" {
		b.WriteString(" ")
		b.WriteString(in.Focus)
	}
	b.WriteString("\n")
	b.WriteString(t.EnforceStructure)
	b.WriteString("\n\n")
	b.WriteString(substitute(t.UserMessage, in.MainTheme, in.Focus))
	return b.String(), nil
}

// ComposeRefine builds the refinement prompt: the serialized seed tree is
// embedded in the body along with any extra context.
func (c *Composer) ComposeRefine(in Input, seed *mindmap.MindMap, extraContext string) (string, error) {
	t, err := c.Registry.Template(in.MapType)
	if err != nil {
		return "", err
	}
	serialized, err := seed.ToJSON()
	if err != nil {
		return "", err
	}
	instructions := in.Instructions
	if instructions == "" {
		instructions = substitute(t.Instructions, in.MainTheme, in.Focus)
	}

	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString(" ")
	b.WriteString(t.Qualifier)
	b.WriteString(": ")
	b.WriteString(in.MainTheme)
	if in.Focus != "" {
		b.WriteString(" ")
		b.WriteString(in.Focus)
	}
	b.WriteString(".\n")
	b.WriteString("Based on these instructions, enhance the given mindmap with the information below. ")
	b.WriteString("Only return the mindmap without extra text.\n")
	b.WriteString("IMPORTANT: Only create additional branches if the new information suggests new branches are relevant.\n")
	b.WriteString(t.EnforceStructure)
	b.WriteString("\n\nCurrent mindmap:\n")
	b.WriteString(serialized)
	if extraContext != "" {
		b.WriteString("\n\nNew information:\n")
		b.WriteString(extraContext)
	}
	return b.String(), nil
}
