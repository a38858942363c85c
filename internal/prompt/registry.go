// Package prompt builds LLM request text for each generation stage from an
// immutable template registry.
package prompt

import "fmt"

// Template holds the four fragments registered per map type. Placeholders
// {main_theme} and {focus} are substituted at composition time.
type Template struct {
	Qualifier        string
	UserMessage      string
	Instructions     string
	EnforceStructure string
}

// Registry maps a map-type key to its template. Built once at startup and
// passed into the composer; never mutated afterwards.
type Registry map[string]Template

// Template returns the template for mapType.
func (r Registry) Template(mapType string) (Template, error) {
	t, ok := r[mapType]
	if !ok {
		return Template{}, fmt.Errorf("unknown map type %q", mapType)
	}
	return t, nil
}

const enforceStructure = `IMPORTANT: Your response MUST be a valid JSON object. Each node must include:
- "node": an integer, the unique identifier for the node.
- "label": a string naming the sub-theme.
- "summary": a string explaining in at most 15 words why the sub-theme relates to the theme.
- "keywords": an array of short strings summarizing the node.
- "children": an array of child nodes.
Use ONLY these field names: label, node, summary, keywords, children.
Avoid overlapping labels. Break joint concepts into separate branches so each branch covers ONE concept.
Return ONLY the JSON object, with no extra text, explanation, or markdown.
Example, for the theme "Global Warming":
{
  "node": 1,
  "label": "Global Warming",
  "summary": "Global Warming is a serious risk",
  "keywords": ["climate"],
  "children": [
    {"node": 2, "label": "Renewable Energy Adoption", "summary": "Renewable energy reduces greenhouse gas emissions", "keywords": [], "children": []}
  ]
}
If and only if you cannot emit JSON, emit one node per line as a pipe table instead:
label|id|parent_id|summary|keyword1,keyword2
with parent_id 0 for the root.`

// DefaultRegistry returns the built-in template table.
func DefaultRegistry() Registry {
	return Registry{
		"theme": {
			Qualifier:   "Main Theme",
			UserMessage: "Your given Theme is: {main_theme}",
			Instructions: "You are assisting a professional analyst tasked with measuring the impact of the theme {main_theme}. " +
				"Generate a comprehensive tree of distinct sub-themes to guide the analyst's research. " +
				"Decompose {main_theme} into concise, focused, self-contained sub-themes. " +
				"Each sub-theme must cover a single clear aspect of the main theme; a single word is not informative enough. " +
				"Avoid repetition and strive for diverse angles. " +
				"If an analyst focus is given, weight the decomposition toward it: {focus}",
			EnforceStructure: enforceStructure,
		},
		"risk": {
			Qualifier:   "Main Risk",
			UserMessage: "Your given Risk is: {main_theme}",
			Instructions: "You are assisting a professional risk analyst mapping the risk {main_theme}. " +
				"Generate a tree of distinct risk drivers and exposures. " +
				"Keep risks separate: create a single branch per risk rather than joint branches. " +
				"If an analyst focus is given, weight the decomposition toward it: {focus}",
			EnforceStructure: enforceStructure,
		},
	}
}
