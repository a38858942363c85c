package prompt

import "github.com/agenthands/mindmap/internal/llm"

// TreeToolSpec is the callable-operation artifact for tool-call stages: it
// describes the emit_mindmap signature separately from the natural-language
// prompt, so providers that support tool calls can return the tree as
// structured arguments instead of free text.
func TreeToolSpec() llm.ToolSpec {
	node := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"node":    map[string]any{"type": "integer", "description": "unique identifier"},
			"label":   map[string]any{"type": "string", "description": "name of the sub-theme"},
			"summary": map[string]any{"type": "string", "description": "why the sub-theme relates to the theme, at most 15 words"},
			"keywords": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"children": map[string]any{
				"type":  "array",
				"items": map[string]any{"$ref": "#"},
			},
		},
		"required": []string{"node", "label", "summary", "children"},
	}
	return llm.ToolSpec{
		Name:        "emit_mindmap",
		Description: "Emit the generated mind map as a nested tree of nodes.",
		Parameters:  node,
	}
}
