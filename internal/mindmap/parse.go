package mindmap

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Parse steps, in the order the repair chain attempts them.
const (
	StepStrict = "strict"
	StepRepair = "repair"
	StepTable  = "table"
)

// ParseError reports raw output that no step of the repair chain could
// recover into a structurally valid tree.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mindmap parse failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("mindmap parse failed: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError reports a parsed structure that could not be repaired
// into a valid tree, e.g. pruning left zero nodes.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("mindmap validation failed: %s", e.Reason)
}

// Report records which parse step succeeded and every repair and pruning
// decision taken on the way. An empty Repairs/Warnings pair on StepStrict
// means the input was already well formed.
type Report struct {
	Step     string   `json:"step"`
	Repairs  []string `json:"repairs,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r *Report) repaired(msg string) { r.Repairs = append(r.Repairs, msg) }

func (r *Report) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// nodePayload mirrors the wire shape with pointer fields so missing keys
// are distinguishable from zero values.
type nodePayload struct {
	Label    *string        `json:"label"`
	Node     *int           `json:"node"`
	Summary  *string        `json:"summary"`
	Keywords []string       `json:"keywords"`
	Children []*nodePayload `json:"children"`
}

// Parse converts raw LLM output into a validated tree. It attempts, in
// order: a strict JSON parse, a tolerant parse over repaired JSON, and a
// pipe-delimited table parse. After any successful parse the tree is
// normalized: duplicate or missing ids are reassigned by preorder
// traversal, nodes missing a label are filled from their summary or pruned
// with a recorded warning. Parse never returns an empty tree as a success.
func Parse(raw string) (*MindMap, *Report, error) {
	report := &Report{Step: StepStrict}

	if root, err := parseStrict(raw); err == nil {
		tree, nerr := normalize(root, report)
		if nerr == nil {
			return tree, report, nil
		}
	}

	report = &Report{Step: StepRepair}
	if root, err := parseRepaired(raw, report); err == nil {
		tree, nerr := normalize(root, report)
		if nerr == nil {
			return tree, report, nil
		}
	}

	report = &Report{Step: StepTable}
	root, err := parseTable(raw, report)
	if err != nil {
		return nil, nil, &ParseError{Reason: "strict, repaired and table parses all failed", Err: err}
	}
	tree, nerr := normalize(root, report)
	if nerr != nil {
		return nil, nil, nerr
	}
	return tree, report, nil
}

func parseStrict(raw string) (*nodePayload, error) {
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(raw)))
	dec.DisallowUnknownFields()

	var root nodePayload
	if err := dec.Decode(&root); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after object")
	}
	if err := requireFields(&root, "root"); err != nil {
		return nil, err
	}
	return &root, nil
}

// requireFields enforces the strict grammar: label, node, summary and
// children must all be present on every node.
func requireFields(n *nodePayload, path string) error {
	switch {
	case n.Label == nil:
		return fmt.Errorf("missing 'label' at %s", path)
	case n.Node == nil:
		return fmt.Errorf("missing 'node' at %s", path)
	case n.Summary == nil:
		return fmt.Errorf("missing 'summary' at %s", path)
	case n.Children == nil:
		return fmt.Errorf("missing 'children' at %s", path)
	}
	for i, c := range n.Children {
		if err := requireFields(c, fmt.Sprintf("%s.children[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func parseRepaired(raw string, report *Report) (*nodePayload, error) {
	text := stripFences(raw, report)
	text = cutToObject(text, report)
	if text == "" {
		return nil, fmt.Errorf("no object found in response")
	}
	text = repairJSON(text, report)

	var root nodePayload
	if err := json.Unmarshal([]byte(text), &root); err != nil {
		return nil, fmt.Errorf("repaired text still invalid: %w", err)
	}
	return &root, nil
}

// stripFences removes surrounding markdown code fences.
func stripFences(s string, report *Report) string {
	t := strings.TrimSpace(s)
	if strings.HasPrefix(t, "```") {
		if idx := strings.Index(t, "\n"); idx >= 0 {
			t = t[idx+1:]
		} else {
			t = strings.TrimPrefix(t, "```")
		}
		t = strings.TrimSuffix(strings.TrimSpace(t), "```")
		report.repaired("stripped markdown fences")
	}
	return strings.TrimSpace(t)
}

// cutToObject discards any prose before the first '{'.
func cutToObject(s string, report *Report) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	if start > 0 {
		report.repaired("dropped leading text before object")
	}
	return s[start:]
}

// repairJSON re-emits a JSON-ish object as valid JSON: single-quoted
// strings become double-quoted, bare keys and values are quoted, trailing
// separators are dropped, unterminated strings and containers are closed,
// and trailing text after the root object is discarded.
func repairJSON(s string, report *Report) string {
	var (
		out          strings.Builder
		stack        []byte
		pendingComma bool
		quotedBare   bool
		singleQuoted bool
		droppedComma bool
	)

	flushComma := func(closer bool) {
		if pendingComma {
			if closer {
				droppedComma = true
			} else {
				out.WriteByte(',')
			}
			pendingComma = false
		}
	}

	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '{' || c == '[':
			flushComma(false)
			out.WriteByte(c)
			stack = append(stack, c)
			i++
		case c == '}' || c == ']':
			flushComma(true)
			out.WriteByte(c)
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			i++
			if len(stack) == 0 {
				if strings.TrimSpace(s[i:]) != "" {
					report.repaired("dropped trailing text after object")
				}
				i = len(s)
			}
		case c == ',':
			pendingComma = true
			i++
		case c == ':':
			out.WriteByte(c)
			i++
		case c == '"' || c == '\'':
			flushComma(false)
			quote := c
			if quote == '\'' {
				singleQuoted = true
			}
			lit, rest, terminated := scanString(s[i+1:], quote)
			if !terminated {
				report.repaired("closed unterminated string")
			}
			out.WriteString(strconv.Quote(lit))
			i = len(s) - len(rest)
		default:
			// Bare token: number, keyword, or an unquoted word run.
			flushComma(false)
			tok, rest := scanBare(s[i:])
			i = len(s) - len(rest)
			trimmed := strings.TrimSpace(tok)
			if trimmed == "true" || trimmed == "false" || trimmed == "null" || isNumber(trimmed) {
				out.WriteString(trimmed)
			} else {
				out.WriteString(strconv.Quote(trimmed))
				quotedBare = true
			}
		}
	}

	if singleQuoted {
		report.repaired("converted single-quoted strings")
	}
	if quotedBare {
		report.repaired("quoted bare tokens")
	}
	if droppedComma {
		report.repaired("removed trailing separators")
	}
	if len(stack) > 0 {
		report.repaired(fmt.Sprintf("closed %d unterminated containers", len(stack)))
		for len(stack) > 0 {
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if open == '{' {
				out.WriteByte('}')
			} else {
				out.WriteByte(']')
			}
		}
	}
	return out.String()
}

// scanString consumes a string literal body up to the closing quote,
// honoring backslash escapes. It reports whether the terminator was found.
func scanString(s string, quote byte) (lit string, rest string, terminated bool) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			next := s[i+1]
			switch next {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(next)
			}
			i++
			continue
		}
		if c == quote {
			return b.String(), s[i+1:], true
		}
		b.WriteByte(c)
	}
	return b.String(), "", false
}

// scanBare consumes an unquoted token up to the next structural character.
func scanBare(s string) (tok string, rest string) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{', '}', '[', ']', ',', ':', '"', '\'', '\n':
			return s[:i], s[i:]
		}
	}
	return s, ""
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// tableRow is one line of the pipe-delimited fallback grammar:
//
//	label|id|parent_id|summary|keyword1,keyword2
//
// Header rows and markdown separator rows are ignored; a parent id of 0 or
// an empty field marks the root. This grammar is authoritative for the
// fallback format.
type tableRow struct {
	label    string
	id       int
	parent   int
	summary  string
	keywords []string
}

func parseTable(raw string, report *Report) (*nodePayload, error) {
	var rows []tableRow
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, "|")
		if line == "" || strings.HasPrefix(line, "---") {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < 4 {
			continue
		}
		label := strings.TrimSpace(fields[0])
		if strings.EqualFold(label, "label") || strings.Contains(label, "---") {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			continue
		}
		parent := 0
		if p := strings.TrimSpace(fields[2]); p != "" {
			parent, _ = strconv.Atoi(p)
		}
		row := tableRow{
			label:   label,
			id:      id,
			parent:  parent,
			summary: strings.TrimSpace(fields[3]),
		}
		if len(fields) > 4 {
			for _, kw := range strings.Split(fields[4], ",") {
				if kw = strings.TrimSpace(kw); kw != "" {
					row.keywords = append(row.keywords, kw)
				}
			}
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no table rows found")
	}

	nodes := make(map[int]*nodePayload, len(rows))
	order := make([]int, 0, len(rows))
	parents := make(map[int]int, len(rows))
	for _, r := range rows {
		if _, dup := nodes[r.id]; dup {
			report.warn("duplicate table row id %d ignored", r.id)
			continue
		}
		label, id, summary := r.label, r.id, r.summary
		nodes[id] = &nodePayload{
			Label:    &label,
			Node:     &id,
			Summary:  &summary,
			Keywords: r.keywords,
			Children: []*nodePayload{},
		}
		order = append(order, id)
		parents[id] = r.parent
	}

	rootID := -1
	for _, id := range order {
		if p := parents[id]; p == 0 || nodes[p] == nil || p == id {
			rootID = id
			break
		}
	}
	if rootID < 0 {
		// Every row names an existing parent; treat the first row as root.
		rootID = order[0]
		report.warn("no root row found, using first row %d as root", rootID)
	}
	root := nodes[rootID]

	for _, id := range order {
		if id == rootID {
			continue
		}
		parent := nodes[parents[id]]
		if parent == nil || parents[id] == id {
			report.warn("row %d references unknown parent %d, attached to root", id, parents[id])
			parent = root
		}
		parent.Children = append(parent.Children, nodes[id])
	}

	// Nodes only reachable through a cycle are re-attached under the root.
	reachable := map[int]bool{}
	var mark func(n *nodePayload)
	mark = func(n *nodePayload) {
		if reachable[*n.Node] {
			return
		}
		reachable[*n.Node] = true
		for _, c := range n.Children {
			mark(c)
		}
	}
	mark(root)
	for _, id := range order {
		if id == rootID || reachable[id] {
			continue
		}
		n := nodes[id]
		n.Children = nil
		root.Children = append(root.Children, n)
		reachable[id] = true
		report.warn("row %d was unreachable from the root, attached to root", id)
	}
	return root, nil
}

// normalize converts a parsed payload into a validated MindMap. Ids are
// made unique deterministically by preorder traversal; nodes with no label
// and no summary are pruned with their subtrees.
func normalize(root *nodePayload, report *Report) (*MindMap, error) {
	tree := buildNode(root, "root", report)
	if tree == nil {
		return nil, &ValidationError{Reason: "pruning left zero nodes"}
	}

	used := map[int]bool{}
	var claim func(n *MindMap)
	claim = func(n *MindMap) {
		if n.Node > 0 && !used[n.Node] {
			used[n.Node] = true
		} else {
			n.Node = 0 // reassigned below
		}
		for _, c := range n.Children {
			claim(c)
		}
	}
	claim(tree)

	next := 1
	var assign func(n *MindMap)
	assign = func(n *MindMap) {
		if n.Node == 0 {
			for used[next] {
				next++
			}
			n.Node = next
			used[next] = true
			report.warn("reassigned id %d to node %q", n.Node, n.Label)
		}
		for _, c := range n.Children {
			assign(c)
		}
	}
	assign(tree)
	return tree, nil
}

func buildNode(p *nodePayload, path string, report *Report) *MindMap {
	label := ""
	if p.Label != nil {
		label = strings.TrimSpace(*p.Label)
	}
	summary := ""
	if p.Summary != nil {
		summary = strings.TrimSpace(*p.Summary)
	}
	if label == "" && summary == "" {
		report.warn("pruned node at %s: no label or summary", path)
		return nil
	}
	if label == "" {
		label = leadingWords(summary, 5)
		report.warn("filled label at %s from summary", path)
	}

	n := &MindMap{
		Label:    label,
		Summary:  summary,
		Keywords: p.Keywords,
		Children: []*MindMap{},
	}
	if n.Keywords == nil {
		n.Keywords = []string{}
	}
	if p.Node != nil {
		n.Node = *p.Node
	}
	for i, c := range p.Children {
		child := buildNode(c, fmt.Sprintf("%s.children[%d]", path, i), report)
		if child != nil {
			n.Children = append(n.Children, child)
		}
	}
	return n
}

func leadingWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
