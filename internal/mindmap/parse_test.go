package mindmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validJSON = `{
  "label": "Climate Change",
  "node": 1,
  "summary": "Overview of climate change.",
  "keywords": ["climate"],
  "children": [
    {
      "label": "Solar Power",
      "node": 2,
      "summary": "Photovoltaic generation.",
      "keywords": ["solar"],
      "children": []
    }
  ]
}`

func TestParseStrict(t *testing.T) {
	tree, report, err := Parse(validJSON)
	require.NoError(t, err)
	assert.Equal(t, StepStrict, report.Step)
	assert.Empty(t, report.Repairs)

	assert.Equal(t, "Climate Change", tree.Label)
	assert.Equal(t, 1, tree.Node)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "Solar Power", tree.Children[0].Label)
	assert.Equal(t, 2, tree.Children[0].Node)
}

func TestParseStrictRejectsUnknownFields(t *testing.T) {
	raw := `{"label": "A", "node": 1, "summary": "s", "keywords": [], "children": [], "extra": true}`
	_, report, err := Parse(raw)
	require.NoError(t, err)
	// The tolerant pass handles it instead.
	assert.Equal(t, StepRepair, report.Step)
}

func TestParseFencedJSON(t *testing.T) {
	raw := "```json\n" + validJSON + "\n```"
	tree, report, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, StepRepair, report.Step)
	assert.Contains(t, report.Repairs, "stripped markdown fences")
	assert.Equal(t, "Climate Change", tree.Label)
	require.Len(t, tree.Children, 1)
}

func TestParseLeadingProse(t *testing.T) {
	raw := "Sure! " + validJSON
	tree, report, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, StepRepair, report.Step)
	assert.Contains(t, report.Repairs, "dropped leading text before object")
	assert.Equal(t, "Climate Change", tree.Label)
}

func TestParseSingleQuotes(t *testing.T) {
	raw := `{'label': 'Solar', 'node': 1, 'summary': 'Solar energy', 'keywords': ['sun'], 'children': []}`
	tree, report, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, StepRepair, report.Step)
	assert.Contains(t, report.Repairs, "converted single-quoted strings")
	assert.Equal(t, "Solar", tree.Label)
	assert.Equal(t, []string{"sun"}, tree.Keywords)
}

func TestParseTrailingComma(t *testing.T) {
	raw := `{"label": "A", "node": 1, "summary": "s", "keywords": ["x",], "children": [],}`
	tree, report, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, StepRepair, report.Step)
	assert.Contains(t, report.Repairs, "removed trailing separators")
	assert.Equal(t, "A", tree.Label)
}

// A truncated response with bare tokens still yields a tree.
func TestParseTruncatedBareTokens(t *testing.T) {
	raw := `{label: Foo, children: [`
	tree, report, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, StepRepair, report.Step)
	assert.Contains(t, report.Repairs, "quoted bare tokens")
	assert.Contains(t, report.Repairs, "closed 2 unterminated containers")

	assert.Equal(t, "Foo", tree.Label)
	assert.Empty(t, tree.Children)
	assert.Equal(t, 1, tree.Node, "missing id is assigned deterministically")
}

func TestParseUnterminatedString(t *testing.T) {
	raw := `{"label": "Solar", "node": 1, "summary": "cut off mid senten`
	tree, report, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, StepRepair, report.Step)
	assert.Contains(t, report.Repairs, "closed unterminated string")
	assert.Equal(t, "Solar", tree.Label)
	assert.Equal(t, "cut off mid senten", tree.Summary)
}

func TestParseTrailingTextAfterObject(t *testing.T) {
	raw := validJSON + "\nThat covers the main areas."
	tree, report, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, StepRepair, report.Step)
	assert.Contains(t, report.Repairs, "dropped trailing text after object")
	assert.Equal(t, 2, tree.Count())
}

func TestParseTableFallback(t *testing.T) {
	raw := `label|id|parent_id|summary|keywords
Climate Change|1|0|Overview of climate change|climate
Solar Power|2|1|Photovoltaic generation|solar,panels
Wind Power|3|1|Turbine generation|wind
Storage|4|2|Batteries and pumped hydro|`
	tree, report, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, StepTable, report.Step)

	assert.Equal(t, "Climate Change", tree.Label)
	require.Len(t, tree.Children, 2)
	assert.Equal(t, "Solar Power", tree.Children[0].Label)
	assert.Equal(t, []string{"solar", "panels"}, tree.Children[0].Keywords)
	require.Len(t, tree.Children[0].Children, 1)
	assert.Equal(t, "Storage", tree.Children[0].Children[0].Label)
	assert.Equal(t, "Wind Power", tree.Children[1].Label)
}

func TestParseMarkdownTable(t *testing.T) {
	raw := `| label | id | parent_id | summary |
|---|---|---|---|
| Root | 1 | 0 | The root summary |
| Leaf | 2 | 1 | A leaf summary |`
	tree, report, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, StepTable, report.Step)
	assert.Equal(t, "Root", tree.Label)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "Leaf", tree.Children[0].Label)
}

func TestParseTableUnknownParentAttachesToRoot(t *testing.T) {
	raw := `Root|1|0|root summary|
Orphan|2|99|orphan summary|`
	tree, report, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "Orphan", tree.Children[0].Label)
	assert.NotEmpty(t, report.Warnings)
}

func TestParseTableCycle(t *testing.T) {
	// Two rows that parent each other: the first becomes the root.
	raw := `A|1|2|summary a|
B|2|1|summary b|`
	tree, _, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "A", tree.Label)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "B", tree.Children[0].Label)
}

func TestParseDuplicateIDsReassigned(t *testing.T) {
	raw := `{
  "label": "Root", "node": 1, "summary": "r", "keywords": [],
  "children": [
    {"label": "A", "node": 1, "summary": "a", "keywords": [], "children": []},
    {"label": "B", "node": 1, "summary": "b", "keywords": [], "children": []}
  ]
}`
	tree, report, err := Parse(raw)
	require.NoError(t, err)

	seen := map[int]bool{}
	tree.Walk(func(node, _ *MindMap) {
		assert.False(t, seen[node.Node], "id %d duplicated", node.Node)
		assert.Positive(t, node.Node)
		seen[node.Node] = true
	})
	assert.Equal(t, 1, tree.Node, "first claimant keeps its id")
	assert.Equal(t, 2, tree.Children[0].Node)
	assert.Equal(t, 3, tree.Children[1].Node)
	assert.Len(t, report.Warnings, 2)
}

func TestParseLabelFilledFromSummary(t *testing.T) {
	raw := `{"label": "", "node": 1, "summary": "Reducing emissions at the source by switching fuels", "keywords": [], "children": []}`
	tree, report, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Reducing emissions at the source", tree.Label, "first five words of the summary")
	assert.NotEmpty(t, report.Warnings)
}

func TestParsePrunesEmptyNodesWithSubtree(t *testing.T) {
	raw := `{
  "label": "Root", "node": 1, "summary": "r", "keywords": [],
  "children": [
    {"label": "", "node": 2, "summary": "", "keywords": [],
     "children": [
       {"label": "Hidden", "node": 3, "summary": "h", "keywords": [], "children": []}
     ]},
    {"label": "Kept", "node": 4, "summary": "k", "keywords": [], "children": []}
  ]
}`
	tree, report, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "Kept", tree.Children[0].Label)
	assert.Equal(t, 2, tree.Count(), "pruning removes the whole subtree")
	assert.NotEmpty(t, report.Warnings)
}

func TestParseGarbageFails(t *testing.T) {
	tree, report, err := Parse("I could not produce a mind map, sorry.")
	assert.Nil(t, tree)
	assert.Nil(t, report)
	require.Error(t, err)
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestParseEmptyTreeFails(t *testing.T) {
	raw := `{"label": "", "node": 1, "summary": "", "keywords": [], "children": []}`
	tree, _, err := Parse(raw)
	assert.Nil(t, tree)
	require.Error(t, err)
}

// Repair is idempotent: parsing the serialized result of a repaired parse
// succeeds strictly and yields the same tree.
func TestRepairThenRoundTrip(t *testing.T) {
	raw := "```\n{'label': 'Foo', 'node': 1, 'summary': 'bar', 'children': [],}\n```"
	tree, report, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, StepRepair, report.Step)

	text, err := tree.ToJSON()
	require.NoError(t, err)
	again, report2, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, StepStrict, report2.Step)
	assert.Equal(t, tree, again)
}
