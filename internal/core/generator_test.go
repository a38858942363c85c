package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/mindmap/internal/llm"
	"github.com/agenthands/mindmap/internal/mindmap"
	"github.com/agenthands/mindmap/internal/prompt"
)

const climateJSON = `{
  "label": "Climate Change",
  "node": 1,
  "summary": "Overview of climate change impacts and responses.",
  "keywords": ["climate"],
  "children": [
    {"label": "Solar Power", "node": 2, "summary": "Photovoltaic generation.", "keywords": ["solar"], "children": []},
    {"label": "Wind Power", "node": 3, "summary": "Turbine generation.", "keywords": ["wind"], "children": []},
    {"label": "Policy", "node": 4, "summary": "Government instruments.", "keywords": [], "children": []}
  ]
}`

const refinedJSON = `{
  "label": "Climate Change",
  "node": 1,
  "summary": "Overview of climate change impacts and responses.",
  "keywords": ["climate"],
  "children": [
    {"label": "Solar Power", "node": 2, "summary": "Photovoltaic generation.", "keywords": ["solar"], "children": [
      {"label": "Grid Storage", "node": 5, "summary": "Batteries balance intermittent supply.", "keywords": [], "children": []}
    ]},
    {"label": "Wind Power", "node": 3, "summary": "Turbine generation.", "keywords": ["wind"], "children": []},
    {"label": "Policy", "node": 4, "summary": "Government instruments.", "keywords": [], "children": []}
  ]
}`

func newTestGenerator(base, reasoning *MockLLM) *Generator {
	var r llm.LLMClient
	if reasoning != nil {
		r = reasoning
	}
	g := NewGenerator(base, r,
		prompt.NewComposer(prompt.DefaultRegistry()),
		&llm.SemaphoreDispatcher{
			Limit: 4,
			Retry: llm.RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
		},
		nil)
	return g
}

func TestOneShot(t *testing.T) {
	base := &MockLLM{Response: climateJSON}
	g := newTestGenerator(base, nil)

	outcome, err := g.OneShot(context.Background(), Request{MainTheme: "Climate Change"})
	require.NoError(t, err)

	require.NotNil(t, outcome.Tree)
	assert.Equal(t, "Climate Change", outcome.Tree.Label)
	assert.Equal(t, 4, outcome.Tree.Count())

	// All ids unique and positive.
	seen := map[int]bool{}
	outcome.Tree.Walk(func(node, _ *mindmap.MindMap) {
		assert.Positive(t, node.Node)
		assert.False(t, seen[node.Node])
		seen[node.Node] = true
	})

	rows := outcome.Tree.Rows()
	require.Len(t, rows, 4)
	assert.Equal(t, 0, rows[0].Parent)
	for _, row := range rows[1:] {
		assert.Equal(t, 1, row.Parent)
	}

	assert.Equal(t, mindmap.StepStrict, outcome.Report.Step)
	require.Len(t, outcome.Records, 1)
	assert.Equal(t, "success", outcome.Records[0].Outcome)

	require.Len(t, base.Prompts, 1)
	assert.Contains(t, base.Prompts[0], "Climate Change")
}

func TestOneShotDefaultsMapType(t *testing.T) {
	base := &MockLLM{Response: climateJSON}
	g := newTestGenerator(base, nil)

	_, err := g.OneShot(context.Background(), Request{MainTheme: "Climate Change"})
	require.NoError(t, err)
	assert.Contains(t, base.Prompts[0], "Your given Theme is: Climate Change")
}

func TestOneShotInvocationFailurePropagates(t *testing.T) {
	authErr := &llm.CallError{Kind: llm.KindAuth, Err: errors.New("401")}
	g := newTestGenerator(&MockLLM{Err: authErr}, nil)

	outcome, err := g.OneShot(context.Background(), Request{MainTheme: "x"})
	assert.Nil(t, outcome)
	var cerr *llm.CallError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, llm.KindAuth, cerr.Kind)
}

func TestOneShotParseFailurePropagates(t *testing.T) {
	g := newTestGenerator(&MockLLM{Response: "no json here at all"}, nil)

	outcome, err := g.OneShot(context.Background(), Request{MainTheme: "x"})
	assert.Nil(t, outcome)
	var perr *mindmap.ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestRefinedTwoStage(t *testing.T) {
	base := &MockLLM{Response: climateJSON}
	reasoning := &MockLLM{Response: refinedJSON}
	g := newTestGenerator(base, reasoning)

	outcome, err := g.Refined(context.Background(), Request{MainTheme: "Climate Change"}, nil)
	require.NoError(t, err)
	assert.False(t, outcome.RefinementFailed)
	assert.Equal(t, 5, outcome.Tree.Count())

	require.Len(t, base.Prompts, 1, "stage A on the base client")
	require.Len(t, reasoning.Prompts, 1, "stage B on the reasoning client")
	assert.Contains(t, reasoning.Prompts[0], "Current mindmap:")
	assert.Contains(t, reasoning.Prompts[0], "Solar Power", "seed is embedded in the refine prompt")
}

func TestRefinedDegradesToSeedOnCallFailure(t *testing.T) {
	seedTree, _, err := mindmap.Parse(climateJSON)
	require.NoError(t, err)

	reasoning := &MockLLM{Err: &llm.CallError{Kind: llm.KindAuth, Err: errors.New("401")}}
	g := newTestGenerator(&MockLLM{}, reasoning)

	outcome, err := g.Refined(context.Background(), Request{MainTheme: "Climate Change"}, seedTree)
	require.NoError(t, err, "stage-B failure is not fatal")
	assert.True(t, outcome.RefinementFailed)
	assert.Equal(t, seedTree, outcome.Tree, "seed tree survives unchanged")
}

func TestRefinedDegradesToSeedOnParseFailure(t *testing.T) {
	seedTree, _, err := mindmap.Parse(climateJSON)
	require.NoError(t, err)

	reasoning := &MockLLM{Response: "I am sorry, I cannot do that."}
	g := newTestGenerator(&MockLLM{}, reasoning)

	outcome, err := g.Refined(context.Background(), Request{MainTheme: "Climate Change"}, seedTree)
	require.NoError(t, err)
	assert.True(t, outcome.RefinementFailed)
	assert.Equal(t, seedTree, outcome.Tree)
}

func TestRefinedStageAFailureIsFatal(t *testing.T) {
	base := &MockLLM{Err: &llm.CallError{Kind: llm.KindAuth, Err: errors.New("401")}}
	g := newTestGenerator(base, &MockLLM{Response: refinedJSON})

	outcome, err := g.Refined(context.Background(), Request{MainTheme: "x"}, nil)
	assert.Nil(t, outcome)
	assert.Error(t, err)
}

func TestBootstrapVariantsAreIsolated(t *testing.T) {
	seedTree, _, err := mindmap.Parse(climateJSON)
	require.NoError(t, err)

	reasoning := &MockLLM{ResponseQueue: []any{
		refinedJSON,
		refinedJSON,
		&llm.CallError{Kind: llm.KindAuth, Err: errors.New("401")},
		refinedJSON,
		refinedJSON,
	}}
	g := newTestGenerator(&MockLLM{}, reasoning)
	// A single worker keeps the scripted queue aligned with variant order.
	g.Dispatcher = &llm.PoolDispatcher{Workers: 1, Retry: llm.RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond}}

	outcomes, err := g.Bootstrap(context.Background(), Request{MainTheme: "Climate Change"}, seedTree, 5)
	require.NoError(t, err)
	require.Len(t, outcomes, 5)

	succeeded := 0
	for i, o := range outcomes {
		if i == 2 {
			require.Error(t, o.Err)
			assert.Nil(t, o.Tree)
			continue
		}
		require.NoError(t, o.Err, "variant %d", i)
		require.NotNil(t, o.Tree)
		assert.Equal(t, 5, o.Tree.Count())
		succeeded++
	}
	assert.Equal(t, 4, succeeded)
}

func TestBootstrapValidatesInput(t *testing.T) {
	g := newTestGenerator(&MockLLM{}, nil)

	_, err := g.Bootstrap(context.Background(), Request{MainTheme: "x"}, nil, 3)
	assert.Error(t, err, "nil seed rejected")

	seedTree, _, perr := mindmap.Parse(climateJSON)
	require.NoError(t, perr)
	_, err = g.Bootstrap(context.Background(), Request{MainTheme: "x"}, seedTree, 0)
	assert.Error(t, err, "non-positive variant count rejected")
}

func TestDynamicSeedsFromLastSuccess(t *testing.T) {
	base := &MockLLM{Response: climateJSON}
	reasoning := &MockLLM{ResponseQueue: []any{
		refinedJSON, // interval one succeeds
		&llm.CallError{Kind: llm.KindRateLimited, Err: errors.New("429")}, // interval two fails
		refinedJSON, // interval three
	}}
	g := newTestGenerator(base, reasoning)

	series, err := g.Dynamic(context.Background(), Request{MainTheme: "Climate Change"}, nil, []Interval{
		{Name: "2023"},
		{Name: "2024", Context: "new data"},
		{Name: "2025"},
	})
	require.NoError(t, err)
	require.NotNil(t, series.Base)
	require.Len(t, series.Entries, 3)

	first := series.Entries[0].Outcome
	require.False(t, first.RefinementFailed)
	assert.Equal(t, 5, first.Tree.Count())

	second := series.Entries[1].Outcome
	assert.True(t, second.RefinementFailed)
	assert.Equal(t, first.Tree, second.Tree, "failed interval carries the prior tree")

	// Interval three is seeded from interval one, not the failed interval.
	assert.Contains(t, reasoning.Prompts[2], "Grid Storage")
	third := series.Entries[2].Outcome
	assert.False(t, third.RefinementFailed)
	assert.Equal(t, "2023", series.Entries[0].Interval)
	assert.Equal(t, "2024", series.Entries[1].Interval)
	assert.Equal(t, "2025", series.Entries[2].Interval)
}

func TestDynamicWithExplicitSeedSkipsBase(t *testing.T) {
	seedTree, _, err := mindmap.Parse(climateJSON)
	require.NoError(t, err)

	base := &MockLLM{}
	reasoning := &MockLLM{Response: refinedJSON}
	g := newTestGenerator(base, reasoning)

	series, err := g.Dynamic(context.Background(), Request{MainTheme: "Climate Change"}, seedTree, []Interval{{Name: "q1"}})
	require.NoError(t, err)
	assert.Nil(t, series.Base)
	assert.Empty(t, base.Prompts, "no base call when a seed is supplied")
	require.Len(t, series.Entries, 1)
}

func TestOneShotTool(t *testing.T) {
	base := &MockLLM{Response: climateJSON}
	g := newTestGenerator(base, nil)

	outcome, err := g.OneShotTool(context.Background(), Request{MainTheme: "Climate Change"})
	require.NoError(t, err)
	assert.Equal(t, 4, outcome.Tree.Count())
	require.Len(t, outcome.Records, 1)
	assert.Equal(t, "success", outcome.Records[0].Outcome)
}

func TestOneShotStream(t *testing.T) {
	base := &MockLLM{Response: climateJSON}
	g := newTestGenerator(base, nil)

	var chunks []string
	outcome, err := g.OneShotStream(context.Background(), Request{MainTheme: "Climate Change"}, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, outcome.Tree.Count())
	assert.Len(t, chunks, 2)

	full := ""
	for _, c := range chunks {
		full += c
	}
	assert.Equal(t, climateJSON, full)
}

func TestReasoningFallsBackToBase(t *testing.T) {
	base := &MockLLM{ResponseQueue: []any{climateJSON, refinedJSON}}
	g := newTestGenerator(base, nil)

	outcome, err := g.Refined(context.Background(), Request{MainTheme: "Climate Change"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, outcome.Tree.Count())
	assert.Len(t, base.Prompts, 2, "both stages hit the base client")
}
