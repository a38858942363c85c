// Package core drives mind-map generation: one-shot, refined, bootstrap and
// dynamic modes over the prompt composer, invocation layer and parser.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agenthands/mindmap/internal/config"
	"github.com/agenthands/mindmap/internal/llm"
	"github.com/agenthands/mindmap/internal/mindmap"
	"github.com/agenthands/mindmap/internal/prompt"
)

// Request carries the user-facing inputs of one generation.
type Request struct {
	MainTheme    string `json:"main_theme"`
	Focus        string `json:"focus"`
	MapType      string `json:"map_type"`
	Instructions string `json:"instructions"`
	Context      string `json:"context"` // extra refinement context
}

func (r Request) withDefaults() Request {
	if r.MapType == "" {
		r.MapType = "theme"
	}
	return r
}

// Outcome is the result of one generation stage: a tree plus its raw text,
// parse report and call records, or a typed failure. Never an ambiguous
// empty success: Tree == nil implies Err != nil.
type Outcome struct {
	Tree             *mindmap.MindMap `json:"tree,omitempty"`
	Raw              string           `json:"raw,omitempty"`
	Report           *mindmap.Report  `json:"report,omitempty"`
	Records          []*llm.Record    `json:"records,omitempty"`
	RefinementFailed bool             `json:"refinement_failed,omitempty"`
	Err              error            `json:"-"`
}

// Interval names one step of a dynamic series, with the context text that
// refines it.
type Interval struct {
	Name    string `json:"name"`
	Context string `json:"context"`
}

// Series is the output of dynamic generation: the base tree plus one
// outcome per interval, in input order.
type Series struct {
	Base    *Outcome
	Entries []SeriesOutcome
}

type SeriesOutcome struct {
	Interval string
	Outcome  Outcome
}

// Generator orchestrates the generation state machines. The base client
// serves one-shot generation; refinement runs on the reasoning client.
// All fields are read-only once generation starts.
type Generator struct {
	Base           llm.LLMClient
	Reasoning      llm.LLMClient
	Composer       *prompt.Composer
	Dispatcher     llm.Dispatcher
	Logger         *zap.Logger
	BaseModel      string
	ReasoningModel string
	CallTimeout    time.Duration
}

// NewGenerator wires a generator from already-built collaborators.
func NewGenerator(base, reasoning llm.LLMClient, composer *prompt.Composer, dispatcher llm.Dispatcher, logger *zap.Logger) *Generator {
	if reasoning == nil {
		reasoning = base
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		Base:       base,
		Reasoning:  reasoning,
		Composer:   composer,
		Dispatcher: dispatcher,
		Logger:     logger,
	}
}

// NewFromConfig builds the full stack from configuration. Configuration
// problems are fatal here, before any call is attempted.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Generator, error) {
	base, err := llm.NewClient(ctx, cfg.LLM.Base)
	if err != nil {
		return nil, err
	}
	reasoning := base
	if cfg.LLM.Reasoning != cfg.LLM.Base {
		reasoning, err = llm.NewClient(ctx, cfg.LLM.Reasoning)
		if err != nil {
			return nil, err
		}
	}

	registry := prompt.DefaultRegistry()
	for key, o := range cfg.Prompts {
		t := registry[key]
		if o.Qualifier != "" {
			t.Qualifier = o.Qualifier
		}
		if o.UserMessage != "" {
			t.UserMessage = o.UserMessage
		}
		if o.Instructions != "" {
			t.Instructions = o.Instructions
		}
		if o.EnforceStructure != "" {
			t.EnforceStructure = o.EnforceStructure
		}
		registry[key] = t
	}

	retry := llm.RetryPolicy{MaxAttempts: cfg.Dispatch.MaxAttempts}
	g := NewGenerator(base, reasoning,
		prompt.NewComposer(registry),
		llm.NewDispatcher(cfg.Dispatch.Strategy, cfg.Dispatch.Limit, retry, logger),
		logger)
	g.BaseModel = cfg.LLM.Base.Model
	g.ReasoningModel = cfg.LLM.Reasoning.Model
	if cfg.LLM.Base.TimeoutSeconds > 0 {
		g.CallTimeout = time.Duration(cfg.LLM.Base.TimeoutSeconds) * time.Second
	}
	return g, nil
}

// invoke runs prompts through the dispatcher against the given client.
func (g *Generator) invoke(ctx context.Context, client llm.LLMClient, model string, prompts []string) []llm.Result {
	reqs := make([]llm.Request, len(prompts))
	for i, p := range prompts {
		reqs[i] = llm.Request{Prompt: p, Client: client, Model: model, Timeout: g.CallTimeout}
	}
	return g.Dispatcher.Dispatch(ctx, reqs)
}

// OneShot generates a tree in a single call. Invocation and parse failures
// surface directly.
func (g *Generator) OneShot(ctx context.Context, req Request) (*Outcome, error) {
	req = req.withDefaults()
	text, err := g.Composer.ComposeBase(prompt.Input{
		MainTheme:    req.MainTheme,
		Focus:        req.Focus,
		MapType:      req.MapType,
		Instructions: req.Instructions,
	})
	if err != nil {
		return nil, err
	}

	results := g.invoke(ctx, g.Base, g.BaseModel, []string{text})
	res := results[0]
	if res.Err != nil {
		return nil, res.Err
	}

	tree, report, err := mindmap.Parse(res.Text)
	if err != nil {
		return nil, err
	}
	g.Logger.Info("one-shot generation complete",
		zap.String("theme", req.MainTheme),
		zap.Int("nodes", tree.Count()),
		zap.String("parse_step", report.Step))
	return &Outcome{Tree: tree, Raw: res.Text, Report: report, Records: res.Records}, nil
}

// Refined improves a seed tree in a second call on the reasoning client.
// When seed is nil, stage A runs OneShot first; stage-A failures propagate.
// A stage-B failure degrades non-fatally: the stage-A tree is returned with
// RefinementFailed set.
func (g *Generator) Refined(ctx context.Context, req Request, seed *mindmap.MindMap) (*Outcome, error) {
	req = req.withDefaults()
	if seed == nil {
		initial, err := g.OneShot(ctx, req)
		if err != nil {
			return nil, err
		}
		seed = initial.Tree
	}

	text, err := g.Composer.ComposeRefine(prompt.Input{
		MainTheme:    req.MainTheme,
		Focus:        req.Focus,
		MapType:      req.MapType,
		Instructions: req.Instructions,
	}, seed, req.Context)
	if err != nil {
		return nil, err
	}

	results := g.invoke(ctx, g.Reasoning, g.ReasoningModel, []string{text})
	res := results[0]
	if res.Err != nil {
		g.Logger.Warn("refinement call failed, keeping seed tree", zap.Error(res.Err))
		return &Outcome{Tree: seed, Records: res.Records, RefinementFailed: true}, nil
	}

	tree, report, perr := mindmap.Parse(res.Text)
	if perr != nil {
		g.Logger.Warn("refined output unparseable, keeping seed tree", zap.Error(perr))
		return &Outcome{Tree: seed, Raw: res.Text, Records: res.Records, RefinementFailed: true}, nil
	}
	return &Outcome{Tree: tree, Raw: res.Text, Report: report, Records: res.Records}, nil
}

// Bootstrap fans out n independent refinements of one seed tree through
// the dispatcher. Outcomes are indexed by variant number; one variant's
// failure never removes or blocks the others.
func (g *Generator) Bootstrap(ctx context.Context, req Request, seed *mindmap.MindMap, n int) ([]Outcome, error) {
	req = req.withDefaults()
	if seed == nil {
		return nil, fmt.Errorf("bootstrap requires a seed tree")
	}
	if n <= 0 {
		return nil, fmt.Errorf("bootstrap requires a positive variant count, got %d", n)
	}

	text, err := g.Composer.ComposeRefine(prompt.Input{
		MainTheme:    req.MainTheme,
		Focus:        req.Focus,
		MapType:      req.MapType,
		Instructions: req.Instructions,
	}, seed, req.Context)
	if err != nil {
		return nil, err
	}

	prompts := make([]string, n)
	for i := range prompts {
		prompts[i] = text
	}
	results := g.invoke(ctx, g.Reasoning, g.ReasoningModel, prompts)

	outcomes := make([]Outcome, n)
	for i, res := range results {
		if res.Err != nil {
			outcomes[i] = Outcome{Err: res.Err, Records: res.Records}
			continue
		}
		tree, report, perr := mindmap.Parse(res.Text)
		if perr != nil {
			outcomes[i] = Outcome{Err: perr, Raw: res.Text, Records: res.Records}
			continue
		}
		outcomes[i] = Outcome{Tree: tree, Raw: res.Text, Report: report, Records: res.Records}
	}
	return outcomes, nil
}

// Dynamic generates one tree per named interval, strictly in order. Each
// interval refines the last successfully produced tree; a failed interval
// is recorded in the series and the next interval reuses the prior seed.
func (g *Generator) Dynamic(ctx context.Context, req Request, seed *mindmap.MindMap, intervals []Interval) (*Series, error) {
	req = req.withDefaults()
	series := &Series{}

	if seed == nil {
		base, err := g.OneShot(ctx, req)
		if err != nil {
			return nil, err
		}
		series.Base = base
		seed = base.Tree
	}

	prev := seed
	for _, iv := range intervals {
		ivReq := req
		ivReq.Context = iv.Context
		outcome, err := g.Refined(ctx, ivReq, prev)
		if err != nil {
			// Compose-level failures only; record and keep the series going.
			series.Entries = append(series.Entries, SeriesOutcome{Interval: iv.Name, Outcome: Outcome{Err: err}})
			continue
		}
		series.Entries = append(series.Entries, SeriesOutcome{Interval: iv.Name, Outcome: *outcome})
		if !outcome.RefinementFailed {
			prev = outcome.Tree
		}
	}
	return series, nil
}

// OneShotTool generates a tree through the tool-call capability: the model
// returns the tree as emit_mindmap arguments instead of free text.
func (g *Generator) OneShotTool(ctx context.Context, req Request) (*Outcome, error) {
	req = req.withDefaults()
	text, err := g.Composer.ComposeBase(prompt.Input{
		MainTheme:    req.MainTheme,
		Focus:        req.Focus,
		MapType:      req.MapType,
		Instructions: req.Instructions,
	})
	if err != nil {
		return nil, err
	}

	started := time.Now().UTC()
	resp, err := g.Base.GenerateWithTools(ctx, text, []llm.ToolSpec{prompt.TreeToolSpec()})
	rec := &llm.Record{
		ID:         uuid.New().String(),
		Attempt:    1,
		Model:      g.BaseModel,
		Prompt:     text,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}
	if err != nil {
		rec.Outcome = "failure"
		rec.ErrorKind = llm.Classify(err).Kind
		return nil, llm.Classify(err)
	}

	raw := resp.Text
	for _, call := range resp.Calls {
		if call.Name == prompt.TreeToolSpec().Name {
			raw = call.Arguments
			break
		}
	}
	rec.Outcome = "success"
	rec.Response = raw

	tree, report, perr := mindmap.Parse(raw)
	if perr != nil {
		return nil, perr
	}
	return &Outcome{Tree: tree, Raw: raw, Report: report, Records: []*llm.Record{rec}}, nil
}

// OneShotStream generates a tree while forwarding raw chunks to fn as they
// arrive. The accumulated text goes through the same parse chain.
func (g *Generator) OneShotStream(ctx context.Context, req Request, fn func(chunk string) error) (*Outcome, error) {
	req = req.withDefaults()
	text, err := g.Composer.ComposeBase(prompt.Input{
		MainTheme:    req.MainTheme,
		Focus:        req.Focus,
		MapType:      req.MapType,
		Instructions: req.Instructions,
	})
	if err != nil {
		return nil, err
	}

	var full string
	err = g.Base.GenerateStream(ctx, text, func(chunk string) error {
		full += chunk
		if fn != nil {
			return fn(chunk)
		}
		return nil
	})
	if err != nil {
		return nil, llm.Classify(err)
	}

	tree, report, perr := mindmap.Parse(full)
	if perr != nil {
		return nil, perr
	}
	return &Outcome{Tree: tree, Raw: full, Report: report}, nil
}
