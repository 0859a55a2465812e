// Package orchestrator runs the per-turn control loop: decide whether a
// tool is needed, resolve its data from the session, gate it through the
// schema validator, execute, fold the result back into the session, and
// format the reply. It is the only component that writes session state.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/anhp95/lang/internal/cluster"
	"github.com/anhp95/lang/internal/history"
	"github.com/anhp95/lang/internal/llm"
	"github.com/anhp95/lang/internal/schema"
	"github.com/anhp95/lang/internal/session"
	"github.com/anhp95/lang/internal/table"
	"github.com/anhp95/lang/internal/tools"
)

// Stage names one step of the turn state machine. A FAILED turn carries
// the stage it failed in.
type Stage string

const (
	StageAwaitingIntent Stage = "awaiting_intent"
	StageToolRequested  Stage = "tool_requested"
	StageEnriching      Stage = "enriching"
	StageValidating     Stage = "validating"
	StageExecuting      Stage = "executing"
	StageContextUpdate  Stage = "context_update"
	StageReply          Stage = "reply"
	StageFailed         Stage = "failed"
)

// Turn statuses exposed to callers.
const (
	StatusOK            = "ok"
	StatusToolError     = "tool_error"
	StatusProviderError = "provider_error"
)

// Turn is the outcome of one handled user turn.
type Turn struct {
	Reply    string                 `json:"reply"`
	Status   string                 `json:"status"`
	Stage    Stage                  `json:"stage"`
	Tool     string                 `json:"tool,omitempty"`
	Summary  map[string]any         `json:"summary,omitempty"`
	GeoJSON  json.RawMessage        `json:"geojson,omitempty"`
	CSV      string                 `json:"csv,omitempty"`
	Filename string                 `json:"filename,omitempty"`
	Snapshot []session.ArtifactInfo `json:"artifacts,omitempty"`
}

// Options carry configuration-fed defaults into tool execution.
type Options struct {
	Cluster         cluster.Params
	MapIncludeNoise bool
	HistoryWindow   int
}

// Orchestrator owns turn processing for all sessions.
type Orchestrator struct {
	sessions *session.Manager
	registry *tools.Registry
	provider llm.Provider
	store    *history.Store
	opts     Options
}

// New assembles an orchestrator. The history store may be nil; transcripts
// and tool-run audit rows are then skipped.
func New(sessions *session.Manager, registry *tools.Registry, provider llm.Provider, store *history.Store, opts Options) *Orchestrator {
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 10
	}
	return &Orchestrator{
		sessions: sessions,
		registry: registry,
		provider: provider,
		store:    store,
		opts:     opts,
	}
}

// Sessions exposes the session manager for transport-level handlers.
func (o *Orchestrator) Sessions() *session.Manager { return o.sessions }

// Registry exposes the tool registry.
func (o *Orchestrator) Registry() *tools.Registry { return o.registry }

// HandleTurn processes one user turn for a conversation. Turns within a
// session serialize on the session's turn mutex; sessions are independent.
func (o *Orchestrator) HandleTurn(ctx context.Context, conversationID, userText, uploadedCSV string) (*Turn, error) {
	return o.HandleTurnStream(ctx, conversationID, userText, uploadedCSV, nil)
}

// HandleTurnStream is HandleTurn with a stage callback for transports that
// surface per-turn progress, e.g. the websocket endpoint. onStage may be nil.
func (o *Orchestrator) HandleTurnStream(ctx context.Context, conversationID, userText, uploadedCSV string, onStage func(Stage)) (*Turn, error) {
	notify := func(s Stage) {
		if onStage != nil {
			onStage(s)
		}
	}
	sctx := o.sessions.Get(conversationID)
	sctx.Lock()
	defer sctx.Unlock()
	sctx.Touch()

	if o.store != nil {
		if err := o.store.EnsureSession(ctx, conversationID); err != nil {
			log.Printf("history: %v", err)
		}
	}

	// Fold an upload into the session before orchestration.
	if uploadedCSV != "" {
		t, err := table.ParseCSV(uploadedCSV)
		if err == nil {
			_, err = sctx.Put(schema.KindRaw, t, session.ProvenanceUpload)
		}
		if err != nil {
			return o.finish(ctx, sctx, &Turn{
				Reply:  "The uploaded CSV could not be loaded: " + err.Error(),
				Status: StatusToolError,
				Stage:  StageFailed,
			}), nil
		}
		if userText == "" {
			userText = "I've uploaded a CSV file."
		}
	}

	o.appendMessage(ctx, conversationID, "user", userText)

	// AWAITING_INTENT: ask the model whether a tool is needed.
	notify(StageAwaitingIntent)
	response, err := o.complete(ctx, conversationID, userText)
	if err != nil {
		return o.finish(ctx, sctx, &Turn{
			Reply:  formatFailure(StageAwaitingIntent, "", err),
			Status: StatusProviderError,
			Stage:  StageAwaitingIntent,
		}), nil
	}
	o.appendMessage(ctx, conversationID, "assistant", response)

	directive, ok := extractDirective(response)
	if !ok {
		// Plain reply: the turn terminates without touching the context.
		reply := cleanReply(response)
		if reply == "" {
			reply = response
		}
		return o.finish(ctx, sctx, &Turn{Reply: reply, Status: StatusOK, Stage: StageReply}), nil
	}

	notify(StageToolRequested)
	turn := o.runTool(ctx, sctx, directive, cleanReply(response), notify)
	return o.finish(ctx, sctx, turn), nil
}

// runTool drives TOOL_REQUESTED through CONTEXT_UPDATE for one directive.
func (o *Orchestrator) runTool(ctx context.Context, sctx *session.Context, d *Directive, reply string, notify func(Stage)) *Turn {
	started := time.Now()
	fail := func(stage Stage, status string, err error, inputRows int) *Turn {
		o.recordRun(ctx, sctx.ID, history.ToolRun{
			Tool:       d.Tool,
			Stage:      string(stage),
			Status:     status,
			Error:      err.Error(),
			InputRows:  inputRows,
			DurationMS: time.Since(started).Milliseconds(),
		})
		return &Turn{
			Reply:  formatFailure(stage, d.Tool, err),
			Status: status,
			Stage:  stage,
			Tool:   d.Tool,
		}
	}

	tool, ok := o.registry.Get(d.Tool)
	if !ok {
		return fail(StageToolRequested, StatusToolError, errors.New("unknown tool "+d.Tool), 0)
	}

	// ENRICHING
	notify(StageEnriching)
	input, inputKind, err := enrichData(tool, d.Params, sctx)
	if err != nil {
		return fail(StageEnriching, StatusToolError, err, 0)
	}
	inputRows := 0
	if input != nil {
		inputRows = input.RowCount()
	}

	// VALIDATING: the handler never runs on invalid input.
	notify(StageValidating)
	if input != nil && tool.ExpectedKind != "" {
		if res := schema.Validate(input, tool.ExpectedKind); !res.OK {
			return fail(StageValidating, StatusToolError, &schema.Error{Kind: tool.ExpectedKind, Result: res}, inputRows)
		}
	}

	// EXECUTING
	notify(StageExecuting)
	in := tools.Input{
		Table:           input,
		Kind:            inputKind,
		Params:          d.Params,
		Wordlist:        sctx.Wordlist(),
		ClusterDefaults: o.opts.Cluster,
		IncludeNoise:    o.opts.MapIncludeNoise,
	}
	if tool.NeedsLLM {
		in.Provider = o.provider
	}
	res, err := tool.Handler(ctx, in)
	if err != nil {
		var pe *llm.ProviderError
		if errors.As(err, &pe) {
			return fail(StageExecuting, StatusProviderError, err, inputRows)
		}
		return fail(StageExecuting, StatusToolError, err, inputRows)
	}
	if res.Failure != "" {
		// Declared failure: the handler ran but logically failed. Nothing
		// is written back.
		return fail(StageExecuting, StatusToolError, errors.New(res.Failure), inputRows)
	}

	// CONTEXT_UPDATE
	notify(StageContextUpdate)
	outputRows := 0
	if res.Table != nil && res.OutputKind != "" {
		prov := session.Provenance(res.Provenance)
		if prov == "" {
			prov = session.Provenance(tool.Name)
		}
		art, err := sctx.Put(res.OutputKind, res.Table, prov)
		if err != nil {
			return fail(StageContextUpdate, StatusToolError, err, inputRows)
		}
		outputRows = art.RowCount
	}
	if res.Wordlist != nil {
		sctx.SetWordlist(res.Wordlist)
	}

	// REPLY
	o.recordRun(ctx, sctx.ID, history.ToolRun{
		Tool:       d.Tool,
		Stage:      string(StageReply),
		Status:     StatusOK,
		InputRows:  inputRows,
		OutputRows: outputRows,
		DurationMS: time.Since(started).Milliseconds(),
	})

	if reply == "" {
		reply = defaultReply(tool.Name)
	}
	return &Turn{
		Reply:    reply + "\n\n" + formatResult(res),
		Status:   StatusOK,
		Stage:    StageReply,
		Tool:     tool.Name,
		Summary:  res.Summary,
		GeoJSON:  res.GeoJSON,
		CSV:      res.CSV,
		Filename: res.Filename,
	}
}

// RunDirect executes one tool against a conversation without the model
// choosing it, going through the same enrich, validate, execute and
// context-update steps as a chat turn. Used by the MCP server, where the
// caller names the tool explicitly.
func (o *Orchestrator) RunDirect(ctx context.Context, conversationID, toolName string, params map[string]any) (*tools.Result, error) {
	sctx := o.sessions.Get(conversationID)
	sctx.Lock()
	defer sctx.Unlock()
	sctx.Touch()

	tool, ok := o.registry.Get(toolName)
	if !ok {
		return nil, errors.New("unknown tool " + toolName)
	}

	input, inputKind, err := enrichData(tool, params, sctx)
	if err != nil {
		return nil, err
	}
	if input != nil && tool.ExpectedKind != "" {
		if res := schema.Validate(input, tool.ExpectedKind); !res.OK {
			return nil, &schema.Error{Kind: tool.ExpectedKind, Result: res}
		}
	}

	in := tools.Input{
		Table:           input,
		Kind:            inputKind,
		Params:          params,
		Wordlist:        sctx.Wordlist(),
		ClusterDefaults: o.opts.Cluster,
		IncludeNoise:    o.opts.MapIncludeNoise,
	}
	if tool.NeedsLLM {
		in.Provider = o.provider
	}
	res, err := tool.Handler(ctx, in)
	if err != nil {
		return nil, err
	}
	if res.Failure != "" {
		return nil, errors.New(res.Failure)
	}

	if res.Table != nil && res.OutputKind != "" {
		prov := session.Provenance(res.Provenance)
		if prov == "" {
			prov = session.Provenance(tool.Name)
		}
		if _, err := sctx.Put(res.OutputKind, res.Table, prov); err != nil {
			return nil, err
		}
	}
	if res.Wordlist != nil {
		sctx.SetWordlist(res.Wordlist)
	}
	return res, nil
}

// CloseSession tears down a conversation: the in-memory context and its
// persisted transcript both go.
func (o *Orchestrator) CloseSession(ctx context.Context, conversationID string) {
	o.sessions.Close(conversationID)
	if o.store != nil {
		if err := o.store.DeleteSession(ctx, conversationID); err != nil {
			log.Printf("history: %v", err)
		}
	}
}

// Export returns the live artifact of the named kind for a conversation.
func (o *Orchestrator) Export(conversationID string, kind schema.Kind) (*table.Table, error) {
	sctx, ok := o.sessions.Lookup(conversationID)
	if !ok {
		return nil, &NotFoundError{Kind: string(kind)}
	}
	art := sctx.Get(kind)
	if art == nil {
		return nil, &NotFoundError{Kind: string(kind)}
	}
	return art.Table, nil
}

// MapLayer builds a GeoJSON layer from the best available artifact without
// a model round trip. Used by the HTTP map endpoint.
func (o *Orchestrator) MapLayer(ctx context.Context, conversationID string, includeNoise *bool) (json.RawMessage, error) {
	sctx, ok := o.sessions.Lookup(conversationID)
	if !ok {
		return nil, &NoDataError{Tool: "to_map_layer"}
	}
	tool, _ := o.registry.Get("to_map_layer")
	art := sctx.FirstOf(tool.InputKinds...)
	if art == nil {
		return nil, &NoDataError{Tool: "to_map_layer"}
	}

	params := map[string]any{}
	if includeNoise != nil {
		params["include_noise"] = *includeNoise
	}
	res, err := tool.Handler(ctx, tools.Input{
		Table:        art.Table,
		Kind:         art.Kind,
		Params:       params,
		IncludeNoise: o.opts.MapIncludeNoise,
	})
	if err != nil {
		return nil, err
	}
	if res.Failure != "" {
		return nil, errors.New(res.Failure)
	}
	return res.GeoJSON, nil
}

// complete builds the prompt window and calls the completion provider.
func (o *Orchestrator) complete(ctx context.Context, conversationID, userText string) (string, error) {
	sctx := o.sessions.Get(conversationID)
	system := buildSystemPrompt(o.registry, sctx.Snapshot())

	messages := []llm.Message{{Role: llm.RoleSystem, Content: system}}
	if o.store != nil {
		window, err := o.store.RecentMessages(ctx, conversationID, o.opts.HistoryWindow)
		if err != nil {
			log.Printf("history: %v", err)
		}
		for _, m := range window {
			messages = append(messages, llm.Message{Role: llm.Role(m.Role), Content: m.Content})
		}
	}
	// The user turn is already in the window when a store is present.
	if o.store == nil {
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userText})
	}

	resp, err := o.provider.Complete(ctx, llm.CompletionRequest{
		Messages:    messages,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (o *Orchestrator) finish(ctx context.Context, sctx *session.Context, t *Turn) *Turn {
	t.Snapshot = sctx.Snapshot().Artifacts
	if t.Status != StatusOK {
		o.appendMessage(ctx, sctx.ID, "assistant", t.Reply)
	}
	return t
}

func (o *Orchestrator) appendMessage(ctx context.Context, conversationID, role, content string) {
	if o.store == nil || content == "" {
		return
	}
	if _, err := o.store.AppendMessage(ctx, conversationID, role, content); err != nil {
		log.Printf("history: %v", err)
	}
}

func (o *Orchestrator) recordRun(ctx context.Context, conversationID string, run history.ToolRun) {
	if o.store == nil {
		return
	}
	run.SessionID = conversationID
	if err := o.store.RecordToolRun(ctx, run); err != nil {
		log.Printf("history: %v", err)
	}
}
