package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/movitransit/movi/internal/agent"
	"github.com/movitransit/movi/internal/log"
	"github.com/movitransit/movi/internal/security"
	"github.com/movitransit/movi/internal/session"
	"github.com/movitransit/movi/internal/tools"
	"github.com/movitransit/movi/internal/transit"
)

// Agent name and description constants
const (
	// Name is the unique identifier for the Movi agent.
	Name = "movi"

	// Description describes the Movi agent's capabilities.
	Description = "Transport manager assistant that answers questions about stops, routes, trips, and deployments through structured tools and schema-grounded SQL."

	// DefaultModelName is the provider-qualified model used when Config
	// does not override it.
	DefaultModelName = "openai/gpt-4o-mini"

	// fallbackResponseMessage is the message returned when the model produces an empty response.
	fallbackResponseMessage = "I apologize, but I couldn't generate a response. Please try rephrasing your question."

	// pendingConfirmationTTL bounds how long a paused removal waits for the
	// operator. After this the decision is treated as abandoned and a new
	// request has to start over.
	pendingConfirmationTTL = 10 * time.Minute
)

// ErrEmptyQuery indicates the request carried neither text nor an image.
var ErrEmptyQuery = errors.New("empty query")

// Request is one operator turn: the typed query plus the UI context the
// client reports with it.
type Request struct {
	SessionID uuid.UUID
	Query     string

	// Page is the admin page the operator is on ("busDashboard" or
	// "manageRoute"). Anything else is treated as unknown.
	Page string

	// ImageData is an optional image for vision questions, as a data URL
	// or bare base64.
	ImageData string
}

// StreamCallback receives the events of one turn as they happen: text
// chunks, tool lifecycle markers, and the confirmation request when a
// dangerous operation pauses. Return an error to abort the stream.
type StreamCallback func(ctx context.Context, event agent.Event) error

// Config contains all required parameters for the Movi agent.
type Config struct {
	Genkit   *genkit.Genkit
	Sessions *session.Store
	Transit  *transit.Store
	Fleet    *tools.FleetToolset
	Logger   log.Logger
	Tools    []ai.ToolRef // Pre-registered tools, e.g. tools.NewRegistry(g).All(ctx)

	// Configuration values
	ModelName    string // Provider-qualified model name (e.g., "openai/gpt-4o-mini")
	MaxTurns     int    // Maximum agentic loop turns
	HistoryLimit int32  // Messages loaded per turn (0 = session.DefaultHistoryLimit)

	// Resilience configuration
	RetryConfig          RetryConfig          // Model retry settings (zero-value uses defaults)
	CircuitBreakerConfig CircuitBreakerConfig // Circuit breaker settings (zero-value uses defaults)
	RateLimiter          *rate.Limiter        // Optional: proactive rate limiting (nil = use default)

	// Token management
	TokenBudget TokenBudget // Token budget for the history window (zero-value uses defaults)

	// PromptValidator screens operator input for injection patterns.
	// Detection is logged, never blocking; the schema-pinned system prompt
	// is the second layer. Nil disables screening.
	PromptValidator *security.PromptValidator
}

// validate checks if all required parameters are present.
func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.Sessions == nil {
		return errors.New("session store is required")
	}
	if cfg.Transit == nil {
		return errors.New("transit store is required")
	}
	if cfg.Fleet == nil {
		return errors.New("fleet toolset is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if len(cfg.Tools) == 0 {
		return errors.New("at least one tool is required")
	}
	return nil
}

// Agent is Movi's conversational core. It runs the agentic loop over the
// transit tools, persists turns to the session store, and holds paused
// dangerous operations until the operator decides.
//
// All configuration values are captured immutably at construction time
// to ensure thread-safe concurrent access. The only mutable state is the
// pending-confirmation table, guarded by its own mutex.
type Agent struct {
	// Immutable configuration (captured at construction)
	modelName    string
	maxTurns     int
	historyLimit int32

	// Resilience (captured at construction)
	retryConfig    RetryConfig
	circuitBreaker *CircuitBreaker
	rateLimiter    *rate.Limiter

	// Token management (captured at construction)
	tokenBudget TokenBudget

	// Dependencies (read-only after construction)
	g         *genkit.Genkit
	sessions  *session.Store
	transit   *transit.Store
	fleet     *tools.FleetToolset
	guard     *security.PromptValidator
	logger    log.Logger
	toolRefs  []ai.ToolRef // Cached for ai.WithTools()
	toolNames string       // Cached as comma-separated for logging

	// Paused removals waiting on operator confirmation, one per session.
	mu      sync.Mutex
	pending map[uuid.UUID]*pendingConfirmation
}

// pendingConfirmation is a paused turn: the interrupt, the conversation up
// to and including the interrupted model message, and the page context the
// resumed generation should keep.
type pendingConfirmation struct {
	event    *agent.InterruptEvent
	messages []*ai.Message
	page     string
	created  time.Time
}

// New creates a new Agent with required configuration.
//
// Tools must already be registered with Genkit (tools.Register); the agent
// only references them.
//
// Example:
//
//	agent, err := chat.New(chat.Config{
//	    Genkit:   g,
//	    Sessions: sessionStore,
//	    Transit:  transitStore,
//	    Fleet:    fleetToolset,
//	    Logger:   logger,
//	    Tools:    tools.NewRegistry(g).All(ctx),
//	})
func New(cfg Config) (*Agent, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Apply defaults for optional configuration values
	modelName := cfg.ModelName
	if modelName == "" {
		modelName = DefaultModelName
	}

	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 5
	}

	historyLimit := session.NormalizeHistoryLimit(cfg.HistoryLimit)

	// Apply resilience defaults if not configured
	retryConfig := cfg.RetryConfig
	if retryConfig.MaxRetries == 0 {
		retryConfig = DefaultRetryConfig()
	}

	cbConfig := cfg.CircuitBreakerConfig
	if cbConfig.FailureThreshold == 0 {
		cbConfig = DefaultCircuitBreakerConfig()
	}

	tokenBudget := cfg.TokenBudget
	if tokenBudget.MaxHistoryTokens == 0 {
		tokenBudget = DefaultTokenBudget()
	}

	// Use provided rate limiter or create default
	// Default: 10 requests/sec sustained, burst of 30
	rl := cfg.RateLimiter
	if rl == nil {
		rl = rate.NewLimiter(10, 30)
	}

	// Cache tool names at construction for logging
	names := make([]string, len(cfg.Tools))
	for i, t := range cfg.Tools {
		names[i] = t.Name()
	}

	a := &Agent{
		modelName:    modelName,
		maxTurns:     maxTurns,
		historyLimit: historyLimit,

		retryConfig:    retryConfig,
		circuitBreaker: NewCircuitBreaker(cbConfig),
		rateLimiter:    rl,

		tokenBudget: tokenBudget,

		g:         cfg.Genkit,
		sessions:  cfg.Sessions,
		transit:   cfg.Transit,
		fleet:     cfg.Fleet,
		guard:     cfg.PromptValidator,
		logger:    cfg.Logger,
		toolRefs:  cfg.Tools,
		toolNames: strings.Join(names, ", "),

		pending: make(map[uuid.UUID]*pendingConfirmation),
	}

	a.logger.Info("movi agent initialized",
		"totalTools", len(a.toolRefs),
		"maxTurns", a.maxTurns,
		"model", a.modelName,
	)

	return a, nil
}

// Execute runs one chat turn without streaming.
// This is a convenience wrapper around ExecuteStream with nil callback.
func (a *Agent) Execute(ctx context.Context, req Request) (*agent.Response, error) {
	return a.ExecuteStream(ctx, req, nil)
}

// ExecuteStream runs one chat turn with optional streaming output.
// If callback is non-nil, it receives text chunks and tool events as they
// happen. The final response is always returned after generation completes.
//
// When the model calls a dangerous tool, the returned response has
// Interrupt set and nothing has been modified yet; the turn finishes later
// through Confirm.
func (a *Agent) ExecuteStream(ctx context.Context, req Request, callback StreamCallback) (*agent.Response, error) {
	if strings.TrimSpace(req.Query) == "" && req.ImageData == "" {
		return nil, ErrEmptyQuery
	}
	if req.SessionID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing session ID", agent.ErrInvalidSession)
	}

	page := normalizePage(req.Page)
	a.logger.Debug("executing chat turn",
		"session_id", req.SessionID,
		"page", page,
		"streaming", callback != nil,
	)

	// Injection screening is advisory: the operator owns this data anyway,
	// so suspicious input is logged and sent through.
	if a.guard != nil && req.Query != "" {
		if verdict := a.guard.Validate(req.Query); !verdict.Safe {
			a.logger.Warn("possible prompt injection in operator input",
				"session_id", req.SessionID,
				"patterns", verdict.Patterns,
			)
		}
	}

	history, err := a.sessions.History(ctx, req.SessionID, a.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("getting history: %w", err)
	}

	var imagePart *ai.Part
	if req.ImageData != "" {
		imagePart, err = agent.ImagePart(req.ImageData)
		if err != nil {
			return nil, fmt.Errorf("processing image: %w", err)
		}
	}
	userMsg := agent.UserMessage(req.Query, imagePart)

	// Build this turn's message list: an owned copy of the history within
	// the token budget, then the new user message.
	messages := a.truncateHistory(deepCopyMessages(history), a.tokenBudget.MaxHistoryTokens)
	messages = append(messages, userMsg)

	// Route tool lifecycle events into the same stream as text chunks.
	if callback != nil {
		ctx = tools.ContextWithEmitter(ctx, &streamEmitter{
			ctx:      ctx,
			callback: callback,
			logger:   a.logger,
		})
	}

	resp, err := a.generateResponse(ctx, messages, page, callback)
	if err != nil {
		return nil, err
	}

	if resp.FinishReason == ai.FinishReasonInterrupted {
		return a.holdForConfirmation(ctx, req.SessionID, page, messages, resp, []*ai.Message{userMsg, resp.Message}, callback)
	}

	responseText := resp.Text()

	// Only apply fallback when truly empty (no text AND no tool requests).
	// Empty text alongside tool requests is valid agentic behavior.
	if strings.TrimSpace(responseText) == "" && len(resp.ToolRequests()) == 0 {
		a.logger.Warn("model returned empty response with no tool requests",
			"session_id", req.SessionID)
		responseText = fallbackResponseMessage
	}

	modelMsg := ai.NewModelMessage(ai.NewTextPart(responseText))

	// Save the turn; a lost write degrades history, not this response.
	newMessages := []*ai.Message{userMsg, modelMsg}
	if err := a.sessions.AppendMessages(ctx, req.SessionID, page, newMessages); err != nil {
		a.logger.Warn("appending messages to history", "error", err)
	}

	return &agent.Response{
		FinalText:    responseText,
		History:      append(messages, modelMsg),
		ToolRequests: resp.ToolRequests(),
	}, nil
}

// holdForConfirmation parks an interrupted turn until the operator decides.
//
// messages is the conversation sent to the model (not yet including the
// interrupted reply); persisted is what this turn adds to the session store.
// Nothing has been executed at this point: the tool saw the danger and
// interrupted before modifying anything.
func (a *Agent) holdForConfirmation(
	ctx context.Context,
	sessionID uuid.UUID,
	page string,
	messages []*ai.Message,
	resp *ai.ModelResponse,
	persisted []*ai.Message,
	callback StreamCallback,
) (*agent.Response, error) {
	event := agent.InterruptFromMessage(resp.Message)
	if event == nil {
		a.logger.Error("interrupted response carries no tool request",
			"session_id", sessionID)
		return nil, fmt.Errorf("%w: interrupted response without tool request", agent.ErrExecutionFailed)
	}

	a.backfillConsequence(ctx, event)

	a.mu.Lock()
	a.prunePendingLocked()
	a.pending[sessionID] = &pendingConfirmation{
		event:    event,
		messages: append(messages, resp.Message),
		page:     page,
		created:  time.Now(),
	}
	a.mu.Unlock()

	// Persist up to the interrupted model message so the pause survives in
	// history even if the operator walks away.
	if err := a.sessions.AppendMessages(ctx, sessionID, page, persisted); err != nil {
		a.logger.Warn("appending interrupted turn to history", "error", err)
	}

	confirmation := &agent.PendingConfirmation{
		SessionID:   sessionID.String(),
		ToolName:    event.ToolName,
		Parameters:  event.Parameters,
		Consequence: event.Consequence,
		DangerLevel: event.DangerLevel,
	}

	a.logger.Info("turn paused for operator confirmation",
		"session_id", sessionID,
		"tool", event.ToolName,
		"trip", event.StringParam("trip_display_name"),
	)

	if callback != nil {
		if err := callback(ctx, agent.Event{
			Type:         agent.EventConfirmation,
			Confirmation: confirmation,
		}); err != nil {
			return nil, fmt.Errorf("streaming confirmation request: %w", err)
		}
	}

	return &agent.Response{
		FinalText:    resp.Text(),
		History:      append(messages, resp.Message),
		ToolRequests: resp.ToolRequests(),
		Interrupt:    event,
	}, nil
}

// backfillConsequence fills in the warning text when the interrupt metadata
// did not carry one, reading the live booking impact of the targeted trip.
func (a *Agent) backfillConsequence(ctx context.Context, event *agent.InterruptEvent) {
	if event.Consequence == "" && event.ToolName == tools.ToolRemoveVehicleFromTrip {
		if trip := event.StringParam("trip_display_name"); trip != "" {
			impact, err := a.transit.RemovalImpactByTrip(ctx, trip)
			if err == nil && impact.HasVehicle() {
				event.Consequence = tools.RemovalConsequence(*impact)
			}
		}
	}
	if event.DangerLevel == "" {
		event.DangerLevel = tools.DangerLevelDangerous.String()
	}
}

// Confirm finishes a paused turn with the operator's decision.
//
// Approval executes the held removal with force set, then resumes the model
// with the real result so it can report what happened. Rejection resumes
// the model with a rejection output and nothing is modified. Either way the
// pending entry is consumed; deciding twice returns ErrNoPendingConfirmation.
func (a *Agent) Confirm(ctx context.Context, sessionID uuid.UUID, decision agent.ConfirmationResponse, callback StreamCallback) (*agent.Response, error) {
	a.mu.Lock()
	p := a.pending[sessionID]
	delete(a.pending, sessionID)
	a.mu.Unlock()

	if p == nil || time.Since(p.created) > pendingConfirmationTTL {
		return nil, fmt.Errorf("session %s: %w", sessionID, agent.ErrNoPendingConfirmation)
	}
	event := p.event

	a.logger.Info("operator decided on paused operation",
		"session_id", sessionID,
		"tool", event.ToolName,
		"approved", decision.Approved,
	)

	if callback != nil {
		ctx = tools.ContextWithEmitter(ctx, &streamEmitter{
			ctx:      ctx,
			callback: callback,
			logger:   a.logger,
		})
	}

	var output any
	if decision.Approved {
		result, err := a.runApprovedTool(ctx, event, callback)
		if err != nil {
			return nil, err
		}
		output = result
	} else {
		output = agent.RejectedOutput(decision.Reason)
	}

	toolPart := event.ToolResponse(output)
	if toolPart == nil {
		return nil, fmt.Errorf("%w: pending confirmation lost its tool request", agent.ErrExecutionFailed)
	}

	// Resume generation: the held conversation, the interrupt marker
	// scrubbed off the paused request, and the decision as the tool reply.
	messages := scrubInterruptMarkers(deepCopyMessages(p.messages))
	toolMsg := &ai.Message{Role: ai.RoleTool, Content: []*ai.Part{toolPart}}
	messages = append(messages, toolMsg)

	resp, err := a.generateResponse(ctx, messages, p.page, callback)
	if err != nil {
		return nil, err
	}

	// The model can pause again, e.g. when it retries the removal without
	// force instead of reading the rejection. Park the new interrupt like
	// the first one.
	if resp.FinishReason == ai.FinishReasonInterrupted {
		return a.holdForConfirmation(ctx, sessionID, p.page, messages, resp, []*ai.Message{toolMsg, resp.Message}, callback)
	}

	responseText := resp.Text()
	if strings.TrimSpace(responseText) == "" && len(resp.ToolRequests()) == 0 {
		a.logger.Warn("model returned empty response after confirmation",
			"session_id", sessionID)
		responseText = fallbackResponseMessage
	}

	modelMsg := ai.NewModelMessage(ai.NewTextPart(responseText))
	persisted := []*ai.Message{toolMsg, modelMsg}
	if err := a.sessions.AppendMessages(ctx, sessionID, p.page, persisted); err != nil {
		a.logger.Warn("appending confirmation turn to history", "error", err)
	}

	return &agent.Response{
		FinalText:    responseText,
		History:      append(messages, modelMsg),
		ToolRequests: resp.ToolRequests(),
	}, nil
}

// Pending reports the confirmation a session is waiting on, if any.
func (a *Agent) Pending(sessionID uuid.UUID) *agent.PendingConfirmation {
	a.mu.Lock()
	p := a.pending[sessionID]
	a.mu.Unlock()

	if p == nil || time.Since(p.created) > pendingConfirmationTTL {
		return nil
	}
	return &agent.PendingConfirmation{
		SessionID:   sessionID.String(),
		ToolName:    p.event.ToolName,
		Parameters:  p.event.Parameters,
		Consequence: p.event.Consequence,
		DangerLevel: p.event.DangerLevel,
	}
}

// runApprovedTool executes the operation the operator approved. Only the
// vehicle removal tool can pause today; anything else in a pending entry
// means the table was corrupted.
func (a *Agent) runApprovedTool(ctx context.Context, event *agent.InterruptEvent, callback StreamCallback) (any, error) {
	if event.ToolName != tools.ToolRemoveVehicleFromTrip {
		return nil, fmt.Errorf("%w: no approval path for tool %q", agent.ErrExecutionFailed, event.ToolName)
	}
	trip := event.StringParam("trip_display_name")
	if trip == "" {
		return nil, fmt.Errorf("%w: pending removal lost its trip name", agent.ErrExecutionFailed)
	}

	if callback != nil {
		_ = callback(ctx, agent.Event{Type: agent.EventToolStart, Tool: event.ToolName})
	}

	result, err := a.fleet.RemoveVehicle(ctx, trip, true)
	if err != nil {
		return nil, fmt.Errorf("forced removal: %w", err)
	}

	if callback != nil {
		_ = callback(ctx, agent.Event{Type: agent.EventToolComplete, Tool: event.ToolName})
	}
	return result, nil
}

// prunePendingLocked drops abandoned confirmations. Caller holds a.mu.
func (a *Agent) prunePendingLocked() {
	for id, p := range a.pending {
		if time.Since(p.created) > pendingConfirmationTTL {
			delete(a.pending, id)
		}
	}
}

// generateResponse is the unified generation logic for both streaming and
// non-streaming modes, shared by the first pass and the confirmation resume.
// messages must be owned by the caller (deep copied); Genkit mutates message
// content in place while rendering.
func (a *Agent) generateResponse(ctx context.Context, messages []*ai.Message, page string, callback StreamCallback) (*ai.ModelResponse, error) {
	schemaDDL, err := a.transit.SchemaDDL(ctx)
	if err != nil {
		// The prompt degrades but the tools still work, so keep going.
		a.logger.Warn("loading schema for system prompt", "error", err)
		schemaDDL = fmt.Sprintf("(error loading schema: %v)", err)
	}

	opts := []ai.GenerateOption{
		ai.WithSystem(systemPrompt(schemaDDL, page)),
		ai.WithMessages(messages...),
		ai.WithTools(a.toolRefs...),
		ai.WithMaxTurns(a.maxTurns),
		ai.WithModelName(a.modelName),
	}

	if callback != nil {
		opts = append(opts, ai.WithStreaming(func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
			text := chunk.Text()
			if text == "" {
				return nil
			}
			return callback(ctx, agent.Event{Type: agent.EventText, Text: text})
		}))
	}

	a.logger.Debug("calling model",
		"model", a.modelName,
		"page", page,
		"tools", a.toolNames,
		"maxTurns", a.maxTurns,
		"messageCount", len(messages),
	)

	// Check circuit breaker before attempting the request
	if err := a.circuitBreaker.Allow(); err != nil {
		a.logger.Warn("circuit breaker is open, rejecting request",
			"state", a.circuitBreaker.State().String())
		return nil, fmt.Errorf("service unavailable: %w", err)
	}

	resp, err := a.generateWithRetry(ctx, opts)
	if err != nil {
		a.circuitBreaker.Failure()
		return nil, err
	}

	a.circuitBreaker.Success()
	return resp, nil
}

// scrubInterruptMarkers removes the interrupt metadata from tool request
// parts so a resumed conversation does not look interrupted again. The
// caller owns the messages.
func scrubInterruptMarkers(msgs []*ai.Message) []*ai.Message {
	for _, msg := range msgs {
		for _, part := range msg.Content {
			if part.ToolRequest == nil || part.Metadata == nil {
				continue
			}
			if _, ok := part.Metadata["interrupt"]; ok {
				delete(part.Metadata, "interrupt")
				part.Metadata["resolvedInterrupt"] = true
			}
		}
	}
	return msgs
}

// streamEmitter forwards tool lifecycle events from the tools package into
// the turn's stream callback. Bound to one request; the captured context is
// the request context the callback expects.
type streamEmitter struct {
	ctx      context.Context
	callback StreamCallback
	logger   log.Logger
}

func (e *streamEmitter) OnToolStart(name string) {
	e.emit(agent.Event{Type: agent.EventToolStart, Tool: name})
}

func (e *streamEmitter) OnToolComplete(name string) {
	e.emit(agent.Event{Type: agent.EventToolComplete, Tool: name})
}

// OnToolError stays off the stream: a paused dangerous operation surfaces
// as an interrupt error inside Genkit, and the operator sees the
// confirmation event for it, not a failure frame. Genuine tool failures
// travel inside the tool result and reach the model directly.
func (e *streamEmitter) OnToolError(name string) {
	e.logger.Debug("tool returned error", "tool", name)
}

func (e *streamEmitter) emit(event agent.Event) {
	if err := e.callback(e.ctx, event); err != nil {
		e.logger.Warn("streaming tool event", "type", event.Type, "tool", event.Tool, "error", err)
	}
}

// deepCopyMessages creates independent copies of Message and Part structs.
//
// WORKAROUND: Genkit's renderMessages() modifies msg.Content in-place,
// causing data races in concurrent executions. This function creates
// independent struct copies to prevent the race.
//
// Tested version: github.com/firebase/genkit/go v1.4.0
//
// To remove this workaround:
// 1. Upgrade Genkit: go get -u github.com/firebase/genkit/go@latest
// 2. Run: go test -race ./internal/chat/...
// 3. If race detector passes, remove deepCopyMessages() calls
// 4. If race still fails, update version in this comment
func deepCopyMessages(msgs []*ai.Message) []*ai.Message {
	if msgs == nil {
		return nil // Preserve nil vs empty slice semantics
	}
	copied := make([]*ai.Message, len(msgs))
	for i, msg := range msgs {
		parts := make([]*ai.Part, len(msg.Content))
		for j, part := range msg.Content {
			parts[j] = deepCopyPart(part)
		}
		copied[i] = &ai.Message{
			Role:     msg.Role,
			Content:  parts,
			Metadata: shallowCopyMap(msg.Metadata),
		}
	}
	return copied
}

// deepCopyPart creates an independent copy of an ai.Part struct.
//
// Note on Input/Output fields: ToolRequest.Input and ToolResponse.Output
// are type `any` and copied by reference. This is acceptable because:
// 1. Genkit's renderMessages() only mutates msg.Content slice, not tool data
// 2. Tool inputs/outputs are typically JSON-serializable primitives
// If deep copy of these fields is needed, use encoding/json round-trip.
func deepCopyPart(p *ai.Part) *ai.Part {
	if p == nil {
		return nil
	}
	cp := &ai.Part{
		Kind:        p.Kind,
		ContentType: p.ContentType,
		Text:        p.Text,
		Custom:      shallowCopyMap(p.Custom),
		Metadata:    shallowCopyMap(p.Metadata),
	}
	if p.ToolRequest != nil {
		cp.ToolRequest = &ai.ToolRequest{
			Input: p.ToolRequest.Input, // Reference copy - see function doc
			Name:  p.ToolRequest.Name,
			Ref:   p.ToolRequest.Ref,
		}
	}
	if p.ToolResponse != nil {
		cp.ToolResponse = &ai.ToolResponse{
			Name:   p.ToolResponse.Name,
			Output: p.ToolResponse.Output, // Reference copy - see function doc
			Ref:    p.ToolResponse.Ref,
		}
	}
	if p.Resource != nil {
		cp.Resource = &ai.ResourcePart{Uri: p.Resource.Uri}
	}
	return cp
}

// shallowCopyMap copies map keys and values but not nested structures.
// Nested maps, slices, or pointers remain shared with the original.
func shallowCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// Title generation constants.
const (
	titleGenerationTimeout = 5 * time.Second
	titleInputMaxRunes     = 500
)

var titlePrompt = fmt.Sprintf(`Generate a concise title (max %d characters) for a chat session based on this first message.`, session.TitleMaxLength) + `
The title should capture the main topic or intent.
Return ONLY the title text, no quotes, no explanations, no punctuation at the end.

Message: %s

Title:`

// GenerateTitle generates a concise session title from the user's first
// message. Returns empty string on failure (best-effort).
func (a *Agent) GenerateTitle(ctx context.Context, userMessage string) string {
	ctx, cancel := context.WithTimeout(ctx, titleGenerationTimeout)
	defer cancel()

	inputRunes := []rune(userMessage)
	if len(inputRunes) > titleInputMaxRunes {
		userMessage = string(inputRunes[:titleInputMaxRunes]) + "..."
	}

	response, err := genkit.Generate(ctx, a.g,
		ai.WithPrompt(titlePrompt, userMessage),
		ai.WithModelName(a.modelName),
	)
	if err != nil {
		a.logger.Debug("title generation failed", "error", err)
		return ""
	}

	title := strings.TrimSpace(response.Text())
	if title == "" {
		return ""
	}

	titleRunes := []rune(title)
	if len(titleRunes) > session.TitleMaxLength {
		title = string(titleRunes[:session.TitleMaxLength-3]) + "..."
	}

	return title
}
