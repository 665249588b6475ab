package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/botmesh/botmesh-core/internal/core/domain"
	"github.com/botmesh/botmesh-core/internal/core/ports/driven"
	"github.com/botmesh/botmesh-core/internal/core/ports/driving"
)

const (
	// maxToolRounds caps the number of tool-execution rounds in one exchange.
	// The cap is the loop's only defense against a model that keeps asking
	// for tools forever.
	maxToolRounds = 5

	// transcriptLimit bounds how much prior history is sent to the model.
	transcriptLimit = 20

	// fallbackAnswer is returned when the exchange ends without any model text.
	fallbackAnswer = "I'm sorry, I couldn't complete that request. Please reach out to our support team for help."

	// unknownToolResult is fed back to the model when it requests a tool the
	// bot does not have. The loop informs the model and lets it recover
	// rather than aborting the exchange.
	unknownToolResult = `{"error": "Tool not found"}`
)

// ChatbotOrchestrator is the top-level entry point for one inbound message:
//
//  1. Resolve the active conversation and persist the inbound message
//  2. Retrieve and format the bot's knowledge-base context
//  3. Load the bot's active tools and build their declarations
//  4. Compose the system instruction from persona, context and policy
//  5. Run the bounded tool-calling exchange with the generative model
//  6. Persist the outbound answer with the retrieval and tool audit metadata
//
// The inbound message is persisted before any model work so a downstream
// failure still leaves a record of what was asked.
type ChatbotOrchestrator struct {
	bots          driven.BotStore
	conversations driving.ConversationService
	retrieval     driving.RetrievalService
	tools         driven.ToolStore
	model         driven.ChatModel
	runnerFactory driven.ToolRunnerFactory
	logger        *slog.Logger
}

var _ driving.ChatbotService = (*ChatbotOrchestrator)(nil)

// ChatbotOrchestratorConfig holds the dependencies for a ChatbotOrchestrator.
type ChatbotOrchestratorConfig struct {
	BotStore            driven.BotStore
	ConversationService driving.ConversationService
	RetrievalService    driving.RetrievalService
	ToolStore           driven.ToolStore
	ChatModel           driven.ChatModel
	RunnerFactory       driven.ToolRunnerFactory
	Logger              *slog.Logger
}

// NewChatbotOrchestrator creates a chatbot orchestrator from the given config.
func NewChatbotOrchestrator(cfg ChatbotOrchestratorConfig) *ChatbotOrchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatbotOrchestrator{
		bots:          cfg.BotStore,
		conversations: cfg.ConversationService,
		retrieval:     cfg.RetrievalService,
		tools:         cfg.ToolStore,
		model:         cfg.ChatModel,
		runnerFactory: cfg.RunnerFactory,
		logger:        logger,
	}
}

func (o *ChatbotOrchestrator) Execute(ctx context.Context, companyID, botID, visitorID, userQuery string, channel domain.Channel) (*domain.ChatResult, error) {
	if strings.TrimSpace(userQuery) == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}

	bot, err := o.bots.Get(ctx, companyID, botID)
	if err != nil {
		return nil, fmt.Errorf("load bot: %w", err)
	}
	if !bot.Active {
		return nil, fmt.Errorf("%w: bot %s is inactive", domain.ErrForbidden, botID)
	}

	conv, err := o.conversations.GetOrCreate(ctx, companyID, botID, visitorID, channel)
	if err != nil {
		return nil, fmt.Errorf("resolve conversation: %w", err)
	}

	if _, err := o.conversations.AddMessage(ctx, conv.ID, "user", userQuery, nil); err != nil {
		return nil, fmt.Errorf("persist inbound message: %w", err)
	}

	logger := o.logger.With("conversation_id", conv.ID, "company_id", companyID, "bot_id", botID)

	results, err := o.retrieval.Search(ctx, companyID, botID, userQuery, 0)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	contextText := o.retrieval.FormatContext(results)

	defs, err := o.tools.ListActive(ctx, companyID, botID)
	if err != nil {
		return nil, fmt.Errorf("load tools: %w", err)
	}
	runners := make(map[string]driven.ToolRunner, len(defs))
	decls := make([]domain.ToolDeclaration, 0, len(defs))
	for _, def := range defs {
		runner := o.runnerFactory(def)
		runners[runner.Name()] = runner
		decls = append(decls, runner.Declaration())
	}

	turns, err := o.buildTranscript(ctx, companyID, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	loop := &toolLoop{
		model:   o.model,
		runners: runners,
		request: domain.ChatRequest{
			SystemInstruction: buildSystemInstruction(bot, contextText),
			Turns:             turns,
			Tools:             decls,
		},
		logger: logger,
	}
	answer, state, err := loop.run(ctx)
	if err != nil {
		return nil, err
	}
	if state == loopTurnCapReached {
		logger.Warn("tool loop hit turn cap", "tools_used", len(loop.audit))
	}
	if strings.TrimSpace(answer) == "" {
		answer = fallbackAnswer
	}

	meta := &domain.MessageMeta{ToolCalls: loop.audit}
	for _, r := range results {
		meta.RAGContext = append(meta.RAGContext, *r)
	}
	if _, err := o.conversations.AddMessage(ctx, conv.ID, "assistant", answer, meta); err != nil {
		return nil, fmt.Errorf("persist outbound message: %w", err)
	}

	logger.Info("chat exchange complete",
		"channel", channel,
		"context_chunks", len(results),
		"tools_used", len(loop.audit))

	return &domain.ChatResult{
		Response:       answer,
		ConversationID: conv.ID,
		ToolsUsed:      len(loop.audit),
	}, nil
}

// buildTranscript maps the persisted history, which already includes the
// just-appended inbound message, into model turns.
func (o *ChatbotOrchestrator) buildTranscript(ctx context.Context, companyID, conversationID string) ([]domain.ChatTurn, error) {
	history, err := o.conversations.GetHistory(ctx, companyID, conversationID, transcriptLimit)
	if err != nil {
		return nil, err
	}
	turns := make([]domain.ChatTurn, 0, len(history))
	for _, msg := range history {
		role := domain.ChatRoleModel
		if msg.Direction == domain.DirectionInbound {
			role = domain.ChatRoleUser
		}
		turns = append(turns, domain.ChatTurn{Role: role, Text: msg.Content})
	}
	return turns, nil
}

func buildSystemInstruction(bot *domain.Bot, contextText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s.", bot.Name)
	if bot.Description != "" {
		b.WriteString(" ")
		b.WriteString(bot.Description)
	}
	if bot.SystemPrompt != "" {
		b.WriteString("\n")
		b.WriteString(bot.SystemPrompt)
	}
	b.WriteString("\n\nAnswer using the context below when it is relevant. ")
	b.WriteString("If the context does not cover the question, consider the available tools. ")
	b.WriteString("If neither helps, direct the user to human support.")
	b.WriteString("\n\nContext:\n")
	if contextText == "" {
		b.WriteString("(no relevant documents found)")
	} else {
		b.WriteString(contextText)
	}
	return b.String()
}

// loopState is the tool loop's exchange state.
type loopState int

const (
	loopAwaitingModel loopState = iota
	loopExecutingTools
	loopDone
	loopTurnCapReached
)

// toolLoop drives the bounded tool-calling exchange. Each round sends the
// transcript to the model; tool-call requests are executed and fed back as a
// single batch turn, and the loop re-checks the new response. The transcript
// and the audit log accumulate as the exchange progresses.
type toolLoop struct {
	model   driven.ChatModel
	runners map[string]driven.ToolRunner
	request domain.ChatRequest
	audit   []domain.ToolCallRecord
	logger  *slog.Logger
}

// run returns the answer text and the terminal state. When the turn cap is
// reached with tool calls still pending, the model's last text is the answer.
func (l *toolLoop) run(ctx context.Context) (string, loopState, error) {
	state := loopAwaitingModel
	lastText := ""

	for round := 0; ; round++ {
		resp, err := l.model.Generate(ctx, l.request)
		if err != nil {
			return "", state, fmt.Errorf("generate: %w", err)
		}
		lastText = resp.Text

		if len(resp.ToolCalls) == 0 {
			return lastText, loopDone, nil
		}
		if round >= maxToolRounds-1 {
			// Execute the final batch and close the exchange with one more
			// generation, so the model can still answer from those results.
			// Further tool requests in the closing response are ignored.
			l.executeRound(ctx, resp)
			final, err := l.model.Generate(ctx, l.request)
			if err != nil {
				return "", loopTurnCapReached, fmt.Errorf("generate: %w", err)
			}
			if strings.TrimSpace(final.Text) != "" {
				lastText = final.Text
			}
			return lastText, loopTurnCapReached, nil
		}

		state = loopExecutingTools
		l.executeRound(ctx, resp)
		state = loopAwaitingModel
	}
}

// executeRound runs every requested call, records the audit entries and
// appends the model turn plus the batched results to the transcript.
func (l *toolLoop) executeRound(ctx context.Context, resp *domain.ChatResponse) {
	l.request.Turns = append(l.request.Turns, domain.ChatTurn{
		Role:      domain.ChatRoleModel,
		Text:      resp.Text,
		ToolCalls: resp.ToolCalls,
	})

	results := make([]domain.ToolResult, 0, len(resp.ToolCalls))
	for _, call := range resp.ToolCalls {
		var result string
		runner, ok := l.runners[call.Name]
		if ok {
			result = runner.Execute(ctx, call.Args)
		} else {
			result = unknownToolResult
			l.logger.Warn("model requested unknown tool", "tool", call.Name)
		}
		l.audit = append(l.audit, domain.ToolCallRecord{
			Tool:   call.Name,
			Args:   call.Args,
			Result: result,
		})
		results = append(results, domain.ToolResult{Name: call.Name, Content: result})
	}

	l.request.Turns = append(l.request.Turns, domain.ChatTurn{
		Role:        domain.ChatRoleTool,
		ToolResults: results,
	})
}
