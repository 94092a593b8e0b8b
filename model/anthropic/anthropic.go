// Package anthropic implements model.Model on top of the Anthropic Messages
// API, including streaming and tool use. Tool results are replayed as
// tool_result blocks in user messages per the Messages API contract.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/hupe1980/skillmesh/core"
	"github.com/hupe1980/skillmesh/model"
)

// Options configure the Anthropic model adapter.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Model wraps the Anthropic Messages API behind the generic model.Model
// interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
}

// NewModel creates a new Anthropic model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new Anthropic model from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements unified streaming / non-streaming generation.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := anthropic.MessageNewParams{
			Model:       m.opts.Model,
			Messages:    buildMessages(req.Turns),
			MaxTokens:   m.opts.MaxTokens,
			Temperature: anthropic.Float(m.opts.Temperature),
		}
		if req.Instructions != "" {
			params.System = []anthropic.TextBlockParam{{Text: req.Instructions}}
		}
		if len(req.Tools) > 0 {
			params.Tools = buildTools(req.Tools)
		}

		if req.Stream {
			m.handleStreaming(ctx, params, out, errCh)
			return
		}
		m.handleNonStreaming(ctx, params, out, errCh)
	}()

	return out, errCh
}

// Ping issues a minimal one-token completion as a reachability probe.
func (m *Model) Ping(ctx context.Context) error {
	_, err := m.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     m.opts.Model,
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: string(m.opts.Model), Provider: "anthropic", SupportsTools: true}
}

func (m *Model) handleNonStreaming(
	ctx context.Context,
	params anthropic.MessageNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		errCh <- classify(err)
		return
	}
	content, calls := collectBlocks(resp)
	out <- model.Response{
		Content:      content,
		ToolCalls:    calls,
		FinishReason: string(resp.StopReason),
		Usage: &model.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}
}

func (m *Model) handleStreaming(
	ctx context.Context,
	params anthropic.MessageNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	stream := m.client.Messages.NewStreaming(ctx, params)
	message := anthropic.Message{}

	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			errCh <- model.NewProviderError("anthropic", model.KindMalformed, err)
			return
		}
		if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
			if text := delta.Delta.Text; text != "" {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case out <- model.Response{Partial: true, Delta: text}:
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		errCh <- classify(err)
		return
	}

	content, calls := collectBlocks(&message)
	out <- model.Response{
		Content:      content,
		ToolCalls:    calls,
		FinishReason: string(message.StopReason),
	}
}

// collectBlocks flattens a completed message into text content plus tool call
// requests in block order.
func collectBlocks(msg *anthropic.Message) (string, []core.ToolCallRequest) {
	var content string
	var calls []core.ToolCallRequest
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			content += block.AsText().Text
		case "tool_use":
			toolBlock := block.AsToolUse()
			args := ""
			if toolBlock.Input != nil {
				if b, err := json.Marshal(toolBlock.Input); err == nil {
					args = string(b)
				}
			}
			calls = append(calls, core.ToolCallRequest{
				ID:        toolBlock.ID,
				Name:      toolBlock.Name,
				Arguments: args,
			})
		}
	}
	return content, calls
}

// buildMessages converts the turn history to Anthropic message format. Tool
// result turns become user messages carrying tool_result blocks; consecutive
// results are merged into one user message to satisfy role alternation.
func buildMessages(turns []core.Turn) []anthropic.MessageParam {
	var messages []anthropic.MessageParam
	var pendingResults []anthropic.ContentBlockParamUnion

	flushResults := func() {
		if len(pendingResults) > 0 {
			messages = append(messages, anthropic.NewUserMessage(pendingResults...))
			pendingResults = nil
		}
	}

	for _, turn := range turns {
		switch turn.Role {
		case core.RoleUser:
			flushResults()
			if turn.Content != "" {
				messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
			}
		case core.RoleAssistant:
			flushResults()
			var blocks []anthropic.ContentBlockParamUnion
			if turn.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(turn.Content))
			}
			for _, tc := range turn.ToolCalls {
				var input any
				if tc.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Arguments), &input); err != nil {
						input = tc.Arguments
					}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			if len(blocks) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(blocks...))
			}
		case core.RoleTool:
			if turn.ToolResult == nil {
				continue
			}
			res := *turn.ToolResult
			text := core.Stringify(res.Content)
			if res.Failed() {
				text = res.Error
			}
			pendingResults = append(pendingResults, anthropic.NewToolResultBlock(res.CallID, text, res.Failed()))
		}
	}
	flushResults()
	return messages
}

// buildTools converts skillmesh tool definitions to Anthropic tool format.
func buildTools(tools []model.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(tools))
	for i, tdef := range tools {
		schema := anthropic.ToolInputSchemaParam{Type: constant.Object("object")}
		if tdef.Parameters != nil {
			if properties, ok := tdef.Parameters["properties"]; ok {
				schema.Properties = properties
			}
			switch required := tdef.Parameters["required"].(type) {
			case []string:
				schema.Required = required
			case []any:
				for _, r := range required {
					if s, ok := r.(string); ok {
						schema.Required = append(schema.Required, s)
					}
				}
			}
		}
		out[i] = anthropic.ToolUnionParamOfTool(schema, tdef.Name)
	}
	return out
}

// classify maps SDK failures to the shared provider error taxonomy.
func classify(err error) error {
	var provErr *model.ProviderError
	if errors.As(err, &provErr) {
		return err
	}

	kind := model.KindMalformed
	var apiErr *anthropic.Error
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = model.KindConnectivity
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = model.KindConnectivity
	case errors.As(err, &apiErr):
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			kind = model.KindRateLimit
		case apiErr.StatusCode >= http.StatusInternalServerError:
			kind = model.KindConnectivity
		}
	}
	return model.NewProviderError("anthropic", kind, err)
}
