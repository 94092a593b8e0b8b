// Package openai implements model.Model on top of the OpenAI Chat
// Completions API, including streaming and function/tool calling. It adapts
// skillmesh's normalized turn history into the SDK's message format and
// classifies SDK failures into the shared provider error kinds.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/skillmesh/core"
	"github.com/hupe1980/skillmesh/model"
)

// aggCall aggregates partial tool call streaming deltas (id, name, arguments)
// so a complete call can be reconstructed when the finish reason arrives.
type aggCall struct{ id, name, args string }

// Options configure the OpenAI model adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model
// interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client. The API key
// falls back to the OPENAI_API_KEY environment variable when unset.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(clientOpts...)
	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
}

// Client exposes the underlying SDK client, e.g. for wiring an Embedder.
func (m *Model) Client() *openai.Client { return m.client }

// Generate implements unified streaming / non-streaming generation.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		params := m.buildParams(req)
		if req.Stream {
			m.handleStreaming(ctx, params, out, errCh)
			return
		}
		m.handleNonStreaming(ctx, params, out, errCh)
	}()
	return out, errCh
}

// Ping implements a cheap reachability probe via the models endpoint.
func (m *Model) Ping(ctx context.Context) error {
	if _, err := m.client.Models.List(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "openai", SupportsTools: true}
}

// buildParams converts the normalized request into Chat Completion
// parameters. Turn order already guarantees that tool result turns directly
// follow the assistant turn that requested them, which matches the message
// ordering the API requires.
func (m *Model) buildParams(req model.Request) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}

	for _, turn := range req.Turns {
		switch turn.Role {
		case core.RoleUser:
			messages = append(messages, openai.UserMessage(turn.Content))
		case core.RoleAssistant:
			if len(turn.ToolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(turn.Content))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(turn.ToolCalls))
			for i, tc := range turn.ToolCalls {
				toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				}
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: toolCalls,
				},
			})
		case core.RoleTool:
			if turn.ToolResult == nil {
				continue
			}
			messages = append(messages, openai.ToolMessage(toolResultText(*turn.ToolResult), turn.ToolResult.CallID))
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}
	if len(req.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
		for i, tdef := range req.Tools {
			tools[i] = openai.ChatCompletionToolParam{
				Type: "function",
				Function: openai.FunctionDefinitionParam{
					Name:        tdef.Name,
					Description: openai.String(tdef.Description),
					Parameters:  tdef.Parameters,
				},
			}
		}
		params.Tools = tools
	}
	return params
}

// toolResultText renders a tool result for the wire: the error message for
// failures (prefixed with the kind so the model can react), the serialized
// payload otherwise.
func toolResultText(res core.ToolResult) string {
	if res.Failed() {
		if res.Kind != "" {
			return fmt.Sprintf("ERROR (%s): %s", res.Kind, res.Error)
		}
		return "ERROR: " + res.Error
	}
	return core.Stringify(res.Content)
}

func (m *Model) handleStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	stream := m.client.Chat.Completions.NewStreaming(ctx, params)
	var content string
	toolAgg := map[int64]*aggCall{}
	order := []int64{}

	for stream.Next() {
		ck := stream.Current()
		for _, ch := range ck.Choices {
			if ch.Delta.Content != "" {
				content += ch.Delta.Content
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case out <- model.Response{Partial: true, Delta: ch.Delta.Content}:
				}
			}
			for _, tc := range ch.Delta.ToolCalls {
				ac, ok := toolAgg[tc.Index]
				if !ok {
					ac = &aggCall{}
					toolAgg[tc.Index] = ac
					order = append(order, tc.Index)
				}
				if tc.ID != "" {
					ac.id = tc.ID
				}
				if tc.Function.Name != "" {
					ac.name = tc.Function.Name
				}
				if tc.Function.Arguments != "" {
					ac.args += tc.Function.Arguments
				}
			}
			if ch.FinishReason != "" {
				calls := make([]core.ToolCallRequest, 0, len(order))
				for _, idx := range order {
					ac := toolAgg[idx]
					calls = append(calls, core.ToolCallRequest{ID: ac.id, Name: ac.name, Arguments: ac.args})
				}
				out <- model.Response{
					Content:      content,
					ToolCalls:    calls,
					FinishReason: ch.FinishReason,
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		errCh <- classify(err)
	}
}

func (m *Model) handleNonStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		errCh <- classify(err)
		return
	}
	if len(resp.Choices) == 0 {
		errCh <- model.NewProviderError("openai", model.KindMalformed, errNoChoices)
		return
	}
	ch0 := resp.Choices[0]
	calls := make([]core.ToolCallRequest, 0, len(ch0.Message.ToolCalls))
	for _, tc := range ch0.Message.ToolCalls {
		calls = append(calls, core.ToolCallRequest{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	out <- model.Response{
		Content:      ch0.Message.Content,
		ToolCalls:    calls,
		FinishReason: ch0.FinishReason,
		Usage: &model.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
}

var errNoChoices = errors.New("no choices returned")

// classify maps SDK failures to the shared provider error taxonomy.
func classify(err error) error {
	var provErr *model.ProviderError
	if errors.As(err, &provErr) {
		return err
	}

	kind := model.KindMalformed
	var apiErr *openai.Error
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
	return model.NewProviderError("openai", kind, err)
}
