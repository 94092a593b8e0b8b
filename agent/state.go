package agent

// State labels the phase of the per-turn reasoning loop. Transitions:
//
//	AwaitingLLM -> { Done | ToolCallPending } -> Dispatching -> AwaitingLLM -> ... -> Done | Failed
//
// The state is tracked per session for logging and inspection; the loop
// itself is driven by explicit control flow, not by the label.
type State string

const (
	// StateIdle means no turn is being processed.
	StateIdle State = "idle"
	// StateAwaitingLLM means a completion request is in flight.
	StateAwaitingLLM State = "awaiting_llm"
	// StateToolCallPending means the model requested tool calls that have
	// not been dispatched yet.
	StateToolCallPending State = "tool_call_pending"
	// StateDispatching means tool handlers are executing.
	StateDispatching State = "dispatching"
	// StateDone means the turn completed with a final answer.
	StateDone State = "done"
	// StateFailed means the turn terminated with an error.
	StateFailed State = "failed"
)
