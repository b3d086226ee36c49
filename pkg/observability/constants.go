package observability

const (
	AttrHTTPMethod       = "http.method"
	AttrHTTPPath         = "http.path"
	AttrHTTPStatusCode   = "http.status_code"
	AttrHTTPResponseSize = "http.response_size"
	AttrErrorType        = "error.type"
	AttrThreadID         = "thread.id"
	AttrAgentName        = "agent.name"
	AttrContextID        = "context.id"
	AttrTaskID           = "task.id"
	AttrToolName         = "tool.name"
	AttrLLMModel         = "llm.model"

	SpanHTTPRequest   = "http.request"
	SpanAgentInvoke   = "agent.invoke"
	SpanLLMRequest    = "agent.llm_request"
	SpanToolExecution = "agent.tool_execution"
	SpanRelayRound    = "relay.round"

	DefaultServiceName = "crosstalk"
)
