package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentwire/crosstalk/pkg/observability"
)

// threadEnvelope is the partial request shape the middleware cares about.
// Everything else in the body is left for the RPC handler.
type threadEnvelope struct {
	Metadata struct {
		ThreadID string `json:"thread_id"`
	} `json:"metadata"`
}

// ThreadMetadataMiddleware peeks the JSON-RPC envelope for
// metadata.thread_id and opens a span covering the agent invocation. The
// body is read once and replayed for the next handler.
//
// A malformed body or absent metadata is not an error here: the request
// proceeds without trace correlation and the RPC handler reports any JSON
// problem itself.
func ThreadMetadataMiddleware(tracer trace.Tracer, agentName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "Failed to read request", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(strings.NewReader(string(body)))

			var threadID string
			var envelope threadEnvelope
			if err := json.Unmarshal(body, &envelope); err == nil {
				threadID = envelope.Metadata.ThreadID
			}

			attrs := []attribute.KeyValue{
				attribute.String(observability.AttrAgentName, agentName),
			}
			if threadID != "" {
				attrs = append(attrs, attribute.String(observability.AttrThreadID, threadID))
			}

			ctx, span := tracer.Start(r.Context(), observability.SpanAgentInvoke,
				trace.WithAttributes(attrs...))
			defer span.End()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
