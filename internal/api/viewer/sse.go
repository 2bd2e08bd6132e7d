// Package viewer contains the Datastar SSE handlers behind the /viewer page.
package viewer

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"
)

// SSE wraps the Datastar SSE generator with helper methods.
type SSE struct {
	*datastar.ServerSentEventGenerator
}

// NewSSE creates a Datastar SSE helper from a Huma streaming context.
func NewSSE(humaCtx huma.Context) SSE {
	r, w := humago.Unwrap(humaCtx)
	return SSE{datastar.NewSSE(w, r)}
}

// Patch sends HTML to replace inner content at a selector.
func (s SSE) Patch(html, selector string) error {
	return s.PatchElements(html,
		datastar.WithSelector(selector),
		datastar.WithModeInner(),
	)
}

// Error sends an error signal to the client.
func (s SSE) Error(msg string) error {
	return s.MarshalAndPatchSignals(map[string]any{"error": msg})
}
