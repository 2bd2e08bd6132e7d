package viewer

import (
	"context"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/pkg/errors"

	"github.com/joeblew999/plat-ogc/internal/api"
	"github.com/joeblew999/plat-ogc/internal/mapview"
	"github.com/joeblew999/plat-ogc/internal/service"
	"github.com/joeblew999/plat-ogc/internal/templates"
)

// Handler streams a session's map component to the viewer page.
type Handler struct {
	viewer   *service.ViewerService
	renderer *templates.Renderer
}

func NewHandler(viewer *service.ViewerService, renderer *templates.Renderer) *Handler {
	return &Handler{viewer: viewer, renderer: renderer}
}

func (h *Handler) RegisterRoutes(hapi huma.API) {
	huma.Get(hapi, "/api/v1/viewer/events", h.Events, huma.OperationTags("viewer"))
	huma.Post(hapi, "/api/v1/viewer/layers/{id}/toggle", h.Toggle, huma.OperationTags("viewer"))
}

type EventsInput struct {
	api.SessionInput
}

// Events patches the layer control and forwards every component event of the
// session as a "map-event" custom event.
func (h *Handler) Events(ctx context.Context, input *EventsInput) (*huma.StreamResponse, error) {
	session := input.Session()
	if session == "" {
		return nil, huma.Error400BadRequest("viewer session is required")
	}

	c, err := h.viewer.Open(session)
	if err != nil {
		return nil, huma.Error503ServiceUnavailable(err.Error())
	}

	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSE(humaCtx)
			ch := h.viewer.Bus().Subscribe(session)
			defer h.viewer.Bus().Unsubscribe(ch)

			h.patchControl(sse, c)

			// Popups opened before the page connected.
			if state, err := c.Snapshot(); err == nil {
				for _, o := range state.Overlays {
					if !o.Visible {
						continue
					}
					popups, _ := c.Popups(o.ID)
					sse.DispatchCustomEvent("map-event", mapview.Event{
						Kind: mapview.EventPopupsOpened, LayerID: o.ID, Title: o.Title, Popups: popups,
					})
				}
			}

			done := humaCtx.Context().Done()
			for {
				select {
				case <-done:
					return
				case ev, ok := <-ch:
					if !ok {
						return
					}
					h.patchControl(sse, c)
					if err := sse.DispatchCustomEvent("map-event", ev.Event); err != nil {
						slog.DebugContext(ctx, "viewer stream closed", slog.String("session", session), slog.Any("error", err))
						return
					}
				}
			}
		},
	}, nil
}

type ToggleInput struct {
	api.SessionInput
	ID      string `path:"id" doc:"Collection ID" example:"layer1"`
	RawBody []byte `required:"false"`
}

// Toggle shows or hides a layer from the control checkbox. The "visible"
// signal selects the state; without signals the layer is flipped.
func (h *Handler) Toggle(ctx context.Context, input *ToggleInput) (*huma.StreamResponse, error) {
	c, ok := h.viewer.Get(input.Session())
	if !ok {
		return nil, huma.Error404NotFound("viewer session not found")
	}

	state, err := c.Snapshot()
	if err != nil {
		return nil, huma.Error503ServiceUnavailable(err.Error())
	}

	visible := true
	for _, o := range state.Overlays {
		if o.ID == input.ID {
			visible = !o.Visible
		}
	}

	if len(input.RawBody) > 0 {
		signals, err := MustParseSignals(input.RawBody)
		if err != nil {
			return nil, err
		}
		if signals.Has("visible") {
			visible = signals.Bool("visible")
		}
	}

	if _, err := c.Toggle(input.ID, visible); err != nil {
		if errors.Is(err, mapview.ErrUnknownLayer) {
			return nil, huma.Error404NotFound(err.Error())
		}
		return nil, huma.Error503ServiceUnavailable(err.Error())
	}

	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := NewSSE(humaCtx)
			h.patchControl(sse, c)
		},
	}, nil
}

func (h *Handler) patchControl(sse SSE, c *mapview.Component) {
	state, err := c.Snapshot()
	if err != nil {
		sse.Error(err.Error())
		return
	}

	html, err := h.renderer.Render("layer-control", state)
	if err != nil {
		html = "<!-- template error: " + err.Error() + " -->"
	}
	sse.Patch(html, "#layer-control")
}
