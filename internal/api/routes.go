// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/pkg/errors"

	"github.com/joeblew999/plat-ogc/internal/mapview"
	"github.com/joeblew999/plat-ogc/internal/service"
)

// SessionCookie is the cookie carrying the viewer session ID.
const SessionCookie = "viewer_session"

// Services holds the service dependencies for API handlers.
type Services struct {
	Viewer *service.ViewerService
	// APIURL is the OGC API the components load collections from.
	APIURL string
}

// RegisterRoutes registers every REST route on api.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
	NewInfoHandler(svc).RegisterRoutes(api)
}

// Types

// SessionInput identifies the viewer session, from the cookie set by /viewer
// or from the X-Viewer-Session header.
type SessionInput struct {
	Cookie string `cookie:"viewer_session" doc:"Viewer session ID"`
	Header string `header:"X-Viewer-Session" doc:"Viewer session ID, for clients without cookies"`
}

// Session returns the session ID, preferring the cookie.
func (i SessionInput) Session() string {
	if i.Cookie != "" {
		return i.Cookie
	}
	return i.Header
}

type LayerInput struct {
	SessionInput
	ID string `path:"id" doc:"Collection ID" example:"layer1"`
}

type MapOutput struct {
	Body mapview.State
}

type FeaturesOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

type PopupsBody struct {
	Layer   string              `json:"layer" doc:"Collection ID" example:"layer1"`
	Visible bool                `json:"visible" doc:"Whether the layer is shown"`
	Popups  []mapview.PopupView `json:"popups" doc:"Open popups of the layer"`
}

type PopupsOutput struct {
	Body PopupsBody
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterMap registers map and layer routes.
func (h *APIHandler) RegisterMap(api huma.API) {
	huma.Get(api, "/api/v1/map", h.GetMap, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/map/layers/{id}", h.GetLayerFeatures, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/map/layers/{id}/popups", h.GetPopups, huma.OperationTags("map"))
	huma.Post(api, "/api/v1/map/layers/{id}/show", h.ShowLayer, huma.OperationTags("map"))
	huma.Post(api, "/api/v1/map/layers/{id}/hide", h.HideLayer, huma.OperationTags("map"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) GetMap(ctx context.Context, input *SessionInput) (*MapOutput, error) {
	c, err := h.open(input.Session())
	if err != nil {
		return nil, err
	}
	state, err := c.Snapshot()
	if err != nil {
		return nil, componentError(err)
	}
	return &MapOutput{Body: state}, nil
}

func (h *APIHandler) GetLayerFeatures(ctx context.Context, input *LayerInput) (*FeaturesOutput, error) {
	c, err := h.open(input.Session())
	if err != nil {
		return nil, err
	}
	fc, err := c.Features(input.ID)
	if err != nil {
		return nil, componentError(err)
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return nil, huma.Error500InternalServerError("could not encode features", err)
	}
	return &FeaturesOutput{ContentType: "application/geo+json", Body: data}, nil
}

func (h *APIHandler) GetPopups(ctx context.Context, input *LayerInput) (*PopupsOutput, error) {
	c, err := h.open(input.Session())
	if err != nil {
		return nil, err
	}
	popups, err := c.Popups(input.ID)
	if err != nil {
		return nil, componentError(err)
	}
	return popupsOutput(c, input.ID, popups), nil
}

func (h *APIHandler) ShowLayer(ctx context.Context, input *LayerInput) (*PopupsOutput, error) {
	return h.toggle(input, true)
}

func (h *APIHandler) HideLayer(ctx context.Context, input *LayerInput) (*PopupsOutput, error) {
	return h.toggle(input, false)
}

func (h *APIHandler) toggle(input *LayerInput, visible bool) (*PopupsOutput, error) {
	c, err := h.open(input.Session())
	if err != nil {
		return nil, err
	}
	popups, err := c.Toggle(input.ID, visible)
	if err != nil {
		return nil, componentError(err)
	}
	return popupsOutput(c, input.ID, popups), nil
}

func (h *APIHandler) open(session string) (*mapview.Component, error) {
	if h.svc == nil || h.svc.Viewer == nil {
		return nil, huma.Error503ServiceUnavailable("viewer not available")
	}
	if session == "" {
		return nil, huma.Error400BadRequest("viewer session is required, open /viewer first or send X-Viewer-Session")
	}
	c, err := h.svc.Viewer.Open(session)
	if err != nil {
		return nil, huma.Error503ServiceUnavailable(err.Error())
	}
	return c, nil
}

func popupsOutput(c *mapview.Component, id string, popups []mapview.PopupView) *PopupsOutput {
	if popups == nil {
		popups = []mapview.PopupView{}
	}
	body := PopupsBody{Layer: id, Popups: popups}
	if state, err := c.Snapshot(); err == nil {
		for _, o := range state.Overlays {
			if o.ID == id {
				body.Visible = o.Visible
			}
		}
	}
	return &PopupsOutput{Body: body}
}

// componentError maps component errors to HTTP errors.
func componentError(err error) error {
	switch {
	case errors.Is(err, mapview.ErrUnknownLayer):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, mapview.ErrNotMounted):
		return huma.NewError(http.StatusServiceUnavailable, err.Error())
	default:
		return huma.Error500InternalServerError("viewer error", err)
	}
}
