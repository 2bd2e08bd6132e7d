package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type InfoHandler struct {
	svc *Services
}

func NewInfoHandler(svc *Services) *InfoHandler {
	return &InfoHandler{svc: svc}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	APIURL   string   `json:"api_url" doc:"OGC API the collections are loaded from"`
	Sessions int      `json:"sessions" doc:"Number of mounted viewer sessions"`
	Features []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	body := InfoBody{
		Name:     "plat-ogc",
		Version:  "0.1.0",
		Features: []string{"ogcapi-features", "geojson", "datastar", "leaflet"},
	}
	if h.svc != nil {
		body.APIURL = h.svc.APIURL
		if h.svc.Viewer != nil {
			body.Sessions = h.svc.Viewer.Len()
		}
	}
	return &struct{ Body InfoBody }{Body: body}, nil
}
