package ogcclient

import (
	"context"
	"net/url"
	"strconv"

	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
)

type Link struct {
	Href  string `json:"href"`
	Rel   string `json:"rel,omitempty"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

// Collection describes one feature collection exposed by the API.
type Collection struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Links       []Link `json:"links,omitempty"`
}

type collectionsResponse struct {
	Collections []Collection `json:"collections"`
	Links       []Link       `json:"links,omitempty"`
}

// Collections fetches GET /collections.
func (c *Client) Collections(ctx context.Context) ([]Collection, error) {
	var res collectionsResponse
	if err := c.jsonRequest(ctx, "/collections", nil, "application/json", &res); err != nil {
		return nil, errors.Wrap(err, "could not list collections")
	}

	return res.Collections, nil
}

// Items fetches GET /collections/{id}/items as a GeoJSON feature collection.
func (c *Client) Items(ctx context.Context, collectionID string) (*geojson.FeatureCollection, error) {
	if collectionID == "" {
		return nil, errors.New("collection id is required")
	}

	var query url.Values
	if c.itemLimit > 0 {
		query = url.Values{"limit": []string{strconv.Itoa(c.itemLimit)}}
	}

	fc := geojson.NewFeatureCollection()
	path := "/collections/" + url.PathEscape(collectionID) + "/items"
	if err := c.jsonRequest(ctx, path, query, "application/geo+json", fc); err != nil {
		return nil, errors.Wrapf(err, "could not fetch items of collection '%s'", collectionID)
	}

	return fc, nil
}
