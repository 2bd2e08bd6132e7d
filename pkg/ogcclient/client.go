// Package ogcclient is a small client for OGC API Features endpoints.
//
// Only the two reads a map viewer needs are covered: the collection list and
// the items of one collection.
package ogcclient

import (
	"net/http"
	"net/url"
)

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	itemLimit  int
}

func New(funcs ...OptionFunc) *Client {
	opts := NewOptions(funcs...)
	return &Client{
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		itemLimit:  opts.ItemLimit,
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}
