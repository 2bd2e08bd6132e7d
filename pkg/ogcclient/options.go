package ogcclient

import (
	"net/http"
	"net/url"
	"time"
)

type Options struct {
	BaseURL    *url.URL
	HTTPClient *http.Client
	// ItemLimit is sent as the "limit" query parameter on item requests when positive.
	ItemLimit int
}

type OptionFunc func(opts *Options)

func WithBaseURL(baseURL *url.URL) OptionFunc {
	return func(opts *Options) {
		opts.BaseURL = baseURL
	}
}

func WithHTTPClient(httpClient *http.Client) OptionFunc {
	return func(opts *Options) {
		opts.HTTPClient = httpClient
	}
}

func WithItemLimit(limit int) OptionFunc {
	return func(opts *Options) {
		opts.ItemLimit = limit
	}
}

func NewOptions(funcs ...OptionFunc) *Options {
	opts := &Options{
		BaseURL: &url.URL{
			Scheme: "http",
			Host:   "localhost:5000",
		},
		HTTPClient: &http.Client{
			Timeout: time.Minute,
		},
	}
	for _, fn := range funcs {
		fn(opts)
	}
	return opts
}
