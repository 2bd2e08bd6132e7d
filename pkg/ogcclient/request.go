package ogcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Code   int
	Status string
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected response code %d (%s) from %s", e.Code, e.Status, e.URL)
}

func (c *Client) request(ctx context.Context, method string, path string, query url.Values, header http.Header, result io.Writer) error {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	slog.DebugContext(ctx, "new ogc request",
		slog.String("method", method),
		slog.String("path", u.Path),
		slog.String("host", u.Host),
	)

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return errors.WithStack(err)
	}

	for k, v := range header {
		req.Header[k] = v
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}

	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		io.Copy(io.Discard, res.Body)
		return errors.WithStack(&StatusError{Code: res.StatusCode, Status: res.Status, URL: u.String()})
	}

	if _, err := io.Copy(result, res.Body); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (c *Client) jsonRequest(ctx context.Context, path string, query url.Values, accept string, result any) error {
	var buff bytes.Buffer

	header := http.Header{}
	header.Set("Accept", accept)

	if err := c.request(ctx, http.MethodGet, path, query, header, &buff); err != nil {
		return errors.WithStack(err)
	}

	if err := json.Unmarshal(buff.Bytes(), result); err != nil {
		return errors.Wrapf(err, "could not decode response from '%s'", path)
	}

	return nil
}
