package mapview

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/joeblew999/plat-ogc/pkg/ogcclient"
)

// load fetches the collection list, creates one layer per collection, then
// fetches every collection's items independently.
func (c *Component) load(ctx context.Context, surface *Surface) {
	logger := c.opts.Logger

	collections, err := c.fetcher.Collections(ctx)
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.surface != surface {
			return
		}

		collectionListFailures.Inc()
		logger.ErrorContext(ctx, "could not fetch ogc collections", slog.Any("error", errors.WithStack(err)))
		c.notify(Event{Kind: EventLoadFailed, Error: err.Error()})
		return
	}

	layers := c.addCollections(ctx, surface, collections)

	var g errgroup.Group
	g.SetLimit(c.opts.Parallelism)

	for _, layer := range layers {
		g.Go(func() error {
			c.loadItems(ctx, surface, layer)
			return nil
		})
	}

	g.Wait()
}

func (c *Component) addCollections(ctx context.Context, surface *Surface, collections []ogcclient.Collection) []*Layer {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.surface != surface {
		return nil
	}

	logger := c.opts.Logger
	layers := make([]*Layer, 0, len(collections))

	for _, col := range collections {
		if col.ID == "" {
			logger.WarnContext(ctx, "ignoring collection without id", slog.String("title", col.Title))
			continue
		}

		if _, exists := c.layers[col.ID]; exists {
			logger.WarnContext(ctx, "ignoring duplicate collection", slog.String("collection", col.ID))
			continue
		}

		title := col.Title
		if title == "" {
			title = col.ID
		}

		layer := newLayer(col.ID, title)
		surface.addLayer(layer)
		surface.control.AddOverlay(layer, title)
		c.layers[col.ID] = layer
		layers = append(layers, layer)

		collectionsLoaded.Inc()
		c.notify(Event{Kind: EventLayerAdded, LayerID: col.ID, Title: title})
	}

	return layers
}

func (c *Component) loadItems(ctx context.Context, surface *Surface, layer *Layer) {
	fc, err := c.fetcher.Items(ctx, layer.id)

	c.mu.Lock()
	defer c.mu.Unlock()

	logger := c.opts.Logger

	if c.surface != surface || !surface.hasLayer(layer) {
		logger.DebugContext(ctx, "discarding items of unmounted layer", slog.String("collection", layer.id))
		return
	}

	if err != nil {
		itemFetchFailures.Inc()
		layer.err = err
		logger.ErrorContext(ctx, "could not fetch collection items",
			slog.String("collection", layer.id),
			slog.Any("error", errors.WithStack(err)),
		)
		c.notify(Event{Kind: EventLayerFailed, LayerID: layer.id, Title: layer.title, Error: err.Error()})
		return
	}

	layer.addData(fc.Features)
	c.notify(Event{Kind: EventLayerLoaded, LayerID: layer.id, Title: layer.title, Features: len(layer.features)})
}
