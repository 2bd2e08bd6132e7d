package mapview

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	collectionsLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "plat_ogc",
		Name:      "collections_loaded_total",
		Help:      "Number of collections turned into map layers.",
	})

	collectionListFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "plat_ogc",
		Name:      "collection_list_failures_total",
		Help:      "Number of failed collection list requests.",
	})

	itemFetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "plat_ogc",
		Name:      "item_fetch_failures_total",
		Help:      "Number of failed collection item requests.",
	})

	popupsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "plat_ogc",
		Name:      "popups_opened_total",
		Help:      "Number of feature popups opened when showing a layer.",
	})
)
