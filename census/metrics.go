package census

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	objectsLive = promauto.NewGaugeVec(prometheus.GaugeOpts{ //nolint:gochecknoglobals
		Name: "census_objects_live",
		Help: "The number of stored objects currently alive",
	}, []string{"catalog", "type"})

	objectsCreated = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "census_objects_created_total",
		Help: "The total number of stored objects created",
	}, []string{"catalog", "type"})

	objectsReleased = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "census_objects_released_total",
		Help: "The total number of stored objects released",
	}, []string{"catalog", "type"})

	doubleReleases = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "census_double_releases_total",
		Help: "The total number of releases observed beyond the matching creations",
	}, []string{"catalog", "type"})

	trackersCreated = promauto.NewCounter(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "census_trackers_created_total",
		Help: "The total number of census trackers created",
	})
)
