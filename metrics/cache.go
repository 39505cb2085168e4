package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheReader is the part of cache.ModelCache the collector reads.
type CacheReader interface {
	Endpoints() []string
	Get(endpoint string) []string
}

type cacheCollector struct {
	cache CacheReader
	desc  *prometheus.Desc
}

func newCacheCollector(c CacheReader) *cacheCollector {
	return &cacheCollector{
		cache: c,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "cached_models"),
			"Models currently cached per endpoint.",
			[]string{"endpoint"}, nil,
		),
	}
}

func (c *cacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *cacheCollector) Collect(ch chan<- prometheus.Metric) {
	for _, endpoint := range c.cache.Endpoints() {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(len(c.cache.Get(endpoint))), endpoint)
	}
}
