package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var registerOnce sync.Once

// Register registers every askdoc collector with the default registry.
// Safe to call more than once; must run before the first metric is served.
func Register() {
	registerOnce.Do(func() {
		for _, c := range embeddingCollectors() {
			prometheus.MustRegister(c)
		}
		for _, c := range assistantCollectors() {
			prometheus.MustRegister(c)
		}
		prometheus.MustRegister(httpRequestDuration, httpRequestsTotal)
	})
}
