package store

import (
	"fmt"
	"math"
)

// Metric names a distance function used to rank stored vectors against a
// query vector. All metrics order ascending: smaller distance means closer.
type Metric string

const (
	// MetricCosine is cosine distance, 1 minus cosine similarity.
	MetricCosine Metric = "cosine"

	// MetricL2 is Euclidean distance.
	MetricL2 Metric = "l2"

	// MetricDot is the negated inner product, so that larger products rank
	// first under ascending order.
	MetricDot Metric = "dot"
)

// ParseMetric resolves a metric name.
func ParseMetric(name string) (Metric, error) {
	switch Metric(name) {
	case MetricCosine, MetricL2, MetricDot:
		return Metric(name), nil
	default:
		return "", fmt.Errorf("unsupported distance metric %q", name)
	}
}

// Distance computes the metric between two vectors of equal dimensionality.
func (m Metric) Distance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("empty vectors")
	}

	var dot, na2, nb2 float64
	for i := range a {
		va, vb := float64(a[i]), float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}

	switch m {
	case MetricCosine:
		if na2 == 0 || nb2 == 0 {
			return 0, fmt.Errorf("cosine distance with zero-magnitude vector")
		}
		return 1 - dot/(math.Sqrt(na2)*math.Sqrt(nb2)), nil
	case MetricL2:
		// ||a-b||^2 = ||a||^2 + ||b||^2 - 2<a,b>
		d2 := na2 + nb2 - 2*dot
		if d2 < 0 {
			d2 = 0
		}
		return math.Sqrt(d2), nil
	case MetricDot:
		return -dot, nil
	default:
		return 0, fmt.Errorf("unsupported distance metric %q", string(m))
	}
}
