package domain

import (
	"fmt"
	"math"
)

// Metric is the similarity function a store ranks with. It is fixed when the
// store is created; higher scores mean more similar.
type Metric string

const (
	MetricCosine       Metric = "cosine"
	MetricInnerProduct Metric = "inner_product"
)

func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricCosine, "":
		return MetricCosine, nil
	case MetricInnerProduct:
		return MetricInnerProduct, nil
	default:
		return "", fmt.Errorf("unsupported similarity metric: %s", s)
	}
}

// Score compares two vectors of equal length.
func (m Metric) Score(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if m == MetricInnerProduct {
		return dot
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Normalize scales v to unit length in place.
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}
