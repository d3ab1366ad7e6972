package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetric(t *testing.T) {
	for _, name := range []string{"cosine", "l2", "dot"} {
		m, err := ParseMetric(name)
		require.NoError(t, err)
		assert.Equal(t, Metric(name), m)
	}

	_, err := ParseMetric("hamming")
	require.Error(t, err)
}

func TestMetric_Distance(t *testing.T) {
	tests := []struct {
		name    string
		metric  Metric
		a, b    []float32
		want    float64
		wantErr bool
	}{
		{
			name:   "cosine identical direction",
			metric: MetricCosine,
			a:      []float32{1, 0},
			b:      []float32{2, 0},
			want:   0,
		},
		{
			name:   "cosine orthogonal",
			metric: MetricCosine,
			a:      []float32{1, 0},
			b:      []float32{0, 1},
			want:   1,
		},
		{
			name:   "l2",
			metric: MetricL2,
			a:      []float32{0, 0},
			b:      []float32{3, 4},
			want:   5,
		},
		{
			name:   "dot negated",
			metric: MetricDot,
			a:      []float32{1, 2},
			b:      []float32{3, 4},
			want:   -11,
		},
		{
			name:    "dimension mismatch",
			metric:  MetricL2,
			a:       []float32{1},
			b:       []float32{1, 2},
			wantErr: true,
		},
		{
			name:    "cosine zero magnitude",
			metric:  MetricCosine,
			a:       []float32{0, 0},
			b:       []float32{1, 0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.metric.Distance(tt.a, tt.b)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}
