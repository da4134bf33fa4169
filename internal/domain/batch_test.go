package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go.ngs.io/agroclim/internal/domain"
)

func points(n int) []domain.GridPoint {
	out := make([]domain.GridPoint, n)
	for i := range out {
		out[i] = domain.GridPoint{Lat: float64(i), Lon: float64(-i)}
	}
	return out
}

func TestBatchSizeFor(t *testing.T) {
	assert.Equal(t, 25, domain.BatchSizeFor(100, 4))
	assert.Equal(t, 1, domain.BatchSizeFor(3, 8))
	assert.Equal(t, 1, domain.BatchSizeFor(0, 8))
	assert.GreaterOrEqual(t, domain.BatchSizeFor(10, 0), 1)
}

func TestPartition_ConcatenationReproducesInput(t *testing.T) {
	for _, tc := range []struct {
		name      string
		n         int
		batchSize int
		workers   int
		batches   int
	}{
		{name: "explicit size", n: 10, batchSize: 3, batches: 4},
		{name: "exact fit", n: 9, batchSize: 3, batches: 3},
		{name: "derived from workers", n: 10, workers: 4, batches: 5},
		{name: "more workers than points", n: 3, workers: 8, batches: 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			in := points(tc.n)
			batches := domain.Partition(in, tc.batchSize, tc.workers)
			assert.Len(t, batches, tc.batches)

			var joined []domain.GridPoint
			total := 0
			for _, b := range batches {
				joined = append(joined, b...)
				total += len(b)
			}
			assert.Equal(t, tc.n, total)
			assert.Equal(t, in, joined)
		})
	}
}

func TestPartition_Empty(t *testing.T) {
	assert.Empty(t, domain.Partition(nil, 3, 1))
}
