package domain

import "runtime"

// BatchSizeFor derives a batch size from the number of valid points and a
// worker count: max(1, points / workers). A worker count below 1 means one
// worker per available CPU.
func BatchSizeFor(points, workers int) int {
	if workers < 1 {
		workers = max(1, runtime.NumCPU())
	}
	return max(1, points/workers)
}

// Partition splits points into contiguous batches of batchSize. When batchSize
// is not positive it is derived with BatchSizeFor. The last batch may be
// shorter. Batches share the backing array of points.
func Partition(points []GridPoint, batchSize, workers int) [][]GridPoint {
	if len(points) == 0 {
		return nil
	}
	if batchSize < 1 {
		batchSize = BatchSizeFor(len(points), workers)
	}

	batches := make([][]GridPoint, 0, (len(points)+batchSize-1)/batchSize)
	for start := 0; start < len(points); start += batchSize {
		end := min(start+batchSize, len(points))
		batches = append(batches, points[start:end:end])
	}
	return batches
}
