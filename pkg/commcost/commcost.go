// Package commcost implements the communication cost model: a
// per-resource-pair bandwidth/latency table used to compute the transfer
// time of a task's output between the resource that produced it and the
// resource that needs it next.
package commcost

import (
	"math"

	"github.com/khryptorgraphics/ollamamax/ollama-distributed/pkg/types"
)

const bytesPerMB = 1e6

// CommTime returns the seconds required to move dataBytes from src to dst.
// Same-resource transfers are free. Missing pairs fall back to the package
// defaults (1000 MB/s, 0.1 ms) given by types.DefaultBandwidthMBs and
// types.DefaultLatencyMs.
func CommTime(matrix *types.CommMatrix, dataBytes uint64, src, dst int) float64 {
	if src == dst {
		return 0
	}

	link, ok := matrix.Lookup(src, dst)
	if !ok {
		link = types.CommLink{
			BandwidthMBs: types.DefaultBandwidthMBs,
			LatencyMs:    types.DefaultLatencyMs,
		}
	}

	latencySeconds := link.LatencyMs / 1000.0
	bandwidthBytesPerSecond := link.BandwidthMBs * bytesPerMB
	if bandwidthBytesPerSecond <= 0 {
		// Self-edges may be recorded with infinite bandwidth; guard against
		// a caller accidentally zeroing it for a cross-edge instead.
		return latencySeconds
	}

	return latencySeconds + float64(dataBytes)/bandwidthBytesPerSecond
}

// CreateDefaultMatrix builds a matrix for resourceIDs with self-edges set to
// (infinite bandwidth, zero latency) and every cross-edge set to the
// configured defaults.
func CreateDefaultMatrix(resourceIDs []int) *types.CommMatrix {
	matrix := types.NewCommMatrix()
	for _, src := range resourceIDs {
		for _, dst := range resourceIDs {
			if src == dst {
				matrix.Set(src, dst, types.CommLink{
					BandwidthMBs: math.Inf(1),
					LatencyMs:    0,
				})
				continue
			}
			matrix.Set(src, dst, types.CommLink{
				BandwidthMBs: types.DefaultBandwidthMBs,
				LatencyMs:    types.DefaultLatencyMs,
			})
		}
	}
	return matrix
}
