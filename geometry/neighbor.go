package geometry

import (
	"fmt"
	"math"
	"sort"
)

type cell struct{ i, j int }

// NeighborList returns, for every node, the indices of all other nodes within
// horizon of it (inclusive), in ascending order. Nodes are bucketed on a planar
// grid of cell size horizon so that only the 3x3 surrounding cells are scanned;
// the distance test itself uses all three components.
func NeighborList(nodes []Point3, horizon float64) ([][]int, error) {
	if !(horizon > 0) || math.IsInf(horizon, 1) {
		return nil, fmt.Errorf("geometry: horizon must be positive and finite, got %g", horizon)
	}

	key := func(p Point3) cell {
		return cell{int(math.Floor(p.X / horizon)), int(math.Floor(p.Y / horizon))}
	}
	buckets := make(map[cell][]int)
	for i, p := range nodes {
		k := key(p)
		buckets[k] = append(buckets[k], i)
	}

	nbrs := make([][]int, len(nodes))
	for i, p := range nodes {
		k := key(p)
		list := make([]int, 0)
		for di := -1; di <= 1; di++ {
			for dj := -1; dj <= 1; dj++ {
				for _, j := range buckets[cell{k.i + di, k.j + dj}] {
					if j != i && Dist(p, nodes[j]) <= horizon+Tol {
						list = append(list, j)
					}
				}
			}
		}
		sort.Ints(list)
		nbrs[i] = list
	}
	return nbrs, nil
}
