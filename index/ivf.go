// Copyright 2025 MarketLounge
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package index builds and serves versioned approximate-nearest-neighbor
// indexes over stored embeddings. The structure is inverted-file flat:
// vectors are partitioned by k-means into lists, and a query probes only
// the lists whose centroids score highest. All vectors are unit length, so
// inner product is the similarity everywhere.
package index

import (
	"math"
	"math/rand"
	"sort"

	"github.com/marketlounge/matchcore/core"
)

const kmeansIterations = 10

// Candidate is one scored neighbor returned by a search.
type Candidate struct {
	ConceptId core.ID
	Score     float32
}

type ivfIndex struct {
	dim       int
	centroids [][]float32
	listIds   [][]core.ID
	listVecs  [][][]float32
	count     int
}

// buildIVF partitions the records into numLists k-means cells. The seed
// makes partitioning deterministic, so identical corpora produce identical
// indexes.
func buildIVF(ids []core.ID, vecs [][]float32, dim, numLists int, seed int64) *ivfIndex {
	idx := &ivfIndex{dim: dim, count: len(ids)}
	if len(ids) == 0 {
		return idx
	}
	if numLists > len(ids) {
		numLists = len(ids)
	}
	if numLists < 1 {
		numLists = 1
	}

	rng := rand.New(rand.NewSource(seed))
	centroids := make([][]float32, numLists)
	for i, pick := range rng.Perm(len(ids))[:numLists] {
		centroids[i] = append([]float32(nil), vecs[pick]...)
	}

	assignments := make([]int, len(ids))
	for iter := 0; iter < kmeansIterations; iter++ {
		changed := false
		for i, vec := range vecs {
			nearest := nearestCentroid(centroids, vec)
			if assignments[i] != nearest {
				assignments[i] = nearest
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		// Recompute centroids as normalized means. Empty cells keep their
		// previous centroid.
		sums := make([][]float64, numLists)
		counts := make([]int, numLists)
		for i := range sums {
			sums[i] = make([]float64, dim)
		}
		for i, vec := range vecs {
			cell := assignments[i]
			counts[cell]++
			for d, v := range vec {
				sums[cell][d] += float64(v)
			}
		}
		for cell := range centroids {
			if counts[cell] == 0 {
				continue
			}
			var norm float64
			for d := range sums[cell] {
				mean := sums[cell][d] / float64(counts[cell])
				sums[cell][d] = mean
				norm += mean * mean
			}
			norm = math.Sqrt(norm)
			if norm == 0 {
				continue
			}
			for d := range sums[cell] {
				centroids[cell][d] = float32(sums[cell][d] / norm)
			}
		}
	}

	idx.centroids = centroids
	idx.listIds = make([][]core.ID, numLists)
	idx.listVecs = make([][][]float32, numLists)
	for i, cell := range assignments {
		idx.listIds[cell] = append(idx.listIds[cell], ids[i])
		idx.listVecs[cell] = append(idx.listVecs[cell], vecs[i])
	}
	return idx
}

func nearestCentroid(centroids [][]float32, vec []float32) int {
	best := 0
	bestScore := float32(math.Inf(-1))
	for i, centroid := range centroids {
		if score := dot(centroid, vec); score > bestScore {
			bestScore = score
			best = i
		}
	}
	return best
}

// search scans the probes highest-scoring lists and returns the top k
// candidates by inner product, ties broken by ascending concept id.
func (idx *ivfIndex) search(query []float32, k, probes int) []Candidate {
	if idx.count == 0 || k <= 0 {
		return nil
	}
	if probes < 1 {
		probes = 1
	}
	if probes > len(idx.centroids) {
		probes = len(idx.centroids)
	}

	type cell struct {
		list  int
		score float32
	}
	cells := make([]cell, len(idx.centroids))
	for i, centroid := range idx.centroids {
		cells[i] = cell{list: i, score: dot(centroid, query)}
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].score > cells[j].score })

	var candidates []Candidate
	for _, c := range cells[:probes] {
		for i, id := range idx.listIds[c.list] {
			candidates = append(candidates, Candidate{
				ConceptId: id,
				Score:     dot(idx.listVecs[c.list][i], query),
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ConceptId < candidates[j].ConceptId
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
