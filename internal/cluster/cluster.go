// Package cluster groups languages by the similarity of their binary
// availability profiles. It implements density-based clustering over
// set-similarity metrics; label -1 marks noise points that belong to no
// cluster.
package cluster

import (
	"fmt"
	"strings"
)

// Noise is the label for points not assigned to any cluster.
const Noise = -1

// Params tune a clustering run. Zero values fall back to the defaults the
// pipeline has always used (min cluster size 5, min samples 3, jaccard).
type Params struct {
	MinClusterSize int
	MinSamples     int
	Metric         string
	// Eps is the neighborhood radius in distance space [0,1].
	Eps float64
}

const (
	defaultMinClusterSize = 5
	defaultMinSamples     = 3
	defaultMetric         = "jaccard"
	defaultEps            = 0.5
)

func (p Params) withDefaults() Params {
	if p.MinClusterSize <= 0 {
		p.MinClusterSize = defaultMinClusterSize
	}
	if p.MinSamples <= 0 {
		p.MinSamples = defaultMinSamples
	}
	if p.Metric == "" {
		p.Metric = defaultMetric
	}
	if p.Eps <= 0 || p.Eps >= 1 {
		p.Eps = defaultEps
	}
	return p
}

// Cluster assigns a label to every row of the boolean feature matrix.
// Labels are dense, starting at 0 in order of cluster discovery; Noise (-1)
// marks unassigned rows. The result is deterministic for a fixed row order.
func Cluster(rows [][]bool, p Params) ([]int, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty feature matrix")
	}
	width := len(rows[0])
	if width == 0 {
		return nil, fmt.Errorf("feature matrix has no columns")
	}
	for i, r := range rows {
		if len(r) != width {
			return nil, fmt.Errorf("row %d has %d features, expected %d", i, len(r), width)
		}
	}

	p = p.withDefaults()

	var dist func(a, b []bool) float64
	switch strings.ToLower(p.Metric) {
	case "jaccard":
		dist = jaccard
	case "hamming":
		dist = hamming
	default:
		return nil, fmt.Errorf("unsupported metric %q (want jaccard or hamming)", p.Metric)
	}

	n := len(rows)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}
	visited := make([]bool, n)

	neighborhoods := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if dist(rows[i], rows[j]) <= p.Eps {
				neighborhoods[i] = append(neighborhoods[i], j)
			}
		}
	}

	next := 0
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true
		if len(neighborhoods[i]) < p.MinSamples {
			continue
		}
		// Expand a new cluster from this core point.
		labels[i] = next
		queue := append([]int(nil), neighborhoods[i]...)
		for len(queue) > 0 {
			q := queue[0]
			queue = queue[1:]
			if labels[q] == Noise {
				labels[q] = next
			}
			if visited[q] {
				continue
			}
			visited[q] = true
			if len(neighborhoods[q]) >= p.MinSamples {
				queue = append(queue, neighborhoods[q]...)
			}
		}
		next++
	}

	demoteSmall(labels, p.MinClusterSize)
	return labels, nil
}

// demoteSmall relabels clusters below the minimum size to noise and
// compacts the surviving labels to 0..k-1 in order of first appearance.
func demoteSmall(labels []int, minSize int) {
	sizes := make(map[int]int)
	for _, l := range labels {
		if l != Noise {
			sizes[l]++
		}
	}
	remap := make(map[int]int)
	next := 0
	for i, l := range labels {
		if l == Noise {
			continue
		}
		if sizes[l] < minSize {
			labels[i] = Noise
			continue
		}
		if _, ok := remap[l]; !ok {
			remap[l] = next
			next++
		}
		labels[i] = remap[l]
	}
}

// Summary counts clusters and noise in a label slice.
type Summary struct {
	Clusters  int
	Clustered int
	Noise     int
}

// Summarize computes cluster/noise counts for a label slice.
func Summarize(labels []int) Summary {
	seen := make(map[int]bool)
	var s Summary
	for _, l := range labels {
		if l == Noise {
			s.Noise++
			continue
		}
		s.Clustered++
		seen[l] = true
	}
	s.Clusters = len(seen)
	return s
}

func jaccard(a, b []bool) float64 {
	var inter, union int
	for i := range a {
		switch {
		case a[i] && b[i]:
			inter++
			union++
		case a[i] || b[i]:
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return 1 - float64(inter)/float64(union)
}

func hamming(a, b []bool) float64 {
	var diff int
	for i := range a {
		if a[i] != b[i] {
			diff++
		}
	}
	return float64(diff) / float64(len(a))
}
