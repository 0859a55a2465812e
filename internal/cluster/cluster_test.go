package cluster

import "testing"

// Two tight groups with opposite profiles plus one outlier.
func twoGroups() [][]bool {
	a := []bool{true, true, true, false, false, false}
	b := []bool{false, false, false, true, true, true}
	outlier := []bool{true, false, true, false, true, false}
	var rows [][]bool
	for i := 0; i < 5; i++ {
		rows = append(rows, append([]bool(nil), a...))
	}
	for i := 0; i < 5; i++ {
		rows = append(rows, append([]bool(nil), b...))
	}
	rows = append(rows, outlier)
	return rows
}

func TestClusterTwoGroups(t *testing.T) {
	labels, err := Cluster(twoGroups(), Params{MinClusterSize: 3, MinSamples: 2, Eps: 0.4})
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	s := Summarize(labels)
	if s.Clusters != 2 {
		t.Fatalf("expected 2 clusters, got %d (labels %v)", s.Clusters, labels)
	}
	if labels[0] == labels[5] {
		t.Error("opposite profiles landed in the same cluster")
	}
	for i := 1; i < 5; i++ {
		if labels[i] != labels[0] {
			t.Errorf("identical rows split across clusters: %v", labels)
		}
	}
	if labels[10] != Noise {
		t.Errorf("outlier should be noise, got %d", labels[10])
	}
}

func TestClusterDeterministic(t *testing.T) {
	rows := twoGroups()
	first, err := Cluster(rows, Params{})
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _ := Cluster(rows, Params{})
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("run %d differs at %d: %v vs %v", i, j, again, first)
			}
		}
	}
}

func TestClusterMinClusterSizeDemotesToNoise(t *testing.T) {
	labels, err := Cluster(twoGroups(), Params{MinClusterSize: 6, MinSamples: 2, Eps: 0.4})
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	s := Summarize(labels)
	if s.Clusters != 0 || s.Noise != len(labels) {
		t.Errorf("clusters below min size must all become noise: %+v", s)
	}
}

func TestClusterLabelsAreDense(t *testing.T) {
	labels, err := Cluster(twoGroups(), Params{MinClusterSize: 3, MinSamples: 2, Eps: 0.4})
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	seen := map[int]bool{}
	max := -1
	for _, l := range labels {
		if l == Noise {
			continue
		}
		seen[l] = true
		if l > max {
			max = l
		}
	}
	for i := 0; i <= max; i++ {
		if !seen[i] {
			t.Errorf("label %d missing from dense range: %v", i, labels)
		}
	}
}

func TestClusterHammingMetric(t *testing.T) {
	labels, err := Cluster(twoGroups(), Params{MinClusterSize: 3, MinSamples: 2, Metric: "hamming", Eps: 0.3})
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	if Summarize(labels).Clusters != 2 {
		t.Errorf("expected 2 clusters under hamming, got %v", labels)
	}
}

func TestClusterUnsupportedMetric(t *testing.T) {
	if _, err := Cluster(twoGroups(), Params{Metric: "cosine"}); err == nil {
		t.Error("expected error for unsupported metric")
	}
}

func TestClusterEmptyInput(t *testing.T) {
	if _, err := Cluster(nil, Params{}); err == nil {
		t.Error("expected error for empty matrix")
	}
	if _, err := Cluster([][]bool{{true}, {true, false}}, Params{}); err == nil {
		t.Error("expected error for ragged matrix")
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]int{0, 0, 1, -1, -1, 1, 2, 2, 2})
	if s.Clusters != 3 || s.Clustered != 7 || s.Noise != 2 {
		t.Errorf("unexpected summary: %+v", s)
	}
}
