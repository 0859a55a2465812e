package tools

import (
	"context"
	"fmt"
	"strconv"

	"github.com/anhp95/lang/internal/cluster"
	"github.com/anhp95/lang/internal/schema"
)

// clusterTool runs density clustering over the concept columns of a binary
// matrix and appends the label column. A run where every point ends up as
// noise is a declared failure: nothing is written back.
func clusterTool(ctx context.Context, in Input) (*Result, error) {
	t := in.Table

	identity := make(map[string]bool, len(schema.IdentityColumns))
	for _, c := range schema.IdentityColumns {
		identity[c] = true
	}
	var conceptIdx []int
	for i, c := range t.Columns {
		if !identity[c] && c != schema.ClusterIDColumn {
			conceptIdx = append(conceptIdx, i)
		}
	}
	if len(conceptIdx) == 0 {
		return &Result{Tool: "cluster", Failure: "no concept columns found"}, nil
	}

	features := make([][]bool, t.RowCount())
	for i := range t.Rows {
		row := make([]bool, len(conceptIdx))
		for j, idx := range conceptIdx {
			row[j] = schema.TruthyCell(t.Cell(i, idx))
		}
		features[i] = row
	}

	params := in.ClusterDefaults
	p := paramMap(in.Params, "params")
	if p == nil {
		p = in.Params
	}
	if v := paramInt(p, "min_cluster_size"); v > 0 {
		params.MinClusterSize = v
	}
	if v := paramInt(p, "min_samples"); v > 0 {
		params.MinSamples = v
	}
	if v := paramString(p, "metric"); v != "" {
		params.Metric = v
	}

	labels, err := cluster.Cluster(features, params)
	if err != nil {
		return nil, fmt.Errorf("clustering: %w", err)
	}

	sum := cluster.Summarize(labels)
	if sum.Clusters == 0 {
		return &Result{
			Tool:    "cluster",
			Failure: fmt.Sprintf("clustering collapsed to noise: all %d points unassigned", sum.Noise),
		}, nil
	}

	out := t.Clone()
	out.Columns = append(out.Columns, schema.ClusterIDColumn)
	for i := range out.Rows {
		out.Rows[i] = append(out.Rows[i], strconv.Itoa(labels[i]))
	}

	return &Result{
		Tool:       "cluster",
		Table:      out,
		OutputKind: schema.KindClustered,
		Summary: map[string]any{
			"total_clusters":      sum.Clusters,
			"clustered_languages": sum.Clustered,
			"noise_points":        sum.Noise,
		},
		Notes: fmt.Sprintf("Found %d clusters (%d languages, %d noise)", sum.Clusters, sum.Clustered, sum.Noise),
	}, nil
}
