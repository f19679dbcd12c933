package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"go.viam.com/poissondisk/octree"
)

// renderStats renders the per depth statistics of an octree as a table.
func renderStats(levels []octree.LevelStats) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Depth", "Cell size", "Cells", "Mean points"})
	for _, level := range levels {
		t.AppendRow(table.Row{
			level.Depth,
			fmt.Sprintf("%.4g", level.CellSize),
			level.Cells,
			fmt.Sprintf("%.2f", level.MeanPoints),
		})
	}
	return t.Render()
}
