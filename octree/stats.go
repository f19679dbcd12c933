package octree

// LevelStats describes the occupancy of one depth of an octree.
type LevelStats struct {
	Depth    uint
	CellSize float64
	// Cells is the number of non empty nodes at this depth.
	Cells int
	// MeanPoints is the average number of points per non empty node.
	MeanPoints float64
}

// Stats returns per depth statistics, root first.
func (o *Octree[T]) Stats() []LevelStats {
	if len(o.nodes) == 0 {
		return nil
	}
	stats := make([]LevelStats, 0, o.depth+1)
	for d := int(o.depth); d >= 0; d-- {
		level := LevelStats{
			Depth:    uint(d),
			CellSize: o.CellSize(uint(d)),
			Cells:    o.cells[d],
		}
		// the root exists before any point does
		if o.numPoints == 0 {
			level.Cells = 0
		}
		if level.Cells > 0 {
			level.MeanPoints = float64(o.numPoints) / float64(level.Cells)
		}
		stats = append(stats, level)
	}
	return stats
}

// LogStats logs the statistics of each depth at info level.
func (o *Octree[T]) LogStats() {
	o.logger.Infow("octree", "depth", o.depth, "size", o.size, "origin", o.origin, "points", o.numPoints)
	for _, level := range o.Stats() {
		o.logger.Infow("octree level",
			"depth", level.Depth,
			"cellSize", level.CellSize,
			"cells", level.Cells,
			"meanPoints", level.MeanPoints,
		)
	}
}
