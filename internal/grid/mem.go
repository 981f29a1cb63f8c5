package grid

import (
	"context"
	"fmt"

	"github.com/ctessum/sparse"

	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
)

// MemSource serves blocks from a dense in-memory array. It backs synthetic
// fixtures and tests; production data goes through the chunk store instead.
type MemSource struct {
	arr *sparse.DenseArray // [days, rows, cols]
}

// NewMemSource wraps a rank-3 [days, rows, cols] array.
func NewMemSource(arr *sparse.DenseArray) (*MemSource, error) {
	if len(arr.Shape) != 3 {
		return nil, &domain.ShapeError{Subject: "temperature", Detail: fmt.Sprintf("rank %d array, want 3", len(arr.Shape))}
	}
	return &MemSource{arr: arr}, nil
}

func (m *MemSource) Shape() (int, int, int) {
	return m.arr.Shape[0], m.arr.Shape[1], m.arr.Shape[2]
}

func (m *MemSource) ReadBlock(ctx context.Context, day0, day1, row0, row1 int) (*sparse.DenseArray, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cols := m.arr.Shape[2]
	out := sparse.ZerosDense(day1-day0, row1-row0, cols)
	for t := day0; t < day1; t++ {
		for r := row0; r < row1; r++ {
			for c := 0; c < cols; c++ {
				out.Set(m.arr.Get(t, r, c), t-day0, r-row0, c)
			}
		}
	}
	return out, nil
}
