package pipeline

import (
	"fmt"

	"github.com/KaramelBytes/catlens/internal/table"
)

// ReorderOptions controls the priority reorder.
type ReorderOptions struct {
	CategoryColumn string
	EntityColumn   string
	PriorityColumn string
	Priorities     map[int64]int
}

// Reorder returns a copy of in sorted by (priority rank, entity id), with
// the same columns as in. The rank column exists only while sorting.
func Reorder(in *table.Table, opt ReorderOptions) (*table.Table, error) {
	t := in.Clone()
	if err := AssignPriority(t, opt.CategoryColumn, opt.PriorityColumn, opt.Priorities); err != nil {
		return nil, fmt.Errorf("assign priority: %w", err)
	}
	if err := SortByPriority(t, opt.PriorityColumn, opt.EntityColumn); err != nil {
		return nil, fmt.Errorf("sort by priority: %w", err)
	}
	if err := t.DropColumn(opt.PriorityColumn); err != nil {
		return nil, fmt.Errorf("drop priority: %w", err)
	}
	return t, nil
}
