// Package pipeline holds the table transforms of the profile and reorder
// pipelines and the thin runners that connect them to files.
//
// Transforms operate in place on a *table.Table and never touch the
// filesystem; Profile and Reorder clone their input first.
package pipeline

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/KaramelBytes/catlens/internal/analysis"
	"github.com/KaramelBytes/catlens/internal/table"
)

// LabelCategories adds labelCol holding the label of each row's category
// id. Ids absent from labels, or missing, get an empty label.
func LabelCategories(t *table.Table, categoryCol, labelCol string, labels map[int64]string) error {
	ids, err := t.Ints(categoryCol)
	if err != nil {
		return err
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		if id.Valid {
			out[i] = labels[id.V]
		}
	}
	return t.AddColumn(labelCol, out)
}

// SortByCategory stably sorts rows by ascending category id. Rows with a
// missing id go last in input order.
func SortByCategory(t *table.Table, categoryCol string) error {
	ids, err := t.Ints(categoryCol)
	if err != nil {
		return err
	}
	order := identity(len(ids))
	sort.SliceStable(order, func(a, b int) bool {
		x, y := ids[order[a]], ids[order[b]]
		if x.Valid != y.Valid {
			return x.Valid
		}
		return x.Valid && x.V < y.V
	})
	return t.Permute(order)
}

// StandardizeColumn replaces col with its z-scores (sample std). Missing
// cells stay empty; a column with fewer than two values or zero variance
// becomes all zeros.
func StandardizeColumn(t *table.Table, col string) error {
	vals, err := t.Floats(col)
	if err != nil {
		return err
	}
	z := analysis.Standardize(vals)
	out := make([]string, len(z))
	for i, v := range z {
		if math.IsNaN(v) {
			continue
		}
		out[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return t.SetColumn(col, out)
}

// SentinelRank is the rank given to ids absent from a priority table.
func SentinelRank(priorities map[int64]int) int { return len(priorities) + 1 }

// AssignPriority adds priorityCol holding each row's rank. Ids absent from
// priorities, or missing, get SentinelRank.
func AssignPriority(t *table.Table, categoryCol, priorityCol string, priorities map[int64]int) error {
	ids, err := t.Ints(categoryCol)
	if err != nil {
		return err
	}
	sentinel := SentinelRank(priorities)
	out := make([]string, len(ids))
	for i, id := range ids {
		rank := sentinel
		if id.Valid {
			if r, ok := priorities[id.V]; ok {
				rank = r
			}
		}
		out[i] = strconv.Itoa(rank)
	}
	return t.AddColumn(priorityCol, out)
}

// SortByPriority stably sorts rows by (rank, entity id). Missing entity ids
// sort last within their rank.
func SortByPriority(t *table.Table, priorityCol, entityCol string) error {
	ranks, err := t.Ints(priorityCol)
	if err != nil {
		return err
	}
	for i, r := range ranks {
		if !r.Valid {
			return fmt.Errorf("column %q row %d: missing rank", priorityCol, i+1)
		}
	}
	entityLess, err := entityOrder(t, entityCol)
	if err != nil {
		return err
	}
	order := identity(len(ranks))
	sort.SliceStable(order, func(a, b int) bool {
		i, j := order[a], order[b]
		if ranks[i].V != ranks[j].V {
			return ranks[i].V < ranks[j].V
		}
		return entityLess(i, j)
	})
	return t.Permute(order)
}

// entityOrder compares entity ids as int64 when every present cell is an
// integer, and as float64 otherwise. Missing ids compare greater.
func entityOrder(t *table.Table, col string) (func(i, j int) bool, error) {
	if ints, err := t.Ints(col); err == nil {
		return func(i, j int) bool {
			x, y := ints[i], ints[j]
			if !x.Valid || !y.Valid {
				return x.Valid && !y.Valid
			}
			return x.V < y.V
		}, nil
	}
	ents, err := t.Floats(col)
	if err != nil {
		return nil, err
	}
	return func(i, j int) bool {
		x, y := ents[i], ents[j]
		if math.IsNaN(x) || math.IsNaN(y) {
			return !math.IsNaN(x) && math.IsNaN(y)
		}
		return x < y
	}, nil
}

func identity(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}
