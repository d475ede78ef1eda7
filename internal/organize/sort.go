package organize

import (
	"sort"

	"github.com/mrsinham/dicomkit/internal/scan"
)

// SortInstances orders a series anatomically. The first applicable tier
// wins for the whole series:
//
//	tier 0: project positions onto the orientation-derived slice normal
//	tier 1: slice location ascending
//	tier 2: raw Z of the image position ascending
//	tier 3: instance number ascending
//
// Absent values sort after present ones at every tier. All sorts are
// stable, so re-sorting a sorted series is a no-op.
func SortInstances(instances []*Instance) {
	if len(instances) < 2 {
		return
	}
	if sortByProjection(instances) {
		return
	}
	if anyInstance(instances, func(in *Instance) bool { return in.SliceLocation != nil }) {
		sort.SliceStable(instances, func(i, j int) bool {
			return compareFloatPtr(instances[i].SliceLocation, instances[j].SliceLocation) < 0
		})
		return
	}
	if anyInstance(instances, func(in *Instance) bool { return len(in.ImagePosition) >= 3 }) {
		sort.SliceStable(instances, func(i, j int) bool {
			a, b := instances[i], instances[j]
			if len(a.ImagePosition) >= 3 && len(b.ImagePosition) >= 3 {
				return a.ImagePosition[2] < b.ImagePosition[2]
			}
			// Raw Z unusable for this pair, fall back to instance number.
			return compareIntPtr(a.InstanceNumber, b.InstanceNumber) < 0
		})
		return
	}
	sort.SliceStable(instances, func(i, j int) bool {
		return compareIntPtr(instances[i].InstanceNumber, instances[j].InstanceNumber) < 0
	})
}

// SortEntriesByPosition orders flat scan results for volume assembly using
// the same tier chain as SortInstances. Oblique acquisitions sort by the
// projection onto the slice normal, where raw Z would mislead.
func SortEntriesByPosition(entries []scan.Entry) {
	instances := make([]*Instance, len(entries))
	for i, e := range entries {
		instances[i] = newInstance(e)
	}
	byPath := make(map[string]scan.Entry, len(entries))
	for _, e := range entries {
		byPath[e.Path] = e
	}
	SortInstances(instances)
	for i, in := range instances {
		entries[i] = byPath[in.Path]
	}
}

// sortByProjection implements tier 0. The slice normal is the cross
// product of the row and column direction cosines from the first
// orientation sextuplet found. Whether the series ascends or descends
// along the normal is taken from the first two projected instances, so
// the acquisition direction survives the sort. Returns false when the
// series lacks orientation or has fewer than two positioned instances.
func sortByProjection(instances []*Instance) bool {
	normal := sliceNormal(instances)
	if normal == nil {
		return false
	}

	projections := make(map[*Instance]float64, len(instances))
	var ordered []float64
	for _, in := range instances {
		if len(in.ImagePosition) >= 3 {
			p := dot3(in.ImagePosition, normal)
			projections[in] = p
			ordered = append(ordered, p)
		}
	}
	if len(ordered) < 2 {
		return false
	}
	descending := ordered[0] > ordered[1]

	sort.SliceStable(instances, func(i, j int) bool {
		a, aok := projections[instances[i]]
		b, bok := projections[instances[j]]
		switch {
		case aok && bok:
			if descending {
				return a > b
			}
			return a < b
		case aok:
			return true
		case bok:
			return false
		default:
			return compareIntPtr(instances[i].InstanceNumber, instances[j].InstanceNumber) < 0
		}
	})
	return true
}

// sliceNormal derives the normal from the first instance carrying a full
// orientation sextuplet.
func sliceNormal(instances []*Instance) []float64 {
	for _, in := range instances {
		o := in.ImageOrientation
		if len(o) >= 6 {
			row := o[:3]
			col := o[3:6]
			return cross3(row, col)
		}
	}
	return nil
}

func cross3(a, b []float64) []float64 {
	return []float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func dot3(a, b []float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func anyInstance(instances []*Instance, pred func(*Instance) bool) bool {
	for _, in := range instances {
		if pred(in) {
			return true
		}
	}
	return false
}

// compareFloatPtr orders present values ascending and nils last.
func compareFloatPtr(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}
