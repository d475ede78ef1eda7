package organize

import (
	"testing"

	internaldicom "github.com/mrsinham/dicomkit/internal/dicom"
	"github.com/mrsinham/dicomkit/internal/scan"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func pathsOf(instances []*Instance) []string {
	out := make([]string, len(instances))
	for i, in := range instances {
		out[i] = in.Path
	}
	return out
}

func assertOrder(t *testing.T, instances []*Instance, want []string) {
	t.Helper()
	got := pathsOf(instances)
	if len(got) != len(want) {
		t.Fatalf("length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestSortInstances_SliceLocation(t *testing.T) {
	instances := []*Instance{
		{Path: "b", SliceLocation: floatPtr(10)},
		{Path: "d"},
		{Path: "a", SliceLocation: floatPtr(-5)},
		{Path: "c", SliceLocation: floatPtr(20)},
	}
	SortInstances(instances)
	assertOrder(t, instances, []string{"a", "b", "c", "d"})
}

func TestSortInstances_RawZ(t *testing.T) {
	instances := []*Instance{
		{Path: "b", ImagePosition: []float64{0, 0, 5}},
		{Path: "a", ImagePosition: []float64{0, 0, -2}},
		{Path: "c", ImagePosition: []float64{0, 0, 9}},
	}
	SortInstances(instances)
	assertOrder(t, instances, []string{"a", "b", "c"})
}

func TestSortInstances_RawZ_PairFallback(t *testing.T) {
	instances := []*Instance{
		{Path: "b", InstanceNumber: intPtr(2)},
		{Path: "a", ImagePosition: []float64{0, 0, 1}, InstanceNumber: intPtr(9)},
		{Path: "c", InstanceNumber: intPtr(30)},
	}
	// Only one instance has a position, so pairs lacking it compare by
	// instance number.
	SortInstances(instances)
	assertOrder(t, instances, []string{"b", "a", "c"})
}

func TestSortInstances_InstanceNumber(t *testing.T) {
	instances := []*Instance{
		{Path: "c"},
		{Path: "b", InstanceNumber: intPtr(7)},
		{Path: "a", InstanceNumber: intPtr(2)},
	}
	SortInstances(instances)
	assertOrder(t, instances, []string{"a", "b", "c"})
}

func TestSortInstances_ObliqueProjection(t *testing.T) {
	// Sagittal-like orientation: slices advance along Y, raw Z is noise.
	orientation := []float64{1, 0, 0, 0, 0, 1}
	instances := []*Instance{
		{Path: "first", ImageOrientation: orientation, ImagePosition: []float64{0, 10, 5}},
		{Path: "second", ImageOrientation: orientation, ImagePosition: []float64{0, 20, 1}},
		{Path: "third", ImageOrientation: orientation, ImagePosition: []float64{0, 30, 9}},
	}
	SortInstances(instances)
	// Raw Z would give second, first, third. Projection keeps the
	// acquisition direction along Y.
	assertOrder(t, instances, []string{"first", "second", "third"})
}

func TestSortInstances_ProjectionDirectionPreserved(t *testing.T) {
	orientation := []float64{1, 0, 0, 0, 1, 0} // axial, normal +Z
	instances := []*Instance{
		{Path: "top", ImageOrientation: orientation, ImagePosition: []float64{0, 0, 30}},
		{Path: "mid", ImageOrientation: orientation, ImagePosition: []float64{0, 0, 20}},
		{Path: "low", ImageOrientation: orientation, ImagePosition: []float64{0, 0, 10}},
	}
	// First two projections descend, so the descending order is kept.
	SortInstances(instances)
	assertOrder(t, instances, []string{"top", "mid", "low"})
}

func TestSortInstances_Idempotent(t *testing.T) {
	instances := []*Instance{
		{Path: "b", SliceLocation: floatPtr(10), InstanceNumber: intPtr(2)},
		{Path: "a", SliceLocation: floatPtr(-5), InstanceNumber: intPtr(1)},
		{Path: "tie1", SliceLocation: floatPtr(3)},
		{Path: "tie2", SliceLocation: floatPtr(3)},
	}
	SortInstances(instances)
	first := pathsOf(instances)
	SortInstances(instances)
	second := pathsOf(instances)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("re-sort changed order: %v then %v", first, second)
		}
	}
}

func TestSortEntriesByPosition(t *testing.T) {
	entries := []scan.Entry{
		{Path: "b", Valid: true, Metadata: internaldicom.Metadata{ImagePositionPatient: []float64{0, 0, 2.5}}},
		{Path: "a", Valid: true, Metadata: internaldicom.Metadata{ImagePositionPatient: []float64{0, 0, 0}}},
	}
	SortEntriesByPosition(entries)
	if entries[0].Path != "a" || entries[1].Path != "b" {
		t.Errorf("order = [%s %s], want [a b]", entries[0].Path, entries[1].Path)
	}
}
