package scan

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	internaldicom "github.com/mrsinham/dicomkit/internal/dicom"
)

func writeCatalog(t *testing.T, dir string, images []internaldicom.CatalogImageRef) string {
	t.Helper()
	path := filepath.Join(dir, "DICOMDIR")
	err := internaldicom.WriteCatalogFixture(path, internaldicom.CatalogFixture{
		PatientID:   "PAT001",
		PatientName: "DOE^JANE",
		StudyUID:    "1.2.3",
		StudyDate:   "20240115",
		SeriesUID:   "1.2.3.4",
		Modality:    "MR",
		Images:      images,
	})
	if err != nil {
		t.Fatalf("WriteCatalogFixture: %v", err)
	}
	return path
}

func TestIsCatalogFile(t *testing.T) {
	dir := t.TempDir()
	catalogPath := writeCatalog(t, dir, []internaldicom.CatalogImageRef{
		{PathComponents: []string{"IM1"}, SOPInstanceUID: "1.2.3.4.1"},
	})

	plain := filepath.Join(dir, "slice.dcm")
	if err := internaldicom.WriteFixture(plain, internaldicom.FixtureOptions{PatientID: "P"}); err != nil {
		t.Fatalf("WriteFixture: %v", err)
	}
	text := filepath.Join(dir, "readme.txt")
	if err := os.WriteFile(text, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !IsCatalogFile(catalogPath) {
		t.Error("IsCatalogFile(DICOMDIR) = false")
	}
	if IsCatalogFile(plain) {
		t.Error("IsCatalogFile(ordinary DICOM) = true")
	}
	if IsCatalogFile(text) {
		t.Error("IsCatalogFile(text) = true")
	}
}

func TestParseCatalog_Tree(t *testing.T) {
	dir := t.TempDir()
	catalogPath := writeCatalog(t, dir, []internaldicom.CatalogImageRef{
		{PathComponents: []string{"SUB", "IM1"}, SOPInstanceUID: "1.2.3.4.1"},
		{PathComponents: []string{"SUB", "IM2"}, SOPInstanceUID: "1.2.3.4.2"},
	})

	root, err := ParseCatalog(catalogPath)
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}

	if len(root.Children) != 1 {
		t.Fatalf("root children = %d, want 1 patient", len(root.Children))
	}
	patient := root.Children[0]
	if patient.Type != "PATIENT" {
		t.Fatalf("first record type = %q, want PATIENT", patient.Type)
	}
	if patient.Metadata["PatientID"] != "PAT001" {
		t.Errorf("PatientID = %q", patient.Metadata["PatientID"])
	}
	if len(patient.Children) != 1 || patient.Children[0].Type != "STUDY" {
		t.Fatal("expected one STUDY under the patient")
	}
	study := patient.Children[0]
	if len(study.Children) != 1 || study.Children[0].Type != "SERIES" {
		t.Fatal("expected one SERIES under the study")
	}
	series := study.Children[0]
	if len(series.Children) != 2 {
		t.Fatalf("images = %d, want 2", len(series.Children))
	}
	img := series.Children[0]
	if img.Type != "IMAGE" {
		t.Errorf("leaf type = %q, want IMAGE", img.Type)
	}
	want := filepath.Join(dir, "SUB", "IM1")
	if img.Path != want {
		t.Errorf("resolved path = %q, want %q", img.Path, want)
	}
}

func TestParseCatalog_NotACatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slice.dcm")
	if err := internaldicom.WriteFixture(path, internaldicom.FixtureOptions{PatientID: "P"}); err != nil {
		t.Fatalf("WriteFixture: %v", err)
	}

	_, err := ParseCatalog(path)
	if err == nil {
		t.Fatal("ParseCatalog should reject an ordinary DICOM file")
	}
	var catErr *CatalogError
	if !errors.As(err, &catErr) {
		t.Errorf("error type = %T, want *CatalogError", err)
	}
}

func newReferencedFileIDElement(components []string) (*dicom.Element, error) {
	return dicom.NewElement(tag.ReferencedFileID, components)
}

func TestResolveReferencedFileID(t *testing.T) {
	tests := []struct {
		name       string
		components []string
		expected   string
	}{
		{"pre-split", []string{"DICOM", "001", "IMG1"}, filepath.Join("/media", "DICOM", "001", "IMG1")},
		{"single delimited value", []string{`DICOM\001\IMG1`}, filepath.Join("/media", "DICOM", "001", "IMG1")},
		{"blank components dropped", []string{"DICOM", "", "IMG1"}, filepath.Join("/media", "DICOM", "IMG1")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, err := newReferencedFileIDElement(tc.components)
			if err != nil {
				t.Fatalf("build element: %v", err)
			}
			got := resolveReferencedFileID("/media", e)
			if got != tc.expected {
				t.Errorf("resolved = %q, want %q", got, tc.expected)
			}
		})
	}
}

func TestLoadUnified_WithCatalog(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "SUB")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeSlice(t, filepath.Join(sub, "IM1"), 1, 1)
	writeSlice(t, filepath.Join(sub, "IM2"), 1, 2)
	// A stray file outside the catalog must not appear in the unified load.
	writeSlice(t, filepath.Join(dir, "stray.dcm"), 9, 9)

	writeCatalog(t, dir, []internaldicom.CatalogImageRef{
		{PathComponents: []string{"SUB", "IM1"}, SOPInstanceUID: "1.2.3.4.1"},
		{PathComponents: []string{"SUB", "IM2"}, SOPInstanceUID: "1.2.3.4.2"},
	})

	entries, err := NewScanner().LoadUnified(dir, false)
	if err != nil {
		t.Fatalf("LoadUnified: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2 (catalog-driven)", len(entries))
	}
	if *entries[0].Metadata.InstanceNumber != 1 || *entries[1].Metadata.InstanceNumber != 2 {
		t.Error("catalog entries not sorted by instance number")
	}
}

func TestLoadUnified_FallsBackToScan(t *testing.T) {
	dir := t.TempDir()
	writeSlice(t, filepath.Join(dir, "a.dcm"), 1, 1)

	entries, err := NewScanner().LoadUnified(dir, false)
	if err != nil {
		t.Fatalf("LoadUnified: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("entries = %d, want 1 via fallback scan", len(entries))
	}
}

func TestLoadUnified_CatalogWithMissingFiles(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, []internaldicom.CatalogImageRef{
		{PathComponents: []string{"GONE", "IM1"}, SOPInstanceUID: "1.2.3.4.1"},
	})
	writeSlice(t, filepath.Join(dir, "present.dcm"), 1, 1)

	// Every referenced file is missing, so the loader falls back to a
	// plain scan and finds the file the catalog does not mention.
	entries, err := NewScanner().LoadUnified(dir, false)
	if err != nil {
		t.Fatalf("LoadUnified: %v", err)
	}
	found := false
	for _, e := range entries {
		if filepath.Base(e.Path) == "present.dcm" {
			found = true
		}
	}
	if !found {
		t.Error("fallback scan should surface present.dcm")
	}
}
