package dicom

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

func TestTagKey(t *testing.T) {
	tests := []struct {
		name     string
		tag      tag.Tag
		expected string
	}{
		{"PatientName", tag.PatientName, "00100010"},
		{"PixelData", tag.PixelData, "7FE00010"},
		{"SeriesNumber", tag.SeriesNumber, "00200011"},
		{"Zero", tag.Tag{Group: 0, Element: 0}, "00000000"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := TagKey(tc.tag); got != tc.expected {
				t.Errorf("TagKey(%v) = %q, want %q", tc.tag, got, tc.expected)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slice.dcm")
	if err := WriteFixture(path, FixtureOptions{
		PatientName: "DOE^JANE",
		PatientID:   "PAT001",
		Modality:    "MR",
	}); err != nil {
		t.Fatalf("WriteFixture: %v", err)
	}

	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}

	elements, err := NewExtractor(nil).Extract(ds)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	name, ok := elements[TagKey(tag.PatientName)]
	if !ok {
		t.Fatal("PatientName element missing from extraction")
	}
	if name.Alias != "PatientName" {
		t.Errorf("alias = %q, want PatientName", name.Alias)
	}
	if name.VR != "PN" {
		t.Errorf("VR = %q, want PN", name.VR)
	}
	if name.Value != "DOE^JANE" {
		t.Errorf("value = %q, want DOE^JANE", name.Value)
	}

	pixel, ok := elements[TagKey(tag.PixelData)]
	if !ok {
		t.Fatal("PixelData element missing from extraction")
	}
	if pixel.Value != PixelDataPlaceholder {
		t.Errorf("pixel data value = %q, want placeholder", pixel.Value)
	}
}

type emptyDictionary struct{}

func (emptyDictionary) NameFor(tag.Tag) (string, bool) { return "", false }

func TestExtract_UnknownAlias(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slice.dcm")
	if err := WriteFixture(path, FixtureOptions{PatientID: "PAT001"}); err != nil {
		t.Fatalf("WriteFixture: %v", err)
	}
	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}

	elements, err := NewExtractor(emptyDictionary{}).Extract(ds)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for key, elem := range elements {
		if elem.Alias != UnknownAlias {
			t.Errorf("element %s alias = %q, want the unknown sentinel", key, elem.Alias)
		}
	}
}

func TestRenderValue_Multivalue(t *testing.T) {
	tests := []struct {
		name     string
		element  *dicom.Element
		expected string
	}{
		{"strings", mustNewElement(tag.ImagePositionPatient, []string{"1.0", "2.0", "3.0"}), `1.0\2.0\3.0`},
		{"ints", mustNewElement(tag.Rows, []int{128}), "128"},
		{"single string", mustNewElement(tag.Modality, []string{"CT"}), "CT"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := renderValue(tc.element)
			if err != nil {
				t.Fatalf("renderValue: %v", err)
			}
			if got != tc.expected {
				t.Errorf("renderValue = %q, want %q", got, tc.expected)
			}
		})
	}
}

func TestParseError_Unwrap(t *testing.T) {
	inner := errors.New("bad value")
	err := &ParseError{Tag: "00100010", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("ParseError should unwrap to its cause")
	}
}
