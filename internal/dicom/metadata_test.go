package dicom

import (
	"testing"

	"github.com/suyashkumar/dicom/pkg/tag"
)

func elementMap(pairs map[tag.Tag]string) map[string]Element {
	out := make(map[string]Element, len(pairs))
	for t, v := range pairs {
		key := TagKey(t)
		out[key] = Element{Tag: key, Value: v}
	}
	return out
}

func TestMapMetadata_Strings(t *testing.T) {
	md := MapMetadata(elementMap(map[tag.Tag]string{
		tag.PatientName:       "DOE^JOHN",
		tag.PatientID:         "PAT001",
		tag.StudyInstanceUID:  "1.2.3",
		tag.StudyDate:         "20240115",
		tag.SeriesInstanceUID: "1.2.3.4",
		tag.Modality:          "CT",
		tag.SOPInstanceUID:    "1.2.3.4.5",
	}))

	if md.PatientName != "DOE^JOHN" {
		t.Errorf("PatientName = %q", md.PatientName)
	}
	if md.StudyInstanceUID != "1.2.3" {
		t.Errorf("StudyInstanceUID = %q", md.StudyInstanceUID)
	}
	if md.Modality != "CT" {
		t.Errorf("Modality = %q", md.Modality)
	}
	if md.StudyDescription != "" {
		t.Errorf("absent StudyDescription = %q, want empty", md.StudyDescription)
	}
}

func TestMapMetadata_Numbers(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected *int
	}{
		{"valid", "7", intPtr(7)},
		{"negative", "-2", intPtr(-2)},
		{"malformed", "abc", nil},
		{"empty", "", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			md := MapMetadata(elementMap(map[tag.Tag]string{tag.SeriesNumber: tc.value}))
			if tc.expected == nil {
				if md.SeriesNumber != nil {
					t.Errorf("SeriesNumber = %d, want nil", *md.SeriesNumber)
				}
				return
			}
			if md.SeriesNumber == nil || *md.SeriesNumber != *tc.expected {
				t.Errorf("SeriesNumber = %v, want %d", md.SeriesNumber, *tc.expected)
			}
		})
	}
}

func TestMapMetadata_Vectors(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected []float64
	}{
		{"full triplet", `-100.5\20\3.25`, []float64{-100.5, 20, 3.25}},
		{"partial parse keeps good components", `1.0\bogus\3.0`, []float64{1.0, 3.0}},
		{"nothing parses", `a\b`, nil},
		{"absent", "", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			md := MapMetadata(elementMap(map[tag.Tag]string{tag.ImagePositionPatient: tc.value}))
			got := md.ImagePositionPatient
			if len(got) != len(tc.expected) {
				t.Fatalf("ImagePositionPatient = %v, want %v", got, tc.expected)
			}
			for i := range got {
				if got[i] != tc.expected[i] {
					t.Errorf("component %d = %v, want %v", i, got[i], tc.expected[i])
				}
			}
		})
	}
}

func TestMapMetadata_SpatialFields(t *testing.T) {
	md := MapMetadata(elementMap(map[tag.Tag]string{
		tag.SliceLocation:        "-12.5",
		tag.SliceThickness:       "1.25",
		tag.SpacingBetweenSlices: "2.5",
		tag.PixelSpacing:         `0.8\0.8`,
	}))

	if md.SliceLocation == nil || *md.SliceLocation != -12.5 {
		t.Errorf("SliceLocation = %v, want -12.5", md.SliceLocation)
	}
	if md.SliceThickness == nil || *md.SliceThickness != 1.25 {
		t.Errorf("SliceThickness = %v, want 1.25", md.SliceThickness)
	}
	if md.SpacingBetweenSlices == nil || *md.SpacingBetweenSlices != 2.5 {
		t.Errorf("SpacingBetweenSlices = %v, want 2.5", md.SpacingBetweenSlices)
	}
	if len(md.PixelSpacing) != 2 || md.PixelSpacing[0] != 0.8 {
		t.Errorf("PixelSpacing = %v, want [0.8 0.8]", md.PixelSpacing)
	}
}

func intPtr(v int) *int { return &v }
