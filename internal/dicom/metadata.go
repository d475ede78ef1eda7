package dicom

import (
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// Metadata is the strongly-typed record of well-known attributes. Every
// field is optional: empty strings, nil pointers and nil slices all mean
// the attribute was absent or unparsable.
type Metadata struct {
	PatientName string
	PatientID   string

	StudyInstanceUID string
	StudyDate        string
	StudyDescription string
	AccessionNumber  string

	SeriesInstanceUID string
	SeriesDescription string
	SeriesNumber      *int
	Modality          string

	SOPInstanceUID string
	InstanceNumber *int

	ImagePositionPatient    []float64
	ImageOrientationPatient []float64
	SliceLocation           *float64
	SliceThickness          *float64
	SpacingBetweenSlices    *float64
	PixelSpacing            []float64

	Rows            *int
	Columns         *int
	BitsAllocated   *int
	BitsStored      *int
	SamplesPerPixel *int
	NumberOfFrames  *int
}

// MapMetadata pulls the well-known tags out of an extracted element map.
// It never fails: missing or malformed values degrade to absent fields.
func MapMetadata(elements map[string]Element) Metadata {
	return Metadata{
		PatientName: stringAt(elements, tag.PatientName),
		PatientID:   stringAt(elements, tag.PatientID),

		StudyInstanceUID: stringAt(elements, tag.StudyInstanceUID),
		StudyDate:        stringAt(elements, tag.StudyDate),
		StudyDescription: stringAt(elements, tag.StudyDescription),
		AccessionNumber:  stringAt(elements, tag.AccessionNumber),

		SeriesInstanceUID: stringAt(elements, tag.SeriesInstanceUID),
		SeriesDescription: stringAt(elements, tag.SeriesDescription),
		SeriesNumber:      intAt(elements, tag.SeriesNumber),
		Modality:          stringAt(elements, tag.Modality),

		SOPInstanceUID: stringAt(elements, tag.SOPInstanceUID),
		InstanceNumber: intAt(elements, tag.InstanceNumber),

		ImagePositionPatient:    floatVecAt(elements, tag.ImagePositionPatient),
		ImageOrientationPatient: floatVecAt(elements, tag.ImageOrientationPatient),
		SliceLocation:           floatAt(elements, tag.SliceLocation),
		SliceThickness:          floatAt(elements, tag.SliceThickness),
		SpacingBetweenSlices:    floatAt(elements, tag.SpacingBetweenSlices),
		PixelSpacing:            floatVecAt(elements, tag.PixelSpacing),

		Rows:            intAt(elements, tag.Rows),
		Columns:         intAt(elements, tag.Columns),
		BitsAllocated:   intAt(elements, tag.BitsAllocated),
		BitsStored:      intAt(elements, tag.BitsStored),
		SamplesPerPixel: intAt(elements, tag.SamplesPerPixel),
		NumberOfFrames:  intAt(elements, tag.NumberOfFrames),
	}
}

func stringAt(elements map[string]Element, t tag.Tag) string {
	elem, ok := elements[TagKey(t)]
	if !ok {
		return ""
	}
	return strings.TrimSpace(elem.Value)
}

func intAt(elements map[string]Element, t tag.Tag) *int {
	s := stringAt(elements, t)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

func floatAt(elements map[string]Element, t tag.Tag) *float64 {
	s := stringAt(elements, t)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// floatVecAt parses a backslash-delimited multi-value attribute. Components
// that fail to parse are dropped; the result is nil only when no component
// parses at all.
func floatVecAt(elements map[string]Element, t tag.Tag) []float64 {
	s := stringAt(elements, t)
	if s == "" {
		return nil
	}
	var out []float64
	for _, part := range strings.Split(s, `\`) {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
