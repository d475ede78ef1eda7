package dicom

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// FixtureOptions describes one synthetic DICOM file. Zero values omit the
// corresponding attribute, so tests can exercise absent-field behavior.
type FixtureOptions struct {
	PatientName string
	PatientID   string

	StudyInstanceUID string
	StudyDate        string
	StudyDescription string
	AccessionNumber  string

	SeriesInstanceUID string
	SeriesDescription string
	SeriesNumber      int
	Modality          string

	SOPInstanceUID string
	InstanceNumber int

	Rows           int // default 16
	Columns        int // default 16
	BitsAllocated  int // 8 or 16, default 16
	NumberOfFrames int // default 1

	ImagePosition        []float64
	ImageOrientation     []float64
	SliceLocation        *float64
	SliceThickness       *float64
	SpacingBetweenSlices *float64
	PixelSpacing         []float64

	OmitPixelData bool
}

// WriteFixture writes a small synthetic DICOM file for tests.
func WriteFixture(path string, opt FixtureOptions) error {
	if opt.Rows == 0 {
		opt.Rows = 16
	}
	if opt.Columns == 0 {
		opt.Columns = 16
	}
	if opt.BitsAllocated == 0 {
		opt.BitsAllocated = 16
	}
	if opt.NumberOfFrames == 0 {
		opt.NumberOfFrames = 1
	}
	sopInstanceUID := opt.SOPInstanceUID
	if sopInstanceUID == "" {
		sopInstanceUID = deterministicUID(path)
	}

	elements := []*dicom.Element{
		mustNewElement(tag.TransferSyntaxUID, []string{"1.2.840.10008.1.2.1"}),
		mustNewElement(tag.SOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.4"}),
		mustNewElement(tag.SOPInstanceUID, []string{sopInstanceUID}),
		mustNewElement(tag.Rows, []int{opt.Rows}),
		mustNewElement(tag.Columns, []int{opt.Columns}),
		mustNewElement(tag.BitsAllocated, []int{opt.BitsAllocated}),
		mustNewElement(tag.BitsStored, []int{opt.BitsAllocated}),
		mustNewElement(tag.HighBit, []int{opt.BitsAllocated - 1}),
		mustNewElement(tag.PixelRepresentation, []int{0}),
		mustNewElement(tag.SamplesPerPixel, []int{1}),
		mustNewElement(tag.PhotometricInterpretation, []string{"MONOCHROME2"}),
	}

	addString := func(t tag.Tag, v string) {
		if v != "" {
			elements = append(elements, mustNewElement(t, []string{v}))
		}
	}
	addString(tag.PatientName, opt.PatientName)
	addString(tag.PatientID, opt.PatientID)
	addString(tag.StudyInstanceUID, opt.StudyInstanceUID)
	addString(tag.StudyDate, opt.StudyDate)
	addString(tag.StudyDescription, opt.StudyDescription)
	addString(tag.AccessionNumber, opt.AccessionNumber)
	addString(tag.SeriesInstanceUID, opt.SeriesInstanceUID)
	addString(tag.SeriesDescription, opt.SeriesDescription)
	addString(tag.Modality, opt.Modality)
	if opt.SeriesNumber != 0 {
		addString(tag.SeriesNumber, fmt.Sprintf("%d", opt.SeriesNumber))
	}
	if opt.InstanceNumber != 0 {
		addString(tag.InstanceNumber, fmt.Sprintf("%d", opt.InstanceNumber))
	}
	if opt.NumberOfFrames > 1 {
		addString(tag.NumberOfFrames, fmt.Sprintf("%d", opt.NumberOfFrames))
	}
	if len(opt.ImagePosition) > 0 {
		elements = append(elements, mustNewElement(tag.ImagePositionPatient, floatsToDS(opt.ImagePosition)))
	}
	if len(opt.ImageOrientation) > 0 {
		elements = append(elements, mustNewElement(tag.ImageOrientationPatient, floatsToDS(opt.ImageOrientation)))
	}
	if opt.SliceLocation != nil {
		addString(tag.SliceLocation, fmt.Sprintf("%.6f", *opt.SliceLocation))
	}
	if opt.SliceThickness != nil {
		addString(tag.SliceThickness, fmt.Sprintf("%.6f", *opt.SliceThickness))
	}
	if opt.SpacingBetweenSlices != nil {
		addString(tag.SpacingBetweenSlices, fmt.Sprintf("%.6f", *opt.SpacingBetweenSlices))
	}
	if len(opt.PixelSpacing) > 0 {
		elements = append(elements, mustNewElement(tag.PixelSpacing, floatsToDS(opt.PixelSpacing)))
	}

	if !opt.OmitPixelData {
		elements = append(elements, mustNewElement(tag.PixelData, fixturePixels(opt)))
	}

	return writeDatasetToFile(path, dicom.Dataset{Elements: elements})
}

// fixturePixels fills each frame with a horizontal gradient.
func fixturePixels(opt FixtureOptions) dicom.PixelDataInfo {
	pixelsPerFrame := opt.Rows * opt.Columns
	frames := make([]*frame.Frame, opt.NumberOfFrames)
	for i := range frames {
		if opt.BitsAllocated == 8 {
			native := frame.NewNativeFrame[uint8](8, opt.Rows, opt.Columns, pixelsPerFrame, 1)
			for p := 0; p < pixelsPerFrame; p++ {
				native.RawData[p] = uint8((p + i) % 256)
			}
			frames[i] = &frame.Frame{Encapsulated: false, NativeData: native}
		} else {
			native := frame.NewNativeFrame[uint16](16, opt.Rows, opt.Columns, pixelsPerFrame, 1)
			for p := 0; p < pixelsPerFrame; p++ {
				native.RawData[p] = uint16((p + i) % 4096)
			}
			frames[i] = &frame.Frame{Encapsulated: false, NativeData: native}
		}
	}
	return dicom.PixelDataInfo{Frames: frames}
}

// CatalogImageRef is one IMAGE record in a catalog fixture. PathComponents
// are joined with the DICOM backslash delimiter in ReferencedFileID.
type CatalogImageRef struct {
	PathComponents []string
	SOPInstanceUID string
}

// CatalogFixture describes a single-patient catalog file for tests.
type CatalogFixture struct {
	PatientID   string
	PatientName string
	StudyUID    string
	StudyDate   string
	SeriesUID   string
	Modality    string
	Images      []CatalogImageRef
}

// WriteCatalogFixture writes a DICOMDIR-style catalog file containing one
// PATIENT/STUDY/SERIES chain and the given IMAGE records.
func WriteCatalogFixture(path string, fix CatalogFixture) error {
	var records [][]*dicom.Element

	records = append(records, []*dicom.Element{
		mustNewElement(tag.OffsetOfTheNextDirectoryRecord, []int{0}),
		mustNewElement(tag.RecordInUseFlag, []int{0xFFFF}),
		mustNewElement(tag.OffsetOfReferencedLowerLevelDirectoryEntity, []int{0}),
		mustNewElement(tag.DirectoryRecordType, []string{"PATIENT"}),
		mustNewElement(tag.PatientID, []string{fix.PatientID}),
		mustNewElement(tag.PatientName, []string{fix.PatientName}),
	})
	records = append(records, []*dicom.Element{
		mustNewElement(tag.OffsetOfTheNextDirectoryRecord, []int{0}),
		mustNewElement(tag.RecordInUseFlag, []int{0xFFFF}),
		mustNewElement(tag.OffsetOfReferencedLowerLevelDirectoryEntity, []int{0}),
		mustNewElement(tag.DirectoryRecordType, []string{"STUDY"}),
		mustNewElement(tag.StudyInstanceUID, []string{fix.StudyUID}),
		mustNewElement(tag.StudyDate, []string{fix.StudyDate}),
	})
	records = append(records, []*dicom.Element{
		mustNewElement(tag.OffsetOfTheNextDirectoryRecord, []int{0}),
		mustNewElement(tag.RecordInUseFlag, []int{0xFFFF}),
		mustNewElement(tag.OffsetOfReferencedLowerLevelDirectoryEntity, []int{0}),
		mustNewElement(tag.DirectoryRecordType, []string{"SERIES"}),
		mustNewElement(tag.SeriesInstanceUID, []string{fix.SeriesUID}),
		mustNewElement(tag.Modality, []string{fix.Modality}),
	})
	for _, img := range fix.Images {
		records = append(records, []*dicom.Element{
			mustNewElement(tag.OffsetOfTheNextDirectoryRecord, []int{0}),
			mustNewElement(tag.RecordInUseFlag, []int{0xFFFF}),
			mustNewElement(tag.OffsetOfReferencedLowerLevelDirectoryEntity, []int{0}),
			mustNewElement(tag.DirectoryRecordType, []string{"IMAGE"}),
			mustNewElement(tag.ReferencedFileID, img.PathComponents),
			mustNewElement(tag.ReferencedSOPInstanceUIDInFile, []string{img.SOPInstanceUID}),
		})
	}

	elements := []*dicom.Element{
		mustNewElement(tag.TransferSyntaxUID, []string{"1.2.840.10008.1.2.1"}),
		mustNewElement(tag.MediaStorageSOPClassUID, []string{CatalogSOPClassUID}),
		mustNewElement(tag.MediaStorageSOPInstanceUID, []string{deterministicUID(path)}),
		mustNewElement(tag.FileSetID, []string{fixtureFileSetID(path)}),
		mustNewElement(tag.OffsetOfTheFirstDirectoryRecordOfTheRootDirectoryEntity, []int{0}),
		mustNewElement(tag.OffsetOfTheLastDirectoryRecordOfTheRootDirectoryEntity, []int{0}),
		mustNewElement(tag.FileSetConsistencyFlag, []int{0}),
		mustNewElement(tag.DirectoryRecordSequence, records),
	}

	return writeDatasetToFile(path, dicom.Dataset{Elements: elements})
}

// CatalogSOPClassUID identifies a media storage directory (DICOMDIR) file.
const CatalogSOPClassUID = "1.2.840.10008.1.3.10"

func fixtureFileSetID(path string) string {
	id := strings.ToUpper(filepath.Base(filepath.Dir(path)))
	if len(id) > 16 {
		id = id[:16]
	}
	return id
}

// deterministicUID derives a stable UID from a seed string.
func deterministicUID(seed string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	return fmt.Sprintf("1.2.826.0.1.3680043.8.498.%d", h.Sum64()%1e12)
}

func floatsToDS(vals []float64) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = fmt.Sprintf("%.6f", v)
	}
	return out
}

// mustNewElement creates a new DICOM element, panicking on error.
func mustNewElement(t tag.Tag, value interface{}) *dicom.Element {
	elem, err := dicom.NewElement(t, value)
	if err != nil {
		panic(fmt.Sprintf("failed to create element %v: %v", t, err))
	}
	return elem
}

// writeDatasetToFile writes a DICOM dataset to a file
func writeDatasetToFile(filename string, ds dicom.Dataset, opts ...dicom.WriteOption) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return dicom.Write(f, ds, opts...)
}
