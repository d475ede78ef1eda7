package organize

import (
	internaldicom "github.com/mrsinham/dicomkit/internal/dicom"
	"github.com/mrsinham/dicomkit/internal/scan"
)

// UnknownKey groups entries whose identifying UID is absent. Files missing
// the same UID collapse into one synthetic group, a deliberate but lossy
// policy.
const UnknownKey = "UNKNOWN"

// Instance is one physical file inside a series. Identity is the path.
type Instance struct {
	Path             string
	SOPInstanceUID   string
	InstanceNumber   *int
	ImagePosition    []float64
	ImageOrientation []float64
	SliceLocation    *float64
	Valid            bool
	Metadata         internaldicom.Metadata
}

// Series groups instances sharing a series instance UID.
type Series struct {
	SeriesInstanceUID string
	SeriesNumber      *int
	Description       string
	Modality          string
	Instances         []*Instance
}

// Study groups series sharing a study instance UID.
type Study struct {
	StudyInstanceUID string
	StudyDate        string
	Description      string
	AccessionNumber  string
	Series           []*Series
}

// Patient groups studies by patient ID.
type Patient struct {
	PatientID   string
	PatientName string
	Studies     []*Study
}

// newInstance builds an Instance from a scanned entry.
func newInstance(e scan.Entry) *Instance {
	md := e.Metadata
	return &Instance{
		Path:             e.Path,
		SOPInstanceUID:   md.SOPInstanceUID,
		InstanceNumber:   md.InstanceNumber,
		ImagePosition:    md.ImagePositionPatient,
		ImageOrientation: md.ImageOrientationPatient,
		SliceLocation:    md.SliceLocation,
		Valid:            e.Valid,
		Metadata:         md,
	}
}
