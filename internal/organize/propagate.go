package organize

import (
	"errors"

	"github.com/rs/zerolog"

	internaldicom "github.com/mrsinham/dicomkit/internal/dicom"
	"github.com/mrsinham/dicomkit/internal/scan"
)

var (
	ErrNoValidFiles    = errors.New("no valid DICOM files found")
	ErrNoValidPatients = errors.New("no valid patients found")
	ErrNoValidStudies  = errors.New("no valid studies found")
)

// StudyLoader normalizes an incomplete directory into one coherent study
// by propagating fields collected from sibling instances. Directories are
// assumed single-study; extra studies are silently discarded.
type StudyLoader struct {
	Scanner *scan.Scanner
	Logger  zerolog.Logger
}

// NewStudyLoader wires a loader with a cache-backed scanner, so the
// repeated per-instance opens of the propagation pass hit memory instead
// of disk.
func NewStudyLoader() (*StudyLoader, error) {
	cache, err := scan.NewCache()
	if err != nil {
		return nil, err
	}
	s := scan.NewScanner()
	s.Cache = cache
	return &StudyLoader{Scanner: s, Logger: zerolog.Nop()}, nil
}

// studyCommons are the study-level fields inherited by instances.
type studyCommons struct {
	patientName string
	patientID   string
}

// seriesCommons are the series-level fields inherited by instances.
type seriesCommons struct {
	modality             string
	description          string
	seriesUID            string
	seriesNumber         *int
	sliceThickness       *float64
	spacingBetweenSlices *float64
	pixelSpacing         []float64
}

// LoadCompleteStudy scans a directory, organizes it, takes the first
// patient's first study and backfills every absent instance and series
// field from values its siblings carry. Present values are never
// overwritten.
func (l *StudyLoader) LoadCompleteStudy(dir string, recursive bool) (*Study, error) {
	entries, err := l.Scanner.Scan(dir, recursive)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoValidFiles
	}

	patients := Organize(entries)
	if len(patients) == 0 {
		return nil, ErrNoValidPatients
	}
	patient := patients[0]
	if len(patient.Studies) == 0 {
		return nil, ErrNoValidStudies
	}
	study := patient.Studies[0]
	if len(patients) > 1 || len(patient.Studies) > 1 {
		l.Logger.Warn().Str("dir", dir).Msg("multiple patients or studies found, keeping the first study only")
	}

	commons := l.collectStudyCommons(study)
	if patient.PatientName == "" {
		patient.PatientName = commons.patientName
	}
	if patient.PatientID == "" || patient.PatientID == UnknownKey {
		if commons.patientID != "" {
			patient.PatientID = commons.patientID
		}
	}

	for _, series := range study.Series {
		sc := l.collectSeriesCommons(series)
		fillSeries(series, sc)
		for _, instance := range series.Instances {
			fillInstance(instance, commons, sc)
		}
	}
	return study, nil
}

// collectStudyCommons walks instance files in order until both patient
// fields are found.
func (l *StudyLoader) collectStudyCommons(study *Study) studyCommons {
	var c studyCommons
	for _, series := range study.Series {
		for _, instance := range series.Instances {
			md := l.metadataFor(instance)
			if c.patientName == "" {
				c.patientName = md.PatientName
			}
			if c.patientID == "" {
				c.patientID = md.PatientID
			}
			if c.patientName != "" && c.patientID != "" {
				return c
			}
		}
	}
	return c
}

// collectSeriesCommons walks a series's instance files, short-circuiting
// once description, modality and number are all known.
func (l *StudyLoader) collectSeriesCommons(series *Series) seriesCommons {
	var c seriesCommons
	for _, instance := range series.Instances {
		md := l.metadataFor(instance)
		if c.modality == "" {
			c.modality = md.Modality
		}
		if c.description == "" {
			c.description = md.SeriesDescription
		}
		if c.seriesUID == "" {
			c.seriesUID = md.SeriesInstanceUID
		}
		if c.seriesNumber == nil {
			c.seriesNumber = md.SeriesNumber
		}
		if c.sliceThickness == nil {
			c.sliceThickness = md.SliceThickness
		}
		if c.spacingBetweenSlices == nil {
			c.spacingBetweenSlices = md.SpacingBetweenSlices
		}
		if c.pixelSpacing == nil {
			c.pixelSpacing = md.PixelSpacing
		}
		if c.description != "" && c.modality != "" && c.seriesNumber != nil {
			break
		}
	}
	return c
}

// metadataFor re-reads an instance's file, falling back to the metadata
// captured at scan time when the file has become unreadable.
func (l *StudyLoader) metadataFor(instance *Instance) internaldicom.Metadata {
	if l.Scanner.Cache != nil {
		if f, err := l.Scanner.Cache.Load(instance.Path); err == nil {
			return f.Metadata
		}
	}
	return instance.Metadata
}

func fillSeries(series *Series, c seriesCommons) {
	if series.Modality == "" {
		series.Modality = c.modality
	}
	if series.Description == "" {
		series.Description = c.description
	}
	if series.SeriesNumber == nil {
		series.SeriesNumber = c.seriesNumber
	}
}

// fillInstance writes commons into the instance's absent metadata fields
// only. A value the file carried always wins over an inherited one.
func fillInstance(instance *Instance, sc studyCommons, c seriesCommons) {
	md := &instance.Metadata
	if md.PatientName == "" {
		md.PatientName = sc.patientName
	}
	if md.PatientID == "" {
		md.PatientID = sc.patientID
	}
	if md.Modality == "" {
		md.Modality = c.modality
	}
	if md.SeriesDescription == "" {
		md.SeriesDescription = c.description
	}
	if md.SeriesInstanceUID == "" {
		md.SeriesInstanceUID = c.seriesUID
	}
	if md.SeriesNumber == nil {
		md.SeriesNumber = c.seriesNumber
	}
	if md.SliceThickness == nil {
		md.SliceThickness = c.sliceThickness
	}
	if md.SpacingBetweenSlices == nil {
		md.SpacingBetweenSlices = c.spacingBetweenSlices
	}
	if md.PixelSpacing == nil {
		md.PixelSpacing = c.pixelSpacing
	}
}
