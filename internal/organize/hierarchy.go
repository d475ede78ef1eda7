package organize

import (
	"sort"

	"github.com/mrsinham/dicomkit/internal/scan"
)

// Organize groups scanned entries into a Patient→Study→Series→Instance
// tree. Invalid entries are skipped. Grouping keys fall back to the
// UNKNOWN sentinel when absent. Non-key fields are first-writer-wins:
// whichever instance creates a group names it; later instances never
// re-merge (use a StudyLoader to backfill). Every level comes back sorted.
func Organize(entries []scan.Entry) []*Patient {
	var patients []*Patient
	patientIndex := map[string]*Patient{}
	studyIndex := map[*Patient]map[string]*Study{}
	seriesIndex := map[*Study]map[string]*Series{}

	for _, e := range entries {
		if !e.Valid {
			continue
		}
		md := e.Metadata

		patientKey := orUnknown(md.PatientID)
		patient, ok := patientIndex[patientKey]
		if !ok {
			patient = &Patient{PatientID: patientKey, PatientName: md.PatientName}
			patientIndex[patientKey] = patient
			studyIndex[patient] = map[string]*Study{}
			patients = append(patients, patient)
		}

		studyKey := orUnknown(md.StudyInstanceUID)
		study, ok := studyIndex[patient][studyKey]
		if !ok {
			study = &Study{
				StudyInstanceUID: studyKey,
				StudyDate:        md.StudyDate,
				Description:      md.StudyDescription,
				AccessionNumber:  md.AccessionNumber,
			}
			studyIndex[patient][studyKey] = study
			seriesIndex[study] = map[string]*Series{}
			patient.Studies = append(patient.Studies, study)
		}

		seriesKey := orUnknown(md.SeriesInstanceUID)
		series, ok := seriesIndex[study][seriesKey]
		if !ok {
			series = &Series{
				SeriesInstanceUID: seriesKey,
				SeriesNumber:      md.SeriesNumber,
				Description:       md.SeriesDescription,
				Modality:          md.Modality,
			}
			seriesIndex[study][seriesKey] = series
			study.Series = append(study.Series, series)
		}

		series.Instances = append(series.Instances, newInstance(e))
	}

	sortHierarchy(patients)
	return patients
}

// sortHierarchy applies the deterministic order at every level: patients
// by name, studies newest first (undated studies last), series by number
// with unnumbered series last, instances spatially.
func sortHierarchy(patients []*Patient) {
	sort.SliceStable(patients, func(i, j int) bool {
		return patients[i].PatientName < patients[j].PatientName
	})
	for _, p := range patients {
		sort.SliceStable(p.Studies, func(i, j int) bool {
			return p.Studies[i].StudyDate > p.Studies[j].StudyDate
		})
		for _, st := range p.Studies {
			sort.SliceStable(st.Series, func(i, j int) bool {
				return compareIntPtr(st.Series[i].SeriesNumber, st.Series[j].SeriesNumber) < 0
			})
			for _, se := range st.Series {
				SortInstances(se.Instances)
			}
		}
	}
}

func orUnknown(s string) string {
	if s == "" {
		return UnknownKey
	}
	return s
}

// compareIntPtr orders present values ascending and nils last.
func compareIntPtr(a, b *int) int {
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
