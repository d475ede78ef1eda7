// Package util provides shared helpers for DICOM attribute lookup.
package util

import (
	"fmt"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// TagScope is the hierarchy level at which an attribute lives.
type TagScope int

const (
	// ScopePatient marks attributes shared by all of a patient's files.
	ScopePatient TagScope = iota
	// ScopeStudy marks attributes consistent within a study.
	ScopeStudy
	// ScopeSeries marks attributes consistent within a series.
	ScopeSeries
	// ScopeInstance marks attributes that vary per file.
	ScopeInstance
)

// String returns the string representation of a TagScope.
func (s TagScope) String() string {
	switch s {
	case ScopePatient:
		return "Patient"
	case ScopeStudy:
		return "Study"
	case ScopeSeries:
		return "Series"
	case ScopeInstance:
		return "Instance"
	default:
		return "Unknown"
	}
}

// TagInfo describes one well-known attribute: its canonical name, tag and
// hierarchy scope.
type TagInfo struct {
	Name  string
	Tag   tag.Tag
	Scope TagScope
}

// tagRegistry maps lowercase attribute names to their TagInfo. It covers
// the attributes the toolkit extracts into typed metadata.
var tagRegistry = map[string]TagInfo{
	// Patient level
	"patientname": {Name: "PatientName", Tag: tag.PatientName, Scope: ScopePatient},
	"patientid":   {Name: "PatientID", Tag: tag.PatientID, Scope: ScopePatient},

	// Study level
	"studyinstanceuid": {Name: "StudyInstanceUID", Tag: tag.StudyInstanceUID, Scope: ScopeStudy},
	"studydate":        {Name: "StudyDate", Tag: tag.StudyDate, Scope: ScopeStudy},
	"studydescription": {Name: "StudyDescription", Tag: tag.StudyDescription, Scope: ScopeStudy},
	"accessionnumber":  {Name: "AccessionNumber", Tag: tag.AccessionNumber, Scope: ScopeStudy},

	// Series level
	"seriesinstanceuid":    {Name: "SeriesInstanceUID", Tag: tag.SeriesInstanceUID, Scope: ScopeSeries},
	"seriesdescription":    {Name: "SeriesDescription", Tag: tag.SeriesDescription, Scope: ScopeSeries},
	"seriesnumber":         {Name: "SeriesNumber", Tag: tag.SeriesNumber, Scope: ScopeSeries},
	"modality":             {Name: "Modality", Tag: tag.Modality, Scope: ScopeSeries},
	"slicethickness":       {Name: "SliceThickness", Tag: tag.SliceThickness, Scope: ScopeSeries},
	"spacingbetweenslices": {Name: "SpacingBetweenSlices", Tag: tag.SpacingBetweenSlices, Scope: ScopeSeries},
	"pixelspacing":         {Name: "PixelSpacing", Tag: tag.PixelSpacing, Scope: ScopeSeries},

	// Instance level
	"sopinstanceuid":          {Name: "SOPInstanceUID", Tag: tag.SOPInstanceUID, Scope: ScopeInstance},
	"instancenumber":          {Name: "InstanceNumber", Tag: tag.InstanceNumber, Scope: ScopeInstance},
	"imagepositionpatient":    {Name: "ImagePositionPatient", Tag: tag.ImagePositionPatient, Scope: ScopeInstance},
	"imageorientationpatient": {Name: "ImageOrientationPatient", Tag: tag.ImageOrientationPatient, Scope: ScopeInstance},
	"slicelocation":           {Name: "SliceLocation", Tag: tag.SliceLocation, Scope: ScopeInstance},
	"rows":                    {Name: "Rows", Tag: tag.Rows, Scope: ScopeInstance},
	"columns":                 {Name: "Columns", Tag: tag.Columns, Scope: ScopeInstance},
	"bitsallocated":           {Name: "BitsAllocated", Tag: tag.BitsAllocated, Scope: ScopeInstance},
	"samplesperpixel":         {Name: "SamplesPerPixel", Tag: tag.SamplesPerPixel, Scope: ScopeInstance},
	"numberofframes":          {Name: "NumberOfFrames", Tag: tag.NumberOfFrames, Scope: ScopeInstance},
}

// GetTagByName resolves an attribute name to its TagInfo. The lookup is
// case-insensitive; names outside the curated registry fall back to the
// library's full dictionary (as instance-scoped). An unknown name yields
// an error carrying the closest registry name as a suggestion.
func GetTagByName(name string) (TagInfo, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return TagInfo{}, fmt.Errorf("empty tag name")
	}

	if info, ok := tagRegistry[normalized]; ok {
		return info, nil
	}

	if dictInfo, err := tag.FindByName(strings.TrimSpace(name)); err == nil {
		return TagInfo{Name: dictInfo.Name, Tag: dictInfo.Tag, Scope: ScopeInstance}, nil
	}

	if suggestion := findClosestTagName(normalized); suggestion != "" {
		return TagInfo{}, fmt.Errorf("unknown tag %q, did you mean %q?", name, suggestion)
	}
	return TagInfo{}, fmt.Errorf("unknown tag %q", name)
}

// findClosestTagName finds the closest registry name by Levenshtein
// distance. Returns empty string when nothing is within distance 5.
func findClosestTagName(input string) string {
	const maxDistance = 5
	bestDistance := maxDistance + 1
	var bestMatch string

	for key, info := range tagRegistry {
		distance := levenshteinDistance(input, key)
		if distance < bestDistance {
			bestDistance = distance
			bestMatch = info.Name
		}
	}

	if bestDistance <= maxDistance {
		return bestMatch
	}
	return ""
}

// levenshteinDistance calculates the minimum number of single-character
// edits required to change one string into the other.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
	}
	for i := 0; i <= len(a); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}
	return matrix[len(a)][len(b)]
}
