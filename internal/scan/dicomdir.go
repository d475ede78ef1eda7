package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	internaldicom "github.com/mrsinham/dicomkit/internal/dicom"
)

// Catalog record trees come from an external file, so recursion is bounded.
const maxRecordDepth = 16

// catalogFileNames are the spellings probed for in a directory root.
var catalogFileNames = []string{"DICOMDIR", "dicomdir"}

// CatalogEntry is one node of a parsed catalog: the record type
// (PATIENT/STUDY/SERIES/IMAGE), descriptive attributes keyed by name, and
// for IMAGE records the referenced file resolved to a host path.
type CatalogEntry struct {
	Type     string
	Path     string
	Metadata map[string]string
	Children []*CatalogEntry
}

// Walk visits the entry and all descendants depth-first.
func (e *CatalogEntry) Walk(visit func(*CatalogEntry)) {
	visit(e)
	for _, child := range e.Children {
		child.Walk(visit)
	}
}

// catalogMetadataTags is the allowlist of descriptive attributes copied
// into a record's metadata map.
var catalogMetadataTags = []tag.Tag{
	tag.PatientID,
	tag.PatientName,
	tag.StudyInstanceUID,
	tag.StudyDate,
	tag.StudyDescription,
	tag.SeriesInstanceUID,
	tag.SeriesNumber,
	tag.SeriesDescription,
	tag.Modality,
	tag.InstanceNumber,
	tag.ReferencedSOPInstanceUIDInFile,
}

// recordLevels maps record types to their depth in the catalog hierarchy.
var recordLevels = map[string]int{
	"PATIENT": 0,
	"STUDY":   1,
	"SERIES":  2,
	"IMAGE":   3,
}

// IsCatalogFile reports whether path parses as DICOM and declares the
// media storage directory SOP class.
func IsCatalogFile(path string) bool {
	ds, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	if err != nil {
		return false
	}
	elem, err := ds.FindElementByTag(tag.MediaStorageSOPClassUID)
	if err != nil {
		return false
	}
	return firstString(elem) == internaldicom.CatalogSOPClassUID
}

// ParseCatalog reads a DICOMDIR file and rebuilds its record tree. IMAGE
// records get their referenced file ID translated from the catalog's
// backslash delimiter and joined against the catalog's parent directory.
func ParseCatalog(path string) (*CatalogEntry, error) {
	ds, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	if err != nil {
		return nil, &CatalogError{Path: path, Err: err}
	}
	classElem, err := ds.FindElementByTag(tag.MediaStorageSOPClassUID)
	if err != nil || firstString(classElem) != internaldicom.CatalogSOPClassUID {
		return nil, &CatalogError{Path: path, Err: fmt.Errorf("not a media storage directory")}
	}
	seqElem, err := ds.FindElementByTag(tag.DirectoryRecordSequence)
	if err != nil {
		return nil, &CatalogError{Path: path, Err: fmt.Errorf("missing directory record sequence")}
	}
	items, ok := seqElem.Value.GetValue().([]*dicom.SequenceItemValue)
	if !ok {
		return nil, &CatalogError{Path: path, Err: fmt.Errorf("malformed directory record sequence")}
	}

	root := &CatalogEntry{Type: "ROOT", Metadata: map[string]string{}}
	catalogDir := filepath.Dir(path)
	buildRecordTree(root, items, catalogDir, 0)
	return root, nil
}

// buildRecordTree attaches records to their parents. The flat record list
// carries hierarchy through each record's type level, so a stack of the
// most recent entry per level reconstructs the tree; a record nesting its
// own child sequence is recursed into directly.
func buildRecordTree(root *CatalogEntry, items []*dicom.SequenceItemValue, catalogDir string, depth int) {
	if depth >= maxRecordDepth {
		return
	}
	stack := []*CatalogEntry{root}
	for _, item := range items {
		elems, ok := item.GetValue().([]*dicom.Element)
		if !ok {
			continue
		}
		entry := recordEntry(elems, catalogDir)
		if entry == nil {
			continue
		}

		level, known := recordLevels[entry.Type]
		if !known {
			level = len(stack) - 1
		}
		if level+1 < len(stack) {
			stack = stack[:level+1]
		}
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, entry)
		stack = append(stack, entry)

		if nested := findElement(elems, tag.DirectoryRecordSequence); nested != nil {
			if nestedItems, ok := nested.Value.GetValue().([]*dicom.SequenceItemValue); ok {
				buildRecordTree(entry, nestedItems, catalogDir, depth+1)
			}
		}
	}
}

// recordEntry converts one record's element list into a CatalogEntry.
func recordEntry(elems []*dicom.Element, catalogDir string) *CatalogEntry {
	typeElem := findElement(elems, tag.DirectoryRecordType)
	if typeElem == nil {
		return nil
	}
	entry := &CatalogEntry{
		Type:     firstString(typeElem),
		Metadata: map[string]string{},
	}
	for _, t := range catalogMetadataTags {
		elem := findElement(elems, t)
		if elem == nil {
			continue
		}
		if v := firstString(elem); v != "" {
			name := internaldicom.UnknownAlias
			if info, err := tag.Find(t); err == nil {
				name = info.Keyword
			}
			entry.Metadata[name] = v
		}
	}
	if entry.Type == "IMAGE" {
		if ref := findElement(elems, tag.ReferencedFileID); ref != nil {
			entry.Path = resolveReferencedFileID(catalogDir, ref)
		}
	}
	return entry
}

// resolveReferencedFileID translates a referenced file ID into a host path
// under the catalog's directory. The ID uses backslash delimiters whatever
// the host OS; components may arrive pre-split as a multi-value string.
func resolveReferencedFileID(catalogDir string, elem *dicom.Element) string {
	raw, ok := elem.Value.GetValue().([]string)
	if !ok || len(raw) == 0 {
		return ""
	}
	var components []string
	for _, part := range raw {
		for _, c := range strings.Split(part, `\`) {
			c = strings.TrimSpace(c)
			if c != "" {
				components = append(components, c)
			}
		}
	}
	if len(components) == 0 {
		return ""
	}
	return filepath.Join(append([]string{catalogDir}, components...)...)
}

// LoadUnified scans a directory catalog-aware: when a valid DICOMDIR is
// present its IMAGE records drive the load, with each referenced file
// re-opened for authoritative metadata. Without a usable catalog it falls
// back to a plain scan.
func (s *Scanner) LoadUnified(dir string, recursive bool) ([]Entry, error) {
	for _, name := range catalogFileNames {
		catalogPath := filepath.Join(dir, name)
		if _, err := os.Stat(catalogPath); err != nil {
			continue
		}
		if !IsCatalogFile(catalogPath) {
			continue
		}
		root, err := ParseCatalog(catalogPath)
		if err != nil {
			s.Logger.Debug().Str("path", catalogPath).Err(err).Msg("catalog unusable, falling back to scan")
			break
		}
		entries := s.entriesFromCatalog(root)
		if len(entries) > 0 {
			SortEntries(entries)
			s.Logger.Info().Str("dir", dir).Int("entries", len(entries)).Msg("loaded via catalog")
			return entries, nil
		}
		break
	}
	return s.Scan(dir, recursive)
}

// entriesFromCatalog loads every IMAGE record whose resolved path exists.
// Catalog metadata is only a preview; the file itself is authoritative.
func (s *Scanner) entriesFromCatalog(root *CatalogEntry) []Entry {
	var entries []Entry
	root.Walk(func(e *CatalogEntry) {
		if e.Type != "IMAGE" || e.Path == "" {
			return
		}
		if _, err := os.Stat(e.Path); err != nil {
			return
		}
		f, err := s.load(e.Path)
		if err != nil {
			entries = append(entries, Entry{Path: e.Path, Valid: false})
			return
		}
		entries = append(entries, Entry{Path: e.Path, Valid: true, Metadata: f.Metadata})
	})
	return entries
}

func findElement(elems []*dicom.Element, t tag.Tag) *dicom.Element {
	for _, e := range elems {
		if e != nil && e.Tag == t {
			return e
		}
	}
	return nil
}

func firstString(elem *dicom.Element) string {
	vals, ok := elem.Value.GetValue().([]string)
	if !ok || len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}
