package dicom

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

const (
	// UnknownAlias is used when a tag has no entry in the dictionary.
	UnknownAlias = "«unknown attribute»"
	// PixelDataPlaceholder stands in for bulk pixel bytes in text output.
	PixelDataPlaceholder = "«pixel data»"
)

// Element is one attribute extracted from a dataset: the tag rendered as
// eight uppercase hex digits, its dictionary alias, the two-letter VR code
// and the value rendered to text.
type Element struct {
	Tag   string
	Alias string
	VR    string
	Value string
}

// Dictionary resolves a tag to its human-readable name.
type Dictionary interface {
	NameFor(t tag.Tag) (string, bool)
}

type standardDictionary struct{}

func (standardDictionary) NameFor(t tag.Tag) (string, bool) {
	info, err := tag.Find(t)
	if err != nil || info.Keyword == "" {
		return "", false
	}
	return info.Keyword, true
}

// StandardDictionary returns the dictionary backed by the library's tag table.
func StandardDictionary() Dictionary { return standardDictionary{} }

// Extractor converts parsed datasets into tag-keyed element maps.
type Extractor struct {
	dict Dictionary
}

// NewExtractor builds an Extractor. A nil dictionary falls back to the
// standard one.
func NewExtractor(dict Dictionary) *Extractor {
	if dict == nil {
		dict = standardDictionary{}
	}
	return &Extractor{dict: dict}
}

// Extract walks every primitive element of the dataset and renders it to an
// Element record keyed by its hex tag. Sequence containers are skipped.
// The first unrenderable value aborts the extraction with a ParseError.
func (e *Extractor) Extract(ds dicom.Dataset) (map[string]Element, error) {
	out := make(map[string]Element, len(ds.Elements))
	for _, elem := range ds.Elements {
		if elem == nil || elem.Value == nil {
			continue
		}
		switch elem.Value.ValueType() {
		case dicom.Sequences, dicom.SequenceItem:
			continue
		}
		key := TagKey(elem.Tag)
		alias, ok := e.dict.NameFor(elem.Tag)
		if !ok {
			alias = UnknownAlias
		}
		value, err := renderValue(elem)
		if err != nil {
			return nil, &ParseError{Tag: key, Err: err}
		}
		out[key] = Element{
			Tag:   key,
			Alias: alias,
			VR:    elem.RawValueRepresentation,
			Value: value,
		}
	}
	return out, nil
}

// TagKey renders a tag as zero-padded uppercase hex, group then element.
func TagKey(t tag.Tag) string {
	return fmt.Sprintf("%04X%04X", t.Group, t.Element)
}

// renderValue turns an element value into its textual form. Multi-valued
// attributes are joined with the DICOM value delimiter. Pixel data is never
// materialized as text.
func renderValue(elem *dicom.Element) (string, error) {
	if elem.Tag == tag.PixelData {
		return PixelDataPlaceholder, nil
	}
	switch elem.Value.ValueType() {
	case dicom.Strings:
		return strings.Join(elem.Value.GetValue().([]string), `\`), nil
	case dicom.Ints:
		ints := elem.Value.GetValue().([]int)
		parts := make([]string, len(ints))
		for i, v := range ints {
			parts[i] = strconv.Itoa(v)
		}
		return strings.Join(parts, `\`), nil
	case dicom.Floats:
		floats := elem.Value.GetValue().([]float64)
		parts := make([]string, len(floats))
		for i, v := range floats {
			parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		return strings.Join(parts, `\`), nil
	case dicom.Bytes:
		return hex.EncodeToString(elem.Value.GetValue().([]byte)), nil
	case dicom.PixelData:
		return PixelDataPlaceholder, nil
	default:
		return "", fmt.Errorf("unsupported value type %d", elem.Value.ValueType())
	}
}
