package dicom

import (
	"fmt"
	"image"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// File is the result of loading one DICOM file: its best-effort metadata,
// the full tag list, and optionally its PNG-encoded frames. PixelErr records
// a pixel decode failure on the degraded metadata-only path.
type File struct {
	Path     string
	Metadata Metadata
	Elements map[string]Element
	Frames   [][]byte
	PixelErr error
}

// MultiFrame reports whether the file declares more than one frame.
func (f *File) MultiFrame() bool {
	return f.Metadata.NumberOfFrames != nil && *f.Metadata.NumberOfFrames > 1
}

// ElementByName returns the element for a dictionary attribute name, e.g.
// "PatientName". The lookup accepts any casing known to the registry.
func (f *File) ElementByName(name string) (Element, error) {
	info, err := tag.FindByName(name)
	if err != nil {
		return Element{}, fmt.Errorf("unknown attribute %q: %w", name, err)
	}
	elem, ok := f.Elements[TagKey(info.Tag)]
	if !ok {
		return Element{}, fmt.Errorf("attribute %q not present in %s", name, f.Path)
	}
	return elem, nil
}

// Load opens a DICOM file and extracts metadata and the full tag list,
// skipping bulk pixel data. Fails with an OpenError when the file is not
// valid DICOM.
func Load(path string) (*File, error) {
	ds, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	return fileFromDataset(path, ds)
}

// LoadWithPixels is Load plus frame decoding: every frame is decoded and
// PNG-encoded. A decode failure degrades to a metadata-only result with
// PixelErr set rather than failing the load.
func LoadWithPixels(path string) (*File, error) {
	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	f, err := fileFromDataset(path, ds)
	if err != nil {
		return nil, err
	}
	frames, err := encodeFrames(ds)
	if err != nil {
		f.PixelErr = &DecodeError{Path: path, Err: err}
		return f, nil
	}
	f.Frames = frames
	return f, nil
}

// IsDicomFile reports whether the file opens and validates as DICOM.
func IsDicomFile(path string) bool {
	_, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	return err == nil
}

func fileFromDataset(path string, ds dicom.Dataset) (*File, error) {
	extractor := NewExtractor(nil)
	elements, err := extractor.Extract(ds)
	if err != nil {
		return nil, err
	}
	return &File{
		Path:     path,
		Metadata: MapMetadata(elements),
		Elements: elements,
	}, nil
}

func encodeFrames(ds dicom.Dataset) ([][]byte, error) {
	elem, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, fmt.Errorf("no pixel data element: %w", err)
	}
	info, ok := elem.Value.GetValue().(dicom.PixelDataInfo)
	if !ok {
		return nil, fmt.Errorf("unexpected pixel data value type")
	}
	if info.IntentionallySkipped || len(info.Frames) == 0 {
		return nil, fmt.Errorf("no decodable frames")
	}
	out := make([][]byte, 0, len(info.Frames))
	for i, fr := range info.Frames {
		png, err := FramePNG(fr)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		out = append(out, png)
	}
	return out, nil
}

// Image is the raw decoded form of a file's pixel data together with the
// parameters needed to interpret it.
type Image struct {
	Width                     int
	Height                    int
	BitsAllocated             int
	BitsStored                int
	PixelRepresentation       int
	PhotometricInterpretation string
	SamplesPerPixel           int
	Frames                    []image.Image
}

// ExtractImage decodes a file's pixel data into bitmaps plus the pixel
// module parameters. Missing interpretation defaults to MONOCHROME2.
func ExtractImage(path string) (*Image, error) {
	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	extractor := NewExtractor(nil)
	elements, err := extractor.Extract(ds)
	if err != nil {
		return nil, err
	}
	md := MapMetadata(elements)

	elem, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("no pixel data element: %w", err)}
	}
	info, ok := elem.Value.GetValue().(dicom.PixelDataInfo)
	if !ok || len(info.Frames) == 0 {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("no decodable frames")}
	}

	img := &Image{
		Width:                     intOr(md.Columns, 0),
		Height:                    intOr(md.Rows, 0),
		BitsAllocated:             intOr(md.BitsAllocated, 16),
		BitsStored:                intOr(md.BitsStored, intOr(md.BitsAllocated, 16)),
		SamplesPerPixel:           intOr(md.SamplesPerPixel, 1),
		PhotometricInterpretation: "MONOCHROME2",
	}
	if pr := intAt(elements, tag.PixelRepresentation); pr != nil {
		img.PixelRepresentation = *pr
	}
	if pi := stringAt(elements, tag.PhotometricInterpretation); pi != "" {
		img.PhotometricInterpretation = pi
	}
	for i, fr := range info.Frames {
		bitmap, err := fr.GetImage()
		if err != nil {
			return nil, &DecodeError{Path: path, Err: fmt.Errorf("frame %d: %w", i, err)}
		}
		img.Frames = append(img.Frames, bitmap)
	}
	return img, nil
}

// PNGBytes returns the first frame of the file as encoded PNG.
func PNGBytes(path string) ([]byte, error) {
	f, err := LoadWithPixels(path)
	if err != nil {
		return nil, err
	}
	if f.PixelErr != nil {
		return nil, f.PixelErr
	}
	if len(f.Frames) == 0 {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("no frames")}
	}
	return f.Frames[0], nil
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
