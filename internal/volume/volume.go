package volume

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	internaldicom "github.com/mrsinham/dicomkit/internal/dicom"
	"github.com/mrsinham/dicomkit/internal/organize"
	"github.com/mrsinham/dicomkit/internal/scan"
)

var (
	ErrNoSlices             = errors.New("no DICOM files found")
	ErrPixelSpacingNotFound = errors.New("pixel spacing not found")
	ErrSliceSpacingNotFound = errors.New("slice spacing not found")
)

// Volume is a spatially ordered stack of PNG-encoded slices plus the voxel
// geometry needed to interpret it. Immutable once assembled.
type Volume struct {
	Width           int
	Height          int
	Depth           int
	Spacing         [3]float64 // x, y, z in millimetres
	DataType        string     // "unsigned char" or "unsigned short"
	SamplesPerPixel int
	Slices          [][]byte
	Metadata        internaldicom.Metadata
}

// Options tune an assembly run. A nil Logger disables logging.
type Options struct {
	Workers  int
	Progress scan.ProgressCallback
	Logger   *zerolog.Logger
}

func (o Options) logger() zerolog.Logger {
	if o.Logger == nil {
		return zerolog.Nop()
	}
	return *o.Logger
}

// Assemble scans dir (non-recursive), orders the slices anatomically and
// encodes each one to PNG in parallel. Pixel parameters of the first slice
// stand for the whole volume; a heterogeneous series produces a garbage
// volume, not an error. Missing XY or Z spacing is a hard error because
// the geometry would be meaningless without it.
func Assemble(dir string, opts Options) (*Volume, error) {
	scanner := scan.NewScanner()
	scanner.Workers = opts.Workers
	scanner.Logger = opts.logger()
	cache, err := scan.NewCache()
	if err != nil {
		return nil, err
	}
	scanner.Cache = cache

	entries, err := scanner.Scan(dir, false)
	if err != nil {
		return nil, err
	}
	var valid []scan.Entry
	for _, e := range entries {
		if e.Valid {
			valid = append(valid, e)
		}
	}
	if len(valid) == 0 {
		return nil, ErrNoSlices
	}

	organize.SortEntriesByPosition(valid)
	first := valid[0].Metadata

	xy, err := xySpacing(first)
	if err != nil {
		return nil, err
	}
	z, err := zSpacing(valid)
	if err != nil {
		return nil, err
	}

	vol := &Volume{
		Width:           intOr(first.Columns, 0),
		Height:          intOr(first.Rows, 0),
		Depth:           len(valid),
		Spacing:         [3]float64{xy[0], xy[1], z},
		DataType:        dataType(first),
		SamplesPerPixel: intOr(first.SamplesPerPixel, 1),
		Metadata:        first,
	}

	slices, err := encodeSlices(valid, opts)
	if err != nil {
		return nil, err
	}
	vol.Slices = slices
	logger := opts.logger()
	logger.Info().Str("dir", dir).Int("depth", vol.Depth).Msg("volume assembled")
	return vol, nil
}

// encodeSlices extracts every slice's PNG in a worker-pool fan-out.
// Results land at each slice's sorted index; a progress callback fires
// once per completed slice from whichever worker finished it.
func encodeSlices(entries []scan.Entry, opts Options) ([][]byte, error) {
	results := make([][]byte, len(entries))
	errs := make([]error, len(entries))
	var completed atomic.Int64

	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(entries) {
		numWorkers = len(entries)
	}

	taskChan := make(chan int, len(entries))
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range taskChan {
				results[i], errs[i] = internaldicom.PNGBytes(entries[i].Path)
				current := completed.Add(1)
				if opts.Progress != nil {
					opts.Progress(int(current), len(entries))
				}
			}
		}()
	}
	for i := range entries {
		taskChan <- i
	}
	close(taskChan)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("slice %d (%s): %w", i, entries[i].Path, err)
		}
	}
	return results, nil
}

// xySpacing reads the first slice's pixel spacing. DICOM stores it row
// first, so the x spacing is the second component.
func xySpacing(md internaldicom.Metadata) ([2]float64, error) {
	ps := md.PixelSpacing
	switch {
	case len(ps) >= 2:
		return [2]float64{ps[1], ps[0]}, nil
	case len(ps) == 1:
		return [2]float64{ps[0], ps[0]}, nil
	default:
		return [2]float64{}, ErrPixelSpacingNotFound
	}
}

// zSpacing derives the inter-slice distance: the closest pair of 3-D
// positions wins, then the difference of two slice locations, then the
// declared slice thickness.
func zSpacing(entries []scan.Entry) (float64, error) {
	var positions [][]float64
	for _, e := range entries {
		if p := e.Metadata.ImagePositionPatient; len(p) >= 3 {
			positions = append(positions, p)
		}
	}
	if len(positions) >= 2 {
		best := math.Inf(1)
		for i := 1; i < len(positions); i++ {
			if d := distance3(positions[i-1], positions[i]); d > 0 && d < best {
				best = d
			}
		}
		if !math.IsInf(best, 1) {
			return best, nil
		}
	}

	var locations []float64
	for _, e := range entries {
		if l := e.Metadata.SliceLocation; l != nil {
			locations = append(locations, *l)
		}
	}
	if len(locations) >= 2 {
		if d := math.Abs(locations[1] - locations[0]); d > 0 {
			return d, nil
		}
	}

	for _, e := range entries {
		if t := e.Metadata.SliceThickness; t != nil && *t > 0 {
			return *t, nil
		}
	}
	return 0, ErrSliceSpacingNotFound
}

func distance3(a, b []float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// dataType is an output hint only; the decoder may have produced a wider
// bitmap.
func dataType(md internaldicom.Metadata) string {
	if intOr(md.BitsAllocated, 16) <= 8 {
		return "unsigned char"
	}
	return "unsigned short"
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
