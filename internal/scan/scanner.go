package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	internaldicom "github.com/mrsinham/dicomkit/internal/dicom"
)

// ProgressCallback is invoked once per completed file. It may be called
// concurrently from any worker and must not block.
type ProgressCallback func(current, total int)

// Entry is one scanned file. Valid is false when the file looked like DICOM
// but its metadata could not be extracted; such entries carry empty metadata.
type Entry struct {
	Path     string
	Valid    bool
	Metadata internaldicom.Metadata
}

// Scanner walks directories and collects per-file metadata in parallel.
// One bad file never aborts a scan: non-DICOM files are silently excluded
// and unreadable DICOM files are reported as invalid entries.
type Scanner struct {
	Workers  int // defaults to runtime.NumCPU()
	Progress ProgressCallback
	Logger   zerolog.Logger
	Cache    *Cache
}

// NewScanner returns a Scanner with default parallelism and no logging.
func NewScanner() *Scanner {
	return &Scanner{Workers: runtime.NumCPU(), Logger: zerolog.Nop()}
}

// Scan lists dir (or walks it when recursive) and returns one Entry per
// DICOM file found, sorted by series number then instance number, absent
// values last. It fails only when the directory cannot be listed, or when
// every candidate file failed to open.
func (s *Scanner) Scan(dir string, recursive bool) ([]Entry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &DirectoryError{Dir: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &DirectoryError{Dir: dir, Err: fmt.Errorf("not a directory")}
	}

	paths, err := listFiles(dir, recursive)
	if err != nil {
		return nil, &DirectoryError{Dir: dir, Err: err}
	}
	if len(paths) == 0 {
		return nil, nil
	}

	// Fan out across the worker pool. Results land at the task's original
	// index so directory order survives until the explicit sort below.
	results := make([]*Entry, len(paths))
	var completed atomic.Int64
	var openFailures atomic.Int64

	numWorkers := s.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(paths) {
		numWorkers = len(paths)
	}

	taskChan := make(chan int, len(paths))
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range taskChan {
				results[i] = s.scanOne(paths[i], &openFailures)
				current := completed.Add(1)
				if s.Progress != nil {
					s.Progress(int(current), len(paths))
				}
			}
		}()
	}
	for i := range paths {
		taskChan <- i
	}
	close(taskChan)
	wg.Wait()

	var entries []Entry
	for _, r := range results {
		if r != nil {
			entries = append(entries, *r)
		}
	}
	if len(entries) == 0 && openFailures.Load() > 0 {
		return nil, &DirectoryError{Dir: dir, Err: fmt.Errorf("no readable DICOM files (%d failed to open)", openFailures.Load())}
	}

	SortEntries(entries)
	s.Logger.Info().Str("dir", dir).Int("files", len(paths)).Int("entries", len(entries)).Msg("scan complete")
	return entries, nil
}

// scanOne classifies and loads a single file. A nil result excludes the
// file from the scan.
func (s *Scanner) scanOne(path string, openFailures *atomic.Int64) *Entry {
	if !internaldicom.IsDicomFile(path) {
		s.Logger.Debug().Str("path", path).Msg("not a DICOM file, skipped")
		return nil
	}
	f, err := s.load(path)
	if err != nil {
		openFailures.Add(1)
		s.Logger.Debug().Str("path", path).Err(err).Msg("DICOM file failed to load, marked invalid")
		return &Entry{Path: path, Valid: false}
	}
	return &Entry{Path: path, Valid: true, Metadata: f.Metadata}
}

func (s *Scanner) load(path string) (*internaldicom.File, error) {
	if s.Cache != nil {
		return s.Cache.Load(path)
	}
	return internaldicom.Load(path)
}

func listFiles(dir string, recursive bool) ([]string, error) {
	if !recursive {
		dirEntries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		var paths []string
		for _, de := range dirEntries {
			if de.Type().IsRegular() {
				paths = append(paths, filepath.Join(dir, de.Name()))
			}
		}
		return paths, nil
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// SortEntries orders entries by series number ascending, then instance
// number ascending, absent values after present ones at each tier, with
// path as the final tie breaker.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Metadata, entries[j].Metadata
		if c := compareIntPtr(a.SeriesNumber, b.SeriesNumber); c != 0 {
			return c < 0
		}
		if c := compareIntPtr(a.InstanceNumber, b.InstanceNumber); c != 0 {
			return c < 0
		}
		return entries[i].Path < entries[j].Path
	})
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
