package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	internaldicom "github.com/mrsinham/dicomkit/internal/dicom"
	"github.com/mrsinham/dicomkit/internal/organize"
	"github.com/mrsinham/dicomkit/internal/scan"
	"github.com/mrsinham/dicomkit/internal/util"
	"github.com/mrsinham/dicomkit/internal/volume"
)

const version = "0.1.0"

func main() {
	opts := InitOptions()
	remaining, err := opts.opt.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if opts.Version {
		fmt.Printf("dicomkit %s\n", version)
		return
	}
	if opts.Help || len(remaining) < 2 {
		fmt.Print(opts.usage())
		if !opts.Help {
			os.Exit(1)
		}
		return
	}

	logger := newLogger(opts.Debug)
	command, path := remaining[0], remaining[1]

	switch command {
	case "info":
		err = runInfo(path)
	case "tags":
		err = runTags(path, opts)
	case "png":
		err = runPNG(path, opts)
	case "scan":
		err = runScan(path, opts, logger)
	case "organize":
		err = runOrganize(path, opts, logger)
	case "study":
		err = runStudy(path, opts, logger)
	case "volume":
		err = runVolume(path, opts, logger)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n%s", command, opts.usage())
		os.Exit(1)
	}
	if err != nil {
		logger.Error().Err(err).Msg(command + " failed")
		os.Exit(1)
	}
}

func newLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func runInfo(path string) error {
	f, err := internaldicom.Load(path)
	if err != nil {
		return err
	}
	st, err := os.Stat(path)
	if err != nil {
		return err
	}

	fmt.Printf("File:     %s (%s)\n", path, humanize.Bytes(uint64(st.Size())))
	printField := func(label, value string) {
		if value != "" {
			fmt.Printf("%-18s %s\n", label+":", value)
		}
	}
	md := f.Metadata
	printField("Patient", md.PatientName)
	printField("Patient ID", md.PatientID)
	printField("Study UID", md.StudyInstanceUID)
	printField("Study date", md.StudyDate)
	printField("Study", md.StudyDescription)
	printField("Series UID", md.SeriesInstanceUID)
	printField("Series", md.SeriesDescription)
	printField("Modality", md.Modality)
	if md.SeriesNumber != nil {
		fmt.Printf("%-18s %d\n", "Series number:", *md.SeriesNumber)
	}
	if md.InstanceNumber != nil {
		fmt.Printf("%-18s %d\n", "Instance number:", *md.InstanceNumber)
	}
	if md.Rows != nil && md.Columns != nil {
		fmt.Printf("%-18s %dx%d\n", "Dimensions:", *md.Columns, *md.Rows)
	}
	if len(md.PixelSpacing) >= 2 {
		fmt.Printf("%-18s %g\\%g mm\n", "Pixel spacing:", md.PixelSpacing[0], md.PixelSpacing[1])
	}
	if md.SliceLocation != nil {
		fmt.Printf("%-18s %g\n", "Slice location:", *md.SliceLocation)
	}
	return nil
}

func runTags(path string, opts *Options) error {
	f, err := internaldicom.Load(path)
	if err != nil {
		return err
	}

	if opts.TagName != "" {
		info, err := util.GetTagByName(opts.TagName)
		if err != nil {
			return err
		}
		elem, err := f.ElementByName(info.Name)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s [%s] %s\n", elem.Tag, elem.Alias, elem.VR, elem.Value)
		return nil
	}

	keys := make([]string, 0, len(f.Elements))
	for k := range f.Elements {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		elem := f.Elements[k]
		fmt.Printf("%s %-32s [%s] %s\n", elem.Tag, elem.Alias, elem.VR, elem.Value)
	}
	return nil
}

func runPNG(path string, opts *Options) error {
	out := opts.Output
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".png"
	}

	var data []byte
	if opts.Thumb > 0 {
		img, err := internaldicom.ExtractImage(path)
		if err != nil {
			return err
		}
		data, err = internaldicom.EncodePNG(internaldicom.Thumbnail(img.Frames[0], opts.Thumb))
		if err != nil {
			return err
		}
	} else {
		var err error
		data, err = internaldicom.PNGBytes(path)
		if err != nil {
			return err
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%s)\n", out, humanize.Bytes(uint64(len(data))))
	return nil
}

func newScanner(opts *Options, logger zerolog.Logger) *scan.Scanner {
	s := scan.NewScanner()
	s.Workers = opts.Workers
	s.Logger = logger
	if !opts.Quiet {
		s.Progress = barProgress()
	}
	return s
}

// barProgress adapts a progress bar to the concurrent scan callback. The
// total is only known on the first call, so the bar is created there.
func barProgress() scan.ProgressCallback {
	var mu sync.Mutex
	var bar *progressbar.ProgressBar
	return func(current, total int) {
		mu.Lock()
		defer mu.Unlock()
		if bar == nil {
			bar = progressbar.Default(int64(total))
		}
		_ = bar.Set(current)
	}
}

func runScan(dir string, opts *Options, logger zerolog.Logger) error {
	s := newScanner(opts, logger)

	var entries []scan.Entry
	var err error
	if opts.Unified {
		entries, err = s.LoadUnified(dir, opts.Recursive)
	} else {
		entries, err = s.Scan(dir, opts.Recursive)
	}
	if err != nil {
		return err
	}

	for _, e := range entries {
		status := " "
		if !e.Valid {
			status = "!"
		}
		md := e.Metadata
		fmt.Printf("%s %-40s series=%-4s instance=%-4s %s\n",
			status, e.Path, intLabel(md.SeriesNumber), intLabel(md.InstanceNumber), md.Modality)
	}
	fmt.Printf("%d entries\n", len(entries))
	return nil
}

func runOrganize(dir string, opts *Options, logger zerolog.Logger) error {
	s := newScanner(opts, logger)
	entries, err := s.Scan(dir, opts.Recursive)
	if err != nil {
		return err
	}

	for _, patient := range organize.Organize(entries) {
		fmt.Printf("Patient %s (%s)\n", patient.PatientName, patient.PatientID)
		for _, study := range patient.Studies {
			fmt.Printf("  Study %s %s %s\n", study.StudyInstanceUID, study.StudyDate, study.Description)
			for _, series := range study.Series {
				fmt.Printf("    Series %s [%s] %s (%d instances)\n",
					series.SeriesInstanceUID, series.Modality, series.Description, len(series.Instances))
				for _, in := range series.Instances {
					fmt.Printf("      %s instance=%s\n", in.Path, intLabel(in.InstanceNumber))
				}
			}
		}
	}
	return nil
}

func runStudy(dir string, opts *Options, logger zerolog.Logger) error {
	loader, err := organize.NewStudyLoader()
	if err != nil {
		return err
	}
	loader.Scanner.Workers = opts.Workers
	loader.Scanner.Logger = logger
	loader.Logger = logger

	study, err := loader.LoadCompleteStudy(dir, opts.Recursive)
	if err != nil {
		return err
	}

	fmt.Printf("Study %s %s %s\n", study.StudyInstanceUID, study.StudyDate, study.Description)
	for _, series := range study.Series {
		fmt.Printf("  Series %s [%s] %s (%d instances)\n",
			series.SeriesInstanceUID, series.Modality, series.Description, len(series.Instances))
	}
	return nil
}

func runVolume(dir string, opts *Options, logger zerolog.Logger) error {
	outDir := opts.Output
	if outDir == "" {
		outDir = dir + "_volume"
	}

	volOpts := volume.Options{Workers: opts.Workers, Logger: &logger}
	if !opts.Quiet {
		volOpts.Progress = barProgress()
	}
	vol, err := volume.Assemble(dir, volOpts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	total := 0
	for i, slice := range vol.Slices {
		name := filepath.Join(outDir, fmt.Sprintf("slice_%03d.png", i))
		if err := os.WriteFile(name, slice, 0o644); err != nil {
			return err
		}
		total += len(slice)
	}

	fmt.Printf("Volume %dx%dx%d, spacing %g/%g/%g mm, %s\n",
		vol.Width, vol.Height, vol.Depth,
		vol.Spacing[0], vol.Spacing[1], vol.Spacing[2], vol.DataType)
	fmt.Printf("Wrote %d slices to %s (%s)\n", len(vol.Slices), outDir, humanize.Bytes(uint64(total)))
	return nil
}

func intLabel(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", v)
}
