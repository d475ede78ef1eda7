package main

import (
	"github.com/DavidGamba/go-getoptions"
)

// Options command line parameters
type Options struct {
	Recursive bool
	Unified   bool
	Workers   int
	Output    string
	TagName   string
	Thumb     int
	Quiet     bool
	Debug     bool
	Help      bool
	Version   bool

	opt *getoptions.GetOpt
}

func InitOptions() *Options {
	opt := &Options{
		opt: getoptions.New(),
	}

	opt.opt.BoolVar(&opt.Help, "help", false, opt.opt.Alias("h"),
		opt.opt.Description("show help information"))
	opt.opt.BoolVar(&opt.Version, "version", false, opt.opt.Alias("v"),
		opt.opt.Description("show version information"))
	opt.opt.BoolVar(&opt.Debug, "debug", false,
		opt.opt.Description("show debug output"))
	opt.opt.BoolVar(&opt.Quiet, "quiet", false, opt.opt.Alias("q"),
		opt.opt.Description("suppress progress output"))
	opt.opt.BoolVar(&opt.Recursive, "recursive", false, opt.opt.Alias("r"),
		opt.opt.Description("walk subdirectories when scanning"))
	opt.opt.BoolVar(&opt.Unified, "unified", false,
		opt.opt.Description("prefer a DICOMDIR catalog when one is present"))
	opt.opt.IntVar(&opt.Workers, "workers", 0, opt.opt.Alias("w"),
		opt.opt.Description("parallel workers (0 = one per CPU)"))
	opt.opt.StringVar(&opt.Output, "output", "", opt.opt.Alias("o"),
		opt.opt.Description("output file or directory"))
	opt.opt.StringVar(&opt.TagName, "tag", "", opt.opt.Alias("t"),
		opt.opt.Description("attribute name to look up, e.g. PatientName"))
	opt.opt.IntVar(&opt.Thumb, "thumb", 0,
		opt.opt.Description("scale PNG output down to this maximum dimension"))

	return opt
}

func (o *Options) usage() string {
	return `Usage: dicomkit <command> <path> [options]

Commands:
  info <file>      print the typed metadata of one DICOM file
  tags <file>      print the full tag list (or one attribute via --tag)
  png <file>       write the first frame as PNG (--output, --thumb)
  scan <dir>       list DICOM files in a directory (--recursive, --unified)
  organize <dir>   print the patient/study/series hierarchy
  study <dir>      load one propagated study
  volume <dir>     assemble slices into a PNG volume (--output)

Options:
` + o.opt.Help(getoptions.HelpOptionList)
}
