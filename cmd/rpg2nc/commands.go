package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jddeal/go-rpgradar/internal/batch"
	"github.com/jddeal/go-rpgradar/internal/config"
	"github.com/jddeal/go-rpgradar/internal/observability"
	"github.com/jddeal/go-rpgradar/moments"
	"github.com/jddeal/go-rpgradar/ncwriter"
	"github.com/jddeal/go-rpgradar/quicklook"
	"github.com/jddeal/go-rpgradar/rpg"
)

var (
	attrs         map[string]string
	keepTruncated bool
	nPointsMin    int
	fillValue     float32
	imageWidth    int
	imageHeight   int
)

var convertCmd = &cobra.Command{
	Use:   "convert PATTERN OUTPUT",
	Short: "Concatenates the RPG files matching PATTERN into one netCDF file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := filepath.Glob(args[0])
		if err != nil {
			return errors.Wrap(err, "bad pattern")
		}
		if len(paths) == 0 {
			return errors.Errorf("no files match %s", args[0])
		}
		sort.Strings(paths)

		files := make([]*rpg.File, 0, len(paths))
		for _, p := range paths {
			f, err := decode(p)
			if err != nil {
				return err
			}
			files = append(files, f)
		}
		if err := ncwriter.Write(args[1], files, attrs); err != nil {
			return err
		}
		logrus.Infof("wrote %s from %s files", args[1], color.CyanString("%d", len(files)))
		return nil
	},
}

var spectraCmd = &cobra.Command{
	Use:   "spectra INPUT OUTPUT",
	Short: "Computes moments from a level 0 file and writes them to netCDF",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := decode(args[0])
		if err != nil {
			return err
		}
		res, err := moments.FromFile(f, rpg.TotSpec, moments.Options{FillValue: fillValue, NPointsMin: nPointsMin})
		if err != nil {
			return err
		}
		return ncwriter.WriteMoments(args[1], f, res, fillValue, attrs)
	},
}

var multiCmd = &cobra.Command{
	Use:   "multi",
	Short: "Converts every RPG file of a directory to its own netCDF file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v := config.New(configFile)
		bindings := map[string]string{
			"input_dir":    "input",
			"output_dir":   "output",
			"base_name":    "base-name",
			"workers":      "workers",
			"recursive":    "recursive",
			"include_lv0":  "include-lv0",
			"metrics_file": "metrics-file",
		}
		for key, flag := range bindings {
			if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
				return err
			}
		}
		for key, flag := range map[string]string{"log_level": "log-level", "log_format": "log-format"} {
			if err := v.BindPFlag(key, cmd.InheritedFlags().Lookup(flag)); err != nil {
				return err
			}
		}

		cfg, err := config.FromViper(v, configFile != "")
		if err != nil {
			return err
		}
		if err := observability.ConfigureLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
			return err
		}
		cfg.GlobalAttributes = lo.Assign(cfg.GlobalAttributes, attrs)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		created, err := batch.NewRunner(cfg).Run(ctx)
		logrus.Infof("created %s netCDF files", color.CyanString("%d", len(created)))
		return err
	},
}

var quicklookCmd = &cobra.Command{
	Use:   "quicklook INPUT OUTPUT.png",
	Short: "Renders the reflectivity of a file as a time-height PNG",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := decode(args[0])
		if err != nil {
			return err
		}
		res, err := reflectivity(f)
		if err != nil {
			return err
		}

		out, err := os.Create(args[1])
		if err != nil {
			return err
		}
		defer out.Close()
		opts := quicklook.Options{Width: imageWidth, Height: imageHeight, FillValue: fillValue}
		return quicklook.Render(out, res, f.Header.RAlts, opts)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{convertCmd, spectraCmd, multiCmd} {
		cmd.Flags().StringToStringVar(&attrs, "attr", nil, "extra global attribute key=value")
	}
	for _, cmd := range []*cobra.Command{convertCmd, spectraCmd, quicklookCmd} {
		cmd.Flags().BoolVar(&keepTruncated, "keep-truncated", false, "fail on a truncated last record instead of dropping it")
	}
	for _, cmd := range []*cobra.Command{spectraCmd, quicklookCmd} {
		cmd.Flags().IntVar(&nPointsMin, "n-points-min", moments.DefaultNPointsMin, "minimum peak width in bins")
		cmd.Flags().Float32Var(&fillValue, "fill-value", moments.DefaultFillValue, "value of cells without a moment")
	}

	mf := multiCmd.Flags()
	mf.String("input", ".", "directory searched for RPG files")
	mf.String("output", ".", "directory the netCDF files are written to")
	mf.String("base-name", "", "prefix of the output file names")
	mf.Int("workers", 4, "files converted in parallel")
	mf.Bool("recursive", true, "search sub-directories")
	mf.Bool("include-lv0", true, "convert level 0 files too")
	mf.String("metrics-file", "", "node exporter textfile the run metrics are written to")

	quicklookCmd.Flags().IntVar(&imageWidth, "width", 1200, "image width in pixels")
	quicklookCmd.Flags().IntVar(&imageHeight, "height", 600, "image height in pixels")
}

func decode(path string) (*rpg.File, error) {
	logrus.Debugf("decoding %s", path)
	return rpg.DecodeFile(path, rpg.DecodeOptions{DropTruncatedTail: !keepTruncated})
}

// reflectivity computes Ze from level 0 spectra or takes it from level 1 records.
func reflectivity(f *rpg.File) (*moments.Result, error) {
	if f.Header.Level() == rpg.Level0 {
		return moments.FromFile(f, rpg.TotSpec, moments.Options{FillValue: fillValue, NPointsMin: nPointsMin})
	}
	return &moments.Result{
		NTime:  len(f.Records),
		NRange: int(f.Header.RAltN),
		Ze:     lo.FlatMap(f.Records, func(r *rpg.Record, _ int) []float32 { return r.Ze }),
	}, nil
}
