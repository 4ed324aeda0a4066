// Package batch converts directories of RPG files to netCDF in parallel.
package batch

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/jddeal/go-rpgradar/internal/config"
	"github.com/jddeal/go-rpgradar/internal/observability"
	"github.com/jddeal/go-rpgradar/ncwriter"
	"github.com/jddeal/go-rpgradar/rpg"
)

// Discover lists the RPG files below dir, sorted by path. Level 1 files end
// in .lv1 and level 0 files in .lv0, in any case.
func Discover(dir string, recursive, includeLV0 bool) ([]string, error) {
	exts := []string{".lv1"}
	if includeLV0 {
		exts = append(exts, ".lv0")
	}
	match := func(name string) bool {
		return lo.Contains(exts, strings.ToLower(filepath.Ext(name)))
	}

	var files []string
	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, errors.Wrapf(err, "listing %s", dir)
		}
		for _, e := range entries {
			if !e.IsDir() && match(e.Name()) {
				files = append(files, filepath.Join(dir, e.Name()))
			}
		}
	} else {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && match(d.Name()) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "walking %s", dir)
		}
	}
	sort.Strings(files)
	return files, nil
}

// OutputName is the netCDF path written for an RPG file.
func OutputName(outputDir, baseName, file string) string {
	prefix := ""
	if baseName != "" {
		prefix = baseName + "_"
	}
	return filepath.Join(outputDir, prefix+filepath.Base(file)+".nc")
}

// Runner converts every discovered file to its own netCDF file.
type Runner struct {
	Config  *config.Config
	Metrics *observability.Metrics
	Clock   clockwork.Clock
	// Progress receives the progress bar; nil disables it.
	Progress io.Writer
}

// NewRunner returns a Runner with fresh metrics and the wall clock.
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{
		Config:   cfg,
		Metrics:  observability.NewMetrics(),
		Clock:    clockwork.NewRealClock(),
		Progress: os.Stderr,
	}
}

// Run converts all files and returns the paths written, sorted. A file that
// fails is logged and counted; it does not stop the others.
func (r *Runner) Run(ctx context.Context) ([]string, error) {
	cfg := r.Config
	files, err := Discover(cfg.InputDir, cfg.Recursive, cfg.IncludeLV0)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, errors.Wrap(err, "creating output directory")
	}
	logrus.Infof("converting %s files from %s", color.CyanString("%d", len(files)), cfg.InputDir)

	var bar *pb.ProgressBar
	if r.Progress != nil {
		bar = pb.New(len(files)).SetWriter(r.Progress).Start()
		defer bar.Finish()
	}

	var (
		mu      sync.Mutex
		created []string
		sema    = semaphore.NewWeighted(int64(cfg.Workers))
		runErr  error
	)
	for _, file := range files {
		if err := sema.Acquire(ctx, 1); err != nil {
			runErr = err
			break
		}
		go func(file string) {
			defer sema.Release(1)
			out := OutputName(cfg.OutputDir, cfg.BaseName, file)
			if err := r.convert(file, out); err != nil {
				logrus.Warnf("failed to convert %s: %v", file, err)
				r.Metrics.FileFailed(err)
			} else {
				mu.Lock()
				created = append(created, out)
				mu.Unlock()
			}
			if bar != nil {
				bar.Increment()
			}
		}(file)
	}
	// wait for the workers still running
	if err := sema.Acquire(context.Background(), int64(cfg.Workers)); err != nil && runErr == nil {
		runErr = err
	}

	if cfg.MetricsFile != "" {
		if err := r.Metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logrus.Warnf("%v", err)
		}
	}

	sort.Strings(created)
	return created, runErr
}

func (r *Runner) convert(file, out string) error {
	start := r.Clock.Now()
	logrus.Debugf("converting %s", file)

	f, err := rpg.DecodeFile(file, rpg.DecodeOptions{DropTruncatedTail: r.Config.DropTruncated})
	if err != nil {
		return err
	}
	w := &ncwriter.Writer{Clock: r.Clock, Attributes: r.Config.GlobalAttributes}
	if err := w.Write(out, []*rpg.File{f}); err != nil {
		os.Remove(out)
		return err
	}

	r.Metrics.RecordsDecoded.Add(float64(len(f.Records)))
	r.Metrics.FilesConverted.Inc()
	r.Metrics.FileDuration.Observe(r.Clock.Since(start).Seconds())
	return nil
}
