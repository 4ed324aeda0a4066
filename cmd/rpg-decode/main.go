package main

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/fatih/color"
	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/jddeal/go-rpgradar/internal/observability"
	"github.com/jddeal/go-rpgradar/moments"
	"github.com/jddeal/go-rpgradar/rpg"
)

var cli struct {
	Args struct {
		Filename string
	} `positional-args:"yes" required:"yes"`
	LogLevel   string `short:"l" long:"log-level" description:"logging level" choice:"error" choice:"warn" choice:"info" choice:"debug" choice:"trace" default:"info"`
	ShowHeader bool   `long:"show-header" description:"dumps out the contents of the file header"`
	Moments    bool   `long:"moments" description:"computes moments from the spectra of a level 0 file"`
	NPointsMin int    `long:"n-points-min" description:"minimum peak width in bins" default:"4"`
	KeepTail   bool   `long:"keep-truncated" description:"fail on a truncated last record instead of dropping it"`
	CPUProfile string `long:"cpu-profile" description:"writes a CPU profile to this file"`
}

func main() {

	// parse the input args
	_, err := flags.Parse(&cli)
	if err != nil {
		os.Exit(1)
	}

	if err := observability.ConfigureLogger(cli.LogLevel, "text"); err != nil {
		logrus.Fatal(err)
	}

	// run `go tool pprof out.prof` and `top10` in the pprof prompt
	if cli.CPUProfile != "" {
		f, err := os.Create(cli.CPUProfile)
		if err != nil {
			logrus.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	// decode it
	logrus.Info(color.CyanString("decoding ", cli.Args.Filename))
	f, err := rpg.DecodeFile(cli.Args.Filename, rpg.DecodeOptions{DropTruncatedTail: !cli.KeepTail})
	if err != nil {
		logrus.Error(err)
		os.Exit(1)
	}

	h := f.Header
	logrus.Infof("%s, %s, %s range gates, %s chirps, %s samples",
		h.Type, h.DualPol, color.CyanString("%d", h.RAltN), color.CyanString("%d", h.SequN),
		color.CyanString("%d", len(f.Records)))
	if n := len(f.Records); n > 0 {
		logrus.Infof("samples from %s to %s", f.Records[0].Timestamp(), f.Records[n-1].Timestamp())
		if h.Level() == rpg.Level1 {
			if st, ok := rpg.DecodeStatusFlags(f.Records[0].Status); ok {
				logrus.Infof("status: %+v", st)
			} else {
				logrus.Warnf("undecodable status %v", f.Records[0].Status)
			}
		}
	}

	if cli.ShowHeader {
		showHeader(h)
	}

	if cli.Moments {
		showMoments(f)
	}
}

func showHeader(h *rpg.Header) {
	fmt.Printf("FileCode:  %d\n", h.FileCode)
	fmt.Printf("HeaderLen: %d\n", h.HeaderLen)
	fmt.Printf("ProgName:  %s\n", h.ProgName)
	fmt.Printf("CustName:  %s\n", h.CustName)
	fmt.Printf("ModelNo:   %d\n", h.ModelNo)
	if h.Antenna != nil {
		fmt.Printf("Antenna:   %+v\n", *h.Antenna)
	}
	if h.Acquisition != nil {
		fmt.Printf("Acquisition: %+v\n", *h.Acquisition)
	}
	if h.Processing != nil {
		fmt.Printf("Processing: %+v\n", *h.Processing)
	}
	fmt.Printf("RAltN %d  TAltN %d  HAltN %d  SequN %d\n", h.RAltN, h.TAltN, h.HAltN, h.SequN)
	for i := range h.SpecN {
		fmt.Printf("chirp %d: start gate %4d, %4d bins, Nyquist %6.2f m/s, dR %6.2f m\n",
			i, h.RngOffs[i], h.SpecN[i], h.MaxVel[i], h.DR[i])
	}
}

func showMoments(f *rpg.File) {
	if f.Header.Level() != rpg.Level0 {
		logrus.Warn("moments need a level 0 file")
		return
	}
	opts := moments.DefaultOptions()
	opts.NPointsMin = cli.NPointsMin
	res, err := moments.FromFile(f, rpg.TotSpec, opts)
	if err != nil {
		logrus.Error(err)
		return
	}

	valid := 0
	for _, v := range res.Valid {
		if v {
			valid++
		}
	}
	logrus.Infof("moments: %s of %s cells valid",
		color.CyanString("%d", valid), color.CyanString("%d", res.NTime*res.NRange))

	if f.Header.DualPol == rpg.STSRMode {
		sldr, err := moments.SpectralLDR(f)
		if err != nil {
			logrus.Warn(err)
			return
		}
		logrus.Infof("spectral LDR: %d x %d x %d", sldr.NTime, sldr.NRange, sldr.NBins)
	}
}
