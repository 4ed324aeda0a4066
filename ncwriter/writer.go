// Package ncwriter archives decoded RPG files as netCDF classic files.
//
// Header vectors become variables, header scalars become global attributes
// and every record field is stored along an unlimited time dimension. Several
// files of the same radar configuration can be concatenated into one output.
package ncwriter

import (
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/jddeal/go-rpgradar/moments"
	"github.com/jddeal/go-rpgradar/rpg"
)

const (
	dimTime     = "time"
	dimRange    = "range"
	dimChirp    = "chirp"
	dimSpectrum = "spectrum"
	dimTemp     = "temperature_layer"
	dimHum      = "humidity_layer"

	conventions = "CF-1.7"
)

// header scalars left out of the global attributes
var skipped = map[string]bool{"StartTime": true, "StopTime": true, "ProgName": true, "CustName": true}

// Writer writes netCDF files. The zero value is not usable; use New.
type Writer struct {
	// Clock stamps the history attribute.
	Clock clockwork.Clock

	// Attributes are added as global string attributes after the standard ones.
	Attributes map[string]string
}

// New returns a Writer using the wall clock.
func New(attrs map[string]string) *Writer {
	return &Writer{Clock: clockwork.NewRealClock(), Attributes: attrs}
}

// Write concatenates files into one netCDF file at path.
func Write(path string, files []*rpg.File, attrs map[string]string) error {
	return New(attrs).Write(path, files)
}

// WriteMoments writes the moments of a level 0 file to path.
func WriteMoments(path string, f *rpg.File, res *moments.Result, fill float32, attrs map[string]string) error {
	return New(attrs).WriteMoments(path, f, res, fill)
}

type variable struct {
	key  string // RPG manual name
	meta Meta
	dims []string
	data interface{} // []int32 or []float32, row-major over dims
	fill *float32
}

type attribute struct {
	name  string
	value interface{} // string, []int32 or []float32
}

type dataset struct {
	dims    []string
	lengths []int
	nTime   int
	attrs   []attribute
	vars    []variable
}

func (d *dataset) addDim(name string, length int) {
	d.dims = append(d.dims, name)
	d.lengths = append(d.lengths, length)
}

func (d *dataset) hasDim(name string) bool {
	return lo.Contains(d.dims, name)
}

func (d *dataset) length(dim string) int {
	if dim == dimTime {
		return d.nTime
	}
	return d.lengths[lo.IndexOf(d.dims, dim)]
}

func (d *dataset) add(meta map[string]Meta, key string, dims []string, data interface{}) {
	m, ok := meta[key]
	if !ok {
		m = Meta{Name: key}
	}
	d.vars = append(d.vars, variable{key: key, meta: m, dims: dims, data: data})
}

// Write concatenates files into one netCDF file at path. All files must share
// level, polarisation and dimensions; other header differences are logged.
func (w *Writer) Write(path string, files []*rpg.File) error {
	if len(files) == 0 {
		return errors.New("no RPG files to write")
	}
	first := files[0]
	for _, f := range files[1:] {
		if err := checkDimensions(first, f); err != nil {
			return err
		}
		warnHeaderDifferences(first.Header, f.Header)
	}

	records := lo.FlatMap(files, func(f *rpg.File, _ int) []*rpg.Record { return f.Records })
	meta := MetadataFor(first.Header)

	d, err := w.newDataset(first, records)
	if err != nil {
		return err
	}
	addRecordVariables(d, meta, first.Header, records)

	logrus.Debugf("writing %d records of %d files to %s as %s", len(records), len(files), path, d)
	return d.create(path)
}

// WriteMoments writes header, per-sample scalars and the moments computed from
// a level 0 file.
func (w *Writer) WriteMoments(path string, f *rpg.File, res *moments.Result, fill float32) error {
	if res.NTime != len(f.Records) || res.NRange != int(f.Header.RAltN) {
		return &moments.ShapeMismatchError{
			Want: [2]int{len(f.Records), int(f.Header.RAltN)},
			Got:  [2]int{res.NTime, res.NRange},
		}
	}
	meta := MetadataFor(f.Header)

	d, err := w.newDataset(f, f.Records)
	if err != nil {
		return err
	}
	addTimeVariables(d, meta, f.Header, f.Records)

	for _, m := range []struct {
		key  string
		data []float32
	}{
		{"Ze", res.Ze},
		{"MeanVel", res.MeanVel},
		{"SpecWidth", res.SpecWidth},
		{"Skewn", res.Skewn},
		{"Kurt", res.Kurt},
	} {
		v := variable{key: m.key, meta: meta[m.key], dims: []string{dimTime, dimRange}, data: m.data, fill: &fill}
		d.vars = append(d.vars, v)
	}
	return d.create(path)
}

// newDataset sets up dimensions, header variables and global attributes.
func (w *Writer) newDataset(f *rpg.File, records []*rpg.Record) (*dataset, error) {
	h := f.Header
	meta := MetadataFor(h)

	d := &dataset{nTime: len(records)}
	d.addDim(dimTime, 0)
	d.addDim(dimRange, int(h.RAltN))
	d.addDim(dimChirp, int(h.SequN))
	if h.Level() == rpg.Level0 {
		d.addDim(dimSpectrum, f.Geometry.MaxBins)
	}
	// classic netCDF reserves length 0 for the record dimension
	if h.TAltN > 0 {
		d.addDim(dimTemp, int(h.TAltN))
	}
	if h.HAltN > 0 {
		d.addDim(dimHum, int(h.HAltN))
	}

	year, month, day, err := measurementDate(records)
	if err != nil {
		return nil, err
	}
	d.attrs = append(d.attrs,
		attribute{"Conventions", conventions},
		attribute{"year", year},
		attribute{"month", month},
		attribute{"day", day},
		attribute{"uuid", strings.ReplaceAll(uuid.New().String(), "-", "")},
		attribute{"history", "Radar file created: " + w.Clock.Now().UTC().Format("2006-01-02 15:04:05")},
		attribute{"level", []int32{int32(h.Level())}},
		attribute{"rpg_file_version", h.Version().String()},
	)
	for _, sc := range headerScalars(h) {
		if skipped[sc.key] {
			continue
		}
		d.attrs = append(d.attrs, attribute{meta[sc.key].Name, sc.value})
	}
	user := lo.Keys(w.Attributes)
	sort.Strings(user)
	for _, k := range user {
		d.attrs = append(d.attrs, attribute{k, w.Attributes[k]})
	}

	addHeaderVariables(d, meta, h, f.Geometry)
	return d, nil
}

// measurementDate returns the UTC date shared by every record.
func measurementDate(records []*rpg.Record) (year, month, day string, err error) {
	if len(records) == 0 {
		return "", "", "", errors.New("no records to date the file")
	}
	dates := lo.Uniq(lo.Map(records, func(r *rpg.Record, _ int) string {
		return r.Timestamp().Format("2006-01-02")
	}))
	if len(dates) > 1 {
		return "", "", "", errors.Errorf("more than one date in the file: %s", strings.Join(dates, ", "))
	}
	parts := strings.Split(dates[0], "-")
	return parts[0], parts[1], parts[2], nil
}

type scalar struct {
	key   string
	value interface{}
}

func i32(v int32) []int32     { return []int32{v} }
func f32(v float32) []float32 { return []float32{v} }

// headerScalars lists the scalar header fields present for the file type, in header order.
func headerScalars(h *rpg.Header) []scalar {
	s := []scalar{
		{"FileCode", i32(h.FileCode)},
		{"HeaderLen", i32(h.HeaderLen)},
	}
	if h.Times != nil {
		s = append(s, scalar{"StartTime", i32(int32(h.Times.Start))}, scalar{"StopTime", i32(int32(h.Times.Stop))})
	}
	if h.CGProg != nil {
		s = append(s, scalar{"CGProg", i32(*h.CGProg)})
	}
	s = append(s,
		scalar{"ModelNo", i32(h.ModelNo)},
		scalar{"ProgName", h.ProgName},
		scalar{"CustName", h.CustName},
	)
	if h.Antenna != nil {
		s = append(s,
			scalar{"Freq", f32(h.Antenna.Freq)},
			scalar{"AntDia", f32(h.Antenna.AntDia)},
			scalar{"AntG", f32(h.Antenna.AntG)},
			scalar{"GPSLat", f32(h.Antenna.GPSLat)},
			scalar{"GPSLong", f32(h.Antenna.GPSLong)},
		)
	}
	s = append(s,
		scalar{"AntSep", f32(h.AntSep)},
		scalar{"HPBW", f32(h.HPBW)},
	)
	if a := h.Acquisition; a != nil {
		s = append(s,
			scalar{"Cr", f32(a.Cr)},
			scalar{"CompEna", i32(int32(a.CompEna))},
			scalar{"AntiAlias", i32(int32(a.AntiAlias))},
		)
	}
	s = append(s,
		scalar{"DualPol", i32(int32(h.DualPol))},
		scalar{"SampDur", f32(h.SampDur)},
		scalar{"CalInt", i32(h.CalInt)},
		scalar{"RAltN", i32(h.RAltN)},
		scalar{"TAltN", i32(h.TAltN)},
		scalar{"HAltN", i32(h.HAltN)},
		scalar{"SequN", i32(h.SequN)},
	)
	if hw := h.Hardware; hw != nil {
		s = append(s, scalar{"SampRate", i32(hw.SampRate)}, scalar{"MaxRange", i32(hw.MaxRange)})
	}
	if p := h.Processing; p != nil {
		s = append(s,
			scalar{"SupPowLev", i32(int32(p.SupPowLev))},
			scalar{"SpkFilEna", i32(int32(p.SpkFilEna))},
			scalar{"PhaseCorr", i32(int32(p.PhaseCorr))},
			scalar{"RelPowCorr", i32(int32(p.RelPowCorr))},
			scalar{"FFTWindow", i32(int32(p.FFTWindow))},
			scalar{"FFTInputRng", i32(int32(p.FFTInputRng))},
			scalar{"SWVersion", i32(int32(p.SWVersion))},
			scalar{"NoiseFilt", f32(p.NoiseFilt)},
		)
	}
	if h.InstCalPar != nil {
		s = append(s, scalar{"InstCalPar", i32(*h.InstCalPar)})
	}
	return s
}

func addHeaderVariables(d *dataset, meta map[string]Meta, h *rpg.Header, g *rpg.ChirpGeometry) {
	d.add(meta, "RAlts", []string{dimRange}, h.RAlts)
	if d.hasDim(dimTemp) {
		d.add(meta, "TAlts", []string{dimTemp}, h.TAlts)
	}
	if d.hasDim(dimHum) {
		d.add(meta, "HAlts", []string{dimHum}, h.HAlts)
	}
	if h.Fr != nil {
		d.add(meta, "Fr", []string{dimRange}, h.Fr)
	}

	chirp := []string{dimChirp}
	d.add(meta, "SpecN", chirp, h.SpecN)
	d.add(meta, "RngOffs", chirp, h.RngOffs)
	if h.ChirpReps != nil {
		d.add(meta, "ChirpReps", chirp, h.ChirpReps)
		d.add(meta, "SeqIntTime", chirp, h.SeqIntTime)
	}
	d.add(meta, "dR", chirp, h.DR)
	d.add(meta, "MaxVel", chirp, h.MaxVel)
	if h.DoppRes != nil {
		d.add(meta, "DoppRes", chirp, h.DoppRes)
	}

	if hw := h.Hardware; hw != nil {
		d.add(meta, "ChanBW", chirp, hw.ChanBW)
		d.add(meta, "ChirpLowIF", chirp, hw.ChirpLowIF)
		d.add(meta, "ChirpHighIF", chirp, hw.ChirpHighIF)
		d.add(meta, "RangeMin", chirp, hw.RangeMin)
		d.add(meta, "RangeMax", chirp, hw.RangeMax)
		d.add(meta, "ChirpFFTSize", chirp, hw.ChirpFFTSize)
		d.add(meta, "ChirpInvSamples", chirp, hw.ChirpInvSamples)
		d.add(meta, "ChirpCenterFr", chirp, hw.ChirpCenterFr)
		d.add(meta, "ChirpBWFr", chirp, hw.ChirpBWFr)
		d.add(meta, "FFTStartInd", chirp, hw.FFTStartInd)
		d.add(meta, "FFTStopInd", chirp, hw.FFTStopInd)
		d.add(meta, "ChirpFFTNo", chirp, hw.ChirpFFTNo)
	}

	if g != nil && g.Velocity != nil {
		d.add(meta, "velocity_vectors", []string{dimChirp, dimSpectrum}, lo.Flatten(g.Velocity))
	}
}

// scalarKeys fixes the order of the per-sample scalars.
var scalarKeys = []string{
	"RR", "RelHum", "EnvTemp", "BaroP", "WS", "WD", "DDVolt", "DDTb",
	"LWP", "PowIF", "Elev", "Azi", "Status",
	"TransPow", "TransT", "RecT", "PCT",
}

func addTimeVariables(d *dataset, meta map[string]Meta, h *rpg.Header, records []*rpg.Record) {
	n := len(records)
	times := make([]int32, n)
	msec := make([]int32, n)
	qf := make([]int32, n)
	for i, r := range records {
		times[i] = int32(r.Time)
		msec[i] = r.MSec
		qf[i] = int32(r.QF)
	}
	tdim := []string{dimTime}
	d.add(meta, "Time", tdim, times)
	d.add(meta, "MSec", tdim, msec)
	d.add(meta, "QF", tdim, qf)

	present := records[0].Scalars(h.Level())
	for _, key := range scalarKeys {
		if _, ok := present[key]; !ok {
			continue
		}
		d.add(meta, key, tdim, lo.Map(records, func(r *rpg.Record, _ int) float32 {
			return r.Scalars(h.Level())[key]
		}))
	}
}

// profileDim gives the non-time dimension of each profile.
func profileDim(key string) string {
	switch key {
	case "TProf":
		return dimTemp
	case "AHProf", "RHProf":
		return dimHum
	}
	return dimRange
}

func addRecordVariables(d *dataset, meta map[string]Meta, h *rpg.Header, records []*rpg.Record) {
	addTimeVariables(d, meta, h, records)

	profiles := records[0].Profiles()
	keys := lo.Keys(profiles)
	sort.Strings(keys)
	for _, key := range keys {
		dim := profileDim(key)
		if !d.hasDim(dim) {
			continue
		}
		d.add(meta, key, []string{dimTime, dim}, lo.FlatMap(records, func(r *rpg.Record, _ int) []float32 {
			return r.Profiles()[key]
		}))
	}

	if records[0].AliasMsk != nil {
		d.add(meta, "AliasMsk", []string{dimTime, dimRange}, lo.FlatMap(records, func(r *rpg.Record, _ int) []int32 {
			return lo.Map(r.AliasMsk, func(v int8, _ int) int32 { return int32(v) })
		}))
	}

	if h.Level() == rpg.Level0 {
		for _, v := range rpg.SpectrumVars(h.DualPol) {
			d.add(meta, string(v), []string{dimTime, dimRange, dimSpectrum}, lo.FlatMap(records, func(r *rpg.Record, _ int) []float32 {
				return r.Spectra[v]
			}))
		}
	}
}

func checkDimensions(a, b *rpg.File) error {
	ha, hb := a.Header, b.Header
	type shape struct {
		Level                      rpg.Level
		DualPol                    rpg.PolMode
		RAltN, TAltN, HAltN, SequN int32
		MaxBins                    int
	}
	sa := shape{ha.Level(), ha.DualPol, ha.RAltN, ha.TAltN, ha.HAltN, ha.SequN, a.Geometry.MaxBins}
	sb := shape{hb.Level(), hb.DualPol, hb.RAltN, hb.TAltN, hb.HAltN, hb.SequN, b.Geometry.MaxBins}
	if sa != sb {
		return errors.Errorf("files do not share dimensions: %+v vs %+v", sa, sb)
	}
	return nil
}

func warnHeaderDifferences(a, b *rpg.Header) {
	fields := map[string][2]interface{}{
		"RAlts":   {a.RAlts, b.RAlts},
		"SpecN":   {a.SpecN, b.SpecN},
		"RngOffs": {a.RngOffs, b.RngOffs},
		"MaxVel":  {a.MaxVel, b.MaxVel},
		"dR":      {a.DR, b.DR},
		"Antenna": {a.Antenna, b.Antenna},
	}
	for _, name := range lo.Keys(fields) {
		if v := fields[name]; !reflect.DeepEqual(v[0], v[1]) {
			logrus.Warnf("inconsistent header data in %s: %v vs %v", name, v[0], v[1])
		}
	}
}

func zeroOf(data interface{}) interface{} {
	if _, ok := data.([]int32); ok {
		return []int32{0}
	}
	return []float32{0}
}

func (d *dataset) create(path string) error {
	h := cdf.NewHeader(d.dims, d.lengths)
	for _, a := range d.attrs {
		h.AddAttribute("", a.name, a.value)
	}
	for _, v := range d.vars {
		name := v.meta.Name
		h.AddVariable(name, v.dims, zeroOf(v.data))
		if v.meta.LongName != "" {
			h.AddAttribute(name, "long_name", v.meta.LongName)
		}
		if v.meta.Units != "" {
			h.AddAttribute(name, "units", v.meta.Units)
		}
		if v.meta.Comment != "" {
			h.AddAttribute(name, "comment", v.meta.Comment)
		}
		if v.fill != nil {
			h.AddAttribute(name, "_FillValue", []float32{*v.fill})
		}
		h.AddAttribute(name, "rpg_manual_name", v.key)
	}
	h.Define()

	ff, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating netCDF file")
	}
	defer ff.Close()

	nc, err := cdf.Create(ff, h)
	if err != nil {
		return errors.Wrapf(err, "writing netCDF header of %s", path)
	}

	for _, v := range d.vars {
		begin := make([]int, len(v.dims))
		end := lo.Map(v.dims, func(dim string, _ int) int { return d.length(dim) })
		if _, err := nc.Writer(v.meta.Name, begin, end).Write(v.data); err != nil {
			return errors.Wrapf(err, "writing %s", v.meta.Name)
		}
	}

	if err := cdf.UpdateNumRecs(ff); err != nil {
		return errors.Wrapf(err, "updating record count of %s", path)
	}
	return nil
}

// String describes the dataset layout, used in debug logs.
func (d *dataset) String() string {
	dims := lo.Map(d.dims, func(dim string, i int) string { return fmt.Sprintf("%s=%d", dim, d.length(dim)) })
	return fmt.Sprintf("netCDF(%s, %d variables)", strings.Join(dims, " "), len(d.vars))
}
