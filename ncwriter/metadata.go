package ncwriter

import "github.com/jddeal/go-rpgradar/rpg"

// Meta describes how one RPG field is named and annotated in netCDF output.
type Meta struct {
	Name     string
	LongName string
	Units    string
	Comment  string
}

// Metadata maps the RPG manual name of every header and record field to its
// netCDF variable (or attribute) name and CF annotations.
var Metadata = map[string]Meta{
	"FileCode":  {Name: "file_code", LongName: "File Code"},
	"HeaderLen": {Name: "header_length", LongName: "Header Length", Units: "bytes"},
	"StartTime": {Name: "start_time", LongName: "Start Time", Comment: "time of first sample in file"},
	"StopTime":  {Name: "stop_time", LongName: "Stop Time", Comment: "time of last sample in file"},
	"CGProg":    {Name: "program_number", LongName: "Program Number", Comment: "chirp generator program number"},
	"ModelNo": {Name: "model_number", LongName: "Model Number",
		Comment: "0=94GHz single polarisation radar, 1=94GHz dual polarisation radar"},
	"ProgName": {Name: "program_name", LongName: "Program Name"},
	"CustName": {Name: "customer_name", LongName: "Customer Name"},
	"Freq":     {Name: "radar_frequency", LongName: "Radar Frequency", Units: "GHz"},
	"AntSep": {Name: "antenna_separation", LongName: "Antenna Separation", Units: "m",
		Comment: "separation of both antenna axis (bistatic configuration)"},
	"AntDia": {Name: "antenna_diameter", LongName: "Antenna Diameter", Units: "m"},
	"AntG":   {Name: "antenna_gain", LongName: "Antenna Gain", Comment: "linear antenna gain"},
	"HPBW":   {Name: "half_power_beam_width", LongName: "Half Power Beam Width", Units: "degrees"},
	"Cr":     {Name: "radar_constant", LongName: "Radar Constant"},
	"DualPol": {Name: "dual_polarisation", LongName: "Dual Polarisation",
		Comment: "0=single polarisation radar, 1=dual polarisation radar in LDR mode, 2=dual polarisation radar in STSR mode"},
	"CompEna": {Name: "compression", LongName: "Compression",
		Comment: "0=not compressed, 1=compressed, 2=compressed and polarimetric variables saved"},
	"AntiAlias": {Name: "anti_alias", LongName: "Anti Alias",
		Comment: "0=spectra not anti-aliased, 1=spectra have been anti-aliased"},
	"SampDur": {Name: "sample_duration", LongName: "Sample Duration", Units: "s"},
	"GPSLat":  {Name: "gps_latitude", LongName: "GPS Latitude", Units: "degrees_north"},
	"GPSLong": {Name: "gps_longitude", LongName: "GPS Longitude", Units: "degrees_east"},
	"CalInt": {Name: "calibration_interval", LongName: "Calibration Interval",
		Comment: "period for automatic zero calibrations in number of samples"},
	"RAltN":   {Name: "n_range_layers", LongName: "Number of Range Layers", Comment: "number of radar ranging layers"},
	"TAltN":   {Name: "n_temperature_layers", LongName: "Number of Temperature Layers"},
	"HAltN":   {Name: "n_humidity_layers", LongName: "Number of Humidity Layers"},
	"SequN":   {Name: "n_chirp_sequences", LongName: "Number of Chirp Sequences"},
	"RAlts":   {Name: "range_layers", LongName: "Range Layers"},
	"TAlts":   {Name: "temperature_layers", LongName: "Temperature Layers"},
	"HAlts":   {Name: "humidity_layers", LongName: "Humidity Layers"},
	"Fr":      {Name: "range_factors", LongName: "Range Factors"},
	"SpecN":   {Name: "n_samples_in_chirp", LongName: "Number of Spectral Samples in Each Chirp Sequence"},
	"RngOffs": {Name: "chirp_start_indices", LongName: "Chirp Sequence Start Indices"},
	"ChirpReps": {Name: "n_chirps_in_sequence", LongName: "Number of Averaged Chirps in Each Sequence"},
	"SeqIntTime": {Name: "integration_time", LongName: "Effective Sequence Integration Time"},
	"dR":         {Name: "range_resolution", LongName: "Chirp Sequence Range Resolution", Units: "m"},
	"MaxVel":     {Name: "nyquist_velocity", LongName: "Nyquist velocity", Units: "m/s"},
	"DoppRes":    {Name: "doppler_resolution", LongName: "Doppler Resolution", Units: "m/s"},
	"ChanBW":     {Name: "bandwidth", LongName: "Bandwidth of Individual Radar Channel", Units: "Hz"},
	"ChirpLowIF":  {Name: "lowest_IF_frequency", LongName: "Lowest IF Frequency", Units: "Hz"},
	"ChirpHighIF": {Name: "highest_IF_frequency", LongName: "Highest IF Frequency", Units: "Hz"},
	"RangeMin": {Name: "minimum_altitude", LongName: "Minimum Altitude", Units: "m",
		Comment: "minimum altitude (range) of the sequence"},
	"RangeMax": {Name: "maximum_altitude", LongName: "Maximum Altitude", Units: "m",
		Comment: "maximum altitude (range) of the sequence"},
	"ChirpFFTSize":    {Name: "fft_size", LongName: "FFT Size", Comment: "Must be power of 2"},
	"ChirpInvSamples": {Name: "n_invalid_samples", LongName: "Number of Invalid Samples"},
	"ChirpCenterFr":   {Name: "chirp_center_frequency", LongName: "Chirp Center Frequency", Units: "MHz"},
	"ChirpBWFr":       {Name: "chirp_bandwidth", LongName: "Chirp Bandwidth", Units: "MHz"},
	"FFTStartInd":     {Name: "fft_start_index", LongName: "FFT Start Index"},
	"FFTStopInd":      {Name: "fft_stop_index", LongName: "FFT Stop Index"},
	"ChirpFFTNo":      {Name: "n_chirp_fft", LongName: "Number of FFT Range Layers in Chirp", Comment: "Usually = 1"},
	"SampRate":        {Name: "adc_sampling_rate", LongName: "ADC Sampling Rate", Units: "Hz"},
	"MaxRange":        {Name: "maximum_range", LongName: "Maximum Range", Units: "m", Comment: "maximum unambiguous range"},
	"SupPowLev": {Name: "power_leveling_flag", LongName: "Power Leveling Flag",
		Comment: "flag indicating the use of power levelling (0=yes, 1=no)"},
	"SpkFilEna": {Name: "spike_filter_flag", LongName: "Spike Filter Flag",
		Comment: "flag indicating the use of spike/plankton filter (1=yes, 0=no)"},
	"PhaseCorr": {Name: "phase_correction_flag", LongName: "Phase Correction Flag",
		Comment: "flag indicating the use of phase correction (1=yes, 0=no)"},
	"RelPowCorr": {Name: "relative_power_correction_flag", LongName: "Relative Power Correction Flag",
		Comment: "flag indicating the use of relative power correction (1=yes, 0=no)"},
	"FFTWindow": {Name: "fft_window", LongName: "FFT Window",
		Comment: "FFT window in use: 0=square, 1=parzen, 2=blackman, 3=welch, 4=slepian2, 5=slepian3"},
	"FFTInputRng": {Name: "adc_voltage_range", LongName: "ADC Voltage Range", Units: "mV", Comment: "ADC input voltage range (+/-)"},
	"NoiseFilt": {Name: "noise_filter_threshold", LongName: "Noise Filter Threshold",
		Comment: "noise filter threshold factor (multiple of STD in Doppler spectra)"},
	"SWVersion":  {Name: "software_version", LongName: "Software version", Comment: "Multiplied by 100"},
	"InstCalPar": {Name: "Cal_period", LongName: "Calibration period", Units: "s"},

	"Time": {Name: "time", LongName: "Time of Sample", Units: "s", Comment: "since 1.1.2001"},
	"MSec": {Name: "time_ms", LongName: "Milliseconds of Sample", Units: "ms"},
	"QF": {Name: "quality_flag", LongName: "Quality Flag",
		Comment: "Bit 1=ADC saturation, Bit 2=spectral width too high, Bit 3=no transm. power leveling"},
	"RR":       {Name: "rain_rate", LongName: "Rain Rate", Units: "mm/h"},
	"RelHum":   {Name: "relative_humidity", LongName: "Relative Humidity", Units: "%"},
	"EnvTemp":  {Name: "temperature", LongName: "Environment Temperature", Units: "K"},
	"BaroP":    {Name: "pressure", LongName: "Barometric Pressure", Units: "hPa"},
	"WS":       {Name: "wind_speed", LongName: "Wind Speed", Units: "km/h"},
	"WD":       {Name: "wind_direction", LongName: "Wind Direction", Units: "degrees"},
	"DDVolt":   {Name: "voltage", LongName: "Direct Detection Channel Voltage", Units: "V"},
	"DDTb":     {Name: "brightness_temperature", LongName: "Brightness Temperature", Units: "K"},
	"TransPow": {Name: "transmitter_power", LongName: "Transmitter Power", Units: "W"},
	"TransT":   {Name: "transmitter_temperature", LongName: "Transmitter Temperature", Units: "K"},
	"RecT":     {Name: "receiver_temperature", LongName: "Receiver Temperature", Units: "K"},
	"PCT":      {Name: "pc_temperature", LongName: "PC Temperature", Units: "K"},
	"LWP":      {Name: "lwp", LongName: "Liquid Water Path", Units: "g/m2"},
	"PowIF":    {Name: "IF_power", LongName: "Intermediate Frequency Power", Units: "uW"},
	"Elev":     {Name: "elevation", LongName: "Elevation Angle", Units: "degrees"},
	"Azi":      {Name: "azimuth", LongName: "Azimuth Angle", Units: "degrees"},
	"Status": {Name: "status_flag", LongName: "Status Flag",
		Comment: "mitigation status flags: 0/1=heater switch (ON/OFF) 0/10=blower switch (ON/OFF)"},
	"TProf":  {Name: "temperature_profile", LongName: "Temperature Profile", Units: "K"},
	"AHProf": {Name: "absolute_humidity_profile", LongName: "Absolute Humidity Profile", Units: "g/m3"},
	"RHProf": {Name: "relative_humidity_profile", LongName: "Relative Humidity Profile", Units: "%"},

	"TotSpec":  {Name: "doppler_spectrum", LongName: "Doppler Spectrum", Comment: "linear Ze"},
	"HSpec":    {Name: "doppler_spectrum_h", LongName: "Doppler Spectrum H", Comment: "horizontal polarisation, linear Ze"},
	"ReVHSpec": {Name: "covariance_spectrum_re", LongName: "Covariance Spectrum Re", Comment: "real part, linear Ze"},
	"ImVHSpec": {Name: "covariance_spectrum_im", LongName: "Covariance Spectrum Im", Comment: "imaginary part, linear Ze"},
	"SLDRSpec": {Name: "sldr_spectrum", LongName: "Slanted LDR Doppler Spectrum", Units: "dB"},

	"RefRat":     {Name: "ldr", LongName: "Linear Depolarisation Ratio", Units: "dB"},
	"DiffPh":     {Name: "differential_phase", LongName: "Differential Phase", Units: "rad"},
	"SLDR":       {Name: "ldr_slanted", LongName: "LDR Slanted", Units: "dB"},
	"CorrCoeff":  {Name: "correlation_coefficient", LongName: "Correlation Coefficient"},
	"SCorrCoeff": {Name: "correlation_coefficient_slanted", LongName: "Correlation Coefficient Slanted"},
	"KDP":        {Name: "differential_phase_shift", LongName: "Differential Phase Shift", Units: "rad/km"},
	"DiffAtt":    {Name: "differential_attenuation", LongName: "Differential Attenuation", Units: "db/km"},
	"SLv": {Name: "sensitivity_limit_v", LongName: "Sensitivity limit for vertical polarization", Units: "linear units"},
	"SLh": {Name: "sensitivity_limit_h", LongName: "Sensitivity limit for horizontal polarization", Comment: "linear units"},
	"TotNoisePow": {Name: "integrated_noise", LongName: "Integrated Noise",
		Comment: "integrated Doppler spectrum noise power"},
	"HNoisePow": {Name: "integrated_noise_h", LongName: "Integrated Noise H",
		Comment: "integrated Doppler spectrum noise power in horizontal polarisation"},
	"AliasMsk": {Name: "anti_alias_correction", LongName: "Anti Alias Correction",
		Comment: "mask indicating if anti-aliasing has been applied (=1) or not (=0)"},
	"MinVel": {Name: "minimum_velocity", LongName: "Minimum Velocity", Units: "m/s"},

	"Ze":        {Name: "Ze", LongName: "Reflectivity", Comment: "vertical polarisation, linear units"},
	"MeanVel":   {Name: "v", LongName: "Doppler Velocity", Units: "m/s", Comment: "vertical polarisation"},
	"SpecWidth": {Name: "width", LongName: "Spectral Width", Units: "m/s", Comment: "vertical polarisation"},
	"Skewn":     {Name: "skewness", LongName: "Spectral Skewness", Comment: "vertical polarisation"},
	"Kurt":      {Name: "kurtosis", LongName: "Spectral Kurtosis", Comment: "vertical polarisation"},

	"velocity_vectors": {Name: "velocity_vectors", LongName: "Doppler velocity bins", Units: "m/s", Comment: "for each chirp"},
}

// MetadataFor returns the metadata table adjusted for a file. In STSR mode
// RefRat holds the differential reflectivity instead of LDR.
func MetadataFor(h *rpg.Header) map[string]Meta {
	out := make(map[string]Meta, len(Metadata))
	for k, v := range Metadata {
		out[k] = v
	}
	if h.DualPol == rpg.STSRMode {
		out["RefRat"] = Meta{Name: "zdr", LongName: "Differential Reflectivity Ratio"}
	}
	return out
}
