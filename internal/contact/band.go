package contact

import "github.com/aurorasat/dtnsim/internal/apierr"

// Band names the RF band presets selectable by the control API.
type Band string

const (
	BandL  Band = "l-band"
	BandS  Band = "s-band"
	BandC  Band = "c-band"
	BandKu Band = "ku-band"
	BandKa Band = "ka-band"
	BandV  Band = "v-band"
)

// BandParams is the fixed tuple behind one RF band preset: carrier
// frequency, channel bandwidth, transmitter power and antenna gains, system
// noise temperature, required SNR, and the propagation coefficients the
// link budget applies on top of free-space path loss.
type BandParams struct {
	FrequencyHz          float64
	BandwidthHz          float64
	TxPowerDbW           float64
	TxGainDb             float64
	RxGainDb             float64
	SystemNoiseTempK     float64
	RequiredSNRDb        float64
	AtmosCoeffDbPerKm    float64
	RainFadeDb           float64
	CapMbps              float64
}

// presets holds the reference-implementation defaults for each band; all
// fields are configurable by constructing a BandParams directly.
var presets = map[Band]BandParams{
	BandL:  {FrequencyHz: 1.5e9, BandwidthHz: 5e6, TxPowerDbW: 20, TxGainDb: 15, RxGainDb: 25, SystemNoiseTempK: 290, RequiredSNRDb: 5, AtmosCoeffDbPerKm: 0.005, RainFadeDb: 0, CapMbps: 10},
	BandS:  {FrequencyHz: 2.5e9, BandwidthHz: 20e6, TxPowerDbW: 20, TxGainDb: 20, RxGainDb: 30, SystemNoiseTempK: 250, RequiredSNRDb: 6, AtmosCoeffDbPerKm: 0.01, RainFadeDb: 0, CapMbps: 50},
	BandC:  {FrequencyHz: 6e9, BandwidthHz: 50e6, TxPowerDbW: 20, TxGainDb: 25, RxGainDb: 35, SystemNoiseTempK: 200, RequiredSNRDb: 7, AtmosCoeffDbPerKm: 0.02, RainFadeDb: 0, CapMbps: 200},
	BandKu: {FrequencyHz: 14e9, BandwidthHz: 100e6, TxPowerDbW: 20, TxGainDb: 30, RxGainDb: 45, SystemNoiseTempK: 180, RequiredSNRDb: 8, AtmosCoeffDbPerKm: 0.05, RainFadeDb: 2, CapMbps: 500},
	BandKa: {FrequencyHz: 28e9, BandwidthHz: 250e6, TxPowerDbW: 20, TxGainDb: 35, RxGainDb: 55, SystemNoiseTempK: 150, RequiredSNRDb: 9, AtmosCoeffDbPerKm: 0.1, RainFadeDb: 5, CapMbps: 2000},
	BandV:  {FrequencyHz: 60e9, BandwidthHz: 500e6, TxPowerDbW: 20, TxGainDb: 40, RxGainDb: 60, SystemNoiseTempK: 140, RequiredSNRDb: 10, AtmosCoeffDbPerKm: 0.15, RainFadeDb: 15, CapMbps: 10000},
}

// defaultISLBandCapMbps is the default Shannon-style ceiling applied to the
// ISL rate curve (see ISLRateModel), distinct from the ground-link bands.
const defaultISLBandCapMbps = 1000

// BandByName resolves an RF band preset by its external name.
func BandByName(name string) (BandParams, error) {
	params, ok := presets[Band(name)]
	if !ok {
		return BandParams{}, apierr.InvalidInput("unknown RF band preset %q", name)
	}
	return params, nil
}
