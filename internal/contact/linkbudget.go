package contact

import "math"

// speedOfLightKmPerSec is c in km/s, matching the km-scale distances used
// throughout this package.
const speedOfLightKmPerSec = 299792.458

// boltzmannConstant is k in J/K (SI, since noise power is computed in watts).
const boltzmannConstant = 1.380649e-23

// referenceAtmosphereKm is the effective slant-path thickness of the
// absorbing atmosphere used to scale the band's absorption coefficient; a
// reasonable fixed value since the spec leaves the exact atmosphere model
// unspecified beyond "scaled by 1/sin(elevation) and a band-dependent
// coefficient."
const referenceAtmosphereKm = 10

// LinkBudgetResult is the computed signal quality and achievable rate for
// one contact geometry under one band preset.
type LinkBudgetResult struct {
	FreeSpaceLossDb float64
	TotalLossDb     float64
	ReceivedPowerDb float64
	NoiseDb         float64
	SNRDb           float64
	RateMbps        float64
}

// EvaluateLinkBudget computes the link budget from §4.2: free-space path
// loss, atmospheric absorption, optional rain fade, SNR, and the achievable
// Shannon-capped data rate. elevationDeg must be the observed elevation of
// the contact (at least 1 degree is assumed to avoid a singular scale
// factor at the horizon). weatherEnabled toggles the rain-fade term.
func EvaluateLinkBudget(band BandParams, rangeKm, elevationDeg float64, weatherEnabled bool) LinkBudgetResult {
	elevClamped := math.Max(elevationDeg, 1.0)
	elevRad := elevClamped * math.Pi / 180
	sinElev := math.Sin(elevRad)

	wavelengthKm := speedOfLightKmPerSec / band.FrequencyHz
	freeSpaceLossDb := 20 * math.Log10(4*math.Pi*rangeKm/wavelengthKm)

	atmosphericLossDb := band.AtmosCoeffDbPerKm * referenceAtmosphereKm / sinElev

	rainFadeDb := 0.0
	if weatherEnabled {
		rainFadeDb = band.RainFadeDb * sinElev
	}

	totalLossDb := freeSpaceLossDb + atmosphericLossDb + rainFadeDb

	receivedPowerDb := band.TxPowerDbW + band.TxGainDb + band.RxGainDb - totalLossDb

	noiseWatts := boltzmannConstant * band.SystemNoiseTempK * band.BandwidthHz
	noiseDb := 10 * math.Log10(noiseWatts)

	snrDb := receivedPowerDb - noiseDb

	result := LinkBudgetResult{
		FreeSpaceLossDb: freeSpaceLossDb,
		TotalLossDb:     totalLossDb,
		ReceivedPowerDb: receivedPowerDb,
		NoiseDb:         noiseDb,
		SNRDb:           snrDb,
	}

	if snrDb < band.RequiredSNRDb {
		result.RateMbps = 0
		return result
	}

	snrLinear := math.Pow(10, snrDb/10)
	shannonMbps := 0.75 * band.BandwidthHz * math.Log2(1+snrLinear) / 1e6
	result.RateMbps = math.Min(shannonMbps, band.CapMbps)
	return result
}

// ISLRateModel computes the achievable inter-satellite-link rate for a given
// range. Swappable: §9 leaves the exact ISL rate curve to the implementer.
type ISLRateModel interface {
	Rate(rangeKm float64) float64
}

// DefaultISLRateModel is the reference-implementation curve noted in §9:
// rate = min(1000 / (1 + (d/1000)^2), cap) Mbps, finite and monotonically
// decreasing with range, capped at cap Mbps.
type DefaultISLRateModel struct {
	CapMbps float64
}

// NewDefaultISLRateModel returns the default ISL rate model with the
// reference cap.
func NewDefaultISLRateModel() DefaultISLRateModel {
	return DefaultISLRateModel{CapMbps: defaultISLBandCapMbps}
}

// Rate implements ISLRateModel.
func (m DefaultISLRateModel) Rate(rangeKm float64) float64 {
	if rangeKm < 0 {
		rangeKm = 0
	}
	scaled := rangeKm / 1000
	rate := 1000 / (1 + scaled*scaled)
	return math.Min(rate, m.CapMbps)
}
