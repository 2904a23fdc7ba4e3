package itm

// Engine is implemented by an external Irregular Terrain Model
// binding. It receives the profile line (`pfl`, in the convention
// below) plus the remaining ITM parameters, and returns the engine's
// raw integer return code and estimated attenuation in dB; P2P
// translates the return code into FromRetcode's (value, error) pair.
type Engine func(
	txHeightM, rxHeightM float64,
	pfl []float64,
	climate Climate,
	n0, freqMHz float64,
	pol Polarization,
	epsilon, sigma float64,
	mdvar ModeVariability,
	timePct, locationPct, situationPct float64,
) (retcode int, attenuationDB float64)

// P2P invokes engine to estimate the path attenuation, in dB, between
// a transmitter at txHeightM and a receiver at rxHeightM above ground,
// over a terrain profile sampled every stepSizeM meters.
//
// freqHz is converted to MHz before being handed to the engine, per
// the engine's own unit convention.
//
// terrain is framed into a `pfl` profile line: [n-1, stepSizeM,
// terrain...], the layout the ITM reference implementation expects —
// the leading two non-elevation entries are the point count minus one
// and the sample spacing.
func P2P(
	engine Engine,
	txHeightM, rxHeightM, stepSizeM float64,
	terrain []float64,
	climate Climate,
	n0, freqHz float64,
	pol Polarization,
	epsilon, sigma float64,
	mdvar ModeVariability,
	timePct, locationPct, situationPct float64,
) (float64, error) {
	pfl := make([]float64, 0, len(terrain)+2)
	pfl = append(pfl, float64(len(terrain)-1), stepSizeM)
	pfl = append(pfl, terrain...)

	retcode, attenuationDB := engine(
		txHeightM, rxHeightM, pfl, climate, n0, freqHz/1e6,
		pol, epsilon, sigma, mdvar, timePct, locationPct, situationPct,
	)
	return FromRetcode(retcode, attenuationDB)
}
