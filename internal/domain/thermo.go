package domain

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	// GasConstant is R in J/(mol K).
	GasConstant = 8.314472
	// MolarHeatCapacity is Cp of dry air in J/(mol K).
	MolarHeatCapacity = 29.19

	// Stull (1988) constants for equivalent potential temperature.
	latentHeatVaporization = 2.5e6  // J/kg
	specificHeatDryAir     = 1005.0 // J/(kg K)
	dryAirGasConstant      = 287.04 // J/(kg K)

	// dobsonPerLayer converts (pO3[i]+pO3[i+1]) mPa times ln(P ratio) to DU.
	dobsonPerLayer = 3.9449

	referencePressureHPa = 1000.0
	zeroCelsiusK         = 273.15
)

// Kelvin converts °C to K.
func Kelvin(tempC float64) float64 { return tempC + zeroCelsiusK }

// WindComponents splits a wind given as speed and the direction it blows from
// into the U and V components used for interpolation.
func WindComponents(speed, dirDeg float64) (u, v float64) {
	rad := dirDeg * math.Pi / 180
	return -speed * math.Cos(rad), -speed * math.Sin(rad)
}

// WindFromComponents recombines U and V into speed and the direction the wind
// blows from, in [0, 360). It inverts [WindComponents]: with U and V defined
// as negated components, atan2(-V, -U) keeps the "from" convention, where
// atan2(V, U) would give the direction the wind blows toward.
func WindFromComponents(u, v float64) (speed, dirDeg float64) {
	speed = math.Hypot(u, v)
	dirDeg = math.Atan2(-v, -u) * 180 / math.Pi
	if dirDeg < 0 {
		dirDeg += 360
	}
	if dirDeg >= 360 {
		dirDeg -= 360
	}
	return speed, dirDeg
}

// SaturationVaporPressure returns Es in hPa for a temperature in K.
func SaturationVaporPressure(tempK float64) float64 {
	return 6.11 * math.Exp(5.42e3*(1/273.0-1/tempK))
}

// SaturationMixingRatio returns Ws (kg/kg) for Es and P in hPa.
func SaturationMixingRatio(es, pressureHPa float64) float64 {
	return 0.622 * es / (pressureHPa - es)
}

// WaterVaporMixingRatio returns the water vapor mixing ratio in g/kg.
func WaterVaporMixingRatio(rhPct, tempK, pressureHPa float64) float64 {
	ws := SaturationMixingRatio(SaturationVaporPressure(tempK), pressureHPa)
	return 1000 * (rhPct / 100) * ws
}

// PotentialTemperature returns Theta in K.
func PotentialTemperature(tempK, pressureHPa float64) float64 {
	return tempK * math.Pow(referencePressureHPa/pressureHPa, GasConstant/MolarHeatCapacity)
}

// EquivalentPotentialTemperature returns Theta_e in K using the Stull (1988)
// latent-heat form; mixingRatio is in g/kg.
func EquivalentPotentialTemperature(tempK, pressureHPa, mixingRatio float64) float64 {
	heated := tempK + (latentHeatVaporization/specificHeatDryAir)*mixingRatio*1e-3
	return heated * math.Pow(referencePressureHPa/pressureHPa, dryAirGasConstant/specificHeatDryAir)
}

// OzoneMixingRatio returns the ozone volume mixing ratio in ppbv from the
// ozone partial pressure (mPa) and air pressure (hPa).
func OzoneMixingRatio(ozoneMPa, pressureHPa float64) float64 {
	return (ozoneMPa * 1e-3) / (pressureHPa * 1e2) * 1e9
}

// OzoneLayer returns the column contribution in DU of the layer between two
// consecutive samples.
func OzoneLayer(ozoneLowMPa, ozoneHighMPa, pressureLowHPa, pressureHighHPa float64) float64 {
	return dobsonPerLayer * (ozoneLowMPa + ozoneHighMPa) * math.Log(pressureLowHPa/pressureHighHPa)
}

// CumulativeOzoneColumn integrates ozone upward over the samples. The column at sample 0
// is 0; at sample i it is the sum of the layers below it. Layers touching a
// missing (NaN) sample add nothing, and the column is NaN at samples whose own
// ozone or pressure is missing.
func CumulativeOzoneColumn(ozoneMPa, pressureHPa []float64) []float64 {
	n := len(ozoneMPa)
	if n == 0 {
		return nil
	}
	layers := make([]float64, n)
	for i := 1; i < n; i++ {
		d := OzoneLayer(ozoneMPa[i-1], ozoneMPa[i], pressureHPa[i-1], pressureHPa[i])
		if math.IsNaN(d) || math.IsInf(d, 0) {
			continue
		}
		layers[i] = d
	}

	col := floats.CumSum(make([]float64, n), layers)
	for i := range col {
		if math.IsNaN(ozoneMPa[i]) || math.IsNaN(pressureHPa[i]) {
			col[i] = math.NaN()
		}
	}
	return col
}

// natives are the per-sample quantities of one ascent-filtered flight.
type natives struct {
	altKm    []float64
	pressure []float64
	tempK    []float64
	rh       []float64
	ozone    []float64
	ppbv     []float64
	u, v     []float64
	theta    []float64
	thetaE   []float64
	mixing   []float64
}

func deriveNatives(p RawFlightProfile) natives {
	n := p.Len()
	out := natives{
		altKm:    make([]float64, n),
		pressure: p.PressureHPa.Floats(),
		tempK:    make([]float64, n),
		rh:       p.RelativeHumidityPct.Floats(),
		ozone:    p.OzonePartialPressureMPa.Floats(),
		ppbv:     make([]float64, n),
		u:        nanSlice(n),
		v:        nanSlice(n),
		theta:    make([]float64, n),
		thetaE:   make([]float64, n),
		mixing:   make([]float64, n),
	}
	tempC := p.TemperatureC.Floats()
	for i := 0; i < n; i++ {
		out.altKm[i] = p.AltitudeM[i].Float() / 1000
		out.tempK[i] = Kelvin(tempC[i])
		out.ppbv[i] = OzoneMixingRatio(out.ozone[i], out.pressure[i])
		out.theta[i] = PotentialTemperature(out.tempK[i], out.pressure[i])
		out.mixing[i] = WaterVaporMixingRatio(out.rh[i], out.tempK[i], out.pressure[i])
		out.thetaE[i] = EquivalentPotentialTemperature(out.tempK[i], out.pressure[i], out.mixing[i])
	}
	if p.HasWind() {
		speed := p.WindSpeedMS.Floats()
		dir := p.WindDirectionDeg.Floats()
		for i := 0; i < n; i++ {
			out.u[i], out.v[i] = WindComponents(speed[i], dir[i])
		}
	}
	return out
}
