// Package domain models ozonesonde (balloon-borne ozone sounding) profiles and
// the cleaning and regularization steps that turn one raw flight into a profile
// on a fixed altitude grid.
//
// # Data Source
//
// Soundings come from two archives for the same station: the WMO Global
// Atmosphere Watch archive (WOUDC, "GAW") and the CR2 Center for Climate and
// Resilience Research archive ("CR2"). Ingestion tooling reduces both to one
// canonical column table (see the csvio adapter) and a reviewer-maintained
// validity table. [MergeArchives] picks the richer record when a launch day
// exists in both.
//
// # Sounding Conventions
//
// Units of the canonical table:
//
//	GPHeight           geopotential height, m (non-monotonic: the balloon bobs)
//	Pressure           hPa
//	Temperature        °C
//	RelativeHumidity   %
//	O3PartialPressure  mPa (negative readings are treated as missing)
//	WindSpeed          m/s, absent for some years
//	WindDirection      degrees, direction the wind blows from
//
// Gridded output uses km for altitude and K for temperature.
//
// Missing values:
//
//	In memory every measurement is a [Value]: either present or missing. The
//	text files use the sentinel 9000 for missing output values; only the
//	csvio adapter knows about it.
//
// # Validity Policy
//
// A reviewer flags each variable group (ozone, temperature, pressure, relative
// humidity, wind) per launch as valid (1), invalid (0) or repeated (-1), and may
// give one bad altitude window [lower, upper] km per group:
//
//	flag != valid          every value of the group becomes missing
//	window depth <= 1 km   samples inside the window are removed, and the
//	                       interpolator bridges the gap linearly
//	window depth  > 1 km   samples inside the window keep their altitude but
//	                       their values become missing
//
// A quantity derived from several groups is valid only if all of them are, and
// inherits the union of their windows. Flights with any group flagged repeated
// are duplicates and never enter the corpus.
//
// # Derived Quantities
//
// With R = 8.314472 J/(mol K) and Cp = 29.19 J/(mol K):
//
//	T_K     = T_C + 273.15
//	U, V    = -S cos(dir), -S sin(dir)
//	Es      = 6.11 exp(5.42e3 (1/273 - 1/T_K))             hPa
//	Ws      = 0.622 Es / (P - Es)
//	W       = 1000 (RH/100) Ws                              g/kg
//	Theta   = T_K (1000/P)^(R/Cp)
//	Theta_e = (T_K + (2.5e6/1005) W 1e-3) (1000/P)^(287.04/1005)   (Stull 1988)
//	O3_ppbv = (O3_mPa 1e-3) / (P 1e2) 1e9
//	dOmega  = 3.9449 (pO3[i] + pO3[i+1]) ln(P[i]/P[i+1])    DU per layer
//
// The ozone column is integrated on measured samples, never on grid points.
// Wind direction on the grid is recombined from interpolated U and V so that
// headings near 0/360 never average to 180.
package domain
