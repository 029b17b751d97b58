// Package domain models ECMWF S2S ensemble precipitation forecast data and
// the shaping operations performed on it.
//
// # Data Source
//
// Forecast grids originate from the ECMWF sub-seasonal to seasonal (S2S)
// realtime archive, stream "enfo", parameter 228228 (total precipitation).
// Each archive covers one forecast base date at 00 UTC with valid times every
// six hours out to step 144. Two forecast types exist per date:
//
//	pf  perturbed forecast — the ensemble runs, member axis "number"
//	cf  control forecast   — the single unperturbed baseline, no member axis
//
// The downloader stores archives as netCDF under the names
// enfo_pf_YYYY_MM_DD.nc / enfo_cf_YYYY_MM_DD.nc; the netcdf adapter decodes
// them into [Grid] values.
//
// # Axis Conventions
//
// Depending on the producing tool chain, the spatial axes of an archive are
// named either latitude/longitude or lat/lon. A grid must use exactly one
// convention. [SubsetRegion] accepts both; [ExtractLocation] requires the
// long form, matching the layout of the archives it is fed. Latitude axes
// commonly descend (north to south) and both orientations are handled.
//
// The time axis is strictly non-decreasing; archives with unparseable time
// entries are rejected at load time and never reach this package.
//
// # Shaping Operations
//
// [SubsetRegion] narrows a grid to a rectangular latitude/longitude window by
// exact coordinate membership. [ExtractLocation] interpolates a grid to one
// point (bilinear, extrapolating outside the sampled domain) and reduces the
// ensemble axis to a mean and a population standard deviation — population,
// not sample, because the ensemble members are the entire population of runs
// for the date, not a sample from a larger one.
//
// Both operations are pure: they never mutate their input grid and hold no
// state between calls, so they are safe to invoke concurrently as long as the
// input grid itself is not being mutated.
//
// # Errors
//
// [SchemaError] marks a grid that is structurally unusable (missing axis or
// variable, unrecognized naming convention). [DomainError] marks an operation
// that is undefined for an otherwise well-formed grid, such as an ensemble
// reduction over a control forecast. Both are raised before any computation;
// there is no partial-result mode.
package domain
