// Package domain reduces Lake Superior surf observations to one judgment per
// spot and hourly time bucket.
//
// # Data Sources
//
// Observations come from independent providers: NOAA marine forecasts, NDBC and
// GLOS wave buoys, and regional wind models. Provider adapters (outside this
// package) normalize each report into an [Observation] with a declared source
// reliability and a freshness window. The package never fetches, stores, or
// renders anything; every function is a pure function of its arguments.
//
// # Pipeline
//
//	observations → Blend → ClassifyWind → ClassifyLikelihood → GenerateInsight
//
// [Aggregate] runs the stages in that order and returns an [AggregatedConditions]
// value. Data flows one way and no stage mutates the output of another.
//
// # Units
//
//	Wave and swell height: feet ("ft"); meters ("m") are converted.
//	Wind speed: mph; knots ("kt"), "m/s" and "km/h" are converted.
//	Water temperature: Fahrenheit ("F"); Celsius ("C") is converted.
//	Period: seconds.
//
// # Wind Exposure
//
// Lake Superior spots sit on two very different coasts. North Shore breaks
// (Duluth to Grand Marais) face southeast into the lake: northwest wind is
// offshore and grooms the faces, while southeast wind blows straight in.
// South Shore breaks (Marquette, Munising, the Apostle Islands) face north, so
// the same northwest wind that cleans up the North Shore is onshore there.
//
// Swell is built by wind far upstream over the lake's fetch; what matters at
// the break is the local wind. The classifier therefore looks only at how the
// local wind meets the spot's coastline, via the per-octant exposure table in
// each [SpotProfile].
//
// # Likelihood Scale
//
//	Flat        nothing rideable
//	Maybe Surf  small or poorly shaped, worth a look
//	Good        rideable waves with decent period and workable wind
//	Firing      overhead-ish lake surf, long period, clean wind
//
// Thresholds are per spot (see [SpotSurfThresholds]) and deliberately
// conservative: reporting surf that is not there is worse than under-reporting.
//
// # Confidence
//
// Disagreeing or stale sources never fail an aggregation. They lower the
// confidence score, set the conflict flag and add explanatory notes, so the
// caller can always show a best-effort, clearly labeled estimate. Only a total
// absence of usable wave data yields [ErrNoData].
package domain
