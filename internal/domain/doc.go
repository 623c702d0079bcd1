// Package domain models river gauge data and the flood-wave events derived
// from it.
//
// # Data Source
//
// Daily water levels come from the national hydrological service's gauge
// archive, exported once per dataset into a directory of CSV and JSON files
// (see the catalog adapter). A run loads the whole archive up front; nothing
// in this package performs I/O.
//
// # Gauge Conventions
//
// River kilometre:
//
//	Distance of the gauge from the river mouth, so upstream gauges carry
//	larger values. Stations are listed in river order and their river km
//	must be strictly monotonic along that order.
//
// Water level:
//
//	Centimetres on the gauge's own scale. The null point (gauge zero, in
//	the same unit relative to the national datum) is added to obtain a
//	level comparable across gauges. Corrected values are rounded to two
//	decimals.
//
// Level group:
//
//	The first official flood-defence alert level, on the gauge's own scale.
//	A peak whose raw level is below it is "yellow", otherwise "red".
//
// Dates:
//
//	ISO calendar dates ("2006-01-02"). Zero padding keeps lexicographic and
//	chronological order identical, so keys compare as plain strings.
//
// # Flood Waves
//
// A peak (delta-peak) is a day whose level beats the delta preceding days
// strictly and the delta following days non-strictly. Peaks of adjacent
// gauges are linked when the downstream peak follows within beta days. The
// resulting directed graph is split into weak components and every
// shortest source-to-sink path is a flood wave. See [DetectPeaks] and
// [BuildEdges].
package domain
