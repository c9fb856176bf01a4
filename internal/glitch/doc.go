// Package glitch groups detector triggers into glitch candidates and decides
// which of them are blips.
//
// Responsibilities: time-gap clustering, per-cluster routing (duration or
// median newSNR), representative selection by maximum newSNR, and the
// representative quality cuts.
// Key types: Cluster, Candidate, Params, Result.
//
// The package is pure: no file or database access. Sources live in
// internal/source and internal/catalog; report files in internal/report.
package glitch
