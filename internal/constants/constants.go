// Package constants defines shared constants used across the application
package constants

import "time"

const (
	// Timeouts
	FiveSecTimeout = 5 * time.Second
	TenSecTimeout  = 10 * time.Second
	OneMinTimeout  = 1 * time.Minute
	FiveMinTimeout = 5 * time.Minute
	DayTimeout     = 24 * time.Hour

	// File formats
	TxtFileFormat  = ".txt"
	YmlFileFormat  = ".yml"
	YamlFileFormat = ".yaml"
	JSONFileFormat = ".json"

	// Permissions
	FilePerm = 0o600
	DirPerm  = 0o750

	// DefaultMaxSwaps bounds the number of enumerated swap configurations per candidate
	DefaultMaxSwaps = 16
	// DefaultSeed seeds the per-candidate PRNG
	DefaultSeed = 34

	// MinSwapValueLen and MaxSwapValueLen bound which values the classifier considers
	MinSwapValueLen = 3
	MaxSwapValueLen = 200

	// TimestampMinYear and TimestampMaxYear bound the timestamp override window, both exclusive
	TimestampMinYear = 1990
	TimestampMaxYear = 2050

	// FloatRejectCeiling is the inclusive upper bound under which a float-looking, non-integer value qualifies
	FloatRejectCeiling = 1e5

	// CandidateWallClockBudget is the per-candidate processing budget before a claim is considered abandoned
	CandidateWallClockBudget = time.Hour
)
