package soundprint

import (
	"github.com/tidesound/soundprint/internal/dsp"
	"github.com/tidesound/soundprint/internal/fingerprint"
	"github.com/tidesound/soundprint/internal/match"
)

// Config holds the service's tunables. The zero value is not usable
// directly; New starts from the defaults and applies a set of Options.
type Config struct {
	// DBPath is the SQLite catalog file. Default: "soundprint.sqlite3".
	DBPath string

	// MatchThreshold is M, the minimum modal score for a match.
	// Configuration rather than a hardcoded constant. Default: 5.
	MatchThreshold int

	// Fanout tunes the hash generator's anchor/target pairing.
	// Default: TargetZoneSize=5, AnchorGap=3.
	Fanout fingerprint.Params

	// DecimationFactor overrides the spectrogram's downsampling ratio.
	// Default: dsp.DecimationFactor (4, i.e. 44100Hz -> 11025Hz).
	DecimationFactor int

	// Logger is the logger instance to use. Defaults to
	// logging.Default() if nil.
	Logger Logger

	// Storage is the persistence backend. Defaults to a SQLite-backed
	// catalog.Store at DBPath if nil.
	Storage Storage
}

// Option configures a Config.
type Option func(*Config)

// WithDBPath overrides the SQLite catalog path.
func WithDBPath(path string) Option {
	return func(c *Config) { c.DBPath = path }
}

// WithMatchThreshold overrides M, the minimum modal score for a match.
func WithMatchThreshold(m int) Option {
	return func(c *Config) { c.MatchThreshold = m }
}

// WithFanout overrides the hash generator's target-zone size and
// anchor gap.
func WithFanout(targetZoneSize, anchorGap int) Option {
	return func(c *Config) {
		c.Fanout = fingerprint.Params{TargetZoneSize: targetZoneSize, AnchorGap: anchorGap}
	}
}

// WithDecimationFactor overrides the spectrogram's downsampling ratio.
func WithDecimationFactor(factor int) Option {
	return func(c *Config) { c.DecimationFactor = factor }
}

// WithLogger injects a custom logger.
func WithLogger(l Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithStorage injects a custom storage backend, bypassing DBPath.
func WithStorage(s Storage) Option {
	return func(c *Config) { c.Storage = s }
}

func defaultConfig() Config {
	return Config{
		DBPath:           "soundprint.sqlite3",
		MatchThreshold:   match.DefaultConfig().Threshold,
		Fanout:           fingerprint.DefaultParams(),
		DecimationFactor: dsp.DecimationFactor,
	}
}
