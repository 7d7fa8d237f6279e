// Package compileopts carries the tunable knobs threaded from the CLI down
// to Parser.New and ObjectTree-driven compilation, per SPEC_FULL.md's
// ambient-stack section: the parser's recursion guard and progress
// watchdog, whether the unit being compiled is part of the standard
// library (affects Location.InStandardLib stamping), and an injected
// logger, mirroring the teacher's constructor-injection discipline instead
// of package-level globals.
package compileopts

import "github.com/sirupsen/logrus"

// Options configures one compile unit.
type Options struct {
	// MaxExprDepth bounds expression-parsing recursion (spec §4.1's
	// RecursionGuard). Zero means "use the default".
	MaxExprDepth int

	// WatchdogIterations bounds how many consecutive non-advancing parser
	// iterations are tolerated before aborting (spec §4.1's progress
	// watchdog). Zero means "use the default".
	WatchdogIterations int

	// InStandardLibrary marks every Location produced while parsing this
	// unit as InStandardLib, so diagnostics can be filtered or
	// deprioritized for code the user didn't write.
	InStandardLibrary bool

	// Logger receives structured log output from every pipeline stage. A
	// nil Logger defaults to logrus's standard logger, matching the
	// nil-defaulting convention used throughout this module's
	// constructors.
	Logger logrus.FieldLogger
}

const (
	defaultMaxExprDepth        = 150
	defaultWatchdogIterations  = 32
)

// Default returns the Options the CLI uses when the user supplies no
// overrides.
func Default() Options {
	return Options{
		MaxExprDepth:       defaultMaxExprDepth,
		WatchdogIterations: defaultWatchdogIterations,
	}
}

// WithDefaults returns a copy of o with zero-valued numeric fields filled
// in from Default() and a nil Logger replaced by logrus's standard logger.
func (o Options) WithDefaults() Options {
	if o.MaxExprDepth <= 0 {
		o.MaxExprDepth = defaultMaxExprDepth
	}
	if o.WatchdogIterations <= 0 {
		o.WatchdogIterations = defaultWatchdogIterations
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	return o
}
