package manager

import (
	"context"
	"os/exec"
	"sync"

	"github.com/pyworkflow/dispatch/pkg/logger"
)

// LookPathFunc resolves an executable name on the search path.
type LookPathFunc func(file string) (string, error)

// Detect probes lookPath for the preferred executable and returns the
// matching descriptor, or Fallback when it cannot be found. It never fails.
func Detect(lookPath LookPathFunc) Descriptor {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if _, err := lookPath(Preferred.Executable()); err == nil {
		return Preferred
	}
	return Fallback
}

// Detector computes the active descriptor at most once per run.
type Detector struct {
	lookPath LookPathFunc
	forced   Descriptor

	once   sync.Once
	result Descriptor
}

// Option configures a Detector.
type Option func(*Detector)

// WithLookPath replaces exec.LookPath, mainly for tests.
func WithLookPath(fn LookPathFunc) Option {
	return func(d *Detector) {
		d.lookPath = fn
	}
}

// WithForced pins the descriptor and skips the PATH probe.
func WithForced(desc Descriptor) Option {
	return func(d *Detector) {
		d.forced = desc
	}
}

func NewDetector(opts ...Option) *Detector {
	d := &Detector{lookPath: exec.LookPath}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Get returns the cached descriptor, probing on first use.
func (d *Detector) Get(ctx context.Context) Descriptor {
	d.once.Do(func() {
		log := logger.FromContext(ctx)
		if d.forced.IsValid() {
			d.result = d.forced
			log.Debug("Using configured environment manager", "manager", d.result)
			return
		}
		d.result = Detect(d.lookPath)
		log.Debug(
			"Detected environment manager",
			"manager", d.result,
			"probed", Preferred.Executable(),
		)
	})
	return d.result
}
