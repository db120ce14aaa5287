package manager

import (
	"fmt"
	"strings"
)

// Descriptor identifies the package/environment manager style used to
// invoke project tooling.
type Descriptor string

const (
	// UV runs tools through `uv run` and syncs with `uv sync`.
	UV Descriptor = "uv"
	// Pip runs tools as interpreter modules (`python -m`). It is assumed to be
	// available everywhere and is the fallback.
	Pip Descriptor = "pip"
)

// Preferred is the manager probed for on PATH.
const Preferred = UV

// Fallback is used when the preferred executable is not discoverable.
const Fallback = Pip

// All returns every supported descriptor in a stable order.
func All() []Descriptor {
	return []Descriptor{UV, Pip}
}

func (d Descriptor) String() string {
	return string(d)
}

// Executable returns the binary probed on PATH for this descriptor.
func (d Descriptor) Executable() string {
	switch d {
	case UV:
		return "uv"
	default:
		return "python"
	}
}

// IsValid reports whether d is a supported descriptor.
func (d Descriptor) IsValid() bool {
	switch d {
	case UV, Pip:
		return true
	default:
		return false
	}
}

// ParseDescriptor converts a config or flag value into a Descriptor.
func ParseDescriptor(s string) (Descriptor, error) {
	d := Descriptor(strings.ToLower(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", fmt.Errorf("unsupported environment manager %q (supported: uv, pip)", s)
	}
	return d, nil
}
