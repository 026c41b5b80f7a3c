package model

import "fmt"

// DistortionKind selects the distribution used to jitter departure and
// return times.
type DistortionKind int

const (
	// DistortionNone applies no jitter.
	DistortionNone DistortionKind = iota
	DistortionNormal
	DistortionUniform
)

// ParseDistortionKind maps the configuration name to a kind.
func ParseDistortionKind(s string) (DistortionKind, error) {
	switch s {
	case "", "none":
		return DistortionNone, nil
	case "normal":
		return DistortionNormal, nil
	case "uniform":
		return DistortionUniform, nil
	default:
		return DistortionNone, &DistortionError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q, expected normal or uniform", s)}
	}
}

func (k DistortionKind) String() string {
	switch k {
	case DistortionNone:
		return "none"
	case DistortionNormal:
		return "normal"
	case DistortionUniform:
		return "uniform"
	default:
		return fmt.Sprintf("distortion(%d)", int(k))
	}
}

// DistortionSpec configures the stochastic time distortion of a vehicle.
// Realized offsets never exceed MaxDeviationMinutes in magnitude.
type DistortionSpec struct {
	Kind                DistortionKind
	StddevMinutes       *float64 // required for DistortionNormal
	MaxDeviationMinutes float64
	Seed                int64
}

// Validate reports inconsistent distortion settings.
func (d DistortionSpec) Validate() error {
	switch d.Kind {
	case DistortionNone:
		return nil
	case DistortionNormal:
		if d.StddevMinutes == nil {
			return &DistortionError{Field: "stddev_minutes", Reason: "required for normal distortion"}
		}
		if *d.StddevMinutes < 0 {
			return &DistortionError{Field: "stddev_minutes", Reason: fmt.Sprintf("must be >= 0, got %g", *d.StddevMinutes)}
		}
	case DistortionUniform:
	default:
		return &DistortionError{Field: "kind", Reason: fmt.Sprintf("unknown kind %d", int(d.Kind))}
	}
	if d.MaxDeviationMinutes < 0 {
		return &DistortionError{Field: "max_deviation_minutes", Reason: fmt.Sprintf("must be >= 0, got %g", d.MaxDeviationMinutes)}
	}
	return nil
}

// Stddev returns the configured standard deviation or 0.
func (d DistortionSpec) Stddev() float64 {
	if d.StddevMinutes == nil {
		return 0
	}
	return *d.StddevMinutes
}
