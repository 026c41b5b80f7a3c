// Package jitter maps a distortion specification and an event identity to a
// bounded, reproducible time offset. Every call seeds its own generator from
// the distortion seed and the event key, so offsets do not depend on the
// order or concurrency in which events are evaluated.
package jitter

import (
	"encoding/binary"
	"math"
	"math/rand/v2"
	"time"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kilianp07/emobts/core/model"
)

// EventKind distinguishes departure from return events.
type EventKind uint8

const (
	Departure EventKind = iota
	Return
)

func (k EventKind) String() string {
	if k == Return {
		return "return"
	}
	return "departure"
}

// EventKey identifies one jittered instant of one vehicle instance.
type EventKey struct {
	Vehicle  int // index of the vehicle spec within its cluster
	Instance int // copy number within the vehicle's Count
	Kind     EventKind
	Day      int // day of year the program is planned on, 0-based
}

// Offset returns the jitter for key in whole minutes. The magnitude never
// exceeds spec.MaxDeviationMinutes.
func Offset(spec model.DistortionSpec, key EventKey) float64 {
	limit := spec.MaxDeviationMinutes
	if limit <= 0 {
		return 0
	}
	var v float64
	switch spec.Kind {
	case model.DistortionNormal:
		d := distuv.Normal{Mu: 0, Sigma: spec.Stddev(), Src: source(spec.Seed, key)}
		v = clip(d.Rand(), limit)
	case model.DistortionUniform:
		d := distuv.Uniform{Min: -limit, Max: limit, Src: source(spec.Seed, key)}
		v = d.Rand()
	default:
		return 0
	}
	return wholeMinutes(v, limit)
}

// Duration converts an offset in minutes to a time.Duration.
func Duration(minutes float64) time.Duration {
	return time.Duration(minutes * float64(time.Minute))
}

func source(seed int64, key EventKey) rand.Source {
	var buf [33]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(seed))
	binary.LittleEndian.PutUint64(buf[8:], uint64(key.Vehicle))
	binary.LittleEndian.PutUint64(buf[16:], uint64(key.Instance))
	binary.LittleEndian.PutUint64(buf[24:], uint64(key.Day))
	buf[32] = byte(key.Kind)
	h := xxhash.Sum64(buf[:])
	return rand.NewPCG(h, h^0x9e3779b97f4a7c15)
}

func clip(v, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, v))
}

// wholeMinutes rounds to the nearest minute unless that would leave the
// allowed range, in which case it truncates toward zero.
func wholeMinutes(v, limit float64) float64 {
	r := math.Round(v)
	if math.Abs(r) > limit {
		r = math.Trunc(v)
	}
	if r == 0 {
		return 0
	}
	return r
}
