package anim

import (
	"fmt"
	"math/rand/v2"
)

// Rand is the pseudo-random source shared by an engine's tracks.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	// IntN returns a uniform value in [0, n).
	IntN(n int) int
}

// NewRand returns a seeded PCG source.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
}

// Mask is a set of track bits; track i owns bit 1<<i.
type Mask uint32

// MaxTracks is the number of tracks a Mask can address.
const MaxTracks = 32

// Bit returns the mask bit of track i.
func Bit(i int) Mask { return Mask(1) << uint(i) }

// Direction is the stepping direction of a Yoyo track.
type Direction uint8

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Down {
		return "down"
	}
	return "up"
}

// Track is the timing and index state of one animation sequence.
type Track struct {
	desc   Descriptor
	policy Policy
	attrs  Attrs
	bit    Mask

	index int
	dir   Direction
	alarm int
}

// TrackState is a snapshot of a track.
type TrackState struct {
	Index     int
	Direction Direction
	Alarm     int
	Policy    Policy
	Attrs     Attrs
}

// NewTrack builds track number slot from d. The track starts at d.Start,
// moving up, with a restart-rate alarm.
func NewTrack(slot int, d Descriptor, frames int, rng Rand) (*Track, error) {
	if slot < 0 || slot >= MaxTracks {
		return nil, fmt.Errorf("anim: track slot %d out of range: %w", slot, ErrInvalidDescriptor)
	}
	if err := d.Validate(frames); err != nil {
		return nil, fmt.Errorf("anim: track %d: %w", slot, err)
	}
	policy, _ := d.Flags.Policy()
	t := &Track{
		desc:   d,
		policy: policy,
		attrs:  d.Flags.Attrs(),
		bit:    Bit(slot),
		index:  d.Start,
		dir:    Up,
	}
	t.alarm = t.restartRate(rng)
	return t, nil
}

func (t *Track) frameRate(rng Rand) int {
	return 1 + t.desc.BaseFrameRate + rng.IntN(t.desc.FrameRateSpan+1)
}

func (t *Track) restartRate(rng Rand) int {
	return 1 + t.desc.BaseRestartRate + rng.IntN(t.desc.RestartRateSpan+1)
}

// State returns a snapshot of t.
func (t *Track) State() TrackState {
	return TrackState{Index: t.index, Direction: t.dir, Alarm: t.alarm, Policy: t.policy, Attrs: t.attrs}
}

// Descriptor returns the descriptor t was built from.
func (t *Track) Descriptor() Descriptor { return t.desc }

// step advances t by elapsed ticks. stamp is called with the frame index to
// draw when the track fires. It returns the track's candidate for the next
// wakeup; ok is false when the track was blocked and offers none.
func (t *Track) step(elapsed int, active *Mask, rng Rand, stamp func(index int)) (next int, ok bool) {
	if t.alarm > elapsed {
		t.alarm -= elapsed
		return t.alarm, true
	}
	if *active&t.desc.BlockMask != 0 {
		t.alarm = t.restartRate(rng)
		return 0, false
	}
	*active |= t.bit

	stamp(t.index)

	t.alarm = t.frameRate(rng)
	next = t.alarm

	first, last := t.desc.Start, t.desc.Last()
	switch t.policy {
	case PolicyColorXform:
		*active &^= t.bit
		t.alarm = 0
	case PolicyYoyo:
		if t.dir == Up {
			t.index++
			if t.index > last {
				t.dir = Down
				t.index = last
			}
		} else {
			t.index--
			if t.index < first {
				t.dir = Up
				t.index = first
				t.alarm = t.restartRate(rng)
				*active &^= t.bit
			}
		}
	case PolicyCircular:
		t.index++
		if t.index > last {
			t.index = first
			t.alarm = t.restartRate(rng)
			*active &^= t.bit
		}
	case PolicyRandom:
		t.index = first + rng.IntN(t.desc.Count)
		*active &^= t.bit
	}
	return next, true
}

func (t *Track) String() string {
	return fmt.Sprintf("%s policy=%s index=%d dir=%s alarm=%d", t.desc, t.policy, t.index, t.dir, t.alarm)
}
