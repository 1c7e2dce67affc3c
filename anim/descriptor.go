// Package anim schedules the ambient animation tracks of a comm screen and
// composites them onto a shared raster.
package anim

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDescriptor reports a descriptor that cannot drive a track.
var ErrInvalidDescriptor = errors.New("anim: invalid descriptor")

// Flags is the raw flag byte of a descriptor.
type Flags uint8

const (
	FlagRandom       Flags = 1 << 0
	FlagCircular     Flags = 1 << 1
	FlagYoyo         Flags = 1 << 2
	FlagWaitTalking  Flags = 1 << 3
	FlagPauseTalking Flags = 1 << 4
	FlagTalkIntro    Flags = 1 << 5
	FlagTalkDone     Flags = 1 << 6
	FlagDisabled     Flags = 1 << 7

	// FlagColorXform shares its bit with FlagPauseTalking.
	FlagColorXform = FlagPauseTalking
)

// Policy selects how a track picks its next frame.
type Policy uint8

const (
	PolicyRandom Policy = iota
	PolicyCircular
	PolicyYoyo
	PolicyColorXform
)

func (p Policy) String() string {
	switch p {
	case PolicyRandom:
		return "random"
	case PolicyCircular:
		return "circular"
	case PolicyYoyo:
		return "yoyo"
	case PolicyColorXform:
		return "colorxform"
	default:
		return fmt.Sprintf("Policy(%d)", uint8(p))
	}
}

// Attrs holds the legacy talking/disabled markers. The scheduler carries them
// but never reads them.
type Attrs struct {
	WaitTalking bool
	TalkIntro   bool
	TalkDone    bool
	Disabled    bool
}

// Policy resolves the flag byte to a policy. ColorXform takes precedence,
// then Yoyo, Circular and Random.
func (f Flags) Policy() (Policy, bool) {
	switch {
	case f&FlagColorXform != 0:
		return PolicyColorXform, true
	case f&FlagYoyo != 0:
		return PolicyYoyo, true
	case f&FlagCircular != 0:
		return PolicyCircular, true
	case f&FlagRandom != 0:
		return PolicyRandom, true
	}
	return 0, false
}

// Attrs extracts the non-policy markers.
func (f Flags) Attrs() Attrs {
	return Attrs{
		WaitTalking: f&FlagWaitTalking != 0,
		TalkIntro:   f&FlagTalkIntro != 0,
		TalkDone:    f&FlagTalkDone != 0,
		Disabled:    f&FlagDisabled != 0,
	}
}

// MaxRate bounds each frame and restart rate field, the range of the 16-bit
// fields tables were authored with.
const MaxRate = 0x7FFF

// Descriptor is the external configuration of one animation track.
type Descriptor struct {
	Start           int
	Count           int
	Flags           Flags
	BaseFrameRate   int
	FrameRateSpan   int
	BaseRestartRate int
	RestartRateSpan int
	BlockMask       Mask
}

// DescriptorFromInts builds a descriptor from the 8-integer table form:
// start, count, flags, base frame rate, frame rate span, base restart rate,
// restart rate span, block mask.
func DescriptorFromInts(v []int) (Descriptor, error) {
	if len(v) != 8 {
		return Descriptor{}, fmt.Errorf("anim: descriptor needs 8 values, got %d: %w", len(v), ErrInvalidDescriptor)
	}
	if v[2] < 0 || v[2] > 0xFF {
		return Descriptor{}, fmt.Errorf("anim: flags %d out of range: %w", v[2], ErrInvalidDescriptor)
	}
	return Descriptor{
		Start:           v[0],
		Count:           v[1],
		Flags:           Flags(v[2]),
		BaseFrameRate:   v[3],
		FrameRateSpan:   v[4],
		BaseRestartRate: v[5],
		RestartRateSpan: v[6],
		BlockMask:       Mask(uint32(v[7])),
	}, nil
}

// Ints returns the 8-integer table form of d.
func (d Descriptor) Ints() []int {
	return []int{d.Start, d.Count, int(d.Flags), d.BaseFrameRate, d.FrameRateSpan, d.BaseRestartRate, d.RestartRateSpan, int(d.BlockMask)}
}

// Last returns the index of the track's final frame.
func (d Descriptor) Last() int { return d.Start + d.Count - 1 }

// Validate checks d against a catalog of frames frames.
func (d Descriptor) Validate(frames int) error {
	var problems []string
	if d.Count < 1 {
		problems = append(problems, fmt.Sprintf("frame count %d < 1", d.Count))
	}
	if d.Start < 0 || d.Start >= frames || (d.Count >= 1 && d.Count > frames-d.Start) {
		problems = append(problems, fmt.Sprintf("%d frames from %d outside catalog of %d", d.Count, d.Start, frames))
	}
	if !rateOK(d.BaseFrameRate) || !rateOK(d.FrameRateSpan) {
		problems = append(problems, fmt.Sprintf("frame rate %d+%d outside [0, %d]", d.BaseFrameRate, d.FrameRateSpan, MaxRate))
	}
	if !rateOK(d.BaseRestartRate) || !rateOK(d.RestartRateSpan) {
		problems = append(problems, fmt.Sprintf("restart rate %d+%d outside [0, %d]", d.BaseRestartRate, d.RestartRateSpan, MaxRate))
	}
	if _, ok := d.Flags.Policy(); !ok {
		problems = append(problems, fmt.Sprintf("flags %#x select no policy", uint8(d.Flags)))
	}
	if len(problems) > 0 {
		return fmt.Errorf("anim: %s: %w", strings.Join(problems, "; "), ErrInvalidDescriptor)
	}
	return nil
}

func rateOK(v int) bool { return v >= 0 && v <= MaxRate }

func (d Descriptor) String() string {
	return fmt.Sprintf("Start[%05d] Frames[%02d] Flags[%02d] FrameRate[%05d] FrameRate2[%05d] Restart[%05d] Restart2[%05d] Block[%010d]",
		d.Start, d.Count, d.Flags, d.BaseFrameRate, d.FrameRateSpan, d.BaseRestartRate, d.RestartRateSpan, d.BlockMask)
}
