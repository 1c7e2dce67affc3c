package anim

import (
	"errors"
	"math"
	"testing"
)

// zeroRand always draws the low end of every range.
type zeroRand struct{}

func (zeroRand) IntN(int) int { return 0 }

// seqRand replays values modulo n.
type seqRand struct {
	vals []int
	i    int
}

func (r *seqRand) IntN(n int) int {
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v % n
}

func mustTrack(t *testing.T, slot int, d Descriptor, frames int, rng Rand) *Track {
	t.Helper()
	tr, err := NewTrack(slot, d, frames, rng)
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}
	return tr
}

// fire steps tr with an elapsed value large enough to expire it and returns
// the index it stamped, or -1.
func fire(tr *Track, active *Mask, rng Rand) int {
	stamped := -1
	tr.step(tr.alarm, active, rng, func(i int) { stamped = i })
	return stamped
}

func TestRatesAtLeastOne(t *testing.T) {
	cases := []struct {
		name       string
		base, span int
	}{
		{"zero_span", 0, 0},
		{"base_only", 7, 0},
		{"span", 0, 5},
		{"both", 3, 9},
	}
	rng := NewRand(42)
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := Descriptor{Start: 0, Count: 1, Flags: FlagCircular,
				BaseFrameRate: c.base, FrameRateSpan: c.span,
				BaseRestartRate: c.base, RestartRateSpan: c.span}
			tr := mustTrack(t, 0, d, 1, rng)
			for i := 0; i < 500; i++ {
				for _, v := range []int{tr.frameRate(rng), tr.restartRate(rng)} {
					if v < 1 || v < 1+c.base || v > 1+c.base+c.span {
						t.Fatalf("rate %d outside [%d, %d]", v, 1+c.base, 1+c.base+c.span)
					}
				}
			}
			if c.span == 0 && tr.frameRate(rng) != 1+c.base {
				t.Fatalf("zero span should be deterministic")
			}
		})
	}
}

func TestYoyoSequence(t *testing.T) {
	d := Descriptor{Start: 0, Count: 3, Flags: FlagYoyo, BaseRestartRate: 99}
	rng := zeroRand{}
	tr := mustTrack(t, 0, d, 3, rng)
	var active Mask

	want := []int{0, 1, 2, 2, 1, 0, 0, 1}
	for i, w := range want {
		got := fire(tr, &active, rng)
		if got != w {
			t.Fatalf("stamp %d: expected index %d, got %d", i, w, got)
		}
		switch i {
		case 2:
			if tr.dir != Down || active&Bit(0) == 0 {
				t.Fatalf("expected flip to down while staying active, dir=%s active=%#x", tr.dir, active)
			}
		case 5:
			if tr.dir != Up || tr.index != 0 {
				t.Fatalf("expected flip back up at start, dir=%s index=%d", tr.dir, tr.index)
			}
			if tr.alarm != 100 {
				t.Fatalf("expected restart alarm 100, got %d", tr.alarm)
			}
			if active&Bit(0) != 0 {
				t.Fatalf("bit should clear after a full cycle")
			}
		}
	}
}

func TestCircularWrapsWithOnePause(t *testing.T) {
	d := Descriptor{Start: 0, Count: 4, Flags: FlagCircular, BaseFrameRate: 4, BaseRestartRate: 49}
	rng := zeroRand{}
	tr := mustTrack(t, 0, d, 4, rng)
	var active Mask

	wantIdx := []int{0, 1, 2, 3, 0, 1, 2, 3, 0}
	pauses := 0
	for i, w := range wantIdx {
		if got := fire(tr, &active, rng); got != w {
			t.Fatalf("stamp %d: expected %d, got %d", i, w, got)
		}
		switch tr.alarm {
		case 5:
		case 50:
			pauses++
			if w != 3 {
				t.Fatalf("restart pause after index %d, want only after the last", w)
			}
			if active&Bit(0) != 0 {
				t.Fatalf("bit should clear on wrap")
			}
		default:
			t.Fatalf("unexpected alarm %d", tr.alarm)
		}
	}
	if pauses != 2 {
		t.Fatalf("expected one pause per wrap (2), got %d", pauses)
	}
}

func TestColorXformRearmsImmediately(t *testing.T) {
	d := Descriptor{Start: 1, Count: 2, Flags: FlagColorXform | FlagYoyo, BaseFrameRate: 10}
	rng := zeroRand{}
	tr := mustTrack(t, 3, d, 3, rng)
	var active Mask

	fire(tr, &active, rng)
	for i := 0; i < 5; i++ {
		stamped := -1
		next, ok := tr.step(0, &active, rng, func(idx int) { stamped = idx })
		if stamped != 1 {
			t.Fatalf("expected stamp of index 1 every tick, got %d", stamped)
		}
		if !ok || next != 11 {
			t.Fatalf("expected frame-rate candidate 11, got %d ok=%v", next, ok)
		}
		if tr.alarm != 0 || active != 0 {
			t.Fatalf("expected alarm 0 and cleared bit, alarm=%d active=%#x", tr.alarm, active)
		}
	}
}

func TestRandomStaysInRange(t *testing.T) {
	d := Descriptor{Start: 2, Count: 5, Flags: FlagRandom, FrameRateSpan: 3, RestartRateSpan: 3}
	rng := NewRand(7)
	tr := mustTrack(t, 1, d, 7, rng)
	var active Mask
	seen := map[int]bool{}
	for i := 0; i < 1000; i++ {
		idx := fire(tr, &active, rng)
		if idx < 2 || idx > 6 || tr.index < 2 || tr.index > 6 {
			t.Fatalf("index out of range: stamped %d next %d", idx, tr.index)
		}
		if active != 0 {
			t.Fatalf("random track should clear its bit")
		}
		seen[idx] = true
	}
	if len(seen) != 5 {
		t.Fatalf("expected every frame to be drawn eventually, saw %v", seen)
	}
}

func TestRandomUsesSharedSource(t *testing.T) {
	d := Descriptor{Start: 0, Count: 3, Flags: FlagRandom}
	// draws: construction restart, then frame rate and index per firing
	rng := &seqRand{vals: []int{0, 0, 0, 0, 2}}
	tr := mustTrack(t, 0, d, 3, rng)
	var active Mask
	fire(tr, &active, rng)
	if tr.index != 0 {
		t.Fatalf("expected index 0, got %d", tr.index)
	}
	fire(tr, &active, rng)
	if tr.index != 2 {
		t.Fatalf("expected index 2, got %d", tr.index)
	}
}

func TestWaitingTrackCountsDown(t *testing.T) {
	d := Descriptor{Start: 0, Count: 1, Flags: FlagCircular, BaseRestartRate: 99}
	rng := zeroRand{}
	tr := mustTrack(t, 0, d, 1, rng)
	var active Mask

	next, ok := tr.step(30, &active, rng, func(int) { t.Fatalf("waiting track must not stamp") })
	if !ok || next != 70 || tr.alarm != 70 {
		t.Fatalf("expected alarm 70, got next=%d alarm=%d", next, tr.alarm)
	}
	// alarm == elapsed expires
	stamped := false
	tr.step(70, &active, rng, func(int) { stamped = true })
	if !stamped {
		t.Fatalf("expected the track to fire when elapsed reaches the alarm")
	}
}

func TestBlockedTrackDefers(t *testing.T) {
	d := Descriptor{Start: 0, Count: 1, Flags: FlagCircular, BaseRestartRate: 20, BlockMask: Bit(0)}
	rng := zeroRand{}
	tr := mustTrack(t, 1, d, 1, rng)
	active := Bit(0)

	next, ok := tr.step(tr.alarm, &active, rng, func(int) { t.Fatalf("blocked track must not stamp") })
	if ok {
		t.Fatalf("blocked track offers no candidate, got %d", next)
	}
	if tr.alarm != 21 || active != Bit(0) {
		t.Fatalf("expected restart alarm 21 and untouched mask, alarm=%d active=%#x", tr.alarm, active)
	}
}

func TestFlagsPolicyAndAttrs(t *testing.T) {
	cases := []struct {
		name  string
		flags Flags
		want  Policy
		ok    bool
	}{
		{"random", FlagRandom, PolicyRandom, true},
		{"circular", FlagCircular, PolicyCircular, true},
		{"yoyo_over_circular", FlagYoyo | FlagCircular, PolicyYoyo, true},
		{"colorxform_first", FlagColorXform | FlagYoyo | FlagRandom, PolicyColorXform, true},
		{"talking_markers_only", FlagWaitTalking | FlagTalkIntro, 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := c.flags.Policy()
			if ok != c.ok || (ok && got != c.want) {
				t.Fatalf("expected %s/%v, got %s/%v", c.want, c.ok, got, ok)
			}
		})
	}

	a := (FlagCircular | FlagWaitTalking | FlagDisabled).Attrs()
	if !a.WaitTalking || !a.Disabled || a.TalkIntro || a.TalkDone {
		t.Fatalf("unexpected attrs %+v", a)
	}
}

func TestDescriptorValidate(t *testing.T) {
	cases := []struct {
		name string
		d    Descriptor
		ok   bool
	}{
		{"valid_zero_spans", Descriptor{Start: 1, Count: 2, Flags: FlagRandom}, true},
		{"zero_count", Descriptor{Start: 1, Count: 0, Flags: FlagRandom}, false},
		{"past_catalog", Descriptor{Start: 2, Count: 3, Flags: FlagRandom}, false},
		{"negative_start", Descriptor{Start: -1, Count: 1, Flags: FlagRandom}, false},
		{"negative_span", Descriptor{Start: 0, Count: 1, Flags: FlagRandom, FrameRateSpan: -1}, false},
		{"negative_restart", Descriptor{Start: 0, Count: 1, Flags: FlagRandom, BaseRestartRate: -3}, false},
		{"no_policy", Descriptor{Start: 0, Count: 1, Flags: FlagTalkDone}, false},
		{"start_past_catalog", Descriptor{Start: 4, Count: 1, Flags: FlagRandom}, false},
		{"huge_count", Descriptor{Start: 2, Count: math.MaxInt, Flags: FlagRandom}, false},
		{"last_frame", Descriptor{Start: 3, Count: 1, Flags: FlagRandom}, true},
		{"max_rates", Descriptor{Start: 0, Count: 1, Flags: FlagRandom, BaseFrameRate: MaxRate, FrameRateSpan: MaxRate, BaseRestartRate: MaxRate, RestartRateSpan: MaxRate}, true},
		{"huge_frame_span", Descriptor{Start: 0, Count: 1, Flags: FlagRandom, FrameRateSpan: math.MaxInt}, false},
		{"huge_restart_span", Descriptor{Start: 0, Count: 1, Flags: FlagRandom, RestartRateSpan: math.MaxInt}, false},
		{"rate_over_max", Descriptor{Start: 0, Count: 1, Flags: FlagRandom, BaseRestartRate: MaxRate + 1}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.d.Validate(4)
			if c.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !c.ok && !errors.Is(err, ErrInvalidDescriptor) {
				t.Fatalf("expected ErrInvalidDescriptor, got %v", err)
			}
		})
	}
}

func TestDescriptorFromInts(t *testing.T) {
	d, err := DescriptorFromInts([]int{1, 3, 2, 10, 5, 100, 50, 6})
	if err != nil {
		t.Fatalf("DescriptorFromInts: %v", err)
	}
	want := Descriptor{Start: 1, Count: 3, Flags: FlagCircular, BaseFrameRate: 10, FrameRateSpan: 5,
		BaseRestartRate: 100, RestartRateSpan: 50, BlockMask: Bit(1) | Bit(2)}
	if d != want {
		t.Fatalf("expected %+v, got %+v", want, d)
	}
	if got := d.Ints(); len(got) != 8 || got[7] != 6 {
		t.Fatalf("unexpected ints %v", got)
	}
	if _, err := DescriptorFromInts([]int{1, 2, 3}); !errors.Is(err, ErrInvalidDescriptor) {
		t.Fatalf("expected ErrInvalidDescriptor for short tuple, got %v", err)
	}
	if _, err := DescriptorFromInts([]int{0, 1, 300, 0, 0, 0, 0, 0}); !errors.Is(err, ErrInvalidDescriptor) {
		t.Fatalf("expected ErrInvalidDescriptor for wide flags, got %v", err)
	}
}
