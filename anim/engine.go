package anim

import (
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"math"
	"strings"

	"github.com/milk9111/commscreen/common"
	"github.com/milk9111/commscreen/content"
)

// FrameInterval is the nominal comm-screen frame period in ticks (ms), 40 fps.
const FrameInterval = 1000 / 40

// Engine owns a set of tracks and the raster they stamp onto. It is not safe
// for concurrent use.
type Engine struct {
	frames   []content.Frame
	tracks   []*Track
	raster   *image.RGBA
	active   Mask
	rng      Rand
	last     int64
	interval int
}

type engineOptions struct {
	rng      Rand
	start    int64
	interval int
	logger   *slog.Logger
}

// Option configures New.
type Option func(*engineOptions)

// WithRand sets the random source. The default is a PCG seeded with 1.
func WithRand(r Rand) Option {
	return func(o *engineOptions) { o.rng = r }
}

// WithStart sets the tick the first Tick call measures from.
func WithStart(now int64) Option {
	return func(o *engineOptions) { o.start = now }
}

// WithFrameInterval overrides FrameInterval as the floor of the delay hint.
func WithFrameInterval(ticks int) Option {
	return func(o *engineOptions) {
		if ticks > 0 {
			o.interval = ticks
		}
	}
}

// WithLogger overrides common.Logger for this engine.
func WithLogger(l *slog.Logger) Option {
	return func(o *engineOptions) { o.logger = l }
}

// New builds an engine over frames, frames[0] being the background, with one
// track per descriptor in order.
func New(frames []content.Frame, descs []Descriptor, opts ...Option) (*Engine, error) {
	o := engineOptions{interval: FrameInterval}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = NewRand(1)
	}
	if o.logger == nil {
		o.logger = common.Logger()
	}

	if len(frames) == 0 {
		return nil, fmt.Errorf("anim: empty catalog: %w", ErrInvalidDescriptor)
	}
	if len(descs) > MaxTracks {
		return nil, fmt.Errorf("anim: %d tracks exceed %d: %w", len(descs), MaxTracks, ErrInvalidDescriptor)
	}

	tracks := make([]*Track, len(descs))
	for i, d := range descs {
		t, err := NewTrack(i, d, len(frames), o.rng)
		if err != nil {
			return nil, err
		}
		tracks[i] = t
	}

	bg := frames[0].Image
	raster := image.NewRGBA(image.Rectangle{Max: bg.Bounds().Size()})
	draw.Draw(raster, raster.Bounds(), bg, bg.Bounds().Min, draw.Src)

	o.logger.Debug("anim: engine built", "frames", len(frames), "tracks", len(tracks))
	return &Engine{
		frames:   frames,
		tracks:   tracks,
		raster:   raster,
		rng:      o.rng,
		last:     o.start,
		interval: o.interval,
	}, nil
}

// Tick advances every track by the ticks elapsed since the previous call
// (or construction) and returns the raster plus the delay until the next
// call is needed. A long stall is applied as one jump.
func (e *Engine) Tick(now int64) (*image.RGBA, int) {
	elapsed := now - e.last
	e.last = now
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > math.MaxInt32 {
		elapsed = math.MaxInt32
	}
	return e.Advance(int(elapsed))
}

// Advance steps every track once by elapsed ticks. The returned raster is
// mutated in place by later calls.
func (e *Engine) Advance(elapsed int) (*image.RGBA, int) {
	next := math.MaxInt
	for _, t := range e.tracks {
		candidate, ok := t.step(elapsed, &e.active, e.rng, e.stamp)
		if ok && candidate < next {
			next = candidate
		}
	}
	if next < e.interval || next == math.MaxInt {
		next = e.interval
	}
	return e.raster, next
}

func (e *Engine) stamp(index int) {
	f := e.frames[index]
	src := f.Image
	draw.Draw(e.raster, f.Bounds(), src, src.Bounds().Min, draw.Over)
}

// Raster returns the shared output raster.
func (e *Engine) Raster() *image.RGBA { return e.raster }

// ActiveMask returns the bits of tracks currently on screen.
func (e *Engine) ActiveMask() Mask { return e.active }

// FrameInterval returns the floor applied to delay hints.
func (e *Engine) FrameInterval() int { return e.interval }

// Tracks returns a snapshot of every track in order.
func (e *Engine) Tracks() []TrackState {
	out := make([]TrackState, len(e.tracks))
	for i, t := range e.tracks {
		out[i] = t.State()
	}
	return out
}

func (e *Engine) String() string {
	var b strings.Builder
	for _, t := range e.tracks {
		b.WriteString(t.String())
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "active=%#x frames=%d", uint32(e.active), len(e.frames))
	return b.String()
}
