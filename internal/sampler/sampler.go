package sampler

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/overland-robotics/birdview/internal/common"
	"github.com/overland-robotics/birdview/internal/geometry"
	"github.com/overland-robotics/birdview/internal/warp"
)

// Config controls patch extraction.
type Config struct {
	// HistorySize is the temporal window: each output stack covers the
	// current timestep plus up to HistorySize-1 past frames.
	HistorySize int
	// PatchSize is the side length of every output patch in pixels.
	PatchSize int
}

// DefaultConfig mirrors the training setup: a ten-frame window of 128px
// patches.
func DefaultConfig() Config {
	return Config{HistorySize: 10, PatchSize: 128}
}

// TimestepPatches is the output stack for one timestep: the current-frame
// patch first, then the retained history patches ordered by recency
// (offset 1 before offset 2, and so on). Excluded history frames leave no
// placeholder.
type TimestepPatches struct {
	Timestep int
	Patches  []*image.NRGBA
}

// Sampler walks a trajectory and cuts the same physical ground patch out
// of the current frame and each sufficiently overlapping past frame.
type Sampler struct {
	prop *Propagator
	cfg  Config
	log  *slog.Logger
}

// NewSampler builds a sampler around a motion propagator.
func NewSampler(prop *Propagator, cfg Config, log *slog.Logger) (*Sampler, error) {
	if cfg.HistorySize < 1 {
		return nil, fmt.Errorf("%w: history size %d, want >= 1", geometry.ErrConfig, cfg.HistorySize)
	}
	if cfg.PatchSize < 1 {
		return nil, fmt.Errorf("%w: patch size %d, want >= 1", geometry.ErrConfig, cfg.PatchSize)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Sampler{prop: prop, cfg: cfg, log: log}, nil
}

// Sample extracts patch stacks for every timestep t in
// [HistorySize, src.Len()). History frames whose propagated ground
// footprint does not overlap the current patch are skipped silently;
// propagation or warping failures abort the run.
func (s *Sampler) Sample(src FrameSource) ([]TimestepPatches, error) {
	n := src.Len()
	if n <= s.cfg.HistorySize {
		return nil, fmt.Errorf("%w: trajectory has %d frames, need more than %d",
			geometry.ErrConfig, n, s.cfg.HistorySize)
	}

	timer := common.StartPhase("sample")
	out := make([]TimestepPatches, 0, n-s.cfg.HistorySize)
	for t := s.cfg.HistorySize; t < n; t++ {
		stack, err := s.sampleTimestep(src, t)
		if err != nil {
			return nil, fmt.Errorf("timestep %d: %w", t, err)
		}
		out = append(out, stack)
		if (t-s.cfg.HistorySize)%50 == 0 {
			s.log.Debug("sampled timestep", "timestep", t, "patches", len(stack.Patches))
		}
	}
	s.log.Info("sampling complete", "timesteps", len(out), "duration", timer.Stop())
	return out, nil
}

func (s *Sampler) sampleTimestep(src FrameSource, t int) (TimestepPatches, error) {
	ps := s.cfg.PatchSize
	patchH := s.prop.PatchHomography()

	curImg, err := src.ImageAt(t)
	if err != nil {
		return TimestepPatches{}, err
	}
	curRT, err := src.PoseAt(t)
	if err != nil {
		return TimestepPatches{}, err
	}

	anchor, err := warp.Perspective(curImg, patchH, ps, ps)
	if err != nil {
		return TimestepPatches{}, fmt.Errorf("warping current patch: %w", err)
	}
	anchor = warp.EnsureSize(anchor, ps, ps)

	curBox := geometry.NewBox(0, 0, float64(ps), float64(ps))
	footprint := []geometry.Point{
		{X: 0, Y: 0},
		{X: float64(ps), Y: 0},
		{X: float64(ps), Y: float64(ps)},
		{X: 0, Y: float64(ps)},
	}

	stack := TimestepPatches{Timestep: t, Patches: []*image.NRGBA{anchor}}
	for offset := 1; offset < s.cfg.HistorySize; offset++ {
		past := t - offset
		if past < 0 {
			break
		}
		pastRT, err := src.PoseAt(past)
		if err != nil {
			return TimestepPatches{}, err
		}

		// Homography carrying the past frame's image coordinates into
		// the current frame's image coordinates.
		rel, err := s.prop.Relative(curRT, pastRT)
		if err != nil {
			return TimestepPatches{}, fmt.Errorf("history offset %d: %w", offset, err)
		}

		// Where does the past patch footprint land in the current frame?
		moved, err := rel.ApplyAll(footprint)
		if err != nil {
			return TimestepPatches{}, fmt.Errorf("history offset %d footprint: %w", offset, err)
		}
		if !curBox.Overlaps(geometry.BoundingBox(moved)) {
			continue
		}

		pastImg, err := src.ImageAt(past)
		if err != nil {
			return TimestepPatches{}, err
		}
		hPastToPatch, err := s.prop.ToPatch(curRT, pastRT)
		if err != nil {
			return TimestepPatches{}, fmt.Errorf("history offset %d: %w", offset, err)
		}
		patch, err := warp.Perspective(pastImg, hPastToPatch, ps, ps)
		if err != nil {
			return TimestepPatches{}, fmt.Errorf("warping history offset %d: %w", offset, err)
		}
		stack.Patches = append(stack.Patches, warp.EnsureSize(patch, ps, ps))
	}
	return stack, nil
}
