package sampler

import (
	"encoding/gob"
	"errors"
	"fmt"
	"image"
	"os"
)

// cachedPatch is the serialized form of one patch: raw NRGBA pixels plus
// dimensions, so the round trip is bit-identical.
type cachedPatch struct {
	Width  int
	Height int
	Pix    []byte
}

type cachedTimestep struct {
	Timestep int
	Patches  []cachedPatch
}

// SaveCache writes extracted patch stacks to path in gob encoding. The
// file is written atomically via a temp file next to the target.
func SaveCache(path string, data []TimestepPatches) error {
	encoded := make([]cachedTimestep, len(data))
	for i, ts := range data {
		encoded[i] = cachedTimestep{Timestep: ts.Timestep}
		for _, p := range ts.Patches {
			encoded[i].Patches = append(encoded[i].Patches, cachedPatch{
				Width:  p.Rect.Dx(),
				Height: p.Rect.Dy(),
				Pix:    p.Pix,
			})
		}
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(encoded); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encoding patch cache: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalizing cache file: %w", err)
	}
	return nil
}

// LoadCache reads patch stacks previously written by SaveCache.
func LoadCache(path string) ([]TimestepPatches, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening cache file: %w", err)
	}
	defer f.Close()

	var encoded []cachedTimestep
	if err := gob.NewDecoder(f).Decode(&encoded); err != nil {
		return nil, fmt.Errorf("decoding patch cache %s: %w", path, err)
	}

	out := make([]TimestepPatches, len(encoded))
	for i, ts := range encoded {
		out[i] = TimestepPatches{Timestep: ts.Timestep}
		for _, p := range ts.Patches {
			img := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))
			copy(img.Pix, p.Pix)
			out[i].Patches = append(out[i].Patches, img)
		}
	}
	return out, nil
}

// SampleCached returns cached patch stacks when path exists, otherwise
// runs the sampler and writes the cache before returning.
func (s *Sampler) SampleCached(src FrameSource, path string) ([]TimestepPatches, error) {
	if path == "" {
		return s.Sample(src)
	}
	if data, err := LoadCache(path); err == nil {
		s.log.Info("loaded patch cache", "path", path, "timesteps", len(data))
		return data, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("ignoring unreadable patch cache", "path", path, "error", err)
	}

	data, err := s.Sample(src)
	if err != nil {
		return nil, err
	}
	if err := SaveCache(path, data); err != nil {
		return nil, err
	}
	s.log.Info("wrote patch cache", "path", path, "timesteps", len(data))
	return data, nil
}
