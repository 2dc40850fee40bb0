package graphics

import (
	"errors"
	"testing"
)

type fakeHost struct {
	frames int
	fail   bool
}

func (h *fakeHost) StepHostFrame(in Input) ([]uint8, []int16, error) {
	if h.fail {
		return nil, nil, errors.New("boom")
	}
	h.frames++
	return make([]uint8, FrameBytes), nil, nil
}

func TestHeadlessRunsRequestedFrames(t *testing.T) {
	h := &fakeHost{}
	b := &HeadlessBackend{MaxFrames: 5}
	if err := b.Run(h, "test", 1, 44100); err != nil {
		t.Fatal(err)
	}
	if h.frames != 5 {
		t.Errorf("ran %d frames, want 5", h.frames)
	}
	if len(b.LastFrame) != FrameBytes {
		t.Error("last frame not captured")
	}
}

func TestHeadlessPropagatesErrors(t *testing.T) {
	h := &fakeHost{fail: true}
	b := &HeadlessBackend{MaxFrames: 2}
	if err := b.Run(h, "test", 1, 44100); err == nil {
		t.Error("host error swallowed")
	}
}

func TestBackendRegistry(t *testing.T) {
	for _, name := range []string{"ebiten", "sdl2", "headless"} {
		b, ok := NewBackend(name)
		if !ok || b.Name() != name {
			t.Errorf("backend %q not constructible", name)
		}
	}
	if _, ok := NewBackend("nope"); ok {
		t.Error("unknown backend accepted")
	}
}
