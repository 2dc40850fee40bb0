package graphics

// HeadlessBackend drives the host without any window or audio device.
// Useful for tests and batch runs; it steps frames until the host errors
// or MaxFrames elapse.
type HeadlessBackend struct {
	// MaxFrames bounds the run; 0 means a single frame
	MaxFrames uint64

	// LastFrame holds the final RGBA frame after Run returns
	LastFrame []uint8
}

// Name identifies the backend
func (b *HeadlessBackend) Name() string { return "headless" }

// Run steps the host with no input attached
func (b *HeadlessBackend) Run(host Host, title string, scale int, sampleRate int) error {
	frames := b.MaxFrames
	if frames == 0 {
		frames = 1
	}
	in := Input{SaveSlot: -1, LoadSlot: -1}
	for i := uint64(0); i < frames; i++ {
		rgba, _, err := host.StepHostFrame(in)
		if err != nil {
			return err
		}
		b.LastFrame = rgba
	}
	return nil
}
