package graphics

import (
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"nengo/internal/ppu"
)

// EbitenBackend runs the core under Ebitengine's game loop
type EbitenBackend struct {
	host  Host
	frame *ebiten.Image

	audioCtx    *audio.Context
	audioPlayer *audio.Player
	audioStream *sampleStream

	err error
}

// Name identifies the backend
func (b *EbitenBackend) Name() string { return "ebiten" }

// Run opens the window and hands control to ebiten
func (b *EbitenBackend) Run(host Host, title string, scale int, sampleRate int) error {
	b.host = host
	b.frame = ebiten.NewImage(ppu.FrameWidth, ppu.FrameHeight)

	b.audioCtx = audio.NewContext(sampleRate)
	b.audioStream = &sampleStream{}
	player, err := b.audioCtx.NewPlayer(b.audioStream)
	if err != nil {
		return fmt.Errorf("audio init: %w", err)
	}
	b.audioPlayer = player
	b.audioPlayer.Play()

	ebiten.SetWindowSize(ppu.FrameWidth*scale, ppu.FrameHeight*scale)
	ebiten.SetWindowTitle(title)
	if err := ebiten.RunGame(b); err != nil {
		return err
	}
	return b.err
}

// Update runs one emulated frame per display frame
func (b *EbitenBackend) Update() error {
	in := b.pollInput()
	if in.Quit {
		return ebiten.Termination
	}

	rgba, samples, err := b.host.StepHostFrame(in)
	if err != nil {
		b.err = err
		return err
	}

	b.frame.WritePixels(rgba)
	b.audioStream.push(samples)
	return nil
}

// Draw scales the NES frame into the window
func (b *EbitenBackend) Draw(screen *ebiten.Image) {
	var op ebiten.DrawImageOptions
	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	op.GeoM.Scale(float64(sw)/ppu.FrameWidth, float64(sh)/ppu.FrameHeight)
	screen.DrawImage(b.frame, &op)
}

// Layout sizes the screen to the window; Draw scales the frame to fill it
func (b *EbitenBackend) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

func (b *EbitenBackend) pollInput() Input {
	in := Input{SaveSlot: -1, LoadSlot: -1}

	press := func(key ebiten.Key) bool { return ebiten.IsKeyPressed(key) }

	if press(ebiten.KeyZ) {
		in.Buttons1 |= 0x01 // A
	}
	if press(ebiten.KeyX) {
		in.Buttons1 |= 0x02 // B
	}
	if press(ebiten.KeyShiftRight) {
		in.Buttons1 |= 0x04 // Select
	}
	if press(ebiten.KeyEnter) {
		in.Buttons1 |= 0x08 // Start
	}
	if press(ebiten.KeyArrowUp) {
		in.Buttons1 |= 0x10
	}
	if press(ebiten.KeyArrowDown) {
		in.Buttons1 |= 0x20
	}
	if press(ebiten.KeyArrowLeft) {
		in.Buttons1 |= 0x40
	}
	if press(ebiten.KeyArrowRight) {
		in.Buttons1 |= 0x80
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		in.Reset = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		in.Quit = true
	}
	for i, key := range []ebiten.Key{ebiten.KeyF1, ebiten.KeyF2, ebiten.KeyF3, ebiten.KeyF4} {
		if inpututil.IsKeyJustPressed(key) {
			in.SaveSlot = i
		}
	}
	for i, key := range []ebiten.Key{ebiten.KeyF5, ebiten.KeyF6, ebiten.KeyF7, ebiten.KeyF8} {
		if inpututil.IsKeyJustPressed(key) {
			in.LoadSlot = i
		}
	}
	return in
}

// sampleStream adapts the drained APU samples into the io.Reader ebiten's
// audio player consumes: mono int16 duplicated into stereo LE.
type sampleStream struct {
	mu  sync.Mutex
	buf []byte
}

func (s *sampleStream) push(samples []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range samples {
		lo, hi := byte(v), byte(uint16(v)>>8)
		s.buf = append(s.buf, lo, hi, lo, hi)
	}
	// cap the backlog at about a quarter second of stereo audio
	const maxBuf = 44100
	if len(s.buf) > maxBuf {
		s.buf = s.buf[len(s.buf)-maxBuf:]
	}
}

// Read feeds the player; silence when the queue runs dry
func (s *sampleStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}
