package gshadeaux

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// StatsConfig configures a [Stats] overlay.
type StatsConfig struct {
	// Width and Height of the overlay image in pixels. Defaults to 160x48.
	Width, Height int
	// FontSize in points. Defaults to 14.
	FontSize float64
	// Interval over which frame times are averaged. Defaults to half a second.
	Interval time.Duration
	// Font is a TTF blob. Go Regular is used when nil.
	Font []byte
}

// Stats accumulates frame timings and rasterizes them into a small RGBA image
// the renderer draws over the scene.
type Stats struct {
	cfg  StatsConfig
	face font.Face
	img  *image.RGBA

	frames  int
	elapsed time.Duration
	total   int
	fps     float32
	frameMS float32
	dirty   bool
}

// NewStats parses the overlay font and allocates the overlay image.
func NewStats(cfg StatsConfig) (*Stats, error) {
	if cfg.Width == 0 && cfg.Height == 0 {
		cfg.Width, cfg.Height = 160, 48
	}
	if cfg.FontSize == 0 {
		cfg.FontSize = 14
	}
	if cfg.Interval == 0 {
		cfg.Interval = time.Second / 2
	}
	if cfg.Font == nil {
		cfg.Font = goregular.TTF
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.New("invalid stats overlay dimensions")
	} else if cfg.FontSize < 0 || cfg.Interval < 0 {
		return nil, errors.New("negative stats font size or interval")
	}
	ttf, err := truetype.Parse(cfg.Font)
	if err != nil {
		return nil, fmt.Errorf("parsing stats font: %w", err)
	}
	s := &Stats{
		cfg: cfg,
		face: truetype.NewFace(ttf, &truetype.Options{
			Size:    cfg.FontSize,
			Hinting: font.HintingFull,
		}),
		img:   image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height)),
		dirty: true,
	}
	return s, nil
}

// Frame records a rendered frame that took dt. Averages are updated once per interval.
func (s *Stats) Frame(dt time.Duration) {
	s.frames++
	s.total++
	s.elapsed += dt
	if s.elapsed < s.cfg.Interval {
		return
	}
	secs := float32(s.elapsed.Seconds())
	s.fps = float32(s.frames) / secs
	s.frameMS = 1000 * secs / float32(s.frames)
	s.frames = 0
	s.elapsed = 0
	s.dirty = true
}

// FPS returns the frames per second averaged over the last complete interval.
func (s *Stats) FPS() float32 { return s.fps }

// FrameTime returns the mean frame time in milliseconds over the last complete interval.
func (s *Stats) FrameTime() float32 { return s.frameMS }

// TotalFrames returns the amount of frames recorded.
func (s *Stats) TotalFrames() int { return s.total }

// Text returns the overlay's text lines.
func (s *Stats) Text() []string {
	return []string{
		fmt.Sprintf("%.1f FPS", s.fps),
		fmt.Sprintf("%.2f ms", s.frameMS),
	}
}

// Image returns the overlay image, redrawing it if the averages changed since last call.
// The second return value reports whether the image was redrawn and needs re-uploading.
func (s *Stats) Image() (*image.RGBA, bool) {
	if !s.dirty {
		return s.img, false
	}
	s.dirty = false
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(color.RGBA{A: 160}), image.Point{}, draw.Src)
	d := font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(color.RGBA{R: 0, G: 255, B: 160, A: 255}),
		Face: s.face,
	}
	m := s.face.Metrics()
	lineHeight := m.Height
	y := m.Ascent + fixed.I(4)
	for _, line := range s.Text() {
		d.Dot = fixed.Point26_6{X: fixed.I(6), Y: y}
		d.DrawString(line)
		y += lineHeight
	}
	return s.img, true
}
