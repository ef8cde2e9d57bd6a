package server

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"io"
	"math"
	"os"

	"github.com/lab1702/langbots/game"
)

var (
	arenaColor  = color.RGBA{R: 0, G: 40, B: 0, A: 255}
	bulletColor = color.RGBA{R: 255, G: 200, B: 0, A: 255}
	frameColors = []color.RGBA{
		{R: 60, G: 90, B: 255, A: 255},
		{R: 230, G: 40, B: 40, A: 255},
		{R: 240, G: 220, B: 40, A: 255},
		{R: 200, G: 60, B: 220, A: 255},
		{R: 40, G: 210, B: 210, A: 255},
		{R: 240, G: 240, B: 240, A: 255},
	}
	turretColor = color.RGBA{R: 20, G: 20, B: 20, A: 255}
)

// FrameOutput renders each snapshot to a JPEG and appends it to a stream.
// Concatenated JPEGs form an MJPEG stream (ffmpeg -f mjpeg -i file).
type FrameOutput struct {
	w       *bufio.Writer
	closer  io.Closer
	quality int
	colors  map[string]color.RGBA
}

// NewFrameOutput writes frames to w
func NewFrameOutput(w io.Writer) *FrameOutput {
	fo := &FrameOutput{w: bufio.NewWriter(w), quality: 85, colors: make(map[string]color.RGBA)}
	if c, ok := w.(io.Closer); ok {
		fo.closer = c
	}
	return fo
}

// CreateFrameFile opens (truncating) a video file
func CreateFrameFile(path string) (*FrameOutput, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create video: %w", err)
	}
	return NewFrameOutput(f), nil
}

// Draw encodes one frame
func (fo *FrameOutput) Draw(_ context.Context, f *game.Field) error {
	if err := jpeg.Encode(fo.w, fo.Render(f), &jpeg.Options{Quality: fo.quality}); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	return nil
}

// Render draws the field at one pixel per arena unit
func (fo *FrameOutput) Render(f *game.Field) *image.RGBA {
	width, height := f.Config.ArenaSize()
	w, h := int(math.Ceil(width)), int(math.Ceil(height))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: arenaColor}, image.Point{}, draw.Src)

	for _, r := range f.SortedRobots() {
		c := fo.colorOf(r.Name)
		polygon := game.RobotPolygon(r)
		minX, minY, maxX, maxY := game.Bounds(polygon)
		for y := max(int(minY), 0); y <= min(int(maxY), h-1); y++ {
			for x := max(int(minX), 0); x <= min(int(maxX), w-1); x++ {
				if game.PointInConvexPolygon(game.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}, polygon) {
					img.SetRGBA(x, y, c)
				}
			}
		}

		// Turret barrel from the center to the tip
		length := r.Height / game.TurretLengthFactor
		rad := game.ToRad(r.Angle + r.TurretAngle)
		for step := 0.0; step <= length; step += 0.5 {
			px := int(r.X + step*math.Cos(rad))
			py := int(r.Y - step*math.Sin(rad))
			fillSquare(img, px, py, 1, turretColor)
		}
	}

	for _, b := range f.Bullets {
		fillSquare(img, int(b.X), int(b.Y), 2, bulletColor)
	}
	return img
}

func fillSquare(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	rect := image.Rect(cx-radius, cy-radius, cx+radius+1, cy+radius+1).Intersect(img.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func (fo *FrameOutput) colorOf(name string) color.RGBA {
	c, ok := fo.colors[name]
	if !ok {
		c = frameColors[len(fo.colors)%len(frameColors)]
		fo.colors[name] = c
	}
	return c
}

// Close flushes the stream
func (fo *FrameOutput) Close() error {
	err := fo.w.Flush()
	if fo.closer != nil {
		if cerr := fo.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
