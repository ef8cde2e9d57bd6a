package server

import (
	"context"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/lab1702/langbots/game"
)

const soundSampleRate = beep.SampleRate(48000)

// Cue tones
const (
	fireFrequency      = 880.0
	fireDuration       = 60 * time.Millisecond
	destroyedFrequency = 110.0
	destroyedDuration  = 400 * time.Millisecond
)

// SoundOutput plays a cue when a robot fires and when a robot is destroyed.
// Both are detected by comparing consecutive snapshots.
type SoundOutput struct {
	play  func(beep.Streamer)
	close func()
	prev  map[string]game.Robot
}

// NewSoundOutput plays streamers through play (speaker.Play for the real device)
func NewSoundOutput(play func(beep.Streamer)) *SoundOutput {
	return &SoundOutput{play: play, close: func() {}}
}

// OpenSpeaker initialises the audio device
func OpenSpeaker() (*SoundOutput, error) {
	if err := speaker.Init(soundSampleRate, soundSampleRate.N(100*time.Millisecond)); err != nil {
		return nil, err
	}
	so := NewSoundOutput(func(s beep.Streamer) { speaker.Play(s) })
	so.close = speaker.Close
	return so, nil
}

// Draw compares the snapshot with the previous one and plays the matching cues
func (so *SoundOutput) Draw(_ context.Context, f *game.Field) error {
	if so.prev != nil {
		for name, before := range so.prev {
			now, alive := f.Robots[name]
			switch {
			case !alive:
				so.play(beep.Take(soundSampleRate.N(destroyedDuration), NewToneGenerator(soundSampleRate, destroyedFrequency, destroyedDuration)))
			case now.TimeToFire > before.TimeToFire:
				// Reload countdown was re-armed: a bullet left the turret
				so.play(beep.Take(soundSampleRate.N(fireDuration), NewToneGenerator(soundSampleRate, fireFrequency, fireDuration)))
			}
		}
	}
	so.prev = make(map[string]game.Robot, len(f.Robots))
	for name, r := range f.Robots {
		so.prev[name] = r
	}
	return nil
}

// Close releases the audio device
func (so *SoundOutput) Close() error {
	so.close()
	return nil
}

// ToneGenerator is a sine tone with a linear fade out
type ToneGenerator struct {
	sr    beep.SampleRate
	freq  float64
	total int
	pos   int
}

// NewToneGenerator creates a tone fading to silence over d
func NewToneGenerator(sr beep.SampleRate, freq float64, d time.Duration) *ToneGenerator {
	return &ToneGenerator{sr: sr, freq: freq, total: max(sr.N(d), 1)}
}

func (g *ToneGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)
		envelope := math.Max(0, 1-float64(g.pos)/float64(g.total))
		sample := 0.25 * envelope * math.Sin(2*math.Pi*g.freq*t)

		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *ToneGenerator) Err() error {
	return nil
}
