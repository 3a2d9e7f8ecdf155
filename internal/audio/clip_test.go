package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClipDuration(t *testing.T) {
	c := &Clip{Data: make([]int, 48000), SampleRate: 24000, Channels: 2}
	assert.Equal(t, 24000, c.Frames())
	assert.Equal(t, time.Second, c.Duration())

	assert.Zero(t, (&Clip{}).Duration())
}

func TestRescale(t *testing.T) {
	tests := []struct {
		name     string
		data     []int
		from, to int
		want     []int
	}{
		{name: "same depth", data: []int{1, -1}, from: 16, to: 16, want: []int{1, -1}},
		{name: "24 to 16", data: []int{256, -512}, from: 24, to: 16, want: []int{1, -2}},
		{name: "16 to 24", data: []int{1, -2}, from: 16, to: 24, want: []int{256, -512}},
		{name: "8 to 16", data: []int{128, 255, 0}, from: 8, to: 16, want: []int{0, 127 << 8, -128 << 8}},
		{name: "16 to 8", data: []int{0, -32768}, from: 16, to: 8, want: []int{128, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rescale(tt.data, tt.from, tt.to))
		})
	}
}

func TestSilence(t *testing.T) {
	assert.Equal(t, 128, Silence(8))
	assert.Equal(t, 0, Silence(16))
}

func TestConvertMonoToStereo(t *testing.T) {
	c := &Clip{Data: []int{10, 20}, SampleRate: 48000, Channels: 1, BitDepth: 16}
	out := c.Convert(48000, 2)
	assert.Equal(t, []int{10, 10, 20, 20}, out.Data)
	assert.Equal(t, 2, out.Channels)
}

func TestConvertStereoToMono(t *testing.T) {
	c := &Clip{Data: []int{10, 30, -4, 4}, SampleRate: 48000, Channels: 2, BitDepth: 16}
	out := c.Convert(48000, 1)
	assert.Equal(t, []int{20, 0}, out.Data)
}

func TestConvertResamplesLinearly(t *testing.T) {
	c := &Clip{Data: []int{0, 100, 200, 300}, SampleRate: 24000, Channels: 1, BitDepth: 16}
	out := c.Convert(48000, 1)

	require.Len(t, out.Data, 8)
	assert.Equal(t, []int{0, 50, 100, 150, 200, 250, 300, 300}, out.Data)
	assert.Equal(t, c.Duration(), out.Duration())
}

func TestPCM16Clamps(t *testing.T) {
	c := &Clip{Data: []int{40000, -40000, 1}, BitDepth: 16}
	assert.Equal(t, pcm16(32767, -32768, 1), c.PCM16())
}

func TestMockPlayerRecordsPlayOrder(t *testing.T) {
	var played []string
	mp := NewMockPlayer(MockCallbacks{OnPlay: func(path string) { played = append(played, path) }})

	require.NoError(t, mp.PlayFile(context.Background(), "a.wav"))
	require.NoError(t, mp.PlayFile(context.Background(), "b.wav"))

	assert.Equal(t, int64(2), mp.PlayCount())
	assert.Equal(t, []string{"a.wav", "b.wav"}, played)
	assert.Equal(t, "b.wav", mp.Plays()[1].Path)
}

func TestMockPlayerErrors(t *testing.T) {
	mp := NewMockPlayer(MockCallbacks{})
	boom := errors.New("device gone")
	mp.SetError(boom)

	assert.ErrorIs(t, mp.PlayFile(context.Background(), "a.wav"), boom)
	assert.Zero(t, mp.PlayCount())
}

func TestMockPlayerDecodeFrames(t *testing.T) {
	dir := t.TempDir()
	mp := NewMockPlayer(MockCallbacks{})
	mp.SetDecode(true)

	good := filepath.Join(dir, "good.wav")
	require.NoError(t, WritePCM16(good, pcm16(1, 2, 3), 24000, 1))
	require.NoError(t, mp.PlayFile(context.Background(), good))
	assert.Equal(t, 3, mp.Plays()[0].Clip.Frames())

	bad := filepath.Join(dir, "bad.wav")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0o644))
	assert.Error(t, mp.PlayFile(context.Background(), bad))
}

func TestMockPlayerHonoursContext(t *testing.T) {
	mp := NewMockPlayer(MockCallbacks{})
	mp.SetDelay(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, mp.PlayFile(ctx, "a.wav"), context.Canceled)
}

func TestPlayerVolumeAndState(t *testing.T) {
	p := NewPlayer(nil)
	assert.Equal(t, StateStopped, p.State())
	assert.Equal(t, 1.0, p.Volume())

	require.NoError(t, p.SetVolume(0.5))
	assert.Equal(t, 0.5, p.Volume())
	assert.Error(t, p.SetVolume(1.5))

	require.NoError(t, p.Close())
	assert.Equal(t, StateClosed, p.State())
	assert.ErrorIs(t, p.PlayClip(context.Background(), &Clip{}), ErrPlayerClosed)
	assert.Equal(t, "closed", p.State().String())
}
