package audio

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pcm16(samples ...int16) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

func TestWritePCM16Header(t *testing.T) {
	path := filepath.Join(t.TempDir(), "take.wav")
	require.NoError(t, WritePCM16(path, pcm16(1, -1, 300, -300), 24000, 1))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(data), 44)

	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[20:22]), "PCM format tag")
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[22:24]), "channels")
	assert.Equal(t, uint32(24000), binary.LittleEndian.Uint32(data[24:28]), "sample rate")
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(data[34:36]), "bit depth")
}

func TestWritePCM16RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "take.wav")
	require.NoError(t, WritePCM16(path, pcm16(0, 1000, -1000, 32767, -32768), 24000, 1))

	clip, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1000, -1000, 32767, -32768}, clip.Data)
	assert.Equal(t, 24000, clip.SampleRate)
	assert.Equal(t, 1, clip.Channels)
	assert.Equal(t, 16, clip.BitDepth)
	assert.Equal(t, 5, clip.Frames())
}

func TestWritePCM16IgnoresOddByte(t *testing.T) {
	path := filepath.Join(t.TempDir(), "take.wav")
	require.NoError(t, WritePCM16(path, append(pcm16(7, 8), 0xff), 24000, 1))

	clip, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []int{7, 8}, clip.Data)
}

func TestWriteClipStereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	in := &Clip{Data: []int{1, 2, 3, 4, 5, 6}, SampleRate: 44100, Channels: 2, BitDepth: 16}
	require.NoError(t, WriteClip(path, in))

	out, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, 3, out.Frames())
}

func TestWriteClipRejectsBadFormat(t *testing.T) {
	err := WriteClip(filepath.Join(t.TempDir(), "x.wav"), &Clip{SampleRate: 24000})
	assert.Error(t, err)
}

func TestReadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadFile(filepath.Join(dir, "missing.wav"))
	assert.Error(t, err)

	junk := filepath.Join(dir, "junk.wav")
	require.NoError(t, os.WriteFile(junk, []byte("definitely not a riff file"), 0o644))
	_, err = ReadFile(junk)
	assert.ErrorIs(t, err, ErrNotWAV)
}
