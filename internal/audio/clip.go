package audio

import (
	"encoding/binary"
	"time"
)

// Clip is decoded PCM audio. Data holds interleaved samples at BitDepth;
// 8-bit samples are unsigned as stored in WAV files.
type Clip struct {
	Data       []int
	SampleRate int
	Channels   int
	BitDepth   int
}

// Frames returns the number of sample frames.
func (c *Clip) Frames() int {
	if c.Channels == 0 {
		return 0
	}
	return len(c.Data) / c.Channels
}

// Duration returns the playing time of the clip.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate == 0 {
		return 0
	}
	return time.Duration(c.Frames()) * time.Second / time.Duration(c.SampleRate)
}

// Silence returns the sample value that represents silence at bitDepth.
func Silence(bitDepth int) int {
	if bitDepth == 8 {
		return 128
	}
	return 0
}

// Rescale returns the samples converted from one bit depth to another.
func Rescale(data []int, from, to int) []int {
	out := make([]int, len(data))
	if from == to {
		copy(out, data)
		return out
	}
	for i, v := range data {
		if from == 8 {
			v -= 128
		}
		if to > from {
			v <<= uint(to - from)
		} else {
			v >>= uint(from - to)
		}
		if to == 8 {
			v += 128
		}
		out[i] = v
	}
	return out
}

// Convert returns a copy of c at the given rate and channel count with 16-bit
// samples. Rates are converted by linear interpolation; mono is duplicated
// to every output channel and extra channels are averaged down.
func (c *Clip) Convert(sampleRate, channels int) *Clip {
	data := Rescale(c.Data, c.BitDepth, 16)
	data = remix(data, c.Channels, channels)
	data = resample(data, channels, c.SampleRate, sampleRate)
	return &Clip{Data: data, SampleRate: sampleRate, Channels: channels, BitDepth: 16}
}

// PCM16 encodes 16-bit samples as little-endian bytes.
func (c *Clip) PCM16() []byte {
	out := make([]byte, 2*len(c.Data))
	for i, v := range c.Data {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(clamp16(v))))
	}
	return out
}

func clamp16(v int) int {
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	}
	return v
}

func remix(data []int, from, to int) []int {
	if from == to || from <= 0 {
		return data
	}
	frames := len(data) / from
	out := make([]int, frames*to)
	for f := 0; f < frames; f++ {
		in := data[f*from : f*from+from]
		for ch := 0; ch < to; ch++ {
			switch {
			case from == 1:
				out[f*to+ch] = in[0]
			case to == 1:
				sum := 0
				for _, v := range in {
					sum += v
				}
				out[f*to] = sum / from
			case ch < from:
				out[f*to+ch] = in[ch]
			default:
				out[f*to+ch] = in[from-1]
			}
		}
	}
	return out
}

func resample(data []int, channels, from, to int) []int {
	if from == to || from <= 0 || len(data) == 0 {
		return data
	}
	inFrames := len(data) / channels
	outFrames := int(int64(inFrames) * int64(to) / int64(from))
	out := make([]int, outFrames*channels)
	ratio := float64(from) / float64(to)
	for f := 0; f < outFrames; f++ {
		pos := float64(f) * ratio
		i := int(pos)
		frac := pos - float64(i)
		j := i + 1
		if j >= inFrames {
			j = inFrames - 1
		}
		for ch := 0; ch < channels; ch++ {
			a := float64(data[i*channels+ch])
			b := float64(data[j*channels+ch])
			out[f*channels+ch] = int(a + (b-a)*frac)
		}
	}
	return out
}
