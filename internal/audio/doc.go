// Package audio reads and writes PCM WAV files and plays them through the
// system audio device using oto/v3.
package audio
