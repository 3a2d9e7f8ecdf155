package mix

import (
	"context"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebooth/internal/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTake(t *testing.T, root, performer, name string, clip *audio.Clip) string {
	t.Helper()
	dir := filepath.Join(root, performer)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, audio.WriteClip(path, clip))
	return path
}

func mono(frames, value int) *audio.Clip {
	data := make([]int, frames)
	for i := range data {
		data[i] = value
	}
	return &audio.Clip{Data: data, SampleRate: 24000, Channels: 1, BitDepth: 16}
}

func options(root string) Options {
	return Options{
		Root:      root,
		Performer: "Kanda",
		Date:      "0314",
		Logger:    log.New(io.Discard),
	}
}

func TestConcatenateInsertsGaps(t *testing.T) {
	tests := []struct {
		name    string
		lengths []int
	}{
		{name: "single take", lengths: []int{1000}},
		{name: "two takes", lengths: []int{1000, 2400}},
		{name: "four takes", lengths: []int{10, 20, 30, 40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			total := 0
			for i, n := range tt.lengths {
				writeTake(t, root, "Kanda", "Kanda_0314_09000"+string(rune('0'+i))+".wav", mono(n, i+1))
				total += n
			}

			out, err := Concatenate(context.Background(), options(root))
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(root, "output", "Kanda", "0314-mixed", "Kanda_0314-mixed.wav"), out)

			clip, err := audio.ReadFile(out)
			require.NoError(t, err)
			assert.Equal(t, total+(len(tt.lengths)-1)*12000, clip.Frames())
			assert.Equal(t, 24000, clip.SampleRate)
			assert.Equal(t, 1, clip.Channels)
		})
	}
}

func TestConcatenateOrderAndSilence(t *testing.T) {
	root := t.TempDir()
	writeTake(t, root, "Kanda", "Kanda_0314_090002.wav", mono(2, 2))
	writeTake(t, root, "Kanda", "Kanda_0314_090001.wav", mono(2, 1))
	writeTake(t, root, "Kanda", "Kanda_0315_090000.wav", mono(5, 9))
	writeTake(t, root, "Kanda", "Sato_0314_090000.wav", mono(5, 9))

	out, err := Concatenate(context.Background(), options(root))
	require.NoError(t, err)

	clip, err := audio.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, 2+12000+2, clip.Frames())
	assert.Equal(t, []int{1, 1}, clip.Data[:2])
	assert.Equal(t, 0, clip.Data[2])
	assert.Equal(t, 0, clip.Data[12001])
	assert.Equal(t, []int{2, 2}, clip.Data[12002:])
}

func TestConcatenateStereo(t *testing.T) {
	root := t.TempDir()
	stereo := &audio.Clip{Data: []int{1, 2, 3, 4}, SampleRate: 48000, Channels: 2, BitDepth: 16}
	writeTake(t, root, "Kanda", "Kanda_0314_a.wav", stereo)
	writeTake(t, root, "Kanda", "Kanda_0314_b.wav", stereo)

	out, err := Concatenate(context.Background(), options(root))
	require.NoError(t, err)

	clip, err := audio.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 2, clip.Channels)
	assert.Equal(t, 2+24000+2, clip.Frames())
}

func TestConcatenateRescalesBitDepth(t *testing.T) {
	root := t.TempDir()
	writeTake(t, root, "Kanda", "Kanda_0314_a.wav", mono(1, 100))
	writeTake(t, root, "Kanda", "Kanda_0314_b.wav", &audio.Clip{Data: []int{256 * 7}, SampleRate: 24000, Channels: 1, BitDepth: 24})

	out, err := Concatenate(context.Background(), options(root))
	require.NoError(t, err)

	clip, err := audio.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 16, clip.BitDepth)
	assert.Equal(t, 7, clip.Data[len(clip.Data)-1])
}

func TestConcatenateChannelMismatch(t *testing.T) {
	root := t.TempDir()
	writeTake(t, root, "Kanda", "Kanda_0314_a.wav", mono(4, 1))
	writeTake(t, root, "Kanda", "Kanda_0314_b.wav", &audio.Clip{Data: []int{1, 2}, SampleRate: 24000, Channels: 2, BitDepth: 16})

	_, err := Concatenate(context.Background(), options(root))
	assert.ErrorIs(t, err, ErrChannelMismatch)
}

func TestConcatenateNothingToDo(t *testing.T) {
	t.Run("missing performer", func(t *testing.T) {
		root := t.TempDir()
		out, err := Concatenate(context.Background(), options(root))
		require.NoError(t, err)
		assert.Empty(t, out)
		assert.NoDirExists(t, filepath.Join(root, "output"))
	})

	t.Run("no matching takes", func(t *testing.T) {
		root := t.TempDir()
		writeTake(t, root, "Kanda", "Kanda_0101_a.wav", mono(4, 1))
		out, err := Concatenate(context.Background(), options(root))
		require.NoError(t, err)
		assert.Empty(t, out)
		assert.NoDirExists(t, filepath.Join(root, "output"))
	})
}

func TestConcatenateDefaultsDate(t *testing.T) {
	root := t.TempDir()
	writeTake(t, root, "Kanda", "Kanda_1225_a.wav", mono(4, 1))

	opts := options(root)
	opts.Date = ""
	opts.Output = filepath.Join(root, "elsewhere")
	opts.Now = func() time.Time { return time.Date(2025, 12, 25, 10, 0, 0, 0, time.UTC) }

	out, err := Concatenate(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "elsewhere", "Kanda", "1225-mixed", "Kanda_1225-mixed.wav"), out)
}

func TestConcatenateHonoursContext(t *testing.T) {
	root := t.TempDir()
	writeTake(t, root, "Kanda", "Kanda_0314_a.wav", mono(4, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Concatenate(ctx, options(root))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcatenateWritesTimeline(t *testing.T) {
	root := t.TempDir()
	writeTake(t, root, "Kanda", "Kanda_0314_a.wav", mono(4, 1))

	out, err := Concatenate(context.Background(), options(root))
	require.NoError(t, err)

	xmlPath := filepath.Join(filepath.Dir(out), "Kanda_0314-mixed_cut.xml")
	data, err := os.ReadFile(xmlPath)
	require.NoError(t, err)

	var doc xmeml
	require.NoError(t, xml.Unmarshal(data, &doc))
	assert.Equal(t, "4", doc.Version)
	assert.Equal(t, "Kanda_0314-mixed_cut", doc.Project.Name)
	assert.Equal(t, "Kanda_0314-mixed_cut", doc.Project.Sequence.Name)
	assert.Equal(t, "Kanda_0314-mixed.wav", doc.Project.Sequence.Media.Audio.ClipItem.Name)
	assert.Equal(t, out, doc.Project.Sequence.Media.Audio.ClipItem.File.Path)
}

func TestTimelineLayout(t *testing.T) {
	data, err := Timeline("/takes/out/Kanda_0314-mixed.wav")
	require.NoError(t, err)

	want := `<?xml version="1.0" encoding="UTF-8"?>
<xmeml version="4">
  <project>
    <name>Kanda_0314-mixed_cut</name>
    <sequence>
      <name>Kanda_0314-mixed_cut</name>
      <media>
        <audio>
          <track>
            <clipitem>
              <name>Kanda_0314-mixed.wav</name>
              <file>
                <filepath>/takes/out/Kanda_0314-mixed.wav</filepath>
              </file>
            </clipitem>
          </track>
        </audio>
      </media>
    </sequence>
  </project>
</xmeml>
`
	assert.Equal(t, want, string(data))
}

func TestFindTakesMissingDir(t *testing.T) {
	files, err := FindTakes(t.TempDir(), "Nobody", "0314")
	require.NoError(t, err)
	assert.Empty(t, files)
}
