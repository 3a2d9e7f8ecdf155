package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebooth/internal/audio"
	"github.com/dgnsrekt/voicebooth/internal/config"
	"github.com/dgnsrekt/voicebooth/internal/performer"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMixTakes(t *testing.T) {
	root := t.TempDir()
	prev := cfg
	cfg = config.Config{Root: root, Output: filepath.Join(root, "output")}
	t.Cleanup(func() { cfg = prev })

	dir := filepath.Join(root, "Kanda")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range []string{"Kanda_0314_090000.wav", "Kanda_0314_100000.wav"} {
		require.NoError(t, audio.WritePCM16(filepath.Join(dir, name), []byte{1, 0, 2, 0}, 24000, 1))
	}

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	require.NoError(t, mixTakes(context.Background(), cmd, "Kanda", "0314"))
	want := filepath.Join(root, "output", "Kanda", "0314-mixed", "Kanda_0314-mixed.wav")
	assert.Equal(t, "Mixed takes into "+want+"\n", out.String())
	assert.FileExists(t, want)

	out.Reset()
	err := mixTakes(context.Background(), cmd, "Sato", "0314")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no takes found for Sato")
	assert.Equal(t, "No takes to mix for Sato\n", out.String())
}

func TestMixModeRequiresPerformer(t *testing.T) {
	t.Setenv("VOICEBOOTH_ROOT", t.TempDir())

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs([]string{"--mix"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		mixMode = false
	})

	err := rootCmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--mix requires --performer")
	assert.Equal(t, "Specify a performer with --performer to mix.\n", out.String())
}

func TestListPerformers(t *testing.T) {
	registry := performer.FromEntries(map[string]performer.Entry{
		"Kanda": {SystemPrompt: "ballad", HasVoice: true, Voice: "ballad", Speed: 1.0},
		"佐藤":    {SystemPrompt: "sage", Speed: performer.DefaultSpeed},
	}, log.New(&bytes.Buffer{}))

	var out bytes.Buffer
	listPerformers(&out, registry)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Kanda")
	assert.Contains(t, lines[0], "ballad")
	assert.Contains(t, lines[1], "佐藤")
	assert.Contains(t, lines[1], "1.3")
	assert.Contains(t, lines[1], "alloy")
}
