package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imbrian/parcel/internal/logging"
)

type shellHarness struct {
	sh      *shell
	out     bytes.Buffer
	logs    bytes.Buffer
	history bytes.Buffer
}

func newShellHarness(t *testing.T, input string) *shellHarness {
	t.Helper()
	_, a := sampleApp(t)

	h := &shellHarness{}
	a.log = logging.New("debug", logging.FormatText, &h.logs)
	h.sh = &shell{
		app:     a,
		in:      strings.NewReader(input),
		out:     &h.out,
		history: &h.history,
	}
	return h
}

func TestShell_RunsCommands(t *testing.T) {
	h := newShellHarness(t, "find-asset react\n\n.findAsset src/app\nlistAssets src/p*\n")

	require.NoError(t, h.sh.run())
	assert.Equal(t, "c3 node_modules/react/index.js\nb2 src/app.js\nsrc/page.js\n", h.out.String())
	assert.Equal(t, "find-asset react\n.findAsset src/app\nlistAssets src/p*\n", h.history.String())
}

func TestShell_Exit(t *testing.T) {
	h := newShellHarness(t, "find-asset react\n.exit\nfind-asset src/app\n")

	require.NoError(t, h.sh.run())
	assert.Equal(t, "c3 node_modules/react/index.js\n", h.out.String())
	assert.Equal(t, "find-asset react\n.exit\n", h.history.String())
}

func TestShell_Prompt(t *testing.T) {
	h := newShellHarness(t, "find-asset react\n")
	h.sh.interactive = true

	require.NoError(t, h.sh.run())
	assert.Equal(t, "> c3 node_modules/react/index.js\n> \n", h.out.String())
}

func TestShell_ErrorsDoNotStopTheShell(t *testing.T) {
	h := newShellHarness(t, strings.Join([]string{
		"find-asset nothing-matches",
		"find-bundle-reason dist/index",
		"bogus",
		"find-asset react",
	}, "\n"))

	require.NoError(t, h.sh.run())

	out := h.out.String()
	assert.Contains(t, out, `Error: asset "nothing-matches": not found`)
	assert.Contains(t, out, "Error: usage: find-bundle-reason <bundle> <asset>")
	assert.Contains(t, out, `Unknown command "bogus"`)
	assert.True(t, strings.HasSuffix(out, "c3 node_modules/react/index.js\n"), out)

	logs := h.logs.String()
	assert.Equal(t, 2, strings.Count(logs, "level=WARN"))
	assert.Contains(t, logs, "command=find-asset")
	assert.Contains(t, logs, "command=find-bundle-reason")
}

func TestShell_RecoversFromPanics(t *testing.T) {
	saved := commands
	t.Cleanup(func() { commands = saved })
	commands = append(append([]command(nil), saved...), command{
		name:  "explode",
		alias: "explode",
		short: "Panic",
		run: func(*app, io.Writer, []string) error {
			panic("boom")
		},
	})

	h := newShellHarness(t, "explode\nfind-asset react\n")

	require.NoError(t, h.sh.run())
	assert.Contains(t, h.out.String(), "Error: explode: internal error: boom\n")
	assert.True(t, strings.HasSuffix(h.out.String(), "c3 node_modules/react/index.js\n"))
	assert.Contains(t, h.logs.String(), "level=ERROR")
	assert.Contains(t, h.logs.String(), "command panicked")
}

func TestShell_Help(t *testing.T) {
	h := newShellHarness(t, ".help\n")

	require.NoError(t, h.sh.run())
	out := h.out.String()
	for _, c := range commands {
		assert.Contains(t, out, c.usage())
	}
	assert.Contains(t, out, ".exit")
}

func TestShell_NoHistory(t *testing.T) {
	h := newShellHarness(t, "stats\n")
	h.sh.history = nil

	require.NoError(t, h.sh.run())
	assert.Contains(t, h.out.String(), "# Asset Graph Node Counts")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestShell_HistoryWriteFailureDisablesHistory(t *testing.T) {
	h := newShellHarness(t, "find-asset react\nfind-asset src/app\n")
	h.sh.history = failingWriter{}

	require.NoError(t, h.sh.run())
	assert.Nil(t, h.sh.history)
	assert.Equal(t, 1, strings.Count(h.logs.String(), "writing history"))
	assert.Equal(t, "c3 node_modules/react/index.js\nb2 src/app.js\n", h.out.String())
}

func TestShell_HistoryRecall(t *testing.T) {
	h := newShellHarness(t, "find-asset react\n.history\n")
	h.sh.past = []string{"stats"}

	require.NoError(t, h.sh.run())
	assert.Equal(t,
		"c3 node_modules/react/index.js\n"+
			"   1  stats\n"+
			"   2  find-asset react\n"+
			"   3  .history\n",
		h.out.String())
}

func TestLoadHistory(t *testing.T) {
	dir := t.TempDir()

	lines, err := loadHistory(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, lines)

	p := filepath.Join(dir, "history")
	require.NoError(t, os.WriteFile(p, []byte("stats\n\n  find-asset react \n"), 0600))
	lines, err = loadHistory(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"stats", "find-asset react"}, lines)

	var b strings.Builder
	for i := 1; i <= historyLimit+5; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	require.NoError(t, os.WriteFile(p, []byte(b.String()), 0600))
	lines, err = loadHistory(p)
	require.NoError(t, err)
	require.Len(t, lines, historyLimit)
	assert.Equal(t, "line 6", lines[0])
	assert.Equal(t, fmt.Sprintf("line %d", historyLimit+5), lines[len(lines)-1])
}
