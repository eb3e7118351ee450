package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/turing/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lockedBuffer is written by the watch loop while the test reads it.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func writeFlip(t *testing.T, path, input string) {
	t.Helper()
	doc := "start: q0\naccept: done\ninput: \"" + input + "\"\nrules: |\n  q0 0 -> q0 1 R\n  q0 _ -> done _ L\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
}

func TestWatch_RunsAgainOnChange(t *testing.T) {
	app, _ := newApp(t)
	out := &lockedBuffer{}
	app.Out = out

	path := filepath.Join(t.TempDir(), "flip.yaml")
	writeFlip(t, path, "00")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- app.Watch(ctx, cli.RunOptions{Machine: path}) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "waiting for changes to flip.yaml")
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "halted in done after 3 steps: accepted")

	writeFlip(t, path, "000")
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "halted in done after 4 steps: accepted")
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "flip.yaml changed, running again")

	cancel()
	select {
	case err := <-errc:
		assert.True(t, cli.IsInterrupted(err))
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatch_ReportsBrokenFileAndKeepsWatching(t *testing.T) {
	app, _ := newApp(t)
	out := &lockedBuffer{}
	app.Out = out

	path := filepath.Join(t.TempDir(), "flip.yaml")
	require.NoError(t, os.WriteFile(path, []byte("start: q0\nrules: |\n  q0 0 -> q0\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- app.Watch(ctx, cli.RunOptions{Machine: path}) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "waiting for changes")
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "error: ")

	writeFlip(t, path, "0")
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "halted in done after 2 steps: accepted")
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	<-errc
}

func TestWatch_NeedsFile(t *testing.T) {
	app, _ := newApp(t)
	err := app.Watch(context.Background(), cli.RunOptions{Machine: "equal_counts"})
	assert.ErrorIs(t, err, cli.ErrWatchNeedsFile)

	err = app.Watch(context.Background(), cli.RunOptions{Machine: "equal_counts", Interactive: true})
	assert.Error(t, err)
}
