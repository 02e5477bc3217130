package watch_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/LegacyCodeHQ/shaderinc/cmd/watch"
	"github.com/LegacyCodeHQ/shaderinc/internal/app"
	"github.com/LegacyCodeHQ/shaderinc/internal/clilog"
	"github.com/LegacyCodeHQ/shaderinc/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(path string) string {
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(content)
}

func startWatch(t *testing.T, cfg config.Config, args ...string) (*syncBuffer, context.CancelFunc, <-chan error) {
	t.Helper()

	stdout := &syncBuffer{}
	env := &app.Env{Config: &cfg, Logger: clilog.Discard()}
	cmd := watch.NewCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(&syncBuffer{})
	cmd.SetArgs(append(args, "--debounce", "20ms"))

	ctx, cancel := context.WithCancel(app.WithEnv(context.Background(), env))
	done := make(chan error, 1)
	finished := make(chan struct{})
	go func() {
		done <- cmd.ExecuteContext(ctx)
		close(finished)
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case <-finished:
		case <-time.After(5 * time.Second):
			t.Error("watch did not stop after cancel")
		}
	})

	return stdout, cancel, done
}

func TestWatch_RebuildsWhenIncludedFileChanges(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	writeFile(t, filepath.Join(root, "main.frag"), "#include \"lib/color.glsl\"\nvoid main() {}\n")
	writeFile(t, filepath.Join(root, "lib", "color.glsl"), "vec3 color = vec3(1.0);\n")
	output := filepath.Join(t.TempDir(), "main.out")

	stdout, _, _ := startWatch(t, config.Config{Root: root, TrackDependencies: true}, "main.frag", "-o", output)

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(stdout.String()), []byte("Watching 2 file(s)"))
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "vec3 color = vec3(1.0);\n\nvoid main() {}\n", readFile(output))

	writeFile(t, filepath.Join(root, "lib", "color.glsl"), "vec3 color = vec3(0.5);\n")

	require.Eventually(t, func() bool {
		return readFile(output) == "vec3 color = vec3(0.5);\n\nvoid main() {}\n"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatch_KeepsRunningAfterFailedRebuild(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	entry := filepath.Join(root, "main.frag")
	writeFile(t, entry, "void main() {}\n")
	output := filepath.Join(t.TempDir(), "main.out")

	stdout, _, done := startWatch(t, config.Config{Root: root, TrackDependencies: true}, "main.frag", "-o", output)

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(stdout.String()), []byte("Watching 1 file(s)"))
	}, 5*time.Second, 10*time.Millisecond)

	writeFile(t, entry, "#include \"missing.glsl\"\n")
	time.Sleep(200 * time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("watch stopped after a failed rebuild: %v", err)
	default:
	}
	assert.Equal(t, "void main() {}\n", readFile(output))

	writeFile(t, entry, "void main() { discard; }\n")
	require.Eventually(t, func() bool {
		return readFile(output) == "void main() { discard; }\n"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatch_InitialFailureIsReturned(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.frag"), "#include \"missing.glsl\"\n")

	_, _, done := startWatch(t, config.Config{Root: root}, "main.frag", "-o", filepath.Join(t.TempDir(), "out"))

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "initial expansion failed")
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not fail")
	}
}

func TestWatch_RequiresOutput(t *testing.T) {
	cfg := config.Config{Root: t.TempDir()}
	env := &app.Env{Config: &cfg, Logger: clilog.Discard()}
	cmd := watch.NewCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"main.frag"})

	err := cmd.ExecuteContext(app.WithEnv(context.Background(), env))

	assert.Error(t, err)
}
