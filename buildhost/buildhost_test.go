package buildhost_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/LegacyCodeHQ/shaderinc/buildhost"
	"github.com/LegacyCodeHQ/shaderinc/include"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	return root
}

type recordingRegistrar struct {
	paths []string
}

func (r *recordingRegistrar) Register(path string) error {
	r.paths = append(r.paths, path)
	return nil
}

func nestedTree(t *testing.T) string {
	return writeTree(t, map[string]string{
		"shaders/main.glsl":     "#include \"lib/util.glsl\"\nvoid main() {}\n",
		"shaders/lib/util.glsl": "#include \"math.glsl\"\n",
		"shaders/lib/math.glsl": "const float PI = 3.14159265;\n",
	})
}

func TestExpand_DefaultsResolveAgainstFixedRoot(t *testing.T) {
	root := nestedTree(t)

	_, err := buildhost.Expand(context.Background(), buildhost.Config{Root: root}, "shaders/main.glsl", nil, nil)

	// lib/util.glsl only exists relative to shaders/, not relative to root.
	require.ErrorIs(t, err, include.ErrPathNotFound)
}

func TestExpand_RelativePathToggle(t *testing.T) {
	root := nestedTree(t)
	cfg := buildhost.Config{Root: root, RelativePath: true}

	result, err := buildhost.Expand(context.Background(), cfg, "shaders/main.glsl", nil, nil)

	require.NoError(t, err)
	assert.Equal(t, "const float PI = 3.14159265;\n\n\nvoid main() {}\n", result.Text)
}

func TestExpand_TrackingDisabledRegistersNothing(t *testing.T) {
	root := nestedTree(t)
	registrar := &recordingRegistrar{}
	cfg := buildhost.Config{Root: root, RelativePath: true}

	_, err := buildhost.Expand(context.Background(), cfg, "shaders/main.glsl", registrar, nil)

	require.NoError(t, err)
	assert.Empty(t, registrar.paths)
}

func TestExpand_TrackingRegistersEveryDependencyInOrder(t *testing.T) {
	root := nestedTree(t)
	registrar := &recordingRegistrar{}
	cfg := buildhost.Config{Root: root, RelativePath: true, TrackDependencies: true}

	_, err := buildhost.Expand(context.Background(), cfg, "shaders/main.glsl", registrar, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "shaders", "main.glsl"),
		filepath.Join(root, "shaders", "lib", "util.glsl"),
		filepath.Join(root, "shaders", "lib", "math.glsl"),
	}, registrar.paths)
}

func TestExpand_FailedExpansionRegistersNothing(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.glsl": "#include \"main.glsl\"\n",
	})
	registrar := &recordingRegistrar{}
	cfg := buildhost.Config{Root: root, RelativePath: true, TrackDependencies: true}

	_, err := buildhost.Expand(context.Background(), cfg, "main.glsl", registrar, nil)

	require.ErrorIs(t, err, include.ErrCyclicInclude)
	assert.Empty(t, registrar.paths)
}

func TestExpand_RegistrarErrorFailsTheBuild(t *testing.T) {
	root := nestedTree(t)
	failure := errors.New("tracking unavailable")
	registrar := buildhost.RegistrarFunc(func(string) error { return failure })
	cfg := buildhost.Config{Root: root, RelativePath: true, TrackDependencies: true}

	_, err := buildhost.Expand(context.Background(), cfg, "shaders/main.glsl", registrar, nil)

	assert.ErrorIs(t, err, failure)
}

func TestIncludeShader(t *testing.T) {
	root := writeTree(t, map[string]string{
		"frag.glsl": "#include \"rand.glsl\"\nvoid main() {}\n",
		"rand.glsl": "float rand();\n",
	})

	text, err := buildhost.IncludeShader(context.Background(), buildhost.Config{Root: root}, "frag.glsl", buildhost.NopRegistrar{})

	require.NoError(t, err)
	assert.Equal(t, "float rand();\n\nvoid main() {}\n", text)
}

func TestMultiRegistrar(t *testing.T) {
	first := &recordingRegistrar{}
	second := &recordingRegistrar{}

	err := buildhost.MultiRegistrar{first, second}.Register("/a.glsl")

	require.NoError(t, err)
	assert.Equal(t, []string{"/a.glsl"}, first.paths)
	assert.Equal(t, []string{"/a.glsl"}, second.paths)
}

func TestDepfile_WriteTo(t *testing.T) {
	d := buildhost.NewDepfile("out/main.frag")
	require.NoError(t, d.Register("/src/main.glsl"))
	require.NoError(t, d.Register("/src/my lib/util#1.glsl"))
	require.NoError(t, d.Register("/src/main.glsl"))
	require.NoError(t, d.Register("/src/$cost.glsl"))

	var buf bytes.Buffer
	_, err := d.WriteTo(&buf)

	require.NoError(t, err)
	assert.Equal(t, "out/main.frag: \\\n  /src/main.glsl \\\n  /src/my\\ lib/util\\#1.glsl \\\n  /src/$$cost.glsl\n", buf.String())
}

func TestDepfile_WriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.d")
	d := buildhost.NewDepfile("main.frag")
	require.NoError(t, d.Register("/src/main.glsl"))

	require.NoError(t, d.WriteFile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "main.frag: \\\n  /src/main.glsl\n", string(content))
}

func TestManifest_DigestsChangeWithContent(t *testing.T) {
	root := writeTree(t, map[string]string{"a.glsl": "one"})
	path := filepath.Join(root, "a.glsl")

	before := buildhost.NewManifest(path, nil)
	require.NoError(t, before.Register(path))
	require.NoError(t, before.Register(path))

	require.NoError(t, os.WriteFile(path, []byte("two"), 0o644))
	after := buildhost.NewManifest(path, nil)
	require.NoError(t, after.Register(path))

	require.Len(t, before.Files, 1)
	require.Len(t, after.Files, 1)
	assert.Len(t, before.Files[0].Digest, 16)
	assert.NotEqual(t, before.Files[0].Digest, after.Files[0].Digest)
	assert.NotEqual(t, before.Fingerprint(), after.Fingerprint())
}

func TestManifest_WriteJSON(t *testing.T) {
	m := buildhost.NewManifest("/src/main.glsl", func(string) ([]byte, error) {
		return []byte("content"), nil
	})
	require.NoError(t, m.Register("/src/main.glsl"))

	var buf bytes.Buffer
	require.NoError(t, m.WriteJSON(&buf))

	var decoded struct {
		Entry       string `json:"entry"`
		Fingerprint string `json:"fingerprint"`
		Files       []struct {
			Path   string `json:"path"`
			Digest string `json:"xxh64"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "/src/main.glsl", decoded.Entry)
	assert.Equal(t, m.Fingerprint(), decoded.Fingerprint)
	require.Len(t, decoded.Files, 1)
	assert.Equal(t, m.Files[0].Digest, decoded.Files[0].Digest)
}

func TestManifest_ReadFailure(t *testing.T) {
	m := buildhost.NewManifest("main.glsl", func(string) ([]byte, error) {
		return nil, os.ErrPermission
	})

	err := m.Register("main.glsl")

	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestWriteOutput_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build", "shaders", "main.frag")

	require.NoError(t, buildhost.WriteOutput(path, "void main() {}\n"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "void main() {}\n", string(content))
}

func TestWriteOutput_ReportsWriteFailure(t *testing.T) {
	dir := t.TempDir()

	err := buildhost.WriteOutput(dir, "text")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write output")
}
