package cli

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/skosovsky/modelsync"
	"github.com/skosovsky/modelsync/catalog"
	"github.com/skosovsky/modelsync/internal/config"
	"github.com/skosovsky/modelsync/internal/mlflowtest"
	"github.com/skosovsky/modelsync/mlflow"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func execute(ctx context.Context, args ...string) (string, string, error) {
	root := NewRootCmd("1.2.3", "abc123", "2026-01-02")
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func writeManifest(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alarm.yaml"), []byte(`model: gpt-3.5-turbo
task: chat.completions
registered_name: alarm
messages:
  - role: user
    content: "ALARM STATE: {state}"
`), 0o600))
	return dir
}

func versionNames(srv *mlflowtest.Server) []string {
	var names []string
	for _, v := range srv.Versions() {
		names = append(names, v.Name)
	}
	return names
}

func TestRegister(t *testing.T) {
	t.Parallel()
	srv := mlflowtest.NewServer()
	defer srv.Close()

	out, _, err := execute(context.Background(), "register", "--tracking-uri", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "registered 3 models\n", out)
	assert.Equal(t, []string{"querytime", "chat", "embeddings"}, versionNames(srv))
}

func TestRegister_WithManifests(t *testing.T) {
	t.Parallel()
	srv := mlflowtest.NewServer()
	defer srv.Close()

	out, stderr, err := execute(context.Background(),
		"register", "--tracking-uri", srv.URL, "--manifests", writeManifest(t), "--experiment", "assistant")
	require.NoError(t, err)
	assert.Equal(t, "registered 4 models\n", out)
	assert.Equal(t, []string{"querytime", "chat", "embeddings", "alarm"}, versionNames(srv))
	assert.Contains(t, stderr, "registered model")

	id, ok := srv.ExperimentID("assistant")
	require.True(t, ok)
	for _, run := range srv.Runs() {
		assert.Equal(t, id, run.ExperimentID)
	}
}

func TestRegister_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()
	srv := mlflowtest.NewServer(mlflowtest.WithFailure("POST registered-models/create",
		mlflowtest.Failure{Status: http.StatusForbidden, Code: "PERMISSION_DENIED"}))
	defer srv.Close()

	out, _, err := execute(context.Background(), "register", "--tracking-uri", srv.URL)
	require.ErrorIs(t, err, mlflow.ErrHTTPStatus)
	assert.Empty(t, out)
	assert.Len(t, srv.Runs(), 1)
}

func TestRegister_ManifestCannotReplaceBuiltin(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat.yaml"), []byte(`model: gpt-4
task: chat.completions
registered_name: chat
messages:
  - role: user
    content: hijack
`), 0o600))
	srv := mlflowtest.NewServer()
	defer srv.Close()

	out, _, err := execute(context.Background(), "register", "--tracking-uri", srv.URL, "--manifests", dir)
	require.ErrorIs(t, err, modelsync.ErrInvalidName)
	assert.Empty(t, out)
	assert.Empty(t, srv.Requests())

	out, _, err = execute(context.Background(), "preview", "chat", "--manifests", dir,
		"--var", "state_lines=none", "--var", "query=q")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "chat: gpt-3.5-turbo (chat.completions)\n"), out)
}

func TestRegister_MissingTrackingURI(t *testing.T) {
	t.Setenv("MLFLOW_TRACKING_URI", "")
	t.Setenv("MODELSYNC_TRACKING_URI", "")
	_, _, err := execute(context.Background(), "register")
	require.ErrorIs(t, err, config.ErrMissingTrackingURI)
}

func TestRegister_BadManifestDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("model: x\ntask: chat.completions\n"), 0o600))
	srv := mlflowtest.NewServer()
	defer srv.Close()

	_, _, err := execute(context.Background(), "register", "--tracking-uri", srv.URL, "--manifests", dir)
	require.Error(t, err)
	assert.Empty(t, srv.Requests())
}

func TestPoll_UntilCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	timer := time.AfterFunc(60*time.Millisecond, cancel)
	defer timer.Stop()

	_, stderr, err := execute(ctx, "poll", "--interval", "0.01", "--log-level", "debug")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, strings.Count(stderr, "Polling registry for changes"), 2)
	assert.Contains(t, stderr, "watching model registry")
}

func TestPoll_InvalidInterval(t *testing.T) {
	t.Parallel()
	for _, interval := range []string{"0", "-1", "1e12"} {
		_, _, err := execute(context.Background(), "poll", "--interval", interval)
		require.ErrorIs(t, err, config.ErrInvalidConfig, interval)
	}
}

func TestServe_RegistersThenPolls(t *testing.T) {
	t.Parallel()
	srv := mlflowtest.NewServer()
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	timer := time.AfterFunc(300*time.Millisecond, cancel)
	defer timer.Stop()

	out, stderr, err := execute(ctx, "serve", "--tracking-uri", srv.URL, "--interval", "0.01", "--log-level", "debug")
	require.NoError(t, err)
	assert.Equal(t, "registered 3 models\n", out)
	assert.Len(t, srv.Versions(), 3)
	assert.Contains(t, stderr, "Polling registry for changes")
}

func TestServe_RegistrationFailureSkipsPolling(t *testing.T) {
	t.Parallel()
	srv := mlflowtest.NewServer(mlflowtest.WithFailure("POST runs/create",
		mlflowtest.Failure{Status: http.StatusInternalServerError, Code: "INTERNAL_ERROR"}))
	defer srv.Close()

	_, stderr, err := execute(context.Background(), "serve", "--tracking-uri", srv.URL, "--log-level", "debug")
	require.Error(t, err)
	assert.NotContains(t, stderr, "Polling registry for changes")
}

func TestPreview(t *testing.T) {
	t.Parallel()
	out, _, err := execute(context.Background(), "preview", "querytime", "--var", "query=Did anyone open the door?")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "querytime: gpt-3.5-turbo (chat.completions)\n"), out)
	assert.Contains(t, out, "\n[system]\n")
	assert.Contains(t, out, "\n[user]\nINPUT: Did anyone open the door?\n")
}

func TestPreview_Manifest(t *testing.T) {
	t.Parallel()
	out, _, err := execute(context.Background(), "preview", "alarm", "--manifests", writeManifest(t), "--var", "state=armed=away")
	require.NoError(t, err)
	assert.Equal(t, "alarm: gpt-3.5-turbo (chat.completions)\n\n[user]\nALARM STATE: armed=away\n", out)
}

func TestPreview_Embeddings(t *testing.T) {
	t.Parallel()
	out, _, err := execute(context.Background(), "preview", "embeddings")
	require.NoError(t, err)
	assert.Equal(t, "embeddings: text-embedding-ada-002 (embeddings)\n", out)
}

func TestPreview_Errors(t *testing.T) {
	t.Parallel()
	_, _, err := execute(context.Background(), "preview", "querytime")
	require.ErrorIs(t, err, modelsync.ErrMissingVariable)

	_, _, err = execute(context.Background(), "preview", "nope")
	require.Error(t, err)
	require.ErrorIs(t, err, catalog.ErrModelNotFound)

	_, _, err = execute(context.Background(), "preview", "querytime", "--var", "novalue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want key=value")

	_, _, err = execute(context.Background(), "preview")
	require.Error(t, err)
}

func TestParseVars(t *testing.T) {
	t.Parallel()
	got, err := parseVars([]string{"a=1", "b=x=y", "c="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "x=y", "c": ""}, got)

	_, err = parseVars([]string{"=1"})
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	t.Parallel()
	out, _, err := execute(context.Background(), "version")
	require.NoError(t, err)
	assert.Equal(t, "modelsync version 1.2.3 (commit: abc123, built: 2026-01-02)\n", out)

	out, _, err = execute(context.Background(), "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", out)

	out, _, err = execute(context.Background(), "version", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"commit": "abc123"`)
	assert.Contains(t, out, `"version": "1.2.3"`)
}
