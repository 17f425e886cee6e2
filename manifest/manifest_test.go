package manifest

import (
	"embed"
	"os"
	"testing"
	"testing/fstest"

	"github.com/skosovsky/modelsync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

//go:embed testdata
var testdataFS embed.FS

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestParseBytes_ValidSimple(t *testing.T) {
	t.Parallel()
	data := []byte(`
model: gpt-3.5-turbo
task: chat.completions
registered_name: querytime
messages:
  - role: user
    content: "INPUT: {query}"
`)
	d, err := ParseBytes(data)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "gpt-3.5-turbo", d.Model)
	assert.Equal(t, modelsync.TaskChatCompletion, d.Task)
	assert.Equal(t, "querytime", d.RegisteredName)
	assert.Equal(t, modelsync.DefaultArtifactPath, d.ArtifactPath)
	require.Len(t, d.Messages, 1)
	assert.Equal(t, modelsync.RoleUser, d.Messages[0].Role)
	assert.Equal(t, []string{"query"}, d.Variables())
}

func TestParseBytes_ValidChatFile(t *testing.T) {
	t.Parallel()
	data, err := testdataFS.ReadFile("testdata/valid_chat.yaml")
	require.NoError(t, err)
	d, err := ParseBytes(data)
	require.NoError(t, err)
	assert.Equal(t, "lights", d.RegisteredName)
	require.Len(t, d.Messages, 2)
	assert.Equal(t, modelsync.RoleSystem, d.Messages[0].Role)
	assert.Contains(t, d.Messages[0].Content, `{{"entity_id": "light.kitchen", "state": "on"}}`)
	assert.Equal(t, []string{"request"}, d.Variables())
}

func TestParseBytes_ValidEmbedding(t *testing.T) {
	t.Parallel()
	d, err := ParseFS(testdataFS, "testdata/valid_embedding.yaml")
	require.NoError(t, err)
	assert.Equal(t, modelsync.TaskEmbedding, d.Task)
	assert.Equal(t, "embeddings", d.ArtifactPath)
	assert.Empty(t, d.Messages)
}

func TestParseBytes_Invalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "model: x\nmessages:\n  - role: system\n  content: [unclosed"},
		{"missing model", "task: embeddings\nregistered_name: e\n"},
		{"unknown task", "model: m\ntask: completions\nregistered_name: c\n"},
		{"invalid role", "model: m\ntask: chat.completions\nregistered_name: c\nmessages:\n  - role: tool\n    content: hi\n"},
		{"bad placeholder", "model: m\ntask: chat.completions\nregistered_name: c\nmessages:\n  - role: user\n    content: \"oops }\"\n"},
		{"invalid name", "model: m\ntask: embeddings\nregistered_name: a/b\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseBytes([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidManifest)
		})
	}
}

func TestParseBytes_WrapsDescriptorErrors(t *testing.T) {
	t.Parallel()
	_, err := ParseFS(testdataFS, "testdata/invalid_missing_messages.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidManifest)
	assert.ErrorIs(t, err, modelsync.ErrInvalidDescriptor)

	_, err = ParseFS(testdataFS, "testdata/invalid_missing_name.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidManifest)
}

func TestParseFile(t *testing.T) {
	t.Parallel()
	d, err := ParseFile("testdata/valid_chat.yaml")
	require.NoError(t, err)
	assert.Equal(t, "lights", d.RegisteredName)

	_, err = ParseFile("testdata/does_not_exist.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseDir(t *testing.T) {
	t.Parallel()
	descs, err := ParseDir(testdataFS, "testdata/dir")
	require.NoError(t, err)
	names := make([]string, 0, len(descs))
	for _, d := range descs {
		names = append(names, d.RegisteredName)
	}
	assert.Equal(t, []string{"alarm", "weather", "nested_embeddings"}, names)
}

func TestParseDir_InvalidManifestAborts(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"prompts/ok.yaml":  {Data: []byte("model: m\ntask: embeddings\nregistered_name: ok\n")},
		"prompts/bad.yaml": {Data: []byte("model: m\ntask: nope\nregistered_name: bad\n")},
	}
	_, err := ParseDir(fsys, "prompts")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidManifest)
	assert.Contains(t, err.Error(), "prompts/bad.yaml")
}

func TestParseDir_MissingRoot(t *testing.T) {
	t.Parallel()
	_, err := ParseDir(fstest.MapFS{}, "missing")
	require.Error(t, err)
}
