package claudesession

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyOptions(t *testing.T) {
	opts := applyOptions([]Option{
		WithModel("opus"),
		WithPermissionMode("acceptEdits"),
		WithMaxTurns(3),
		WithAllowedTools("Read", "Grep"),
		WithDisallowedTools("Bash"),
		WithAddDirs("/tmp/shared"),
		WithAppendSystemPrompt("Be brief."),
		WithEnv(map[string]string{"FOO": "bar"}),
		WithEventBuffer(16),
	})

	require.Equal(t, "opus", opts.Model)
	require.Equal(t, "acceptEdits", opts.PermissionMode)
	require.Equal(t, 3, opts.MaxTurns)
	require.Equal(t, []string{"Read", "Grep"}, opts.AllowedTools)
	require.Equal(t, []string{"Bash"}, opts.DisallowedTools)
	require.Equal(t, []string{"/tmp/shared"}, opts.AddDirs)
	require.Equal(t, "Be brief.", opts.AppendSystemPrompt)
	require.Equal(t, map[string]string{"FOO": "bar"}, opts.Env)
	require.Equal(t, 16, opts.EventBuffer)
}

func TestWithConfigFile_ExplicitOptionsWin(t *testing.T) {
	t.Setenv("CLAUDE_SESSION_MODEL", "")
	t.Setenv("CLAUDE_SESSION_CLI_PATH", "")
	t.Setenv("CLAUDE_SESSION_LOG_LEVEL", "")

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
model = "haiku"
max_turns = 5
permission_mode = "plan"
`), 0o600))

	opts := applyOptions([]Option{
		WithModel("opus"),
		WithConfigFile(path),
	})

	require.Equal(t, "opus", opts.Model)
	require.Equal(t, 5, opts.MaxTurns)
	require.Equal(t, "plan", opts.PermissionMode)
}

func TestLoadConfig_Missing(t *testing.T) {
	f, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.Nil(t, f)
}

func TestModels(t *testing.T) {
	require.NotEmpty(t, Models())
	require.NotNil(t, ModelByID("opus"))
	require.Nil(t, ModelByID("no-such-model"))
	require.Equal(t, "my-model", NormalizeModel("my-model"))
}
