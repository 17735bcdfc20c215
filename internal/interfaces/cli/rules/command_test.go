package rules

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatch-crm/hatch/internal/application/rule/usecases"
)

func TestReadSeed(t *testing.T) {
	t.Run("reads a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("rules: []\n"), 0o600))

		data, err := readSeed(&cobra.Command{}, path)
		require.NoError(t, err)
		assert.Equal(t, "rules: []\n", string(data))
	})

	t.Run("dash reads stdin", func(t *testing.T) {
		cmd := &cobra.Command{}
		cmd.SetIn(strings.NewReader("rules: []\n"))

		data, err := readSeed(cmd, "-")
		require.NoError(t, err)
		assert.Equal(t, "rules: []\n", string(data))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readSeed(&cobra.Command{}, filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestWriteResult(t *testing.T) {
	var buf bytes.Buffer
	writeResult(&buf, &usecases.ImportRulesResult{
		Created: []string{"rl_1"},
		Skipped: []string{"existing"},
		Failed:  []usecases.ImportFailure{{Index: 2, Name: "broken", Error: "invalid dsl"}},
	})

	out := buf.String()
	assert.Contains(t, out, "created  rl_1")
	assert.Contains(t, out, "skipped  existing")
	assert.Contains(t, out, "failed   #2 broken: invalid dsl")
	assert.True(t, strings.HasSuffix(out, "created=1 skipped=1 failed=1\n"))
}
