package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "dbcon.yaml")
	doc := "dialect: sqlite\ndatabase: " + filepath.Join(dir, "cli.db") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func TestCLI(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, "--config", cfg, "exec", "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, active INTEGER)")
	require.NoError(t, err)

	for _, stmt := range []string{
		"INSERT INTO users (name, active) VALUES ('Ann', 1)",
		"INSERT INTO users (name, active) VALUES ('Bob', 0)",
		"INSERT INTO users (name, active) VALUES ('Cy', 1)",
	} {
		_, err := run(t, "--config", cfg, "exec", stmt)
		require.NoError(t, err)
	}

	t.Run("Get", func(t *testing.T) {
		out, err := run(t, "--config", cfg, "get", "users", "--select", "id, name", "--where", "active=1", "--order", "id:desc")
		require.NoError(t, err)
		var got []map[string]any
		require.NoError(t, yaml.Unmarshal([]byte(out), &got))
		assert.Equal(t, []map[string]any{{"id": 3, "name": "Cy"}, {"id": 1, "name": "Ann"}}, got)
	})

	t.Run("Limit", func(t *testing.T) {
		out, err := run(t, "--config", cfg, "get", "users", "--select", "name", "--order", "id", "--limit", "1", "--offset", "1")
		require.NoError(t, err)
		assert.Equal(t, "- name: Bob\n", out)
	})

	t.Run("Query", func(t *testing.T) {
		out, err := run(t, "--config", cfg, "query", "SELECT COUNT(*) AS n FROM users", "--where", "active=0")
		require.NoError(t, err)
		assert.Equal(t, "- n: 1\n", out)
	})

	t.Run("Exec", func(t *testing.T) {
		out, err := run(t, "--config", cfg, "exec", "DELETE FROM users", "--where", "active=0")
		require.NoError(t, err)
		var got map[string]int64
		require.NoError(t, yaml.Unmarshal([]byte(out), &got))
		assert.Equal(t, int64(1), got["rows_affected"])
	})

	t.Run("InvalidDirection", func(t *testing.T) {
		_, err := run(t, "--config", cfg, "get", "users", "--order", "id:sideways")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ASC or DESC")
	})

	t.Run("InvalidWhere", func(t *testing.T) {
		_, err := run(t, "--config", cfg, "get", "users", "--where", "active")
		require.Error(t, err)
	})

	t.Run("OffsetWithoutLimit", func(t *testing.T) {
		_, err := run(t, "--config", cfg, "get", "users", "--offset", "2")
		require.Error(t, err)
	})
}

func TestCLIMissingConfig(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "query", "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read")
}
