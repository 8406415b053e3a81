package cli

import (
	"bytes"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture builds a complete run environment: a seeded AMO database, a
// validator report tree, an output directory and a config file pointing
// at all three.
type fixture struct {
	ConfigPath string
	OutDir     string
}

func newFixture(t *testing.T, stagingYAML string) fixture {
	t.Helper()
	dir := t.TempDir()

	dbPath := filepath.Join(dir, "amo.db")
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	statements := []string{
		`CREATE TABLE addons (id INTEGER PRIMARY KEY, guid TEXT, name INTEGER, current_version INTEGER)`,
		`CREATE TABLE translations (id INTEGER, locale TEXT, localized_string TEXT)`,
		`CREATE TABLE versions (id INTEGER PRIMARY KEY, version TEXT)`,
		`CREATE TABLE users (id INTEGER PRIMARY KEY, display_name TEXT, email TEXT, is_verified INTEGER,
			lang TEXT, location TEXT, region TEXT, username TEXT)`,
		`CREATE TABLE addons_users (addon_id INTEGER, user_id INTEGER, role INTEGER, position INTEGER)`,

		`INSERT INTO translations VALUES (100, 'en-us', 'Tab Closer')`,
		`INSERT INTO versions VALUES (200, '1.0.2')`,
		`INSERT INTO addons VALUES (1, 'tabclose@example.com', 100, 200)`,
		`INSERT INTO users VALUES (7, 'Jo', 'jo@example.com', 1, 'en', 'Berlin', 'EU', 'jo')`,
		`INSERT INTO addons_users VALUES (1, 7, 5, 0)`,
	}
	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		require.NoError(t, err, "statement: %s", stmt)
	}

	reports := filepath.Join(dir, "reports")
	require.NoError(t, os.MkdirAll(reports, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(reports, "tabclose.json"), []byte(`{
		"summary": {"errors": 2, "warnings": 1, "notices": 0},
		"warnings": [{"code": "FOUND_REQUIRE", "detail": "jquery.js"}],
		"errors": [],
		"metadata": {"id": "tabclose@example.com", "version": "1.0"}
	}`), 0o644))

	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(outDir, 0o755))

	configPath := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`
%s
collectors:
  amo:
    dsn: %s
  validator:
    basedir: %s
formatters:
  csv:
    basedir: %s
`, stagingYAML, dbPath, reports, outDir)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	return fixture{ConfigPath: configPath, OutDir: outDir}
}

// execute runs the CLI with args and returns stdout, stderr and the error.
func execute(args ...string) (string, string, error) {
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRun_EndToEnd(t *testing.T) {
	backends := map[string]string{
		"memory": "staging:\n  backend: memory",
		"sqlite": "", // filled per test below
	}
	for name, stagingYAML := range backends {
		t.Run(name, func(t *testing.T) {
			if name == "sqlite" {
				stagingYAML = "staging:\n  backend: sqlite\n  path: " + filepath.Join(t.TempDir(), "staging.db")
			}
			fx := newFixture(t, stagingYAML)

			stdout, _, err := execute("run", fx.ConfigPath)
			require.NoError(t, err)
			assert.Contains(t, stdout, "Run complete")

			addons, err := os.ReadFile(filepath.Join(fx.OutDir, "amo.addon.csv"))
			require.NoError(t, err)
			want := "basemeta.current_version,basemeta.guid,basemeta.id,basemeta.name," +
				"validator.errors,validator.notices,validator.requires,validator.warnings\n" +
				"1.0.2,tabclose@example.com,1,Tab Closer,2,0,jquery.js,1\n"
			assert.Equal(t, want, string(addons))

			users, err := os.ReadFile(filepath.Join(fx.OutDir, "amo.user.csv"))
			require.NoError(t, err)
			wantUsers := "basemeta.display_name,basemeta.email,basemeta.is_verified," +
				"basemeta.lang,basemeta.location,basemeta.region,basemeta.username\n" +
				"Jo,jo@example.com,1,en,Berlin,EU,jo\n"
			assert.Equal(t, wantUsers, string(users))

			junction, err := os.ReadFile(filepath.Join(fx.OutDir, "amo.addon--amo.user.csv"))
			require.NoError(t, err)
			assert.Equal(t, "amo.addon,amo.user\n1,7\n", string(junction))
		})
	}
}

func TestRun_BadConfigIsCommandError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("collectors: {}\n"), 0o644))

	_, _, err := execute("run", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_SourceFailureIsRunFailure(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`
collectors:
  amo:
    dsn: %s
  validator:
    basedir: %s
formatters:
  csv:
    basedir: %s
`, filepath.Join(dir, "no", "such", "amo.db"), dir, dir)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	_, _, err := execute("run", configPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
