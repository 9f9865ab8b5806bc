package conf_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/logfinder/gatewayproxy/util/conf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

type testNested struct {
	Timeout time.Duration `conf:"timeout"`
}

type testConfig struct {
	Name   string     `conf:"name"`
	Count  int        `conf:"count"`
	Nested testNested `conf:"nested"`
}

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := conf.Parse[testConfig](conf.ParseOptions{
		Defaults: conf.DefaultConfig{
			"name":           "default",
			"nested.timeout": "3s",
		},
		EnvPrefix: "GWCONF_DEFAULTS_",
	})
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.Name)
	assert.Equal(t, 3*time.Second, cfg.Nested.Timeout)
}

func TestParse_JSONFile(t *testing.T) {
	path := writeFile(t, "config.json", `{"name":"file","nested":{"timeout":"1m"}}`)

	cfg, err := conf.Parse[testConfig](conf.ParseOptions{
		Defaults:  conf.DefaultConfig{"name": "default", "count": 2},
		FileName:  path,
		EnvPrefix: "GWCONF_JSON_",
	})
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Name)
	assert.Equal(t, 2, cfg.Count)
	assert.Equal(t, time.Minute, cfg.Nested.Timeout)
}

func TestParse_DotEnvFile(t *testing.T) {
	path := writeFile(t, ".env", "NAME=dotenv\nNESTED__TIMEOUT=5s\n")

	cfg, err := conf.Parse[testConfig](conf.ParseOptions{
		FileName:  path,
		EnvPrefix: "GWCONF_DOTENV_",
	})
	require.NoError(t, err)

	assert.Equal(t, "dotenv", cfg.Name)
	assert.Equal(t, 5*time.Second, cfg.Nested.Timeout)
}

func TestParse_MissingFile(t *testing.T) {
	_, err := conf.Parse[testConfig](conf.ParseOptions{
		FileName:  filepath.Join(t.TempDir(), "missing.json"),
		EnvPrefix: "GWCONF_MISSING_",
	})
	assert.Error(t, err)
}

func TestParse_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.json", `{"name":"file","count":1}`)

	t.Setenv("GWCONF_ENV_NAME", "env")
	t.Setenv("GWCONF_ENV_NESTED__TIMEOUT", "2s")

	cfg, err := conf.Parse[testConfig](conf.ParseOptions{
		FileName:  path,
		EnvPrefix: "GWCONF_ENV_",
	})
	require.NoError(t, err)

	assert.Equal(t, "env", cfg.Name)
	assert.Equal(t, 1, cfg.Count)
	assert.Equal(t, 2*time.Second, cfg.Nested.Timeout)
}

func TestParse_CliFlags(t *testing.T) {
	t.Setenv("GWCONF_CLI_NAME", "env")

	var cfg testConfig

	app := &cli.App{
		Name: "test",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name"},
			&cli.IntFlag{Name: "count", Value: 9},
			&cli.DurationFlag{Name: "wait"},
		},
		Action: func(ctx *cli.Context) error {
			var err error
			cfg, err = conf.Parse[testConfig](conf.ParseOptions{
				Cli:       ctx,
				CliMap:    map[string]string{"wait": "nested.timeout"},
				Defaults:  conf.DefaultConfig{"count": 4},
				EnvPrefix: "GWCONF_CLI_",
			})
			return err
		},
	}

	require.NoError(t, app.Run([]string{"test", "--name", "flag", "--wait", "7s"}))

	assert.Equal(t, "flag", cfg.Name)
	// unset flags keep lower layers
	assert.Equal(t, 4, cfg.Count)
	assert.Equal(t, 7*time.Second, cfg.Nested.Timeout)
}
