package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("SKYFORGE_TOKEN", "")

	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, `
endpoint: https://api.example.dev
token: from-yaml
bucket: staging-bucket
defaults:
  instance_type: fg.standard.large
  instance_count: 2
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.dev", cfg.Endpoint)
	assert.Equal(t, "from-yaml", cfg.Token)
	assert.Equal(t, "staging-bucket", cfg.Bucket)
	assert.Equal(t, "fg.standard.large", cfg.Defaults.InstanceType)
	assert.Equal(t, filepath.Join(dir, "skyforge", "history.db"), cfg.HistoryPath)
}

func TestLoadSecretsPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	writeFile(t, filepath.Join(dir, "skyforge", "secrets.env"), `
# control plane credentials
SKYFORGE_TOKEN=from-secrets
AWS_ACCESS_KEY_ID=AKIA-secrets
`)
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "endpoint: https://api.example.dev\ntoken: from-yaml\n")

	t.Setenv("SKYFORGE_TOKEN", "")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-secrets", cfg.Token, "secrets.env overrides yaml")
	assert.Equal(t, "AKIA-secrets", cfg.Storage.S3.AccessKey)

	t.Setenv("SKYFORGE_TOKEN", "from-env")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Token, "environment overrides secrets.env")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")
	got, err := WriteDefault(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.skyforge.dev", cfg.Endpoint)
	assert.Equal(t, 30, cfg.Defaults.VolumeSizeGB)

	// Existing files are preserved.
	_, err = WriteDefault(path)
	require.NoError(t, err)
}

func TestLoadJobSpec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	writeFile(t, path, `
name: nightly-crunch
image: ghcr.io/acme/cruncher:1.2
role: forge-role/processing
command: [python3]
code: ./process.py
max_runtime_seconds: 3600
inputs:
  - source: s3://raw/day
    destination: /data
outputs:
  - source: /out
    upload_mode: EndOfJob
`)
	spec, err := LoadJobSpec(path)
	require.NoError(t, err)
	assert.Equal(t, "nightly-crunch", spec.Name)
	assert.Equal(t, []string{"python3"}, spec.Command)

	var cfg Config
	cfg.Defaults.InstanceType = "fg.standard.xlarge"
	cfg.Defaults.InstanceCount = 1
	pc := spec.ProcessorConfig(cfg)
	assert.Equal(t, "forge-role/processing", pc.Role)
	assert.Equal(t, "fg.standard.xlarge", pc.InstanceType)
	assert.Equal(t, time.Hour, pc.MaxRuntime)
	assert.Equal(t, "nightly-crunch", pc.BaseJobName)

	inputs, outputs := spec.Descriptors()
	require.Len(t, inputs, 1)
	require.Len(t, outputs, 1)
	assert.Equal(t, "s3://raw/day", inputs[0].Source)
	assert.Equal(t, "EndOfJob", outputs[0].S3UploadMode)
}

func TestLoadJobSpecRequiresImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	writeFile(t, path, "name: broken\n")
	_, err := LoadJobSpec(path)
	assert.ErrorContains(t, err, "image is required")
}
