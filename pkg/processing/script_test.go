package processing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("print('ok')\n"), 0o644))
	return path
}

func TestScriptRunEntrypointFromFile(t *testing.T) {
	sess := newFakeSession()
	up := newFakeUploader()
	sp, err := NewScript(sess, up, testConfig())
	require.NoError(t, err)

	script := writeScript(t, t.TempDir(), "script.py")
	_, err = sp.Run(context.Background(), ScriptRunOptions{
		Command:    []string{"python3"},
		Code:       script,
		RunOptions: RunOptions{JobName: "job-s"},
	})
	require.NoError(t, err)

	req := sess.created[0]
	assert.Equal(t, []string{"python3", "/input/code/script.py"}, req.AppSpecification.ContainerEntrypoint)

	// The code artifact rides along as a regular input named "code".
	last := req.ProcessingInputs[len(req.ProcessingInputs)-1]
	assert.Equal(t, "code", last.InputName)
	assert.Equal(t, "/input/code", last.S3Input.LocalPath)
	assert.Equal(t, "s3://forge-data/job-s/input/code/script.py", last.S3Input.S3URI)
	assert.Equal(t, "s3://forge-data/job-s/input/code", up.calls[script])
}

func TestScriptRunDirectoryRequiresScriptName(t *testing.T) {
	sess := newFakeSession()
	sp, err := NewScript(sess, newFakeUploader(), testConfig())
	require.NoError(t, err)

	dir := t.TempDir()
	writeScript(t, dir, "main.py")

	_, err = sp.Run(context.Background(), ScriptRunOptions{
		Command: []string{"python3"},
		Code:    dir,
	})
	assert.ErrorIs(t, err, ErrScriptNameRequired)
	assert.Empty(t, sess.created)
}

func TestScriptRunDirectoryWithScriptName(t *testing.T) {
	sess := newFakeSession()
	sp, err := NewScript(sess, newFakeUploader(), testConfig())
	require.NoError(t, err)

	dir := t.TempDir()
	writeScript(t, dir, "main.py")

	_, err = sp.Run(context.Background(), ScriptRunOptions{
		Command:    []string{"python3", "-u"},
		Code:       dir,
		ScriptName: "main.py",
		RunOptions: RunOptions{JobName: "job-d"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"python3", "-u", "/input/code/main.py"},
		sess.created[0].AppSpecification.ContainerEntrypoint)
}

func TestScriptRunRemoteCode(t *testing.T) {
	sess := newFakeSession()
	up := newFakeUploader()
	sp, err := NewScript(sess, up, testConfig())
	require.NoError(t, err)

	_, err = sp.Run(context.Background(), ScriptRunOptions{
		Command:    []string{"python3"},
		Code:       "s3://artifacts/jobs/run.py",
		RunOptions: RunOptions{JobName: "job-r"},
	})
	require.NoError(t, err)

	// Remote code is referenced in place, never re-uploaded.
	assert.Empty(t, up.calls)
	req := sess.created[0]
	assert.Equal(t, []string{"python3", "/input/code/run.py"}, req.AppSpecification.ContainerEntrypoint)
	assert.Equal(t, "s3://artifacts/jobs/run.py", req.ProcessingInputs[0].S3Input.S3URI)
}

func TestScriptRunCodeNotFound(t *testing.T) {
	sess := newFakeSession()
	sp, err := NewScript(sess, newFakeUploader(), testConfig())
	require.NoError(t, err)

	_, err = sp.Run(context.Background(), ScriptRunOptions{
		Command: []string{"python3"},
		Code:    filepath.Join(t.TempDir(), "missing.py"),
	})
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestScriptRunLogsRequireWait(t *testing.T) {
	sess := newFakeSession()
	sp, err := NewScript(sess, newFakeUploader(), testConfig())
	require.NoError(t, err)

	_, err = sp.Run(context.Background(), ScriptRunOptions{
		Command:    []string{"python3"},
		Code:       "s3://artifacts/run.py",
		RunOptions: RunOptions{Wait: false, Logs: true},
	})
	assert.ErrorIs(t, err, ErrLogsRequireWait)
	assert.Empty(t, sess.created)
}

func TestResolveScriptName(t *testing.T) {
	dir := t.TempDir()
	file := writeScript(t, dir, "train.py")

	cases := []struct {
		name       string
		code       string
		scriptName string
		want       string
		wantErr    error
	}{
		{"local file", file, "", "train.py", nil},
		{"local file with override", file, "", "train.py", nil},
		{"directory with name", dir, "main.py", "main.py", nil},
		{"directory without name", dir, "", "", ErrScriptNameRequired},
		{"remote uri", "s3://bucket/code/run.py", "", "run.py", nil},
		{"remote uri with name", "s3://bucket/code", "entry.py", "entry.py", nil},
		{"missing path", filepath.Join(dir, "nope.py"), "", "", ErrCodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resolveScriptName(tc.code, tc.scriptName)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
