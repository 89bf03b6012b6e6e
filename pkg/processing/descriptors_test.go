package processing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputToRequestDefaults(t *testing.T) {
	in := &ProcessingInput{
		InputName:   "input-1",
		Source:      "s3://raw/data",
		Destination: "/data",
	}
	req, err := in.ToRequest()
	require.NoError(t, err)

	assert.Equal(t, "s3://raw/data", req.S3Input.S3URI)
	assert.Equal(t, "/data", req.S3Input.LocalPath)
	assert.Equal(t, DataTypeManifestFile, req.S3Input.S3DataType)
	assert.Equal(t, InputModeFile, req.S3Input.S3InputMode)
	assert.Equal(t, DownloadModeContinuous, req.S3Input.S3DownloadMode)
	assert.Equal(t, DistributionFullyReplicated, req.S3Input.S3DataDistributionType)
	assert.Equal(t, CompressionNone, req.S3Input.S3CompressionType)
}

func TestInputGzipRequiresPipe(t *testing.T) {
	in := &ProcessingInput{
		InputName:         "input-1",
		Source:            "s3://raw/data.gz",
		Destination:       "/data",
		S3CompressionType: CompressionGzip,
	}
	_, err := in.ToRequest()
	assert.ErrorIs(t, err, ErrGzipRequiresPipe)

	in.S3InputMode = InputModeFile
	_, err = in.ToRequest()
	assert.ErrorIs(t, err, ErrGzipRequiresPipe)

	in.S3InputMode = InputModePipe
	req, err := in.ToRequest()
	require.NoError(t, err)
	assert.Equal(t, CompressionGzip, req.S3Input.S3CompressionType)
	assert.Equal(t, InputModePipe, req.S3Input.S3InputMode)
}

func TestOutputToRequest(t *testing.T) {
	out := &ProcessingOutput{
		OutputName:  "output-1",
		Source:      "/out/model",
		Destination: "s3://sink/model",
	}
	req := out.ToRequest()
	assert.Equal(t, "s3://sink/model", req.S3Output.S3URI)
	assert.Equal(t, "/out/model", req.S3Output.LocalPath)
	assert.Equal(t, UploadModeContinuous, req.S3Output.S3UploadMode)
	assert.Empty(t, req.S3Output.KMSKeyID)

	out.S3UploadMode = UploadModeEndOfJob
	out.KMSKeyID = "kms-1"
	req = out.ToRequest()
	assert.Equal(t, UploadModeEndOfJob, req.S3Output.S3UploadMode)
	assert.Equal(t, "kms-1", req.S3Output.KMSKeyID)
}

func TestNetworkConfigToRequest(t *testing.T) {
	n := &NetworkConfig{EnableNetworkIsolation: true}
	req := n.ToRequest()
	assert.True(t, req.EnableNetworkIsolation)
	assert.Nil(t, req.VPCConfig)

	n.Subnets = []string{"subnet-1"}
	req = n.ToRequest()
	require.NotNil(t, req.VPCConfig)
	assert.Equal(t, []string{"subnet-1"}, req.VPCConfig.Subnets)
}

func TestIsTerminalStatus(t *testing.T) {
	for _, status := range []string{StatusCompleted, StatusFailed, StatusStopped} {
		assert.True(t, IsTerminalStatus(status), status)
	}
	for _, status := range []string{StatusPending, StatusInProgress, StatusStopping, ""} {
		assert.False(t, IsTerminalStatus(status), status)
	}
}
