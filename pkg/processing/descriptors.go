package processing

import (
	"errors"
	"fmt"
)

// Transfer-mode options accepted by the service. Values are passed through on
// the wire, so the zero value of each field falls back to the documented
// service default during serialization.
const (
	DataTypeManifestFile = "ManifestFile"
	DataTypeS3Prefix     = "S3Prefix"

	InputModeFile = "File"
	InputModePipe = "Pipe"

	DownloadModeStartOfJob = "StartOfJob"
	DownloadModeContinuous = "Continuous"

	DistributionFullyReplicated = "FullyReplicated"
	DistributionShardedByS3Key  = "ShardedByS3Key"

	CompressionNone = "None"
	CompressionGzip = "Gzip"

	UploadModeEndOfJob   = "EndOfJob"
	UploadModeContinuous = "Continuous"
)

// ErrGzipRequiresPipe rejects compressed inputs outside Pipe mode; the
// service cannot decompress a stream it maps as files.
var ErrGzipRequiresPipe = errors.New("inputs can only be gzipped when the input mode is Pipe")

// ProcessingInput maps a storage location onto a container-local path, with
// transfer-mode metadata. InputName is assigned during normalization when
// unset, and a local Source is replaced with the staged remote URI.
type ProcessingInput struct {
	InputName              string
	Source                 string
	Destination            string
	S3DataType             string
	S3InputMode            string
	S3DownloadMode         string
	S3DataDistributionType string
	S3CompressionType      string
}

// ToRequest serializes the input for the create-job payload, applying
// service defaults for unset transfer modes.
func (in *ProcessingInput) ToRequest() (InputRequest, error) {
	compression := orDefault(in.S3CompressionType, CompressionNone)
	inputMode := orDefault(in.S3InputMode, InputModeFile)
	if compression == CompressionGzip && inputMode != InputModePipe {
		return InputRequest{}, fmt.Errorf("input %s: %w", in.InputName, ErrGzipRequiresPipe)
	}

	return InputRequest{
		InputName: in.InputName,
		S3Input: S3InputRequest{
			S3URI:                  in.Source,
			LocalPath:              in.Destination,
			S3DataType:             orDefault(in.S3DataType, DataTypeManifestFile),
			S3InputMode:            inputMode,
			S3DownloadMode:         orDefault(in.S3DownloadMode, DownloadModeContinuous),
			S3DataDistributionType: orDefault(in.S3DataDistributionType, DistributionFullyReplicated),
			S3CompressionType:      compression,
		},
	}, nil
}

// ProcessingOutput maps a container-local path onto a storage destination.
// OutputName and a remote Destination are assigned during normalization when
// unset.
type ProcessingOutput struct {
	OutputName   string
	Source       string
	Destination  string
	S3UploadMode string
	KMSKeyID     string
}

// ToRequest serializes the output for the create-job payload.
func (out *ProcessingOutput) ToRequest() OutputRequest {
	return OutputRequest{
		OutputName: out.OutputName,
		S3Output: S3OutputRequest{
			S3URI:        out.Destination,
			LocalPath:    out.Source,
			S3UploadMode: orDefault(out.S3UploadMode, UploadModeContinuous),
			KMSKeyID:     out.KMSKeyID,
		},
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
