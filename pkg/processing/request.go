package processing

import "time"

// Wire types for the create-job call. Field names follow the control plane's
// JSON contract.

type CreateJobRequest struct {
	JobName                string               `json:"JobName"`
	RoleARN                string               `json:"RoleArn"`
	ProcessingInputs       []InputRequest       `json:"ProcessingInputs,omitempty"`
	ProcessingOutputConfig *OutputConfigRequest `json:"ProcessingOutputConfig,omitempty"`
	ProcessingResources    ResourcesRequest     `json:"ProcessingResources"`
	StoppingCondition      StoppingCondition    `json:"StoppingCondition"`
	AppSpecification       AppSpecification     `json:"AppSpecification"`
	Environment            map[string]string    `json:"Environment,omitempty"`
	NetworkConfig          *NetworkRequest      `json:"NetworkConfig,omitempty"`
	Tags                   []Tag                `json:"Tags,omitempty"`
}

type InputRequest struct {
	InputName string         `json:"InputName"`
	S3Input   S3InputRequest `json:"S3Input"`
}

type S3InputRequest struct {
	S3URI                  string `json:"S3Uri"`
	LocalPath              string `json:"LocalPath"`
	S3DataType             string `json:"S3DataType"`
	S3InputMode            string `json:"S3InputMode"`
	S3DownloadMode         string `json:"S3DownloadMode"`
	S3DataDistributionType string `json:"S3DataDistributionType"`
	S3CompressionType      string `json:"S3CompressionType,omitempty"`
}

type OutputConfigRequest struct {
	Outputs []OutputRequest `json:"Outputs"`
}

type OutputRequest struct {
	OutputName string          `json:"OutputName"`
	S3Output   S3OutputRequest `json:"S3Output"`
}

type S3OutputRequest struct {
	S3URI        string `json:"S3Uri"`
	LocalPath    string `json:"LocalPath"`
	S3UploadMode string `json:"S3UploadMode"`
	KMSKeyID     string `json:"KmsKeyId,omitempty"`
}

type ResourcesRequest struct {
	ClusterConfig ClusterConfig `json:"ClusterConfig"`
}

type ClusterConfig struct {
	InstanceType   string `json:"InstanceType"`
	InstanceCount  int    `json:"InstanceCount"`
	VolumeSizeInGB int    `json:"VolumeSizeInGB"`
	VolumeKMSKeyID string `json:"VolumeKmsKeyId,omitempty"`
}

type StoppingCondition struct {
	MaxRuntimeInSeconds int `json:"MaxRuntimeInSeconds"`
}

type AppSpecification struct {
	ImageURI            string   `json:"ImageUri"`
	ContainerEntrypoint []string `json:"ContainerEntrypoint,omitempty"`
	ContainerArguments  []string `json:"ContainerArguments,omitempty"`
}

type Tag struct {
	Key   string `json:"Key" yaml:"key"`
	Value string `json:"Value" yaml:"value"`
}

// Job status values reported by the control plane.
const (
	StatusPending    = "Pending"
	StatusInProgress = "InProgress"
	StatusCompleted  = "Completed"
	StatusFailed     = "Failed"
	StatusStopping   = "Stopping"
	StatusStopped    = "Stopped"
)

// IsTerminalStatus reports whether the job has finished, successfully or not.
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusStopped:
		return true
	}
	return false
}

// JobDescription is the control plane's view of a processing job.
type JobDescription struct {
	JobName          string            `json:"JobName"`
	JobStatus        string            `json:"JobStatus"`
	FailureReason    string            `json:"FailureReason,omitempty"`
	ExitMessage      string            `json:"ExitMessage,omitempty"`
	CreationTime     time.Time         `json:"CreationTime"`
	ProcessingStart  *time.Time        `json:"ProcessingStartTime,omitempty"`
	ProcessingEnd    *time.Time        `json:"ProcessingEndTime,omitempty"`
	AppSpecification *AppSpecification `json:"AppSpecification,omitempty"`
	Environment      map[string]string `json:"Environment,omitempty"`
}
