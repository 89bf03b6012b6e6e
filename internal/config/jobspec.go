package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/skyforge-dev/skyforge/pkg/processing"
)

// JobSpec is the YAML document `skyforge run` consumes.
type JobSpec struct {
	Name  string `yaml:"name"`
	Image string `yaml:"image"`
	Role  string `yaml:"role"`

	InstanceType      string `yaml:"instance_type"`
	InstanceCount     int    `yaml:"instance_count"`
	VolumeSizeGB      int    `yaml:"volume_size_gb"`
	MaxRuntimeSeconds int    `yaml:"max_runtime_seconds"`

	Env  map[string]string `yaml:"env"`
	Tags []processing.Tag  `yaml:"tags"`

	// Script mode: command plus a code file, directory or remote URI.
	Command    []string `yaml:"command"`
	Code       string   `yaml:"code"`
	ScriptName string   `yaml:"script_name"`

	Arguments []string `yaml:"arguments"`

	Inputs []struct {
		Name        string `yaml:"name"`
		Source      string `yaml:"source"`
		Destination string `yaml:"destination"`
		DataType    string `yaml:"data_type"`
		InputMode   string `yaml:"input_mode"`
		Download    string `yaml:"download_mode"`
		Distributed string `yaml:"distribution_type"`
		Compression string `yaml:"compression"`
	} `yaml:"inputs"`

	Outputs []struct {
		Name        string `yaml:"name"`
		Source      string `yaml:"source"`
		Destination string `yaml:"destination"`
		UploadMode  string `yaml:"upload_mode"`
		KMSKeyID    string `yaml:"kms_key_id"`
	} `yaml:"outputs"`

	Network *struct {
		Isolation        bool     `yaml:"isolation"`
		EncryptTraffic   bool     `yaml:"encrypt_traffic"`
		SecurityGroupIDs []string `yaml:"security_group_ids"`
		Subnets          []string `yaml:"subnets"`
	} `yaml:"network"`
}

// LoadJobSpec reads and validates a job spec file.
func LoadJobSpec(path string) (*JobSpec, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job spec: %w", err)
	}
	var spec JobSpec
	if err := yaml.Unmarshal(content, &spec); err != nil {
		return nil, fmt.Errorf("parse job spec: %w", err)
	}
	if spec.Image == "" {
		return nil, fmt.Errorf("job spec %s: image is required", path)
	}
	return &spec, nil
}

// ProcessorConfig merges the spec with config defaults into a processing
// configuration.
func (spec *JobSpec) ProcessorConfig(cfg Config) processing.Config {
	pc := processing.Config{
		Role:          firstNonEmpty(spec.Role, cfg.Defaults.Role),
		ImageURI:      spec.Image,
		InstanceType:  firstNonEmpty(spec.InstanceType, cfg.Defaults.InstanceType),
		InstanceCount: firstPositive(spec.InstanceCount, cfg.Defaults.InstanceCount),
		VolumeSizeGB:  firstPositive(spec.VolumeSizeGB, cfg.Defaults.VolumeSizeGB),
		BaseJobName:   spec.Name,
		Env:           spec.Env,
		Tags:          spec.Tags,
	}
	if secs := firstPositive(spec.MaxRuntimeSeconds, cfg.Defaults.MaxRuntimeSeconds); secs > 0 {
		pc.MaxRuntime = time.Duration(secs) * time.Second
	}
	if spec.Network != nil {
		pc.NetworkConfig = &processing.NetworkConfig{
			EnableNetworkIsolation:       spec.Network.Isolation,
			EncryptInterContainerTraffic: spec.Network.EncryptTraffic,
			SecurityGroupIDs:             spec.Network.SecurityGroupIDs,
			Subnets:                      spec.Network.Subnets,
		}
	}
	return pc
}

// Descriptors converts the spec's inputs and outputs to SDK descriptors.
func (spec *JobSpec) Descriptors() ([]*processing.ProcessingInput, []*processing.ProcessingOutput) {
	var inputs []*processing.ProcessingInput
	for _, in := range spec.Inputs {
		inputs = append(inputs, &processing.ProcessingInput{
			InputName:              in.Name,
			Source:                 in.Source,
			Destination:            in.Destination,
			S3DataType:             in.DataType,
			S3InputMode:            in.InputMode,
			S3DownloadMode:         in.Download,
			S3DataDistributionType: in.Distributed,
			S3CompressionType:      in.Compression,
		})
	}
	var outputs []*processing.ProcessingOutput
	for _, out := range spec.Outputs {
		outputs = append(outputs, &processing.ProcessingOutput{
			OutputName:   out.Name,
			Source:       out.Source,
			Destination:  out.Destination,
			S3UploadMode: out.UploadMode,
			KMSKeyID:     out.KMSKeyID,
		})
	}
	return inputs, outputs
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
