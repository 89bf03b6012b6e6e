// Package storage provides the artifact upload layer used to stage local
// inputs and code for processing jobs. Destinations are addressed by URI and
// dispatched to a backend by scheme.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const (
	SchemeS3   = "s3"
	SchemeSFTP = "sftp"
)

// Uploader copies a local file or directory to a remote destination URI and
// returns the URI of the uploaded artifact.
type Uploader interface {
	Upload(ctx context.Context, localPath, destURI string) (string, error)
}

// Config selects and configures the upload backends.
type Config struct {
	S3 struct {
		Region    string `yaml:"region"`
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
	} `yaml:"s3"`
	SFTP struct {
		User       string `yaml:"user"`
		KeyPath    string `yaml:"key_path"`
		KnownHosts string `yaml:"known_hosts"`
	} `yaml:"sftp"`
}

// Dispatcher routes uploads to a backend based on the destination scheme.
type Dispatcher struct {
	backends map[string]Uploader
}

// New builds a dispatcher with the S3 and SFTP backends registered.
func New(cfg Config) (*Dispatcher, error) {
	s3up, err := newS3(cfg)
	if err != nil {
		return nil, fmt.Errorf("s3 uploader: %w", err)
	}
	d := &Dispatcher{backends: map[string]Uploader{
		SchemeS3:   s3up,
		SchemeSFTP: newSFTP(cfg),
	}}
	return d, nil
}

// Register adds or replaces the backend for a scheme.
func (d *Dispatcher) Register(scheme string, up Uploader) {
	d.backends[scheme] = up
}

// Upload routes to the backend matching the destination URI scheme.
func (d *Dispatcher) Upload(ctx context.Context, localPath, destURI string) (string, error) {
	scheme, _, _, err := SplitURI(destURI)
	if err != nil {
		return "", err
	}
	up, ok := d.backends[scheme]
	if !ok {
		return "", fmt.Errorf("no upload backend registered for scheme %q", scheme)
	}
	return up.Upload(ctx, localPath, destURI)
}

// IsRemoteURI reports whether s addresses a remote storage location rather
// than a local path.
func IsRemoteURI(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case SchemeS3, SchemeSFTP:
		return true
	}
	return false
}

// SplitURI breaks a storage URI into scheme, host (bucket for s3) and key
// path without a leading slash.
func SplitURI(uri string) (scheme, host, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", "", fmt.Errorf("parse storage uri %q: %w", uri, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", "", "", fmt.Errorf("storage uri %q must include scheme and host", uri)
	}
	return u.Scheme, u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// JoinURI appends path elements to a base URI, normalizing separators.
func JoinURI(base string, elem ...string) string {
	out := strings.TrimSuffix(base, "/")
	for _, e := range elem {
		e = strings.Trim(e, "/")
		if e == "" {
			continue
		}
		out += "/" + e
	}
	return out
}
