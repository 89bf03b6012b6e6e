package storage

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/pkg/sftp"
	xssh "golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// sftpUploader stages artifacts on plain hosts for deployments where the
// processing service mounts inputs over SFTP instead of object storage.
type sftpUploader struct {
	user       string
	keyPath    string
	knownHosts string
	timeout    time.Duration
}

func newSFTP(cfg Config) *sftpUploader {
	return &sftpUploader{
		user:       cfg.SFTP.User,
		keyPath:    cfg.SFTP.KeyPath,
		knownHosts: cfg.SFTP.KnownHosts,
		timeout:    30 * time.Second,
	}
}

// Upload copies a local file or directory tree to sftp://host[:port]/path.
// Placement mirrors the S3 backend: files land at destURI/basename,
// directories are mirrored relative to their root.
func (u *sftpUploader) Upload(ctx context.Context, localPath, destURI string) (string, error) {
	_, host, remoteBase, err := SplitURI(destURI)
	if err != nil {
		return "", err
	}
	remoteBase = "/" + remoteBase

	cli, err := u.dial(ctx, host)
	if err != nil {
		return "", err
	}
	defer cli.Close()

	sf, err := sftp.NewClient(cli)
	if err != nil {
		return "", fmt.Errorf("sftp client: %w", err)
	}
	defer sf.Close()

	info, err := os.Stat(localPath)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", localPath, err)
	}

	if !info.IsDir() {
		remotePath := path.Join(remoteBase, filepath.Base(localPath))
		if err := pushFile(sf, localPath, remotePath); err != nil {
			return "", err
		}
		return JoinURI(destURI, filepath.Base(localPath)), nil
	}

	err = filepath.Walk(localPath, func(p string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if fi.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(localPath, p)
		if err != nil {
			return err
		}
		return pushFile(sf, p, path.Join(remoteBase, filepath.ToSlash(rel)))
	})
	if err != nil {
		return "", fmt.Errorf("upload directory %s: %w", localPath, err)
	}
	return destURI, nil
}

func (u *sftpUploader) dial(ctx context.Context, addr string) (*xssh.Client, error) {
	key, err := os.ReadFile(u.keyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	signer, err := xssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	hostKeys, err := knownhosts.New(u.knownHosts)
	if err != nil {
		return nil, fmt.Errorf("load known hosts: %w", err)
	}

	cfg := &xssh.ClientConfig{
		User:            u.user,
		Auth:            []xssh.AuthMethod{xssh.PublicKeys(signer)},
		HostKeyCallback: hostKeys,
		Timeout:         u.timeout,
	}

	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "22")
	}

	type res struct {
		cli *xssh.Client
		err error
	}
	ch := make(chan res, 1)
	go func() {
		cli, err := xssh.Dial("tcp", addr, cfg)
		ch <- res{cli: cli, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("ssh dial %s: %w", addr, r.err)
		}
		return r.cli, nil
	}
}

func pushFile(sf *sftp.Client, localPath, remotePath string) error {
	if err := sf.MkdirAll(path.Dir(remotePath)); err != nil {
		return fmt.Errorf("mkdir remote: %w", err)
	}
	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open local: %w", err)
	}
	defer src.Close()
	dst, err := sf.Create(remotePath)
	if err != nil {
		return fmt.Errorf("create remote: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return nil
}
