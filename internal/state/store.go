package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-multierror"

	"github.com/imamik/k3smox/internal/bootstrap"
	"github.com/imamik/k3smox/internal/config"
	"github.com/imamik/k3smox/internal/platform/s3"
	"github.com/imamik/k3smox/internal/topology"
	"github.com/imamik/k3smox/internal/util/naming"
)

// Artifact file names.
const (
	KubeconfigFile = "kubeconfig"
	ReportFile     = "report.json"
	TopologyFile   = "topology.json"
)

// Artifact is one file to persist.
type Artifact struct {
	Name string
	Data []byte
	// Mode is the permission of the local file.
	Mode os.FileMode
}

// Uploader stores artifacts in a bucket.
type Uploader interface {
	EnsureBucket(ctx context.Context, bucket string) error
	PutObject(ctx context.Context, bucket, key string, data []byte) error
}

var _ Uploader = (*s3.Client)(nil)

// NewS3Uploader returns an uploader for cfg. Credentials come from the AWS
// default chain (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, profiles).
func NewS3Uploader(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	return s3.NewClient(ctx, s3.Options{Endpoint: cfg.Endpoint, Region: cfg.Region})
}

// Collect returns the artifacts of a bootstrap. kubeconfig may be nil when
// credentials were never fetched.
func Collect(topo *topology.ClusterTopology, report *bootstrap.Report, kubeconfig []byte) ([]Artifact, error) {
	var artifacts []Artifact

	if topo != nil {
		data, err := json.MarshalIndent(topo, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode topology: %w", err)
		}
		artifacts = append(artifacts, Artifact{Name: TopologyFile, Data: append(data, '\n'), Mode: 0o644})
	}

	if report != nil {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode report: %w", err)
		}
		artifacts = append(artifacts, Artifact{Name: ReportFile, Data: append(data, '\n'), Mode: 0o644})
	}

	if len(kubeconfig) > 0 {
		artifacts = append(artifacts, Artifact{Name: KubeconfigFile, Data: kubeconfig, Mode: 0o600})
	}
	return artifacts, nil
}

// Store writes artifacts for one cluster.
type Store struct {
	dir      string
	s3       config.S3Config
	uploader Uploader
}

// NewStore returns a store writing to cfg.Dir/cluster. uploader may be nil
// when cfg.S3 is disabled.
func NewStore(cfg config.ArtifactConfig, cluster string, uploader Uploader) *Store {
	return &Store{
		dir:      filepath.Join(cfg.Dir, cluster),
		s3:       cfg.S3,
		uploader: uploader,
	}
}

// Dir returns the local artifact directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the local path of the artifact name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Key returns the object key of the artifact name.
func (s *Store) Key(name string) string {
	return naming.ArtifactKey(s.s3.Prefix, filepath.Base(s.dir), name)
}

// Save writes every artifact locally, then uploads them if S3 is enabled.
// Local files are always written; upload failures are collected and
// returned together.
func (s *Store) Save(ctx context.Context, artifacts []Artifact) error {
	logger := logr.FromContextOrDiscard(ctx)

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	for _, a := range artifacts {
		if err := writeFile(s.Path(a.Name), a.Data, a.Mode); err != nil {
			return err
		}
		logger.V(1).Info("wrote artifact", "path", s.Path(a.Name))
	}

	if !s.s3.Enabled {
		return nil
	}
	if s.uploader == nil {
		return errors.New("s3 upload enabled but no uploader configured")
	}

	if err := s.uploader.EnsureBucket(ctx, s.s3.Bucket); err != nil {
		return err
	}

	var errs *multierror.Error
	for _, a := range artifacts {
		key := s.Key(a.Name)
		if err := s.uploader.PutObject(ctx, s.s3.Bucket, key, a.Data); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		logger.Info("uploaded artifact", "bucket", s.s3.Bucket, "key", key)
	}
	return errs.ErrorOrNil()
}

// writeFile replaces path atomically, so a reader never sees a partial
// kubeconfig.
func writeFile(path string, data []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
