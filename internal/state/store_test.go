package state

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k3smox/internal/config"
	tu "github.com/imamik/k3smox/internal/testing"
	"github.com/imamik/k3smox/internal/topology"
)

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) EnsureBucket(ctx context.Context, bucket string) error {
	return m.Called(ctx, bucket).Error(0)
}

func (m *mockUploader) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	return m.Called(ctx, bucket, key, data).Error(0)
}

func labArtifacts(t *testing.T) []Artifact {
	t.Helper()
	topo, err := topology.Derive(tu.NewConfigBuilder().Build())
	require.NoError(t, err)

	artifacts, err := Collect(topo, nil, []byte("apiVersion: v1\nkind: Config\n"))
	require.NoError(t, err)
	return artifacts
}

func TestCollect(t *testing.T) {
	t.Parallel()

	artifacts := labArtifacts(t)
	require.Len(t, artifacts, 2)
	assert.Equal(t, TopologyFile, artifacts[0].Name)
	assert.Equal(t, KubeconfigFile, artifacts[1].Name)
	assert.Equal(t, os.FileMode(0o600), artifacts[1].Mode)

	var topo topology.ClusterTopology
	require.NoError(t, json.Unmarshal(artifacts[0].Data, &topo))
	assert.Equal(t, "k3s", topo.Cluster)
	assert.Len(t, topo.Workers, 2)

	none, err := Collect(nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_SaveLocal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewStore(config.ArtifactConfig{Dir: dir}, "lab", nil)
	assert.Equal(t, filepath.Join(dir, "lab"), store.Dir())

	require.NoError(t, store.Save(context.Background(), labArtifacts(t)))

	info, err := os.Stat(store.Path(KubeconfigFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(store.Path(KubeconfigFile))
	require.NoError(t, err)
	assert.Equal(t, "apiVersion: v1\nkind: Config\n", string(data))

	// Saving again replaces the files.
	require.NoError(t, store.Save(context.Background(), []Artifact{{Name: KubeconfigFile, Data: []byte("new"), Mode: 0o600}}))
	data, err = os.ReadFile(store.Path(KubeconfigFile))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestStore_SaveUploads(t *testing.T) {
	t.Parallel()

	cfg := config.ArtifactConfig{
		Dir: t.TempDir(),
		S3:  config.S3Config{Enabled: true, Bucket: "k3smox", Region: "us-east-1", Prefix: "clusters"},
	}
	up := &mockUploader{}
	up.On("EnsureBucket", mock.Anything, "k3smox").Return(nil)
	up.On("PutObject", mock.Anything, "k3smox", "clusters/lab/topology.json", mock.Anything).Return(nil)
	up.On("PutObject", mock.Anything, "k3smox", "clusters/lab/kubeconfig", mock.Anything).Return(errors.New("access denied"))

	store := NewStore(cfg, "lab", up)
	err := store.Save(context.Background(), labArtifacts(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	up.AssertExpectations(t)

	// Local files are written even when the upload fails.
	_, err = os.Stat(store.Path(KubeconfigFile))
	assert.NoError(t, err)
}

func TestStore_SaveWithoutUploader(t *testing.T) {
	t.Parallel()

	cfg := config.ArtifactConfig{Dir: t.TempDir(), S3: config.S3Config{Enabled: true, Bucket: "k3smox"}}
	err := NewStore(cfg, "lab", nil).Save(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no uploader")
}
