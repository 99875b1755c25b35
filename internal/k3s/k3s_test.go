package k3s

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/imamik/k3smox/internal/config"
	testutil "github.com/imamik/k3smox/internal/testing"
	"github.com/imamik/k3smox/internal/topology"
)

func labTopology(t *testing.T) *topology.ClusterTopology {
	t.Helper()
	topo, err := topology.Derive(testutil.NewConfigBuilder().WithMasters(3, 120).Build())
	require.NoError(t, err)
	return topo
}

func k3sConfig() config.K3sConfig {
	return config.K3sConfig{
		Version:         "v1.31.4+k3s1",
		Disable:         []string{"traefik", "servicelb"},
		ExtraServerArgs: []string{"--flannel-backend=wireguard-native"},
		ExtraAgentArgs:  []string{"--kubelet-arg=max-pods=150"},
	}
}

func TestServerURL(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "https://10.10.0.20:6443", ServerURL("10.10.0.20"))
	assert.Equal(t, "https://[fd00::20]:6443", ServerURL("fd00::20"))
}

func TestServerCommand_ClusterInit(t *testing.T) {
	t.Parallel()
	m0 := labTopology(t).Masters[0]

	cmd := ServerCommand(k3sConfig(), m0, nil)

	assert.Contains(t, cmd, "curl -sfL https://get.k3s.io | sudo env INSTALL_K3S_VERSION='v1.31.4+k3s1' sh -s - server --cluster-init")
	assert.Contains(t, cmd, "--node-name 'k3s-master-0'")
	assert.Contains(t, cmd, "--node-ip '10.10.0.20'")
	assert.Contains(t, cmd, "--tls-san '10.10.0.20'")
	assert.Contains(t, cmd, "--disable 'traefik' --disable 'servicelb'")
	assert.Contains(t, cmd, "'--flannel-backend=wireguard-native'")
	assert.NotContains(t, cmd, "K3S_TOKEN")
}

func TestServerCommand_Join(t *testing.T) {
	t.Parallel()
	m1 := labTopology(t).Masters[1]

	cmd := ServerCommand(k3sConfig(), m1, &Join{URL: "https://10.10.0.20:6443", Token: "K10abc::server:xyz"})

	assert.Contains(t, cmd, "K3S_TOKEN='K10abc::server:xyz'")
	assert.Contains(t, cmd, "server --server 'https://10.10.0.20:6443'")
	assert.Contains(t, cmd, "--node-name 'k3s-master-1'")
	assert.NotContains(t, cmd, "--cluster-init")
}

func TestAgentCommand(t *testing.T) {
	t.Parallel()
	w0 := labTopology(t).Workers[0]

	cmd := AgentCommand(k3sConfig(), w0, Join{URL: "https://10.10.0.20:6443", Token: "tok'en"})

	assert.Contains(t, cmd, "K3S_URL='https://10.10.0.20:6443'")
	assert.Contains(t, cmd, `K3S_TOKEN='tok'\''en'`)
	assert.Contains(t, cmd, "sh -s - agent --node-name 'k3s-worker-0' --node-ip '10.10.0.23'")
	assert.Contains(t, cmd, "--node-label 'k3smox.io/role=worker'")
	assert.Contains(t, cmd, "'--kubelet-arg=max-pods=150'")
	assert.NotContains(t, cmd, "--disable")
}

func TestInstaller_WrapsFailure(t *testing.T) {
	t.Parallel()
	w0 := labTopology(t).Workers[0]

	exec := testutil.NewScriptedExecutor().On("curl", "line1\n[ERROR] download failed", errors.New("exit status 1"))
	err := NewInstaller(k3sConfig()).InstallAgent(context.Background(), exec, w0, Join{URL: "u", Token: "t"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "install k3s agent on k3s-worker-0")
	assert.Contains(t, err.Error(), "download failed")
}

func TestInstaller_InstallServer(t *testing.T) {
	t.Parallel()
	m0 := labTopology(t).Masters[0]

	exec := testutil.NewScriptedExecutor().On("curl", "[INFO] systemd: Starting k3s", nil)
	require.NoError(t, NewInstaller(k3sConfig()).InstallServer(context.Background(), exec, m0, nil))
	require.Len(t, exec.Commands(), 1)
	assert.Contains(t, exec.Commands()[0], "--cluster-init")
}

func TestServerReady(t *testing.T) {
	t.Parallel()
	exec := testutil.NewScriptedExecutor().
		On("systemctl is-active k3s", "active\n", nil).
		On("sudo test -s "+TokenPath, "", errors.New("exit status 1"))

	err := ServerReady(exec).Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), TokenPath)

	exec.On("sudo test -s "+TokenPath, "", nil)
	assert.NoError(t, ServerReady(exec).Check(context.Background()))
}

func TestRewriteServer(t *testing.T) {
	t.Parallel()

	out, err := RewriteServer([]byte(testutil.K3sKubeconfig), "https://10.10.0.20:6443")
	require.NoError(t, err)

	cfg, err := clientcmd.Load(out)
	require.NoError(t, err)
	require.Contains(t, cfg.Clusters, "default")
	assert.Equal(t, "https://10.10.0.20:6443", cfg.Clusters["default"].Server)
	assert.Equal(t, []byte("fake-ca"), cfg.Clusters["default"].CertificateAuthorityData)
	assert.Equal(t, "default", cfg.CurrentContext)
}

func TestRewriteServer_Errors(t *testing.T) {
	t.Parallel()

	_, err := RewriteServer([]byte("{not yaml"), "https://x:6443")
	assert.Error(t, err)

	_, err = RewriteServer([]byte("apiVersion: v1\nkind: Config\n"), "https://x:6443")
	assert.ErrorContains(t, err, "no clusters")
}

func TestFetch(t *testing.T) {
	t.Parallel()
	m0 := labTopology(t).Masters[0]

	exec := testutil.NewScriptedExecutor().
		On("sudo cat "+TokenPath, "K10secret::server:abc\n", nil).
		On("sudo cat "+KubeconfigPath, testutil.K3sKubeconfig, nil)

	creds, err := Fetch(context.Background(), exec, m0)
	require.NoError(t, err)
	assert.Equal(t, "K10secret::server:abc", creds.Token)
	assert.Equal(t, "https://10.10.0.20:6443", creds.Server)
	assert.Contains(t, string(creds.Kubeconfig), "server: https://10.10.0.20:6443")
	assert.Equal(t, Join{URL: "https://10.10.0.20:6443", Token: "K10secret::server:abc"}, creds.Join())
}

func TestFetch_Errors(t *testing.T) {
	t.Parallel()
	m0 := labTopology(t).Masters[0]

	tests := []struct {
		name string
		exec *testutil.ScriptedExecutor
		want string
	}{
		{
			name: "token unreadable",
			exec: testutil.NewScriptedExecutor().On("sudo cat "+TokenPath, "", errors.New("no such file")),
			want: "read join token",
		},
		{
			name: "token empty",
			exec: testutil.NewScriptedExecutor().On("sudo cat "+TokenPath, "\n", nil),
			want: "join token on k3s-master-0 is empty",
		},
		{
			name: "kubeconfig unreadable",
			exec: testutil.NewScriptedExecutor().
				On("sudo cat "+TokenPath, "tok", nil).
				On("sudo cat "+KubeconfigPath, "", errors.New("permission denied")),
			want: "read kubeconfig",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Fetch(context.Background(), tt.exec, m0)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSource_MemoizesSuccessOnly(t *testing.T) {
	t.Parallel()
	m0 := labTopology(t).Masters[0]

	var tokenReads atomic.Int32
	exec := testutil.NewScriptedExecutor().
		OnFunc("sudo cat "+TokenPath, func() (string, error) {
			if tokenReads.Add(1) == 1 {
				return "", errors.New("connection reset")
			}
			return "tok", nil
		}).
		On("sudo cat "+KubeconfigPath, testutil.K3sKubeconfig, nil)

	src := NewSource(exec, m0)

	_, err := src.Get(context.Background())
	require.Error(t, err)
	_, ok := src.Cached()
	assert.False(t, ok)

	first, err := src.Get(context.Background())
	require.NoError(t, err)
	second, err := src.Get(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(2), tokenReads.Load())

	cached, ok := src.Cached()
	assert.True(t, ok)
	assert.Same(t, first, cached)
}
