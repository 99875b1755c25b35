package keygen

import (
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func TestGenerateKeyPair(t *testing.T) {
	t.Parallel()

	pair, err := GenerateKeyPair("k3smox@lab")
	require.NoError(t, err)

	block, _ := pem.Decode(pair.PrivateKey)
	require.NotNil(t, block)
	assert.Equal(t, "OPENSSH PRIVATE KEY", block.Type)

	line := string(pair.PublicKey)
	assert.True(t, strings.HasPrefix(line, "ssh-ed25519 "), line)
	assert.True(t, strings.HasSuffix(line, " k3smox@lab\n"), line)

	parsed, comment, _, _, err := ssh.ParseAuthorizedKey(pair.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, "k3smox@lab", comment)

	signer, err := ssh.ParsePrivateKey(pair.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, parsed.Marshal(), signer.PublicKey().Marshal(), "public key must match private key")
}

func TestGenerateKeyPair_NoComment(t *testing.T) {
	t.Parallel()

	pair, err := GenerateKeyPair("")
	require.NoError(t, err)
	assert.Len(t, strings.Fields(string(pair.PublicKey)), 2)
}

func TestGenerateKeyPair_Unique(t *testing.T) {
	t.Parallel()

	a, err := GenerateKeyPair("")
	require.NoError(t, err)
	b, err := GenerateKeyPair("")
	require.NoError(t, err)
	assert.NotEqual(t, a.PrivateKey, b.PrivateKey)
	assert.NotEqual(t, a.PublicKey, b.PublicKey)
}

func TestLoadOrGenerate_CreatesMissingKey(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "keys", "id_ed25519")

	key, created, err := LoadOrGenerate(path, "k3smox")
	require.NoError(t, err)
	assert.True(t, created)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	pub, err := os.ReadFile(path + ".pub")
	require.NoError(t, err)
	authorized, err := AuthorizedKey(key)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pub), authorized))

	again, created, err := LoadOrGenerate(path, "k3smox")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, key, again)
}

func TestLoadOrGenerate_ReadError(t *testing.T) {
	t.Parallel()

	// A directory cannot be read as a key file.
	_, _, err := LoadOrGenerate(t.TempDir(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read ssh private key")
}

func TestAuthorizedKey(t *testing.T) {
	t.Parallel()

	pair, err := GenerateKeyPair("")
	require.NoError(t, err)

	got, err := AuthorizedKey(pair.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(string(pair.PublicKey)), got)

	_, err = AuthorizedKey([]byte("garbage"))
	assert.Error(t, err)
}
