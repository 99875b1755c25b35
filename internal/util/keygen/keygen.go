package keygen

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

// KeyPair holds an SSH key pair in ready-to-use formats.
type KeyPair struct {
	// PrivateKey is the ed25519 private key in OpenSSH PEM format.
	PrivateKey []byte
	// PublicKey is the public key in OpenSSH authorized_keys format,
	// newline terminated.
	PublicKey []byte
}

// GenerateKeyPair generates a new ed25519 key pair. A non-empty comment is
// stored in the private key and appended to the public key line.
func GenerateKeyPair(comment string) (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}

	block, err := ssh.MarshalPrivateKey(priv, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to encode private key: %w", err)
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH public key: %w", err)
	}
	line := ssh.MarshalAuthorizedKey(sshPub)
	if comment != "" {
		line = append(bytes.TrimSuffix(line, []byte("\n")), []byte(" "+comment+"\n")...)
	}

	return &KeyPair{
		PrivateKey: pem.EncodeToMemory(block),
		PublicKey:  line,
	}, nil
}

// LoadOrGenerate returns the private key stored at path. When the file does
// not exist a new pair is generated and written to path (0600) and
// path.pub (0644); created reports that case.
func LoadOrGenerate(path, comment string) (key []byte, created bool, err error) {
	// #nosec G304
	key, err = os.ReadFile(path)
	if err == nil {
		return key, false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, fmt.Errorf("failed to read ssh private key: %w", err)
	}

	pair, err := GenerateKeyPair(comment)
	if err != nil {
		return nil, false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, false, fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(path, pair.PrivateKey, 0o600); err != nil {
		return nil, false, fmt.Errorf("failed to write ssh private key: %w", err)
	}
	if err := os.WriteFile(path+".pub", pair.PublicKey, 0o644); err != nil { // #nosec G306
		return nil, false, fmt.Errorf("failed to write ssh public key: %w", err)
	}
	return pair.PrivateKey, true, nil
}

// AuthorizedKey returns the public half of a PEM-encoded private key in
// OpenSSH authorized_keys format, without the trailing newline.
func AuthorizedKey(privateKeyPEM []byte) (string, error) {
	signer, err := ssh.ParsePrivateKey(privateKeyPEM)
	if err != nil {
		return "", fmt.Errorf("failed to parse private key: %w", err)
	}
	return strings.TrimSpace(string(ssh.MarshalAuthorizedKey(signer.PublicKey()))), nil
}
