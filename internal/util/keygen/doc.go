// Package keygen handles the SSH key material used for node access.
//
// [AuthorizedKey] turns the configured private key into the OpenSSH
// authorized_keys line injected into each VM through cloud-init.
// [LoadOrGenerate] creates an ed25519 key on first use, so a fresh lab
// needs no manual ssh-keygen step.
package keygen
