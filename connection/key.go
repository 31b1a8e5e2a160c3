package connection

import (
	"fmt"

	"golang.org/x/crypto/ssh"

	"github.com/mxterm/mxterm/internal/xerrors"
)

// parseSigner parses a PEM-encoded private key, falling back to a
// passphrase-aware parse when the key is encrypted. keyFile is carried only
// for error context.
func parseSigner(pemBytes []byte, passphrase, keyFile string) (ssh.Signer, error) {
	signer, err := ssh.ParsePrivateKey(pemBytes)
	if err == nil {
		return signer, nil
	}
	if _, ok := err.(*ssh.PassphraseMissingError); !ok {
		return nil, err
	}
	if passphrase == "" {
		return nil, fmt.Errorf("connection: key requires a passphrase: %w", err)
	}
	signer, err = ssh.ParsePrivateKeyWithPassphrase(pemBytes, []byte(passphrase))
	if err != nil {
		return nil, &xerrors.BadKeyPasswordError{KeyFile: keyFile, Err: err}
	}
	return signer, nil
}
