package security

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// Verifier checks detached OpenPGP signatures against a fixed keyring.
type Verifier struct {
	keyring openpgp.EntityList
}

// LoadKeyring reads an armored public keyring file.
func LoadKeyring(path string) (*Verifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	defer f.Close()

	kr, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring %s: %w", path, err)
	}
	return &Verifier{keyring: kr}, nil
}

// NewVerifier builds a Verifier from an armored keyring held in memory.
func NewVerifier(armored []byte) (*Verifier, error) {
	kr, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(armored))
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}
	return &Verifier{keyring: kr}, nil
}

// Verify checks that sig is a valid armored detached signature of data made
// by a key in the keyring. It returns the signer's first identity.
func (v *Verifier) Verify(data, sig []byte) (string, error) {
	signer, err := openpgp.CheckArmoredDetachedSignature(v.keyring, bytes.NewReader(data), bytes.NewReader(sig), nil)
	if err != nil {
		return "", fmt.Errorf("signature verification failed: %w", err)
	}
	if id := signer.PrimaryIdentity(); id != nil {
		return id.Name, nil
	}
	return "", nil
}

// VerifyFile verifies file against the detached signature in sigFile and
// returns the file content.
func (v *Verifier) VerifyFile(file, sigFile string) ([]byte, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	sig, err := os.ReadFile(sigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read signature %s: %w", sigFile, err)
	}
	if _, err := v.Verify(data, sig); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return data, nil
}
