package identity

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"

	"certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
)

const (
	sealedVersion = 1
	keyFileSuffix = ".key.json"

	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	saltSize     = 16
	nonceSize    = 24
	secretKeyLen = 32
)

// ErrWrongPassphrase is returned when a sealed key cannot be opened.
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted key file")

// sealedKey is the on-disk format of a passphrase-protected private key.
type sealedKey struct {
	Version    int    `json:"version"`
	Identity   string `json:"identity"`
	KDF        string `json:"kdf"`
	N          int    `json:"n"`
	R          int    `json:"r"`
	P          int    `json:"p"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// Seal encrypts key under passphrase using scrypt and secretbox.
func Seal(key *ecdsa.PrivateKey, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase is required")
	}
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	secret, err := deriveKey(passphrase, salt, scryptN, scryptR, scryptP)
	if err != nil {
		return nil, err
	}

	sealed := sealedKey{
		Version:    sealedVersion,
		Identity:   domain.IdentityFromAddress(crypto.PubkeyToAddress(key.PublicKey)).String(),
		KDF:        "scrypt",
		N:          scryptN,
		R:          scryptR,
		P:          scryptP,
		Salt:       salt,
		Nonce:      nonce[:],
		Ciphertext: secretbox.Seal(nil, crypto.FromECDSA(key), &nonce, secret),
	}
	return json.MarshalIndent(sealed, "", "  ")
}

// Open decrypts a sealed key file.
func Open(data []byte, passphrase string) (*ecdsa.PrivateKey, error) {
	var sealed sealedKey
	if err := json.Unmarshal(data, &sealed); err != nil {
		return nil, fmt.Errorf("decode sealed key: %w", err)
	}
	if sealed.Version != sealedVersion || sealed.KDF != "scrypt" {
		return nil, fmt.Errorf("unsupported sealed key version %d (%s)", sealed.Version, sealed.KDF)
	}
	if len(sealed.Nonce) != nonceSize {
		return nil, ErrWrongPassphrase
	}
	secret, err := deriveKey(passphrase, sealed.Salt, sealed.N, sealed.R, sealed.P)
	if err != nil {
		return nil, err
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed.Nonce)

	raw, ok := secretbox.Open(nil, sealed.Ciphertext, &nonce, secret)
	if !ok {
		return nil, ErrWrongPassphrase
	}
	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	if got := domain.IdentityFromAddress(crypto.PubkeyToAddress(key.PublicKey)); !got.Equal(domain.Identity(sealed.Identity)) {
		return nil, fmt.Errorf("sealed key identity mismatch: file says %s, key is %s", sealed.Identity, got)
	}
	return key, nil
}

func deriveKey(passphrase string, salt []byte, n, r, p int) (*[secretKeyLen]byte, error) {
	derived, err := scrypt.Key([]byte(passphrase), salt, n, r, p, secretKeyLen)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	var out [secretKeyLen]byte
	copy(out[:], derived)
	return &out, nil
}

// Keyring is a directory of sealed key files named <identity>.key.json,
// all sealed under one passphrase.
type Keyring struct {
	dir        string
	passphrase string
}

func NewKeyring(dir, passphrase string) *Keyring {
	return &Keyring{dir: dir, passphrase: passphrase}
}

// Generate creates, seals and stores a new key.
func (k *Keyring) Generate() (*KeySigner, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	if err := k.Store(key); err != nil {
		return nil, err
	}
	return NewKeySigner(key), nil
}

// Store seals key into the keyring directory.
func (k *Keyring) Store(key *ecdsa.PrivateKey) error {
	data, err := Seal(key, k.passphrase)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(k.dir, 0o700); err != nil {
		return fmt.Errorf("create keyring dir: %w", err)
	}
	id := domain.IdentityFromAddress(crypto.PubkeyToAddress(key.PublicKey))
	if err := os.WriteFile(k.path(id), data, 0o600); err != nil {
		return fmt.Errorf("write sealed key: %w", err)
	}
	return nil
}

// Load opens the sealed key for id.
func (k *Keyring) Load(id domain.Identity) (*KeySigner, error) {
	data, err := os.ReadFile(k.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no key for %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("read sealed key: %w", err)
	}
	key, err := Open(data, k.passphrase)
	if err != nil {
		return nil, err
	}
	return NewKeySigner(key), nil
}

// List returns the identities held by the keyring.
func (k *Keyring) List() ([]domain.Identity, error) {
	entries, err := os.ReadDir(k.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read keyring dir: %w", err)
	}
	var ids []domain.Identity
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, keyFileSuffix) {
			continue
		}
		id, err := domain.ParseIdentity(strings.TrimSuffix(name, keyFileSuffix))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (k *Keyring) path(id domain.Identity) string {
	return filepath.Join(k.dir, id.String()+keyFileSuffix)
}
