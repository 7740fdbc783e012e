package core

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
	"gopkg.in/yaml.v3"
)

const sealedPrefix = "buzzy-sealed:v1\n"

// credentialDoc is the on-disk layout, one key per credential half.
type credentialDoc struct {
	Token  string `yaml:"buzzy_token"`
	UserID string `yaml:"buzzy_user_id"`
}

// FileCredentialStore keeps the credential in a YAML file, optionally sealed
// with secretbox under a key derived from a passphrase.
type FileCredentialStore struct {
	mu   sync.Mutex
	path string
	key  *[32]byte
}

// NewFileCredentialStore prepares the parent directory. An empty passphrase
// stores the document in plain YAML.
func NewFileCredentialStore(path, passphrase string) (*FileCredentialStore, error) {
	if path == "" {
		return nil, errors.New("empty credential path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create credential dir: %w", err)
	}
	s := &FileCredentialStore{path: path}
	if passphrase != "" {
		k := sha256.Sum256([]byte(passphrase))
		s.key = &k
	}
	return s, nil
}

func (s *FileCredentialStore) Get(_ context.Context) (Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return Credential{}, false
	}
	plain, err := s.open(raw)
	if err != nil {
		return Credential{}, false
	}
	var doc credentialDoc
	if err := yaml.Unmarshal(plain, &doc); err != nil {
		return Credential{}, false
	}
	cred := Credential{Token: doc.Token, UserID: doc.UserID}
	return cred, cred.Valid()
}

func (s *FileCredentialStore) Set(_ context.Context, token, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plain, err := yaml.Marshal(credentialDoc{Token: token, UserID: userID})
	if err != nil {
		return err
	}
	data, err := s.seal(plain)
	if err != nil {
		return err
	}
	// write-then-rename so a crash never leaves half a credential behind
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileCredentialStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileCredentialStore) seal(plain []byte) ([]byte, error) {
	if s.key == nil {
		return plain, nil
	}
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	out := append([]byte(sealedPrefix), nonce[:]...)
	return secretbox.Seal(out, plain, &nonce, s.key), nil
}

func (s *FileCredentialStore) open(data []byte) ([]byte, error) {
	sealed := len(data) >= len(sealedPrefix) && string(data[:len(sealedPrefix)]) == sealedPrefix
	switch {
	case s.key == nil && !sealed:
		return data, nil
	case s.key == nil && sealed:
		return nil, errors.New("credential file is sealed but no key configured")
	case !sealed:
		return nil, errors.New("credential file is not sealed")
	}
	body := data[len(sealedPrefix):]
	if len(body) < 24 {
		return nil, errors.New("sealed credential too short")
	}
	var nonce [24]byte
	copy(nonce[:], body[:24])
	plain, ok := secretbox.Open(nil, body[24:], &nonce, s.key)
	if !ok {
		return nil, errors.New("credential file could not be opened")
	}
	return plain, nil
}
