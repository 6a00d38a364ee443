package filestore

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/wakelni-client/credentials"
	apperrors "github.com/jrsteele09/wakelni-client/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	fileVersion = 1
	filePerm    = 0o600
	dirPerm     = 0o700

	saltLength    = 16
	argonTime     = 1
	argonMemoryKB = 64 * 1024
	argonThreads  = 4
)

var _ credentials.BatchStore = (*Store)(nil)

// envelope is the on-disk document. Exactly one of Values or Data is populated.
type envelope struct {
	Version int               `json:"version"`
	Values  map[string]string `json:"values,omitempty"`
	Sealed  bool              `json:"sealed,omitempty"`
	Salt    []byte            `json:"salt,omitempty"`
	Nonce   []byte            `json:"nonce,omitempty"`
	Data    []byte            `json:"data,omitempty"`
}

// Store persists credentials as a JSON document on disk. Every operation re-reads the
// file so values written by another process are visible. With a passphrase the
// values are sealed with XChaCha20-Poly1305 under an argon2id-derived key.
type Store struct {
	path       string
	passphrase []byte
	logger     zerolog.Logger

	lock    sync.Mutex
	salt    []byte
	derived []byte
}

type Option func(*Store)

// WithPassphrase seals the file contents. Plain files written earlier are still read
// and are sealed on the next write.
func WithPassphrase(passphrase string) Option {
	return func(s *Store) {
		if passphrase != "" {
			s.passphrase = []byte(passphrase)
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New returns a store backed by the file at path. The file and its directory are
// created on first write.
func New(path string, options ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("[filestore.New] path is required")
	}
	s := &Store{
		path:   path,
		logger: log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	values, err := s.read()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", credentials.ErrKeyNotFound
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.SetAll(ctx, map[string]string{key: value})
}

func (s *Store) Remove(ctx context.Context, key string) error {
	return s.RemoveAll(ctx, key)
}

func (s *Store) SetAll(_ context.Context, values map[string]string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	current, err := s.read()
	if err != nil {
		return err
	}
	for k, v := range values {
		current[k] = v
	}
	return s.write(current)
}

func (s *Store) RemoveAll(_ context.Context, keys ...string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	current, err := s.read()
	if err != nil {
		return err
	}
	changed := false
	for _, k := range keys {
		if _, ok := current[k]; ok {
			delete(current, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.write(current)
}

func (s *Store) Replace(_ context.Context, values map[string]string, remove ...string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	current, err := s.read()
	if err != nil {
		return err
	}
	for _, k := range remove {
		delete(current, k)
	}
	for k, v := range values {
		current[k] = v
	}
	return s.write(current)
}

func (s *Store) read() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[filestore.read] ReadFile")
	}
	if len(raw) == 0 {
		return make(map[string]string), nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrap(apperrors.ErrCorruptStore, err.Error())
	}
	if !env.Sealed {
		if env.Values == nil {
			env.Values = make(map[string]string)
		}
		return env.Values, nil
	}
	return s.open(&env)
}

func (s *Store) open(env *envelope) (map[string]string, error) {
	if len(s.passphrase) == 0 {
		return nil, errors.Wrap(apperrors.ErrInvalidPassphrase, "[filestore.open] store is sealed and no passphrase is configured")
	}
	key, err := s.keyFor(env.Salt)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, errors.Wrap(err, "[filestore.open] NewX")
	}
	if len(env.Nonce) != aead.NonceSize() {
		return nil, errors.Wrap(apperrors.ErrCorruptStore, "[filestore.open] bad nonce length")
	}
	plain, err := aead.Open(nil, env.Nonce, env.Data, nil)
	if err != nil {
		return nil, apperrors.ErrInvalidPassphrase
	}
	values := make(map[string]string)
	if err := json.Unmarshal(plain, &values); err != nil {
		return nil, errors.Wrap(apperrors.ErrCorruptStore, err.Error())
	}
	return values, nil
}

func (s *Store) write(values map[string]string) error {
	env := envelope{Version: fileVersion}
	if len(s.passphrase) == 0 {
		env.Values = values
	} else if err := s.seal(&env, values); err != nil {
		return err
	}

	raw, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[filestore.write] Marshal")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return errors.Wrap(err, "[filestore.write] MkdirAll")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*.tmp")
	if err != nil {
		return errors.Wrap(err, "[filestore.write] CreateTemp")
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[filestore.write] Write")
	}
	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[filestore.write] Chmod")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "[filestore.write] Close")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Wrap(err, "[filestore.write] Rename")
	}
	s.logger.Debug().Str("path", s.path).Int("keys", len(values)).Bool("sealed", env.Sealed).Msg("Credential store written")
	return nil
}

func (s *Store) seal(env *envelope, values map[string]string) error {
	if s.salt == nil {
		salt := make([]byte, saltLength)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return errors.Wrap(err, "[filestore.seal] salt")
		}
		s.salt = salt
		s.derived = nil
	}
	key, err := s.keyFor(s.salt)
	if err != nil {
		return err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return errors.Wrap(err, "[filestore.seal] NewX")
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return errors.Wrap(err, "[filestore.seal] nonce")
	}
	plain, err := json.Marshal(values)
	if err != nil {
		return errors.Wrap(err, "[filestore.seal] Marshal")
	}

	env.Sealed = true
	env.Salt = s.salt
	env.Nonce = nonce
	env.Data = aead.Seal(nil, nonce, plain, nil)
	return nil
}

// keyFor derives the sealing key for salt, caching the most recent derivation.
func (s *Store) keyFor(salt []byte) ([]byte, error) {
	if len(salt) != saltLength {
		return nil, errors.Wrap(apperrors.ErrCorruptStore, "[filestore.keyFor] bad salt length")
	}
	if s.derived != nil && string(s.salt) == string(salt) {
		return s.derived, nil
	}
	key := argon2.IDKey(s.passphrase, salt, argonTime, argonMemoryKB, argonThreads, chacha20poly1305.KeySize)
	s.salt = append([]byte(nil), salt...)
	s.derived = key
	return key, nil
}
