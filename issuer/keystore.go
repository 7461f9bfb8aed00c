package issuer

import (
	"context"
	"crypto/rsa"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// KeyFetcher fetches the PEM-encoded verification key from the issuer.
type KeyFetcher interface {
	PublicKey(ctx context.Context) (string, error)
}

// KeyStore caches the RSA verification key used for service token
// validation. A pre-provisioned key is normalized once and never expires.
// A remotely fetched key is cached for the configured TTL; concurrent
// callers during a fetch share the single in-flight result, and a failed
// fetch caches nothing so the next call retries from scratch.
type KeyStore struct {
	fetcher  KeyFetcher
	provided string
	ttl      time.Duration
	logger   *zap.Logger

	mu        sync.RWMutex
	key       *rsa.PublicKey
	fetchedAt time.Time

	group singleflight.Group
}

// KeyStoreConfig holds configuration for the key store.
type KeyStoreConfig struct {
	// ProvidedKey is an optional pre-provisioned PEM key. When set, remote
	// fetching is skipped entirely.
	ProvidedKey string
	// TTL bounds how long a remotely fetched key is served from cache.
	TTL time.Duration
}

// NewKeyStore creates a new key store backed by the given fetcher.
func NewKeyStore(fetcher KeyFetcher, cfg KeyStoreConfig, logger *zap.Logger) *KeyStore {
	if cfg.TTL == 0 {
		cfg.TTL = 1 * time.Hour
	}
	return &KeyStore{
		fetcher:  fetcher,
		provided: cfg.ProvidedKey,
		ttl:      cfg.TTL,
		logger:   logger,
	}
}

// Get returns the current verification key, fetching it from the issuer on
// cache miss or TTL expiry. It fails wrapping ErrKeyUnavailable when neither
// a pre-provisioned key nor a remote fetch yields a usable key.
func (s *KeyStore) Get(ctx context.Context) (*rsa.PublicKey, error) {
	s.mu.RLock()
	if s.key != nil && (s.provided != "" || time.Since(s.fetchedAt) < s.ttl) {
		key := s.key
		s.mu.RUnlock()
		return key, nil
	}
	s.mu.RUnlock()

	if s.provided != "" {
		return s.loadProvided()
	}

	// Collapse concurrent refreshes into one outbound fetch; every caller
	// arriving while the fetch is in flight awaits the same result.
	v, err, _ := s.group.Do("verification-key", func() (interface{}, error) {
		return s.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*rsa.PublicKey), nil
}

// Invalidate drops the cached key so the next Get fetches a fresh one.
func (s *KeyStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = nil
	s.fetchedAt = time.Time{}
}

func (s *KeyStore) loadProvided() (*rsa.PublicKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key != nil {
		return s.key, nil
	}

	key, err := parseVerificationKey(s.provided)
	if err != nil {
		return nil, fmt.Errorf("%w: pre-provisioned key: %v", ErrKeyUnavailable, err)
	}
	s.key = key
	return key, nil
}

func (s *KeyStore) refresh(ctx context.Context) (*rsa.PublicKey, error) {
	// A waiter queued behind a completed flight may land here after the
	// cache was already refreshed.
	s.mu.RLock()
	if s.key != nil && time.Since(s.fetchedAt) < s.ttl {
		key := s.key
		s.mu.RUnlock()
		return key, nil
	}
	s.mu.RUnlock()

	pem, err := s.fetcher.PublicKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
	}

	key, err := parseVerificationKey(pem)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
	}

	s.mu.Lock()
	s.key = key
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	s.logger.Debug("verification key refreshed")
	return key, nil
}

func parseVerificationKey(raw string) (*rsa.PublicKey, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(NormalizeKeyPEM(raw)))
	if err != nil {
		return nil, fmt.Errorf("parse RSA public key: %w", err)
	}
	return key, nil
}

var pemLabelRegex = regexp.MustCompile(`-----BEGIN ([A-Z0-9 ]+)-----`)

// NormalizeKeyPEM repairs common transport damage to a PEM public key:
// surrounding quotes, escaped or missing newlines around the header and
// footer, unwrapped base64 bodies and redundant blank lines.
func NormalizeKeyPEM(raw string) string {
	s := strings.TrimSpace(raw)
	for _, quote := range []string{`"`, `'`} {
		if len(s) >= 2 && strings.HasPrefix(s, quote) && strings.HasSuffix(s, quote) {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	s = strings.ReplaceAll(s, `\n`, "\n")

	label := "PUBLIC KEY"
	if m := pemLabelRegex.FindStringSubmatch(s); m != nil {
		label = m[1]
	}
	header := "-----BEGIN " + label + "-----"
	footer := "-----END " + label + "-----"

	body := strings.ReplaceAll(s, header, "")
	body = strings.ReplaceAll(body, footer, "")
	body = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, body)

	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	for i := 0; i < len(body); i += 64 {
		end := i + 64
		if end > len(body) {
			end = len(body)
		}
		b.WriteString(body[i:end])
		b.WriteByte('\n')
	}
	b.WriteString(footer)
	b.WriteByte('\n')
	return b.String()
}
