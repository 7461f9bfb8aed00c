package services

import (
	"context"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/crmbridge/external-service/issuer"
)

// ProfileFetcher fetches the remote user profile for a service token bearer.
type ProfileFetcher interface {
	Profile(ctx context.Context, serviceToken string) (*issuer.UserProfile, error)
}

// loginExtractors is the precedence order for deriving a login from a
// profile: explicit login, then username, then profile email, then the
// stringified numeric id. Evaluated in sequence, stopping at the first
// non-empty result.
var loginExtractors = []func(*issuer.UserProfile) string{
	func(p *issuer.UserProfile) string { return p.Login },
	func(p *issuer.UserProfile) string { return p.Username },
	func(p *issuer.UserProfile) string { return p.Email },
	func(p *issuer.UserProfile) string {
		if p.ID == 0 {
			return ""
		}
		return strconv.FormatInt(p.ID, 10)
	},
}

// IdentityResolver resolves a stable login string per subject, used by
// downstream webhook integrations as a correlation identifier. Resolved
// logins are cached for the process lifetime, keyed by subject id, never by
// token value. There is no TTL: a profile rename performed out-of-band is
// not reflected until the cache is explicitly cleared. That is a documented
// limitation; callers needing freshness use Invalidate.
type IdentityResolver struct {
	profiles ProfileFetcher
	logger   *zap.Logger

	mu     sync.RWMutex
	logins map[int64]string
}

// NewIdentityResolver creates a new identity resolver.
func NewIdentityResolver(profiles ProfileFetcher, logger *zap.Logger) *IdentityResolver {
	return &IdentityResolver{
		profiles: profiles,
		logger:   logger,
		logins:   make(map[int64]string),
	}
}

// ResolveLogin returns the login string for the subject. Order: cache hit,
// then one remote profile fetch, then the email argument as fallback. It
// fails with ErrIdentityUnresolved only once every strategy is exhausted.
func (r *IdentityResolver) ResolveLogin(ctx context.Context, serviceToken string, subjectID int64, email string) (string, error) {
	r.mu.RLock()
	login, ok := r.logins[subjectID]
	r.mu.RUnlock()
	if ok {
		return login, nil
	}

	// Exactly one remote attempt per call; failure falls back, never retries.
	profile, err := r.profiles.Profile(ctx, serviceToken)
	if err == nil {
		if login := loginFromProfile(profile); login != "" {
			r.store(subjectID, login)
			return login, nil
		}
		r.logger.Warn("profile carried no usable login field",
			zap.Int64("subject_id", subjectID))
	} else {
		r.logger.Warn("profile fetch failed, falling back to token email",
			zap.Int64("subject_id", subjectID),
			zap.Error(err))
	}

	if email != "" {
		r.store(subjectID, email)
		return email, nil
	}

	return "", ErrIdentityUnresolved
}

// Invalidate drops the cached login for one subject.
func (r *IdentityResolver) Invalidate(subjectID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.logins, subjectID)
}

// InvalidateAll clears the whole login cache.
func (r *IdentityResolver) InvalidateAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logins = make(map[int64]string)
}

func (r *IdentityResolver) store(subjectID int64, login string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logins[subjectID] = login
}

func loginFromProfile(profile *issuer.UserProfile) string {
	for _, extract := range loginExtractors {
		if login := extract(profile); login != "" {
			return login
		}
	}
	return ""
}
