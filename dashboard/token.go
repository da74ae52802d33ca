// Package dashboard serves the read-only statistics API consumed by
// the web front-end, gated by short-lived per-user access tokens.
package dashboard

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rustyeddy/journalbot/clock"
)

// TokenStore issues and verifies dashboard access tokens. One active
// token per user: while a token still has comfortable validity left it
// is reused, so repeated /dashboard requests do not churn links.
type TokenStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	reuse   time.Duration
	clk     clock.Clock
	entropy io.Reader

	byToken map[string]tokenEntry
	byUser  map[int64]string
}

type tokenEntry struct {
	userID  int64
	expires time.Time
}

// NewTokenStore returns a store issuing tokens valid for ttl. A token
// is reused while more than reuse validity remains.
func NewTokenStore(ttl, reuse time.Duration, clk clock.Clock) *TokenStore {
	// Seed a PRNG from crypto/rand so token entropy is unpredictable;
	// ulid.Monotonic keeps same-millisecond tokens distinct.
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &TokenStore{
		ttl:     ttl,
		reuse:   reuse,
		clk:     clk,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0),
		byToken: make(map[string]tokenEntry),
		byUser:  make(map[int64]string),
	}
}

// Issue returns the user's dashboard token, minting a new one when
// none exists or the current one is close to expiry.
func (s *TokenStore) Issue(userID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clk.Now()
	if tok, ok := s.byUser[userID]; ok {
		if entry, ok := s.byToken[tok]; ok && now.Add(s.reuse).Before(entry.expires) {
			return tok
		}
		delete(s.byToken, tok)
		delete(s.byUser, userID)
	}

	id, err := ulid.New(ulid.Timestamp(now.UTC()), s.entropy)
	if err != nil {
		// Only possible if time goes backwards or entropy fails.
		panic(err)
	}
	tok := id.String()

	s.byToken[tok] = tokenEntry{userID: userID, expires: now.Add(s.ttl)}
	s.byUser[userID] = tok
	return tok
}

// Verify resolves a token to its user. Expired tokens are removed on
// the way out.
func (s *TokenStore) Verify(tok string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.byToken[tok]
	if !ok {
		return 0, false
	}
	if !s.clk.Now().Before(entry.expires) {
		delete(s.byToken, tok)
		if s.byUser[entry.userID] == tok {
			delete(s.byUser, entry.userID)
		}
		return 0, false
	}
	return entry.userID, true
}

// Sweep drops every expired token and reports how many were removed.
func (s *TokenStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clk.Now()
	removed := 0
	for tok, entry := range s.byToken {
		if !now.Before(entry.expires) {
			delete(s.byToken, tok)
			if s.byUser[entry.userID] == tok {
				delete(s.byUser, entry.userID)
			}
			removed++
		}
	}
	return removed
}
