package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time           { return c.t }
func (c *fakeClock) Location() *time.Location { return c.t.Location() }

func newTokenFixture() (*TokenStore, *fakeClock) {
	clk := &fakeClock{t: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)}
	return NewTokenStore(24*time.Hour, time.Hour, clk), clk
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	s, _ := newTokenFixture()

	tok := s.Issue(42)
	require.NotEmpty(t, tok)

	userID, ok := s.Verify(tok)
	assert.True(t, ok)
	assert.Equal(t, int64(42), userID)

	_, ok = s.Verify("bogus")
	assert.False(t, ok)
}

func TestIssueReusesWhileFresh(t *testing.T) {
	t.Parallel()

	s, clk := newTokenFixture()

	tok := s.Issue(42)
	clk.t = clk.t.Add(12 * time.Hour)
	assert.Equal(t, tok, s.Issue(42))

	// With less than the reuse margin left, a fresh token is minted.
	clk.t = clk.t.Add(11*time.Hour + 30*time.Minute)
	tok2 := s.Issue(42)
	assert.NotEqual(t, tok, tok2)

	// The old token was retired along the way.
	_, ok := s.Verify(tok)
	assert.False(t, ok)
}

func TestVerifyExpired(t *testing.T) {
	t.Parallel()

	s, clk := newTokenFixture()

	tok := s.Issue(42)
	clk.t = clk.t.Add(24*time.Hour + time.Second)

	_, ok := s.Verify(tok)
	assert.False(t, ok)
}

func TestTokensArePerUser(t *testing.T) {
	t.Parallel()

	s, _ := newTokenFixture()

	a := s.Issue(1)
	b := s.Issue(2)
	assert.NotEqual(t, a, b)

	userID, ok := s.Verify(b)
	require.True(t, ok)
	assert.Equal(t, int64(2), userID)
}

func TestSweep(t *testing.T) {
	t.Parallel()

	s, clk := newTokenFixture()

	s.Issue(1)
	s.Issue(2)
	clk.t = clk.t.Add(25 * time.Hour)
	tok := s.Issue(3) // fresh relative to the advanced clock

	assert.Equal(t, 2, s.Sweep())
	_, ok := s.Verify(tok)
	assert.True(t, ok)
}
