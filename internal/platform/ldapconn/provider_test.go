package ldapconn

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirgate/internal/directory"
)

type stubConn struct {
	closed bool
}

func (s *stubConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	return &ldap.SearchResult{}, nil
}

func (s *stubConn) WhoAmI(controls []ldap.Control) (*ldap.WhoAmIResult, error) {
	return &ldap.WhoAmIResult{}, nil
}

func (s *stubConn) Close() error {
	s.closed = true
	return nil
}

func testDialer(t *testing.T) (*Dialer, *[]*stubConn) {
	t.Helper()
	conns := &[]*stubConn{}
	d := &Dialer{
		BaseDN: "dc=example,dc=test",
		dial: func() (directory.Conn, error) {
			conn := &stubConn{}
			*conns = append(*conns, conn)
			return conn, nil
		},
	}
	return d, conns
}

func TestDialerGetDialsEveryTime(t *testing.T) {
	d, conns := testDialer(t)

	a, releaseA, err := d.Get(context.Background(), "jdoe@EXAMPLE.TEST")
	require.NoError(t, err)
	defer releaseA()
	b, releaseB, err := d.Get(context.Background(), "jdoe@EXAMPLE.TEST")
	require.NoError(t, err)
	defer releaseB()

	assert.NotSame(t, a, b)
	assert.Len(t, *conns, 2)
}

func TestDialerReleaseClosesConnection(t *testing.T) {
	d, conns := testDialer(t)

	_, release, err := d.Get(context.Background(), "jdoe@EXAMPLE.TEST")
	require.NoError(t, err)
	require.Len(t, *conns, 1)
	assert.False(t, (*conns)[0].closed)

	release()
	assert.True(t, (*conns)[0].closed, "a fresh-dialed connection must not outlive its request")
}

func TestDialerGetDialFailureIsUnavailable(t *testing.T) {
	d := &Dialer{
		dial: func() (directory.Conn, error) {
			return nil, errors.New("connection refused")
		},
	}

	_, _, err := d.Get(context.Background(), "jdoe@EXAMPLE.TEST")
	require.Error(t, err)
	assert.Equal(t, directory.KindUnavailable, directory.KindOf(err))
}

func TestCacheGetReusesPerPrincipal(t *testing.T) {
	d, conns := testDialer(t)
	cache := NewCache(d)

	a, releaseA, err := cache.Get(context.Background(), "jdoe@EXAMPLE.TEST")
	require.NoError(t, err)
	releaseA()
	b, releaseB, err := cache.Get(context.Background(), "jdoe@EXAMPLE.TEST")
	require.NoError(t, err)
	releaseB()
	other, releaseOther, err := cache.Get(context.Background(), "admin@EXAMPLE.TEST")
	require.NoError(t, err)
	releaseOther()

	assert.Same(t, a, b, "one bound connection per principal")
	assert.NotSame(t, a, other)
	assert.Len(t, *conns, 2)
	assert.False(t, (*conns)[0].closed, "release must not close a cached connection")
}

func TestCacheEvictForcesRedial(t *testing.T) {
	d, conns := testDialer(t)
	cache := NewCache(d)

	a, release, err := cache.Get(context.Background(), "jdoe@EXAMPLE.TEST")
	require.NoError(t, err)
	release()

	cache.Evict("jdoe@EXAMPLE.TEST")
	assert.True(t, (*conns)[0].closed, "eviction closes the dropped connection")

	b, release, err := cache.Get(context.Background(), "jdoe@EXAMPLE.TEST")
	require.NoError(t, err)
	release()
	assert.NotSame(t, a, b)
	assert.Len(t, *conns, 2)
}

func TestCacheEvictUnknownPrincipal(t *testing.T) {
	d, _ := testDialer(t)
	cache := NewCache(d)
	cache.Evict("never-seen@EXAMPLE.TEST")
}

func TestReadyCheckUnreachableDirectory(t *testing.T) {
	check := ReadyCheck("ldap://127.0.0.1:1", time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.Error(t, check(ctx))
}
