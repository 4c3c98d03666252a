package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizdir_listing/pkg/directory"
)

const testSecret = "test-secret"

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func signToken(t *testing.T, secret, sub string, exp time.Time) string {
	t.Helper()
	claims := Claims{
		Email: sub + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Hour)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

type fakeAuth struct {
	loginResp   *directory.TokenResp
	loginErr    error
	refreshResp *directory.TokenResp
	refreshErr  error
	release     chan struct{}

	refreshCalls atomic.Int32
	logoutCalls  atomic.Int32
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*directory.TokenResp, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeAuth) Refresh(ctx context.Context, refreshToken string) (*directory.TokenResp, error) {
	f.refreshCalls.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.refreshResp, f.refreshErr
}

func (f *fakeAuth) Logout(ctx context.Context, refreshToken string) error {
	f.logoutCalls.Add(1)
	return nil
}

func newTestManager(auth AuthAPI) *Manager {
	m := NewManager(auth, Config{Secret: testSecret}, nil)
	m.now = func() time.Time { return testNow }
	return m
}

func TestManager_Login(t *testing.T) {
	access := signToken(t, testSecret, "u1", testNow.Add(time.Hour))
	m := newTestManager(&fakeAuth{loginResp: &directory.TokenResp{AccessToken: access, RefreshToken: "r1"}})

	s, err := m.Login(context.Background(), "u1@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", s.UserID())
	assert.Equal(t, "u1@example.com", s.Email())
	assert.Equal(t, "r1", s.RefreshToken())
	assert.False(t, s.Expired(testNow))
	assert.True(t, s.Expired(testNow.Add(2*time.Hour)))
}

func TestManager_LoginErrors(t *testing.T) {
	m := newTestManager(&fakeAuth{loginErr: directory.ErrUnauthorized})
	_, err := m.Login(context.Background(), "a@b.c", "bad")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// 签名密钥不一致的令牌不被接受
	forged := signToken(t, "other-secret", "u1", testNow.Add(time.Hour))
	m = newTestManager(&fakeAuth{loginResp: &directory.TokenResp{AccessToken: forged}})
	_, err = m.Login(context.Background(), "a@b.c", "pw")
	assert.Error(t, err)
}

func TestManager_Resolve(t *testing.T) {
	valid := signToken(t, testSecret, "u1", testNow.Add(time.Hour))
	expired := signToken(t, testSecret, "u1", testNow.Add(-time.Minute))
	fresh := signToken(t, testSecret, "u1", testNow.Add(2*time.Hour))

	auth := &fakeAuth{refreshResp: &directory.TokenResp{AccessToken: fresh, RefreshToken: "r2"}}
	m := newTestManager(auth)
	ctx := context.Background()

	s, refreshed, err := m.Resolve(ctx, valid, "r1")
	require.NoError(t, err)
	assert.False(t, refreshed)
	assert.Equal(t, valid, s.AccessToken())

	s, refreshed, err = m.Resolve(ctx, expired, "r1")
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Equal(t, fresh, s.AccessToken())
	assert.Equal(t, "r2", s.RefreshToken())

	s, refreshed, err = m.Resolve(ctx, "", "r1")
	require.NoError(t, err)
	assert.True(t, refreshed)

	_, _, err = m.Resolve(ctx, expired, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, _, err = m.Resolve(ctx, "garbage", "r1")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, int32(2), auth.refreshCalls.Load())
}

func TestManager_RefreshRejected(t *testing.T) {
	m := newTestManager(&fakeAuth{refreshErr: directory.ErrUnauthorized})
	_, err := m.Refresh(context.Background(), "r1")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	m = newTestManager(&fakeAuth{refreshErr: &directory.APIError{StatusCode: 503, Message: "down"}})
	_, err = m.Refresh(context.Background(), "r1")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnauthenticated))
}

func TestManager_ConcurrentRefreshCollapses(t *testing.T) {
	fresh := signToken(t, testSecret, "u1", testNow.Add(time.Hour))
	auth := &fakeAuth{
		refreshResp: &directory.TokenResp{AccessToken: fresh, RefreshToken: "r2"},
		release:     make(chan struct{}),
	}
	m := newTestManager(auth)

	const n = 8
	var wg sync.WaitGroup
	results := make([]Session, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = m.Refresh(context.Background(), "r1")
		}(i)
	}
	// 等待所有调用进入 singleflight
	time.Sleep(50 * time.Millisecond)
	close(auth.release)
	wg.Wait()

	assert.Equal(t, int32(1), auth.refreshCalls.Load())
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "r2", results[i].RefreshToken())
	}
}

func TestManager_RefreshSurvivesFirstCallerCancel(t *testing.T) {
	fresh := signToken(t, testSecret, "u1", testNow.Add(time.Hour))
	auth := &fakeAuth{
		refreshResp: &directory.TokenResp{AccessToken: fresh, RefreshToken: "r2"},
		release:     make(chan struct{}),
	}
	m := newTestManager(auth)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := m.Refresh(ctx, "r1")
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return auth.refreshCalls.Load() == 1 }, time.Second, 5*time.Millisecond)

	var second Session
	var secondErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		second, secondErr = m.Refresh(context.Background(), "r1")
	}()
	// 等待第二个调用加入同一次刷新
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled, "首个调用方按自己的 ctx 返回")
	case <-time.After(time.Second):
		t.Fatal("首个调用方取消后未返回")
	}

	close(auth.release)
	<-done
	require.NoError(t, secondErr, "其他调用方不受首个调用方取消影响")
	assert.Equal(t, "r2", second.RefreshToken())
	assert.Equal(t, int32(1), auth.refreshCalls.Load())
}

func TestManager_Logout(t *testing.T) {
	access := signToken(t, testSecret, "u1", testNow.Add(time.Hour))
	auth := &fakeAuth{loginResp: &directory.TokenResp{AccessToken: access, RefreshToken: "r1"}}
	m := newTestManager(auth)

	s, err := m.Login(context.Background(), "u1@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, m.Logout(context.Background(), s))
	require.NoError(t, m.Logout(context.Background(), Session{}))
	assert.Equal(t, int32(1), auth.logoutCalls.Load())
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", BearerToken(ctx))
	_, ok := FromContext(ctx)
	assert.False(t, ok)

	s := Session{userID: "u1", accessToken: "tok"}
	ctx = WithSession(ctx, s)
	got, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", got.UserID())
	assert.Equal(t, "tok", BearerToken(ctx))
}
