package validator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/authguard/revocation"
	"github.com/kochabx/authguard/session"
	"github.com/kochabx/authguard/token"
	"github.com/kochabx/authguard/userstore"
)

const desktopUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 Chrome/120.0 Safari/537.36"

type fakeUsers struct {
	user  *userstore.User
	err   error
	delay time.Duration
}

func (f *fakeUsers) FindUserByID(ctx context.Context, id string) (*userstore.User, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

var errLedgerDown = errors.New("ledger down")

type downLedger struct{}

func (downLedger) Add(ctx context.Context, tokenHash string, ttl time.Duration) error {
	return errLedgerDown
}

func (downLedger) Contains(ctx context.Context, tokenHash string) (bool, error) {
	return false, errLedgerDown
}

func (downLedger) Size(ctx context.Context) (int64, error) { return 0, errLedgerDown }

func (downLedger) Sweep(ctx context.Context) error { return errLedgerDown }

type fixture struct {
	issuer    *token.Issuer
	ledger    *revocation.MemoryLedger
	validator *Validator
	reqCtx    session.RequestContext
}

func newFixture(t *testing.T, clock func() time.Time, opts ...Option) *fixture {
	t.Helper()

	config := &token.Config{
		AccessSecret:   "test-access-secret-0123456789abcdef",
		RefreshSecret:  "test-refresh-secret-0123456789abcdef",
		AccessTokenTTL: 7200,
	}
	issuer, err := token.New(config, token.WithClock(clock))
	require.NoError(t, err)

	ledger := revocation.NewMemoryLedger(revocation.WithClock(clock))
	opts = append([]Option{WithClock(clock)}, opts...)

	return &fixture{
		issuer:    issuer,
		ledger:    ledger,
		validator: New(issuer, ledger, opts...),
		reqCtx: session.RequestContext{
			UserAgent:      desktopUA,
			AcceptLanguage: "en-US,en;q=0.9",
			AcceptEncoding: "gzip, deflate, br",
			IP:             "203.0.113.10",
		},
	}
}

func (f *fixture) accessToken(t *testing.T) string {
	t.Helper()

	raw, err := f.issuer.Issue(token.KindAccess, &token.Claims{
		UserID:      "user-1",
		Role:        token.RoleTeacher,
		SessionID:   "session-1",
		Fingerprint: f.reqCtx.Fingerprint(),
		IP:          f.reqCtx.IP,
	})
	require.NoError(t, err)
	return raw
}

func TestValidatePasses(t *testing.T) {
	f := newFixture(t, time.Now)
	raw := f.accessToken(t)

	result := f.validator.Validate(context.Background(), raw, f.reqCtx, LevelHigh)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Flags)
	assert.False(t, result.RequireReauth)
	require.NotNil(t, result.Claims)
	assert.Equal(t, "user-1", result.Claims.UserID)
}

func TestValidateBlacklistedBeforeVerification(t *testing.T) {
	f := newFixture(t, time.Now)
	raw := f.accessToken(t)

	require.NoError(t, f.ledger.Add(context.Background(), token.Hash(raw), time.Hour))

	result := f.validator.Validate(context.Background(), raw, f.reqCtx, LevelLow)

	assert.False(t, result.Valid)
	assert.True(t, result.RequireReauth)
	assert.True(t, result.HasFlag(FlagTokenBlacklisted))
	assert.ErrorIs(t, result.Err, token.ErrRevokedToken)
}

func TestValidateLedgerOutageFailsClosed(t *testing.T) {
	f := newFixture(t, time.Now)
	raw := f.accessToken(t)

	v := New(f.issuer, downLedger{}, WithClock(time.Now))
	result := v.Validate(context.Background(), raw, f.reqCtx, LevelLow)

	assert.False(t, result.Valid, "an unreachable ledger must not validate the token")
	assert.True(t, result.HasFlag(FlagRevocationCheckFailed))
	assert.ErrorIs(t, result.Err, errLedgerDown)
	assert.Nil(t, result.Claims)
}

func TestValidateExpired(t *testing.T) {
	current := time.Now()
	f := newFixture(t, func() time.Time { return current })
	raw := f.accessToken(t)

	current = current.Add(3 * time.Hour)

	result := f.validator.Validate(context.Background(), raw, f.reqCtx, LevelLow)

	assert.False(t, result.Valid)
	assert.True(t, result.HasFlag(FlagExpiredToken))
	assert.ErrorIs(t, result.Err, token.ErrExpiredToken)
	assert.False(t, result.RequireReauth, "an expired token is repaired by refresh, not reauth")
}

func TestValidateWrongKind(t *testing.T) {
	f := newFixture(t, time.Now)

	refresh, err := f.issuer.Issue(token.KindRefresh, &token.Claims{UserID: "user-1", SessionID: "session-1"})
	require.NoError(t, err)

	result := f.validator.Validate(context.Background(), refresh, f.reqCtx, LevelLow)

	assert.False(t, result.Valid)
	assert.True(t, result.HasFlag(FlagWrongTokenKind))
	assert.ErrorIs(t, result.Err, token.ErrWrongTokenKind)
}

func TestMismatchByLevel(t *testing.T) {
	f := newFixture(t, time.Now)
	raw := f.accessToken(t)

	moved := f.reqCtx
	moved.IP = "198.51.100.7"

	// Low tolerates the mismatch but still flags it.
	result := f.validator.Validate(context.Background(), raw, moved, LevelLow)
	assert.True(t, result.Valid)
	assert.True(t, result.HasFlag(FlagIPMismatch))
	assert.False(t, result.RequireReauth)

	// High hard-fails the same condition.
	result = f.validator.Validate(context.Background(), raw, moved, LevelHigh)
	assert.False(t, result.Valid)
	assert.True(t, result.HasFlag(FlagIPMismatch))
	assert.True(t, result.RequireReauth)
}

func TestDeviceMismatch(t *testing.T) {
	f := newFixture(t, time.Now)
	raw := f.accessToken(t)

	otherDevice := f.reqCtx
	otherDevice.UserAgent = "Mozilla/5.0 (Linux; Android 14) AppleWebKit/537.36 Chrome/120.0 Mobile Safari/537.36"

	result := f.validator.Validate(context.Background(), raw, otherDevice, LevelLow)
	assert.True(t, result.Valid, "low only flags a device mismatch")
	assert.True(t, result.HasFlag(FlagDeviceMismatch))

	result = f.validator.Validate(context.Background(), raw, otherDevice, LevelMedium)
	assert.False(t, result.Valid, "medium hard-fails a device mismatch")
	assert.True(t, result.RequireReauth)
}

func TestTokenAgeByLevel(t *testing.T) {
	current := time.Now()
	f := newFixture(t, func() time.Time { return current })
	raw := f.accessToken(t)

	current = current.Add(90 * time.Minute)

	// Within the cryptographic lifetime and the low age ceiling.
	result := f.validator.Validate(context.Background(), raw, f.reqCtx, LevelLow)
	assert.True(t, result.Valid)

	// Critical caps age and freshness at one hour.
	result = f.validator.Validate(context.Background(), raw, f.reqCtx, LevelCritical)
	assert.False(t, result.Valid)
	assert.True(t, result.HasFlag(FlagTokenTooOld))
	assert.True(t, result.HasFlag(FlagTokenNotFresh))
}

func TestShouldRefreshHint(t *testing.T) {
	current := time.Now()
	f := newFixture(t, func() time.Time { return current })
	raw := f.accessToken(t)

	result := f.validator.Validate(context.Background(), raw, f.reqCtx, LevelLow)
	assert.True(t, result.Valid)
	assert.False(t, result.ShouldRefresh)

	current = current.Add(2*time.Hour - 3*time.Minute)

	result = f.validator.Validate(context.Background(), raw, f.reqCtx, LevelLow)
	assert.True(t, result.Valid)
	assert.True(t, result.ShouldRefresh)
}

func TestUserStatusCheck(t *testing.T) {
	t.Run("unverified user fails", func(t *testing.T) {
		users := &fakeUsers{user: &userstore.User{ID: "user-1", IsVerified: false, IsActive: true}}
		f := newFixture(t, time.Now, WithUserStore(users))

		result := f.validator.Validate(context.Background(), f.accessToken(t), f.reqCtx, LevelHigh)
		assert.False(t, result.Valid)
		assert.True(t, result.HasFlag(FlagUserNotVerified))
	})

	t.Run("missing user fails", func(t *testing.T) {
		users := &fakeUsers{err: userstore.ErrUserNotFound}
		f := newFixture(t, time.Now, WithUserStore(users))

		result := f.validator.Validate(context.Background(), f.accessToken(t), f.reqCtx, LevelHigh)
		assert.False(t, result.Valid)
		assert.True(t, result.HasFlag(FlagUserNotFound))
	})

	t.Run("slow store fails closed", func(t *testing.T) {
		users := &fakeUsers{
			user:  &userstore.User{ID: "user-1", IsVerified: true, IsActive: true},
			delay: time.Second,
		}
		f := newFixture(t, time.Now,
			WithUserStore(users),
			WithUserStatusTimeout(10*time.Millisecond),
		)

		result := f.validator.Validate(context.Background(), f.accessToken(t), f.reqCtx, LevelHigh)
		assert.False(t, result.Valid, "a store timeout must not validate the token")
		assert.True(t, result.HasFlag(FlagUserStatusCheckFailed))
	})

	t.Run("skipped below high", func(t *testing.T) {
		users := &fakeUsers{err: userstore.ErrUserNotFound}
		f := newFixture(t, time.Now, WithUserStore(users))

		result := f.validator.Validate(context.Background(), f.accessToken(t), f.reqCtx, LevelMedium)
		assert.True(t, result.Valid)
	})
}

func TestPolicyOverride(t *testing.T) {
	f := newFixture(t, time.Now, WithPolicy(LevelLow, Policy{
		CheckIP:              true,
		HardFailOnIPMismatch: true,
	}))
	raw := f.accessToken(t)

	moved := f.reqCtx
	moved.IP = "198.51.100.7"

	result := f.validator.Validate(context.Background(), raw, moved, LevelLow)
	assert.False(t, result.Valid)
	assert.True(t, result.RequireReauth)
}
