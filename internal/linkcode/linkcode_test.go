package linkcode

import (
	"context"
	"io"
	"testing"
	"time"

	"hubdesk/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLinkStore struct {
	mock.Mock
}

func (m *mockLinkStore) SaveIdentityLink(ctx context.Context, msisdn, owner string) error {
	return m.Called(ctx, msisdn, owner).Error(0)
}

func newTestService(t *testing.T) (*Service, *miniredis.Miniredis, *mockLinkStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	links := new(mockLinkStore)
	logger := zerolog.New(io.Discard)
	return New(rdb, links, &logger), mr, links
}

func TestIssueAndRedeem(t *testing.T) {
	svc, _, links := newTestService(t)
	ctx := context.Background()

	code, expires, err := svc.Issue(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.WithinDuration(t, time.Now().Add(Expiry), expires, time.Minute)

	links.On("SaveIdentityLink", ctx, "27123456789", "alice").Return(nil).Once()

	require.NoError(t, svc.Redeem(ctx, code, "27123456789"))
	links.AssertExpectations(t)

	t.Run("SingleUse", func(t *testing.T) {
		err := svc.Redeem(ctx, code, "27123456789")
		assert.ErrorIs(t, err, models.ErrCodeInvalid)
	})
}

func TestRedeemUnknownCode(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.Redeem(context.Background(), "000000", "27123456789")
	assert.ErrorIs(t, err, models.ErrCodeInvalid)
}

func TestRedeemExpiredCode(t *testing.T) {
	svc, mr, _ := newTestService(t)
	ctx := context.Background()

	code, _, err := svc.Issue(ctx, "alice")
	require.NoError(t, err)

	mr.FastForward(Expiry + time.Second)

	err = svc.Redeem(ctx, code, "27123456789")
	assert.ErrorIs(t, err, models.ErrCodeInvalid)
}

func TestIssueRequiresOwner(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, _, err := svc.Issue(context.Background(), "")
	assert.ErrorIs(t, err, models.ErrInvalidRequest)
}
