package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pay-seva/sms-payment-processor/internal/domain"
	"github.com/pay-seva/sms-payment-processor/internal/usecase/services"
)

func TestSecurityServiceAuditTrail(t *testing.T) {
	attempts := newMemAttemptRepo()
	service := services.NewSecurityService(attempts)

	require.NoError(t, service.RecordFailedAttempt(context.Background(), "carol@payseva", "invalid pin"))
	require.NoError(t, service.RecordFailedAttempt(context.Background(), "carol@payseva", "invalid pin"))
	require.NoError(t, service.RecordFailedAttempt(context.Background(), "dave@payseva", "tag mismatch"))

	listed, err := service.GetFailedAttempts(context.Background(), "carol@payseva")
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	count, err := service.CountRecentFailedAttempts(context.Background(), "carol@payseva", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSecurityServiceValidatesUpi(t *testing.T) {
	service := services.NewSecurityService(newMemAttemptRepo())

	assert.ErrorIs(t, service.RecordFailedAttempt(context.Background(), " ", "x"), domain.ErrValidation)

	_, err := service.GetFailedAttempts(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSecurityServiceCleanup(t *testing.T) {
	attempts := newMemAttemptRepo()
	service := services.NewSecurityService(attempts)

	require.NoError(t, service.RecordFailedAttempt(context.Background(), "carol@payseva", "invalid pin"))

	// Everything recorded above is newer than the threshold.
	require.NoError(t, service.CleanupOldFailedAttempts(context.Background(), time.Now().UTC().Add(-time.Hour)))
	assert.Equal(t, 1, attempts.count())

	require.NoError(t, service.CleanupOldFailedAttempts(context.Background(), time.Now().UTC().Add(time.Hour)))
	assert.Equal(t, 0, attempts.count())
}
