package osal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountSemGiveTakeRoundTrip(t *testing.T) {
	freshSystem(t)
	ctx := context.Background()

	id, status := CountSemCreate(ctx, "c1", 0)
	require.Equal(t, StatusSuccess, status)
	defer CountSemDelete(id)

	require.Equal(t, StatusSuccess, CountSemGive(id))
	require.Equal(t, StatusSuccess, CountSemGive(id))

	require.Equal(t, StatusSuccess, CountSemTake(id))

	info, status := CountSemGetInfo(id)
	require.Equal(t, StatusSuccess, status)
	assert.Equal(t, 1, info.Value)
}

func TestCountSemTimedTakeTimesOutAndRestoresShadow(t *testing.T) {
	freshSystem(t)
	ctx := context.Background()

	id, status := CountSemCreate(ctx, "c2", 0)
	require.Equal(t, StatusSuccess, status)
	defer CountSemDelete(id)

	start := time.Now()
	status = CountSemTimedTake(id, 30)
	assert.Equal(t, StatusSemTimeout, status)
	assert.True(t, time.Since(start) >= 25*time.Millisecond)

	info, status := CountSemGetInfo(id)
	require.Equal(t, StatusSuccess, status)
	assert.Equal(t, 0, info.Value)
}

func TestCountSemExceedsInitialValuesIndependentlyOfBinSem(t *testing.T) {
	freshSystem(t)
	ctx := context.Background()

	id, status := CountSemCreate(ctx, "c3", 3)
	require.Equal(t, StatusSuccess, status)
	defer CountSemDelete(id)

	info, status := CountSemGetInfo(id)
	require.Equal(t, StatusSuccess, status)
	assert.Equal(t, 3, info.Value)

	for i := 0; i < 5; i++ {
		require.Equal(t, StatusSuccess, CountSemGive(id))
	}
	info, status = CountSemGetInfo(id)
	require.Equal(t, StatusSuccess, status)
	assert.Equal(t, 8, info.Value)
}

func TestCountSemGetIdByName(t *testing.T) {
	freshSystem(t)
	ctx := context.Background()

	id, status := CountSemCreate(ctx, "named-countsem", 0)
	require.Equal(t, StatusSuccess, status)
	defer CountSemDelete(id)

	gotID, status := CountSemGetIdByName("named-countsem")
	require.Equal(t, StatusSuccess, status)
	assert.Equal(t, id, gotID)
}
