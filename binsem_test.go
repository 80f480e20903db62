package osal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinSemGiveTakeRoundTrip(t *testing.T) {
	freshSystem(t)
	ctx := context.Background()

	id, status := BinSemCreate(ctx, "b1", 0)
	require.Equal(t, StatusSuccess, status)
	defer BinSemDelete(id)

	require.Equal(t, StatusSuccess, BinSemGive(id))
	require.Equal(t, StatusSuccess, BinSemTake(id))
}

func TestBinSemInitialClampedToOne(t *testing.T) {
	freshSystem(t)
	ctx := context.Background()

	id, status := BinSemCreate(ctx, "b2", 5)
	require.Equal(t, StatusSuccess, status)
	defer BinSemDelete(id)

	info, status := BinSemGetInfo(id)
	require.Equal(t, StatusSuccess, status)
	assert.Equal(t, 1, info.Value)
}

func TestBinSemGiveIsNoOpAtMaxValue(t *testing.T) {
	freshSystem(t)
	ctx := context.Background()

	id, status := BinSemCreate(ctx, "b3", 1)
	require.Equal(t, StatusSuccess, status)
	defer BinSemDelete(id)

	require.Equal(t, StatusSuccess, BinSemGive(id))
	info, status := BinSemGetInfo(id)
	require.Equal(t, StatusSuccess, status)
	assert.Equal(t, 1, info.Value)
}

func TestBinSemTimedTakeTimesOutAndRestoresShadow(t *testing.T) {
	freshSystem(t)
	ctx := context.Background()

	id, status := BinSemCreate(ctx, "b4", 0)
	require.Equal(t, StatusSuccess, status)
	defer BinSemDelete(id)

	start := time.Now()
	status = BinSemTimedTake(id, 30)
	assert.Equal(t, StatusSemTimeout, status)
	assert.True(t, time.Since(start) >= 25*time.Millisecond)

	info, status := BinSemGetInfo(id)
	require.Equal(t, StatusSuccess, status)
	assert.Equal(t, 0, info.Value)
}

func TestBinSemTakeBlocksUntilGive(t *testing.T) {
	freshSystem(t)
	ctx := context.Background()

	id, status := BinSemCreate(ctx, "b5", 0)
	require.Equal(t, StatusSuccess, status)
	defer BinSemDelete(id)

	done := make(chan struct{})
	go func() {
		BinSemTake(id)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StatusSuccess, BinSemGive(id))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("BinSemTake did not unblock after Give")
	}
}

func TestBinSemGetIdByName(t *testing.T) {
	freshSystem(t)
	ctx := context.Background()

	id, status := BinSemCreate(ctx, "named-binsem", 0)
	require.Equal(t, StatusSuccess, status)
	defer BinSemDelete(id)

	gotID, status := BinSemGetIdByName("named-binsem")
	require.Equal(t, StatusSuccess, status)
	assert.Equal(t, id, gotID)
}
