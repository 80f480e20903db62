package osal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueCreatePutGetRoundTrip(t *testing.T) {
	freshSystem(t)
	ctx := context.Background()

	id, status := QueueCreate(ctx, "q1", 4, 8, QueueBackingDatagram)
	require.Equal(t, StatusSuccess, status)
	defer QueueDelete(id)

	require.Equal(t, StatusSuccess, QueuePut(id, []byte("12345678"), 8))

	buf := make([]byte, 8)
	n, status := QueueGet(ctx, id, buf, QueueCheck)
	require.Equal(t, StatusSuccess, status)
	assert.Equal(t, 8, n)
	assert.Equal(t, "12345678", string(buf))
}

func TestQueueGetCheckEmptyReturnsQueueEmpty(t *testing.T) {
	freshSystem(t)
	ctx := context.Background()

	id, status := QueueCreate(ctx, "q2", 4, 8, QueueBackingDatagram)
	require.Equal(t, StatusSuccess, status)
	defer QueueDelete(id)

	buf := make([]byte, 8)
	_, status = QueueGet(ctx, id, buf, QueueCheck)
	assert.Equal(t, StatusQueueEmpty, status)
}

func TestQueuePutWrongSizeRejected(t *testing.T) {
	freshSystem(t)
	ctx := context.Background()

	id, status := QueueCreate(ctx, "q3", 4, 8, QueueBackingDatagram)
	require.Equal(t, StatusSuccess, status)
	defer QueueDelete(id)

	status = QueuePut(id, []byte("1234"), 4)
	assert.Equal(t, StatusQueueInvalidSize, status)
}

func TestQueueGetTimeoutExpires(t *testing.T) {
	freshSystem(t)
	ctx := context.Background()

	id, status := QueueCreate(ctx, "q4", 4, 8, QueueBackingDatagram)
	require.Equal(t, StatusSuccess, status)
	defer QueueDelete(id)

	buf := make([]byte, 8)
	_, status = QueueGet(ctx, id, buf, 30)
	assert.Equal(t, StatusQueueTimeout, status)
}

func TestQueueDeleteThenInvalidId(t *testing.T) {
	freshSystem(t)
	ctx := context.Background()

	id, status := QueueCreate(ctx, "q5", 4, 8, QueueBackingDatagram)
	require.Equal(t, StatusSuccess, status)
	require.Equal(t, StatusSuccess, QueueDelete(id))

	_, status = QueueGetInfo(id)
	assert.Equal(t, StatusInvalidId, status)
}

func TestQueueDepthEnforcedAcrossPuts(t *testing.T) {
	freshSystem(t)
	ctx := context.Background()

	id, status := QueueCreate(ctx, "q6", 4, 8, QueueBackingDatagram)
	require.Equal(t, StatusSuccess, status)
	defer QueueDelete(id)

	for i := 0; i < 4; i++ {
		require.Equal(t, StatusSuccess, QueuePut(id, []byte("12345678"), 8))
	}
	assert.Equal(t, StatusQueueFull, QueuePut(id, []byte("12345678"), 8))

	buf := make([]byte, 8)
	for i := 0; i < 4; i++ {
		_, status := QueueGet(ctx, id, buf, QueuePend)
		require.Equal(t, StatusSuccess, status)
	}
	_, status = QueueGet(ctx, id, buf, QueueCheck)
	assert.Equal(t, StatusQueueEmpty, status)
}

func TestQueueGetIdByNameAndInfo(t *testing.T) {
	freshSystem(t)
	ctx := context.Background()

	id, status := QueueCreate(ctx, "named-queue", 4, 8, QueueBackingDatagram)
	require.Equal(t, StatusSuccess, status)
	defer QueueDelete(id)

	gotID, status := QueueGetIdByName("named-queue")
	require.Equal(t, StatusSuccess, status)
	assert.Equal(t, id, gotID)

	info, status := QueueGetInfo(id)
	require.Equal(t, StatusSuccess, status)
	assert.Equal(t, "named-queue", info.Name)
	assert.Equal(t, uint32(8), info.MsgSize)
	assert.Equal(t, uint32(4), info.Depth)
}
