package osal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freshSystem(t *testing.T) {
	t.Helper()
	ResetForTest(DefaultConfig())
}

func TestTaskCreateAndGetInfo(t *testing.T) {
	freshSystem(t)

	id, status := TaskCreate(context.Background(), "T1", func(ctx context.Context) {
		<-ctx.Done()
	}, 4096, 100)
	require.Equal(t, StatusSuccess, status)

	info, status := TaskGetInfo(id)
	require.Equal(t, StatusSuccess, status)
	assert.Equal(t, uint32(4096), info.StackSize)
	assert.Equal(t, uint32(100), info.Priority)
	assert.Equal(t, "T1", info.Name)
}

func TestTaskSelfIdAfterRegister(t *testing.T) {
	freshSystem(t)

	gotID := make(chan uint32, 1)
	started := make(chan struct{})
	id, status := TaskCreate(context.Background(), "T2", func(ctx context.Context) {
		ctx, regStatus := TaskRegister(ctx)
		if regStatus != StatusSuccess {
			gotID <- UninitializedID
			return
		}
		gotID <- TaskGetId(ctx)
		close(started)
		<-ctx.Done()
	}, 4096, 100)
	require.Equal(t, StatusSuccess, status)

	select {
	case got := <-gotID:
		assert.Equal(t, id, got)
	case <-time.After(time.Second):
		t.Fatal("task never reported its id")
	}
}

func TestTaskDeleteThenInvalidId(t *testing.T) {
	freshSystem(t)

	id, status := TaskCreate(context.Background(), "T3", func(ctx context.Context) {
		<-ctx.Done()
	}, 4096, 50)
	require.Equal(t, StatusSuccess, status)

	require.Equal(t, StatusSuccess, TaskDelete(context.Background(), id))

	_, status = TaskGetInfo(id)
	assert.Equal(t, StatusInvalidId, status)
}

func TestTaskDeleteHookRunsBeforeRelease(t *testing.T) {
	freshSystem(t)

	ran := make(chan struct{})
	rowStatusInHook := make(chan Status, 1)
	entryReady := make(chan context.Context, 1)
	id, status := TaskCreate(context.Background(), "T4", func(ctx context.Context) {
		ctx, _ = TaskRegister(ctx)
		TaskInstallDeleteHandler(ctx, func() {
			_, st := TaskGetInfo(TaskGetId(ctx))
			rowStatusInHook <- st
			close(ran)
		})
		entryReady <- ctx
		<-ctx.Done()
	}, 4096, 50)
	require.Equal(t, StatusSuccess, status)

	<-entryReady
	time.Sleep(10 * time.Millisecond) // let install-handler land

	require.Equal(t, StatusSuccess, TaskDelete(context.Background(), id))
	select {
	case <-ran:
		assert.Equal(t, StatusSuccess, <-rowStatusInHook, "row already released when hook ran")
	case <-time.After(time.Second):
		t.Fatal("delete hook was not invoked")
	}
}

func TestTaskCannotDeleteSelf(t *testing.T) {
	freshSystem(t)

	result := make(chan Status, 1)
	id, status := TaskCreate(context.Background(), "T5", func(ctx context.Context) {
		ctx, _ = TaskRegister(ctx)
		result <- TaskDelete(ctx, TaskGetId(ctx))
	}, 4096, 50)
	require.Equal(t, StatusSuccess, status)
	_ = id

	select {
	case r := <-result:
		assert.Equal(t, StatusError, r)
	case <-time.After(time.Second):
		t.Fatal("task did not attempt self-delete")
	}
}

func TestTaskDelayZeroIsImmediateSuccess(t *testing.T) {
	freshSystem(t)
	start := time.Now()
	status := TaskDelay(context.Background(), 0)
	assert.Equal(t, StatusSuccess, status)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestTaskDelayWaitsAtLeastRequestedDuration(t *testing.T) {
	freshSystem(t)
	start := time.Now()
	status := TaskDelay(context.Background(), 30)
	assert.Equal(t, StatusSuccess, status)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestTaskGetIdByNameAndInvalidPriority(t *testing.T) {
	freshSystem(t)

	id, status := TaskCreate(context.Background(), "named", func(ctx context.Context) { <-ctx.Done() }, 1024, 10)
	require.Equal(t, StatusSuccess, status)

	found, status := TaskGetIdByName("named")
	require.Equal(t, StatusSuccess, status)
	assert.Equal(t, id, found)

	_, status = TaskGetIdByName("missing")
	assert.Equal(t, StatusNameNotFound, status)

	_, status = TaskCreate(context.Background(), "bad-priority", func(ctx context.Context) {}, 1024, 256)
	assert.Equal(t, StatusInvalidPriority, status)
}

func TestTaskMaxTasksExhaustion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTasks = 1
	ResetForTest(cfg)

	_, status := TaskCreate(context.Background(), "only", func(ctx context.Context) { <-ctx.Done() }, 1024, 10)
	require.Equal(t, StatusSuccess, status)

	_, status = TaskCreate(context.Background(), "second", func(ctx context.Context) {}, 1024, 10)
	assert.Equal(t, StatusNoFreeIds, status)
}
