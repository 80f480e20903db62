// Command osalsim exercises the OSAL end to end: it runs the scenarios
// spec.md §8 calls out by name (S1-S6) against the in-process registries
// and reports pass/fail for each, the way go-ublk's cmd/ublk-mem serves
// as its own runnable smoke test.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/behrlich/osal"
	"github.com/behrlich/osal/internal/oslog"
)

func main() {
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	logConfig := oslog.DefaultConfig()
	if *verbose {
		logConfig.Level = oslog.LevelDebug
	}
	logger := oslog.NewLogger(logConfig)
	oslog.SetDefault(logger)

	cfg := osal.DefaultConfig()
	cfg.Logger = logger
	osal.Init(cfg)

	scenarios := []struct {
		name string
		run  func(context.Context) error
	}{
		{"S1 task lifecycle", scenarioS1},
		{"S2 queue depth and FIFO order", scenarioS2},
		{"S3 binary semaphore handoff", scenarioS3},
		{"S4 counting semaphore timeout", scenarioS4},
		{"S5 recursive mutex contention", scenarioS5},
		{"S6 volume mkfs/mount/unmount", scenarioS6},
	}

	ctx := context.Background()
	failures := 0
	for _, s := range scenarios {
		err := s.run(ctx)
		if err != nil {
			failures++
			fmt.Printf("FAIL %s: %v\n", s.name, err)
		} else {
			fmt.Printf("PASS %s\n", s.name)
		}
	}

	if failures > 0 {
		os.Exit(1)
	}
}

func scenarioS1(ctx context.Context) error {
	id, status := osal.TaskCreate(ctx, "T1", func(context.Context) {}, 4096, 100)
	if status != osal.StatusSuccess {
		return fmt.Errorf("TaskCreate: %s", status)
	}
	info, status := osal.TaskGetInfo(id)
	if status != osal.StatusSuccess {
		return fmt.Errorf("TaskGetInfo: %s", status)
	}
	if info.StackSize != 4096 || info.Priority != 100 || info.Name != "T1" {
		return fmt.Errorf("unexpected task info: %+v", info)
	}
	if status := osal.TaskDelete(ctx, id); status != osal.StatusSuccess {
		return fmt.Errorf("TaskDelete: %s", status)
	}
	if _, status := osal.TaskGetInfo(id); status != osal.StatusInvalidId {
		return fmt.Errorf("expected InvalidId after delete, got %s", status)
	}
	return nil
}

func scenarioS2(ctx context.Context) error {
	id, status := osal.QueueCreate(ctx, "Q", 4, 8, osal.QueueBackingDatagram)
	if status != osal.StatusSuccess {
		return fmt.Errorf("QueueCreate: %s", status)
	}
	defer osal.QueueDelete(id)

	for i := 0; i < 4; i++ {
		payload := []byte(fmt.Sprintf("msg%04d", i))
		if status := osal.QueuePut(id, payload, 8); status != osal.StatusSuccess {
			return fmt.Errorf("Put %d: %s", i, status)
		}
	}
	if status := osal.QueuePut(id, []byte("overflow"), 8); status != osal.StatusQueueFull {
		return fmt.Errorf("expected QueueFull on 5th put, got %s", status)
	}

	buf := make([]byte, 8)
	for i := 0; i < 4; i++ {
		n, status := osal.QueueGet(ctx, id, buf, osal.QueuePend)
		if status != osal.StatusSuccess || n != 8 {
			return fmt.Errorf("Get %d: n=%d status=%s", i, n, status)
		}
		want := fmt.Sprintf("msg%04d", i)
		if string(buf) != want {
			return fmt.Errorf("FIFO order broken: got %q want %q", buf, want)
		}
	}
	if _, status := osal.QueueGet(ctx, id, buf, osal.QueueCheck); status != osal.StatusQueueEmpty {
		return fmt.Errorf("expected QueueEmpty, got %s", status)
	}
	return nil
}

func scenarioS3(ctx context.Context) error {
	id, status := osal.BinSemCreate(ctx, "B", 0)
	if status != osal.StatusSuccess {
		return fmt.Errorf("BinSemCreate: %s", status)
	}
	defer osal.BinSemDelete(id)

	start := time.Now()
	done := make(chan osal.Status, 1)
	go func() { done <- osal.BinSemTake(id) }()

	go func() {
		time.Sleep(100 * time.Millisecond)
		osal.BinSemGive(id)
	}()

	select {
	case status := <-done:
		if status != osal.StatusSuccess {
			return fmt.Errorf("Take: %s", status)
		}
	case <-time.After(2 * time.Second):
		return fmt.Errorf("Take never returned")
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		return fmt.Errorf("Take returned too early: %v", elapsed)
	}
	return nil
}

func scenarioS4(ctx context.Context) error {
	id, status := osal.CountSemCreate(ctx, "C", 2)
	if status != osal.StatusSuccess {
		return fmt.Errorf("CountSemCreate: %s", status)
	}
	defer osal.CountSemDelete(id)

	if status := osal.CountSemTake(id); status != osal.StatusSuccess {
		return fmt.Errorf("Take 1: %s", status)
	}
	if status := osal.CountSemTake(id); status != osal.StatusSuccess {
		return fmt.Errorf("Take 2: %s", status)
	}

	start := time.Now()
	status = osal.CountSemTimedTake(id, 50)
	if status != osal.StatusSemTimeout {
		return fmt.Errorf("expected SemTimeout, got %s", status)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		return fmt.Errorf("TimedTake returned too early: %v", elapsed)
	}
	return nil
}

func scenarioS5(ctx context.Context) error {
	id, status := osal.MutSemCreate(ctx, "M")
	if status != osal.StatusSuccess {
		return fmt.Errorf("MutSemCreate: %s", status)
	}
	defer osal.MutSemDelete(id)

	acquired := make(chan struct{})
	released := make(chan osal.Status, 1)

	_, taskStatus := osal.TaskCreate(ctx, "owner", func(ctx context.Context) {
		for i := 0; i < 3; i++ {
			osal.MutSemTake(ctx, id)
		}
		close(acquired)
		time.Sleep(50 * time.Millisecond)
		var status osal.Status
		for i := 0; i < 3; i++ {
			status = osal.MutSemGive(ctx, id)
		}
		released <- status
	}, 4096, 100)
	if taskStatus != osal.StatusSuccess {
		return fmt.Errorf("TaskCreate owner: %s", taskStatus)
	}

	<-acquired

	blockerDone := make(chan time.Duration, 1)
	_, taskStatus = osal.TaskCreate(ctx, "blocker", func(ctx context.Context) {
		start := time.Now()
		osal.MutSemTake(ctx, id)
		blockerDone <- time.Since(start)
		osal.MutSemGive(ctx, id)
	}, 4096, 100)
	if taskStatus != osal.StatusSuccess {
		return fmt.Errorf("TaskCreate blocker: %s", taskStatus)
	}

	select {
	case status := <-released:
		if status != osal.StatusSuccess {
			return fmt.Errorf("owner Give: %s", status)
		}
	case <-time.After(2 * time.Second):
		return fmt.Errorf("owner never released")
	}

	select {
	case elapsed := <-blockerDone:
		if elapsed < 40*time.Millisecond {
			return fmt.Errorf("blocker acquired too early: %v", elapsed)
		}
	case <-time.After(2 * time.Second):
		return fmt.Errorf("blocker never acquired")
	}
	return nil
}

func scenarioS6(ctx context.Context) error {
	id, status := osal.VolumeMkfs("", "/ram0", "RAM0", 512, 2048, osal.VolumeRam)
	if status != osal.StatusSuccess {
		return fmt.Errorf("VolumeMkfs: %s", status)
	}
	defer osal.VolumeRmfs("/ram0")
	_ = id

	if status := osal.VolumeMount("/ram0", "/cf"); status != osal.StatusSuccess {
		return fmt.Errorf("VolumeMount: %s", status)
	}
	if _, status := osal.VolumeFsBlocksFree("/cf"); status != osal.StatusSuccess {
		return fmt.Errorf("VolumeFsBlocksFree: %s", status)
	}
	if status := osal.VolumeUnmount("/cf"); status != osal.StatusSuccess {
		return fmt.Errorf("VolumeUnmount: %s", status)
	}
	return nil
}
