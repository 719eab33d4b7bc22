package lifecycle_test

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/deck-translate/pkg/lifecycle"
)

func TestCoordinator_Readiness(t *testing.T) {
	lc := lifecycle.New()
	var checker lifecycle.ReadinessChecker = lc

	release := make(chan struct{})
	var started atomic.Int32
	for range 4 {
		lc.OnStartup(func() {
			<-release
			started.Add(1)
		})
	}

	if checker.Ready() {
		t.Fatal("ready before startup hooks ran")
	}

	close(release)
	lc.WaitForStartup()

	if got := started.Load(); got != 4 {
		t.Errorf("startup hooks run = %d, want 4", got)
	}
	if !checker.Ready() {
		t.Error("not ready after WaitForStartup")
	}
}

func TestCoordinator_ShutdownCancelsContext(t *testing.T) {
	lc := lifecycle.New()
	lc.WaitForStartup()

	var released atomic.Bool
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		released.Store(true)
	})

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !released.Load() {
		t.Error("shutdown hook did not finish")
	}
	if lc.Context().Err() == nil {
		t.Error("context still live after Shutdown")
	}
	if lc.Ready() {
		t.Error("still ready after Shutdown")
	}
	if err := lc.Shutdown(time.Second); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
}

func TestCoordinator_ShutdownTimeout(t *testing.T) {
	lc := lifecycle.New()

	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		<-block
	})

	err := lc.Shutdown(20 * time.Millisecond)
	if !errors.Is(err, lifecycle.ErrShutdownTimeout) {
		t.Fatalf("Shutdown error = %v, want ErrShutdownTimeout", err)
	}
}
