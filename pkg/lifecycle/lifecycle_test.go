package lifecycle_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/atlaspest/salesbridge/pkg/lifecycle"
)

func TestStartupReadiness(t *testing.T) {
	c := lifecycle.New()

	var ran atomic.Int32
	c.OnStartup(func() { ran.Add(1) })
	c.OnStartup(func() { ran.Add(1) })

	if c.Ready() {
		t.Error("ready before WaitForStartup")
	}

	c.WaitForStartup()

	if !c.Ready() {
		t.Error("not ready after WaitForStartup")
	}
	if ran.Load() != 2 {
		t.Errorf("startup hooks ran %d times, want 2", ran.Load())
	}
}

func TestShutdownRunsHooks(t *testing.T) {
	c := lifecycle.New()

	var cleaned atomic.Bool
	c.OnShutdown(func() {
		<-c.Context().Done()
		cleaned.Store(true)
	})

	if err := c.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !cleaned.Load() {
		t.Error("shutdown hook did not run")
	}
}

func TestShutdownTimeout(t *testing.T) {
	c := lifecycle.New()

	release := make(chan struct{})
	c.OnShutdown(func() {
		<-release
	})

	if err := c.Shutdown(10 * time.Millisecond); err == nil {
		t.Error("hung hook should time out")
	}
	close(release)
}

func TestContextCancelledOnShutdown(t *testing.T) {
	c := lifecycle.New()
	c.Shutdown(time.Second)

	select {
	case <-c.Context().Done():
	default:
		t.Error("context not cancelled after shutdown")
	}
}
