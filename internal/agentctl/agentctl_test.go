package agentctl

import (
	"testing"
	"time"
)

func TestInitialState(t *testing.T) {
	control := New()
	status := control.Status()
	if status.Running || status.Paused {
		t.Fatalf("fresh control should be idle: %+v", status)
	}
	if control.ShouldStop() {
		t.Fatalf("fresh control should not request a stop")
	}
}

func TestResetStartsRunning(t *testing.T) {
	control := New()
	control.Reset()
	if status := control.Status(); !status.Running || status.Paused {
		t.Fatalf("reset should arm a running, unpaused control: %+v", status)
	}
}

func TestStopAfterFinishIsCleared(t *testing.T) {
	control := New()
	control.Reset()
	control.Stop()
	if !control.ShouldStop() {
		t.Fatalf("stop request not visible")
	}
	control.Finish()
	if control.ShouldStop() {
		t.Fatalf("finish should clear the stop request")
	}
	if control.Status().Running {
		t.Fatalf("finish should mark the control idle")
	}
}

func TestPauseBlocksUntilResume(t *testing.T) {
	control := New()
	control.Reset()
	control.Pause()
	released := make(chan bool, 1)
	go func() {
		released <- control.ShouldStop()
	}()
	select {
	case <-released:
		t.Fatalf("checkpoint returned while paused")
	case <-time.After(50 * time.Millisecond):
	}
	control.Resume()
	select {
	case stop := <-released:
		if stop {
			t.Fatalf("resume must not request a stop")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("checkpoint never released after resume")
	}
}

func TestStopReleasesPausedCheckpoint(t *testing.T) {
	control := New()
	control.Reset()
	control.Pause()
	released := make(chan bool, 1)
	go func() {
		released <- control.ShouldStop()
	}()
	time.Sleep(20 * time.Millisecond)
	control.Stop()
	select {
	case stop := <-released:
		if !stop {
			t.Fatalf("stop through a pause must report the stop")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("checkpoint never released after stop")
	}
}
