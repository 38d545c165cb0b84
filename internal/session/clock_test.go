package session

import (
	"reflect"
	"testing"
	"time"
)

func TestManualSchedulerOrder(t *testing.T) {
	m := NewManualScheduler()
	var fired []string
	m.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })
	m.AfterFunc(time.Second, func() { fired = append(fired, "a") })
	stopped := m.AfterFunc(time.Second, func() { fired = append(fired, "x") })

	if !stopped.Stop() {
		t.Error("Stop on pending timer returned false")
	}
	if stopped.Stop() {
		t.Error("second Stop returned true")
	}

	m.Advance(1500 * time.Millisecond)
	if !reflect.DeepEqual(fired, []string{"a"}) {
		t.Fatalf("fired = %v", fired)
	}
	if m.Pending() != 1 {
		t.Errorf("pending = %d", m.Pending())
	}

	m.Advance(time.Second)
	if !reflect.DeepEqual(fired, []string{"a", "b"}) {
		t.Errorf("fired = %v", fired)
	}
}

func TestRealSchedulerStop(t *testing.T) {
	done := make(chan struct{})
	timer := RealScheduler.AfterFunc(time.Hour, func() { close(done) })
	if !timer.Stop() {
		t.Error("Stop returned false")
	}
}
