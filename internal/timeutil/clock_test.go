package timeutil

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMockClock(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	if err := c.Sleep(context.Background(), 5*time.Second); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	c.Advance(time.Second)

	if got := c.Since(start); got != 6*time.Second {
		t.Errorf("Since(start) = %v, want 6s", got)
	}
	if got := c.Sleeps(); len(got) != 1 || got[0] != 5*time.Second {
		t.Errorf("Sleeps() = %v", got)
	}
}

func TestMockClock_SleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewMockClock(time.Time{})
	if err := c.Sleep(ctx, time.Second); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() = %v, want context.Canceled", err)
	}
	if len(c.Sleeps()) != 0 {
		t.Error("cancelled sleep should not be recorded")
	}
}

func TestRealClock_SleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := (RealClock{}).Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() = %v, want context.Canceled", err)
	}
}

func TestRealClock_SleepShort(t *testing.T) {
	c := RealClock{}
	start := c.Now()
	if err := c.Sleep(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	if c.Since(start) < time.Millisecond {
		t.Error("Sleep returned too early")
	}
}
