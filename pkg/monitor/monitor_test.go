package monitor

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRound1(t *testing.T) {
	cases := map[float64]float64{
		12.34: 12.3,
		12.35: 12.4,
		0:     0,
	}
	for in, want := range cases {
		if got := round1(in); got != want {
			t.Fatalf("round1(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestSampler_CalcNet_NoElapsedTimeIsZero(t *testing.T) {
	s := &Sampler{}
	if got := s.calcNet(0); got != 0 {
		t.Fatalf("expected 0 net with dt=0, got %v", got)
	}
}

func TestSampler_CalcCPU_FirstCallNonNegative(t *testing.T) {
	s := &Sampler{}
	if got := s.calcCPU(); got < 0 {
		t.Fatalf("expected non-negative cpu pct, got %v", got)
	}
}

type fakeDrift struct {
	seconds float64
	err     error
}

func (f fakeDrift) Drift(ctx context.Context) (float64, error) {
	return f.seconds, f.err
}

func TestSampler_DriftSeconds_NoneConfigured(t *testing.T) {
	s := NewSampler()
	if _, ok := s.DriftSeconds(context.Background()); ok {
		t.Fatal("expected no drift reading without a configured DriftSampler")
	}
}

func TestSampler_DriftSeconds_WiredIn(t *testing.T) {
	s := NewSampler(WithDriftSampler(fakeDrift{seconds: 0.25}))
	got, ok := s.DriftSeconds(context.Background())
	if !ok || got != 0.25 {
		t.Fatalf("expected drift 0.25, got %v (ok=%v)", got, ok)
	}
}

func TestSampler_DriftSeconds_ErrorIsSwallowed(t *testing.T) {
	s := NewSampler(WithDriftSampler(fakeDrift{err: errors.New("ntp unreachable")}))
	if _, ok := s.DriftSeconds(context.Background()); ok {
		t.Fatal("expected drift error to surface as not-ok, never a panic or propagated error")
	}
}

func TestSampler_Run_StopsOnContextCancel(t *testing.T) {
	s := NewSampler()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx, 5*time.Millisecond, func(netMbps, linkSpeed, linkSpeedMax float64) {})
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected Run to return promptly after context cancellation")
	}
}
