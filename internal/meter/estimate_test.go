package meter

import (
	"errors"
	"testing"
	"time"
)

func TestEstimateCompletion(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		elapsed   time.Duration
		remaining int64
		seen      uint64
		wantErr   bool
		wantNow   bool
	}{
		{name: "one remaining is undefined", elapsed: time.Second, remaining: 1, seen: 10, wantErr: true, wantNow: true},
		{name: "two remaining is undefined", elapsed: time.Second, remaining: 2, seen: 10, wantErr: true, wantNow: true},
		{name: "three remaining goes negative", elapsed: time.Second, remaining: 3, seen: 10, wantNow: true},
		{name: "zero elapsed adds nothing", elapsed: 0, remaining: 500, seen: 10, wantNow: true},
		{name: "positive extrapolation", elapsed: 10 * time.Second, remaining: 990, seen: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := estimateCompletion(now, tt.elapsed, tt.remaining, tt.seen)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errEstimation) {
				t.Errorf("err = %v, want errEstimation", err)
			}
			if tt.wantNow {
				if !got.Equal(now) {
					t.Errorf("estimate = %v, want now (%v)", got, now)
				}
				return
			}
			if !got.After(now) {
				t.Errorf("estimate = %v, want after %v", got, now)
			}
		})
	}
}

func TestEstimateCompletion_KnownValue(t *testing.T) {
	// 10 items in 10s with 990 to go extrapolates roughly 914s out.
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	got, err := estimateCompletion(now, 10*time.Second, 990, 10)
	if err != nil {
		t.Fatalf("estimateCompletion error: %v", err)
	}
	ahead := got.Sub(now)
	if ahead < 914*time.Second || ahead > 915*time.Second {
		t.Errorf("extrapolated %v ahead, want between 914s and 915s", ahead)
	}
}

func TestEstimateCompletion_ShrinksWithBacklog(t *testing.T) {
	// Same throughput, smaller backlog: the estimate must move closer.
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	far, err := estimateCompletion(now, 10*time.Second, 900, 100)
	if err != nil {
		t.Fatalf("estimateCompletion(900) error: %v", err)
	}
	near, err := estimateCompletion(now, 10*time.Second, 100, 100)
	if err != nil {
		t.Fatalf("estimateCompletion(100) error: %v", err)
	}
	if !near.Before(far) {
		t.Errorf("estimate with 100 remaining (%v) not before estimate with 900 remaining (%v)", near, far)
	}
}
