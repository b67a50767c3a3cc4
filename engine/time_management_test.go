package engine

import (
	"testing"
	"time"
)

func TestAllocate(t *testing.T) {
	tests := []struct {
		name  string
		tc    TimeControl
		phase int
		check func(t *testing.T, b Budget)
	}{
		{"infinite", TimeControl{Infinite: true, Remaining: time.Minute}, 24, func(t *testing.T, b Budget) {
			if !b.Unlimited() {
				t.Fatalf("infinite search got %+v", b)
			}
		}},
		{"depth only", TimeControl{Depth: 8}, 24, func(t *testing.T, b Budget) {
			if !b.Unlimited() {
				t.Fatalf("depth search got %+v", b)
			}
		}},
		{"movetime", TimeControl{MoveTime: time.Second}, 24, func(t *testing.T, b Budget) {
			want := time.Second - StartTimeOverhead
			if b.Soft != want || b.Hard != want {
				t.Fatalf("movetime budget %+v, want %v", b, want)
			}
		}},
		{"tiny movetime", TimeControl{MoveTime: time.Millisecond}, 24, func(t *testing.T, b Budget) {
			if b.Hard != minMoveTime {
				t.Fatalf("budget %+v below the floor", b)
			}
		}},
		{"sudden death opening", TimeControl{Remaining: 60 * time.Second}, 24, func(t *testing.T, b Budget) {
			// 45 moves expected
			if want := 60 * time.Second / 45; b.Soft != want {
				t.Fatalf("soft %v, want %v", b.Soft, want)
			}
			if b.Hard != 4*b.Soft {
				t.Fatalf("hard %v, want %v", b.Hard, 4*b.Soft)
			}
		}},
		{"endgame spends more", TimeControl{Remaining: 60 * time.Second}, 0, func(t *testing.T, b Budget) {
			if want := 60 * time.Second / 20; b.Soft != want {
				t.Fatalf("soft %v, want %v", b.Soft, want)
			}
		}},
		{"moves to go", TimeControl{Remaining: 10 * time.Second, Increment: time.Second, MovesToGo: 10}, 24, func(t *testing.T, b Budget) {
			if want := time.Second + 750*time.Millisecond; b.Soft != want {
				t.Fatalf("soft %v, want %v", b.Soft, want)
			}
			if ceiling := 7*time.Second - StartTimeOverhead; b.Hard < ceiling-time.Millisecond || b.Hard > ceiling {
				t.Fatalf("hard %v, want ceiling %v", b.Hard, ceiling)
			}
		}},
		{"panic mode", TimeControl{Remaining: 500 * time.Millisecond, Increment: 100 * time.Millisecond}, 12, func(t *testing.T, b Budget) {
			if b.Soft != 90*time.Millisecond {
				t.Fatalf("soft %v, want 90ms", b.Soft)
			}
			if b.Hard > 350*time.Millisecond {
				t.Fatalf("hard %v spends more than 70%% of the clock", b.Hard)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Allocate(tt.tc, tt.phase, StartTimeOverhead)
			if b.Soft > b.Hard {
				t.Fatalf("soft %v above hard %v", b.Soft, b.Hard)
			}
			tt.check(t, b)
		})
	}
}

func TestTimeHandlerRequestStop(t *testing.T) {
	th := NewTimeHandler()
	th.Start(Budget{}, 0)
	defer th.Finish()
	if th.ShouldStop(1) || th.SoftTimeExceeded() {
		t.Fatalf("unlimited search wants to stop")
	}
	th.RequestStop()
	if !th.ShouldStop(1) || !th.SoftTimeExceeded() || !th.Stopped() {
		t.Fatalf("stop request ignored")
	}
}

func TestTimeHandlerStopBeforeStart(t *testing.T) {
	th := NewTimeHandler()
	th.RequestStop()
	th.Start(Budget{Soft: time.Hour, Hard: time.Hour}, 0)
	defer th.Finish()
	if !th.ShouldStop(1) {
		t.Fatalf("stop requested before Start was lost")
	}
}

func TestTimeHandlerNodeLimit(t *testing.T) {
	th := NewTimeHandler()
	th.Start(Budget{}, 1000)
	defer th.Finish()
	if th.ShouldStop(999) {
		t.Fatalf("stopped below the node limit")
	}
	if !th.ShouldStop(1000) {
		t.Fatalf("node limit ignored")
	}
}

func TestTimeHandlerHardLimitFires(t *testing.T) {
	th := NewTimeHandler()
	th.Start(Budget{Soft: 5 * time.Millisecond, Hard: 10 * time.Millisecond}, 0)
	defer th.Finish()
	deadline := time.Now().Add(2 * time.Second)
	for !th.Stopped() {
		if time.Now().After(deadline) {
			t.Fatalf("hard limit timer never fired")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestTimeHandlerExtension(t *testing.T) {
	th := NewTimeHandler()
	th.Start(Budget{Soft: 100 * time.Millisecond, Hard: 120 * time.Millisecond}, 0)
	defer th.Finish()

	th.UpdateStability(false)
	if th.soft != 100*time.Millisecond {
		t.Fatalf("soft moved without a best move change")
	}
	th.UpdateStability(true)
	if th.soft != 120*time.Millisecond {
		t.Fatalf("soft %v, want it capped at hard", th.soft)
	}
	th.soft = 100 * time.Millisecond
	th.UpdateStability(true)
	if th.soft != 100*time.Millisecond {
		t.Fatalf("extended twice")
	}
}

func TestTimeHandlerPonderHit(t *testing.T) {
	th := NewTimeHandler()
	th.StartPondering(Budget{Soft: 10 * time.Millisecond, Hard: 20 * time.Millisecond}, 0)
	defer th.Finish()

	time.Sleep(40 * time.Millisecond)
	if !th.Pondering() {
		t.Fatalf("not pondering before ponderhit")
	}
	if th.ShouldStop(0) || th.SoftTimeExceeded() {
		t.Fatalf("pondering search hit a time limit")
	}

	th.PonderHit()
	if th.Pondering() {
		t.Fatalf("still pondering after ponderhit")
	}
	if th.ShouldStop(0) || th.SoftTimeExceeded() {
		t.Fatalf("budget should count from the ponderhit")
	}
	if th.Budget().Hard != 20*time.Millisecond {
		t.Fatalf("reserved budget not armed: %+v", th.Budget())
	}
	time.Sleep(60 * time.Millisecond)
	if !th.ShouldStop(0) {
		t.Fatalf("hard limit ignored after ponderhit")
	}
}
