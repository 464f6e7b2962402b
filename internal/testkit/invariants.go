package testkit

import (
	"fmt"
	"math"

	"fortio.org/safecast"
)

// CheckCadence runs the throttling invariants on the poll log of one
// priority-wrapped task:
// 1) the i-th inner poll (1-based) happened on attempt i*(prio+1)
// 2) a completed task completed on its last inner poll
// 3) a live task was not owed an inner poll it never got
func CheckCadence(prio uint, innerAttempts []uint64, attempts uint64, completed bool) error {
	skips, err := safecast.Conv[uint64](prio)
	if err != nil {
		return fmt.Errorf("prio overflow: %w", err)
	}
	if skips == math.MaxUint64 {
		// the period 2^64 is past any attempt count
		return checkNeverForwards(prio, innerAttempts, completed)
	}
	period := skips + 1

	// 1) fixed period
	for i, at := range innerAttempts {
		want := uint64(i+1) * period
		if at != want {
			return fmt.Errorf("inner poll %d on attempt %d, want attempt %d (prio %d)", i+1, at, want, prio)
		}
	}

	n := uint64(len(innerAttempts))

	// 2) completion only on a forwarding attempt
	if completed {
		if n == 0 {
			return fmt.Errorf("completed after %d attempts without polling inner", attempts)
		}
		if last := innerAttempts[n-1]; last != attempts {
			return fmt.Errorf("completed on attempt %d but last inner poll was attempt %d", attempts, last)
		}
		return nil
	}

	// 3) every full period of attempts forwarded once
	if got, want := n, attempts/period; got != want {
		return fmt.Errorf("%d attempts at prio %d should forward %d times, forwarded %d", attempts, prio, want, got)
	}
	return nil
}

func checkNeverForwards(prio uint, innerAttempts []uint64, completed bool) error {
	if len(innerAttempts) > 0 {
		return fmt.Errorf("inner poll 1 on attempt %d, prio %d never forwards within 2^64-1 attempts", innerAttempts[0], prio)
	}
	if completed {
		return fmt.Errorf("completed without polling inner (prio %d never forwards)", prio)
	}
	return nil
}

// CheckCounter reports a skip counter outside [0, prio].
func CheckCounter(prio, waited uint) error {
	if waited > prio {
		return fmt.Errorf("skip counter %d exceeds prio %d", waited, prio)
	}
	return nil
}
