package sim

import (
	"context"
	"errors"
	"sync"
)

var ErrSequenceExhausted = errors.New("sim: temperature sequence exhausted")

// Constant always reports celsius.
func Constant(celsius float64) TemperatureBehaviorFunc {
	return func(ctx context.Context) (float64, error) {
		return celsius, nil
	}
}

// Ramp reports start on the first conversion and moves by step on every following one.
func Ramp(start, step float64) TemperatureBehaviorFunc {
	var mx sync.Mutex
	next := start
	return func(ctx context.Context) (float64, error) {
		mx.Lock()
		defer mx.Unlock()
		t := next
		next += step
		return t, nil
	}
}

// Sequence reports values in order and fails once they run out.
func Sequence(values ...float64) TemperatureBehaviorFunc {
	var mx sync.Mutex
	i := 0
	return func(ctx context.Context) (float64, error) {
		mx.Lock()
		defer mx.Unlock()
		if i >= len(values) {
			return 0, ErrSequenceExhausted
		}
		t := values[i]
		i++
		return t, nil
	}
}
