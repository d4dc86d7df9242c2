// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package capture

import (
	"context"
	"errors"
	"time"
)

// Sleeper waits between records during playback
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// PlayOptions controls playback
type PlayOptions struct {
	Speed   float64 // 1 is real time, 2 twice as fast; 0 means 1
	Loop    bool
	Dir     *Direction // only replay this direction when set
	Sleeper Sleeper    // nil for real time
}

// Play hands every record's frame to fn, keeping the recorded spacing
// scaled by Speed. It returns when the records are exhausted (unless
// looping), ctx is done, or fn fails.
func Play(ctx context.Context, records []Record, opts PlayOptions, fn func(Record) error) error {
	if opts.Speed < 0 {
		return errors.New("playback speed must be > 0")
	}
	if opts.Speed == 0 {
		opts.Speed = 1
	}
	if opts.Sleeper == nil {
		opts.Sleeper = realSleeper{}
	}
	if len(records) == 0 {
		return errors.New("no records")
	}

	for {
		var last time.Duration
		started := false
		for _, r := range records {
			if opts.Dir != nil && r.Dir != *opts.Dir {
				continue
			}
			if started {
				if wait := time.Duration(float64(r.At-last) / opts.Speed); wait > 0 {
					if err := opts.Sleeper.Sleep(ctx, wait); err != nil {
						return err
					}
				}
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(r); err != nil {
				return err
			}
			last = r.At
			started = true
		}

		if !opts.Loop {
			return nil
		}
	}
}
