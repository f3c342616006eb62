package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeCleaner struct {
	calls int
	err   error
}

func (f *fakeCleaner) CleanExpired(context.Context) (int64, error) {
	f.calls++
	return 3, f.err
}

type fakeRefresher struct {
	batches []int
	calls   int
	err     error
}

func (f *fakeRefresher) RefreshOverdue(_ context.Context, limit int) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.calls >= len(f.batches) {
		return 0, nil
	}
	n := min(f.batches[f.calls], limit)
	f.calls++
	return n, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHousekeeper_RunOnce(t *testing.T) {
	tests := []struct {
		name      string
		cleanErr  error
		batches   []int
		refresh   error
		wantCalls int
	}{
		{"nothing overdue", nil, []int{0}, nil, 1},
		{"single partial batch", nil, []int{7}, nil, 1},
		{"full batch drains again", nil, []int{overdueBatchSize, overdueBatchSize, 4}, nil, 3},
		{"clean failure still refreshes", errors.New("db down"), []int{2}, nil, 1},
		{"refresh failure stops", nil, nil, errors.New("db down"), 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cleaner := &fakeCleaner{err: tc.cleanErr}
			refresher := &fakeRefresher{batches: tc.batches, err: tc.refresh}
			h := NewHousekeeper(cleaner, refresher, quietLogger(), time.Minute)

			h.RunOnce(context.Background())

			assert.Equal(t, 1, cleaner.calls)
			assert.Equal(t, tc.wantCalls, refresher.calls)
		})
	}
}

func TestHousekeeper_StopsOnCancel(t *testing.T) {
	h := NewHousekeeper(&fakeCleaner{}, &fakeRefresher{}, quietLogger(), time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Start(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("housekeeper did not stop after cancel")
	}
}
