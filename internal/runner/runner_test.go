package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sail-placements/sail/internal/service"
)

func TestRunner_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("results keep input order", func(t *testing.T) {
		process := func(_ context.Context, path string) (*service.ImportSummary, error) {
			return &service.ImportSummary{FileName: path, SuccessCount: 1}, nil
		}

		paths := []string{"c.csv", "a.csv", "b.csv"}
		batch := New(process, 3).Run(ctx, paths, nil)

		require.Len(t, batch.Results, 3)
		for i, path := range paths {
			assert.Equal(t, path, batch.Results[i].Path)
			assert.NotEqual(t, [16]byte{}, [16]byte(batch.Results[i].JobID))
		}
		assert.Equal(t, 3, batch.TotalImported())
		assert.Equal(t, 0, batch.TotalErrors())
	})

	t.Run("one failing file does not stop the rest", func(t *testing.T) {
		process := func(_ context.Context, path string) (*service.ImportSummary, error) {
			if path == "bad.csv" {
				return nil, errors.New("unreadable")
			}
			return &service.ImportSummary{FileName: path, SuccessCount: 2}, nil
		}

		batch := New(process, 2).Run(ctx, []string{"good.csv", "bad.csv", "also-good.csv"}, nil)

		assert.Equal(t, 4, batch.TotalImported())
		assert.Equal(t, 1, batch.TotalErrors())
		assert.Error(t, batch.Results[1].Err)
		assert.NoError(t, batch.Results[0].Err)
	})

	t.Run("completion callback fires once per file", func(t *testing.T) {
		process := func(_ context.Context, path string) (*service.ImportSummary, error) {
			return &service.ImportSummary{FileName: path}, nil
		}

		var calls int32
		paths := make([]string, 20)
		for i := range paths {
			paths[i] = fmt.Sprintf("file-%02d.csv", i)
		}

		New(process, 4).Run(ctx, paths, func(FileResult) {
			atomic.AddInt32(&calls, 1)
		})
		assert.Equal(t, int32(20), atomic.LoadInt32(&calls))
	})

	t.Run("workers run concurrently but never exceed the limit", func(t *testing.T) {
		var mu sync.Mutex
		var active, peak int

		release := make(chan struct{})
		process := func(_ context.Context, path string) (*service.ImportSummary, error) {
			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			mu.Unlock()

			<-release

			mu.Lock()
			active--
			mu.Unlock()
			return &service.ImportSummary{FileName: path}, nil
		}

		done := make(chan *Batch)
		go func() {
			done <- New(process, 2).Run(ctx, []string{"1", "2", "3", "4"}, nil)
		}()

		close(release)
		batch := <-done

		mu.Lock()
		defer mu.Unlock()
		assert.LessOrEqual(t, peak, 2)
		assert.Len(t, batch.Results, 4)
	})

	t.Run("canceled context marks undispatched files", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(context.Background())

		started := make(chan struct{}, 1)
		block := make(chan struct{})
		process := func(_ context.Context, path string) (*service.ImportSummary, error) {
			select {
			case started <- struct{}{}:
			default:
			}
			<-block
			return &service.ImportSummary{FileName: path}, nil
		}

		paths := []string{"1", "2", "3", "4", "5"}
		done := make(chan *Batch)
		go func() {
			done <- New(process, 1).Run(cancelCtx, paths, nil)
		}()

		<-started
		cancel()
		close(block)
		batch := <-done

		var canceled int
		for _, r := range batch.Results {
			if errors.Is(r.Err, context.Canceled) {
				canceled++
			}
		}
		assert.Positive(t, canceled)
	})
}
