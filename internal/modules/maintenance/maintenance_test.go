package maintenance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	mu          sync.Mutex
	calls       []string
	completeErr error
	block       chan struct{}
}

func (f *fakeSweeper) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeSweeper) SweepExpiredBookings(ctx context.Context) (int, error) {
	if f.block != nil {
		<-f.block
	}
	f.record("expire")
	return 2, nil
}

func (f *fakeSweeper) SweepAutoComplete(ctx context.Context) (int, error) {
	f.record("complete")
	return 1, f.completeErr
}

func (f *fakeSweeper) SweepUnlockMaturedFunds(ctx context.Context) (int, error) {
	f.record("unlock")
	return 3, nil
}

func (f *fakeSweeper) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestRunner_RunAllOrderAndCounts(t *testing.T) {
	sw := &fakeSweeper{}
	r := NewRunner(sw, nil, time.Minute)

	res, err := r.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Expired: 2, Completed: 1, Unlocked: 3}, res)
	assert.Equal(t, []string{"expire", "complete", "unlock"}, sw.Calls())
}

func TestRunner_FailureDoesNotStopLaterSweeps(t *testing.T) {
	sw := &fakeSweeper{completeErr: errors.New("db down")}
	r := NewRunner(sw, nil, time.Minute)

	res, err := r.RunAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "complete: db down")
	assert.Equal(t, 3, res.Unlocked)
	assert.Equal(t, []string{"expire", "complete", "unlock"}, sw.Calls())
}

func TestRunner_ConcurrentCallersSharePass(t *testing.T) {
	sw := &fakeSweeper{block: make(chan struct{})}
	r := NewRunner(sw, nil, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.RunAll(context.Background())
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(sw.block)
	wg.Wait()

	expires := 0
	for _, c := range sw.Calls() {
		if c == "expire" {
			expires++
		}
	}
	assert.Less(t, expires, 5)
}

func TestTriggerOnRead_Throttled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sw := &fakeSweeper{}
	r := NewRunner(sw, nil, time.Hour)
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	router := gin.New()
	router.GET("/dashboard", r.TriggerOnRead(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.Len(t, sw.Calls(), 3, "one pass of three sweeps")

	now = now.Add(time.Hour)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Len(t, sw.Calls(), 6)
}

func TestTriggerOnRead_ErrorsDoNotFailRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRunner(&fakeSweeper{completeErr: errors.New("boom")}, nil, 0)

	router := gin.New()
	router.GET("/dashboard", r.TriggerOnRead(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestScheduler_TicksUntilStopped(t *testing.T) {
	sw := &fakeSweeper{}
	s := NewScheduler(NewRunner(sw, nil, 0), 10*time.Millisecond)

	s.Start(context.Background())
	s.Start(context.Background())
	assert.Eventually(t, func() bool { return len(sw.Calls()) >= 6 }, time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop()
	n := len(sw.Calls())
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, len(sw.Calls()))
}

func TestHandler_Sweep(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(NewRunner(&fakeSweeper{}, nil, 0)).RegisterRoutes(router.Group("/internal"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/internal/maintenance/sweep", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool   `json:"success"`
		Data    Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, Result{Expired: 2, Completed: 1, Unlocked: 3}, body.Data)
}
