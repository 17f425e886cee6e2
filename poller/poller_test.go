package poller

import (
	"context"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestLogger() (*log.Logger, *memory.Handler) {
	h := memory.New()
	return &log.Logger{Handler: h, Level: log.DebugLevel}, h
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()
	p, err := New()
	require.NoError(t, err)
	assert.Equal(t, DefaultInterval, p.Interval())
	assert.Equal(t, 10*time.Second, p.Interval())
}

func TestNew_InvalidInterval(t *testing.T) {
	t.Parallel()
	for _, d := range []time.Duration{0, -time.Second} {
		_, err := New(WithInterval(d))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidInterval)
	}
}

func TestWithLogger_NilKeepsDefault(t *testing.T) {
	t.Parallel()
	p, err := New(WithLogger(nil))
	require.NoError(t, err)
	assert.NotNil(t, p.logger)
}

func TestRun_EmitsDebugLines(t *testing.T) {
	t.Parallel()
	logger, h := newTestLogger()
	p, err := New(WithInterval(10*time.Millisecond), WithLogger(logger))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = p.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.GreaterOrEqual(t, len(h.Entries), 2)
	for _, e := range h.Entries {
		assert.Equal(t, log.DebugLevel, e.Level)
		assert.Equal(t, "Polling registry for changes", e.Message)
	}
}

func TestRun_OnlyReturnsOnCancel(t *testing.T) {
	t.Parallel()
	logger, _ := newTestLogger()
	p, err := New(WithInterval(time.Millisecond), WithLogger(logger))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("Run returned before cancellation: %v", err)
	case <-time.After(30 * time.Millisecond):
	}
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRun_AlreadyCanceled(t *testing.T) {
	t.Parallel()
	logger, h := newTestLogger()
	p, err := New(WithInterval(time.Hour), WithLogger(logger))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.Entries)
}

func TestRun_InfoLevelSuppressesDebug(t *testing.T) {
	t.Parallel()
	h := memory.New()
	logger := &log.Logger{Handler: h, Level: log.InfoLevel}
	p, err := New(WithInterval(5*time.Millisecond), WithLogger(logger))
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_ = p.Run(ctx)
	assert.Empty(t, h.Entries)
}
