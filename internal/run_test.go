package internal_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edmunds-dev/edmunds/internal"
)

func TestRun_StartupFailureStopsStartedHooks(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	hook := func(name string) (start, stop func(context.Context) error) {
		return func(context.Context) error { rec.add(name + ".start"); return nil },
			func(context.Context) error { rec.add(name + ".stop"); return nil }
	}
	startA, stopA := hook("a")
	startB, stopB := hook("b")
	boom := errors.New("boom")

	err := internal.New().Run(
		internal.Address("127.0.0.1:0"),
		internal.LifecycleHook(startA, stopA),
		internal.LifecycleHook(startB, stopB),
		internal.StartupHook(func(context.Context) error { return boom }),
		internal.ShutdownHook(func(context.Context) error { rec.add("shutdown"); return nil }),
	)

	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a.start", "b.start", "b.stop", "a.stop"}, rec.events)
}

func TestRun_ListenFailureStopsStartedHooks(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	rec := &recorder{}
	err = internal.New().Run(
		internal.Address(ln.Addr().String()),
		internal.LifecycleHook(
			func(context.Context) error { rec.add("start"); return nil },
			func(context.Context) error { rec.add("stop"); return nil },
		),
	)

	require.Error(t, err)
	assert.Equal(t, []string{"start", "stop"}, rec.events)
}

func TestRun_GracefulShutdown(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	done := make(chan error, 1)
	go func() {
		done <- internal.New().Run(
			internal.Address("127.0.0.1:0"),
			internal.WithContext(ctx),
			internal.LifecycleHook(
				func(context.Context) error { rec.add("start"); cancel(); return nil },
				func(context.Context) error { rec.add("stop"); return nil },
			),
			internal.ShutdownHook(func(context.Context) error { rec.add("shutdown"); return nil }),
		)
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, []string{"start", "stop", "shutdown"}, rec.events)
}
