//go:build windows

package wepoll2_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/windows"

	wepoll2 "github.com/Berrysoft/wepoll2"
)

func TestEpollCreateArguments(t *testing.T) {
	_, err := wepoll2.EpollCreate(0)
	require.ErrorIs(t, err, wepoll2.ErrInvalidHandle)
	_, err = wepoll2.EpollCreate(-3)
	require.ErrorIs(t, err, wepoll2.ErrInvalidHandle)

	h, err := wepoll2.EpollCreate(16)
	require.NoError(t, err)
	require.NoError(t, wepoll2.EpollClose(h))

	_, err = wepoll2.EpollCreate1(1)
	require.ErrorIs(t, err, wepoll2.ErrInvalidHandle)
}

func TestEpollCloseTwice(t *testing.T) {
	h, err := wepoll2.EpollCreate1(0)
	require.NoError(t, err)
	require.NoError(t, wepoll2.EpollClose(h))
	require.ErrorIs(t, wepoll2.EpollClose(h), wepoll2.ErrInvalidHandle)
}

func TestEpollWaitOnUnknownHandle(t *testing.T) {
	events := make([]wepoll2.EpollEvent, 1)
	_, err := wepoll2.EpollWait(windows.InvalidHandle, events, 0)
	require.ErrorIs(t, err, wepoll2.ErrInvalidHandle)
}

func TestEpollWaitTimeout(t *testing.T) {
	h, err := wepoll2.EpollCreate1(0)
	require.NoError(t, err)
	defer wepoll2.EpollClose(h)

	events := make([]wepoll2.EpollEvent, 1)
	n, err := wepoll2.EpollWait(h, events, 100)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestEpollCtlSocketScenario(t *testing.T) {
	h, err := wepoll2.EpollCreate1(0)
	require.NoError(t, err)
	defer wepoll2.EpollClose(h)

	s, _ := connectedSocket(t)

	ev := wepoll2.EpollEvent{Events: wepoll2.EPOLLOUT}
	ev.Data.SetUint64(42)
	require.NoError(t, wepoll2.EpollCtl(h, wepoll2.EPOLL_CTL_ADD, s, &ev))

	events := make([]wepoll2.EpollEvent, 8)
	deadline := time.Now().Add(2 * time.Second)
	n := 0
	for n == 0 && time.Now().Before(deadline) {
		n, err = wepoll2.EpollWait(h, events, 100)
		require.NoError(t, err)
	}
	require.Equal(t, 1, n)
	require.NotZero(t, events[0].Events&wepoll2.EPOLLOUT)
	require.Equal(t, uint64(42), events[0].Data.Uint64())

	require.NoError(t, wepoll2.EpollCtl(h, wepoll2.EPOLL_CTL_DEL, s, nil))
	require.ErrorIs(t,
		wepoll2.EpollCtl(h, wepoll2.EPOLL_CTL_MOD, s, &ev),
		wepoll2.ErrInvalidHandle)
}

func TestEpollCtlArguments(t *testing.T) {
	h, err := wepoll2.EpollCreate1(0)
	require.NoError(t, err)
	defer wepoll2.EpollClose(h)

	s, _ := connectedSocket(t)

	require.ErrorIs(t,
		wepoll2.EpollCtl(h, wepoll2.EPOLL_CTL_ADD, s, nil),
		wepoll2.ErrInvalidHandle)
	require.ErrorIs(t,
		wepoll2.EpollCtl(h, 99, s, &wepoll2.EpollEvent{}),
		wepoll2.ErrInvalidHandle)
}

func TestEpollPwait2SubMillisecond(t *testing.T) {
	h, err := wepoll2.EpollCreate1(0)
	require.NoError(t, err)
	defer wepoll2.EpollClose(h)

	events := make([]wepoll2.EpollEvent, 1)
	ts := windows.NsecToTimespec(int64(3 * time.Millisecond))

	start := time.Now()
	n, err := wepoll2.EpollPwait2(h, events, &ts, false)
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Equal(t, 0, n)
	// Native granularity may wake the call early; assert only a loose
	// lower bound, not exact timing.
	require.GreaterOrEqual(t, elapsed, time.Millisecond)
}

func TestEpollPwait2NilTimespecBlocks(t *testing.T) {
	h, err := wepoll2.EpollCreate1(0)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		events := make([]wepoll2.EpollEvent, 1)
		_, err := wepoll2.EpollPwait2(h, events, nil, false)
		done <- err
	}()

	select {
	case err := <-done:
		t.Fatalf("infinite wait returned early: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, wepoll2.EpollClose(h))
	select {
	case err := <-done:
		require.ErrorIs(t, err, wepoll2.ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("waiter was not woken by close")
	}
}

func TestEpollCtlWaitableEvent(t *testing.T) {
	h, err := wepoll2.EpollCreate1(0)
	require.NoError(t, err)
	defer wepoll2.EpollClose(h)

	e, err := windows.CreateEvent(nil, 0, 0, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = windows.CloseHandle(e) })

	ev := wepoll2.EpollEvent{Events: wepoll2.EPOLLIN}
	ev.Data.SetUint64(9)
	require.NoError(t, wepoll2.EpollCtl(h, wepoll2.EPOLL_CTL_ADD, e, &ev))
	require.NoError(t, windows.SetEvent(e))

	events := make([]wepoll2.EpollEvent, 1)
	n, err := wepoll2.EpollWait(h, events, 2000)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, uint64(9), events[0].Data.Uint64())

	require.NoError(t, wepoll2.EpollCtl(h, wepoll2.EPOLL_CTL_DEL, e, nil))
}
