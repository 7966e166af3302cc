package pty

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"splitcmd/internal/model"
)

type recordingSink struct {
	mu     sync.Mutex
	chunks [][]byte
	exited bool
	exitCh chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{exitCh: make(chan struct{})}
}

func (r *recordingSink) OnOutput(side model.Side, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks = append(r.chunks, data)
}

func (r *recordingSink) OnExit(side model.Side) {
	r.mu.Lock()
	r.exited = true
	r.mu.Unlock()
	close(r.exitCh)
}

func TestSpawnIsNoopWhenAlreadyAlive(t *testing.T) {
	sup := New("/bin/sh", 500*time.Millisecond)
	sink := newRecordingSink()

	require.NoError(t, sup.Spawn(model.SideLeft, "/tmp", 24, 80, sink))
	require.NoError(t, sup.Spawn(model.SideLeft, "/tmp", 24, 80, sink))

	require.NoError(t, sup.Kill(model.SideLeft))
}

func TestWriteIsNoopWhenNotAlive(t *testing.T) {
	sup := New("/bin/sh", 500*time.Millisecond)
	require.NoError(t, sup.Write(model.SideRight, []byte("echo hi\n")))
}

func TestKillReportsExit(t *testing.T) {
	sup := New("/bin/sh", 500*time.Millisecond)
	sink := newRecordingSink()

	require.NoError(t, sup.Spawn(model.SideLeft, "/tmp", 24, 80, sink))
	require.NoError(t, sup.Kill(model.SideLeft))

	select {
	case <-sink.exitCh:
	case <-time.After(2 * time.Second):
		t.Fatal("expected OnExit to fire after kill")
	}
}
