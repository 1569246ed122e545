package runner

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalManager_StopCancels(t *testing.T) {
	sm := NewSignalManager()
	ctx := sm.Context()
	require.NoError(t, ctx.Err())

	sm.Stop()
	sm.Stop()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.Nil(t, sm.Signal())
}

func TestSignalManager_RecordsSignal(t *testing.T) {
	sm := NewSignalManager()
	defer sm.Stop()

	sm.ch <- os.Interrupt

	select {
	case <-sm.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("context was not cancelled by the signal")
	}
	assert.Equal(t, os.Interrupt, sm.Signal())
}
