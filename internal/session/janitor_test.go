package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

func TestNewJanitorRejectsBadSchedule(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := NewJanitor(r, "every now and then", time.Hour, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid janitor schedule")
}

func TestJanitorRunOnceReportsExpired(t *testing.T) {
	r, clock := newTestRegistry(t)
	s := newSessionFiles(t, "s1")
	r.Put(s)
	clock.Advance(2 * time.Hour)

	var expired []string
	j, err := NewJanitor(r, "@every 10m", time.Hour, nil, func(s domain.Session) {
		expired = append(expired, s.SessionID)
	})
	require.NoError(t, err)

	assert.Equal(t, 1, j.RunOnce())
	assert.Equal(t, []string{"s1"}, expired)
	assert.Equal(t, 0, r.Len())
	assert.NoFileExists(t, s.StorePath)
}

func TestJanitorStartStop(t *testing.T) {
	r, _ := newTestRegistry(t)
	j, err := NewJanitor(r, "@every 1s", time.Hour, nil, nil)
	require.NoError(t, err)

	j.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	j.Stop(ctx)
}

func TestJanitorDisabledWithZeroTTL(t *testing.T) {
	r, clock := newTestRegistry(t)
	r.Put(domain.Session{SessionID: "s1"})
	clock.Advance(48 * time.Hour)

	j, err := NewJanitor(r, "@every 1s", 0, nil, nil)
	require.NoError(t, err)
	j.Start()
	j.Stop(context.Background())

	assert.Equal(t, 0, j.RunOnce())
	assert.Equal(t, 1, r.Len())
}
