package texture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-space/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func wait(t *testing.T, p *Pending) Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r, err := p.Wait(ctx)
	require.NoError(t, err)
	return r
}

func TestLoadDecodesPNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 3))
	img.Set(1, 2, color.RGBA{R: 255, A: 255})
	path := filepath.Join(t.TempDir(), "particle.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	r := wait(t, NewLoader().Load(path))
	require.NoError(t, r.Err)
	assert.Equal(t, 1, r.Attempts)
	assert.Equal(t, uint32(2), r.Data.Width)
	assert.Equal(t, uint32(3), r.Data.Height)
	assert.True(t, r.Data.Valid())
}

func TestLoadRetriesSilentlyThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	decoder := func(string) (common.TextureStagingData, error) {
		if calls.Add(1) < 3 {
			return common.TextureStagingData{}, errors.New("busy")
		}
		return common.TextureStagingData{Pixels: make([]byte, 4), Width: 1, Height: 1}, nil
	}
	core, logs := observer.New(zapcore.WarnLevel)

	r := wait(t, NewLoader(WithDecoder(decoder), WithLogger(zap.New(core))).Load("x.png"))
	require.NoError(t, r.Err)
	assert.Equal(t, 3, r.Attempts)
	assert.Equal(t, 0, logs.Len())
}

func TestLoadFailureIsReportedAndLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	l := NewLoader(WithRetries(1), WithLogger(zap.New(core)))

	p := l.Load(filepath.Join(t.TempDir(), "missing.png"))
	r := wait(t, p)
	require.Error(t, r.Err)
	assert.Equal(t, 2, r.Attempts)
	assert.Eventually(t, func() bool { return logs.FilterMessage("texture load failed").Len() == 1 }, time.Second, 10*time.Millisecond)

	again, ok := p.Poll()
	assert.True(t, ok)
	assert.Equal(t, r, again)
}

func TestMalformedDataIsAnError(t *testing.T) {
	decoder := func(string) (common.TextureStagingData, error) {
		return common.TextureStagingData{Width: 4, Height: 4}, nil
	}
	r := wait(t, NewLoader(WithDecoder(decoder), WithRetries(0)).Load("bad.png"))
	assert.Error(t, r.Err)
	assert.Equal(t, 1, r.Attempts)
}

func TestPollBeforeCompletion(t *testing.T) {
	release := make(chan struct{})
	decoder := func(string) (common.TextureStagingData, error) {
		<-release
		return common.TextureStagingData{Pixels: make([]byte, 4), Width: 1, Height: 1}, nil
	}
	p := NewLoader(WithDecoder(decoder)).Load("slow.png")

	_, ok := p.Poll()
	assert.False(t, ok)
	assert.Equal(t, "slow.png", p.Path())

	close(release)
	r := wait(t, p)
	assert.NoError(t, r.Err)
}

func TestWaitReturnsWhilePolledConcurrently(t *testing.T) {
	release := make(chan struct{})
	decoder := func(string) (common.TextureStagingData, error) {
		<-release
		return common.TextureStagingData{Pixels: make([]byte, 4), Width: 1, Height: 1}, nil
	}
	p := NewLoader(WithDecoder(decoder)).Load("shared.png")

	polled := make(chan Result, 1)
	go func() {
		for {
			if r, ok := p.Poll(); ok {
				polled <- r
				return
			}
		}
	}()

	waited := make(chan Result, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		r, err := p.Wait(ctx)
		assert.NoError(t, err)
		waited <- r
	}()

	close(release)
	a, b := <-polled, <-waited
	assert.Equal(t, a, b)
	assert.NoError(t, b.Err)
	assert.Equal(t, "shared.png", b.Path)
}
