package animation

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func recorder(calls *[]int, id int) Callback {
	return func(float64) error {
		*calls = append(*calls, id)
		return nil
	}
}

func TestRunAllInRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	var calls []int
	for i := range 4 {
		r.Register(recorder(&calls, i))
	}

	r.RunAll(0)
	assert.Equal(t, []int{0, 1, 2, 3}, calls)
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	var calls []int
	a := r.Register(recorder(&calls, 1))
	r.Register(recorder(&calls, 2))
	c := r.Register(recorder(&calls, 3))

	r.Unregister(a)
	r.Unregister(c)
	r.Unregister(c)
	r.Unregister(Token{})

	r.RunAll(0)
	assert.Equal(t, []int{2}, calls)
	assert.Equal(t, 1, r.Len())
}

func TestTokensAreUnique(t *testing.T) {
	r := NewRegistry()
	seen := map[Token]bool{}
	for range 100 {
		tok := r.Register(func(float64) error { return nil })
		assert.NotEqual(t, Token{}, tok)
		assert.False(t, seen[tok])
		seen[tok] = true
	}
	assert.Equal(t, Token{}, r.Register(nil))
	assert.Equal(t, 100, r.Len())
}

// TestRegisterUnregisterSequences drives random register/unregister sequences against
// a slice model and checks RunAll invokes exactly the live callbacks in order.
func TestRegisterUnregisterSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := range 50 {
		r := NewRegistry()
		var calls []int
		type live struct {
			id  int
			tok Token
		}
		var model []live

		for op := range 40 {
			if len(model) > 0 && rng.Intn(3) == 0 {
				i := rng.Intn(len(model))
				r.Unregister(model[i].tok)
				model = append(model[:i], model[i+1:]...)
				continue
			}
			model = append(model, live{id: op, tok: r.Register(recorder(&calls, op))})
		}

		calls = nil
		r.RunAll(1)
		want := make([]int, 0, len(model))
		for _, m := range model {
			want = append(want, m.id)
		}
		require.Equal(t, want, append([]int{}, calls...), "round %d", round)
	}
}

func TestUnregisterDuringRunAll(t *testing.T) {
	r := NewRegistry()
	var calls []int
	var later Token
	r.Register(func(float64) error {
		calls = append(calls, 1)
		r.Unregister(later)
		return nil
	})
	later = r.Register(recorder(&calls, 2))
	r.Register(recorder(&calls, 3))

	r.RunAll(0)
	assert.Equal(t, []int{1, 3}, calls)
}

func TestRegisterDuringRunAllRunsNextFrame(t *testing.T) {
	r := NewRegistry()
	var calls []int
	added := false
	r.Register(func(float64) error {
		calls = append(calls, 1)
		if !added {
			added = true
			r.Register(recorder(&calls, 2))
		}
		return nil
	})

	r.RunAll(0)
	assert.Equal(t, []int{1}, calls)
	r.RunAll(0)
	assert.Equal(t, []int{1, 1, 2}, calls)
}

func TestFailingCallbacksAreIsolated(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	r := NewRegistry(WithLogger(zap.New(core)))

	var calls []int
	r.Register(recorder(&calls, 1))
	bad := r.Register(func(float64) error { return errors.New("bad effect") })
	r.Register(func(float64) error { panic("exploded") })
	r.Register(recorder(&calls, 4))

	r.RunAll(2.5)
	r.RunAll(3)

	assert.Equal(t, []int{1, 4, 1, 4}, calls)
	assert.Equal(t, 4, r.Len())

	entries := logs.FilterMessage("animation callback failed").All()
	require.Len(t, entries, 4)
	assert.Equal(t, bad.String(), entries[0].ContextMap()["token"])
	assert.Equal(t, 2.5, entries[0].ContextMap()["elapsed"])
	assert.Contains(t, entries[1].ContextMap()["error"], "panic: exploded")
}

func TestElapsedIsPassedThrough(t *testing.T) {
	r := NewRegistry()
	var got float64
	r.Register(func(elapsed float64) error {
		got = elapsed
		return nil
	})
	r.RunAll(1.25)
	assert.Equal(t, 1.25, got)
}

func TestClear(t *testing.T) {
	r := NewRegistry()
	var calls []int
	r.Register(recorder(&calls, 1))
	r.Register(func(float64) error {
		r.Clear()
		return nil
	})
	r.Register(recorder(&calls, 3))

	r.RunAll(0)
	assert.Equal(t, []int{1}, calls)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, r.Clear())
}
