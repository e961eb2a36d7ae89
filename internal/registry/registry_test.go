package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type refresher interface {
	Name() string
	Refresh(ctx context.Context) error
}

type collector interface {
	Name() string
	Collect(ctx context.Context) ([]string, error)
}

type fakeRefresher struct{ name string }

func (f fakeRefresher) Name() string { return f.name }
func (f fakeRefresher) Refresh(_ context.Context) error { return nil }

type fakeCollector struct{ name string }

func (f fakeCollector) Name() string { return f.name }
func (f fakeCollector) Collect(_ context.Context) ([]string, error) { return nil, nil }

func TestResolveChecksRole(t *testing.T) {
	t.Parallel()

	reg := New()
	reg.Register(fakeRefresher{name: "discovery"})
	reg.Register(fakeCollector{name: "arxiv"})

	got, err := Resolve[collector](reg, "arxiv")
	require.NoError(t, err)
	assert.Equal(t, "arxiv", got.Name())

	_, err = Resolve[collector](reg, "discovery")
	assert.ErrorContains(t, err, "wrong role")

	_, err = Resolve[refresher](reg, "missing")
	assert.ErrorContains(t, err, "not registered")

	assert.Equal(t, []string{"arxiv", "discovery"}, reg.Names())
}

func TestResolveAllKeepsOrderAndSkips(t *testing.T) {
	t.Parallel()

	reg := New()
	reg.Register(fakeCollector{name: "a"})
	reg.Register(fakeCollector{name: "b"})
	reg.Register(fakeRefresher{name: "r"})

	got, errs := ResolveAll[collector](reg, []string{"b", "r", "zzz", "a"})
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Name())
	assert.Equal(t, "a", got[1].Name())
	assert.Len(t, errs, 2)
}
