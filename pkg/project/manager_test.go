package project

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInstance struct {
	path   string
	closed int32
}

func (f *fakeInstance) Close() error {
	atomic.AddInt32(&f.closed, 1)
	return nil
}

func TestManager_LazyAndIdempotent(t *testing.T) {
	var builds int32
	m := NewManager(func(path string) (*fakeInstance, error) {
		atomic.AddInt32(&builds, 1)
		return &fakeInstance{path: path}, nil
	})

	a, err := m.Get("/p1")
	require.NoError(t, err)
	b, err := m.Get("/p1")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, int32(1), builds)
}

func TestManager_NoCrossProjectSharing(t *testing.T) {
	m := NewManager(func(path string) (*fakeInstance, error) {
		return &fakeInstance{path: path}, nil
	})

	a, _ := m.Get("/p1")
	b, _ := m.Get("/p2")
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, m.Count())
}

func TestManager_ResetClosesAndRebuilds(t *testing.T) {
	m := NewManager(func(path string) (*fakeInstance, error) {
		return &fakeInstance{path: path}, nil
	})

	a, _ := m.Get("/p1")
	m.Reset("/p1")
	assert.Equal(t, int32(1), atomic.LoadInt32(&a.closed))

	b, _ := m.Get("/p1")
	assert.NotSame(t, a, b)
}

func TestManager_ResetAllDoesNotAffectOtherFactoryErrors(t *testing.T) {
	m := NewManager(func(path string) (*fakeInstance, error) {
		if path == "/bad" {
			return nil, errors.New("boom")
		}
		return &fakeInstance{path: path}, nil
	})

	_, err := m.Get("/bad")
	assert.Error(t, err)

	_, err = m.Get("/good")
	assert.NoError(t, err)
	assert.Equal(t, 1, m.Count())

	m.ResetAll()
	assert.Equal(t, 0, m.Count())
}
