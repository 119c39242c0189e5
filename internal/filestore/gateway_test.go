package filestore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingBackend struct {
	err error
}

func (b failingBackend) Name() string { return "failing" }
func (b failingBackend) Put(context.Context, string, []byte, string) error {
	return b.err
}
func (b failingBackend) URL(context.Context, string) (string, error) { return "", b.err }
func (b failingBackend) Delete(context.Context, string) error      { return b.err }
func (b failingBackend) Ping(context.Context) error                { return b.err }

func TestGateway_WrapsBackendErrors(t *testing.T) {
	cause := errors.New("connection reset")
	gw := NewGateway(failingBackend{err: cause})
	ctx := context.Background()

	p, err := gw.Store(ctx, []byte("x"), "events/1", "a.jpg", "image/jpeg")
	require.Error(t, err)
	assert.Empty(t, p)
	assert.ErrorIs(t, err, ErrWrite)
	assert.ErrorIs(t, err, cause)

	_, err = gw.ResolveURL(ctx, "events/1/a.jpg")
	assert.ErrorIs(t, err, ErrRead)
	assert.ErrorIs(t, err, cause)

	err = gw.Delete(ctx, "events/1/a.jpg")
	assert.ErrorIs(t, err, ErrDelete)
}

func TestGateway_StoreKeyLayout(t *testing.T) {
	gw := NewGateway(failingBackend{})
	p, err := gw.Store(context.Background(), []byte("x"), "/events/42/", "f.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "events/42/f.png", p)
}
