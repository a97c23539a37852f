package registry

import (
	"testing"
	"time"

	"blockandjerrys/cone-svc/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndResolve(t *testing.T) {
	reg := New(0)

	require.NoError(t, reg.Register("abc123", "conn-1", 7))

	conn, orderID, err := reg.Resolve("abc123")
	require.NoError(t, err)
	assert.Equal(t, domain.ConnID("conn-1"), conn)
	assert.Equal(t, 7, orderID)

	_, _, err = reg.Resolve("abc123")
	assert.ErrorIs(t, err, domain.ErrUnknownInvoice)
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_DuplicateInvoice(t *testing.T) {
	reg := New(0)
	require.NoError(t, reg.Register("abc123", "conn-1", 7))

	err := reg.Register("abc123", "conn-2", 8)
	assert.ErrorIs(t, err, domain.ErrDuplicateInvoice)

	conn, orderID, err := reg.Resolve("abc123")
	require.NoError(t, err)
	assert.Equal(t, domain.ConnID("conn-1"), conn)
	assert.Equal(t, 7, orderID)
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	reg := New(0)
	_, _, err := reg.Resolve("zzz999")
	assert.ErrorIs(t, err, domain.ErrUnknownInvoice)
}

func TestRegistry_DropConnection(t *testing.T) {
	reg := New(0)
	require.NoError(t, reg.Register("inv-a", "conn-1", 1))
	require.NoError(t, reg.Register("inv-b", "conn-1", 2))
	require.NoError(t, reg.Register("inv-c", "conn-2", 3))

	assert.Equal(t, 2, reg.DropConnection("conn-1"))
	assert.Equal(t, 0, reg.DropConnection("conn-1"))
	assert.Equal(t, 1, reg.Len())

	_, _, err := reg.Resolve("inv-a")
	assert.ErrorIs(t, err, domain.ErrUnknownInvoice)

	conn, _, err := reg.Resolve("inv-c")
	require.NoError(t, err)
	assert.Equal(t, domain.ConnID("conn-2"), conn)
}

func TestRegistry_Sweep(t *testing.T) {
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	reg := New(time.Hour)
	reg.now = func() time.Time { return current }

	require.NoError(t, reg.Register("old", "conn-1", 1))
	current = current.Add(45 * time.Minute)
	require.NoError(t, reg.Register("fresh", "conn-1", 2))
	current = current.Add(30 * time.Minute)

	evicted := reg.Sweep()
	assert.Equal(t, []string{"old"}, evicted)
	assert.Equal(t, 1, reg.Len())

	_, orderID, err := reg.Resolve("fresh")
	require.NoError(t, err)
	assert.Equal(t, 2, orderID)
}

func TestRegistry_SweepDisabled(t *testing.T) {
	reg := New(0)
	reg.now = func() time.Time { return time.Unix(0, 0) }
	require.NoError(t, reg.Register("inv", "conn-1", 1))
	reg.now = time.Now

	assert.Nil(t, reg.Sweep())
	assert.Equal(t, 1, reg.Len())
}
