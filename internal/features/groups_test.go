package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroups(t *testing.T) {
	h := newHarness(t).commands(t, Groups())
	require.NoError(t, h.store.RememberUser(t.Context(), 3, "alice"))

	assert.Equal(t, "ℹ️ No user groups are defined", h.send(t, ".group list"))

	assert.Equal(t, "✅ Added 3 users to <code>admins</code>", h.send(t, ".group add admins 1 2 @alice"))
	assert.Equal(t, "✅ Added 1 user to <code>friends</code>", h.send(t, ".g add friends 7"))

	out := h.send(t, ".group add friends @nobody")
	assert.Contains(t, out, "✅ Added 0 users to <code>friends</code>")
	assert.Contains(t, out, "\n⚠️ could not resolve @nobody")

	assert.Equal(t, "ℹ️ <b>User groups</b>\n<code>admins</code>: 3\n<code>friends</code>: 1", h.send(t, ".group list"))

	assert.Equal(t, "ℹ️ 3 users\n<code>1 3 7</code>", h.send(t, ".group resolve admins[exclude=2;include=friends]"))
	assert.Equal(t, "✅ Removed 1 user from <code>admins</code>", h.send(t, ".group del admins 2"))
	assert.Equal(t, "ℹ️ 2 users\n<code>1 3</code>", h.send(t, ".group resolve admins"))
}

func TestGroups_Errors(t *testing.T) {
	h := newHarness(t).commands(t, Groups())

	assert.Equal(t, "⚠️ Invalid group name: <code>123</code>", h.send(t, ".group add 123 1"))
	assert.Equal(t, "⚠️ Invalid group name: <code>a[exclude=1]</code>", h.send(t, ".group add a[exclude=1] 1"))

	out := h.send(t, ".group resolve admins[")
	assert.Contains(t, out, "⚠️ ")

	out = h.send(t, ".group resolve missing")
	assert.Contains(t, out, "ℹ️ 0 users")
	assert.Contains(t, out, "missing")
}
