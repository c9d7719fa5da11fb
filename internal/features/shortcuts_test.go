package features

import (
	"testing"

	"userbot/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortcuts(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{text: "well :shrug:", want: `well ¯\_(ツ)_/¯`},
		{text: ":tableflip: and :shrug:", want: `(╯°□°)╯︵ ┻━┻ and ¯\_(ツ)_/¯`},
		{text: "say :upper it loud: <now>", want: "say IT LOUD &lt;now&gt;"},
	}

	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			h := newHarness(t)
			require.NoError(t, Shortcuts().Register(h.source, h.engine))

			msg := &domain.Message{ID: 1, ChatID: 10, Outgoing: true, Text: tc.text}
			h.source.Emit(t.Context(), msg)

			assert.Equal(t, []sent{{method: "edit", messageID: 1, text: tc.want}}, h.sender.Calls())
		})
	}
}

func TestShortcuts_IgnoresPlainAndIncoming(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, Shortcuts().Register(h.source, h.engine))

	h.source.Emit(t.Context(), &domain.Message{ID: 1, ChatID: 10, Outgoing: true, Text: "nothing here"})
	h.source.Emit(t.Context(), &domain.Message{ID: 2, ChatID: 10, Text: ":shrug:"})

	assert.Empty(t, h.sender.Calls())
}
