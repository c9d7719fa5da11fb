package dispatch

import (
	"context"
	"sync"
	"time"

	"userbot/internal/core/domain"
	"userbot/internal/core/port"

	"github.com/rs/zerolog"
)

const defaultNotice = "Working…"

// target is where the outcome of an invocation is shown: the triggering
// message when the account owns it, otherwise a reply that is created once
// and edited afterwards.
type target struct {
	message *domain.Message
	reply   *domain.Message
}

func (t *target) show(ctx context.Context, sender port.MessageSender, text string) error {
	switch {
	case t.reply != nil:
		return sender.EditText(ctx, t.reply, text)
	case t.message.Outgoing:
		return sender.EditText(ctx, t.message, text)
	}

	reply, err := sender.ReplyText(ctx, t.message, text)
	if err != nil {
		return err
	}
	t.reply = reply

	return nil
}

type notice struct {
	once   sync.Once
	cancel chan struct{}
	done   chan struct{}
}

// stop cancels a pending notice and waits for one in flight, so the notice
// never touches the target after stop returns.
func (n *notice) stop() {
	n.once.Do(func() {
		close(n.cancel)
	})
	<-n.done
}

func (r *Runner) scheduleNotice(ctx context.Context, inv Invocation, t *target, l zerolog.Logger) *notice {
	n := &notice{cancel: make(chan struct{}), done: make(chan struct{})}

	if r.cfg.NoticeDelay <= 0 {
		close(n.done)
		return n
	}

	go func() {
		defer close(n.done)

		timer := time.NewTimer(r.cfg.NoticeDelay)
		defer timer.Stop()

		select {
		case <-n.cancel:
			return
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		text := defaultNotice
		if inv.WaitingNotice != "" {
			text = inv.WaitingNotice
		}

		l.Debug().Msg("handler still running, showing waiting notice")
		if err := t.show(ctx, r.sender, prefixed(inv.Icons.Wait, inv.Translator.Gettext(text))); err != nil {
			l.Warn().Err(err).Msg("failed to show waiting notice")
		}
	}()

	return n
}
