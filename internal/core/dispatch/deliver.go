package dispatch

import (
	"context"
	"errors"
	"fmt"
	"html"
	"unicode/utf8"

	"userbot/internal/core/domain"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
)

func (r *Runner) deliver(ctx context.Context, inv Invocation, t *target, text string, l zerolog.Logger) error {
	if r.cfg.MaxLength > 0 && utf8.RuneCountInString(text) > r.cfg.MaxLength {
		return r.overflow(ctx, inv, t, text, domain.ErrMessageTooLong, l)
	}

	err := t.show(ctx, r.sender, text)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotModified):
		l.Warn().Err(err).Msg("result identical to current message")
		return nil
	case errors.Is(err, domain.ErrMessageTooLong):
		return r.overflow(ctx, inv, t, text, err, l)
	default:
		l.Error().Err(err).Msg(domain.ErrSendingReplyFailed.Error())
		return fmt.Errorf("%w: %w", domain.ErrSendingReplyFailed, err)
	}
}

// overflow delivers a result too long for one message: first to the paste
// service, then as a document. If both fail, cause is returned.
func (r *Runner) overflow(ctx context.Context, inv Invocation, t *target, text string, cause error,
	l zerolog.Logger) error {
	tr := inv.Translator

	if r.paste != nil {
		url, err := r.paste.Submit(ctx, text)
		if err == nil {
			l.Info().Str("url", url).Msg("result uploaded to paste service")
			link := fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(url), html.EscapeString(url))
			return r.note(ctx, t, prefixed(inv.Icons.Info,
				fmt.Sprintf(html.EscapeString(tr.Gettext("Output is too long, uploaded to %s")), link)), l)
		}

		l.Warn().Err(err).Msg("paste service failed, sending result as file")
	}

	name := fmt.Sprintf("result-%s.txt", uuid.Must(uuid.NewV4()))
	if err := r.sender.ReplyDocument(ctx, t.message, name, []byte(text), ""); err != nil {
		l.Error().Err(err).Msg("failed to send result as file")
		return errors.Join(cause, err)
	}

	return r.note(ctx, t, prefixed(inv.Icons.Info,
		html.EscapeString(tr.Gettext("Output is too long, see the attached file"))), l)
}

func (r *Runner) note(ctx context.Context, t *target, text string, l zerolog.Logger) error {
	err := t.show(ctx, r.sender, text)
	if errors.Is(err, domain.ErrNotModified) {
		l.Warn().Err(err).Msg("note identical to current message")
		return nil
	}

	return err
}
