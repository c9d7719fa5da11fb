// Package dispatch runs one handler invocation: waiting notice, bounded
// execution, outcome handling and result delivery.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"userbot/internal/core/domain"
	"userbot/internal/core/port"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NoTimeout disables the execution time limit of a handler.
const NoTimeout time.Duration = -1

const (
	DefaultTimeout     = 30 * time.Second
	DefaultNoticeDelay = 750 * time.Millisecond
	DefaultMaxLength   = 4096
)

type Outcome int

const (
	Success Outcome = iota
	Empty
	Failed
	TimedOut
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Empty:
		return "empty"
	case Failed:
		return "error"
	case TimedOut:
		return "timeout"
	default:
		return "unknown"
	}
}

type Config struct {
	// Timeout applies to handlers that do not declare their own.
	Timeout time.Duration
	// NoticeDelay is how long a handler may run before the waiting notice shows. Zero disables it.
	NoticeDelay time.Duration
	// MaxLength is the longest text, in characters, delivered in place.
	MaxLength int
	// TracebackChat receives full error reports when set.
	TracebackChat int64
}

func DefaultConfig() Config {
	return Config{
		Timeout:     DefaultTimeout,
		NoticeDelay: DefaultNoticeDelay,
		MaxLength:   DefaultMaxLength,
	}
}

// Observer is told about every finished invocation.
type Observer interface {
	Observe(kind, name string, outcome Outcome, elapsed time.Duration)
}

// Invocation is everything Run needs to execute and answer one handler call.
type Invocation struct {
	Kind       string
	Name       string
	Message    *domain.Message
	Translator port.Translator
	Icons      domain.Icons
	// Call runs the handler body.
	Call func(ctx context.Context) (string, error)
	// Timeout overrides Config.Timeout when non-zero; NoTimeout disables the limit.
	Timeout time.Duration
	// WaitingNotice replaces the default waiting notice when set. It is HTML and gets translated.
	WaitingNotice string
}

type Runner struct {
	sender   port.MessageSender
	paste    port.PasteService
	observer Observer
	cfg      Config
}

type Option func(*Runner)

func WithObserver(o Observer) Option {
	return func(r *Runner) {
		r.observer = o
	}
}

// WithPaste enables the paste service level of overflow delivery.
func WithPaste(p port.PasteService) Option {
	return func(r *Runner) {
		r.paste = p
	}
}

func NewRunner(sender port.MessageSender, cfg Config, opts ...Option) *Runner {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	r := &Runner{sender: sender, cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run executes inv and delivers its outcome. The returned error is non-nil
// only when the outcome could not be delivered at all.
func (r *Runner) Run(ctx context.Context, inv Invocation) (Outcome, error) {
	if inv.Translator == nil {
		inv.Translator = Passthrough{}
	}

	l := log.With().
		Int("messageId", inv.Message.ID).
		Int64("chatId", inv.Message.ChatID).
		Str("command", inv.Name).
		Str("invocation", uuid.Must(uuid.NewV4()).String()).
		Logger()

	l.Info().Msg("handling request")

	start := time.Now()
	t := &target{message: inv.Message}

	n := r.scheduleNotice(ctx, inv, t, l)
	result, err := r.execute(ctx, inv)
	n.stop()

	if ctx.Err() != nil {
		l.Warn().Err(ctx.Err()).Msg("invocation aborted")
		r.observe(inv, Failed, start)
		return Failed, ctx.Err()
	}

	var outcome Outcome
	var text string

	switch {
	case errors.Is(err, domain.ErrTimeout):
		outcome = TimedOut
		l.Warn().Err(err).Msg("handler timed out")
		text = r.timeoutMessage(inv)
	case err != nil:
		outcome = Failed
		text = r.report(ctx, inv, err, l)
	case result == "":
		outcome = Empty
		l.Debug().Msg("empty result, nothing to deliver")
	default:
		outcome = Success
		text = result
	}

	r.observe(inv, outcome, start)

	if text == "" {
		return outcome, nil
	}

	return outcome, r.deliver(ctx, inv, t, text, l)
}

func (r *Runner) execute(ctx context.Context, inv Invocation) (string, error) {
	timeout := inv.Timeout
	if timeout == 0 {
		timeout = r.cfg.Timeout
	}

	if timeout == NoTimeout {
		return inv.Call(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}

	done := make(chan result, 1)
	go func() {
		text, err := inv.Call(ctx)
		done <- result{text: text, err: err}
	}()

	select {
	case res := <-done:
		return res.text, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", domain.ErrTimeout, timeout)
		}
		return "", ctx.Err()
	}
}

func (r *Runner) timeoutMessage(inv Invocation) string {
	timeout := inv.Timeout
	if timeout == 0 {
		timeout = r.cfg.Timeout
	}

	seconds := int(timeout.Round(time.Second) / time.Second)
	msg := inv.Translator.Ngettext("Timed out after %d second", "Timed out after %d seconds", seconds)

	return prefixed(inv.Icons.Warning, html.EscapeString(fmt.Sprintf(msg, seconds)))
}

func (r *Runner) report(ctx context.Context, inv Invocation, err error, l zerolog.Logger) string {
	tb := Summarize(err)
	l.Error().Err(err).Str("traceback", tb.String()).Msg("handler failed")

	tr := inv.Translator
	full := fmt.Sprintf("%s <code>%s</code>\n<pre>%s</pre>",
		prefixed(inv.Icons.Error, "<b>"+html.EscapeString(tr.Gettext("Error while running"))+"</b>"),
		html.EscapeString(inv.Name),
		html.EscapeString(tb.Describe(err)))

	if r.cfg.TracebackChat == 0 {
		return full
	}

	if sendErr := r.sender.SendText(ctx, r.cfg.TracebackChat, full); sendErr != nil {
		l.Warn().Err(sendErr).Int64("tracebackChat", r.cfg.TracebackChat).Msg("failed to forward error report")
		return full
	}

	return prefixed(inv.Icons.Error, html.EscapeString(tr.Gettext("An error occurred, the report was sent to the diagnostics chat")))
}

func (r *Runner) observe(inv Invocation, outcome Outcome, start time.Time) {
	if r.observer == nil {
		return
	}

	r.observer.Observe(inv.Kind, inv.Name, outcome, time.Since(start))
}

func prefixed(icon, text string) string {
	if icon == "" {
		return text
	}

	return icon + " " + text
}

// Passthrough is the translator used when none is configured: it returns
// messages untranslated with English plural rules.
type Passthrough struct{}

func (Passthrough) Gettext(msg string) string { return msg }

func (Passthrough) Ngettext(singular, plural string, n int) string {
	if n == 1 {
		return singular
	}

	return plural
}
