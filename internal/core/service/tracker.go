package service

import (
	"context"
	"fmt"
	"html"
	"sync"
	"time"

	"userbot/internal/core/domain"
	"userbot/internal/core/inject"
	"userbot/internal/core/middleware"
	"userbot/internal/core/port"
	"userbot/internal/core/registry"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const resetSchedule = "@midnight"

// UsageTracker limits how many commands other users may invoke per chat and
// day. The owner's own commands, outgoing or not, are not counted.
type UsageTracker struct {
	owner      int64
	mutex      sync.Mutex
	chats      map[int64]int
	notified   map[int64]bool
	dailyLimit int
	schedule   cron.Schedule
	cron       *cron.Cron
}

func NewUsageTracker(owner int64) (*UsageTracker, error) {
	schedule, err := cron.ParseStandard(resetSchedule)
	if err != nil {
		return nil, fmt.Errorf("parsing reset schedule: %w", err)
	}

	t := &UsageTracker{
		owner:      owner,
		chats:      make(map[int64]int),
		notified:   make(map[int64]bool),
		dailyLimit: viper.GetInt("limits.daily_invocations"),
		schedule:   schedule,
		cron:       cron.New(),
	}
	t.cron.Schedule(schedule, cron.FuncJob(t.Reset))

	return t, nil
}

// Run resets the counters every midnight until ctx is done.
func (t *UsageTracker) Run(ctx context.Context) {
	log.Debug().Time("reset", t.NextReset()).Msg("starting daily limit reset schedule")
	t.cron.Start()

	<-ctx.Done()

	log.Debug().Msg("stopping daily limit reset")
	<-t.cron.Stop().Done()
}

func (t *UsageTracker) Reset() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	log.Debug().Int("chats", len(t.chats)).Msg("resetting daily limit")
	t.chats = make(map[int64]int)
	t.notified = make(map[int64]bool)
}

func (t *UsageTracker) NextReset() time.Time {
	return t.schedule.Next(time.Now())
}

// Allow counts one invocation in chatID and reports whether it is within the
// limit, and whether this is the first refusal of the day.
func (t *UsageTracker) Allow(chatID int64) (allowed bool, first bool) {
	if t.dailyLimit <= 0 {
		return true, false
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.chats[chatID] >= t.dailyLimit {
		first = !t.notified[chatID]
		t.notified[chatID] = true
		return false, first
	}

	t.chats[chatID]++

	return true, false
}

const overLimit = "This chat has used up its %d commands for today. The limit resets in %s."

// Middleware counts commands from other users and refuses those over the
// limit, telling the chat once a day.
func (t *UsageTracker) Middleware() middleware.Func[*inject.Context] {
	return func(ctx context.Context, c *inject.Context, next middleware.Handler[*inject.Context]) error {
		inv, _ := inject.Get[registry.Invocation](c)
		msg, ok := inject.Get[*domain.Message](c)
		if inv.Kind != registry.KindCommand || !ok || msg.Outgoing || msg.Sender.ID == t.owner {
			return next(ctx, c)
		}

		allowed, first := t.Allow(msg.ChatID)
		if allowed {
			return next(ctx, c)
		}

		log.Info().Int64("chatId", msg.ChatID).Str("command", inv.Name).Msg("daily limit exceeded")
		if !first {
			return nil
		}

		sender, _ := inject.Get[port.MessageSender](c)
		tr, _ := inject.Get[port.Translator](c)
		if sender == nil || tr == nil {
			return nil
		}

		text := fmt.Sprintf(tr.Gettext(overLimit), t.dailyLimit, time.Until(t.NextReset()).Truncate(time.Second))
		if _, err := sender.ReplyText(ctx, msg, html.EscapeString(text)); err != nil {
			log.Warn().Err(err).Msg("failed to send daily limit exceeded warning")
		}

		return nil
	}
}
