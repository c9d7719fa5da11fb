package service

import (
	"context"
	"errors"

	"userbot/internal/core/domain"
	"userbot/internal/core/inject"
	"userbot/internal/core/middleware"
	"userbot/internal/core/registry"
	"userbot/internal/core/usergroup"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type GroupResolver interface {
	ResolveAll(ctx context.Context, exprs ...string) (usergroup.Result, error)
}

// Authorizer lets the account owner and members of the configured user
// groups invoke commands. Everyone else is ignored.
type Authorizer struct {
	owner    int64
	allowed  []string
	resolver GroupResolver
}

func NewAuthorizer(owner int64, resolver GroupResolver) (*Authorizer, error) {
	var allowed []string

	err := viper.UnmarshalKey("auth.allowed", &allowed)
	if err != nil {
		return nil, errors.New("failed to load allowed user groups")
	}

	return &Authorizer{
		owner:    owner,
		allowed:  allowed,
		resolver: resolver,
	}, nil
}

// IsAuthorized resolves the allowed groups on every call, so membership
// changes apply immediately.
func (a *Authorizer) IsAuthorized(ctx context.Context, userID int64) bool {
	if userID == a.owner {
		return true
	}

	if len(a.allowed) == 0 {
		return false
	}

	res, err := a.resolver.ResolveAll(ctx, a.allowed...)
	if err != nil {
		log.Error().Err(err).Strs("allowed", a.allowed).Msg("failed to resolve allowed user groups")
		return false
	}

	for _, softErr := range res.Errors {
		log.Warn().Err(softErr).Msg("allowed user group partially resolved")
	}

	return res.Contains(userID)
}

// Middleware gates commands. Outgoing messages always pass.
func (a *Authorizer) Middleware() middleware.Func[*inject.Context] {
	return func(ctx context.Context, c *inject.Context, next middleware.Handler[*inject.Context]) error {
		inv, _ := inject.Get[registry.Invocation](c)
		msg, ok := inject.Get[*domain.Message](c)
		if inv.Kind != registry.KindCommand || !ok || msg.Outgoing {
			return next(ctx, c)
		}

		if !a.IsAuthorized(ctx, msg.Sender.ID) {
			log.Info().
				Int64("userId", msg.Sender.ID).
				Int64("chatId", msg.ChatID).
				Str("command", inv.Name).
				Msg("ignoring command from unauthorized user")
			return nil
		}

		return next(ctx, c)
	}
}
