package usergroup

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"userbot/internal/core/domain"
	"userbot/internal/core/port"

	"github.com/rs/zerolog/log"
)

// Result is a resolved set of user IDs together with the items that could
// not be resolved. Every soft error wraps domain.ErrSoftResolution.
type Result struct {
	IDs    []int64
	Errors []error
}

func (r Result) Contains(id int64) bool {
	_, found := slices.BinarySearch(r.IDs, id)
	return found
}

type Resolver struct {
	groups port.GroupStore
	users  port.UserDirectory
}

func NewResolver(groups port.GroupStore, users port.UserDirectory) *Resolver {
	return &Resolver{groups: groups, users: users}
}

type resolution struct {
	ids      map[int64]struct{}
	errs     []error
	visiting map[string]bool
}

// Resolve turns expr into user IDs. A plain number or "@username" is
// resolved directly; anything else is parsed as a group expression. Unknown
// users and groups, and groups that include themselves, are reported in
// Result.Errors. The returned error is for malformed expressions and
// storage failures.
func (r *Resolver) Resolve(ctx context.Context, expr string) (Result, error) {
	res := &resolution{ids: make(map[int64]struct{}), visiting: make(map[string]bool)}

	if err := r.resolveInto(ctx, res, strings.TrimSpace(expr)); err != nil {
		return Result{}, err
	}

	return res.result(), nil
}

// ResolveAll resolves every expression and merges the results.
func (r *Resolver) ResolveAll(ctx context.Context, exprs ...string) (Result, error) {
	res := &resolution{ids: make(map[int64]struct{}), visiting: make(map[string]bool)}

	for _, expr := range exprs {
		if err := r.resolveInto(ctx, res, strings.TrimSpace(expr)); err != nil {
			return Result{}, fmt.Errorf("resolving %q: %w", expr, err)
		}
	}

	return res.result(), nil
}

func (r *Resolver) resolveInto(ctx context.Context, res *resolution, expr string) error {
	if id, err := strconv.ParseInt(expr, 10, 64); err == nil {
		res.ids[id] = struct{}{}
		return nil
	}

	var v Value
	if username, ok := strings.CutPrefix(expr, "@"); ok {
		v = Value{Kind: ValueUsername, Username: username}
	} else {
		g, err := Parse(expr)
		if err != nil {
			return err
		}
		v = Value{Kind: ValueGroup, Group: g}
	}

	ids, errs, err := r.value(ctx, v, res.visiting)
	if err != nil {
		return err
	}

	for id := range ids {
		res.ids[id] = struct{}{}
	}
	res.errs = append(res.errs, errs...)

	return nil
}

func (r *Resolver) value(ctx context.Context, v Value, visiting map[string]bool) (map[int64]struct{}, []error, error) {
	switch v.Kind {
	case ValueID:
		return map[int64]struct{}{v.ID: {}}, nil, nil
	case ValueUsername:
		id, err := r.users.ResolveUsername(ctx, strings.ToLower(v.Username))
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, []error{fmt.Errorf("%w @%s: %w", domain.ErrSoftResolution, v.Username, err)}, nil
		}
		if err != nil {
			return nil, nil, fmt.Errorf("resolving @%s: %w", v.Username, err)
		}
		return map[int64]struct{}{id: {}}, nil, nil
	case ValueGroup:
		return r.group(ctx, v.Group, visiting)
	default:
		return nil, nil, fmt.Errorf("unknown value kind %d", v.Kind)
	}
}

// group resolves g depth first: stored members, minus exclude, plus include.
func (r *Resolver) group(ctx context.Context, g *Group, visiting map[string]bool) (map[int64]struct{}, []error, error) {
	if visiting[g.Name] {
		return nil, []error{fmt.Errorf("%w group %q: %w", domain.ErrSoftResolution, g.Name, domain.ErrGroupCycle)}, nil
	}

	visiting[g.Name] = true
	defer delete(visiting, g.Name)

	var errs []error
	ids := make(map[int64]struct{})

	members, err := r.groups.GroupMembers(ctx, g.Name)
	switch {
	case errors.Is(err, domain.ErrGroupNotFound):
		errs = append(errs, fmt.Errorf("%w group %q: %w", domain.ErrSoftResolution, g.Name, err))
	case err != nil:
		return nil, nil, fmt.Errorf("loading group %q: %w", g.Name, err)
	}

	for _, id := range members {
		ids[id] = struct{}{}
	}

	for _, v := range g.Exclude {
		excluded, soft, err := r.value(ctx, v, visiting)
		if err != nil {
			return nil, nil, err
		}
		errs = append(errs, soft...)
		for id := range excluded {
			delete(ids, id)
		}
	}

	for _, v := range g.Include {
		included, soft, err := r.value(ctx, v, visiting)
		if err != nil {
			return nil, nil, err
		}
		errs = append(errs, soft...)
		maps.Copy(ids, included)
	}

	log.Debug().Str("group", g.Name).Int("members", len(ids)).Int("unresolved", len(errs)).Msg("resolved user group")

	return ids, errs, nil
}

func (r *resolution) result() Result {
	return Result{IDs: slices.Sorted(maps.Keys(r.ids)), Errors: r.errs}
}
