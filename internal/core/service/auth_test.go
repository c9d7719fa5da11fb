package service

import (
	"context"
	"errors"
	"testing"

	"userbot/internal/core/domain"
	"userbot/internal/core/registry"
	"userbot/internal/core/usergroup"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuthorizer(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		wantErr  bool
		expected []string
	}{
		{
			name: "loads allowed user groups",
			setup: func() {
				viper.Set("auth.allowed", []string{"friends", "@alice"})
			},
			expected: []string{"friends", "@alice"},
		},
		{
			name: "invalid type returns error",
			setup: func() {
				viper.Set("auth.allowed", map[string]int{"a": 1})
			},
			wantErr: true,
		},
		{
			name:     "missing key allows nobody else",
			setup:    func() {},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			tt.setup()
			auth, err := NewAuthorizer(1, &mockResolver{})

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, auth)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, auth.allowed)
			}
		})
	}
}

func TestAuthorizer_IsAuthorized(t *testing.T) {
	tests := []struct {
		name      string
		allowed   []string
		result    usergroup.Result
		err       error
		userID    int64
		want      bool
		wantCalls int
	}{
		{name: "owner", allowed: []string{"friends"}, userID: 1, want: true},
		{name: "member", allowed: []string{"friends"}, result: usergroup.Result{IDs: []int64{5, 7}}, userID: 7, want: true, wantCalls: 1},
		{name: "not a member", allowed: []string{"friends"}, result: usergroup.Result{IDs: []int64{5}}, userID: 7, wantCalls: 1},
		{
			name:    "partial resolution still counts",
			allowed: []string{"friends", "@ghost"},
			result: usergroup.Result{
				IDs:    []int64{7},
				Errors: []error{domain.ErrUserNotFound},
			},
			userID:    7,
			want:      true,
			wantCalls: 1,
		},
		{name: "resolver failure", allowed: []string{"friends"}, err: errors.New("db down"), userID: 7, wantCalls: 1},
		{name: "nothing allowed", userID: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &mockResolver{result: tt.result, err: tt.err}
			a := &Authorizer{owner: 1, allowed: tt.allowed, resolver: resolver}

			assert.Equal(t, tt.want, a.IsAuthorized(t.Context(), tt.userID))
			assert.Equal(t, tt.wantCalls, resolver.calls)
		})
	}
}

func TestAuthorizer_Middleware(t *testing.T) {
	a := &Authorizer{owner: 1, allowed: []string{"friends"}, resolver: &mockResolver{
		result: usergroup.Result{IDs: []int64{5}},
	}}
	mw := a.Middleware()

	tests := []struct {
		name string
		msg  *domain.Message
		kind registry.Kind
		want bool
	}{
		{name: "outgoing", msg: &domain.Message{Outgoing: true, Sender: domain.User{ID: 1}}, kind: registry.KindCommand, want: true},
		{name: "allowed user", msg: &domain.Message{Sender: domain.User{ID: 5}}, kind: registry.KindCommand, want: true},
		{name: "stranger", msg: &domain.Message{Sender: domain.User{ID: 9}}, kind: registry.KindCommand},
		{name: "stranger firing a hook", msg: &domain.Message{Sender: domain.User{ID: 9}}, kind: registry.KindHook, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			err := mw(context.Background(), invocation(tt.msg, tt.kind, &mockSender{}), reached(&called))

			require.NoError(t, err)
			assert.Equal(t, tt.want, called)
		})
	}
}
