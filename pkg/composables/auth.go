package composables

import (
	"context"
	"errors"

	"github.com/iota-uz/pims/modules/core/domain/aggregates/user"
	"github.com/iota-uz/pims/pkg/constants"
)

var (
	ErrNoUserFound = errors.New("no user found in context")
)

// WithUser returns a new context with the authenticated user attached.
func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, constants.UserKey, u)
}

// UseUser returns the authenticated user from the context.
func UseUser(ctx context.Context) (user.User, error) {
	u, ok := ctx.Value(constants.UserKey).(user.User)
	if !ok {
		return nil, ErrNoUserFound
	}
	return u, nil
}
