// Package authz holds the static authorization policy: a table mapping
// (role, action) to allowed. Every mutation in the system consults it
// before touching the store; ownership checks stay in the services
// because they need data the table cannot see.
package authz

import "github.com/iota-uz/pims/pkg/serrors"

type Action string

var ErrForbidden = serrors.NewError("AUTHZ_FORBIDDEN", "permission denied")

type rule struct {
	role   string
	action Action
}

type Policy struct {
	allowed map[rule]struct{}
}

func New() *Policy {
	return &Policy{allowed: make(map[rule]struct{})}
}

// Grant allows a role to perform the given actions.
func (p *Policy) Grant(role string, actions ...Action) *Policy {
	for _, action := range actions {
		p.allowed[rule{role: role, action: action}] = struct{}{}
	}
	return p
}

func (p *Policy) Allow(role string, action Action) bool {
	_, ok := p.allowed[rule{role: role, action: action}]
	return ok
}

// Enforce returns ErrForbidden carrying the denied action when the
// role is not allowed to perform it.
func (p *Policy) Enforce(role string, action Action) error {
	if p.Allow(role, action) {
		return nil
	}
	return ErrForbidden.WithMessage("role %q may not %s", role, action)
}
