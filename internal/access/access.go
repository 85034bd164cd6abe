// Package access maps caller identities to pool capabilities.
package access

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ErrUnauthorized is returned when a caller lacks a role.
var ErrUnauthorized = errors.New("unauthorized")

// Role is a pool capability.
type Role string

const (
	RoleInitialize Role = "initialize"
	RolePool       Role = "pool"
	RoleBuy        Role = "buy"
	RoleSell       Role = "sell"
)

// Any grants a role to every caller.
var Any = common.HexToAddress("0xffffffffffffffffffffffffffffffffffffffff")

// Authorizer decides whether caller may act with role.
type Authorizer interface {
	Authorize(caller common.Address, role Role) error
}

// Policy is an in-memory role table.
type Policy struct {
	mu     sync.RWMutex
	grants map[Role]map[common.Address]struct{}
}

func NewPolicy() *Policy {
	return &Policy{grants: make(map[Role]map[common.Address]struct{})}
}

// DefaultPolicy restricts initialization to initializer and opens the
// pool, buy and sell roles to everyone.
func DefaultPolicy(initializer common.Address) *Policy {
	p := NewPolicy()
	p.Grant(RoleInitialize, initializer)
	p.Grant(RolePool, Any)
	p.Grant(RoleBuy, Any)
	p.Grant(RoleSell, Any)
	return p
}

// Grant gives role to who. Granting to Any opens the role.
func (p *Policy) Grant(role Role, who common.Address) {
	p.mu.Lock()
	defer p.mu.Unlock()
	set, ok := p.grants[role]
	if !ok {
		set = make(map[common.Address]struct{})
		p.grants[role] = set
	}
	set[who] = struct{}{}
}

// Revoke removes a grant.
func (p *Policy) Revoke(role Role, who common.Address) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.grants[role], who)
}

func (p *Policy) Authorize(caller common.Address, role Role) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	set := p.grants[role]
	if _, ok := set[Any]; ok {
		return nil
	}
	if _, ok := set[caller]; ok {
		return nil
	}
	return fmt.Errorf("%s lacks %s role: %w", caller.Hex(), role, ErrUnauthorized)
}

// AllowAll authorizes every caller for every role.
type AllowAll struct{}

func (AllowAll) Authorize(common.Address, Role) error { return nil }
