// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhe

import (
	"sync"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/luxfi/math/set"
)

type grant struct {
	contract common.Address
	account  common.Address
}

// ACL records which (contract, account) pairs may decrypt a ciphertext and
// which ciphertexts are public.
type ACL struct {
	lock   sync.RWMutex
	grants map[ids.ID]set.Set[grant]
	public set.Set[ids.ID]
}

func NewACL() *ACL {
	return &ACL{
		grants: make(map[ids.ID]set.Set[grant]),
		public: set.NewSet[ids.ID](0),
	}
}

// Allow lets account decrypt handle through contract.
func (a *ACL) Allow(handle ids.ID, contract, account common.Address) {
	a.lock.Lock()
	defer a.lock.Unlock()

	g, ok := a.grants[handle]
	if !ok {
		g = set.NewSet[grant](1)
		a.grants[handle] = g
	}
	g.Add(grant{contract: contract, account: account})
}

// Revoke removes a grant made by Allow.
func (a *ACL) Revoke(handle ids.ID, contract, account common.Address) {
	a.lock.Lock()
	defer a.lock.Unlock()

	g, ok := a.grants[handle]
	if !ok {
		return
	}
	g.Remove(grant{contract: contract, account: account})
	if g.Len() == 0 {
		delete(a.grants, handle)
	}
}

// MakePublic marks handle as decryptable without authorization.
func (a *ACL) MakePublic(handle ids.ID) {
	a.lock.Lock()
	a.public.Add(handle)
	a.lock.Unlock()
}

func (a *ACL) IsPublic(handle ids.ID) bool {
	a.lock.RLock()
	defer a.lock.RUnlock()
	return a.public.Contains(handle)
}

func (a *ACL) IsAllowed(handle ids.ID, contract, account common.Address) bool {
	a.lock.RLock()
	defer a.lock.RUnlock()
	return a.grants[handle].Contains(grant{contract: contract, account: account})
}
