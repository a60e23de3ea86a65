package subledger

import (
	"context"
	"fmt"

	"github.com/xraph/subledger/event"
	"github.com/xraph/subledger/token"
	"github.com/xraph/subledger/types"
)

// ──────────────────────────────────────────────────
// Payment token registry
// ──────────────────────────────────────────────────

// SetAllowedToken enables or disables a fungible payment token.
func (l *Ledger) SetAllowedToken(ctx context.Context, caller, tok types.Address, allowed bool) error {
	l.mu.Lock()
	if err := l.requireAdministrator(caller); err != nil {
		l.mu.Unlock()
		return err
	}
	if tok == types.ZeroAddress {
		l.mu.Unlock()
		return ErrInvalidToken
	}

	r := &token.Registration{
		Entity:  types.NewEntityAt(l.now()),
		Token:   tok,
		Allowed: allowed,
	}
	err := l.store.SetTokenAllowed(ctx, r)
	l.mu.Unlock()
	if err != nil {
		return fmt.Errorf("subledger: set allowed token: %w", err)
	}

	l.logger.Info("allowed token changed",
		"token", tok.Hex(),
		"allowed", allowed,
	)
	l.plugins.EmitAllowedTokenChanged(ctx, &event.AllowedTokenChanged{
		Token:   tok,
		Allowed: allowed,
	})
	return nil
}

// AllowedToken returns the registry state of tok.
func (l *Ledger) AllowedToken(ctx context.Context, tok types.Address) (token.State, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tokenState(ctx, tok)
}

// AllowedTokenList returns every registered token, enabled or not, in
// registration order.
func (l *Ledger) AllowedTokenList(ctx context.Context) ([]*token.Registration, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.ListTokenRegistrations(ctx)
}

func (l *Ledger) tokenState(ctx context.Context, tok types.Address) (token.State, error) {
	r, err := l.store.GetTokenRegistration(ctx, tok)
	if err != nil {
		if IsNotFound(err) {
			return token.StateNotRegistered, nil
		}
		return "", err
	}
	return token.StateOf(r), nil
}

// requireEnabled gates pricing and payment in tok. NotRegistered and
// Disabled are reported alike.
func (l *Ledger) requireEnabled(ctx context.Context, tok types.Token) error {
	if tok.IsNative() {
		return nil
	}
	state, err := l.tokenState(ctx, tok.Address())
	if err != nil {
		return err
	}
	if !state.IsEnabled() {
		return fmt.Errorf("%w: %s is %s", ErrUnregisteredToken, tok, state)
	}
	return nil
}

// requireRegistered accepts enabled and disabled tokens.
func (l *Ledger) requireRegistered(ctx context.Context, tok types.Token) error {
	if tok.IsNative() {
		return nil
	}
	state, err := l.tokenState(ctx, tok.Address())
	if err != nil {
		return err
	}
	if state == token.StateNotRegistered {
		return fmt.Errorf("%w: %s", ErrUnregisteredToken, tok)
	}
	return nil
}
