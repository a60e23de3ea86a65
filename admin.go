package subledger

import (
	"context"

	"github.com/xraph/subledger/event"
	"github.com/xraph/subledger/store"
	"github.com/xraph/subledger/types"
)

// Administrator returns the account allowed to change the registry, prices,
// fees and metadata.
func (l *Ledger) Administrator(_ context.Context) types.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.administrator
}

// TransferAdministration hands the administrator role to next.
func (l *Ledger) TransferAdministration(ctx context.Context, caller, next types.Address) error {
	l.mu.Lock()
	if err := l.requireAdministrator(caller); err != nil {
		l.mu.Unlock()
		return err
	}
	if next == types.ZeroAddress {
		l.mu.Unlock()
		return ErrInvalidAddress
	}
	if err := l.store.PutSetting(ctx, store.SettingAdministrator, next.Hex()); err != nil {
		l.mu.Unlock()
		return err
	}
	prev := l.administrator
	l.administrator = next
	l.mu.Unlock()

	l.logger.Info("administration transferred",
		"previous", prev.Hex(),
		"next", next.Hex(),
	)
	l.plugins.EmitAdministrationTransferred(ctx, &event.AdministrationTransferred{
		Previous: prev,
		Next:     next,
	})
	return nil
}
