// Package subledger provides a subscription-asset issuance and renewal ledger
// for Go applications.
//
// Subledger is designed as a library, not a service. It mints numbered
// subscription assets, tracks a per-asset expiration and lets callers pay in
// the native currency or any enabled fungible token to mint new assets or
// extend existing ones. It provides:
//
//   - A payment token registry with distinct not-registered and disabled states
//   - Per-beneficiary unit prices with a default fallback
//   - Per-token protocol fees collected by a single administrator
//   - Checked 256-bit arithmetic on every price, fee and total
//   - All-or-nothing settlement through a pluggable payment gateway
//   - Audit and metrics plugins, and a Forge extension
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/subledger"
//	    "github.com/xraph/subledger/payment/memory"
//	    storemem "github.com/xraph/subledger/store/memory"
//	)
//
//	bank := memory.New()
//	l := subledger.New(storemem.New(), bank,
//	    subledger.WithAdministrator(admin),
//	    subledger.WithAccount(ledgerAccount),
//	)
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Pricing
//
// The administrator sets fees and prices; any account may set its own
// direction price as a beneficiary:
//
//	_ = l.SetFeeNative(ctx, admin, subledger.MustParseAmount("10000000000000000"))
//	_ = l.SetPriceNative(ctx, admin, subledger.ZeroAddress, subledger.MustParseAmount("1000000000000000000"))
//	_ = l.SetPriceByDirectionNative(ctx, creator, subledger.MustParseAmount("2000000000000000000"))
//
// A quote is fee*units + price*units. The price is the beneficiary's own
// entry when one has been set, even to zero, else the default entry.
//
// # Purchases
//
//	res, err := l.Mint(ctx, buyer, creator, 1, offered)
//	res, err = l.Extend(ctx, buyer, res.AssetID, 2, offered)
//
// Native payments draw only the quoted total; any excess offered is returned
// in Result.Refund. Token payments draw against the allowance the buyer
// granted the ledger account. If the gateway refuses the settlement, the
// asset write is undone and the purchase fails.
//
// # Identifiers
//
// Assets are numbered from 1. Receipts and settlements use TypeIDs:
//
//	rcpt_01h2xcejqtf2nbrexx3vqjhp41  // Receipt ID
//	stl_01h455vb4pex5vsknk084sn02q   // Settlement ID
package subledger
