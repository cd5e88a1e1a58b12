// Package papertrade implements the ledger and order-execution engine of a
// stock trading simulator.
//
// A user holds a Ledger: a cash balance, starting at StartingCash, and a set
// of whole-share positions with their average cost. Orders are executed
// against externally supplied market prices:
//   - Execute validates an Order against a Ledger and returns the new Ledger
//     or a *Rejection. It is a pure function: no I/O, no locking, and the
//     input ledger is never modified.
//   - Value computes the market value of a Ledger from caller supplied Quotes,
//     reporting symbols without a price as unavailable rather than worthless.
//
// All amounts are exact decimals: average costs are recomputed on every
// partial fill and binary floating point would drift.
//
// Persistence and market data are collaborators described by the Store,
// Journal and PriceSource interfaces; implementations live in sub packages
// and the trader package composes them with the engine.
package papertrade
