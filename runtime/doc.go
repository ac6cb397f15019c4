// Package runtime implements the Noice ledger runtime: accounts,
// signed transactions, native program dispatch, and confirmed
// transaction records.
//
// The runtime is deliberately single-node and synchronous. Execute
// verifies signatures, stages all account mutations, runs each
// instruction through its program processor, and either commits the
// whole transaction or rolls it back. There is no gossip, consensus,
// or fee market; programs are native Go processors registered at
// genesis.
package runtime
