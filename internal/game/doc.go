// Package game implements the rules of a settlers-style board game for a
// single room.
//
// The main type is Engine, which owns a State and the per-room services that
// mutate it: Bank (supply, loot and payments), Trades (negotiations and
// single-shot transfers), Turns (phase and turn progression) and, for the
// expansion, WallKeeper (guards and wildlings).
//
// # Basic Usage
//
//	rng := randutil.New(42)
//	e, err := game.NewEngine(game.BaseVariant(), rng, game.WithLogger(logger))
//	e.AddPlayer("alice", "Alice", false)
//	e.AddPlayer("bob", "Bob", true)
//	e.StartGame()
//	err = e.Apply("alice", game.Action{Type: game.ActionRollDice})
//
// Every rule violation is returned as an error wrapping ErrIllegalAction and
// leaves the state as it was. Rooms log and drop those.
//
// # Resource conservation
//
// Resources only move between the bank, hands, loot piles and staged trade
// offers. State.CheckConservation verifies the totals; tests call it after
// every scenario.
//
// The engine is not safe for concurrent use. A room serialises all calls
// through its mailbox.
package game
