// Package ballotengine implements the proposal/voting engine inside the
// community-governance context.
//
// The module owns the proposal lifecycle (create, vote, close), the weighted
// tally with winner/tie/no-votes resolution, advisory quorum evaluation, and
// the deadline sweep that auto-closes expired proposals. Result publication
// goes through an outbox so a closed proposal is announced exactly once.
package ballotengine
