// Package operations implements the single failure type surfaced by peer
// operations and the Operation Result Adapter: a tagged variant over
// Accept/Connect/Push/Pop results, plus the synchronous projection of each
// onto a (descriptor, outcome) pair.
package operations
