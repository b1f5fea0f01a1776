// Package planner packs chunks into token-budgeted batches and drives their
// dispatch to the embedding collaborator.
//
// The planner is a bounded state machine per batch: accumulate until the
// token ceiling or batch size would overflow, seal, dispatch. A dispatcher
// rejection carrying ErrTokenLimitExceeded triggers halve-and-retry with the
// remainder requeued at the queue front; after the retry budget the batch is
// dispatched chunk by chunk and surviving failures are recorded. Source
// document order is preserved across batches.
package planner
