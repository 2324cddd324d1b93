// Package retry implements bounded exponential backoff as an explicit state machine.
//
// A Tracker moves Ready -> Waiting -> Ready for each retryable failure and ends
// in Succeeded, Exhausted or Aborted. Sleep and jitter are injectable so bounds
// can be tested without waiting.
package retry
