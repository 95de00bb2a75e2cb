// Package ballot holds the single-owner ballot: the workflow state machine, the
// voter and proposal registries, the ballot box and the tally.
//
// Every operation takes the caller address and runs against one State record.
// All checks happen before any mutation, so a failed operation leaves the record
// exactly as it was. Successful mutating operations return the event they emit.
package ballot
