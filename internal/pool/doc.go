// Package pool provides reusable byte chunks for the streaming paths.
//
// Ranged downloads read every response body through a chunk buffer and the
// asynchronous sinks copy every accepted write; pooling those chunks keeps
// steady-state downloads allocation free.
package pool
