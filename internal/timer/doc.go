// Package timer combines a meter with a distribution accumulator to track
// both how often an operation runs and how long it takes.
package timer
