// Package task defines the static task registry of the dispatcher.
//
// A Registry is immutable once built. Construction validates the whole
// prerequisite graph so a malformed registry is rejected before any command
// runs. Resolve expands a task into its prerequisites followed by the task
// itself, in declaration order, running shared prerequisites once.
package task
