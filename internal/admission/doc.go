// Package admission implements offline admission control for fixed-priority
// preemptive periodic task sets with implicit deadlines (deadline = period).
//
// Tasks are evaluated one at a time in priority order. Each evaluation runs the
// Liu-Layland utilization bound test first and falls back to an exact
// response-time test when the bound is inconclusive. Only higher-priority tasks
// that were already accepted count as interference.
package admission
