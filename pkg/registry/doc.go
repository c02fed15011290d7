// Package registry collects the operations and containers a process serves
// and resolves protocol function names across all of them.
package registry
