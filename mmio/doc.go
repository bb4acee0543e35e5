// Package mmio implements flash.Peripheral with direct volatile accesses to
// memory-mapped registers. Every access is a single aligned 32-bit load or
// store, which is what the flash controller requires for double-word
// programming.
package mmio
