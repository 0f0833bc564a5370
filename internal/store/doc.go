// Package store records which hardware has already triggered a notification.
//
// This package is internal to sysmon. The [NotifiedSet] lives for the
// lifetime of the process: it starts empty, only grows, and is never written
// to disk, so a restart may notify again for hardware that is still in stock.
//
// [NotifiedSet] satisfies the sysmon.NotifiedStore interface the monitor
// depends on. It is safe for concurrent access so that check callbacks
// running outside the polling loop can inspect the set.
package store
