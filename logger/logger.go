// Package logger is the diagnostic sink of the stack. Output is grouped
// into subsystem masks so that noisy layers can be silenced one by one;
// a message is only formatted when its mask is enabled.
//
//	logger.SetFlags(logger.ROUTE | logger.ARP)
//	logger.GetInstance().Info(logger.ROUTE, func() {
//		log.Printf("no match for %s", addr)
//	})
package logger

import (
	"log"
	"strings"
	"sync"
)

const (
	// ETH covers link-layer events: device bring-up, frame reads.
	ETH = 1 << iota
	// ARP covers address-resolution frames.
	ARP
	// IP covers IPv4/IPv6 frame handling.
	IP
	// ROUTE covers endpoint registration and lookup diagnostics.
	ROUTE
)

type logger struct {
	flags uint8
}

var instance *logger
var once sync.Once

// GetInstance returns the process-wide logger.
func GetInstance() *logger {
	once.Do(func() {
		instance = &logger{}
	})
	return instance
}

// SetFlags selects which subsystem masks produce output.
func SetFlags(flags uint8) {
	GetInstance().flags = flags
}

// Info runs f when the given mask is enabled. The closure keeps the
// formatting cost off every disabled call site.
func (l *logger) Info(mask uint8, f func()) {
	if mask&l.flags != 0 {
		f()
	}
}

// NOTICE logs unconditionally. Reserved for conditions an operator should
// see regardless of mask configuration, such as duplicate registrations.
func NOTICE(msg string, v ...string) {
	log.Printf("NOTICE: %s", msg+" "+strings.Join(v, " "))
}
