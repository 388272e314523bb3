package biz

import "github.com/westhule/combatcap/record"

// PluginReader is an interface for input plugins
type PluginReader interface {
	PluginRead() (rec *record.Record, err error)
}

// PluginWriter is an interface for output plugins
type PluginWriter interface {
	PluginWrite(rec *record.Record) (n int, err error)
}

// Limiter restricts how many records per second reach the outputs.
// Records rejected by Allow are dropped, not queued.
type Limiter interface {
	Allow() bool
}
