// Package biz connects the input plugins to the output plugins.
// It owns the record flow: read from every input concurrently, run the
// filter chain and the rate limiter, then fan out to every output.
package biz

import (
	"io"
	"sync"

	"github.com/pkg/errors"
	slog "github.com/vearne/simplelog"
	"github.com/westhule/combatcap/consts"
	"github.com/westhule/combatcap/filter"
)

// Emitter represents an abject to manage plugins communication
type Emitter struct {
	sync.WaitGroup
	plugins     *InOutPlugins
	filterChain filter.Filter
	limiter     Limiter
}

// NewEmitter creates and initializes new Emitter object.
func NewEmitter(f filter.Filter, lim Limiter) *Emitter {
	var e Emitter
	e.filterChain = f
	e.limiter = lim
	return &e
}

// Start initialize loop for sending data from inputs to outputs
func (e *Emitter) Start(plugins *InOutPlugins) {
	e.plugins = plugins
	for _, in := range plugins.Inputs {
		e.Add(1)
		go func(in PluginReader) {
			defer e.Done()
			if err := e.CopyMulty(in, plugins.Outputs...); err != nil {
				slog.Debug("[EMITTER] error during copy: %q", err)
			}
		}(in)
	}
}

// Close closes all the goroutine and waits for it to finish.
func (e *Emitter) Close() {
	if e.plugins == nil {
		return
	}
	for _, p := range e.plugins.All {
		if cp, ok := p.(io.Closer); ok {
			cp.Close()
		}
	}
	if len(e.plugins.All) > 0 {
		// wait for everything to stop
		e.Wait()
	}
	e.plugins.All = nil // avoid Close to make changes again
}

// CopyMulty copies from 1 reader to multiple writers
func (e *Emitter) CopyMulty(src PluginReader, writers ...PluginWriter) error {
	for {
		rec, err := src.PluginRead()
		if err != nil {
			if errors.Is(err, consts.ErrReadingStopped) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if rec == nil {
			continue
		}

		rec, ok := e.filterChain.Filter(rec)
		if !ok {
			continue
		}

		if e.limiter != nil && !e.limiter.Allow() {
			continue
		}

		for _, dst := range writers {
			if _, err = dst.PluginWrite(rec); err != nil {
				slog.Error("PluginWrite:%v", err)
			}
		}
	}
}
