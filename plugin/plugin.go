// Package plugin loads native sensor plugins behind a capability
// interface. The rest of the runtime depends only on Handle and
// TryLoad, never on the loading mechanism.
package plugin

import (
	"os"
	goplugin "plugin"

	"github.com/mindloop/cortex/logger"
)

// Handle is an opaque reference to a loaded plugin.
type Handle interface {
	// Name returns the path the plugin was loaded from.
	Name() string

	// Lookup resolves an exported symbol.
	Lookup(symbol string) (any, error)
}

// TryLoad attempts to load the plugin at path. A missing file or a
// load error is reported to log and returned as an absent handle;
// neither is ever raised to the caller.
func TryLoad(path string, log *logger.Logger) (Handle, bool) {
	if _, err := os.Stat(path); err != nil {
		log.Warnf("[PLUGIN] plugin file %s not found", path)
		return nil, false
	}

	log.Infof("[PLUGIN] loading plugin: %s", path)
	p, err := goplugin.Open(path)
	if err != nil {
		log.Errorf("[PLUGIN] error loading plugin %s: %v", path, err)
		return nil, false
	}
	return &nativeHandle{path: path, plugin: p}, true
}

type nativeHandle struct {
	path   string
	plugin *goplugin.Plugin
}

func (h *nativeHandle) Name() string {
	return h.path
}

func (h *nativeHandle) Lookup(symbol string) (any, error) {
	return h.plugin.Lookup(symbol)
}
