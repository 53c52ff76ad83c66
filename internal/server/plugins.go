package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/joshp123/findmy/internal/core"
)

// PluginsHandler serves the plugin registry as JSON: /plugins lists every
// plugin, /plugins/{id} describes one.
func PluginsHandler(registry *core.RegistryService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/plugins"), "/")
		if id == "" {
			writeJSON(w, registry.ListPlugins())
			return
		}

		plugin, ok := registry.DescribePlugin(id)
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, plugin)
	})
}

func writeJSON(w http.ResponseWriter, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
