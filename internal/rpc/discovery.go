// ABOUTME: Static capability document served on GET for agent discovery.
// ABOUTME: Composition of the tool registry only; carries no secrets.

package rpc

import (
	"encoding/json"
	"net/http"
)

// discoveryDocument is the capability document returned on GET /mcp.
type discoveryDocument struct {
	Name           string            `json:"name"`
	Version        string            `json:"version"`
	Description    string            `json:"description"`
	Tools          []toolInfo        `json:"tools"`
	Authentication discoveryAuthInfo `json:"authentication"`
}

type discoveryAuthInfo struct {
	Type        string `json:"type"`
	Header      string `json:"header"`
	Description string `json:"description"`
}

// handleDiscovery serves the capability document. Stateless: everything is
// derived from the registry and compile-time identity constants.
func (s *Server) handleDiscovery(w http.ResponseWriter, _ *http.Request) {
	defs := s.registry.Definitions()
	infos := make([]toolInfo, len(defs))
	for i, def := range defs {
		infos[i] = toolInfo{
			Name:        def.Name,
			Description: def.Description,
			Scope:       string(def.Scope),
			InputSchema: def.InputSchema(),
		}
	}

	doc := discoveryDocument{
		Name:        ServerName,
		Version:     ServerVersion,
		Description: ServerDescription,
		Tools:       infos,
		Authentication: discoveryAuthInfo{
			Type:        "api_key",
			Header:      "Authorization",
			Description: "Bearer API key (qbk_...). Callers that cannot set headers may pass the key as an api_key tool argument instead.",
		},
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		s.logger.Warn("failed to encode discovery document", "error", err)
	}
}
