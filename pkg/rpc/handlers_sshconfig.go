package rpc

import (
	"github.com/armorclaw/bridge/pkg/sshconfig"
)

func init() {
	registerMethod("parse_ssh_config", handleParseSSHConfig)
	registerMethod("import_ssh_config_entries", handleImportSSHConfigEntries)
	registerMethod("get_default_ssh_config_path", handleGetDefaultSSHConfigPath)
}

func handleParseSSHConfig(s *Server, req *Request) *Response {
	var params struct {
		Path string `json:"path"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return resp
	}
	path := params.Path
	if path == "" {
		path = sshconfig.DefaultPath()
	}

	entries, err := sshconfig.Parse(path)
	if err != nil {
		return errorResponse(req.ID, codeInternalError, err.Error())
	}

	out := make([]map[string]interface{}, len(entries))
	for i, e := range entries {
		out[i] = map[string]interface{}{
			"host":                  e.Host,
			"hostname":              e.Hostname,
			"user":                  e.User,
			"port":                  e.Port,
			"identity_file":         e.IdentityFile,
			"server_alive_interval": e.ServerAliveInterval,
			"preview":               e.Preview(),
		}
	}
	return ok(req, out)
}

func handleImportSSHConfigEntries(s *Server, req *Request) *Response {
	var params struct {
		Path  string   `json:"path"`
		Hosts []string `json:"hosts"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return resp
	}
	path := params.Path
	if path == "" {
		path = sshconfig.DefaultPath()
	}

	entries, err := sshconfig.Parse(path)
	if err != nil {
		return errorResponse(req.ID, codeInternalError, err.Error())
	}

	wanted := make(map[string]bool, len(params.Hosts))
	for _, h := range params.Hosts {
		wanted[h] = true
	}

	var imported []map[string]interface{}
	for _, e := range entries {
		if len(wanted) > 0 && !wanted[e.Host] {
			continue
		}
		conn, err := s.connections.Create(e.ToConnectionInput())
		if err != nil {
			return errFromErr(req, err)
		}
		imported = append(imported, connectionResult(conn))
	}
	return ok(req, imported)
}

func handleGetDefaultSSHConfigPath(s *Server, req *Request) *Response {
	return ok(req, map[string]interface{}{"path": sshconfig.DefaultPath()})
}
