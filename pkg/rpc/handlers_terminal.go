package rpc

import (
	"context"
	"os"

	"github.com/armorclaw/bridge/pkg/connections"
	"github.com/armorclaw/bridge/pkg/localsession"
	"github.com/armorclaw/bridge/pkg/sessionregistry"
)

func init() {
	registerMethod("connect_terminal", handleConnectTerminal)
	registerMethod("connect_local_terminal", handleConnectLocalTerminal)
	registerMethod("get_installed_shells", handleGetInstalledShells)
	registerMethod("quick_ssh_connect", handleQuickSSHConnect)
	registerMethod("send_terminal_input", handleSendTerminalInput)
	registerMethod("resize_terminal", handleResizeTerminal)
	registerMethod("disconnect_terminal", handleDisconnectTerminal)
	registerMethod("list_terminal_sessions", handleListTerminalSessions)
}

func handleConnectTerminal(s *Server, req *Request) *Response {
	var params struct {
		ConnectionID string `json:"connection_id"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return resp
	}

	sessionID, err := s.sessions.CreateSSH(context.Background(), params.ConnectionID)
	if err != nil {
		return errFromErr(req, err)
	}
	return ok(req, map[string]interface{}{"session_id": sessionID})
}

func handleConnectLocalTerminal(s *Server, req *Request) *Response {
	var params struct {
		Shell string `json:"shell,omitempty"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return resp
	}

	sessionID, err := s.sessions.CreateLocal(context.Background(), params.Shell)
	if err != nil {
		return errFromErr(req, err)
	}
	return ok(req, map[string]interface{}{"session_id": sessionID})
}

func handleGetInstalledShells(s *Server, req *Request) *Response {
	var params struct {
		Paths []string `json:"paths,omitempty"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return resp
	}

	if len(params.Paths) == 0 {
		return ok(req, localsession.InstalledShells())
	}

	var found []string
	for _, p := range params.Paths {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			found = append(found, p)
		}
	}
	return ok(req, found)
}

func handleQuickSSHConnect(s *Server, req *Request) *Response {
	var params struct {
		Host              string                 `json:"host"`
		Port              int                    `json:"port"`
		Username          string                 `json:"username"`
		Auth              connections.AuthMethod `json:"auth_method"`
		KeepAlive         *string                `json:"keep_alive,omitempty"`
		KeepAliveInterval *int                   `json:"keep_alive_interval,omitempty"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return resp
	}

	sessionID, err := s.sessions.CreateQuickSSH(context.Background(), sessionregistry.QuickSSHParams{
		Hostname:          params.Host,
		Port:              params.Port,
		Username:          params.Username,
		Auth:              params.Auth,
		KeepAliveOverride: params.KeepAlive,
		KeepAliveInterval: params.KeepAliveInterval,
	})
	if err != nil {
		return errFromErr(req, err)
	}
	return ok(req, map[string]interface{}{"session_id": sessionID})
}

func handleSendTerminalInput(s *Server, req *Request) *Response {
	var params struct {
		SessionID string `json:"session_id"`
		Bytes     []byte `json:"bytes"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return resp
	}

	if err := s.sessions.SendInput(params.SessionID, params.Bytes); err != nil {
		return errFromErr(req, err)
	}
	return ok(req, map[string]interface{}{"status": "ok"})
}

func handleResizeTerminal(s *Server, req *Request) *Response {
	var params struct {
		SessionID string `json:"session_id"`
		Cols      int    `json:"cols"`
		Rows      int    `json:"rows"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return resp
	}

	if err := s.sessions.Resize(params.SessionID, params.Cols, params.Rows); err != nil {
		return errFromErr(req, err)
	}
	return ok(req, map[string]interface{}{"status": "ok"})
}

func handleDisconnectTerminal(s *Server, req *Request) *Response {
	var params struct {
		SessionID string `json:"session_id"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return resp
	}

	if err := s.sessions.Close(params.SessionID); err != nil {
		return errFromErr(req, err)
	}
	return ok(req, map[string]interface{}{"status": "disconnected"})
}

func handleListTerminalSessions(s *Server, req *Request) *Response {
	sessions := s.sessions.List()
	out := make([]map[string]interface{}, len(sessions))
	for i, sess := range sessions {
		out[i] = map[string]interface{}{
			"id":            sess.ID,
			"kind":          sess.Kind,
			"connection_id": sess.ConnectionID,
		}
	}
	return ok(req, out)
}
