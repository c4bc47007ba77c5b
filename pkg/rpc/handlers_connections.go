package rpc

import (
	"context"

	"github.com/armorclaw/bridge/pkg/connections"
	"github.com/armorclaw/bridge/pkg/vaultstore"
)

func init() {
	registerMethod("create_connection", handleCreateConnection)
	registerMethod("get_all_connections", handleGetAllConnections)
	registerMethod("get_connection", handleGetConnection)
	registerMethod("update_connection", handleUpdateConnection)
	registerMethod("delete_connection", handleDeleteConnection)
	registerMethod("get_connections_by_folder", handleGetConnectionsByFolder)
	registerMethod("count_saved_connections", handleCountSavedConnections)
}

type connectionParams struct {
	Name              string                 `json:"name"`
	Hostname          string                 `json:"hostname"`
	Port              int                    `json:"port"`
	Username          string                 `json:"username"`
	Auth              connections.AuthMethod `json:"auth"`
	Color             *string                `json:"color,omitempty"`
	Icon              *string                `json:"icon,omitempty"`
	Folder            *string                `json:"folder,omitempty"`
	Notes             *string                `json:"notes,omitempty"`
	KeepAlive         *string                `json:"keep_alive,omitempty"`
	KeepAliveInterval *int                   `json:"keep_alive_interval,omitempty"`
}

func handleCreateConnection(s *Server, req *Request) *Response {
	var params connectionParams
	if resp := decodeParams(req, &params); resp != nil {
		return resp
	}

	conn, err := s.connections.Create(connections.NewConnectionInput{
		Name:              params.Name,
		Protocol:          "ssh",
		Hostname:          params.Hostname,
		Port:              params.Port,
		Username:          params.Username,
		Auth:              params.Auth,
		Color:             params.Color,
		Icon:              params.Icon,
		Folder:            params.Folder,
		Notes:             params.Notes,
		KeepAlive:         params.KeepAlive,
		KeepAliveInterval: params.KeepAliveInterval,
	})
	if err != nil {
		return errFromErr(req, err)
	}
	if s.securityLog != nil {
		s.securityLog.LogConnectionCreated(context.Background(), conn.ID)
	}
	return ok(req, connectionResult(conn))
}

func handleGetAllConnections(s *Server, req *Request) *Response {
	summaries, err := s.connections.GetAll()
	if err != nil {
		return errFromErr(req, err)
	}
	return ok(req, summaryResults(summaries))
}

func handleGetConnection(s *Server, req *Request) *Response {
	var params struct {
		ID string `json:"id"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return resp
	}

	conn, err := s.connections.Get(params.ID)
	if err != nil {
		return errFromErr(req, err)
	}
	if s.securityLog != nil {
		s.securityLog.LogConnectionRead(context.Background(), conn.ID)
	}
	return ok(req, connectionResult(conn))
}

func handleUpdateConnection(s *Server, req *Request) *Response {
	var params struct {
		ID string `json:"id"`
		connectionParams
		ClearKeepAlive         bool `json:"clear_keep_alive,omitempty"`
		ClearKeepAliveInterval bool `json:"clear_keep_alive_interval,omitempty"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return resp
	}

	input := connections.UpdateInput{
		Name:     nullIfEmpty(params.Name),
		Hostname: nullIfEmpty(params.Hostname),
		Username: nullIfEmpty(params.Username),
		Color:    params.Color,
		Icon:     params.Icon,
		Folder:   params.Folder,
		Notes:    params.Notes,
	}
	if params.Port != 0 {
		input.Port = &params.Port
	}
	if params.Auth.Kind != "" {
		input.Auth = &params.Auth
	}
	switch {
	case params.ClearKeepAlive:
		input.KeepAlive = vaultstore.OptionalField[string]{Set: true, Value: nil}
	case params.KeepAlive != nil:
		input.KeepAlive = vaultstore.OptionalField[string]{Set: true, Value: params.KeepAlive}
	}
	switch {
	case params.ClearKeepAliveInterval:
		input.KeepAliveInterval = vaultstore.OptionalField[int]{Set: true, Value: nil}
	case params.KeepAliveInterval != nil:
		input.KeepAliveInterval = vaultstore.OptionalField[int]{Set: true, Value: params.KeepAliveInterval}
	}

	conn, err := s.connections.Update(params.ID, input)
	if err != nil {
		return errFromErr(req, err)
	}
	if s.securityLog != nil {
		s.securityLog.LogConnectionUpdated(context.Background(), conn.ID)
	}
	return ok(req, connectionResult(conn))
}

func handleDeleteConnection(s *Server, req *Request) *Response {
	var params struct {
		ID string `json:"id"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return resp
	}

	if err := s.connections.Delete(params.ID); err != nil {
		return errFromErr(req, err)
	}
	if s.securityLog != nil {
		s.securityLog.LogConnectionDeleted(context.Background(), params.ID)
	}
	return ok(req, map[string]interface{}{"status": "deleted"})
}

func handleGetConnectionsByFolder(s *Server, req *Request) *Response {
	var params struct {
		Folder string `json:"folder"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return resp
	}

	summaries, err := s.connections.GetByFolder(params.Folder)
	if err != nil {
		return errFromErr(req, err)
	}
	return ok(req, summaryResults(summaries))
}

func handleCountSavedConnections(s *Server, req *Request) *Response {
	summaries, err := s.connections.GetAll()
	if err != nil {
		return errFromErr(req, err)
	}
	return ok(req, map[string]interface{}{"count": len(summaries)})
}

func connectionResult(c connections.Connection) map[string]interface{} {
	return map[string]interface{}{
		"id":                  c.ID,
		"name":                c.Name,
		"protocol":            c.Protocol,
		"hostname":            c.Hostname,
		"port":                c.Port,
		"username":            c.Username,
		"auth":                c.Auth,
		"color":               c.Color,
		"icon":                c.Icon,
		"folder":              c.Folder,
		"notes":               c.Notes,
		"keep_alive":          c.KeepAlive,
		"keep_alive_interval": c.KeepAliveInterval,
		"last_used_at":        c.LastUsedAt,
		"created_at":          c.CreatedAt,
		"updated_at":          c.UpdatedAt,
	}
}

func summaryResults(summaries []connections.Summary) []map[string]interface{} {
	out := make([]map[string]interface{}, len(summaries))
	for i, c := range summaries {
		out[i] = map[string]interface{}{
			"id":                  c.ID,
			"name":                c.Name,
			"protocol":            c.Protocol,
			"hostname":            c.Hostname,
			"port":                c.Port,
			"username":            c.Username,
			"auth_type":           c.AuthType,
			"color":               c.Color,
			"icon":                c.Icon,
			"folder":              c.Folder,
			"notes":               c.Notes,
			"keep_alive":          c.KeepAlive,
			"keep_alive_interval": c.KeepAliveInterval,
			"last_used_at":        c.LastUsedAt,
			"created_at":          c.CreatedAt,
			"updated_at":          c.UpdatedAt,
		}
	}
	return out
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
