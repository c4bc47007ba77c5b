package rpc

import "github.com/armorclaw/bridge/pkg/theme"

func init() {
	registerMethod("load_theme", handleLoadTheme)
	registerMethod("list_themes", handleListThemes)
}

func handleLoadTheme(s *Server, req *Request) *Response {
	var params struct {
		Name string `json:"name"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return resp
	}

	t, err := theme.Load(params.Name)
	if err != nil {
		return errFromErr(req, err)
	}
	return ok(req, t)
}

func handleListThemes(s *Server, req *Request) *Response {
	return ok(req, theme.List())
}
