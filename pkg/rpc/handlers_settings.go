package rpc

import "database/sql"

func init() {
	registerMethod("get_setting", handleGetSetting)
	registerMethod("set_setting", handleSetSetting)
	registerMethod("get_all_settings", handleGetAllSettings)
}

func handleGetSetting(s *Server, req *Request) *Response {
	var params struct {
		Key string `json:"key"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return resp
	}

	value, err := s.store.GetSetting(params.Key)
	if err == sql.ErrNoRows {
		return ok(req, map[string]interface{}{"value": nil})
	}
	if err != nil {
		return errorResponse(req.ID, codeInternalError, err.Error())
	}
	return ok(req, map[string]interface{}{"value": value})
}

func handleSetSetting(s *Server, req *Request) *Response {
	var params struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return resp
	}

	if err := s.store.SetSetting(params.Key, params.Value); err != nil {
		return errorResponse(req.ID, codeInternalError, err.Error())
	}
	return ok(req, map[string]interface{}{"status": "ok"})
}

func handleGetAllSettings(s *Server, req *Request) *Response {
	all, err := s.store.GetAllSettings()
	if err != nil {
		return errorResponse(req.ID, codeInternalError, err.Error())
	}
	return ok(req, all)
}
