package rpc

import (
	"context"

	"github.com/armorclaw/bridge/pkg/vault"
	"github.com/armorclaw/bridge/pkg/vaultcrypto"
)

func init() {
	registerMethod("health_check", handleHealthCheck)
	registerMethod("validate_password", handleValidatePassword)
	registerMethod("is_first_run", handleIsFirstRun)
	registerMethod("is_locked", handleIsLocked)
	registerMethod("setup_master_password", handleSetupMasterPassword)
	registerMethod("unlock", handleUnlock)
	registerMethod("lock", handleLock)
	registerMethod("reset_database", handleResetDatabase)
}

func handleHealthCheck(s *Server, req *Request) *Response {
	return ok(req, map[string]interface{}{"status": "healthy"})
}

func handleValidatePassword(s *Server, req *Request) *Response {
	var params struct {
		Password string `json:"password"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return resp
	}

	result := vaultcrypto.ScorePassword(params.Password)
	return ok(req, map[string]interface{}{
		"score":    result.Score,
		"is_valid": result.IsValid,
		"feedback": result.Feedback,
	})
}

func handleIsFirstRun(s *Server, req *Request) *Response {
	firstRun, err := s.store.IsFirstRun()
	if err != nil {
		return errFromErr(req, err)
	}
	return ok(req, map[string]interface{}{"is_first_run": firstRun})
}

func handleIsLocked(s *Server, req *Request) *Response {
	return ok(req, map[string]interface{}{"locked": s.vault.State() != vault.StateUnlocked})
}

func handleSetupMasterPassword(s *Server, req *Request) *Response {
	var params struct {
		Password string `json:"password"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return resp
	}

	if err := s.vault.SetupMasterPassword(context.Background(), params.Password); err != nil {
		return errFromErr(req, err)
	}
	return ok(req, map[string]interface{}{"status": "ok"})
}

func handleUnlock(s *Server, req *Request) *Response {
	var params struct {
		Password string `json:"password"`
	}
	if resp := decodeParams(req, &params); resp != nil {
		return resp
	}

	result, err := s.vault.Unlock(context.Background(), params.Password)
	if err != nil {
		return errFromErr(req, err)
	}
	return ok(req, map[string]interface{}{
		"outcome":      result.Outcome.String(),
		"wait_seconds": result.WaitSeconds,
	})
}

func handleLock(s *Server, req *Request) *Response {
	s.vault.Lock(context.Background())
	return ok(req, map[string]interface{}{"status": "locked"})
}

func handleResetDatabase(s *Server, req *Request) *Response {
	if err := s.vault.ResetDatabase(context.Background()); err != nil {
		return errFromErr(req, err)
	}
	return ok(req, map[string]interface{}{"status": "reset"})
}
