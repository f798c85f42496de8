package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roach88/advcases/internal/abi"
	"github.com/roach88/advcases/internal/contract"
	"github.com/roach88/advcases/internal/dispatch"
	"github.com/roach88/advcases/internal/engine"
	"github.com/roach88/advcases/internal/ir"
	"github.com/roach88/advcases/internal/storage"
)

type instantiateRequest struct {
	Constructor string `json:"constructor"`
	Caller      string `json:"caller"`
}

type messageRequest struct {
	Args   ir.Object `json:"args"`
	Caller string    `json:"caller"`
}

type callDataRequest struct {
	Data   string `json:"data" binding:"required"`
	Tx     bool   `json:"tx"`
	Caller string `json:"caller"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getMetadata(c *gin.Context) {
	hash, err := s.metadata.Hash()
	if err != nil {
		writeError(c, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	writeValue(c, ir.Object{
		"hash":     ir.String(hash),
		"metadata": s.metadata.ToIR(),
	})
}

func (s *Server) getState(c *gin.Context) {
	cells, err := s.engine.Store().Cells(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, string(dispatch.ErrCodeStorageFailed), err.Error())
		return
	}
	st, err := contract.Snapshot(cells)
	if err != nil {
		writeError(c, http.StatusInternalServerError, string(dispatch.ErrCodeStorageFailed), err.Error())
		return
	}
	writeValue(c, ir.Object{
		"digest": ir.String(storage.StateDigest(cells)),
		"state":  st.ToIR(),
	})
}

func (s *Server) instantiate(c *gin.Context) {
	var req instantiateRequest
	if !bindOptional(c, &req) {
		return
	}
	caller, ok := s.resolveCaller(c, req.Caller)
	if !ok {
		return
	}
	receipt, err := s.engine.Instantiate(c.Request.Context(), caller, req.Constructor)
	s.respond(c, receipt, err)
}

func (s *Server) query(c *gin.Context) {
	s.message(c, false)
}

func (s *Server) transact(c *gin.Context) {
	s.message(c, true)
}

func (s *Server) message(c *gin.Context, tx bool) {
	var req messageRequest
	if !bindOptional(c, &req) {
		return
	}
	caller, ok := s.resolveCaller(c, req.Caller)
	if !ok {
		return
	}

	m, err := s.engine.Registry().Lookup(c.Param("message"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	input, err := m.EncodeArgs(req.Args)
	if err != nil {
		writeEngineError(c, err)
		return
	}

	var receipt *engine.Receipt
	if tx {
		receipt, err = s.engine.Transact(c.Request.Context(), caller, m.Label, input)
	} else {
		receipt, err = s.engine.Query(c.Request.Context(), caller, m.Label, input)
	}
	s.respond(c, receipt, err)
}

func (s *Server) callData(c *gin.Context) {
	var req callDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	caller, ok := s.resolveCaller(c, req.Caller)
	if !ok {
		return
	}
	data, err := engine.ParseHex(req.Data)
	if err != nil {
		writeError(c, http.StatusBadRequest, "BAD_REQUEST", "data: "+err.Error())
		return
	}
	receipt, err := s.engine.CallData(c.Request.Context(), caller, data, req.Tx)
	s.respond(c, receipt, err)
}

func (s *Server) respond(c *gin.Context, receipt *engine.Receipt, err error) {
	if err != nil {
		writeEngineError(c, err)
		return
	}
	obj, err := receipt.ToIR()
	if err != nil {
		writeEngineError(c, err)
		return
	}
	writeValue(c, obj)
}

func (s *Server) resolveCaller(c *gin.Context, name string) (abi.AccountID, bool) {
	if name == "" {
		return s.caller, true
	}
	id, err := abi.ParseAccountID(name)
	if err != nil {
		writeError(c, http.StatusBadRequest, "BAD_REQUEST", "caller: "+err.Error())
		return abi.AccountID{}, false
	}
	return id, true
}

// bindOptional binds a JSON body when there is one.
func bindOptional(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return false
	}
	return true
}

func writeValue(c *gin.Context, v ir.Value) {
	data, err := ir.Marshal(v)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	c.JSON(http.StatusOK, json.RawMessage(data))
}

func writeError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"code": code, "message": msg}})
}

func writeEngineError(c *gin.Context, err error) {
	code := engine.ErrorCode(err)
	if code == "" {
		code = "INTERNAL"
	}
	writeError(c, statusFor(code), code, err.Error())
}

// statusFor maps an error code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case string(dispatch.ErrCodeUnknownMessage):
		return http.StatusNotFound
	case string(dispatch.ErrCodeDecodeFailed),
		string(dispatch.ErrCodeTrailingInput),
		string(dispatch.ErrCodeInvalidArgs):
		return http.StatusBadRequest
	case string(engine.ErrCodeNotInstantiated),
		string(engine.ErrCodeAlreadyInstantiated),
		string(dispatch.ErrCodeTrapped):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
