package rpc

import (
	"bytes"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/units"
	"github.com/canopy-network/amm/fsm"
	"github.com/canopy-network/amm/lib"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"golang.org/x/net/netutil"
)

const (
	colon = ":"

	SoftwareVersion = "0.1.0"
	ContentType     = "Content-MessageType"
	ApplicationJSON = "application/json; charset=utf-8"
)

// Server represents an AMM RPC server
type Server struct {
	sm     *fsm.StateMachine // the pool state machine the handlers read and write
	config lib.Config        // node configuration
	logger lib.LoggerI
	server *http.Server
}

// NewServer constructs and returns a new AMM RPC server
func NewServer(sm *fsm.StateMachine, config lib.Config, logger lib.LoggerI) *Server {
	return &Server{
		sm:     sm,
		config: config,
		logger: logger.WithModule("rpc"),
	}
}

// Handler() returns the full http stack: cors, then the request timeout, then the router
func (s *Server) Handler() http.Handler {
	// Create CORS policy
	cor := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS", "POST"},
	})
	// Create a default timeout for HTTP requests
	timeout := time.Duration(s.config.TimeoutS) * time.Second
	return cor.Handler(http.TimeoutHandler(createRouter(s), timeout, lib.ErrServerTimeout().Error()))
}

// Start() begins serving on the configured port and returns once the listener is bound
func (s *Server) Start() lib.ErrorI {
	ln, err := net.Listen("tcp", colon+s.config.RPCPort)
	if err != nil {
		return ErrListen(err)
	}
	if s.config.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.config.MaxConnections)
	}
	s.server = &http.Server{Handler: s.Handler()}
	s.logger.Infof("Starting RPC server at 0.0.0.0:%s", s.config.RPCPort)
	go func() {
		if e := s.server.Serve(ln); e != nil && !errors.Is(e, http.ErrServerClosed) {
			s.logger.Errorf("RPC server stopped: %s", e.Error())
		}
	}()
	return nil
}

// Stop() gracefully shuts the server down
func (s *Server) Stop() {
	if s.server == nil {
		return
	}
	if err := s.server.Close(); err != nil {
		s.logger.Error(err.Error())
	}
}

// unmarshal() decodes a size limited request body into ptr, writing a 400 on failure
func unmarshal(w http.ResponseWriter, r *http.Request, ptr interface{}) bool {
	defer func() { _ = r.Body.Close() }()
	bz, err := io.ReadAll(io.LimitReader(r.Body, int64(units.MB)))
	if err != nil {
		write(w, ErrInvalidParams(err), http.StatusBadRequest)
		return false
	}
	if e := lib.UnmarshalJSON(bz, ptr); e != nil {
		write(w, ErrInvalidParams(e), http.StatusBadRequest)
		return false
	}
	return true
}

// write() encodes payload as json with the status code
func write(w http.ResponseWriter, payload interface{}, code int) {
	w.Header().Set(ContentType, ApplicationJSON)
	w.WriteHeader(code)
	bz, err := lib.MarshalJSONIndent(payload)
	if err != nil {
		bz = []byte(err.Error())
	}
	_, _ = w.Write(bz)
}

// writeError() writes err with the status its code maps to
func writeError(w http.ResponseWriter, err lib.ErrorI) {
	write(w, err, statusCode(err))
}

// statusCode() maps an error onto an http status
func statusCode(err lib.ErrorI) int {
	switch err.Code() {
	case lib.CodePoolNotFound, lib.CodeAccountNotFound, lib.CodeMarketNotFound, lib.CodeTokenAccountNotFound,
		lib.CodeMintNotFound, lib.CodeOpenOrdersNotFound:
		return http.StatusNotFound
	case lib.CodeTxnConflict:
		return http.StatusConflict
	}
	if err.Module() == lib.StorageModule {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// logsHandler() serves the node log file with the newest line first
func logsHandler(s *Server) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		// Construct the full file path to the log file
		filePath := filepath.Join(s.config.DataDirPath, lib.LogDirectory, lib.LogFileName)

		// Read the entire contents of the log file and split by newlines
		f, _ := os.ReadFile(filePath)
		split := bytes.Split(f, []byte("\n"))

		// Iterate over the lines in reverse order
		var flipped []byte
		for i := len(split) - 1; i >= 0; i-- {
			flipped = append(append(flipped, split[i]...), []byte("\n")...)
		}

		// Write the reversed lines to the HTTP response
		if _, err := w.Write(flipped); err != nil {
			s.logger.Error(err.Error())
		}
	}
}

// logHandler serves as a middleware that logs incoming RPC calls at debug level
type logHandler struct {
	path   string
	h      httprouter.Handle
	logger lib.LoggerI
}

// Handle
func (h logHandler) Handle(resp http.ResponseWriter, req *http.Request, p httprouter.Params) {
	h.logger.Debugf("%s %s", req.Method, h.path)
	h.h(resp, req, p)
}
