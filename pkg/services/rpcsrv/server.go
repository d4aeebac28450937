/*
Package rpcsrv implements the JSON-RPC 2.0 server of the node. It serves
HTTP POST requests and websocket connections (on /ws path) and exposes the
asset evaluator.
*/
package rpcsrv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/assetkit/assetkit/pkg/asset"
	"github.com/assetkit/assetkit/pkg/config"
	"github.com/assetkit/assetkit/pkg/dispatch"
	"github.com/assetkit/assetkit/pkg/lifecycle"
	"github.com/assetkit/assetkit/pkg/rpcapi"
	"github.com/assetkit/assetkit/pkg/services/evaluator"
	"github.com/assetkit/assetkit/pkg/snapshot"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

type (
	// Evaluator is the asset evaluation service used by the Server.
	Evaluator interface {
		Capabilities(ctx context.Context, t asset.Type, id *common.Address) (asset.Capabilities, error)
		State(ctx context.Context, id common.Address) (*evaluator.AssetState, error)
		Evaluate(ctx context.Context, req evaluator.Request) (*evaluator.Report, error)
		Prepare(ctx context.Context, req evaluator.Request, a lifecycle.Action, p dispatch.Params) (*evaluator.Prepared, error)
	}

	// Server represents the JSON-RPC 2.0 server.
	Server struct {
		http []*http.Server

		eval   Evaluator
		config config.RPC
		mica   bool
		// wsReadLimit represents web-socket message limit for a receiving side.
		wsReadLimit int64
		upgrader    websocket.Upgrader
		log         *zap.Logger
		shutdown    chan struct{}
		started     *atomic.Bool
		errChan     chan<- error

		wsLock    sync.Mutex
		wsClients int
		wsDone    sync.WaitGroup
	}

	// Version is the getversion result.
	Version struct {
		Version  string   `json:"version"`
		Features Features `json:"features"`
	}

	// Features lists optional features enabled on the node.
	Features struct {
		MiCA bool `json:"mica"`
	}
)

const (
	// Disconnection timeout.
	wsPongLimit = 60 * time.Second
	// Ping period for connection liveness check.
	wsPingPeriod = wsPongLimit / 2
	// Write deadline.
	wsWriteLimit = wsPingPeriod / 2
	// Default maximum number of websocket clients per Server.
	defaultMaxWebSocketClients = 64
	// Request handling timeout.
	requestTimeout = 10 * time.Second
)

var rpcHandlers = map[string]func(*Server, context.Context, rpcapi.Params) (interface{}, *rpcapi.Error){
	"getassetactions": (*Server).getAssetActions,
	"getassetstate":   (*Server).getAssetState,
	"getcapabilities": (*Server).getCapabilities,
	"getversion":      (*Server).getVersion,
	"prepareaction":   (*Server).prepareAction,
}

// New creates a new Server struct. Errors of listeners started by Start are
// sent to errChan.
func New(eval Evaluator, conf config.RPC, features config.Features, log *zap.Logger, errChan chan<- error) *Server {
	addrs := conf.GetAddresses()
	httpServers := make([]*http.Server, len(addrs))
	for i, addr := range addrs {
		httpServers[i] = &http.Server{
			Addr:              addr,
			MaxHeaderBytes:    conf.MaxRequestHeaderBytes,
			ReadHeaderTimeout: requestTimeout,
		}
	}

	if conf.MaxWebSocketClients == 0 {
		conf.MaxWebSocketClients = defaultMaxWebSocketClients
		log.Info("MaxWebSocketClients is not set or wrong, setting default value", zap.Int("MaxWebSocketClients", defaultMaxWebSocketClients))
	}
	wsReadLimit := conf.ReadLimit
	if wsReadLimit == 0 {
		wsReadLimit = int64(conf.MaxRequestBodyBytes)
	}
	var wsOriginChecker func(*http.Request) bool
	if conf.EnableCORSWorkaround {
		wsOriginChecker = func(_ *http.Request) bool { return true }
	}
	return &Server{
		http:        httpServers,
		eval:        eval,
		config:      conf,
		mica:        features.MiCA,
		wsReadLimit: wsReadLimit,
		upgrader:    websocket.Upgrader{CheckOrigin: wsOriginChecker},
		log:         log,
		shutdown:    make(chan struct{}),
		started:     atomic.NewBool(false),
		errChan:     errChan,
	}
}

// Name returns service name.
func (s *Server) Name() string {
	return "rpc"
}

// Addresses returns actual listening addresses, they're known only after
// Start.
func (s *Server) Addresses() []string {
	res := make([]string, len(s.http))
	for i, srv := range s.http {
		res[i] = srv.Addr
	}
	return res
}

// Start creates a new JSON-RPC server listening on the configured addresses.
// It returns listener errors via errChan passed to New(). The Server only
// starts once, subsequent calls to Start are no-op.
func (s *Server) Start() {
	if !s.config.Enabled {
		s.log.Info("RPC server is not enabled")
		return
	}
	if !s.started.CompareAndSwap(false, true) {
		s.log.Info("RPC server already started")
		return
	}
	for _, srv := range s.http {
		srv.Handler = http.HandlerFunc(s.handleHTTPRequest)
		s.log.Info("starting rpc-server", zap.String("endpoint", srv.Addr))

		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			s.errChan <- fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
			return
		}
		srv.Addr = ln.Addr().String() // set Addr to the actual address
		go func(srv *http.Server) {
			err := srv.Serve(ln)
			if !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("failed to start RPC server", zap.Error(err))
				s.errChan <- err
			}
		}(srv)
	}
}

// Shutdown stops the RPC server if it's running. It can only be called once,
// subsequent calls to Shutdown on the same instance are no-op. The instance
// that was stopped can not be started again by calling Start (use a new
// instance if needed).
func (s *Server) Shutdown() {
	if !s.started.CompareAndSwap(true, false) {
		return
	}
	// Signal to websocket writer routines.
	close(s.shutdown)

	for _, srv := range s.http {
		s.log.Info("shutting down RPC server", zap.String("endpoint", srv.Addr))
		err := srv.Shutdown(context.Background())
		if err != nil {
			s.log.Warn("error during RPC (http) server shutdown", zap.Error(err))
		}
	}
	s.wsDone.Wait()
}

func (s *Server) handleHTTPRequest(w http.ResponseWriter, httpRequest *http.Request) {
	if httpRequest.URL.Path == "/ws" && httpRequest.Method == http.MethodGet {
		s.handleWsConnection(w, httpRequest)
		return
	}

	if httpRequest.Method == http.MethodOptions && s.config.EnableCORSWorkaround { // Preflight CORS.
		setCORSOriginHeaders(w.Header())
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST") // GET for websockets.
		w.Header().Set("Access-Control-Max-Age", "21600")           // 6 hours.
		return
	}

	if httpRequest.Method != http.MethodPost {
		s.writeHTTPErrorResponse(
			rpcapi.NewIn(),
			w,
			rpcapi.NewInvalidParamsError(fmt.Sprintf("invalid method '%s', please retry with 'POST'", httpRequest.Method)),
		)
		return
	}

	if s.config.MaxRequestBodyBytes > 0 {
		httpRequest.Body = http.MaxBytesReader(w, httpRequest.Body, int64(s.config.MaxRequestBodyBytes))
	}
	req := rpcapi.NewRequest()
	err := req.DecodeData(httpRequest.Body)
	if err != nil {
		s.writeHTTPErrorResponse(rpcapi.NewIn(), w, rpcapi.NewParseError(err.Error()))
		return
	}

	resp := s.handleRequest(httpRequest.Context(), req)
	s.writeHTTPServerResponse(req, w, resp)
}

func (s *Server) handleWsConnection(w http.ResponseWriter, httpRequest *http.Request) {
	s.wsLock.Lock()
	if s.wsClients >= s.config.MaxWebSocketClients {
		s.wsLock.Unlock()
		s.writeHTTPErrorResponse(
			rpcapi.NewIn(),
			w,
			rpcapi.NewInternalServerError("websocket users limit reached"),
		)
		return
	}
	s.wsClients++
	s.wsLock.Unlock()
	defer func() {
		s.wsLock.Lock()
		s.wsClients--
		s.wsLock.Unlock()
	}()

	ws, err := s.upgrader.Upgrade(w, httpRequest, nil)
	if err != nil {
		s.log.Info("websocket connection upgrade failed", zap.Error(err))
		return
	}
	resChan := make(chan abstractResult) // abstract or abstractBatch
	s.wsDone.Add(1)
	go func() {
		defer s.wsDone.Done()
		s.handleWsWrites(ws, resChan)
	}()
	s.handleWsReads(ws, resChan)
}

func (s *Server) handleRequest(ctx context.Context, req *rpcapi.Request) abstractResult {
	if req.In != nil {
		req.In.Method = escapeForLog(req.In.Method) // No valid method name will be changed by it.
		return s.handleIn(ctx, req.In)
	}
	resp := make(abstractBatch, len(req.Batch))
	for i, in := range req.Batch {
		in.Method = escapeForLog(in.Method) // No valid method name will be changed by it.
		resp[i] = s.handleIn(ctx, &in)
	}
	return resp
}

func (s *Server) handleIn(ctx context.Context, req *rpcapi.In) abstract {
	var res interface{}
	var resErr *rpcapi.Error
	if req.JSONRPC != rpcapi.JSONRPCVersion {
		return s.packResponse(req, nil, rpcapi.NewInvalidParamsError(fmt.Sprintf("problem parsing JSON: invalid version, expected 2.0 got '%s'", req.JSONRPC)))
	}

	reqParams, err := req.Params()
	if err != nil {
		return s.packResponse(req, nil, rpcapi.NewInvalidRequestError(err.Error()))
	}

	s.log.Debug("processing rpc request",
		zap.String("method", req.Method),
		zap.Stringer("params", reqParams))

	start := time.Now()
	defer func() { addReqTimeMetric(req.Method, time.Since(start)) }()

	resErr = rpcapi.NewMethodNotFoundError(fmt.Sprintf("method %q not supported", req.Method))
	handler, ok := rpcHandlers[req.Method]
	if ok {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		res, resErr = handler(s, ctx, reqParams)
		cancel()
	}
	return s.packResponse(req, res, resErr)
}

func (s *Server) handleWsWrites(ws *websocket.Conn, resChan <-chan abstractResult) {
	pingTicker := time.NewTicker(wsPingPeriod)
eventloop:
	for {
		select {
		case <-s.shutdown:
			break eventloop
		case res, ok := <-resChan:
			if !ok {
				break eventloop
			}
			if err := ws.SetWriteDeadline(time.Now().Add(wsWriteLimit)); err != nil {
				break eventloop
			}
			if err := ws.WriteJSON(res); err != nil {
				break eventloop
			}
		case <-pingTicker.C:
			if err := ws.SetWriteDeadline(time.Now().Add(wsWriteLimit)); err != nil {
				break eventloop
			}
			if err := ws.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				break eventloop
			}
		}
	}
	ws.Close()
	pingTicker.Stop()
}

func (s *Server) handleWsReads(ws *websocket.Conn, resChan chan<- abstractResult) {
	ws.SetReadLimit(s.wsReadLimit)
	err := ws.SetReadDeadline(time.Now().Add(wsPongLimit))
	ws.SetPongHandler(func(string) error { return ws.SetReadDeadline(time.Now().Add(wsPongLimit)) })
requestloop:
	for err == nil {
		req := rpcapi.NewRequest()
		err := ws.ReadJSON(req)
		if err != nil {
			break
		}
		res := s.handleRequest(context.Background(), req)
		res.RunForErrors(func(jsonErr *rpcapi.Error) {
			s.logRequestError(req, jsonErr)
		})
		select {
		case <-s.shutdown:
			break requestloop
		case resChan <- res:
		}
	}
	close(resChan)
	ws.Close()
}

func (s *Server) getVersion(_ context.Context, _ rpcapi.Params) (interface{}, *rpcapi.Error) {
	return Version{
		Version:  config.Version,
		Features: Features{MiCA: s.mica},
	}, nil
}

func (s *Server) getCapabilities(ctx context.Context, ps rpcapi.Params) (interface{}, *rpcapi.Error) {
	t, err := ps.Value(0).GetType()
	if err != nil {
		return nil, rpcapi.WrapErrorWithData(rpcapi.NewInvalidParamsError(""), fmt.Sprintf("invalid asset type: %s", err))
	}
	var id *common.Address
	if p := ps.Value(1); !p.IsNull() {
		a, err := p.GetAddress()
		if err != nil {
			return nil, rpcapi.NewInvalidParamsError(fmt.Sprintf("invalid asset: %s", err))
		}
		id = &a
	}
	caps, err := s.eval.Capabilities(ctx, t, id)
	if err != nil {
		return nil, errToRPC(err)
	}
	return caps, nil
}

func (s *Server) getAssetState(ctx context.Context, ps rpcapi.Params) (interface{}, *rpcapi.Error) {
	id, err := ps.Value(0).GetAddress()
	if err != nil {
		return nil, rpcapi.NewInvalidParamsError(fmt.Sprintf("invalid asset: %s", err))
	}
	st, err := s.eval.State(ctx, id)
	if err != nil {
		return nil, errToRPC(err)
	}
	return st, nil
}

// evaluationRequest parses asset and actor from the first two parameters and
// optional holder from the parameter at holderIndex.
func evaluationRequest(ps rpcapi.Params, holderIndex int) (evaluator.Request, *rpcapi.Error) {
	var req evaluator.Request
	id, err := ps.Value(0).GetAddress()
	if err != nil {
		return req, rpcapi.NewInvalidParamsError(fmt.Sprintf("invalid asset: %s", err))
	}
	actor, err := ps.Value(1).GetAddress()
	if err != nil {
		return req, rpcapi.NewInvalidParamsError(fmt.Sprintf("invalid actor: %s", err))
	}
	req.Asset, req.Actor = id, actor
	if p := ps.Value(holderIndex); !p.IsNull() {
		holder, err := p.GetAddress()
		if err != nil {
			return req, rpcapi.NewInvalidParamsError(fmt.Sprintf("invalid holder: %s", err))
		}
		req.Holder = &holder
	}
	return req, nil
}

func (s *Server) getAssetActions(ctx context.Context, ps rpcapi.Params) (interface{}, *rpcapi.Error) {
	req, respErr := evaluationRequest(ps, 2)
	if respErr != nil {
		return nil, respErr
	}
	r, err := s.eval.Evaluate(ctx, req)
	if err != nil {
		return nil, errToRPC(err)
	}
	return r, nil
}

func (s *Server) prepareAction(ctx context.Context, ps rpcapi.Params) (interface{}, *rpcapi.Error) {
	req, respErr := evaluationRequest(ps, 4)
	if respErr != nil {
		return nil, respErr
	}
	a, err := ps.Value(2).GetAction()
	if err != nil {
		return nil, rpcapi.NewInvalidParamsError(fmt.Sprintf("invalid action: %s", err))
	}
	p := ps.Value(3)
	if p == nil {
		return nil, rpcapi.NewInvalidParamsError("action params are missing")
	}
	aps, err := p.GetActionParams()
	if err != nil {
		return nil, rpcapi.NewInvalidParamsError(err.Error())
	}
	prepared, err := s.eval.Prepare(ctx, req, a, aps)
	if err != nil {
		return nil, errToRPC(err)
	}
	return prepared, nil
}

// errToRPC converts evaluation errors into RPC errors.
func errToRPC(err error) *rpcapi.Error {
	switch {
	case errors.Is(err, lifecycle.ErrNotEligible),
		errors.Is(err, lifecycle.ErrExceedsBound),
		errors.Is(err, lifecycle.ErrInvalidAmount):
		return rpcapi.NewNotEligibleError(err.Error())
	case errors.Is(err, dispatch.ErrUnsupported):
		return rpcapi.NewUnsupportedError(err.Error())
	case errors.Is(err, dispatch.ErrInvalidParam),
		errors.Is(err, asset.ErrInvalidType),
		errors.Is(err, lifecycle.ErrUnknownAction),
		errors.Is(err, snapshot.ErrNotFound):
		return rpcapi.NewInvalidParamsError(err.Error())
	default:
		return rpcapi.NewInternalServerError(err.Error())
	}
}

func (s *Server) packResponse(r *rpcapi.In, result interface{}, respErr *rpcapi.Error) abstract {
	resp := abstract{
		Header: rpcapi.Header{
			JSONRPC: r.JSONRPC,
			ID:      r.RawID,
		},
	}
	if respErr != nil {
		resp.Error = respErr
	} else {
		resp.Result = result
	}
	return resp
}

// logRequestError is a request error logger.
func (s *Server) logRequestError(r *rpcapi.Request, jsonErr *rpcapi.Error) {
	logFields := []zap.Field{
		zap.Int64("code", jsonErr.Code),
	}
	if len(jsonErr.Data) != 0 {
		logFields = append(logFields, zap.String("cause", jsonErr.Data))
	}

	if r.In != nil {
		logFields = append(logFields, zap.String("method", r.In.Method))
		logFields = append(logFields, zap.ByteString("params", r.In.RawParams))
	}

	logText := "Error encountered with rpc request"
	switch jsonErr.Code {
	case rpcapi.InternalServerErrorCode:
		s.log.Error(logText, logFields...)
	default:
		s.log.Info(logText, logFields...)
	}
}

// writeHTTPErrorResponse writes an error response to the ResponseWriter.
func (s *Server) writeHTTPErrorResponse(r *rpcapi.In, w http.ResponseWriter, jsonErr *rpcapi.Error) {
	resp := s.packResponse(r, nil, jsonErr)
	s.writeHTTPServerResponse(&rpcapi.Request{In: r}, w, resp)
}

func setCORSOriginHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Access-Control-Allow-Headers, Authorization, X-Requested-With")
}

func (s *Server) writeHTTPServerResponse(r *rpcapi.Request, w http.ResponseWriter, resp abstractResult) {
	// Errors can happen in many places and we can only catch ALL of them here.
	resp.RunForErrors(func(jsonErr *rpcapi.Error) {
		s.logRequestError(r, jsonErr)
	})
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if s.config.EnableCORSWorkaround {
		setCORSOriginHeaders(w.Header())
	}
	if r.In != nil {
		resp := resp.(abstract)
		if resp.Error != nil {
			w.WriteHeader(getHTTPCodeForError(resp.Error))
		}
	}

	encoder := json.NewEncoder(w)
	err := encoder.Encode(resp)

	if err != nil {
		switch {
		case r.In != nil:
			s.log.Error("Error encountered while encoding response",
				zap.String("err", err.Error()),
				zap.String("method", r.In.Method))
		case r.Batch != nil:
			s.log.Error("Error encountered while encoding batch response",
				zap.String("err", err.Error()))
		}
	}
}

func escapeForLog(in string) string {
	return strings.Map(func(c rune) rune {
		if !strconv.IsGraphic(c) {
			return -1
		}
		return c
	}, in)
}
