package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/ironsheep/device-apps-bridge/internal/bridge"
)

// Server handles JSON-RPC communication with the application shell.
type Server struct {
	bridge *bridge.Bridge
	log    *zap.Logger
	info   ServerInfo

	// pending counts background results not yet handed to the writer.
	pending sync.WaitGroup

	mu     sync.Mutex
	out    chan interface{}
	closed bool
}

// ServerInfo identifies the server in the initialize handshake.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response.
// Exactly one of Result and Error is written.
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MarshalJSON writes a null result on success and omits it on error.
func (r MCPResponse) MarshalJSON() ([]byte, error) {
	if r.Error != nil {
		return json.Marshal(struct {
			JSONRPC string      `json:"jsonrpc"`
			ID      interface{} `json:"id"`
			Error   *MCPError   `json:"error"`
		}{r.JSONRPC, r.ID, r.Error})
	}
	return json.Marshal(struct {
		JSONRPC string      `json:"jsonrpc"`
		ID      interface{} `json:"id"`
		Result  interface{} `json:"result"`
	}{r.JSONRPC, r.ID, r.Result})
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// New creates a server for an attached bridge.
func New(b *bridge.Bridge, info ServerInfo, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		bridge: b,
		log:    log,
		info:   info,
		out:    make(chan interface{}, 64),
	}
}

// Run reads requests from in and writes responses and notifications to out
// until in is exhausted or ctx is cancelled. Either way the bridge is
// detached and every queued background result is delivered before Run
// returns. Cancellation is a clean stop and returns nil.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	written := make(chan struct{})
	go s.writeLoop(out, written)

	stop := make(chan struct{})
	defer close(stop)
	lines, readErr := s.readLoop(in, stop)

	var scanErr error
loop:
	for {
		select {
		case <-ctx.Done():
			s.log.Info("stopping on cancellation", zap.Error(ctx.Err()))
			break loop
		case line, ok := <-lines:
			if !ok {
				scanErr = *readErr
				break loop
			}
			s.handleLine(ctx, line)
		}
	}

	<-s.bridge.Detach()
	s.pending.Wait()

	s.mu.Lock()
	s.closed = true
	close(s.out)
	s.mu.Unlock()
	<-written

	if scanErr != nil {
		return fmt.Errorf("scanner error: %w", scanErr)
	}
	return nil
}

// readLoop feeds non-empty input lines to the returned channel and closes
// it at end of input. The error is valid once the channel is closed. A read
// blocked on in outlives Run until in yields or closes.
func (s *Server) readLoop(in io.Reader, stop <-chan struct{}) (<-chan []byte, *error) {
	lines := make(chan []byte)
	var readErr error

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		// Increase buffer size for large requests
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 1024*1024)

		for scanner.Scan() {
			if len(scanner.Bytes()) == 0 {
				continue
			}
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-stop:
				return
			}
		}
		readErr = scanner.Err()
	}()
	return lines, &readErr
}

func (s *Server) handleLine(ctx context.Context, line []byte) {
	var req MCPRequest
	if err := json.Unmarshal(line, &req); err != nil {
		s.log.Warn("failed to parse request", zap.Error(err))
		s.send(s.errorResponse(nil, -32700, "Parse error", err.Error()))
		return
	}
	if resp := s.handleRequest(ctx, &req); resp != nil {
		s.send(resp)
	}
}

// writeLoop is the only writer of out.
func (s *Server) writeLoop(out io.Writer, done chan<- struct{}) {
	defer close(done)
	encoder := json.NewEncoder(out)
	for msg := range s.out {
		if err := encoder.Encode(msg); err != nil {
			s.log.Error("failed to encode message", zap.Error(err))
		}
	}
}

// send queues msg for the writer. Messages sent after shutdown are dropped.
func (s *Server) send(msg interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.log.Debug("dropping message after shutdown")
		return
	}
	s.out <- msg
}

func (s *Server) notify(method string, params interface{}) {
	s.send(&MCPNotification{JSONRPC: "2.0", Method: method, Params: params})
}

// handleRequest routes requests to appropriate handlers. A nil response
// means nothing is written now; background operations respond later.
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.log.Debug("request", zap.String("method", req.Method), zap.Any("id", req.ID))

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "ping":
		return s.result(req.ID, map[string]interface{}{})
	case MethodGetInstalledApps:
		return s.handleGetInstalledApps(ctx, req)
	case MethodGetApp:
		return s.handleGetApp(ctx, req)
	case MethodIsAppInstalled:
		return s.handleIsAppInstalled(ctx, req)
	case MethodOpenApp:
		return s.handleOpenApp(ctx, req)
	case MethodGetAppByApkFiles:
		return s.handleGetAppByApkFiles(ctx, req)
	case MethodListenAppChanges:
		return s.handleListenAppChanges(req)
	case MethodCancelAppChanges:
		return s.handleCancelAppChanges(req)
	default:
		return s.errorResponse(req.ID, -32601, "not implemented", req.Method)
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return s.result(req.ID, map[string]interface{}{
		"protocolVersion": "2.0",
		"serverInfo":      s.info,
		"methods":         GetMethodDefinitions(),
	})
}

func (s *Server) result(id interface{}, v interface{}) *MCPResponse {
	return &MCPResponse{JSONRPC: "2.0", ID: id, Result: v}
}

func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &MCPError{Code: code, Message: message, Data: data},
	}
}
