package server

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ironsheep/device-apps-bridge/internal/bridge"
	"github.com/ironsheep/device-apps-bridge/internal/registry"
	"github.com/ironsheep/device-apps-bridge/internal/worker"
)

// NotificationAppChanged is the notification method carrying change events.
const NotificationAppChanged = "onAppChanged"

// JSON-RPC error codes used for bridge failures.
const (
	codeInvalidParams = -32602
	codeBridgeError   = -32000
)

func (s *Server) handleGetInstalledApps(ctx context.Context, req *MCPRequest) *MCPResponse {
	args, err := bridge.ParseInstalledAppsRequest(req.Params)
	if err != nil {
		return s.bridgeError(req, err)
	}
	ch, err := s.bridge.GetInstalledApps(ctx, args)
	if err != nil {
		return s.bridgeError(req, err)
	}
	deliver(s, req, ch)
	return nil
}

func (s *Server) handleGetApp(ctx context.Context, req *MCPRequest) *MCPResponse {
	args, err := bridge.ParseAppRequest(req.Params)
	if err != nil {
		return s.bridgeError(req, err)
	}
	record, err := s.bridge.GetApp(ctx, args)
	if err != nil {
		return s.bridgeError(req, err)
	}
	if record == nil {
		return s.result(req.ID, nil)
	}
	return s.result(req.ID, record)
}

func (s *Server) handleIsAppInstalled(ctx context.Context, req *MCPRequest) *MCPResponse {
	args, err := bridge.ParsePackageRequest(req.Params)
	if err != nil {
		return s.bridgeError(req, err)
	}
	installed, err := s.bridge.IsAppInstalled(ctx, args)
	if err != nil {
		return s.bridgeError(req, err)
	}
	return s.result(req.ID, installed)
}

func (s *Server) handleOpenApp(ctx context.Context, req *MCPRequest) *MCPResponse {
	args, err := bridge.ParsePackageRequest(req.Params)
	if err != nil {
		return s.bridgeError(req, err)
	}
	opened, err := s.bridge.OpenApp(ctx, args)
	if err != nil {
		return s.bridgeError(req, err)
	}
	return s.result(req.ID, opened)
}

func (s *Server) handleGetAppByApkFiles(ctx context.Context, req *MCPRequest) *MCPResponse {
	args, err := bridge.ParseApkFilesRequest(req.Params)
	if err != nil {
		return s.bridgeError(req, err)
	}
	ch, err := s.bridge.GetAppByApkFiles(ctx, args)
	if err != nil {
		return s.bridgeError(req, err)
	}
	deliver(s, req, ch)
	return nil
}

func (s *Server) handleListenAppChanges(req *MCPRequest) *MCPResponse {
	err := s.bridge.ListenAppChanges(func(ev registry.ChangeEvent) {
		s.notify(NotificationAppChanged, ev)
	})
	if err != nil {
		return s.bridgeError(req, err)
	}
	return s.result(req.ID, true)
}

func (s *Server) handleCancelAppChanges(req *MCPRequest) *MCPResponse {
	if err := s.bridge.CancelAppChanges(); err != nil {
		return s.bridgeError(req, err)
	}
	return s.result(req.ID, true)
}

// deliver waits for a background result and sends it as the response to req.
func deliver[T any](s *Server, req *MCPRequest, ch <-chan worker.Result[T]) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		res, ok := <-ch
		if !ok {
			s.send(s.errorResponse(req.ID, codeBridgeError, "background task did not complete", bridge.CodeError))
			return
		}
		if res.Err != nil {
			s.send(s.bridgeError(req, res.Err))
			return
		}
		s.send(s.result(req.ID, res.Value))
	}()
}

// bridgeError maps a bridge failure onto a JSON-RPC error. Validation
// failures use the invalid-params code; everything else is a server error.
// The message is the fixed bridge text and data carries the string code.
func (s *Server) bridgeError(req *MCPRequest, err error) *MCPResponse {
	be, ok := bridge.AsError(err)
	if !ok {
		s.log.Error("operation failed", zap.String("method", req.Method), zap.Error(err))
		return s.errorResponse(req.ID, codeBridgeError, "internal error", bridge.CodeError)
	}

	code := codeBridgeError
	if errors.Is(err, bridge.ErrInvalidArgument) {
		code = codeInvalidParams
	} else {
		s.log.Warn("operation failed", zap.String("method", req.Method), zap.Error(err))
	}
	return s.errorResponse(req.ID, code, be.Message, be.Code)
}
