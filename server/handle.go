package server

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// ListenHandle controls a started gateway.
type ListenHandle struct {
	srv        *http.Server
	metricsSrv *http.Server
	addr       net.Addr
	path       string
	logger     *zap.Logger

	done    chan struct{}
	err     error
	stopped atomic.Bool
}

func (h *ListenHandle) serve(ln net.Listener) {
	defer close(h.done)
	if err := h.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		h.logger.Error("listener stopped", zap.Error(err))
		h.err = err
	}
}

// Addr returns the bound address.
func (h *ListenHandle) Addr() net.Addr {
	return h.addr
}

// URL returns the address of the GraphQL endpoint, for example
// "http://localhost:4000/graphql".
func (h *ListenHandle) URL() string {
	port := 0
	if tcp, ok := h.addr.(*net.TCPAddr); ok {
		port = tcp.Port
	}
	return fmt.Sprintf("http://localhost:%d%s", port, h.path)
}

// Done is closed once the gateway stops serving.
func (h *ListenHandle) Done() <-chan struct{} {
	return h.done
}

// Err returns the error that stopped the gateway, if any. It is only
// meaningful after Done is closed.
func (h *ListenHandle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Shutdown stops accepting connections and waits for in-flight requests to
// finish or ctx to expire.
func (h *ListenHandle) Shutdown(ctx context.Context) error {
	if !h.stopped.CompareAndSwap(false, true) {
		<-h.done
		return nil
	}
	h.logger.Info("shutting down", zap.String("addr", h.addr.String()))

	var metricsErr error
	if h.metricsSrv != nil {
		metricsErr = h.metricsSrv.Shutdown(ctx)
	}
	if err := h.srv.Shutdown(ctx); err != nil {
		return err
	}
	select {
	case <-h.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return metricsErr
}

// Close stops the gateway immediately, dropping in-flight requests.
func (h *ListenHandle) Close() error {
	h.stopped.Store(true)
	if h.metricsSrv != nil {
		h.metricsSrv.Close()
	}
	err := h.srv.Close()
	<-h.done
	return err
}
