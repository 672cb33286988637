package utils

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	serverReadTimeout  = 60 * time.Second
	serverWriteTimeout = 60 * time.Second

	// shutdownGrace bounds how long in-flight requests may drain before
	// the server is closed hard. The ledger mirror drains after the server
	// returns, so requests accepted here still get their mirror pass.
	shutdownGrace = 10 * time.Second
)

// GraceServer serves HTTP until SIGINT or SIGTERM, then drains in-flight
// requests for up to shutdownGrace. A clean drain returns
// http.ErrServerClosed so callers can tell shutdown from failure.
func GraceServer(addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
	}
	return serveUntilSignal(srv, srv.ListenAndServe)
}

// GraceServerTLS is GraceServer over TLS.
func GraceServerTLS(addr, certFile, keyFile string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
	}
	return serveUntilSignal(srv, func() error {
		return srv.ListenAndServeTLS(certFile, keyFile)
	})
}

func serveUntilSignal(srv *http.Server, serve func() error) error {
	errCh := make(chan error, 1)
	go func() { errCh <- serve() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		// Listener failed before any signal arrived.
		return err
	case sig := <-sigCh:
		Sugar.Infof("received %s, draining in-flight requests", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		Sugar.Errorf("drain incomplete after %s, closing: %v", shutdownGrace, err)
		_ = srv.Close()
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return http.ErrServerClosed
}
