// Package transport carries retune packets over TCP.
//
// Each connection is a stream of fixed-size request frames; every frame
// gets exactly one response frame back, in order. A frame that fails to
// decode closes the connection: the host link is a trusted point-to-point
// channel and a framing error means the stream is unrecoverable.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/radio-control/retune/internal/logging"
	"github.com/radio-control/retune/internal/retune"
	"github.com/radio-control/retune/internal/wire"
)

// Server accepts host-link connections and feeds their requests to the
// scheduler's run loop.
type Server struct {
	service *retune.Service
	log     logging.Logger

	mu       sync.Mutex
	listener net.Listener
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewServer creates a packet server over the given scheduler service.
func NewServer(service *retune.Service, log logging.Logger) *Server {
	if log == nil {
		log = logging.Noop()
	}
	return &Server{
		service: service,
		log:     log,
	}
}

// Start begins listening on addr and serving connections. It returns once
// the listener is bound; serving continues in the background until Stop.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind host link: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.listener = ln
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.acceptLoop(ctx, ln)

	s.log.Info("host link listening", logging.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and waits for in-flight connections to drain.
func (s *Server) Stop() error {
	s.mu.Lock()
	ln := s.listener
	cancel := s.cancel
	s.listener = nil
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	var err error
	if ln != nil {
		err = ln.Close()
	}
	s.wg.Wait()
	return err
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) {
	defer s.wg.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warn("accept failed", logging.Err(err))
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

// serveConn pumps one connection: read a frame, run it through the
// scheduler, write the response.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	// Unblock a pending read when the server stops.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	log := s.log.With(logging.String("remote", conn.RemoteAddr().String()))
	log.Debug("host connected")

	buf := make([]byte, wire.PacketLen)
	for {
		if _, err := io.ReadFull(conn, buf); err != nil {
			if err != io.EOF && ctx.Err() == nil {
				log.Debug("host link read ended", logging.Err(err))
			}
			return
		}

		req, err := wire.DecodeRequest(buf)
		if err != nil {
			log.Warn("dropping connection on undecodable frame", logging.Err(err))
			return
		}

		resp, err := s.service.Submit(ctx, req)
		if err != nil {
			// Shutdown racing an in-flight request.
			return
		}

		out := resp.Encode()
		if _, err := conn.Write(out[:]); err != nil {
			log.Debug("host link write failed", logging.Err(err))
			return
		}
	}
}
