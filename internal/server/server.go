// Package server implements the Roughtime server loop: a single-threaded,
// event-driven state machine that reads datagrams, admits them to the
// current batch, and flushes — signing once per batch — either when the
// batch fills or when it has been open longer than MaxBatchAge.
package server

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"net"
	"sync/atomic"
	"time"

	"github.com/kyhwana/roughenough/internal/clock"
	"github.com/kyhwana/roughenough/internal/config"
	"github.com/kyhwana/roughenough/protocol"
)

// pendingRequest is a request that has been admitted to the current batch:
// it survives until the batch is flushed, then is discarded.
type pendingRequest struct {
	nonce []byte
	addr  net.Addr
}

// Server holds everything the request-processing pipeline needs: the
// socket, the batch in progress, the online signing identity, and the
// injected wall-clock capability. The whole pipeline runs on the single
// goroutine that calls Run; the only other goroutines Run starts close conn
// on cancellation and read the responses/dropped counters atomically for
// the status line.
type Server struct {
	conn net.PacketConn
	cfg  *config.Config
	cert *protocol.Certificate

	onlinePrivateKey ed25519.PrivateKey
	longTermPublicKey ed25519.PublicKey

	midpoint func() uint64
	logger   *log.Logger

	batch    []pendingRequest
	batchBuf [][]byte // scratch nonce pointers reused across flushes

	responses uint64
	dropped   uint64
}

// New derives the server's long-term key from cfg.Seed, generates a fresh
// online key, and builds a signed CERT delegating to it. The seed is
// wiped from cfg once the key is derived.
func New(conn net.PacketConn, cfg *config.Config, logger *log.Logger) (*Server, error) {
	if len(cfg.Seed) != config.SeedSize {
		return nil, errors.New("server: seed must be 32 bytes")
	}

	longTermPrivateKey := ed25519.NewKeyFromSeed(cfg.Seed)
	longTermPublicKey := longTermPrivateKey.Public().(ed25519.PublicKey)
	for i := range cfg.Seed {
		cfg.Seed[i] = 0
	}

	onlinePublicKey, onlinePrivateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	cert, err := protocol.NewCertificate(cfg.CertMinTimeMicros, cfg.CertMaxTimeMicros, onlinePublicKey, longTermPrivateKey)
	if err != nil {
		return nil, err
	}

	logger.Printf("long-term public key: %s", hex.EncodeToString(longTermPublicKey))
	logger.Printf("online public key: %s", hex.EncodeToString(onlinePublicKey))

	return &Server{
		conn:              conn,
		cfg:               cfg,
		cert:              cert,
		onlinePrivateKey:  onlinePrivateKey,
		longTermPublicKey: longTermPublicKey,
		midpoint:          clock.NewSource(cfg.SecondsOffset).MidpointMicros,
		logger:            logger,
		batch:             make([]pendingRequest, 0, cfg.BatchSize),
	}, nil
}

// LongTermPublicKey returns the server's long-term public key, for callers
// that want to print or publish it (the private key is never exposed).
func (s *Server) LongTermPublicKey() ed25519.PublicKey { return s.longTermPublicKey }

// Run executes the server loop until ctx is canceled. It always returns
// after the in-flight read unblocks; an unflushed partial batch at
// shutdown is dropped rather than signed and sent.
func (s *Server) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.conn.Close()
		case <-done:
		}
	}()

	statusTicker := time.NewTicker(s.cfg.StatusInterval)
	defer statusTicker.Stop()
	go func() {
		for {
			select {
			case <-statusTicker.C:
				s.logger.Printf("responses %d, dropped %d", atomic.LoadUint64(&s.responses), atomic.LoadUint64(&s.dropped))
			case <-done:
				return
			}
		}
	}()

	buf := make([]byte, 65536)
	var batchStarted time.Time

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if len(s.batch) > 0 {
			s.conn.SetReadDeadline(batchStarted.Add(s.cfg.MaxBatchAge))
		} else {
			s.conn.SetReadDeadline(time.Time{})
		}

		n, addr, err := s.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				if len(s.batch) > 0 {
					s.flush()
				}
				continue
			}
			return err
		}

		nonce, perr := protocol.ParseRequest(buf[:n], s.cfg.MinRequestSize)
		if perr != nil {
			atomic.AddUint64(&s.dropped, 1)
			continue
		}

		if len(s.batch) == 0 {
			batchStarted = time.Now()
		}
		s.batch = append(s.batch, pendingRequest{
			nonce: append([]byte(nil), nonce...),
			addr:  addr,
		})

		if len(s.batch) >= s.cfg.BatchSize {
			s.flush()
		}
	}
}

// flush signs and sends a reply for every request in the current batch, in
// admission order, then discards the batch.
func (s *Server) flush() {
	if len(s.batch) == 0 {
		return
	}

	nonces := s.batchBuf[:0]
	for _, req := range s.batch {
		nonces = append(nonces, req.nonce)
	}
	s.batchBuf = nonces

	replies, err := protocol.CreateReplies(nonces, s.midpoint(), s.cfg.RadiusMicros, s.cert, s.onlinePrivateKey)
	if err != nil {
		// Signing failure with valid key material indicates corruption.
		s.logger.Fatalf("signing failure: %v", err)
	}

	for i, req := range s.batch {
		if _, err := s.conn.WriteTo(replies[i], req.addr); err != nil {
			s.logger.Printf("send to %s failed: %v", req.addr, err)
			continue
		}
		atomic.AddUint64(&s.responses, 1)
	}

	s.batch = s.batch[:0]
}
