// Copyright 2016 The Roughtime Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command server runs a Roughtime server from a YAML configuration file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/kyhwana/roughenough/internal/config"
	"github.com/kyhwana/roughenough/internal/server"
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: server <config.yaml>")
		os.Exit(1)
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := config.Load(flag.Arg(0))
	if err != nil {
		logger.Fatal(err)
	}

	bindAddr := net.JoinHostPort(cfg.Interface, fmt.Sprint(cfg.Port))
	udpAddr, err := net.ResolveUDPAddr("udp", bindAddr)
	if err != nil {
		logger.Fatalf("could not resolve %s: %v", bindAddr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		logger.Fatalf("could not listen on %s: %v", bindAddr, err)
	}
	defer conn.Close()

	srv, err := server.New(conn, cfg, logger)
	if err != nil {
		logger.Fatal(err)
	}

	logger.Printf("listening on %s", bindAddr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal(err)
	}
	logger.Print("shutting down")
}
