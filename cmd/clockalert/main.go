// Command clockalert repeatedly queries a Roughtime server and raises a
// desktop notification via notify-send if the local clock's skew from the
// server's reported time exceeds a threshold.
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"math"
	"net"
	"os"
	"os/exec"
	"time"

	"github.com/kyhwana/roughenough/protocol"
)

const (
	summary  = `Check your clock!`
	template = `Your clock is off Roughtime by %v.`
)

func main() {
	addr := flag.String("addr", "", "Address of the server to query, e.g. localhost:2002.")
	pubKeyHex := flag.String("pubkey", "", "The server's long-term Ed25519 public key, hex-encoded.")
	timeout := flag.Duration("timeout", 5*time.Second, "Time to wait for a response.")
	alertThreshold := flag.Duration("thresh", 10*time.Second, "Minimum clock skew for triggering an alert.")
	interval := flag.Duration("interval", time.Minute, "How often to query the server.")
	once := flag.Bool("once", false, "Query once and exit instead of polling.")
	logFile := flag.String("log", "/dev/stdout", "File to which to write the log.")

	flag.Parse()

	if *addr == "" || *pubKeyHex == "" {
		fmt.Fprintln(os.Stderr, "usage: clockalert -addr <addr> -pubkey <hex>")
		os.Exit(1)
	}

	pubKey, err := hex.DecodeString(*pubKeyHex)
	if err != nil || len(pubKey) != ed25519.PublicKeySize {
		fmt.Fprintln(os.Stderr, "invalid -pubkey: must be a 32-byte hex-encoded Ed25519 public key")
		os.Exit(1)
	}

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	logger := log.New(f, "", log.Ldate|log.Ltime)

	for {
		checkOnce(logger, *addr, ed25519.PublicKey(pubKey), *timeout, *alertThreshold)
		if *once {
			return
		}
		time.Sleep(*interval)
	}
}

func checkOnce(logger *log.Logger, addr string, pubKey ed25519.PublicKey, timeout, alertThreshold time.Duration) {
	nonce, request, err := protocol.CreateRequest(rand.Reader)
	if err != nil {
		logger.Printf("could not create request: %v", err)
		return
	}

	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		logger.Printf("could not resolve %s: %v", addr, err)
		return
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		logger.Printf("could not dial %s: %v", addr, err)
		return
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(timeout))

	localNow := time.Now()
	if _, err := conn.Write(request); err != nil {
		logger.Printf("send failed: %v", err)
		return
	}

	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		logger.Printf("no response: %v", err)
		return
	}

	midpointMicros, _, err := protocol.VerifyReply(buf[:n], pubKey, nonce)
	if err != nil {
		logger.Printf("verification failed: %v", err)
		return
	}

	remoteNow := time.UnixMicro(int64(midpointMicros))
	skew := time.Duration(math.Abs(float64(remoteNow.Sub(localNow))))
	logger.Printf("skew: %v", skew.Truncate(time.Millisecond))

	if skew > alertThreshold {
		body := fmt.Sprintf(template, skew.Truncate(time.Millisecond))
		cmd := exec.Command("notify-send", "-u", "critical", "-i", "clock", summary, body)
		if err := cmd.Run(); err != nil {
			logger.Printf("notify-send failed: %v", err)
		}
	}
}
