package server_test

import (
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/JaimeStill/deck-translate/internal/config"
	"github.com/JaimeStill/deck-translate/internal/server"
	"github.com/JaimeStill/deck-translate/pkg/lifecycle"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestServer_StartAndShutdown(t *testing.T) {
	port := freePort(t)
	cfg := &config.ServerConfig{
		Host:            "localhost",
		Port:            port,
		ReadTimeout:     "5s",
		WriteTimeout:    "5s",
		ShutdownTimeout: "5s",
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	})

	lc := lifecycle.New()
	sys := server.New(cfg, handler, slog.New(slog.DiscardHandler))
	if err := sys.Start(lc); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	url := "http://" + cfg.Addr() + "/"
	var resp *http.Response
	var err error
	for range 50 {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never responded: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	if _, err := http.Get(url); err == nil {
		t.Error("server still accepting connections after shutdown")
	}
}

func TestServer_AddressInUse(t *testing.T) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()

	cfg := &config.ServerConfig{
		Host:            "localhost",
		Port:            l.Addr().(*net.TCPAddr).Port,
		ReadTimeout:     "1s",
		WriteTimeout:    "1s",
		ShutdownTimeout: "1s",
	}

	lc := lifecycle.New()
	defer lc.Shutdown(time.Second)

	sys := server.New(cfg, http.NotFoundHandler(), slog.New(slog.DiscardHandler))
	if err := sys.Start(lc); err == nil {
		t.Error("Start succeeded on an address already in use")
	}
}
