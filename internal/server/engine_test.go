package server

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/coopnet/coopnet-core/internal/infrastructure/config"
)

// startEngine serves a seeded farm on a loopback listener and returns
// its address. The engine stops with the test.
func startEngine(t *testing.T, cfg config.ServerConfig) string {
	t.Helper()
	f := newFixture(t)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	engine := NewEngine(cfg, f.dispatcher, nil)
	go func() {
		if err := engine.Serve(ctx, lis); err != nil {
			t.Errorf("Serve: %v", err)
		}
	}()
	return lis.Addr().String()
}

func dial(t *testing.T, addr string) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial %s: %v", addr, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, bufio.NewReader(conn)
}

func readLine(t *testing.T, conn net.Conn, r *bufio.Reader) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return strings.TrimRight(line, "\n")
}

func send(t *testing.T, conn net.Conn, line string) {
	t.Helper()
	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("write %q: %v", line, err)
	}
}

func defaultTestConfig() config.ServerConfig {
	return config.ServerConfig{MaxClients: 4, MaxLineBytes: 2048}
}

func TestEngineSession(t *testing.T) {
	addr := startEngine(t, defaultTestConfig())
	conn, r := dial(t, addr)

	if got := readLine(t, conn, r); got != "100 SERVER_READY" {
		t.Fatalf("greeting = %q", got)
	}

	send(t, conn, "SCAN")
	for i := 0; i < 7; i++ {
		if got := readLine(t, conn, r); !strings.HasPrefix(got, "110 DEVICE ") {
			t.Fatalf("scan row %d = %q", i, got)
		}
	}

	send(t, conn, "CONNECT FAN1 APP1 123456")
	resp := readLine(t, conn, r)
	fields := strings.Fields(resp)
	if len(fields) != 3 || fields[0] != "120" {
		t.Fatalf("CONNECT = %q", resp)
	}
	token := fields[2]

	send(t, conn, "CONTROL FAN1 "+token+" OFF")
	if got := readLine(t, conn, r); got != "140 CONTROL_OK" {
		t.Errorf("CONTROL = %q", got)
	}

	send(t, conn, "INFO FAN1 "+token)
	if got := readLine(t, conn, r); !strings.Contains(got, `"state":"OFF"`) {
		t.Errorf("INFO = %q", got)
	}

	send(t, conn, "BYE FAN1 "+token)
	if got := readLine(t, conn, r); got != "170 BYE_OK" {
		t.Errorf("BYE = %q", got)
	}
}

func TestEngineVerbAliasesAndCase(t *testing.T) {
	addr := startEngine(t, defaultTestConfig())
	conn, r := dial(t, addr)
	readLine(t, conn, r) // greeting

	send(t, conn, "coop_add Night Barn")
	if got := readLine(t, conn, r); !strings.HasPrefix(got, "191 COOPADD_OK ") {
		t.Errorf("coop_add = %q", got)
	}

	send(t, conn, "scan")
	if got := readLine(t, conn, r); !strings.HasPrefix(got, "110 DEVICE ") {
		t.Errorf("lower-case scan = %q", got)
	}
}

func TestEngineUnknownVerb(t *testing.T) {
	addr := startEngine(t, defaultTestConfig())
	conn, r := dial(t, addr)
	readLine(t, conn, r)

	send(t, conn, "FLY FAN1")
	if got := readLine(t, conn, r); got != "400 BAD_REQUEST" {
		t.Errorf("unknown verb = %q", got)
	}
}

func TestEngineClientLimit(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.MaxClients = 1
	addr := startEngine(t, cfg)

	conn1, r1 := dial(t, addr)
	readLine(t, conn1, r1)

	// The second connection is accepted and closed without a greeting.
	conn2, r2 := dial(t, addr)
	conn2.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, err := r2.ReadString('\n'); err == nil {
		t.Error("second client got a greeting, want closed connection")
	}

	// The first session keeps working.
	send(t, conn1, "SCAN")
	if got := readLine(t, conn1, r1); !strings.HasPrefix(got, "110 DEVICE ") {
		t.Errorf("first client scan = %q", got)
	}
}

func TestEngineLineLimit(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.MaxLineBytes = 64
	addr := startEngine(t, cfg)

	conn, r := dial(t, addr)
	readLine(t, conn, r)

	send(t, conn, "INFO "+strings.Repeat("A", 200))
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, err := r.ReadString('\n'); err == nil {
		t.Error("oversized line answered, want closed connection")
	}
}

func TestEnginePipelinedRequests(t *testing.T) {
	addr := startEngine(t, defaultTestConfig())
	conn, r := dial(t, addr)
	readLine(t, conn, r)

	// Two commands in one write; responses arrive in order.
	if _, err := conn.Write([]byte("COOPLIST\nCOOPADD Annex\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := readLine(t, conn, r); !strings.HasPrefix(got, "190 COOP 1 ") {
		t.Errorf("first = %q", got)
	}
	if got := readLine(t, conn, r); !strings.HasPrefix(got, "191 COOPADD_OK ") {
		t.Errorf("second = %q", got)
	}
}
