package server

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/deepspace-ra/kband-frontend/internal/frontend"
	"github.com/deepspace-ra/kband-frontend/internal/protocol"
)

func startTestServer(t *testing.T) net.Addr {
	t.Helper()

	fe, err := frontend.New(frontend.DefaultCalibration())
	if err != nil {
		t.Fatalf("Failed to create front end: %v", err)
	}

	srv := New(protocol.NewDispatcher(fe, protocol.WithMinicalReads(1)))
	addr, err := srv.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		srv.Stop()
		if err := <-done; err != nil {
			t.Errorf("Serve returned: %v", err)
		}
	})

	return addr
}

func dialTestServer(t *testing.T, addr net.Addr) (net.Conn, *bufio.Reader) {
	t.Helper()

	conn, err := net.DialTimeout(addr.Network(), addr.String(), time.Second)
	if err != nil {
		t.Fatalf("Failed to dial %s: %v", addr, err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn, bufio.NewReader(conn)
}

func send(t *testing.T, conn net.Conn, replies *bufio.Reader, line string) string {
	t.Helper()

	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("Failed to write %q: %v", line, err)
	}
	reply, err := replies.ReadString('\n')
	if err != nil {
		t.Fatalf("Failed to read reply to %q: %v", line, err)
	}
	return strings.TrimRight(reply, "\n")
}

func TestServerRoundTrip(t *testing.T) {
	addr := startTestServer(t)
	conn, replies := dialTestServer(t, addr)

	if got := send(t, conn, replies, "12"); got != `OK "feed 1 is on the sky\nfeed 2 is on the sky\n"` {
		t.Errorf("option 12: got %q", got)
	}

	if got := send(t, conn, replies, "14"); got != "OK" {
		t.Errorf("option 14: got %q, want OK", got)
	}
	if got := send(t, conn, replies, "12"); got != `OK "feed 1 is on the load\nfeed 2 is on the sky\n"` {
		t.Errorf("option 12 after 14: got %q", got)
	}

	if got := send(t, conn, replies, "22"); got != "OK 0" {
		t.Errorf("option 22: got %q, want OK 0", got)
	}
	if got := send(t, conn, replies, "23"); got != "OK" {
		t.Errorf("option 23: got %q, want OK", got)
	}
	if got := send(t, conn, replies, "22"); got != "OK 1" {
		t.Errorf("option 22 after 23: got %q, want OK 1", got)
	}
}

func TestServerReadings(t *testing.T) {
	addr := startTestServer(t)
	conn, replies := dialTestServer(t, addr)

	got := send(t, conn, replies, "17")
	if !strings.HasPrefix(got, "OK 1=") {
		t.Fatalf("option 17: got %q", got)
	}
	if fields := strings.Fields(got); len(fields) != 5 {
		t.Errorf("option 17: got %d fields, want 5: %q", len(fields), got)
	}

	// switching channel 1 to dBm flips its reported value negative
	if got := send(t, conn, replies, "400"); got != "OK" {
		t.Fatalf("option 400: got %q, want OK", got)
	}
	got = send(t, conn, replies, "17")
	if !strings.HasPrefix(got, "OK 1=-") {
		t.Errorf("option 17 in dBm: got %q", got)
	}

	got = send(t, conn, replies, "31")
	for _, key := range []string{"12K=", "70K=", "load1=", "load2="} {
		if !strings.Contains(got, key) {
			t.Errorf("option 31: reply %q missing %q", got, key)
		}
	}
}

func TestServerErrors(t *testing.T) {
	addr := startTestServer(t)
	conn, replies := dialTestServer(t, addr)

	if got := send(t, conn, replies, "999"); !strings.HasPrefix(got, "ERR ") {
		t.Errorf("unknown option: got %q, want ERR", got)
	}
	if got := send(t, conn, replies, "banana"); !strings.HasPrefix(got, "ERR ") {
		t.Errorf("malformed code: got %q, want ERR", got)
	}
	if got := send(t, conn, replies, "58 abc"); !strings.HasPrefix(got, "ERR ") {
		t.Errorf("malformed argument: got %q, want ERR", got)
	}

	// the connection survives errors
	if got := send(t, conn, replies, "22"); got != "OK 0" {
		t.Errorf("option 22 after errors: got %q, want OK 0", got)
	}
}

func TestServerQuit(t *testing.T) {
	addr := startTestServer(t)
	conn, replies := dialTestServer(t, addr)

	if _, err := conn.Write([]byte("quit\n")); err != nil {
		t.Fatalf("Failed to write quit: %v", err)
	}
	if _, err := replies.ReadString('\n'); err == nil {
		t.Error("expected connection to close after quit")
	}
}

func TestParseRequest(t *testing.T) {
	tests := []struct {
		line     string
		wantCode int
		wantArgs []int
		wantErr  bool
	}{
		{line: "12", wantCode: 12},
		{line: "  17  ", wantCode: 17},
		{line: "58 22000", wantCode: 58, wantArgs: []int{22000}},
		{line: "59 -10 3", wantCode: 59, wantArgs: []int{-10, 3}},
		{line: "twelve", wantErr: true},
		{line: "58 x", wantErr: true},
	}

	for _, tt := range tests {
		code, args, err := parseRequest(tt.line)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseRequest(%q): expected error", tt.line)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseRequest(%q) failed: %v", tt.line, err)
			continue
		}
		if code != tt.wantCode {
			t.Errorf("parseRequest(%q): code %d, want %d", tt.line, code, tt.wantCode)
		}
		if len(args) != len(tt.wantArgs) {
			t.Errorf("parseRequest(%q): args %v, want %v", tt.line, args, tt.wantArgs)
			continue
		}
		for i := range args {
			if args[i] != tt.wantArgs[i] {
				t.Errorf("parseRequest(%q): args %v, want %v", tt.line, args, tt.wantArgs)
				break
			}
		}
	}
}

func TestFormatResult(t *testing.T) {
	tests := []struct {
		name   string
		result protocol.Result
		want   string
	}{
		{"none", protocol.Result{Kind: protocol.ResultNone}, "OK"},
		{"bool on", protocol.Result{Kind: protocol.ResultBool, Bool: true}, "OK 1"},
		{"bool off", protocol.Result{Kind: protocol.ResultBool}, "OK 0"},
		{"text", protocol.Result{Kind: protocol.ResultText, Text: "hi\n"}, `OK "hi\n"`},
		{
			"readings",
			protocol.Result{Kind: protocol.ResultReadings, Readings: []frontend.PowerReading{
				{Index: 1, Value: 3.25e-8},
				{Index: 2, Value: 4e-8},
			}},
			"OK 1=3.250000e-08 2=4.000000e-08",
		},
		{
			"readings in dBm",
			protocol.Result{Kind: protocol.ResultReadings, Readings: []frontend.PowerReading{
				{Index: 1, Value: 1e-6, Mode: frontend.ModeDBM},
			}},
			"OK 1=-3.000000e+01",
		},
		{
			"temperatures sorted",
			protocol.Result{Kind: protocol.ResultTemperatures, Temperatures: map[string]float64{
				"load1": 320, "12K": 15.2,
			}},
			"OK 12K=15.20 load1=320.00",
		},
		{
			"channel map in index order",
			protocol.Result{Kind: protocol.ResultChannelMap, ChannelMap: map[int]float64{
				2: 9.5, 1: 9.25,
			}},
			"OK 1=9.250 2=9.500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatResult(tt.result); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
