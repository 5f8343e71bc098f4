// fectl is a small control client for the K-band front-end server. It sends
// legacy menu option codes over the control port, either as a one-shot
// command or interactively, and can locate a server over mDNS.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/deepspace-ra/kband-frontend/internal/server"
)

var (
	addr     string
	discover bool
	timeout  time.Duration
)

func init() {
	flag.StringVar(&addr, "addr", "localhost:50000", "Control server address")
	flag.BoolVar(&discover, "discover", false, "Locate the server via mDNS instead of -addr")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "Discovery and dial timeout")
}

func main() {
	flag.Parse()

	if discover {
		endpoints, err := server.Discover(timeout)
		if err != nil {
			log.Fatalf("mDNS discovery failed: %s", err)
		}
		if len(endpoints) == 0 {
			log.Fatal("no front-end servers found")
		}
		for _, e := range endpoints {
			log.Printf("found %q at %s (%s)", e.Instance, e.Addr(), strings.Join(e.TXT, ", "))
		}
		addr = endpoints[0].Addr()
	}

	conn, err := dial(addr, timeout)
	if err != nil {
		log.Fatalf("connecting to %s: %s", addr, err)
	}
	defer conn.Close()
	replies := bufio.NewReader(conn)

	if flag.NArg() > 0 {
		// one-shot: option code and arguments from the command line
		reply, err := send(conn, replies, strings.Join(flag.Args(), " "))
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(reply)
		return
	}

	// interactive
	fmt.Printf("connected to %s; enter option codes, 'quit' to exit\n", addr)
	stdin := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !stdin.Scan() {
			return
		}
		line := strings.TrimSpace(stdin.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "quit") {
			return
		}

		reply, err := send(conn, replies, line)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(reply)
	}
}

// dial retries the connection with exponential backoff so the client can be
// started alongside the server.
func dial(addr string, timeout time.Duration) (net.Conn, error) {
	var conn net.Conn

	operation := func() error {
		var err error
		conn, err = net.DialTimeout("tcp", addr, timeout)
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	if err := backoff.Retry(operation, backoff.WithMaxRetries(policy, 5)); err != nil {
		return nil, err
	}
	return conn, nil
}

func send(conn net.Conn, replies *bufio.Reader, line string) (string, error) {
	if _, err := fmt.Fprintln(conn, line); err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}

	reply, err := replies.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading reply: %w", err)
	}
	return strings.TrimRight(reply, "\n"), nil
}
