// coopctl is a thin line-protocol client for the CoopNet server. It
// dials the server, prints every response line, and forwards stdin
// lines verbatim. Useful for poking at a running farm:
//
//	$ coopctl -host 127.0.0.1 -port 8888
//	100 SERVER_READY
//	SCAN
//	110 DEVICE SENSOR1 sensor 1
//	...
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
)

func main() {
	host := flag.String("host", "127.0.0.1", "server host")
	port := flag.Int("port", 8888, "server port")
	flag.Parse()

	if err := run(fmt.Sprintf("%s:%d", *host, *port)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(addr string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", addr, err)
	}
	defer conn.Close()

	// Server to stdout. When the server closes the connection this
	// goroutine unblocks the process exit.
	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			fmt.Println(scanner.Text())
		}
	}()

	// Stdin to server.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if _, err := fmt.Fprintf(conn, "%s\n", scanner.Text()); err != nil {
				return
			}
		}
		// Stdin closed; half-close so the server sees EOF.
		if tcp, ok := conn.(*net.TCPConn); ok {
			tcp.CloseWrite()
		}
	}()

	<-done
	return nil
}
