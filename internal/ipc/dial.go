// Package ipc provides the gRPC client for the heroes daemon and the logic
// to start the daemon on demand.
package ipc

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	// DialTimeout bounds a readiness probe of the daemon socket.
	DialTimeout = 200 * time.Millisecond

	// DefaultCallTimeout is used when a client is created without one.
	DefaultCallTimeout = 2 * time.Second
)

// SocketExists checks if the daemon socket file exists.
func SocketExists(socketPath string) bool {
	_, err := os.Stat(socketPath)
	return err == nil
}

// Dial creates a gRPC connection to the daemon socket. The connection is
// lazy: an unreachable daemon surfaces on the first call.
func Dial(socketPath string) (*grpc.ClientConn, error) {
	if socketPath == "" {
		return nil, fmt.Errorf("socket path is required")
	}

	// The dialer receives the target address, but we use socketPath directly
	dialer := func(ctx context.Context, _ string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "unix", socketPath)
	}

	conn, err := grpc.NewClient(
		"passthrough:///"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(dialer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}
	return conn, nil
}

// Probe reports whether something accepts connections on socketPath.
func Probe(ctx context.Context, socketPath string) error {
	ctx, cancel := context.WithTimeout(ctx, DialTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return err
	}
	return conn.Close()
}
