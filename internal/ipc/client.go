package ipc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/runger/heroes/internal/backend"
	"github.com/runger/heroes/internal/hero"
	"github.com/runger/heroes/internal/rpc"
)

// Options configures NewClient.
type Options struct {
	// SocketPath is the daemon's unix socket (required).
	SocketPath string

	// Timeout bounds each call. Zero uses DefaultCallTimeout.
	Timeout time.Duration

	// AutoStart spawns the daemon when nothing answers on SocketPath.
	AutoStart bool

	// LogPath receives a spawned daemon's output.
	LogPath string
}

// Client is a backend.Gateway over the daemon's gRPC service.
type Client struct {
	conn    *grpc.ClientConn
	rpc     *rpc.HeroesClient
	timeout time.Duration
}

var _ backend.Gateway = (*Client)(nil)

// NewClient connects to the daemon, starting it first when opts.AutoStart
// is set. A failed auto-start is not fatal: calls will report the
// unreachable daemon instead.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.AutoStart {
		_ = EnsureDaemon(ctx, SpawnConfig{SocketPath: opts.SocketPath, LogPath: opts.LogPath})
	}

	conn, err := Dial(opts.SocketPath)
	if err != nil {
		return nil, err
	}

	c := NewClientWithConn(conn, opts.Timeout)
	c.conn = conn
	return c, nil
}

// NewClientWithConn creates a client with an existing connection.
// Useful for testing with in-memory connections.
func NewClientWithConn(cc grpc.ClientConnInterface, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Client{rpc: rpc.NewHeroesClient(cc), timeout: timeout}
}

// Close closes the client connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) FetchAll(ctx context.Context) ([]hero.Hero, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	list, err := c.rpc.ListHeroes(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, mapError(err)
	}
	return rpc.HeroesFromList(list)
}

func (c *Client) FetchByID(ctx context.Context, id int) (hero.Hero, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	s, err := c.rpc.GetHero(ctx, wrapperspb.Int64(int64(id)))
	if err != nil {
		return hero.Hero{}, mapError(err)
	}
	return rpc.HeroFromStruct(s)
}

func (c *Client) FetchMatching(ctx context.Context, term string) ([]hero.Hero, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	list, err := c.rpc.SearchHeroes(ctx, wrapperspb.String(term))
	if err != nil {
		return nil, mapError(err)
	}
	return rpc.HeroesFromList(list)
}

func (c *Client) Create(ctx context.Context, h hero.Hero) (hero.Hero, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	s, err := c.rpc.CreateHero(ctx, rpc.HeroToStruct(hero.Hero{Name: h.Name}))
	if err != nil {
		return hero.Hero{}, mapError(err)
	}
	return rpc.HeroFromStruct(s)
}

func (c *Client) Replace(ctx context.Context, h hero.Hero) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.rpc.ReplaceHero(ctx, rpc.HeroToStruct(h))
	return mapError(err)
}

func (c *Client) DeleteByID(ctx context.Context, id int) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.rpc.DeleteHero(ctx, wrapperspb.Int64(int64(id)))
	return mapError(err)
}

// mapError turns gRPC status errors into domain errors with readable
// messages.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return hero.ErrNotFound
	case codes.InvalidArgument:
		if st.Message() == hero.ErrInvalidName.Error() {
			return hero.ErrInvalidName
		}
		return errors.New(st.Message())
	case codes.Unavailable:
		return fmt.Errorf("daemon unavailable: %s", st.Message())
	case codes.DeadlineExceeded:
		return fmt.Errorf("daemon timed out: %w", context.DeadlineExceeded)
	default:
		return fmt.Errorf("%s: %s", st.Code(), st.Message())
	}
}
