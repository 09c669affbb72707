package redis

import (
	"context"
	"net"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/aasmaanchaalak/inventoryapp-sub001/platform/logger"
)

const (
	redisPort           = "6379"
	redisStartupTimeout = 30 * time.Second
)

type Logger interface {
	Info(ctx context.Context, msg string, fields ...zap.Field)
	Error(ctx context.Context, msg string, fields ...zap.Field)
}

type Config struct {
	NetworkName   string
	ContainerName string
	ImageName     string
	Logger        Logger

	Addr string
}

type Option func(*Config)

func WithNetworkName(network string) Option {
	return func(c *Config) { c.NetworkName = network }
}

func WithContainerName(name string) Option {
	return func(c *Config) { c.ContainerName = name }
}

func WithImageName(image string) Option {
	return func(c *Config) { c.ImageName = image }
}

func WithLogger(logger Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

type Container struct {
	container testcontainers.Container
	client    *goredis.Client
	cfg       *Config
}

func NewContainer(ctx context.Context, opts ...Option) (*Container, error) {
	cfg := &Config{
		ContainerName: "redis-container",
		ImageName:     "redis:7-alpine",
		Logger:        logger.NoopLogger{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Name:         cfg.ContainerName,
		Image:        cfg.ImageName,
		ExposedPorts: []string{redisPort + "/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(redisStartupTimeout),
		HostConfigModifier: func(hc *container.HostConfig) {
			hc.AutoRemove = true
		},
	}
	if cfg.NetworkName != "" {
		req.Networks = []string{cfg.NetworkName}
		req.NetworkAliases = map[string][]string{cfg.NetworkName: {"redis"}}
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, errors.Errorf("failed to start redis container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, errors.Errorf("failed to get container host: %v", err)
	}
	port, err := c.MappedPort(ctx, nat.Port(redisPort+"/tcp"))
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, errors.Errorf("failed to get mapped port: %v", err)
	}
	cfg.Addr = net.JoinHostPort(host, port.Port())

	client := goredis.NewClient(&goredis.Options{Addr: cfg.Addr})
	if err = client.Ping(ctx).Err(); err != nil {
		_ = c.Terminate(ctx)
		return nil, errors.Errorf("failed to ping redis: %v", err)
	}

	cfg.Logger.Info(ctx, "Redis container started", zap.String("addr", cfg.Addr))

	return &Container{container: c, client: client, cfg: cfg}, nil
}

func (c *Container) Client() *goredis.Client {
	return c.client
}

func (c *Container) Config() *Config {
	return c.cfg
}

func (c *Container) Terminate(ctx context.Context) error {
	if err := c.client.Close(); err != nil {
		c.cfg.Logger.Error(ctx, "failed to close redis client", zap.Error(err))
	}
	if err := c.container.Terminate(ctx); err != nil {
		c.cfg.Logger.Error(ctx, "failed to terminate redis container", zap.Error(err))
		return err
	}
	c.cfg.Logger.Info(ctx, "Redis container terminated")
	return nil
}
