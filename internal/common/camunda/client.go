// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"time"

	"member-pipeline/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

const (
	defaultConnectionTimeout = 10 * time.Second
	defaultRequestTimeout    = 30 * time.Second
)

// Client owns the gateway connection shared by the pipeline job workers.
type Client struct {
	client zbc.Client
	config ClientConfig
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	// ConnectionTimeout bounds the topology probe made while connecting.
	ConnectionTimeout time.Duration
	// RequestTimeout bounds later topology requests such as readiness checks.
	RequestTimeout time.Duration
}

// Topology is the part of the cluster topology the readiness endpoint reports.
type Topology struct {
	GatewayVersion string `json:"gatewayVersion"`
	Brokers        int    `json:"brokers"`
	Partitions     int    `json:"partitions"`
}

// NewClient connects over plaintext with default timeouts.
func NewClient(address string) (*Client, error) {
	return NewClientWithConfig(&ClientConfig{
		GatewayAddress:         address,
		UsePlaintextConnection: true,
	})
}

// NewClientWithConfig connects and returns only once the gateway has
// answered a topology request.
func NewClientWithConfig(cfg *ClientConfig) (*Client, error) {
	if cfg.GatewayAddress == "" {
		return nil, errors.NewConfigInvalidError("camunda.broker_address is required", nil)
	}
	c := &Client{config: *cfg}
	if c.config.ConnectionTimeout <= 0 {
		c.config.ConnectionTimeout = defaultConnectionTimeout
	}
	if c.config.RequestTimeout <= 0 {
		c.config.RequestTimeout = defaultRequestTimeout
	}

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         c.config.GatewayAddress,
		UsePlaintextConnection: c.config.UsePlaintextConnection,
	})
	if err != nil {
		return nil, errors.NewBrokerUnavailableError("connect", fmt.Errorf("create zeebe client: %w", err))
	}
	c.client = zeebeClient

	if _, err := c.topology(context.Background(), c.config.ConnectionTimeout); err != nil {
		zeebeClient.Close()
		return nil, errors.NewBrokerUnavailableError("connect",
			fmt.Errorf("gateway %s: %w", c.config.GatewayAddress, err))
	}
	return c, nil
}

// GetClient returns the raw Zeebe client for job worker registration.
func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Topology queries the gateway within the configured request timeout.
func (c *Client) Topology(ctx context.Context) (*Topology, error) {
	t, err := c.topology(ctx, c.config.RequestTimeout)
	if err != nil {
		return nil, errors.NewBrokerUnavailableError("topology", err)
	}
	return t, nil
}

// HealthCheck fails when the gateway does not answer or reports no brokers.
func (c *Client) HealthCheck(ctx context.Context) error {
	t, err := c.Topology(ctx)
	if err != nil {
		return err
	}
	if t.Brokers == 0 {
		return errors.NewBrokerUnavailableError("health-check", fmt.Errorf("no brokers in topology"))
	}
	return nil
}

func (c *Client) topology(ctx context.Context, timeout time.Duration) (*Topology, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.client.NewTopologyCommand().Send(ctx)
	if err != nil {
		return nil, err
	}
	return &Topology{
		GatewayVersion: resp.GetGatewayVersion(),
		Brokers:        len(resp.GetBrokers()),
		Partitions:     int(resp.GetPartitionsCount()),
	}, nil
}
