package network

import (
	"context"

	"github.com/pkg/errors"
	"github.com/testcontainers/testcontainers-go"
	tcnetwork "github.com/testcontainers/testcontainers-go/network"
)

// Network is the bridge network shared by the containers of one suite.
type Network struct {
	project string
	docker  *testcontainers.DockerNetwork
}

func NewNetwork(ctx context.Context, project string) (*Network, error) {
	docker, err := tcnetwork.New(ctx,
		tcnetwork.WithDriver(testcontainers.Bridge),
		tcnetwork.WithAttachable(),
		tcnetwork.WithLabels(map[string]string{
			"project":   project,
			"component": "dispatch",
		}),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "create docker network for %s", project)
	}

	return &Network{project: project, docker: docker}, nil
}

func (n *Network) Name() string { return n.docker.Name }

// Remove is safe on a nil network so suites can defer it unconditionally.
func (n *Network) Remove(ctx context.Context) error {
	if n == nil || n.docker == nil {
		return nil
	}
	if err := n.docker.Remove(ctx); err != nil {
		return errors.Wrapf(err, "remove docker network for %s", n.project)
	}
	return nil
}
