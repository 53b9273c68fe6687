package backend

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// dockerAPI is the subset of *client.Client used to drive containers.
type dockerAPI interface {
	Ping(ctx context.Context) (types.Ping, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error)
	Close() error
}

// Docker starts existing containers by name or ID and waits for them to stop.
type Docker struct {
	api dockerAPI
}

// NewDocker connects using the DOCKER_HOST, DOCKER_API_VERSION,
// DOCKER_CERT_PATH and DOCKER_TLS_VERIFY environment.
func NewDocker() (*Docker, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Docker{api: cli}, nil
}

func (d *Docker) Ping(ctx context.Context) error {
	if _, err := d.api.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping docker daemon: %w", err)
	}
	return nil
}

func (d *Docker) Start(ctx context.Context, name string) error {
	return d.api.ContainerStart(ctx, name, container.StartOptions{})
}

func (d *Docker) Wait(ctx context.Context, name string) Completion {
	respC, errC := d.api.ContainerWait(ctx, name, container.WaitConditionNotRunning)
	return classifyWait(ctx, respC, errC)
}

func (d *Docker) Close() error {
	return d.api.Close()
}

func classifyWait(ctx context.Context, respC <-chan container.WaitResponse, errC <-chan error) Completion {
	select {
	case resp, ok := <-respC:
		if !ok {
			return Completion{Outcome: NoResponse}
		}
		return classifyWaitResponse(resp)
	case err, ok := <-errC:
		if !ok || err == nil {
			return Completion{Outcome: NoResponse}
		}
		return Completion{Outcome: Errored, Err: err}
	case <-ctx.Done():
		return Completion{Outcome: Errored, Err: ctx.Err()}
	}
}

func classifyWaitResponse(resp container.WaitResponse) Completion {
	if resp.Error != nil && resp.Error.Message != "" {
		return Completion{
			Outcome:    FailedMessage,
			Message:    resp.Error.Message,
			StatusCode: resp.StatusCode,
		}
	}

	if resp.StatusCode != 0 {
		return Completion{Outcome: FailedStatus, StatusCode: resp.StatusCode}
	}

	return Completion{Outcome: Succeeded}
}
