package job

import (
	"context"
	"fmt"
	"time"

	"github.com/moby/moby/api/types/container"
	dockerclient "github.com/moby/moby/client"
)

// containerPollInterval is how often a running container is re-inspected
// while waiting for it to exit.
const containerPollInterval = time.Second

// ContainerAction runs a docker image to completion and succeeds when the
// container exits zero.
type ContainerAction struct {
	Image string
	Cmd   []string
	Env   []string

	client *dockerclient.Client
}

// NewContainerAction validates and builds a container action. The docker
// client is connected lazily on first execution so that a daemon outage at
// load time does not block unrelated jobs.
func NewContainerAction(image string, cmd, env []string) (*ContainerAction, error) {
	if image == "" {
		return nil, fmt.Errorf("container action requires an image")
	}
	return &ContainerAction{Image: image, Cmd: cmd, Env: env}, nil
}

func (a *ContainerAction) Kind() string { return "container" }

func (a *ContainerAction) Execute(ctx context.Context) (string, error) {
	if a.client == nil {
		cli, err := dockerclient.New(dockerclient.WithAPIVersionNegotiation(), dockerclient.FromEnv)
		if err != nil {
			return "", fmt.Errorf("failed to connect to docker daemon: %w", err)
		}
		if _, err := cli.Ping(ctx, dockerclient.PingOptions{NegotiateAPIVersion: true}); err != nil {
			return "", fmt.Errorf("docker daemon not available: %w", err)
		}
		a.client = cli
	}

	created, err := a.client.ContainerCreate(ctx, dockerclient.ContainerCreateOptions{
		Image: a.Image,
		Config: &container.Config{
			Image: a.Image,
			Cmd:   a.Cmd,
			Env:   a.Env,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create container from %s: %w", a.Image, err)
	}
	id := created.ID

	defer func() {
		// Cleanup runs on a fresh context: the action context may already
		// be cancelled by timeout.
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = a.client.ContainerRemove(cleanupCtx, id, dockerclient.ContainerRemoveOptions{Force: true})
	}()

	if _, err := a.client.ContainerStart(ctx, id, dockerclient.ContainerStartOptions{}); err != nil {
		return "", fmt.Errorf("failed to start container %s: %w", id, err)
	}

	exitCode, err := a.waitForExit(ctx, id)
	if err != nil {
		return "", err
	}
	if exitCode != 0 {
		return "", fmt.Errorf("container %s (image %s) exited with code %d", id, a.Image, exitCode)
	}

	return fmt.Sprintf("container %s exited 0", id), nil
}

// waitForExit polls inspect until the container stops or ctx is cancelled.
func (a *ContainerAction) waitForExit(ctx context.Context, id string) (int, error) {
	ticker := time.NewTicker(containerPollInterval)
	defer ticker.Stop()

	for {
		result, err := a.client.ContainerInspect(ctx, id, dockerclient.ContainerInspectOptions{})
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			return 0, fmt.Errorf("failed to inspect container %s: %w", id, err)
		}
		if !result.Container.State.Running {
			return result.Container.State.ExitCode, nil
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
		}
	}
}
