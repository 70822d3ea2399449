// Package sandbox launches the mesh under test as a labeled container so a
// scenario runs against a clean, disposable system. Scenarios with no
// sandbox image skip this entirely and drive an externally managed mesh.
package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/mount"
	"github.com/moby/moby/client"
	"github.com/signalnine/meshbench/internal/mesh"
)

type Opts struct {
	Image   string
	RunDir  string
	EnvFile string
}

// Start creates and starts the mesh container, bind-mounting the run
// directory at /run-data. Returns the container ID for teardown.
func Start(ctx context.Context, opts *Opts) (string, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return "", fmt.Errorf("creating docker client: %w", err)
	}
	defer cli.Close()

	var env []string
	if opts.EnvFile != "" {
		vars, err := godotenv.Read(opts.EnvFile)
		if err != nil {
			return "", fmt.Errorf("reading env file: %w", err)
		}
		for k, v := range vars {
			env = append(env, k+"="+v)
		}
	}

	initTrue := true
	hostCfg := &container.HostConfig{
		Init: &initTrue,
		Mounts: []mount.Mount{
			{
				Type:   mount.TypeBind,
				Source: opts.RunDir,
				Target: "/run-data",
			},
		},
	}

	containerCfg := &container.Config{
		Image:  opts.Image,
		Env:    env,
		Labels: map[string]string{"meshbench": "true"},
	}

	createResp, err := cli.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config:     containerCfg,
		HostConfig: hostCfg,
	})
	if err != nil {
		return "", fmt.Errorf("creating sandbox container: %w", err)
	}
	if _, err := cli.ContainerStart(ctx, createResp.ID, client.ContainerStartOptions{}); err != nil {
		cli.ContainerRemove(context.Background(), createResp.ID, client.ContainerRemoveOptions{Force: true})
		return "", fmt.Errorf("starting sandbox container: %w", err)
	}
	return createResp.ID, nil
}

// WaitReady polls the supervisor until it answers, i.e. the mesh inside the
// sandbox is up. The supervisor erroring means "not yet", not failure.
func WaitReady(ctx context.Context, sup *mesh.Supervisor, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := sup.List(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return fmt.Errorf("mesh not ready after %s", timeout)
}

// Stop force-removes the sandbox container. Best-effort and idempotent:
// removing an already-gone container is not an error.
func Stop(ctx context.Context, containerID string) error {
	if containerID == "" {
		return nil
	}
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return fmt.Errorf("creating docker client: %w", err)
	}
	defer cli.Close()

	cli.ContainerRemove(ctx, containerID, client.ContainerRemoveOptions{Force: true})
	return nil
}
