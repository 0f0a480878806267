package docker

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/mount"
	"github.com/moby/moby/client"
)

type RunOpts struct {
	Image       string
	Command     []string
	WorkDir     string
	Env         map[string]string
	Timeout     time.Duration
	ExtraMounts []Mount
	CPULimit    float64
	MemoryLimit int64
	UserID      string
}

type Mount struct {
	Source   string
	Target   string
	ReadOnly bool
}

type RunResult struct {
	ExitCode int
	Output   string
	TimedOut bool
	Duration time.Duration
}

// RunContainer runs a command in a fresh container with the work directory
// bind-mounted at /workspace, waits for exit or timeout, and removes the
// container afterwards.
func RunContainer(ctx context.Context, opts *RunOpts) (*RunResult, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}
	defer cli.Close()

	envSlice := make([]string, 0, len(opts.Env))
	for k, v := range opts.Env {
		envSlice = append(envSlice, k+"="+v)
	}

	mounts := []mount.Mount{
		{
			Type:   mount.TypeBind,
			Source: opts.WorkDir,
			Target: "/workspace",
		},
	}
	for _, m := range opts.ExtraMounts {
		mounts = append(mounts, mount.Mount{
			Type:     mount.TypeBind,
			Source:   m.Source,
			Target:   m.Target,
			ReadOnly: m.ReadOnly,
		})
	}

	initTrue := true
	hostCfg := &container.HostConfig{
		Mounts: mounts,
		Init:   &initTrue,
	}
	if opts.CPULimit > 0 {
		hostCfg.NanoCPUs = int64(opts.CPULimit * 1e9)
	}
	if opts.MemoryLimit > 0 {
		hostCfg.Memory = opts.MemoryLimit
	}
	hostCfg.ExtraHosts = []string{"host.docker.internal:host-gateway"}

	containerCfg := &container.Config{
		Image:      opts.Image,
		Cmd:        opts.Command,
		Env:        envSlice,
		WorkingDir: "/workspace",
		Labels:     map[string]string{"driftbench": "true"},
	}
	if opts.UserID != "" {
		containerCfg.User = opts.UserID
	}

	createResp, err := cli.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config:     containerCfg,
		HostConfig: hostCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("creating container: %w", err)
	}
	containerID := createResp.ID
	defer func() {
		cli.ContainerRemove(context.Background(), containerID, client.ContainerRemoveOptions{Force: true})
	}()

	start := time.Now()
	if _, err := cli.ContainerStart(ctx, containerID, client.ContainerStartOptions{}); err != nil {
		return nil, fmt.Errorf("starting container: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	waitResult := cli.ContainerWait(timeoutCtx, containerID, client.ContainerWaitOptions{
		Condition: container.WaitConditionNotRunning,
	})
	for {
		select {
		case err := <-waitResult.Error:
			if err != nil {
				cli.ContainerKill(context.Background(), containerID, client.ContainerKillOptions{Signal: "SIGKILL"})
				return &RunResult{
					ExitCode: 124,
					Output:   containerLogs(cli, containerID),
					TimedOut: true,
					Duration: time.Since(start),
				}, nil
			}
			// nil error means no error on this channel; wait for result
		case status := <-waitResult.Result:
			return &RunResult{
				ExitCode: int(status.StatusCode),
				Output:   containerLogs(cli, containerID),
				TimedOut: false,
				Duration: time.Since(start),
			}, nil
		}
	}
}

func containerLogs(cli *client.Client, containerID string) string {
	logReader, err := cli.ContainerLogs(context.Background(), containerID, client.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil || logReader == nil {
		return ""
	}
	defer logReader.Close()
	data, _ := io.ReadAll(logReader)
	return string(data)
}

// CommandOpts describes a single shell command to run in a validation image.
type CommandOpts struct {
	Image   string
	WorkDir string
	Command string
	Env     map[string]string
	Timeout time.Duration
}

// RunCommand runs a shell command inside a container and returns its exit
// code and combined output. Used for containerized assertion checks.
func RunCommand(ctx context.Context, opts *CommandOpts) (*RunResult, error) {
	return RunContainer(ctx, &RunOpts{
		Image:   opts.Image,
		Command: []string{"sh", "-c", opts.Command},
		WorkDir: opts.WorkDir,
		Env:     opts.Env,
		Timeout: opts.Timeout,
	})
}
