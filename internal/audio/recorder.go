package audio

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// CommandRecorder streams raw 16-bit little-endian mono PCM from an external capture command.
type CommandRecorder struct {
	Command    string
	Args       []string // replaces the default arecord arguments when set
	Device     string
	SampleRate int
}

// Start launches the recorder. Closing the returned stream kills the process.
func (r *CommandRecorder) Start(ctx context.Context) (io.ReadCloser, error) {
	ctx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(ctx, r.Command, r.args()...) //nolint:gosec // command comes from local config

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("recorder stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start %s: %w", r.Command, err)
	}

	return &recording{ReadCloser: stdout, cmd: cmd, cancel: cancel}, nil
}

func (r *CommandRecorder) args() []string {
	if len(r.Args) > 0 {
		return r.Args
	}
	args := []string{"-q", "-t", "raw", "-f", "S16_LE", "-c", "1", "-r", strconv.Itoa(r.SampleRate)}
	if r.Device != "" {
		args = append(args, "-D", r.Device)
	}
	return args
}

// recording is the recorder's stdout; Close stops the process and reaps it.
type recording struct {
	io.ReadCloser
	cmd    *exec.Cmd
	cancel context.CancelFunc
	once   sync.Once
}

func (r *recording) Close() error {
	r.once.Do(func() {
		r.cancel()
		// Killed by cancel: a non-zero exit status is expected.
		_ = r.cmd.Wait()
	})
	return nil
}

// ListDevices returns the capture device listing of the recorder tooling (arecord -l).
func ListDevices(ctx context.Context, command string) (string, error) {
	out, err := exec.CommandContext(ctx, command, "-l").CombinedOutput() //nolint:gosec // command comes from local config
	if err != nil {
		return "", fmt.Errorf("%s -l: %w: %s", command, err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}
