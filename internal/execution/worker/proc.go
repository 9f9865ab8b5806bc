package worker

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

type proc struct {
	pid         int
	termination chan error
	done        chan struct{}
	stdout      io.ReadCloser
	stderr      io.ReadCloser
	stdin       io.WriteCloser
	closeOnce   sync.Once

	log *zap.Logger
}

func startProc(config StartConfig, log *zap.Logger) (*proc, error) {
	cmd := exec.Command(config.Cmd, config.Args...)

	if len(config.Env) > 0 {
		env := os.Environ()
		for k, v := range config.Env {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
		cmd.Env = env
	}

	if config.Cwd != "" {
		cmd.Dir = config.Cwd
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}

	// stdout and stderr use plain os pipes, as the pipes returned by
	// cmd.StdoutPipe are closed by cmd.Wait before we are done reading
	stdout, stdoutWriter, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	stderr, stderrWriter, err := os.Pipe()
	if err != nil {
		stdout.Close()
		stdoutWriter.Close()
		return nil, err
	}

	cmd.Stdout = stdoutWriter
	cmd.Stderr = stderrWriter

	setProcAttr(cmd)

	err = cmd.Start()

	// the child owns the write ends now
	stdoutWriter.Close()
	stderrWriter.Close()

	if err != nil {
		stdout.Close()
		stderr.Close()
		return nil, err
	}

	process := &proc{
		pid:         cmd.Process.Pid,
		termination: make(chan error, 1),
		done:        make(chan struct{}),
		stdout:      stdout,
		stderr:      stderr,
		stdin:       stdin,
		log:         log.Named("proc").With(zap.Int("pid", cmd.Process.Pid)),
	}

	go func() {
		// block until the process exits
		err := cmd.Wait()

		// report the exit error to the first waiter
		process.termination <- err

		// signal termination to everyone else
		close(process.done)
	}()

	return process, nil
}

// Done returns a channel that is closed once the process has exited.
func (p *proc) Done() <-chan struct{} {
	return p.done
}

// Terminate asks the process group to stop and waits up to timeout.
func (p *proc) Terminate(timeout time.Duration) error {
	defer p.closeOutput()

	// terminate should report success if the process
	// terminated by the time the request arrives.
	select {
	case <-p.done:
		p.log.Debug("process already terminated")
		return nil
	default:
	}

	p.kill(syscall.SIGTERM)

	return p.waitForTermination(timeout)
}

// Kill forcefully stops the process group and waits up to timeout.
func (p *proc) Kill(timeout time.Duration) error {
	defer p.closeOutput()

	select {
	case <-p.done:
		p.log.Debug("process already terminated")
		return nil
	default:
	}

	p.kill(syscall.SIGKILL)

	return p.waitForTermination(timeout)
}

// Wait blocks until the process exits and returns its exit error.
func (p *proc) Wait() error {
	return <-p.termination
}

func (p *proc) waitForTermination(timeout time.Duration) error {
	// if timeout is < 0, don't wait for the process to exit
	if timeout < 0 {
		return nil
	}

	// if timeout is 0, wait indefinitely
	if timeout == 0 {
		<-p.done
		return nil
	}

	select {
	case <-p.done:
		return nil
	case <-time.After(timeout):
		return ErrKillTimeout
	}
}

func (p *proc) kill(signal syscall.Signal) {
	log := p.log.With(zap.Stringer("signal", signal))

	// close stdin before killing the process, to
	// avoid the process hanging on input
	if err := p.stdin.Close(); err != nil {
		log.Debug("close stdin failed", zap.Error(err))
	}

	log.Debug("sending signal")

	// best effort, ignore errors
	if err := signalProcess(p.pid, signal); err != nil {
		log.Error("stop failed", zap.Error(err))
	}
}

// closeOutput releases the read ends of stdout and stderr.
func (p *proc) closeOutput() {
	p.closeOnce.Do(func() {
		p.stdout.Close()
		p.stderr.Close()
	})
}

// Close closes the stdin pipe of the process.
func (p *proc) Close() error {
	return p.stdin.Close()
}

// StdinPipe returns the pipe connected to the standard input of the process.
func (p *proc) StdinPipe() io.WriteCloser {
	return p.stdin
}

// StdoutPipe returns the pipe connected to the standard output of the process.
func (p *proc) StdoutPipe() io.ReadCloser {
	return p.stdout
}

// StderrPipe returns the pipe connected to the standard error of the process.
func (p *proc) StderrPipe() io.ReadCloser {
	return p.stderr
}
