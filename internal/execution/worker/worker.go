package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Worker is a process handling messages of type I with replies of type O.
type Worker[I, O any] interface {
	Start(context.Context) error
	Terminate() error
	Kill() error
	Send(context.Context, I, SendConfig) (O, error)
	DuplexPipe() (io.ReadWriteCloser, error)
	Wait(context.Context) (ExitEvent, error)
	WaitFor(context.Context, time.Duration) (ExitEvent, error)
	Pid() int
}

// ProcessWorker runs the configured command as a child process and
// exchanges JSON messages with it over stdin and stdout.
type ProcessWorker[I, O any] struct {
	ctx    context.Context
	config StartConfig

	processLock sync.Mutex
	process     *proc
	decoder     *json.Decoder
	exitChan    chan ExitEvent

	stderr   bytes.Buffer
	stderrWg sync.WaitGroup

	msgid     int
	msgidLock sync.Mutex

	log *zap.Logger
}

var _ Worker[any, any] = (*ProcessWorker[any, any])(nil)

// NewProcessWorker creates a worker for the given command. The process
// is killed as soon as ctx is done.
func NewProcessWorker[I, O any](
	ctx context.Context,
	config StartConfig,
	log *zap.Logger,
) *ProcessWorker[I, O] {
	return &ProcessWorker[I, O]{
		ctx:      ctx,
		config:   config,
		exitChan: make(chan ExitEvent, 1),
		log:      log.Named("worker"),
	}
}

// Start starts the worker process.
func (w *ProcessWorker[I, O]) Start(ctx context.Context) error {
	w.log.With(
		zap.String("command", w.config.Cmd),
		zap.Strings("args", w.config.Args),
		zap.String("cwd", w.config.Cwd),
	).Debug("starting worker process")

	w.processLock.Lock()
	defer w.processLock.Unlock()

	if w.process != nil {
		return ErrWorkerAlreadyStarted
	}

	// exit early if either context is already cancelled
	if err := errors.Join(ctx.Err(), w.ctx.Err()); err != nil {
		return fmt.Errorf("failed to start process: %w", err)
	}

	process, err := startProc(w.config, w.log)
	if err != nil {
		return fmt.Errorf("failed to start process: %w", err)
	}

	w.process = process
	w.decoder = json.NewDecoder(process.StdoutPipe())

	// read from stderr and save it for later use
	w.stderrWg.Add(1)
	go func() {
		defer w.stderrWg.Done()

		if _, err := io.Copy(&w.stderr, process.StderrPipe()); err != nil {
			w.log.Debug("failed to read from stderr", zap.Error(err))
		}
	}()

	// publish the exit event once the process has terminated
	go func() {
		err := process.Wait()

		w.stderrWg.Wait()

		w.exitChan <- getExitEvent(err, w.stderr.String())
		close(w.exitChan)
	}()

	// kill the process without further ado once the
	// lifetime context of the worker is done
	go func() {
		select {
		case <-process.Done():
		case <-w.ctx.Done():
			process.Kill(-1)
		}
	}()

	return nil
}

// Wait blocks until the worker process exits and returns its ExitEvent.
// The event is delivered to a single caller only.
func (w *ProcessWorker[I, O]) Wait(ctx context.Context) (ExitEvent, error) {
	select {
	case <-ctx.Done():
		return ExitEvent{}, ctx.Err()
	case evt, ok := <-w.exitChan:
		if !ok {
			return ExitEvent{}, ErrWorkerNotStarted
		}
		return evt, nil
	}
}

// WaitFor is Wait bounded by deadline. A deadline <= 0 waits indefinitely.
func (w *ProcessWorker[I, O]) WaitFor(
	ctx context.Context,
	deadline time.Duration,
) (ExitEvent, error) {
	var waitCtx context.Context
	var cancel context.CancelFunc

	if deadline <= 0 {
		waitCtx, cancel = context.WithCancel(ctx)
	} else {
		waitCtx, cancel = context.WithTimeout(ctx, deadline)
	}

	defer cancel()

	return w.Wait(waitCtx)
}

// Kill sends SIGKILL to the worker process group. It returns without
// waiting for the process to stop.
func (w *ProcessWorker[I, O]) Kill() error {
	if process := w.acquireProcess(); process != nil {
		return process.Kill(-1)
	}

	return ErrWorkerNotStarted
}

// Terminate sends SIGTERM to the worker process group. It returns
// without waiting for the process to stop.
func (w *ProcessWorker[I, O]) Terminate() error {
	if process := w.acquireProcess(); process != nil {
		return process.Terminate(-1)
	}

	return ErrWorkerNotStarted
}

// Send writes data as a JSON message to the stdin of the worker and
// reads the reply from its stdout. The reply must carry the id of the
// request.
func (w *ProcessWorker[I, O]) Send(
	ctx context.Context,
	data I,
	params SendConfig,
) (O, error) {
	var result O

	process := w.acquireProcess()
	if process == nil {
		return result, ErrWorkerNotStarted
	}

	msgID, err := w.writeJsonStdin(process, data)
	if err != nil {
		return result, fmt.Errorf("failed to write message: %w", err)
	}

	if params.CloseAfterSend {
		if err := process.Close(); err != nil {
			return result, err
		}
	}

	msg, err := w.readJsonStdout(ctx, params.Timeout)
	if err != nil {
		return result, fmt.Errorf("failed to read message: %w", err)
	}

	if msg.ID != msgID {
		return result, fmt.Errorf("unexpected message id: expected %d, got %d", msgID, msg.ID)
	}

	return msg.Data, nil
}

// DuplexPipe returns a pipe reading from stdout and writing to stdin
// of the running worker process.
func (w *ProcessWorker[I, O]) DuplexPipe() (io.ReadWriteCloser, error) {
	process := w.acquireProcess()
	if process == nil {
		return nil, ErrWorkerNotStarted
	}

	return &duplexPipe{
		reader: process.StdoutPipe(),
		writer: process.StdinPipe(),
	}, nil
}

func (w *ProcessWorker[I, O]) Pid() int {
	if process := w.acquireProcess(); process != nil {
		return process.pid
	}

	return 0
}

func (w *ProcessWorker[I, O]) writeJsonStdin(process *proc, data I) (int, error) {
	reqID := w.nextMsgID()

	req := Message[I]{
		ID:   reqID,
		Data: data,
	}

	if err := json.NewEncoder(process.StdinPipe()).Encode(req); err != nil {
		return 0, err
	}

	return reqID, nil
}

func (w *ProcessWorker[I, O]) readJsonStdout(
	ctx context.Context,
	timeout time.Duration,
) (Message[O], error) {
	var result Message[O]

	decoder := w.acquireDecoder()

	// decode in a goroutine, as the decoder does not
	// support timeouts and context cancellation
	done := make(chan error, 1)
	go func() {
		done <- decoder.Decode(&result)
	}()

	if timeout > 0 {
		timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		ctx = timeoutCtx
	}

	select {
	case <-ctx.Done():
		return result, ctx.Err()
	case err := <-done:
		return result, err
	}
}

func (w *ProcessWorker[I, O]) acquireProcess() *proc {
	w.processLock.Lock()
	defer w.processLock.Unlock()

	return w.process
}

func (w *ProcessWorker[I, O]) acquireDecoder() *json.Decoder {
	w.processLock.Lock()
	defer w.processLock.Unlock()

	return w.decoder
}

func (w *ProcessWorker[I, O]) nextMsgID() int {
	w.msgidLock.Lock()
	defer w.msgidLock.Unlock()

	id := w.msgid
	w.msgid++

	return id
}

// MARK: - Helpers

type duplexPipe struct {
	reader io.ReadCloser
	writer io.WriteCloser
}

func (p *duplexPipe) Read(b []byte) (int, error) {
	return p.reader.Read(b)
}

func (p *duplexPipe) Write(b []byte) (int, error) {
	return p.writer.Write(b)
}

func (p *duplexPipe) Close() error {
	return errors.Join(p.writer.Close(), p.reader.Close())
}

func getExitEvent(err error, stderr string) ExitEvent {
	var cell int
	var exitStatus *int
	var signo *int

	var exitError *exec.ExitError

	if err == nil {
		// the process exited successfully
		exitStatus = &cell
	} else if errors.As(err, &exitError) {
		if status, ok := exitError.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				cell = int(status.Signal())
				signo = &cell
			} else {
				cell = status.ExitStatus()
				exitStatus = &cell
			}
		}
	}

	if signo == nil && exitStatus == nil {
		// could not determine the exit status or signal
		cell = 1
		exitStatus = &cell
	}

	return ExitEvent{
		Code:   exitStatus,
		Signal: signo,
		Stderr: stderr,
	}
}
