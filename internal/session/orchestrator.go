package session

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/wagiedev/claude-session-go/internal/cli"
	"github.com/wagiedev/claude-session-go/internal/config"
	"github.com/wagiedev/claude-session-go/internal/errors"
	"github.com/wagiedev/claude-session-go/internal/eventbus"
	"github.com/wagiedev/claude-session-go/internal/message"
	"github.com/wagiedev/claude-session-go/internal/models"
	"github.com/wagiedev/claude-session-go/internal/registry"
	"github.com/wagiedev/claude-session-go/internal/stream"
	"github.com/wagiedev/claude-session-go/internal/subprocess"
)

// maxHistory bounds how many finished runs are remembered for State and
// Sessions.
const maxHistory = 256

// CreateRequest starts a new session.
type CreateRequest struct {
	Message     string
	ProjectPath string
	// Model is an alias or full id. Empty selects the configured default.
	Model string
}

// ResumeRequest continues an existing session.
type ResumeRequest struct {
	SessionID   string
	Message     string
	ProjectPath string
}

// run is the orchestrator's record of one spawned CLI process. All fields
// are guarded by Orchestrator.mu.
type run struct {
	info Info
	// registryKey is the key the registry holds the process under.
	registryKey string
	reconciled  bool
	// cancelRequested is set by a Cancel that arrived while spawning.
	cancelRequested bool
	// done is closed once the run reaches a terminal state.
	done chan struct{}
}

// Orchestrator owns the session lifecycle: create, resume and cancel.
// It is safe for concurrent use.
type Orchestrator struct {
	log        *slog.Logger
	opts       *config.Options
	discoverer cli.Discoverer
	spawner    subprocess.Spawner
	registry   *registry.Registry
	sink       eventbus.Sink
	models     *models.Normalizer

	mu   sync.Mutex
	runs []*run

	wg sync.WaitGroup
}

// New creates an orchestrator publishing every event to sink.
func New(opts *config.Options, sink eventbus.Sink) *Orchestrator {
	if opts == nil {
		opts = &config.Options{}
	}

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	spawner := opts.Spawner
	if spawner == nil {
		spawner = subprocess.NewExecSpawner(log)
	}

	if sink == nil {
		sink = eventbus.SinkFunc(func(string, message.Event) {})
	}

	return &Orchestrator{
		log:  log.With("component", "session"),
		opts: opts,
		discoverer: cli.NewDiscoverer(&cli.Config{
			CliPath:          opts.CliPath,
			SkipVersionCheck: opts.SkipVersionCheck,
			Logger:           log,
		}),
		spawner:  spawner,
		registry: registry.New(log),
		sink:     sink,
		models:   models.NewNormalizer(opts.ModelAliases),
	}
}

// Create starts a new session and returns its temporary key immediately.
// The process is registered before any output is read; events follow on
// the sink, first under the temporary key and then under the real id.
func (o *Orchestrator) Create(ctx context.Context, req CreateRequest) (string, error) {
	if strings.TrimSpace(req.Message) == "" {
		return "", errors.ErrEmptyMessage
	}

	cliPath, err := o.discoverer.Discover(ctx)
	if err != nil {
		return "", err
	}

	dir, err := ValidateProjectPath(req.ProjectPath)
	if err != nil {
		return "", err
	}

	model := req.Model
	if model == "" {
		model = o.opts.Model
	}

	if model == "" {
		model = config.DefaultModel
	}

	model = o.models.Normalize(model)

	key := NewTempKey()

	r := &run{
		info: Info{
			Key:         key,
			TempKey:     key,
			ProjectPath: dir,
			Model:       model,
		},
		done: make(chan struct{}),
	}

	cmd := subprocess.Command{
		Path: cliPath,
		Args: cli.BuildCreateArgs(req.Message, model, o.opts),
		Env:  cli.BuildEnvironment(o.opts),
		Dir:  dir,
	}

	if err := o.start(ctx, r, cmd); err != nil {
		return "", err
	}

	return key, nil
}

// Resume continues sessionID with a new message. The session keeps its
// key for the whole run.
func (o *Orchestrator) Resume(ctx context.Context, req ResumeRequest) error {
	if strings.TrimSpace(req.SessionID) == "" || IsTempKey(req.SessionID) {
		return errors.ErrInvalidSessionID
	}

	if strings.TrimSpace(req.Message) == "" {
		return errors.ErrEmptyMessage
	}

	cliPath, err := o.discoverer.Discover(ctx)
	if err != nil {
		return err
	}

	dir, err := ValidateProjectPath(req.ProjectPath)
	if err != nil {
		return err
	}

	if o.registry.Contains(req.SessionID) {
		return errors.ErrSessionRunning
	}

	r := &run{
		info: Info{
			Key:         req.SessionID,
			Resumed:     true,
			ProjectPath: dir,
		},
		reconciled: true,
		done:       make(chan struct{}),
	}

	cmd := subprocess.Command{
		Path: cliPath,
		Args: cli.BuildResumeArgs(req.SessionID, req.Message, o.opts),
		Env:  cli.BuildEnvironment(o.opts),
		Dir:  dir,
	}

	return o.start(ctx, r, cmd)
}

// Cancel kills the process running under key. It returns ErrNotRunning when
// nothing runs under key, including when the run already finished. A
// temporary key still cancels its run after reconciliation. A run that is
// still spawning is killed as soon as its process starts and never streams.
func (o *Orchestrator) Cancel(_ context.Context, key string) error {
	if key == "" {
		return errors.ErrInvalidSessionID
	}

	o.mu.Lock()

	target := key

	r := o.findLocked(key)
	if r != nil && r.info.State == StateSpawning {
		r.cancelRequested = true
		o.mu.Unlock()

		o.log.Info("Session cancelled while spawning", "session_id", key)

		return nil
	}

	if r != nil && r.registryKey != "" && !r.info.State.Terminal() {
		target = r.registryKey
	}

	o.mu.Unlock()

	err := o.registry.KillAndRemove(target)
	if stderrors.Is(err, errors.ErrNotRunning) && r != nil {
		// The run may have been rekeyed between the lookup and the kill.
		o.mu.Lock()
		moved := r.registryKey
		o.mu.Unlock()

		if moved != "" && moved != target {
			err = o.registry.KillAndRemove(moved)
		}
	}

	if err != nil {
		if stderrors.Is(err, errors.ErrNotRunning) {
			o.log.Debug("Nothing to cancel", "session_id", key)
		}

		return err
	}

	o.log.Info("Session cancelled", "session_id", key)

	return nil
}

// State returns the state of the most recent run known under key.
func (o *Orchestrator) State(key string) State {
	o.mu.Lock()
	defer o.mu.Unlock()

	if r := o.findLocked(key); r != nil {
		return r.info.State
	}

	return StateUnknown
}

// Info returns the most recent run known under key.
func (o *Orchestrator) Info(key string) (Info, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if r := o.findLocked(key); r != nil {
		return r.info, true
	}

	return Info{}, false
}

// Done returns a channel closed when the most recent run known under key
// finishes.
func (o *Orchestrator) Done(key string) (<-chan struct{}, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if r := o.findLocked(key); r != nil {
		return r.done, true
	}

	return nil, false
}

// Sessions returns every tracked run, oldest first.
func (o *Orchestrator) Sessions() []Info {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]Info, len(o.runs))
	for i, r := range o.runs {
		out[i] = r.info
	}

	return out
}

// Running returns the keys of live processes.
func (o *Orchestrator) Running() []string {
	keys := o.registry.Keys()
	slices.Sort(keys)

	return keys
}

// Wait blocks until every run started so far has finished streaming.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Shutdown kills every live process and waits for their streams to finish
// or for ctx to be done.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	if n := o.registry.KillAll(); n > 0 {
		o.log.Info("Killed live sessions", "count", n)
	}

	done := make(chan struct{})

	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// start spawns the process for r, registers it and starts the pump.
// On any failure the process, if started, is killed and reaped and nothing
// stays registered.
func (o *Orchestrator) start(ctx context.Context, r *run, cmd subprocess.Command) error {
	key := r.info.Key
	log := o.log.With("session_id", key)

	o.track(r)

	log.Debug("Spawning CLI", "dir", cmd.Dir, "args", cmd.Args)

	proc, err := o.spawner.Spawn(ctx, cmd)
	if err != nil {
		o.fail(r, err)

		return err
	}

	stdout := proc.Stdout()
	if stdout == nil {
		err := &errors.StdoutUnavailableError{}
		o.abandon(proc)
		o.fail(r, err)

		return err
	}

	o.mu.Lock()

	if r.cancelRequested {
		o.mu.Unlock()
		o.abandon(proc)
		o.cancelSpawning(r)

		return nil
	}

	// Insert under o.mu so a concurrent Cancel sees either the pending flag
	// or the registry entry.
	if err := o.registry.Insert(key, proc); err != nil {
		o.mu.Unlock()
		o.abandon(proc)
		o.fail(r, err)

		return err
	}

	r.registryKey = key
	r.info.Pid = proc.Pid()
	o.transitionLocked(r, StateStreaming)
	o.mu.Unlock()

	pump := stream.New(o.log, stream.Config{
		Key:         key,
		Stdout:      stdout,
		Stderr:      proc.Stderr(),
		Sink:        o.sink,
		OnSessionID: func(id string) string { return o.onSessionID(r, id) },
		OnStderr:    o.stderrCallback(r),
	})

	pumpCtx := context.WithoutCancel(ctx)

	o.wg.Go(func() {
		res := pump.Run(pumpCtx)
		o.finish(r, proc, res)
	})

	return nil
}

// onSessionID reconciles a created session with the id announced by the
// CLI. Only the first announcement counts. It returns the key to publish
// under from now on, or "" to keep the current one.
func (o *Orchestrator) onSessionID(r *run, realID string) string {
	o.mu.Lock()

	if r.reconciled {
		current := r.info.Key
		resumed := r.info.Resumed
		o.mu.Unlock()

		if resumed && realID != current {
			o.log.Warn("Resumed session reported a different id",
				"session_id", current, "reported_id", realID)
		}

		return ""
	}

	r.reconciled = true
	tempKey := r.info.TempKey
	o.mu.Unlock()

	moved := o.registry.Rekey(tempKey, realID)

	o.mu.Lock()
	r.info.Key = realID

	if moved {
		r.registryKey = realID
	}

	o.mu.Unlock()

	if !moved {
		o.log.Warn("Registry entry not moved to real session id",
			"temp_id", tempKey, "session_id", realID)
	}

	o.log.Info("Session id reconciled", "temp_id", tempKey, "session_id", realID)

	ev := message.SessionIDUpdated{TempID: tempKey, RealID: realID}
	o.sink.Publish(tempKey, ev)
	o.sink.Publish(realID, ev)

	return realID
}

// finish releases the registration after the pump ended and records the
// terminal state. A run whose entry was already removed was cancelled. A
// non-zero exit of any other run is published as an ErrorEvent.
func (o *Orchestrator) finish(r *run, proc subprocess.Proc, res stream.Result) {
	defer close(r.done)

	o.mu.Lock()
	registryKey := r.registryKey
	o.mu.Unlock()

	removed, waitErr := o.registry.Release(registryKey, proc)

	var failure *errors.ProcessError

	o.mu.Lock()

	r.info.ExitCode = subprocess.ExitCode(waitErr)
	r.info.EndedAt = time.Now()

	if removed {
		if waitErr != nil {
			failure = &errors.ProcessError{
				ExitCode: r.info.ExitCode,
				Stderr:   res.Stderr,
				Err:      waitErr,
			}
			r.info.Error = failure.Error()
		}

		o.transitionLocked(r, StateCompleted)
	} else {
		o.transitionLocked(r, StateCancelled)
	}

	o.mu.Unlock()

	if failure != nil {
		o.log.Warn("CLI exited unsuccessfully", "session_id", res.Key, "exit_code", failure.ExitCode)
		o.sink.Publish(res.Key, message.ErrorEvent{Message: failure.Error()})
	}
}

// abandon kills and reaps a process that never made it into the registry.
func (o *Orchestrator) abandon(proc subprocess.Proc) {
	if err := proc.Kill(); err != nil {
		o.log.Warn("Failed to kill abandoned process", "pid", proc.Pid(), "error", err)
	}

	_ = proc.Wait()
}

func (o *Orchestrator) cancelSpawning(r *run) {
	o.mu.Lock()
	defer o.mu.Unlock()

	r.info.EndedAt = time.Now()

	o.transitionLocked(r, StateCancelled)
	close(r.done)
}

func (o *Orchestrator) fail(r *run, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	r.info.Error = err.Error()
	r.info.EndedAt = time.Now()

	o.log.Error("Session failed to start", "session_id", r.info.Key, "error", err)
	o.transitionLocked(r, StateFailed)
	close(r.done)
}

func (o *Orchestrator) stderrCallback(r *run) func(string) {
	if o.opts.Stderr == nil {
		return nil
	}

	return func(line string) {
		o.mu.Lock()
		key := r.info.Key
		o.mu.Unlock()

		o.opts.Stderr(key, line)
	}
}

// track records a new run in the Spawning state, evicting the oldest
// finished runs beyond maxHistory.
func (o *Orchestrator) track(r *run) {
	o.mu.Lock()
	defer o.mu.Unlock()

	r.info.State = StateSpawning
	r.info.StartedAt = time.Now()
	o.runs = append(o.runs, r)

	o.log.Debug("Session state changed", "session_id", r.info.Key, "to", StateSpawning)

	for len(o.runs) > maxHistory {
		i := slices.IndexFunc(o.runs, func(r *run) bool { return r.info.State.Terminal() })
		if i < 0 {
			break
		}

		o.runs = slices.Delete(o.runs, i, i+1)
	}
}

func (o *Orchestrator) transitionLocked(r *run, to State) {
	from := r.info.State
	if !canTransition(from, to) {
		o.log.Warn("Ignoring invalid session transition", "session_id", r.info.Key, "from", from, "to", to)

		return
	}

	r.info.State = to

	o.log.Info("Session state changed", "session_id", r.info.Key, "from", from, "to", to)
}

// findLocked returns the newest run known under key.
func (o *Orchestrator) findLocked(key string) *run {
	for i := len(o.runs) - 1; i >= 0; i-- {
		if o.runs[i].info.Matches(key) {
			return o.runs[i]
		}
	}

	return nil
}
