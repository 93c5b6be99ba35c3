// Package engine wires the motion history, predictor, classifier, optimizer
// and prediction queue together and drives them on a fixed tick cadence
// decoupled from the render loop.
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flowbox-vr/flowbox/internal/monitoring"
	"github.com/flowbox-vr/flowbox/internal/motion"
	"github.com/flowbox-vr/flowbox/internal/outcome"
	"github.com/flowbox-vr/flowbox/internal/predict"
	"github.com/flowbox-vr/flowbox/internal/stance"
	"github.com/flowbox-vr/flowbox/internal/target"
	"github.com/flowbox-vr/flowbox/internal/timeutil"
)

// Lifecycle states. The engine moves Uninitialized → Running → Disposed and
// never back.
const (
	stateUninitialized int32 = iota
	stateRunning
	stateDisposed
)

var (
	// ErrAlreadyRunning is returned by Run when the engine is already started.
	ErrAlreadyRunning = errors.New("engine already running")
	// ErrDisposed is returned by Run after Close.
	ErrDisposed = errors.New("engine disposed")
)

// periodicFormAnalysisTicks is how often the stance preference is recomputed
// when no stance change forces it sooner.
const periodicFormAnalysisTicks = 10

// hitBufferSize bounds the hit event channel between the interaction
// collaborator and the tick owner.
const hitBufferSize = 64

// PoseSource supplies the player's head pose once per tick.
type PoseSource interface {
	// Pose returns the current position and yaw. ok=false means no fresh
	// pose is available this tick (nothing is recorded).
	Pose() (pos motion.Vec3, yaw float64, ok bool)
}

// FormSource supplies the external form tracker's stance label and scalar
// form quality.
type FormSource interface {
	Form() (st motion.Stance, quality float64, ok bool)
}

// PoseFunc adapts a function to the PoseSource interface.
type PoseFunc func() (motion.Vec3, float64, bool)

// Pose implements PoseSource.
func (f PoseFunc) Pose() (motion.Vec3, float64, bool) { return f() }

// FormFunc adapts a function to the FormSource interface.
type FormFunc func() (motion.Stance, float64, bool)

// Form implements FormSource.
func (f FormFunc) Form() (motion.Stance, float64, bool) { return f() }

// Config assembles the engine's component tuning. Zero values fall back to
// the component defaults.
type Config struct {
	TickInterval time.Duration
	Workers      int

	PositionHistoryCapacity int
	StanceHistoryCapacity   int
	OutcomeCapacity         int

	Predictor predict.Config
	Optimizer target.OptimizerConfig

	ConfidenceThreshold float64
	ReachDistance       float64

	NetworkLayerWidths []int
	NetworkSeed        int64
	OptimizerSeed      int64

	Clock timeutil.Clock
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		TickInterval:            100 * time.Millisecond,
		Workers:                 2,
		PositionHistoryCapacity: 100,
		StanceHistoryCapacity:   50,
		OutcomeCapacity:         200,
		Predictor:               predict.DefaultConfig(),
		Optimizer:               target.DefaultOptimizerConfig(),
		ConfidenceThreshold:     0.7,
		ReachDistance:           0.75,
		NetworkLayerWidths:      stance.DefaultLayerWidths,
		NetworkSeed:             42,
		OptimizerSeed:           1,
		Clock:                   timeutil.RealClock{},
	}
}

type hitEvent struct {
	position motion.Vec3
	accuracy float64
}

// Stats counts engine activity since construction.
type Stats struct {
	Ticks                int64
	SamplesRecorded      int64
	PredictionsGenerated int64
	TargetsEnqueued      int64
	TargetsGated         int64
	HitsRecorded         int64
	HitsDropped          int64
}

// Engine is the predictive targeting service. It owns the motion history,
// outcome feedback store and prediction queue; collaborators feed it poses,
// form signals and hit events, and poll it for predicted targets.
//
// Construct with New and drive with Run; the engine holds no ambient global
// state.
type Engine struct {
	cfg   Config
	clock timeutil.Clock

	poses PoseSource
	form  FormSource

	history    *motion.History
	outcomes   *outcome.Store
	predictor  *predict.Predictor
	classifier *stance.Classifier
	optimizer  *target.Optimizer
	gate       target.Gate
	queue      *target.Queue
	pool       *workerPool

	hits    chan hitEvent
	stopCh  chan struct{}
	runDone chan struct{}

	// tickDone is closed when the most recently dispatched tick's parallel
	// work (including gating and enqueueing) has completed. The tick owner
	// awaits it before dispatching the next tick — the backpressure that
	// self-throttles the scheduler when processing falls behind.
	tickDone chan struct{}

	state atomic.Int32

	mu           sync.RWMutex
	pattern      predict.MovementPattern
	preference   stance.Preference
	lastSnapshot motion.Snapshot
	confidences  []float64

	onTarget  []func(target.Predicted)
	onPattern []func(predict.MovementPattern)
	onStance  []func(stance.Preference)

	ticks      atomic.Int64
	samples    atomic.Int64
	preds      atomic.Int64
	enqueued   atomic.Int64
	gatedOut   atomic.Int64
	hitCount   atomic.Int64
	hitDropped atomic.Int64
}

// New constructs an Engine from configuration and its collaborators. The
// classifier network is built here, so the engine enters the Running state
// in Run with all weights initialised.
func New(cfg Config, poses PoseSource, form FormSource) (*Engine, error) {
	def := DefaultConfig()
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.PositionHistoryCapacity <= 0 {
		cfg.PositionHistoryCapacity = def.PositionHistoryCapacity
	}
	if cfg.StanceHistoryCapacity <= 0 {
		cfg.StanceHistoryCapacity = def.StanceHistoryCapacity
	}
	if cfg.OutcomeCapacity <= 0 {
		cfg.OutcomeCapacity = def.OutcomeCapacity
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = def.ConfidenceThreshold
	}
	if cfg.ReachDistance <= 0 {
		cfg.ReachDistance = def.ReachDistance
	}
	if len(cfg.NetworkLayerWidths) == 0 {
		cfg.NetworkLayerWidths = def.NetworkLayerWidths
	}
	if cfg.Clock == nil {
		cfg.Clock = def.Clock
	}
	if cfg.Predictor.Horizon <= 0 {
		cfg.Predictor.Horizon = def.Predictor.Horizon
	}
	if cfg.Predictor.ProcessNoise <= 0 {
		cfg.Predictor.ProcessNoise = def.Predictor.ProcessNoise
	}
	if cfg.Predictor.MeasurementNoise <= 0 {
		cfg.Predictor.MeasurementNoise = def.Predictor.MeasurementNoise
	}
	if cfg.Predictor.ConsistencyWindow <= 0 {
		cfg.Predictor.ConsistencyWindow = def.Predictor.ConsistencyWindow
	}
	if cfg.Optimizer.ChallengeZoneRadius <= 0 {
		cfg.Optimizer = def.Optimizer
	}

	if poses == nil {
		return nil, errors.New("engine needs a pose source")
	}
	if form == nil {
		return nil, errors.New("engine needs a form source")
	}

	net, err := stance.NewFeedForward(cfg.NetworkLayerWidths, cfg.NetworkSeed)
	if err != nil {
		return nil, err
	}

	// The first tick has no previous work to wait for.
	done := make(chan struct{})
	close(done)

	return &Engine{
		cfg:        cfg,
		clock:      cfg.Clock,
		poses:      poses,
		form:       form,
		history:    motion.NewHistory(cfg.PositionHistoryCapacity, cfg.StanceHistoryCapacity),
		outcomes:   outcome.NewStore(cfg.OutcomeCapacity),
		predictor:  predict.NewPredictor(cfg.Predictor),
		classifier: stance.NewClassifier(net),
		optimizer:  target.NewOptimizer(cfg.Optimizer, cfg.OptimizerSeed),
		gate:       target.Gate{Threshold: cfg.ConfidenceThreshold},
		queue:      target.NewQueue(),
		pool:       newWorkerPool(cfg.Workers),
		hits:       make(chan hitEvent, hitBufferSize),
		stopCh:     make(chan struct{}),
		runDone:    make(chan struct{}),
		tickDone:   done,
	}, nil
}

// OnTarget registers a callback fired whenever a predicted target clears the
// gate. Callbacks run on the scheduler's coordinator goroutine and must not
// block. Register before Run.
func (e *Engine) OnTarget(fn func(target.Predicted)) {
	e.onTarget = append(e.onTarget, fn)
}

// OnPatternChange registers a callback fired when the movement pattern
// category changes.
func (e *Engine) OnPatternChange(fn func(predict.MovementPattern)) {
	e.onPattern = append(e.onPattern, fn)
}

// OnStanceUpdate registers a callback fired when the stance preference is
// recomputed.
func (e *Engine) OnStanceUpdate(fn func(stance.Preference)) {
	e.onStance = append(e.onStance, fn)
}

// Run drives the tick loop until the context is cancelled or Close is
// called. It returns after all in-flight parallel work has completed.
func (e *Engine) Run(ctx context.Context) error {
	if !e.state.CompareAndSwap(stateUninitialized, stateRunning) {
		if e.state.Load() == stateDisposed {
			return ErrDisposed
		}
		return ErrAlreadyRunning
	}
	defer close(e.runDone)

	ticker := e.clock.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	monitoring.Logf("engine: running at %v cadence with %d workers", e.cfg.TickInterval, e.cfg.Workers)

	for {
		select {
		case <-ctx.Done():
			e.awaitOutstanding()
			return nil
		case <-e.stopCh:
			e.awaitOutstanding()
			return nil
		case now := <-ticker.C():
			e.tick(now)
		}
	}
}

// awaitOutstanding force-completes the in-flight tick work. Buffers may only
// be released after this returns.
func (e *Engine) awaitOutstanding() {
	<-e.tickDone
}

// tick is one scheduler cycle. It records the tick's sample, snapshots the
// stores and dispatches prediction and classification to the pool; a
// coordinator goroutine finishes the cycle once both complete. The target
// enqueued for tick N therefore sees exactly the samples recorded through
// tick N.
func (e *Engine) tick(now time.Time) {
	// Backpressure: never stack a new tick's work on an unfinished one.
	<-e.tickDone

	e.ticks.Add(1)
	e.drainHits()

	st, quality, formOK := e.form.Form()
	if !formOK {
		st = motion.StanceOrthodox
		quality = 0.5
	}

	pos, yaw, ok := e.poses.Pose()
	if ok {
		e.history.Record(motion.Sample{Time: now, Position: pos, Yaw: yaw, Stance: st})
		e.samples.Add(1)
	}

	snap := e.history.Snapshot()
	if len(snap.Samples) == 0 {
		return
	}
	outSnap := e.outcomes.Snapshot()

	done := make(chan struct{})
	e.tickDone = done

	var (
		pred    predict.Prediction
		predOK  bool
		pattern predict.MovementPattern
		cls     stance.Result
	)
	predDone := e.pool.Submit(func() {
		pred, predOK = e.predictor.PredictPosition(snap)
		pattern = e.predictor.AnalyzePattern(snap)
	})
	clsDone := e.pool.Submit(func() {
		cls = e.classifier.Classify(snap)
	})

	go func() {
		defer close(done)
		<-predDone
		<-clsDone
		e.finishTick(now, snap, outSnap, pred, predOK, pattern, cls, quality)
	}()
}

// drainHits moves queued hit events into the outcome store. Runs on the
// tick owner, keeping the store single-writer.
func (e *Engine) drainHits() {
	for {
		select {
		case h := <-e.hits:
			e.outcomes.Record(h.position, h.accuracy)
			e.hitCount.Add(1)
		default:
			return
		}
	}
}

// finishTick runs on the coordinator goroutine after both parallel tasks
// complete: it publishes the new pattern and stance preference, then
// optimizes, gates and enqueues the tick's candidate target.
func (e *Engine) finishTick(now time.Time, snap motion.Snapshot, outSnap outcome.Set,
	pred predict.Prediction, predOK bool, pattern predict.MovementPattern,
	cls stance.Result, formQuality float64) {

	e.publishPattern(pattern, snap)
	e.publishPreference(snap, cls)

	if !predOK || !pred.Extrapolated {
		return
	}
	e.preds.Add(1)

	last, ok := snap.Latest()
	if !ok {
		return
	}

	confidence := e.gate.Score(e.predictor.Consistency(snap), snap.Sufficiency())

	e.mu.Lock()
	e.confidences = append(e.confidences, confidence)
	if len(e.confidences) > 300 {
		e.confidences = e.confidences[len(e.confidences)-300:]
	}
	e.mu.Unlock()

	if !e.gate.Admit(confidence) {
		e.gatedOut.Add(1)
		return
	}

	cand := e.optimizer.Optimize(target.Plan{
		PredictedPosition: pred.Position,
		Yaw:               last.Yaw,
		Stance:            stance.MajorityVote(snap.Stances),
		FormQuality:       formQuality,
		OptimalTiming:     now.Add(pred.Horizon),
		Outcomes:          outSnap,
	})
	cand.Confidence = confidence

	e.queue.Push(cand)
	e.enqueued.Add(1)

	for _, fn := range e.onTarget {
		fn(cand)
	}
}

// publishPattern stores the new movement pattern and fires change callbacks
// when the category flips.
func (e *Engine) publishPattern(pattern predict.MovementPattern, snap motion.Snapshot) {
	e.mu.Lock()
	changed := pattern.Type != e.pattern.Type
	e.pattern = pattern
	e.lastSnapshot = snap
	e.mu.Unlock()

	if changed {
		for _, fn := range e.onPattern {
			fn(pattern)
		}
	}
}

// publishPreference recomputes the stance preference on stance-change events
// and on the periodic form analysis cadence.
func (e *Engine) publishPreference(snap motion.Snapshot, cls stance.Result) {
	e.mu.RLock()
	prev := e.preference.Preferred
	e.mu.RUnlock()

	changed := prev == "" || cls.Stance != prev
	periodic := e.ticks.Load()%periodicFormAnalysisTicks == 0
	if !changed && !periodic {
		return
	}

	pref := stance.ComputePreference(snap, e.cfg.ReachDistance)

	e.mu.Lock()
	e.preference = pref
	e.mu.Unlock()

	for _, fn := range e.onStance {
		fn(pref)
	}
}

// RecordHit feeds a successful hit back into the engine. Safe to call from
// any goroutine; events are serialised onto the tick owner. When the buffer
// is full the event is dropped and counted rather than blocking the caller.
func (e *Engine) RecordHit(hand target.Hand, position motion.Vec3, accuracy float64) {
	_ = hand // recorded upstream per-hand today only in session storage
	select {
	case e.hits <- hitEvent{position: position, accuracy: accuracy}:
	default:
		e.hitDropped.Add(1)
		monitoring.Logf("engine: hit buffer full, dropping hit event")
	}
}

// NextPredictedTarget peeks the earliest non-expired target without removing
// it. ok=false when the queue is empty.
func (e *Engine) NextPredictedTarget() (target.Predicted, bool) {
	return e.queue.Peek(e.clock.Now())
}

// TakePredictedTarget removes and returns the earliest non-expired target.
// Intended for the single external spawner loop.
func (e *Engine) TakePredictedTarget() (target.Predicted, bool) {
	return e.queue.Pop(e.clock.Now())
}

// QueuedTargets copies the pending non-expired targets in timing order.
func (e *Engine) QueuedTargets() []target.Predicted {
	return e.queue.Pending(e.clock.Now())
}

// MovementPattern returns the most recently computed movement pattern. The
// previous value remains valid until the next tick replaces it.
func (e *Engine) MovementPattern() predict.MovementPattern {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pattern
}

// StancePreference returns the most recently computed stance preference.
func (e *Engine) StancePreference() stance.Preference {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.preference
}

// Trail returns the latest published motion snapshot (for monitoring).
func (e *Engine) Trail() motion.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastSnapshot
}

// RecentConfidences copies the recent gate scores (for monitoring).
func (e *Engine) RecentConfidences() []float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]float64, len(e.confidences))
	copy(out, e.confidences)
	return out
}

// Outcomes returns a copy of the hit feedback records. Only safe while the
// engine is not running a tick concurrently; intended for post-session
// analysis after Close.
func (e *Engine) Outcomes() outcome.Set {
	return e.outcomes.Snapshot()
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Ticks:                e.ticks.Load(),
		SamplesRecorded:      e.samples.Load(),
		PredictionsGenerated: e.preds.Load(),
		TargetsEnqueued:      e.enqueued.Load(),
		TargetsGated:         e.gatedOut.Load(),
		HitsRecorded:         e.hitCount.Load(),
		HitsDropped:          e.hitDropped.Load(),
	}
}

// Close stops the scheduler, force-completes any in-flight parallel work and
// releases the worker pool. The history, queue and outcome buffers must not
// be touched by workers after Close returns; calling Close before releasing
// the engine is the required teardown order. Safe to call once.
func (e *Engine) Close() {
	switch {
	case e.state.CompareAndSwap(stateUninitialized, stateDisposed):
		// Never ran; just drain the pool.
		e.pool.Close()
		return
	case e.state.CompareAndSwap(stateRunning, stateDisposed):
		close(e.stopCh)
		<-e.runDone
		e.awaitOutstanding()
		e.pool.Close()
		monitoring.Logf("engine: disposed after %d ticks", e.ticks.Load())
	}
}
