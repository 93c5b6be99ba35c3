// flowbox-sim drives the predictive targeting engine with synthetic player
// motion. It exercises the full pipeline without a headset: a motion profile
// feeds poses, a simulated player swings at the targets the engine emits, and
// the session can be recorded for replay and served to the live monitor.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/flowbox-vr/flowbox/internal/config"
	"github.com/flowbox-vr/flowbox/internal/engine"
	"github.com/flowbox-vr/flowbox/internal/monitor"
	"github.com/flowbox-vr/flowbox/internal/motion"
	"github.com/flowbox-vr/flowbox/internal/storage"
	"github.com/flowbox-vr/flowbox/internal/target"
	"github.com/flowbox-vr/flowbox/internal/version"
)

var (
	profile     = flag.String("profile", "circular", "Motion profile: stationary, linear, circular, zigzag")
	duration    = flag.Duration("duration", 30*time.Second, "How long to run the session")
	configPath  = flag.String("config", "", "Optional tuning config JSON")
	seed        = flag.Int64("seed", 7, "Seed for the simulated player's noise and swing accuracy")
	record      = flag.String("record", "", "Record the session to this sqlite file")
	monitorAddr = flag.String("monitor", "", "Serve the live monitor on this address (e.g. :8080)")
	speed       = flag.Float64("speed", 1.0, "Profile speed in units/s")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("flowbox-sim", version.String())
		return
	}

	cfg := engine.DefaultConfig()
	if *configPath != "" {
		tc, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = engine.ConfigFromTuning(tc)
	}

	sim, err := newSimulator(*profile, *speed, *seed)
	if err != nil {
		log.Fatalf("%v", err)
	}

	eng, err := engine.New(cfg, sim, sim)
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}

	var (
		store     *storage.Store
		sessionID string
	)
	if *record != "" {
		store, err = storage.Open(*record)
		if err != nil {
			log.Fatalf("Failed to open session db: %v", err)
		}
		defer store.Close()

		sessionID, err = store.BeginSession(*profile, time.Now())
		if err != nil {
			log.Fatalf("Failed to begin session: %v", err)
		}
		log.Printf("Recording session %s to %s", sessionID, *record)

		sim.onSample = func(tick int64, sm motion.Sample) {
			if err := store.RecordSample(sessionID, tick, sm); err != nil {
				log.Printf("record sample: %v", err)
			}
		}
		eng.OnTarget(func(p target.Predicted) {
			if err := store.RecordPrediction(sessionID, time.Now(), p); err != nil {
				log.Printf("record prediction: %v", err)
			}
		})
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, timeout := context.WithTimeout(ctx, *duration)
	defer timeout()

	var wg sync.WaitGroup

	if *monitorAddr != "" {
		ws := monitor.NewWebServer(monitor.WebServerConfig{Address: *monitorAddr, Engine: eng})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ws.Start(ctx); err != nil {
				log.Printf("monitor: %v", err)
			}
		}()
	}

	// Simulated spawner: consume targets as their timing arrives and swing
	// with seeded accuracy, feeding hits back into the engine.
	wg.Add(1)
	go func() {
		defer wg.Done()
		rng := rand.New(rand.NewSource(*seed + 1))
		tick := time.NewTicker(50 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				p, ok := eng.TakePredictedTarget()
				if !ok {
					continue
				}
				accuracy := 0.6 + rng.Float64()*0.4
				eng.RecordHit(p.Hand, p.Position, accuracy)
				if store != nil {
					if err := store.RecordOutcome(sessionID, time.Now(), p.Position, accuracy); err != nil {
						log.Printf("record outcome: %v", err)
					}
				}
			}
		}
	}()

	log.Printf("Running %s profile for %v", *profile, *duration)
	if err := eng.Run(ctx); err != nil {
		log.Fatalf("Engine run failed: %v", err)
	}
	eng.Close()
	wg.Wait()

	if store != nil {
		if err := store.EndSession(sessionID, time.Now()); err != nil {
			log.Printf("end session: %v", err)
		}
	}

	stats := eng.Stats()
	fmt.Printf("ticks=%d samples=%d predictions=%d enqueued=%d gated=%d hits=%d dropped=%d\n",
		stats.Ticks, stats.SamplesRecorded, stats.PredictionsGenerated,
		stats.TargetsEnqueued, stats.TargetsGated, stats.HitsRecorded, stats.HitsDropped)
}

// simulator generates synthetic player motion along a named profile and
// doubles as the form source. It implements engine.PoseSource and
// engine.FormSource.
type simulator struct {
	mu      sync.Mutex
	profile string
	speed   float64
	rng     *rand.Rand
	start   time.Time
	ticks   int64

	// onSample, when set, observes every generated pose.
	onSample func(tick int64, sm motion.Sample)
}

func newSimulator(profile string, speed float64, seed int64) (*simulator, error) {
	switch profile {
	case "stationary", "linear", "circular", "zigzag":
	default:
		return nil, fmt.Errorf("unknown profile %q (want stationary, linear, circular or zigzag)", profile)
	}
	return &simulator{
		profile: profile,
		speed:   speed,
		rng:     rand.New(rand.NewSource(seed)),
		start:   time.Now(),
	}, nil
}

// Pose implements engine.PoseSource.
func (s *simulator) Pose() (motion.Vec3, float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := time.Since(s.start).Seconds()
	pos, yaw := s.poseAt(t)

	// Small positional noise so the consistency term is realistic.
	pos.X += (s.rng.Float64()*2 - 1) * 0.01
	pos.Z += (s.rng.Float64()*2 - 1) * 0.01

	s.ticks++
	if s.onSample != nil {
		s.onSample(s.ticks, motion.Sample{
			Time:     time.Now(),
			Position: pos,
			Yaw:      yaw,
			Stance:   motion.StanceOrthodox,
		})
	}
	return pos, yaw, true
}

// Form implements engine.FormSource. The simulated player holds an orthodox
// stance with steady mid-band form.
func (s *simulator) Form() (motion.Stance, float64, bool) {
	return motion.StanceOrthodox, 0.75, true
}

func (s *simulator) poseAt(t float64) (motion.Vec3, float64) {
	switch s.profile {
	case "stationary":
		return motion.Vec3{Y: 1.7}, 0

	case "linear":
		return motion.Vec3{Z: s.speed * t, Y: 1.7}, 0

	case "circular":
		radius := 1.5
		omega := s.speed / radius
		angle := omega * t
		pos := motion.Vec3{
			X: radius * math.Cos(angle),
			Y: 1.7,
			Z: radius * math.Sin(angle),
		}
		// Face along the tangent.
		return pos, angle + math.Pi/2

	case "zigzag":
		period := 2.0
		phase := math.Mod(t, 2*period)
		x := s.speed * phase
		if phase > period {
			x = s.speed * (2*period - phase)
		}
		return motion.Vec3{X: x, Y: 1.7, Z: s.speed * t * 0.3}, 0
	}
	return motion.Vec3{}, 0
}
