// flowbox-replay inspects sessions recorded by flowbox-sim (or a headset
// build with recording enabled): it lists sessions, prints placement and
// confidence statistics, and renders trajectory plots.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/flowbox-vr/flowbox/internal/monitor"
	"github.com/flowbox-vr/flowbox/internal/storage"
)

var (
	dbPath    = flag.String("db", "flowbox_sessions.db", "Session sqlite file")
	sessionID = flag.String("session", "", "Session id (default: most recent)")
	listOnly  = flag.Bool("list", false, "List recorded sessions and exit")
	plotsDir  = flag.String("plots", "", "Render trajectory and confidence plots into this directory")
)

func main() {
	flag.Parse()

	store, err := storage.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open session db: %v", err)
	}
	defer store.Close()

	sessions, err := store.Sessions()
	if err != nil {
		log.Fatalf("Failed to list sessions: %v", err)
	}
	if len(sessions) == 0 {
		log.Fatalf("No sessions recorded in %s", *dbPath)
	}

	if *listOnly {
		for _, s := range sessions {
			end := "open"
			if !s.EndedAt.IsZero() {
				end = s.EndedAt.Format(time.RFC3339)
			}
			fmt.Printf("%s  profile=%-10s  started=%s  ended=%s\n",
				s.ID, s.Profile, s.StartedAt.Format(time.RFC3339), end)
		}
		return
	}

	id := *sessionID
	if id == "" {
		id = sessions[0].ID
	}

	samples, err := store.SamplesForSession(id)
	if err != nil {
		log.Fatalf("Failed to load samples: %v", err)
	}
	predictions, err := store.PredictionsForSession(id)
	if err != nil {
		log.Fatalf("Failed to load predictions: %v", err)
	}
	outcomes, err := store.OutcomesForSession(id)
	if err != nil {
		log.Fatalf("Failed to load outcomes: %v", err)
	}

	if len(samples) == 0 {
		log.Fatalf("Session %s has no samples", id)
	}

	printStats(id, samples, predictions, outcomes)

	if *plotsDir != "" {
		tp, err := monitor.NewTrajectoryPlotter(*plotsDir)
		if err != nil {
			log.Fatalf("%v", err)
		}
		file, err := tp.PlotTrajectory(id, samples, predictions)
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Printf("wrote %s\n", file)
		if len(predictions) > 0 {
			file, err = tp.PlotConfidence(id, predictions)
			if err != nil {
				log.Fatalf("%v", err)
			}
			fmt.Printf("wrote %s\n", file)
		}
	}
}

func printStats(id string, samples []storage.StoredSample,
	predictions []storage.StoredPrediction, outcomes []storage.StoredOutcome) {

	fmt.Printf("session %s\n", id)
	fmt.Printf("  samples:     %d\n", len(samples))
	fmt.Printf("  predictions: %d\n", len(predictions))
	fmt.Printf("  outcomes:    %d\n", len(outcomes))

	if len(predictions) > 0 {
		var confSum, diffSum float64
		for _, p := range predictions {
			confSum += p.Target.Confidence
			diffSum += p.Target.Difficulty
		}
		fmt.Printf("  mean confidence: %.3f\n", confSum/float64(len(predictions)))
		fmt.Printf("  mean difficulty: %.3f\n", diffSum/float64(len(predictions)))

		// Placement distance from where the player actually was at the
		// target's optimal timing. Reasonable placements stay within arm's
		// reach of the tuned comfort..challenge band.
		mean, min, max, n := placementDistances(samples, predictions)
		if n > 0 {
			fmt.Printf("  placement distance at optimal timing (n=%d): mean=%.2f min=%.2f max=%.2f\n",
				n, mean, min, max)
		}
	}

	if len(outcomes) > 0 {
		var accSum float64
		for _, o := range outcomes {
			accSum += o.Accuracy
		}
		fmt.Printf("  hit rate: %.1f%%  mean accuracy: %.3f\n",
			100*float64(len(outcomes))/float64(max1(len(predictions))), accSum/float64(len(outcomes)))
	}
}

// placementDistances measures, for each prediction, the distance between the
// target and the sample closest to the target's optimal timing.
func placementDistances(samples []storage.StoredSample,
	predictions []storage.StoredPrediction) (mean, min, max float64, n int) {

	min = math.Inf(1)
	var sum float64
	for _, p := range predictions {
		s, ok := sampleNearest(samples, p.Target.OptimalTiming)
		if !ok {
			continue
		}
		d := p.Target.Position.Dist(s.Sample.Position)
		sum += d
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
		n++
	}
	if n == 0 {
		return 0, 0, 0, 0
	}
	return sum / float64(n), min, max, n
}

func sampleNearest(samples []storage.StoredSample, at time.Time) (storage.StoredSample, bool) {
	if len(samples) == 0 {
		return storage.StoredSample{}, false
	}
	best := samples[0]
	bestGap := absDuration(at.Sub(best.Sample.Time))
	for _, s := range samples[1:] {
		gap := absDuration(at.Sub(s.Sample.Time))
		if gap < bestGap {
			best = s
			bestGap = gap
		}
	}
	// A placement only counts if the player was observed near the timing.
	if bestGap > time.Second {
		return storage.StoredSample{}, false
	}
	return best, true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
