package stance

import (
	"math"

	"github.com/flowbox-vr/flowbox/internal/motion"
)

// FeatureCount is the length of the classifier feature vector: x/z of the
// last two positions, a yaw feature, and the stance stability metric.
const FeatureCount = 6

// linearWeights is the hand-tuned fallback scorer: one row of weights per
// stance label over the same 6 features the network sees. Row 0 scores
// orthodox, row 1 southpaw.
var linearWeights = [2][FeatureCount]float64{
	{0.15, 0.25, 0.10, 0.20, 0.60, 0.45},
	{0.25, 0.15, 0.20, 0.10, -0.60, 0.45},
}

// Result holds one classification outcome.
type Result struct {
	Stance motion.Stance
	// Score is the winning network output in (0,1); for the fallback path
	// it is the normalised winning linear score.
	Score float64
	// Agreement reports whether the network and the linear fallback chose
	// the same label.
	Agreement bool
}

// Classifier labels the current stance from recent motion features. It runs
// the feed-forward network and a fixed linear scorer as a redundant ensemble
// signal; ties default to orthodox.
type Classifier struct {
	net *FeedForward
}

// NewClassifier creates a Classifier around a feed-forward network. The
// network must accept FeatureCount inputs and emit two scores.
func NewClassifier(net *FeedForward) *Classifier {
	return &Classifier{net: net}
}

// Features extracts the classifier input vector from a snapshot: the x/z
// coordinates of the last two position samples, the sine of the latest yaw,
// and the stance stability metric. Missing samples contribute zeros.
func Features(snap motion.Snapshot) []float64 {
	f := make([]float64, FeatureCount)

	n := len(snap.Samples)
	if n >= 1 {
		last := snap.Samples[n-1]
		f[0] = last.Position.X
		f[1] = last.Position.Z
		f[4] = math.Sin(last.Yaw)
	}
	if n >= 2 {
		prev := snap.Samples[n-2]
		f[2] = prev.Position.X
		f[3] = prev.Position.Z
	}
	f[5] = Stability(snap.Stances)

	return f
}

// Stability measures stance-history churn: 1 − transitions/historyLength,
// where a transition is any adjacent pair of differing labels. An empty
// history scores 0.
func Stability(stances []motion.Stance) float64 {
	if len(stances) == 0 {
		return 0
	}
	transitions := 0
	for i := 1; i < len(stances); i++ {
		if stances[i] != stances[i-1] {
			transitions++
		}
	}
	return 1 - float64(transitions)/float64(len(stances))
}

// Classify labels the snapshot's current stance. An empty stance history
// defaults to orthodox rather than failing.
func (c *Classifier) Classify(snap motion.Snapshot) Result {
	if len(snap.Stances) == 0 {
		return Result{Stance: motion.StanceOrthodox, Score: 0.5}
	}

	features := Features(snap)

	netStance, netScore := c.networkVote(features)
	linStance := linearVote(features)

	return Result{
		Stance:    netStance,
		Score:     netScore,
		Agreement: netStance == linStance,
	}
}

// networkVote runs the feed-forward network; the higher of the two output
// scores wins, ties going to orthodox.
func (c *Classifier) networkVote(features []float64) (motion.Stance, float64) {
	out, err := c.net.Forward(features)
	if err != nil || len(out) < 2 {
		// Feature/width mismatch means a misconfigured network; fall back
		// to the linear scorer rather than guessing.
		return linearVote(features), 0.5
	}
	if out[1] > out[0] {
		return motion.StanceSouthpaw, out[1]
	}
	return motion.StanceOrthodox, out[0]
}

// linearVote scores both labels with the fixed weight matrix; the higher
// score wins, ties going to orthodox.
func linearVote(features []float64) motion.Stance {
	var scores [2]float64
	for row := 0; row < 2; row++ {
		for i, w := range linearWeights[row] {
			if i < len(features) {
				scores[row] += w * features[i]
			}
		}
	}
	if scores[1] > scores[0] {
		return motion.StanceSouthpaw
	}
	return motion.StanceOrthodox
}

// MajorityVote returns the most frequent stance in the history. It is the
// robust, explainable signal the target optimizer relies on. Empty history
// and exact ties default to orthodox.
func MajorityVote(stances []motion.Stance) motion.Stance {
	southpaw := 0
	for _, s := range stances {
		if s == motion.StanceSouthpaw {
			southpaw++
		}
	}
	if southpaw*2 > len(stances) {
		return motion.StanceSouthpaw
	}
	return motion.StanceOrthodox
}
