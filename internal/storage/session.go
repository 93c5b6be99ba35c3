package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flowbox-vr/flowbox/internal/motion"
	"github.com/flowbox-vr/flowbox/internal/target"
)

// Session identifies one recorded play session.
type Session struct {
	ID        string
	Profile   string
	StartedAt time.Time
	EndedAt   time.Time // zero when still open
}

// StoredSample is one recorded motion sample.
type StoredSample struct {
	Tick   int64
	Sample motion.Sample
}

// StoredPrediction is one recorded gated prediction with the tick time it
// was generated at.
type StoredPrediction struct {
	At     time.Time
	Target target.Predicted
}

// StoredOutcome is one recorded hit outcome.
type StoredOutcome struct {
	At       time.Time
	Position motion.Vec3
	Accuracy float64
}

// BeginSession inserts a new session row and returns its id.
func (s *Store) BeginSession(profile string, startedAt time.Time) (string, error) {
	id := uuid.NewString()
	_, err := s.Exec(
		`INSERT INTO sessions (session_id, profile, started_at) VALUES (?, ?, ?)`,
		id, profile, startedAt.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("begin session: %w", err)
	}
	return id, nil
}

// EndSession stamps the session's end time.
func (s *Store) EndSession(sessionID string, endedAt time.Time) error {
	res, err := s.Exec(
		`UPDATE sessions SET ended_at = ? WHERE session_id = ?`,
		endedAt.UTC(), sessionID,
	)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("end session: unknown session %s", sessionID)
	}
	return nil
}

// RecordSample appends a motion sample for the session.
func (s *Store) RecordSample(sessionID string, tick int64, sm motion.Sample) error {
	_, err := s.Exec(
		`INSERT INTO samples (session_id, tick, t, pos_x, pos_y, pos_z, yaw, stance)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, tick, sm.Time.UTC(),
		sm.Position.X, sm.Position.Y, sm.Position.Z, sm.Yaw, string(sm.Stance),
	)
	if err != nil {
		return fmt.Errorf("record sample: %w", err)
	}
	return nil
}

// RecordPrediction appends a gated prediction for the session.
func (s *Store) RecordPrediction(sessionID string, at time.Time, p target.Predicted) error {
	_, err := s.Exec(
		`INSERT INTO predictions (session_id, target_id, t, pos_x, pos_y, pos_z,
		   confidence, optimal_timing, hand, stance, difficulty, target_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, p.ID.String(), at.UTC(),
		p.Position.X, p.Position.Y, p.Position.Z,
		p.Confidence, p.OptimalTiming.UTC(),
		string(p.Hand), string(p.Stance), p.Difficulty, string(p.Type),
	)
	if err != nil {
		return fmt.Errorf("record prediction: %w", err)
	}
	return nil
}

// RecordOutcome appends a hit outcome for the session.
func (s *Store) RecordOutcome(sessionID string, at time.Time, pos motion.Vec3, accuracy float64) error {
	_, err := s.Exec(
		`INSERT INTO outcomes (session_id, t, pos_x, pos_y, pos_z, accuracy)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, at.UTC(), pos.X, pos.Y, pos.Z, accuracy,
	)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// Sessions lists recorded sessions, newest first.
func (s *Store) Sessions() ([]Session, error) {
	rows, err := s.Query(
		`SELECT session_id, profile, started_at, ended_at
		 FROM sessions ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		var ended sql.NullTime
		if err := rows.Scan(&sess.ID, &sess.Profile, &sess.StartedAt, &ended); err != nil {
			return nil, err
		}
		if ended.Valid {
			sess.EndedAt = ended.Time
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// SamplesForSession returns the session's motion samples in tick order.
func (s *Store) SamplesForSession(sessionID string) ([]StoredSample, error) {
	rows, err := s.Query(
		`SELECT tick, t, pos_x, pos_y, pos_z, yaw, stance
		 FROM samples WHERE session_id = ? ORDER BY tick`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("load samples: %w", err)
	}
	defer rows.Close()

	var out []StoredSample
	for rows.Next() {
		var rec StoredSample
		var stance string
		if err := rows.Scan(&rec.Tick, &rec.Sample.Time,
			&rec.Sample.Position.X, &rec.Sample.Position.Y, &rec.Sample.Position.Z,
			&rec.Sample.Yaw, &stance); err != nil {
			return nil, err
		}
		rec.Sample.Stance = motion.Stance(stance)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PredictionsForSession returns the session's gated predictions in time order.
func (s *Store) PredictionsForSession(sessionID string) ([]StoredPrediction, error) {
	rows, err := s.Query(
		`SELECT target_id, t, pos_x, pos_y, pos_z, confidence, optimal_timing,
		   hand, stance, difficulty, target_type
		 FROM predictions WHERE session_id = ? ORDER BY t`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("load predictions: %w", err)
	}
	defer rows.Close()

	var out []StoredPrediction
	for rows.Next() {
		var rec StoredPrediction
		var id, hand, stance, typ string
		if err := rows.Scan(&id, &rec.At,
			&rec.Target.Position.X, &rec.Target.Position.Y, &rec.Target.Position.Z,
			&rec.Target.Confidence, &rec.Target.OptimalTiming,
			&hand, &stance, &rec.Target.Difficulty, &typ); err != nil {
			return nil, err
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("load predictions: bad target id %q: %w", id, err)
		}
		rec.Target.ID = parsed
		rec.Target.Hand = target.Hand(hand)
		rec.Target.Stance = motion.Stance(stance)
		rec.Target.Type = target.Type(typ)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// OutcomesForSession returns the session's hit outcomes in time order.
func (s *Store) OutcomesForSession(sessionID string) ([]StoredOutcome, error) {
	rows, err := s.Query(
		`SELECT t, pos_x, pos_y, pos_z, accuracy
		 FROM outcomes WHERE session_id = ? ORDER BY t`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("load outcomes: %w", err)
	}
	defer rows.Close()

	var out []StoredOutcome
	for rows.Next() {
		var rec StoredOutcome
		if err := rows.Scan(&rec.At,
			&rec.Position.X, &rec.Position.Y, &rec.Position.Z, &rec.Accuracy); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
