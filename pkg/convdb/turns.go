package convdb

import (
	"context"
	"database/sql"
	"errors"
)

// Default page sizes used when a limit of zero or less is given.
const (
	DefaultHistoryLimit  = 50
	DefaultSessionsLimit = 10
)

// Turn is one recorded exchange within a session.
type Turn struct {
	ID              int64   `json:"id" yaml:"id"`
	SessionID       string  `json:"session_id" yaml:"session_id"`
	TurnNumber      int     `json:"turn_number" yaml:"turn_number"`
	UserAudioPath   string  `json:"user_audio_path" yaml:"user_audio_path"`
	UserText        string  `json:"user_text" yaml:"user_text"`
	AIText          string  `json:"ai_text" yaml:"ai_text"`
	AIAudioFastPath *string `json:"ai_audio_fast_path,omitempty" yaml:"ai_audio_fast_path,omitempty"`
	AIAudioHQPath   *string `json:"ai_audio_hq_path,omitempty" yaml:"ai_audio_hq_path,omitempty"`
	VoiceProfileID  *int64  `json:"voice_profile_id,omitempty" yaml:"voice_profile_id,omitempty"`
	CreatedAt       int64   `json:"created_at" yaml:"created_at"`
}

// TurnInput holds the caller-supplied fields of a new turn.
//
// TurnNumber is not checked for uniqueness within the session; a repeated
// number produces a second row with the same (SessionID, TurnNumber).
type TurnInput struct {
	SessionID       string
	TurnNumber      int
	UserAudioPath   string
	UserText        string
	AIText          string
	AIAudioFastPath *string
	AIAudioHQPath   *string
	VoiceProfileID  *int64
}

// Session summarises the turns recorded under one session id.
type Session struct {
	SessionID   string `json:"session_id" yaml:"session_id"`
	TurnCount   int    `json:"turn_count" yaml:"turn_count"`
	StartedAt   int64  `json:"started_at" yaml:"started_at"`
	LastUpdated int64  `json:"last_updated" yaml:"last_updated"`
}

const turnColumns = `id, session_id, turn_number, user_audio_path, user_text, ai_text,
	ai_audio_fast_path, ai_audio_hq_path, voice_profile_id, created_at`

// SaveTurn inserts a turn stamped with the current time and returns its id.
func (s *Store) SaveTurn(ctx context.Context, in TurnInput) (int64, error) {
	var id int64
	err := s.do(ctx, "save turn", func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `
			INSERT INTO conversations (
				session_id, turn_number, user_audio_path, user_text, ai_text,
				ai_audio_fast_path, ai_audio_hq_path, voice_profile_id, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, in.SessionID, in.TurnNumber, in.UserAudioPath, in.UserText, in.AIText,
			in.AIAudioFastPath, in.AIAudioHQPath, in.VoiceProfileID, s.now().Unix())
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("db.conversation.saved",
		"session_id", in.SessionID,
		"turn_number", in.TurnNumber,
		"turn_id", id,
	)
	return id, nil
}

// History returns up to limit turns of a session, highest turn number
// first. An unknown session yields an empty slice.
func (s *Store) History(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	turns := []Turn{}
	err := s.do(ctx, "history", func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `
			SELECT `+turnColumns+`
			FROM conversations
			WHERE session_id = ?
			ORDER BY turn_number DESC, id DESC
			LIMIT ?
		`, sessionID, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTurn(rows)
			if err != nil {
				return err
			}
			turns = append(turns, *t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("db.conversation.fetched", "session_id", sessionID, "count", len(turns))
	return turns, nil
}

// Turn returns the turn with the given id, or nil if there is none.
func (s *Store) Turn(ctx context.Context, id int64) (*Turn, error) {
	var turn *Turn
	err := s.do(ctx, "get turn", func(db *sql.DB) error {
		row := db.QueryRowContext(ctx, `SELECT `+turnColumns+` FROM conversations WHERE id = ?`, id)
		t, err := scanTurn(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		turn = t
		return err
	})
	if err != nil {
		return nil, err
	}
	return turn, nil
}

// RecentSessions returns up to limit sessions, most recently updated first.
func (s *Store) RecentSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = DefaultSessionsLimit
	}
	sessions := []Session{}
	err := s.do(ctx, "recent sessions", func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `
			SELECT session_id, COUNT(*), MIN(created_at), MAX(created_at) AS last_updated
			FROM conversations
			GROUP BY session_id
			ORDER BY last_updated DESC, session_id ASC
			LIMIT ?
		`, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var sess Session
			if err := rows.Scan(&sess.SessionID, &sess.TurnCount, &sess.StartedAt, &sess.LastUpdated); err != nil {
				return err
			}
			sessions = append(sessions, sess)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("db.sessions.fetched", "count", len(sessions))
	return sessions, nil
}

// SessionTurnCount returns the number of turns recorded for a session.
func (s *Store) SessionTurnCount(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.do(ctx, "count turns", func(db *sql.DB) error {
		return db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM conversations WHERE session_id = ?`, sessionID).Scan(&n)
	})
	return n, err
}

// NextTurnNumber returns one more than the highest turn number recorded for
// the session, or 1 for a new session. SaveTurn does not call it.
func (s *Store) NextTurnNumber(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.do(ctx, "next turn number", func(db *sql.DB) error {
		return db.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(turn_number), 0) + 1 FROM conversations WHERE session_id = ?`,
			sessionID).Scan(&n)
	})
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTurn(sc scanner) (*Turn, error) {
	var (
		t       Turn
		fast    sql.NullString
		hq      sql.NullString
		profile sql.NullInt64
	)
	if err := sc.Scan(&t.ID, &t.SessionID, &t.TurnNumber, &t.UserAudioPath, &t.UserText, &t.AIText,
		&fast, &hq, &profile, &t.CreatedAt); err != nil {
		return nil, err
	}
	if fast.Valid {
		t.AIAudioFastPath = &fast.String
	}
	if hq.Valid {
		t.AIAudioHQPath = &hq.String
	}
	if profile.Valid {
		t.VoiceProfileID = &profile.Int64
	}
	return &t, nil
}
