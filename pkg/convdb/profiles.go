package convdb

import (
	"context"
	"database/sql"
	"errors"
)

// VoiceProfile is an enrolled reference voice.
//
// Embedding is nil until the synthesis engine has computed one. Listings
// leave it nil.
type VoiceProfile struct {
	ID          int64   `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	AudioPath   string  `json:"audio_path" yaml:"audio_path"`
	Embedding   []byte  `json:"embedding,omitempty" yaml:"embedding,omitempty"`
	DurationSec float64 `json:"duration_sec" yaml:"duration_sec"`
	CreatedAt   int64   `json:"created_at" yaml:"created_at"`
}

// HasEmbedding reports whether the profile can be used for voice cloning.
func (p *VoiceProfile) HasEmbedding() bool {
	return len(p.Embedding) > 0
}

// CreateVoiceProfile inserts a profile and returns its id. Names are not
// checked for uniqueness; use VoiceProfileByName first when it matters.
func (s *Store) CreateVoiceProfile(ctx context.Context, name, audioPath string, durationSec float64, embedding []byte) (int64, error) {
	var blob any
	if embedding != nil {
		blob = embedding
	}

	var id int64
	err := s.do(ctx, "create voice profile", func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `
			INSERT INTO voice_profiles (name, audio_path, embedding, duration_sec, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, name, audioPath, blob, durationSec, s.now().Unix())
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("db.voice_profile.created", "profile_id", id, "name", name)
	return id, nil
}

// VoiceProfile returns the profile with the given id, or nil if there is
// none.
func (s *Store) VoiceProfile(ctx context.Context, id int64) (*VoiceProfile, error) {
	p, err := s.getProfile(ctx, "get voice profile",
		`SELECT id, name, audio_path, embedding, duration_sec, created_at
		FROM voice_profiles WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		s.log.Debug("db.voice_profile.not_found", "profile_id", id)
		return nil, nil
	}
	s.log.Debug("db.voice_profile.fetched", "profile_id", id)
	return p, nil
}

// VoiceProfileByName returns the profile with the given name, or nil if
// there is none. With duplicate names the oldest profile wins.
func (s *Store) VoiceProfileByName(ctx context.Context, name string) (*VoiceProfile, error) {
	p, err := s.getProfile(ctx, "get voice profile by name",
		`SELECT id, name, audio_path, embedding, duration_sec, created_at
		FROM voice_profiles WHERE name = ? ORDER BY id ASC LIMIT 1`, name)
	if err != nil {
		return nil, err
	}
	if p == nil {
		s.log.Debug("db.voice_profile.not_found", "name", name)
		return nil, nil
	}
	s.log.Debug("db.voice_profile.fetched", "profile_id", p.ID, "name", name)
	return p, nil
}

func (s *Store) getProfile(ctx context.Context, op, query string, arg any) (*VoiceProfile, error) {
	var profile *VoiceProfile
	err := s.do(ctx, op, func(db *sql.DB) error {
		var p VoiceProfile
		err := db.QueryRowContext(ctx, query, arg).Scan(
			&p.ID, &p.Name, &p.AudioPath, &p.Embedding, &p.DurationSec, &p.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		profile = &p
		return nil
	})
	return profile, err
}

// ListVoiceProfiles returns every profile, newest first, without
// embeddings.
func (s *Store) ListVoiceProfiles(ctx context.Context) ([]VoiceProfile, error) {
	profiles := []VoiceProfile{}
	err := s.do(ctx, "list voice profiles", func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `
			SELECT id, name, audio_path, duration_sec, created_at
			FROM voice_profiles
			ORDER BY created_at DESC, id DESC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p VoiceProfile
			if err := rows.Scan(&p.ID, &p.Name, &p.AudioPath, &p.DurationSec, &p.CreatedAt); err != nil {
				return err
			}
			profiles = append(profiles, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("db.voice_profiles.listed", "count", len(profiles))
	return profiles, nil
}

// DeleteVoiceProfile removes a profile and reports whether it existed.
// Turns that reference the profile keep their now dangling id.
func (s *Store) DeleteVoiceProfile(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := s.do(ctx, "delete voice profile", func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `DELETE FROM voice_profiles WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		s.log.Error("db.voice_profile.delete_failed", "profile_id", id, "error", err)
		return false, err
	}
	s.log.Info("db.voice_profile.deleted", "profile_id", id, "deleted", n > 0)
	return n > 0, nil
}
