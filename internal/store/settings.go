package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/smokyabdulrahman/shaum/internal/fasting"
)

// Setting keys.
const (
	KeyNadzar   = "nadzar_config"
	KeyQadha    = "qadha_config"
	KeyOverride = "ramadhan_override"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// GetJSON decodes the setting stored under key into v. It returns
// ErrNotFound when the key is unset.
func (s *Store) GetJSON(ctx context.Context, key string, v any) error {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read setting %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode setting %s: %w", key, err)
	}
	return nil
}

// SetJSON stores v under key, replacing any previous value.
func (s *Store) SetJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(data))
	if err != nil {
		return fmt.Errorf("write setting %s: %w", key, err)
	}
	return nil
}

// Delete removes a setting. Deleting an unset key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete setting %s: %w", key, err)
	}
	return nil
}

// LoadProfile reads the Nadzar and Qadha configs and the Ramadhan override.
// Missing settings are left zero. Settings that no longer decode or validate
// are logged and skipped so one bad value cannot block every query.
func (s *Store) LoadProfile(ctx context.Context) (fasting.Profile, error) {
	var p fasting.Profile

	for _, item := range []struct {
		key string
		cfg *fasting.RecurrenceConfig
	}{{KeyNadzar, &p.Nadzar}, {KeyQadha, &p.Qadha}} {
		cfg, err := loadSetting[fasting.RecurrenceConfig](ctx, s, item.key)
		if err != nil {
			return fasting.Profile{}, err
		}
		if err := cfg.Validate(); err != nil {
			s.log.Warn().Err(err).Str("key", item.key).Msg("ignoring invalid recurrence config")
			continue
		}
		*item.cfg = cfg
	}

	o, err := loadSetting[fasting.RamadhanOverride](ctx, s, KeyOverride)
	if err != nil {
		return fasting.Profile{}, err
	}
	if o != (fasting.RamadhanOverride{}) {
		p.Override = &o
	}

	return p, nil
}

// loadSetting is GetJSON that treats a missing key as zero and an
// undecodable value as a logged miss. A value that only partly decodes is
// dropped whole. Only database failures are returned.
func loadSetting[T any](ctx context.Context, s *Store, key string) (T, error) {
	var v, zero T
	err := s.GetJSON(ctx, key, &v)
	switch {
	case err == nil:
		return v, nil
	case errors.Is(err, ErrNotFound):
		return zero, nil
	case isDecodeError(err):
		s.log.Warn().Err(err).Str("key", key).Msg("ignoring unreadable setting")
		return zero, nil
	default:
		return zero, err
	}
}

func isDecodeError(err error) bool {
	var syntax *json.SyntaxError
	var typ *json.UnmarshalTypeError
	return errors.As(err, &syntax) || errors.As(err, &typ)
}

// configKey maps an obligation type to its setting key.
func configKey(t fasting.FastingType) (string, error) {
	switch t {
	case fasting.Nadzar:
		return KeyNadzar, nil
	case fasting.Qadha:
		return KeyQadha, nil
	}
	return "", fmt.Errorf("rules can only be set for %s or %s, not %q", fasting.Nadzar, fasting.Qadha, t)
}

// SaveConfig validates and stores the recurrence config for Nadzar or Qadha.
func (s *Store) SaveConfig(ctx context.Context, t fasting.FastingType, cfg fasting.RecurrenceConfig) error {
	key, err := configKey(t)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return s.SetJSON(ctx, key, cfg)
}

// ClearConfig removes the recurrence config for Nadzar or Qadha.
func (s *Store) ClearConfig(ctx context.Context, t fasting.FastingType) error {
	key, err := configKey(t)
	if err != nil {
		return err
	}
	return s.Delete(ctx, key)
}

// SaveOverride validates and stores the Ramadhan override.
func (s *Store) SaveOverride(ctx context.Context, o fasting.RamadhanOverride) error {
	if err := o.Validate(); err != nil {
		return err
	}
	return s.SetJSON(ctx, KeyOverride, o)
}

// ClearOverride removes the Ramadhan override.
func (s *Store) ClearOverride(ctx context.Context) error {
	return s.Delete(ctx, KeyOverride)
}
