package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"TradeSim/internal/domain/models"
	domrepo "TradeSim/internal/domain/repository"
)

// policyDocument is the on-disk and in-database layout of a policy.
type policyDocument struct {
	Symbol  string                `json:"symbol"`
	SavedAt time.Time             `json:"saved_at"`
	States  models.PolicySnapshot `json:"states"`
}

// FilePolicyStore keeps one JSON document per symbol in a directory.
type FilePolicyStore struct {
	dir string
}

func NewFilePolicyStore(dir string) (*FilePolicyStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("policy directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create policy directory: %w", err)
	}
	return &FilePolicyStore{dir: dir}, nil
}

func (s *FilePolicyStore) path(symbol string) string {
	return filepath.Join(s.dir, fileSafe(symbol)+"_policy.json")
}

func (s *FilePolicyStore) Load(_ context.Context, symbol string) (models.PolicySnapshot, error) {
	b, err := os.ReadFile(s.path(symbol))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domrepo.ErrPolicyNotFound
		}
		return nil, fmt.Errorf("read policy: %w", err)
	}
	var doc policyDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode policy: %w", err)
	}
	if doc.States == nil {
		return nil, fmt.Errorf("decode policy: %s has no states", symbol)
	}
	return doc.States, nil
}

// Save writes to a temporary file and renames it over the previous policy so
// readers never see a partial document.
func (s *FilePolicyStore) Save(_ context.Context, symbol string, snapshot models.PolicySnapshot) error {
	b, err := json.Marshal(policyDocument{Symbol: symbol, SavedAt: time.Now().UTC(), States: snapshot})
	if err != nil {
		return fmt.Errorf("encode policy: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, ".policy-*")
	if err != nil {
		return fmt.Errorf("create temp policy: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write policy: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close policy: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(symbol)); err != nil {
		return fmt.Errorf("replace policy: %w", err)
	}
	return nil
}

// fileSafe maps a symbol to a file name component.
func fileSafe(symbol string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, symbol)
}
