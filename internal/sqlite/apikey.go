package sqlite

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/scopeguard/internal/repository"
)

// APIKey describes a stored key. The token itself is never stored.
type APIKey struct {
	KeyHash     string     `json:"key_hash"`
	UserID      string     `json:"user_id"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	LastUsed    *time.Time `json:"last_used,omitempty"`
}

// APIKeyRepository maps bearer tokens to user identities.
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create issues a new token for userID and returns it. An empty userID gets
// a fresh uuid identity.
func (r *APIKeyRepository) Create(ctx context.Context, userID, description string) (string, *APIKey, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = uuid.NewString()
	}

	secret := make([]byte, 24)
	if _, err := rand.Read(secret); err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	token := "sg_" + hex.EncodeToString(secret)

	key := &APIKey{
		KeyHash:     HashToken(token),
		UserID:      userID,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, user_id, created_at, description) VALUES (?, ?, ?, ?)`,
		key.KeyHash, key.UserID, key.CreatedAt, key.Description,
	)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create api key: %w", err)
	}
	return token, key, nil
}

// ResolveUser returns the user owning token and stamps last_used.
func (r *APIKeyRepository) ResolveUser(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", repository.ErrNotFound
	}
	hash := HashToken(token)

	var userID string
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM api_keys WHERE key_hash = ?`, hash).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && userID == "") {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve api key: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, time.Now().UTC(), hash); err != nil {
		return "", fmt.Errorf("failed to stamp api key: %w", err)
	}
	return userID, nil
}

// List returns all keys, optionally for one user, newest first.
func (r *APIKeyRepository) List(ctx context.Context, userID string) ([]APIKey, error) {
	query := `SELECT key_hash, user_id, description, created_at, last_used FROM api_keys`
	args := []any{}
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer rows.Close()

	keys := []APIKey{}
	for rows.Next() {
		var key APIKey
		var description sql.NullString
		var lastUsed sql.NullTime
		if err := rows.Scan(&key.KeyHash, &key.UserID, &description, &key.CreatedAt, &lastUsed); err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		key.Description = description.String
		if lastUsed.Valid {
			key.LastUsed = &lastUsed.Time
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating api key rows: %w", err)
	}
	return keys, nil
}

// HashToken returns the stored form of a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
