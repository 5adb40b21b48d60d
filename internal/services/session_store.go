package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"

	"fairbet-backend/internal/models"
)

// GetSession loads a session owned by userID. Sessions of other users are
// reported as not found.
func (s *RedisService) GetSession(ctx context.Context, sessionID string, userID int64) (*models.GameSession, error) {
	values, err := s.client.HMGet(ctx, gameSessionKey(sessionID), "data", "version").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get game session: %w", err)
	}

	session, err := sessionFromFields(values)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, models.ErrSessionNotFound
	}
	return session, nil
}

// UpdateSession writes a non-terminal transition. It succeeds only if the
// stored version still equals expectedVersion and returns the new version.
func (s *RedisService) UpdateSession(ctx context.Context, session *models.GameSession, expectedVersion int64) (int64, error) {
	session.Version = expectedVersion + 1
	data, err := json.Marshal(session)
	if err != nil {
		session.Version = expectedVersion
		return 0, fmt.Errorf("failed to marshal game session: %w", err)
	}

	version, err := updateSessionScript.Run(ctx, s.client,
		[]string{gameSessionKey(session.ID)},
		string(data),
		strconv.FormatInt(expectedVersion, 10),
		ttlSeconds(s.opts.SessionTTL),
	).Int64()
	if err != nil {
		session.Version = expectedVersion
		return 0, scriptError(err)
	}
	return version, nil
}

func (s *RedisService) ListActiveSessions(ctx context.Context, userID int64) ([]*models.GameSession, error) {
	ids, err := s.client.SMembers(ctx, userActiveGamesKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get active games: %w", err)
	}

	sessions, err := s.BulkGetGameSessions(ctx, ids)
	if err != nil {
		return nil, err
	}

	active := make([]*models.GameSession, 0, len(sessions))
	for _, session := range sessions {
		if session.UserID == userID && session.IsActive() {
			active = append(active, session)
		}
	}
	return active, nil
}

func (s *RedisService) BulkGetGameSessions(ctx context.Context, sessionIDs []string) ([]*models.GameSession, error) {
	if len(sessionIDs) == 0 {
		return []*models.GameSession{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.SliceCmd, len(sessionIDs))
	for i, id := range sessionIDs {
		cmds[i] = pipe.HMGet(ctx, gameSessionKey(id), "data", "version")
	}

	if _, err := pipe.Exec(ctx); err != nil && !isNil(err) {
		return nil, fmt.Errorf("pipeline execution failed: %w", err)
	}

	sessions := make([]*models.GameSession, 0, len(cmds))
	for i, cmd := range cmds {
		session, err := sessionFromFields(cmd.Val())
		if err != nil {
			if !errors.Is(err, models.ErrSessionNotFound) {
				s.logger.Warn("skipping unreadable game session",
					slog.String("session_id", sessionIDs[i]),
					slog.Any("error", err))
			}
			continue
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}

func sessionFromFields(values []any) (*models.GameSession, error) {
	if len(values) != 2 || values[0] == nil {
		return nil, models.ErrSessionNotFound
	}

	data, ok := values[0].(string)
	if !ok {
		return nil, fmt.Errorf("unexpected session data %T", values[0])
	}

	var session models.GameSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game session: %w", err)
	}

	if raw, ok := values[1].(string); ok {
		version, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid session version: %w", err)
		}
		session.Version = version
	}

	return &session, nil
}
