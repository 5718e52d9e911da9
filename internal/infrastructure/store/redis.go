package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Vatanesh/sbg-skribbl/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Key layout, shared by every server process:
//
//	room:<id>:meta     string  JSON room blob
//	room:<id>:players  hash    connection id -> JSON player
//	room:<id>:strokes  list    JSON strokes in insertion order
func roomKey(roomID string) string    { return fmt.Sprintf("room:%s:meta", roomID) }
func playersKey(roomID string) string { return fmt.Sprintf("room:%s:players", roomID) }
func strokesKey(roomID string) string { return fmt.Sprintf("room:%s:strokes", roomID) }

// Redis is the shared Store backing. Values are serialized to JSON strings so
// state survives process restarts and is visible to every process pointed at
// the same instance.
type Redis struct {
	client *redis.Client
}

func NewRedis(addr string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Redis{client: client}, nil
}

// Client exposes the underlying connection for health checks.
func (r *Redis) Client() *redis.Client {
	return r.client
}

func (r *Redis) SetRoom(ctx context.Context, room *domain.Room) error {
	raw, err := json.Marshal(room)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, roomKey(room.ID), raw, 0).Err()
}

func (r *Redis) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	raw, err := r.client.Get(ctx, roomKey(roomID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var room domain.Room
	if err := json.Unmarshal(raw, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *Redis) DelRoom(ctx context.Context, roomID string) error {
	return r.client.Del(ctx, roomKey(roomID)).Err()
}

func (r *Redis) SetPlayer(ctx context.Context, roomID string, player *domain.Player) error {
	raw, err := json.Marshal(player)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, playersKey(roomID), player.ID, raw).Err()
}

func (r *Redis) GetPlayer(ctx context.Context, roomID, playerID string) (*domain.Player, error) {
	raw, err := r.client.HGet(ctx, playersKey(roomID), playerID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p domain.Player
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Redis) GetAllPlayers(ctx context.Context, roomID string) ([]*domain.Player, error) {
	fields, err := r.client.HGetAll(ctx, playersKey(roomID)).Result()
	if err != nil {
		return nil, err
	}
	players := make([]*domain.Player, 0, len(fields))
	for _, raw := range fields {
		var p domain.Player
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, err
		}
		players = append(players, &p)
	}
	sortByJoin(players)
	return players, nil
}

func (r *Redis) DelPlayer(ctx context.Context, roomID, playerID string) error {
	return r.client.HDel(ctx, playersKey(roomID), playerID).Err()
}

func (r *Redis) DelAllPlayers(ctx context.Context, roomID string) error {
	return r.client.Del(ctx, playersKey(roomID)).Err()
}

func (r *Redis) AddStroke(ctx context.Context, roomID string, stroke *domain.Stroke) error {
	raw, err := json.Marshal(stroke)
	if err != nil {
		return err
	}
	return r.client.RPush(ctx, strokesKey(roomID), raw).Err()
}

func (r *Redis) GetStrokes(ctx context.Context, roomID string) ([]*domain.Stroke, error) {
	raws, err := r.client.LRange(ctx, strokesKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	strokes := make([]*domain.Stroke, 0, len(raws))
	for _, raw := range raws {
		var s domain.Stroke
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, err
		}
		strokes = append(strokes, &s)
	}
	return strokes, nil
}

// UpdateStroke rewrites the full list positionally. Lists have no random
// access by id, and stroke lists stay small, so read-all and rewrite is the
// cheapest correct option.
func (r *Redis) UpdateStroke(ctx context.Context, roomID string, stroke *domain.Stroke) (bool, error) {
	strokes, err := r.GetStrokes(ctx, roomID)
	if err != nil {
		return false, err
	}
	found := false
	for i, s := range strokes {
		if s.ID == stroke.ID {
			strokes[i] = stroke
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}
	return true, r.ReplaceStrokes(ctx, roomID, strokes)
}

func (r *Redis) ReplaceStrokes(ctx context.Context, roomID string, strokes []*domain.Stroke) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, strokesKey(roomID))
	for _, s := range strokes {
		raw, err := json.Marshal(s)
		if err != nil {
			return err
		}
		pipe.RPush(ctx, strokesKey(roomID), raw)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Redis) DelStrokes(ctx context.Context, roomID string) error {
	return r.client.Del(ctx, strokesKey(roomID)).Err()
}
