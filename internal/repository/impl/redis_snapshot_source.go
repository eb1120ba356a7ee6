package impl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tsu-battle/internal/pkg/redis"
	"tsu-battle/internal/pkg/xerrors"
	"tsu-battle/internal/repository/interfaces"
)

// Redis 键前缀
const (
	monsterKeyPrefix = "battle:monster:"
	moveKeyPrefix    = "battle:move:"
	itemKeyPrefix    = "battle:item:"
)

// RedisSnapshotSource 以 JSON 形式存放在 Redis 中的定义数据源
type RedisSnapshotSource struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSnapshotSource 创建 Redis 数据源，ttl 为 0 表示写入的键不过期
func NewRedisSnapshotSource(client *redis.Client, ttl time.Duration) *RedisSnapshotSource {
	return &RedisSnapshotSource{client: client, ttl: ttl}
}

var _ interfaces.MonsterSnapshotSource = (*RedisSnapshotSource)(nil)

// GetMonster 根据ID获取怪兽记录
func (s *RedisSnapshotSource) GetMonster(ctx context.Context, monsterID string) (*interfaces.MonsterRecord, error) {
	var rec interfaces.MonsterRecord
	if err := s.get(ctx, monsterKeyPrefix, "monster", monsterID, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetMove 根据ID获取招式定义
func (s *RedisSnapshotSource) GetMove(ctx context.Context, moveID string) (*interfaces.MoveRecord, error) {
	var rec interfaces.MoveRecord
	if err := s.get(ctx, moveKeyPrefix, "move", moveID, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetItem 根据ID获取道具定义
func (s *RedisSnapshotSource) GetItem(ctx context.Context, itemID string) (*interfaces.ItemRecord, error) {
	var rec interfaces.ItemRecord
	if err := s.get(ctx, itemKeyPrefix, "item", itemID, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetMonsters 批量获取怪兽记录，任一缺失即返回错误
func (s *RedisSnapshotSource) GetMonsters(ctx context.Context, monsterIDs []string) ([]*interfaces.MonsterRecord, error) {
	keys := make([]string, len(monsterIDs))
	for i, id := range monsterIDs {
		keys[i] = monsterKeyPrefix + id
	}
	values, found, err := s.client.MGetStrings(ctx, keys...)
	if err != nil {
		return nil, xerrors.NewWithError(xerrors.CodeCacheError, "批量读取怪兽记录失败", err)
	}
	out := make([]*interfaces.MonsterRecord, len(monsterIDs))
	for i, id := range monsterIDs {
		if !found[i] {
			return nil, xerrors.NewNotFoundError("monster", id)
		}
		var rec interfaces.MonsterRecord
		if err := json.Unmarshal([]byte(values[i]), &rec); err != nil {
			return nil, fmt.Errorf("解析怪兽记录失败 %s: %w", id, err)
		}
		out[i] = &rec
	}
	return out, nil
}

func (s *RedisSnapshotSource) get(ctx context.Context, prefix, kind, id string, out interface{}) error {
	raw, err := s.client.GetString(ctx, prefix+id)
	if errors.Is(err, redis.Nil) {
		return xerrors.NewNotFoundError(kind, id)
	}
	if err != nil {
		return xerrors.NewWithError(xerrors.CodeCacheError, "读取"+kind+"记录失败", err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("解析%s记录失败 %s: %w", kind, id, err)
	}
	return nil
}

// PutMonster 写入怪兽记录
func (s *RedisSnapshotSource) PutMonster(ctx context.Context, rec *interfaces.MonsterRecord) error {
	return s.put(ctx, monsterKeyPrefix+rec.ID, rec)
}

// PutMove 写入招式定义
func (s *RedisSnapshotSource) PutMove(ctx context.Context, rec *interfaces.MoveRecord) error {
	return s.put(ctx, moveKeyPrefix+rec.ID, rec)
}

// PutItem 写入道具定义
func (s *RedisSnapshotSource) PutItem(ctx context.Context, rec *interfaces.ItemRecord) error {
	return s.put(ctx, itemKeyPrefix+rec.ID, rec)
}

// Seed 把整个目录写入 Redis
func (s *RedisSnapshotSource) Seed(ctx context.Context, catalog *Catalog) error {
	for i := range catalog.Monsters {
		if err := s.PutMonster(ctx, &catalog.Monsters[i]); err != nil {
			return err
		}
	}
	for i := range catalog.Moves {
		if err := s.PutMove(ctx, &catalog.Moves[i]); err != nil {
			return err
		}
	}
	for i := range catalog.Items {
		if err := s.PutItem(ctx, &catalog.Items[i]); err != nil {
			return err
		}
	}
	return nil
}

// Invalidate 删除指定怪兽记录
func (s *RedisSnapshotSource) Invalidate(ctx context.Context, monsterIDs ...string) error {
	keys := make([]string, len(monsterIDs))
	for i, id := range monsterIDs {
		keys[i] = monsterKeyPrefix + id
	}
	return s.client.DeleteKey(ctx, keys...)
}

func (s *RedisSnapshotSource) put(ctx context.Context, key string, rec interface{}) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("序列化记录失败: %w", err)
	}
	if err := s.client.SetWithTTL(ctx, key, data, s.ttl); err != nil {
		return xerrors.NewWithError(xerrors.CodeCacheError, "写入记录失败", err)
	}
	return nil
}
