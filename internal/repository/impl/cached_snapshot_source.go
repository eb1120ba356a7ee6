package impl

import (
	"context"
	"time"

	"tsu-battle/internal/pkg/log"
	"tsu-battle/internal/pkg/metrics"
	"tsu-battle/internal/pkg/recordcache"
	"tsu-battle/internal/repository/interfaces"
)

// CachedSnapshotSource 在任意数据源外层加进程内 TTL 缓存
// 记录只读，缓存中的指针不会被调用方修改
type CachedSnapshotSource struct {
	next     interfaces.MonsterSnapshotSource
	monsters *recordcache.Cache[*interfaces.MonsterRecord]
	moves    *recordcache.Cache[*interfaces.MoveRecord]
	items    *recordcache.Cache[*interfaces.ItemRecord]
}

// NewCachedSnapshotSource 创建带缓存的数据源
func NewCachedSnapshotSource(next interfaces.MonsterSnapshotSource, ttl time.Duration, m *metrics.ResourceMetrics, logger log.Logger) *CachedSnapshotSource {
	return &CachedSnapshotSource{
		next:     next,
		monsters: recordcache.New[*interfaces.MonsterRecord]("monster", ttl, m, logger),
		moves:    recordcache.New[*interfaces.MoveRecord]("move", ttl, m, logger),
		items:    recordcache.New[*interfaces.ItemRecord]("item", ttl, m, logger),
	}
}

var _ interfaces.MonsterSnapshotSource = (*CachedSnapshotSource)(nil)

// GetMonster 根据ID获取怪兽记录
// 怪兽记录带有续战 HP，只缓存满状态的记录
func (s *CachedSnapshotSource) GetMonster(ctx context.Context, monsterID string) (*interfaces.MonsterRecord, error) {
	if rec, ok := s.monsters.Get(ctx, monsterID); ok {
		return rec, nil
	}
	rec, err := s.next.GetMonster(ctx, monsterID)
	if err != nil {
		return nil, err
	}
	if rec.CurrentHP == nil && rec.Status == "" {
		s.monsters.Set(ctx, monsterID, rec)
	}
	return rec, nil
}

// GetMove 根据ID获取招式定义
func (s *CachedSnapshotSource) GetMove(ctx context.Context, moveID string) (*interfaces.MoveRecord, error) {
	if rec, ok := s.moves.Get(ctx, moveID); ok {
		return rec, nil
	}
	rec, err := s.next.GetMove(ctx, moveID)
	if err != nil {
		return nil, err
	}
	s.moves.Set(ctx, moveID, rec)
	return rec, nil
}

// GetItem 根据ID获取道具定义
func (s *CachedSnapshotSource) GetItem(ctx context.Context, itemID string) (*interfaces.ItemRecord, error) {
	if rec, ok := s.items.Get(ctx, itemID); ok {
		return rec, nil
	}
	rec, err := s.next.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	s.items.Set(ctx, itemID, rec)
	return rec, nil
}

// InvalidateMonster 删除怪兽缓存
func (s *CachedSnapshotSource) InvalidateMonster(ctx context.Context, monsterID string) {
	s.monsters.Delete(ctx, monsterID, "invalidate")
}
