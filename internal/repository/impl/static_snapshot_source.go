package impl

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tsu-battle/internal/pkg/xerrors"
	"tsu-battle/internal/repository/interfaces"
)

// Catalog 怪兽、招式与道具定义目录
type Catalog struct {
	Monsters []interfaces.MonsterRecord `yaml:"monsters" json:"monsters"`
	Moves    []interfaces.MoveRecord    `yaml:"moves" json:"moves"`
	Items    []interfaces.ItemRecord    `yaml:"items" json:"items"`
}

// LoadCatalog 从 YAML 文件加载目录
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取目录文件失败: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog 解析 YAML 目录
func ParseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("解析目录失败: %w", err)
	}
	return &catalog, nil
}

type staticSnapshotSource struct {
	monsters map[string]interfaces.MonsterRecord
	moves    map[string]interfaces.MoveRecord
	items    map[string]interfaces.ItemRecord
}

// NewStaticSnapshotSource 以内存目录创建只读数据源，ID 重复时返回错误
func NewStaticSnapshotSource(catalog *Catalog) (interfaces.MonsterSnapshotSource, error) {
	s := &staticSnapshotSource{
		monsters: make(map[string]interfaces.MonsterRecord, len(catalog.Monsters)),
		moves:    make(map[string]interfaces.MoveRecord, len(catalog.Moves)),
		items:    make(map[string]interfaces.ItemRecord, len(catalog.Items)),
	}
	for _, m := range catalog.Monsters {
		if _, ok := s.monsters[m.ID]; ok {
			return nil, fmt.Errorf("怪兽 ID 重复: %s", m.ID)
		}
		s.monsters[m.ID] = m
	}
	for _, m := range catalog.Moves {
		if _, ok := s.moves[m.ID]; ok {
			return nil, fmt.Errorf("招式 ID 重复: %s", m.ID)
		}
		s.moves[m.ID] = m
	}
	for _, it := range catalog.Items {
		if _, ok := s.items[it.ID]; ok {
			return nil, fmt.Errorf("道具 ID 重复: %s", it.ID)
		}
		s.items[it.ID] = it
	}
	return s, nil
}

// GetMonster 根据ID获取怪兽记录
func (s *staticSnapshotSource) GetMonster(ctx context.Context, monsterID string) (*interfaces.MonsterRecord, error) {
	rec, ok := s.monsters[monsterID]
	if !ok {
		return nil, xerrors.NewNotFoundError("monster", monsterID)
	}
	rec.Types = append([]string(nil), rec.Types...)
	rec.Moves = append([]string(nil), rec.Moves...)
	return &rec, nil
}

// GetMove 根据ID获取招式定义
func (s *staticSnapshotSource) GetMove(ctx context.Context, moveID string) (*interfaces.MoveRecord, error) {
	rec, ok := s.moves[moveID]
	if !ok {
		return nil, xerrors.NewNotFoundError("move", moveID)
	}
	rec.Effects = append([]interfaces.MoveEffectRecord(nil), rec.Effects...)
	return &rec, nil
}

// GetItem 根据ID获取道具定义
func (s *staticSnapshotSource) GetItem(ctx context.Context, itemID string) (*interfaces.ItemRecord, error) {
	rec, ok := s.items[itemID]
	if !ok {
		return nil, xerrors.NewNotFoundError("item", itemID)
	}
	return &rec, nil
}
