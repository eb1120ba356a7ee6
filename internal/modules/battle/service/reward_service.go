package service

import (
	"math"
	"slices"

	"tsu-battle/internal/modules/battle/domain"
	"tsu-battle/internal/pkg/config"
)

// RewardService 战斗结束后的奖励计算
type RewardService struct {
	rules config.RewardRules
}

// NewRewardService 创建奖励服务
func NewRewardService(rules config.BattleRules) *RewardService {
	return &RewardService{rules: rules.Reward}
}

// Compute 生成结算结果；仅在有胜方的已完成战斗中发放奖励，其余情况只返回统计
func (s *RewardService) Compute(b *domain.Battle) *domain.BattleEndResult {
	result := &domain.BattleEndResult{
		BattleID: b.ID,
		State:    b.State,
		Winner:   b.Winner,
		Reason:   b.EndReason,
		Turns:    b.Turn,
		EndedAt:  b.EndedAt,
	}
	for _, p := range b.Participants {
		stats := b.StatsFor(p.ID)
		result.Rewards = append(result.Rewards, domain.ParticipantReward{
			ParticipantID: p.ID,
			Team:          p.Team,
			DamageDealt:   stats.DamageDealt,
			Participation: stats.Participation,
			Captured:      append([]string(nil), stats.Captured...),
		})
	}
	if b.State != domain.StateCompleted || b.Winner == "" {
		return result
	}

	experience, coins, items := s.Pools(b)
	recipients := make([]*domain.ParticipantReward, 0, len(result.Rewards))
	for i, p := range b.Participants {
		if p.Team == b.Winner && p.Kind != domain.ControllerWild {
			recipients = append(recipients, &result.Rewards[i])
		}
	}
	if len(recipients) == 0 {
		return result
	}

	shares := s.Shares(recipients)
	expParts := AllocateLargestRemainder(experience, shares)
	coinParts := AllocateLargestRemainder(coins, shares)
	for i, r := range recipients {
		r.Experience = expParts[i]
		r.Coins = coinParts[i]
	}

	// 道具按份额从高到低轮流分配
	order := make([]int, len(recipients))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(x, y int) int {
		switch {
		case shares[x] > shares[y]:
			return -1
		case shares[x] < shares[y]:
			return 1
		}
		return 0
	})
	for i, item := range items {
		r := recipients[order[i%len(order)]]
		r.Items = append(r.Items, item)
	}

	result.TotalExperience = experience
	result.TotalCoins = coins
	result.TotalItems = items
	return result
}

// Pools 计算经验池、金币池和道具池
func (s *RewardService) Pools(b *domain.Battle) (experience, coins int, items []string) {
	divisor := max(s.rules.ExperienceDivisor, 1)
	levels := 0
	for _, p := range b.TeamMembers(b.Winner.Other()) {
		exp := 0
		for _, m := range p.Roster {
			if !m.Fainted || m.Captured {
				continue
			}
			exp += m.BaseExperience * m.Level / divisor
			levels += m.Level
		}
		if p.Kind == domain.ControllerNPC {
			exp = int(math.Floor(float64(exp) * s.rules.TrainerBonus))
			items = append(items, p.RewardItems...)
		}
		experience += exp
	}
	coins = int(math.Floor(float64(s.rules.CoinsPerLevel*levels) * s.rules.WinnerCoinBonus))
	return experience, coins, items
}

// Shares 按伤害与参与度加权计算各获奖方份额，总和为 1
func (s *RewardService) Shares(recipients []*domain.ParticipantReward) []float64 {
	totalDamage, totalParticipation := 0, 0
	for _, r := range recipients {
		totalDamage += r.DamageDealt
		totalParticipation += r.Participation
	}
	wD, wP := s.rules.DamageWeight, s.rules.ParticipationWeight
	if wD+wP <= 0 {
		wD, wP = 1, 1
	}

	equal := 1 / float64(len(recipients))
	shares := make([]float64, len(recipients))
	for i, r := range recipients {
		damageShare, participationShare := equal, equal
		if totalDamage > 0 {
			damageShare = float64(r.DamageDealt) / float64(totalDamage)
		}
		if totalParticipation > 0 {
			participationShare = float64(r.Participation) / float64(totalParticipation)
		}
		shares[i] = (wD*damageShare + wP*participationShare) / (wD + wP)
	}
	return shares
}

// AllocateLargestRemainder 按份额把整数总量分配出去，分配结果之和恰好等于 total
// 余数相同时下标小者优先
func AllocateLargestRemainder(total int, shares []float64) []int {
	out := make([]int, len(shares))
	if total <= 0 || len(shares) == 0 {
		return out
	}
	sum := 0.0
	for _, s := range shares {
		sum += s
	}
	if sum <= 0 {
		shares = slices.Repeat([]float64{1}, len(shares))
		sum = float64(len(shares))
	}

	remainders := make([]float64, len(shares))
	allocated := 0
	for i, s := range shares {
		exact := float64(total) * s / sum
		out[i] = int(math.Floor(exact))
		remainders[i] = exact - float64(out[i])
		allocated += out[i]
	}

	order := make([]int, len(shares))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(x, y int) int {
		switch {
		case remainders[x] > remainders[y]:
			return -1
		case remainders[x] < remainders[y]:
			return 1
		}
		return 0
	})
	for i := 0; allocated < total; i++ {
		out[order[i%len(order)]]++
		allocated++
	}
	return out
}
