package engine

import (
	"fmt"

	"habitquest/internal/state"
)

// AddReward defines a reward the player can buy with points.
func (s *Service) AddReward(name string, cost int) (state.Reward, error) {
	name, err := normalizeName(name)
	if err != nil {
		return state.Reward{}, err
	}
	if cost <= 0 {
		return state.Reward{}, fmt.Errorf("reward cost must be positive, got %d", cost)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.docs.Current()
	if err := CanCreateReward(LevelForTotalXP(doc.TotalXP)); err != nil {
		return state.Reward{}, err
	}
	r := state.Reward{ID: s.newID(), Name: name, Cost: cost}
	rewards := append(doc.Rewards, r)
	if err := s.docs.Save(state.Patch{Rewards: &rewards}); err != nil {
		return state.Reward{}, fmt.Errorf("save reward: %w", err)
	}
	return r, nil
}

// RedeemReward spends points and adds the reward to the inventory.
func (s *Service) RedeemReward(id string) (state.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.docs.Current()
	var reward *state.Reward
	for i := range doc.Rewards {
		if doc.Rewards[i].ID == id || equalFold(doc.Rewards[i].Name, id) {
			reward = &doc.Rewards[i]
			break
		}
	}
	if reward == nil {
		return state.InventoryItem{}, NotFoundError{Kind: "reward", ID: id}
	}
	if doc.Points < reward.Cost {
		return state.InventoryItem{}, InsufficientPointsError{Need: reward.Cost, Have: doc.Points}
	}

	item := state.InventoryItem{
		ID:         s.newID(),
		RewardID:   reward.ID,
		Name:       reward.Name,
		RedeemedAt: s.now(),
	}
	points := doc.Points - reward.Cost
	inventory := append(doc.Inventory, item)
	if err := s.docs.Save(state.Patch{Inventory: &inventory, Points: &points}); err != nil {
		return state.InventoryItem{}, fmt.Errorf("redeem reward: %w", err)
	}
	return item, nil
}

func (s *Service) Rewards() []state.Reward {
	return s.docs.Current().Rewards
}

func (s *Service) Inventory() []state.InventoryItem {
	return s.docs.Current().Inventory
}
