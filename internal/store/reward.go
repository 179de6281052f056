package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mootify/routinestars/internal/model"
)

// ErrInsufficientPoints is returned when a redemption costs more than the
// child's balance.
var ErrInsufficientPoints = errors.New("insufficient points")

type RewardStore struct {
	db *sql.DB
}

func NewRewardStore(db *sql.DB) *RewardStore {
	return &RewardStore{db: db}
}

const rewardCols = `id, group_id, title, description, point_cost, active, created_at`

func scanReward(scanner interface{ Scan(...any) error }) (*model.Reward, error) {
	var r model.Reward
	var active int

	err := scanner.Scan(&r.ID, &r.GroupID, &r.Title, &r.Description, &r.PointCost, &active, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.Active = active != 0
	return &r, nil
}

func (s *RewardStore) Create(groupID int64, title, description string, pointCost int, active bool) (*model.Reward, error) {
	result, err := s.db.Exec(
		`INSERT INTO rewards (group_id, title, description, point_cost, active) VALUES (?, ?, ?, ?, ?)`,
		groupID, title, description, pointCost, boolToInt(active),
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *RewardStore) GetByID(id int64) (*model.Reward, error) {
	row := s.db.QueryRow(`SELECT `+rewardCols+` FROM rewards WHERE id = ?`, id)
	r, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return r, nil
}

// List returns the group's rewards, active first, then by title.
func (s *RewardStore) List(groupID int64) ([]model.Reward, error) {
	rows, err := s.db.Query(`SELECT `+rewardCols+` FROM rewards WHERE group_id = ? ORDER BY active DESC, title`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

func (s *RewardStore) Update(id int64, title, description string, pointCost int, active bool) (*model.Reward, error) {
	_, err := s.db.Exec(
		`UPDATE rewards SET title = ?, description = ?, point_cost = ?, active = ? WHERE id = ?`,
		title, description, pointCost, boolToInt(active), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update reward: %w", err)
	}
	return s.GetByID(id)
}

func (s *RewardStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM rewards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reward: %w", err)
	}
	return nil
}

// Balance computes a child's points: validated task days plus finished-book
// bonuses, minus redemptions.
func (s *RewardStore) Balance(childID int64) (*model.PointBalance, error) {
	var b model.PointBalance
	err := s.db.QueryRow(
		`SELECT c.id, c.name,
		        COALESCE((SELECT SUM(points_awarded) FROM daily_submissions WHERE child_id = c.id AND validated_at IS NOT NULL), 0),
		        COALESCE((SELECT SUM(bonus_points) FROM books WHERE child_id = c.id AND finished_at IS NOT NULL), 0),
		        COALESCE((SELECT SUM(points_spent) FROM reward_redemptions WHERE child_id = c.id), 0)
		 FROM children c WHERE c.id = ?`, childID,
	).Scan(&b.ChildID, &b.ChildName, &b.TaskPoints, &b.BookPoints, &b.TotalSpent)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("balance: %w", err)
	}
	b.TotalEarned = b.TaskPoints + b.BookPoints
	b.Balance = b.TotalEarned - b.TotalSpent
	return &b, nil
}

// Balances returns every child's balance in the group, highest first, for
// the leaderboard.
func (s *RewardStore) Balances(groupID int64) ([]model.PointBalance, error) {
	rows, err := s.db.Query(
		`SELECT c.id, c.name,
		        COALESCE((SELECT SUM(points_awarded) FROM daily_submissions WHERE child_id = c.id AND validated_at IS NOT NULL), 0),
		        COALESCE((SELECT SUM(bonus_points) FROM books WHERE child_id = c.id AND finished_at IS NOT NULL), 0),
		        COALESCE((SELECT SUM(points_spent) FROM reward_redemptions WHERE child_id = c.id), 0)
		 FROM children c WHERE c.group_id = ? ORDER BY c.sort_order`, groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("balances: %w", err)
	}
	defer rows.Close()

	var balances []model.PointBalance
	for rows.Next() {
		var b model.PointBalance
		if err := rows.Scan(&b.ChildID, &b.ChildName, &b.TaskPoints, &b.BookPoints, &b.TotalSpent); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		b.TotalEarned = b.TaskPoints + b.BookPoints
		b.Balance = b.TotalEarned - b.TotalSpent
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// Redeem spends points on a reward, rejecting with ErrInsufficientPoints
// when the balance cannot cover the cost.
func (s *RewardStore) Redeem(rewardID, childID int64) (*model.RewardRedemption, error) {
	reward, err := s.GetByID(rewardID)
	if err != nil {
		return nil, err
	}
	if reward == nil {
		return nil, fmt.Errorf("reward not found")
	}

	balance, err := s.Balance(childID)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return nil, fmt.Errorf("child not found")
	}
	if balance.Balance < reward.PointCost {
		return nil, ErrInsufficientPoints
	}

	result, err := s.db.Exec(
		`INSERT INTO reward_redemptions (reward_id, child_id, points_spent) VALUES (?, ?, ?)`,
		rewardID, childID, reward.PointCost,
	)
	if err != nil {
		return nil, fmt.Errorf("insert redemption: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var red model.RewardRedemption
	err = s.db.QueryRow(
		`SELECT id, reward_id, child_id, points_spent, redeemed_at FROM reward_redemptions WHERE id = ?`, id,
	).Scan(&red.ID, &red.RewardID, &red.ChildID, &red.PointsSpent, &red.RedeemedAt)
	if err != nil {
		return nil, fmt.Errorf("get redemption: %w", err)
	}
	return &red, nil
}

func (s *RewardStore) ListRedemptions(childID int64, limit int) ([]model.RewardRedemption, error) {
	rows, err := s.db.Query(
		`SELECT id, reward_id, child_id, points_spent, redeemed_at
		 FROM reward_redemptions WHERE child_id = ? ORDER BY redeemed_at DESC LIMIT ?`,
		childID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list redemptions: %w", err)
	}
	defer rows.Close()

	var reds []model.RewardRedemption
	for rows.Next() {
		var red model.RewardRedemption
		if err := rows.Scan(&red.ID, &red.RewardID, &red.ChildID, &red.PointsSpent, &red.RedeemedAt); err != nil {
			return nil, fmt.Errorf("scan redemption: %w", err)
		}
		reds = append(reds, red)
	}
	return reds, rows.Err()
}
