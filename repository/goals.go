package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/hpmalinova/monifly/model"
)

type GoalRepoSQL struct {
	store *Store
	now   func() time.Time
}

func NewGoalRepo(store *Store) *GoalRepoSQL {
	return &GoalRepoSQL{store: store, now: time.Now}
}

const goalColumns = "id, user_id, title, description, target_amount, current_saved, target_date, status, created_at"

func scanGoal(row rowScanner) (*model.Goal, error) {
	var (
		g           model.Goal
		description sql.NullString
	)
	err := row.Scan(&g.ID, &g.UserID, &g.Title, &description, &g.TargetAmount, &g.CurrentSaved, &g.TargetDate,
		&g.Status, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	g.Description = description.String
	return &g, nil
}

func (g *GoalRepoSQL) Find(ctx context.Context, userID string) ([]model.Goal, error) {
	statement := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := g.store.query(ctx, statement, userID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	goals := []model.Goal{}
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, classify(err)
		}
		goals = append(goals, *goal)
	}
	if err = rows.Err(); err != nil {
		return nil, classify(err)
	}
	return goals, nil
}

func (g *GoalRepoSQL) FindByID(ctx context.Context, userID, id string) (*model.Goal, error) {
	statement := `SELECT ` + goalColumns + ` FROM goals WHERE id = ? AND user_id = ?`
	goal, err := scanGoal(g.store.queryRow(ctx, statement, id, userID))
	if err != nil {
		return nil, classify(err)
	}
	return goal, nil
}

// Create derives the status from the amounts.
func (g *GoalRepoSQL) Create(ctx context.Context, goal *model.Goal) (*model.Goal, error) {
	created := *goal
	created.ID = uuid.NewString()
	created.Status = model.GoalStatusFor(created.CurrentSaved, created.TargetAmount)
	created.CreatedAt = g.now().UTC()

	statement := "INSERT INTO goals(" + goalColumns + ") VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := g.store.exec(ctx, statement, created.ID, created.UserID, created.Title, nullString(created.Description),
		created.TargetAmount, created.CurrentSaved, created.TargetDate, created.Status, created.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &created, nil
}

func (g *GoalRepoSQL) Update(ctx context.Context, goal *model.Goal) (*model.Goal, error) {
	updated := *goal
	updated.Status = model.GoalStatusFor(updated.CurrentSaved, updated.TargetAmount)

	statement := `UPDATE goals SET title = ?, description = ?, target_amount = ?, current_saved = ?, target_date = ?, status = ?
					WHERE id = ? AND user_id = ?`
	err := expectOne(g.store.exec(ctx, statement, updated.Title, nullString(updated.Description), updated.TargetAmount,
		updated.CurrentSaved, updated.TargetDate, updated.Status, updated.ID, updated.UserID))
	if err != nil {
		return nil, err
	}
	return g.FindByID(ctx, updated.UserID, updated.ID)
}

func (g *GoalRepoSQL) Delete(ctx context.Context, userID, id string) error {
	return expectOne(g.store.exec(ctx, "DELETE FROM goals WHERE id = ? AND user_id = ?", id, userID))
}
