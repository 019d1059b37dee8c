package repository

import (
	"context"

	"github.com/hpmalinova/monifly/model"
)

type CategoryRepoSQL struct {
	store *Store
}

func NewCategoryRepo(store *Store) *CategoryRepoSQL {
	return &CategoryRepoSQL{store: store}
}

func (c *CategoryRepoSQL) FindAll(ctx context.Context) ([]model.Category, error) {
	statement := `SELECT id, c_type, name FROM categories ORDER BY id`
	return c.find(ctx, statement)
}

func (c *CategoryRepoSQL) FindByType(ctx context.Context, cType string) ([]model.Category, error) {
	statement := `SELECT id, c_type, name FROM categories WHERE c_type = ? ORDER BY id`
	return c.find(ctx, statement, cType)
}

func (c *CategoryRepoSQL) FindByName(ctx context.Context, cType, name string) (*model.Category, error) {
	statement := "SELECT id, c_type, name FROM categories WHERE c_type = ? AND name = ?"
	category := &model.Category{}
	err := c.store.queryRow(ctx, statement, cType, name).Scan(&category.ID, &category.Type, &category.Name)
	if err != nil {
		return nil, classify(err)
	}
	return category, nil
}

func (c *CategoryRepoSQL) find(ctx context.Context, statement string, args ...interface{}) ([]model.Category, error) {
	rows, err := c.store.query(ctx, statement, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var category model.Category
		if err := rows.Scan(&category.ID, &category.Type, &category.Name); err != nil {
			return nil, classify(err)
		}
		categories = append(categories, category)
	}
	if err = rows.Err(); err != nil {
		return nil, classify(err)
	}
	return categories, nil
}
