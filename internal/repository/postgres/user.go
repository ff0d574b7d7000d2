package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/intake-api/internal/model"
)

const userColumns = `id, name, email, phone, created_at, updated_at`

func (g *Gateway) CreateUser(ctx context.Context, user model.NewUser) (u *model.User, err error) {
	defer func(start time.Time) { g.observe("create_user", start, err) }(time.Now())

	now := g.now()
	created := model.User{
		Base:  model.Base{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now},
		Name:  user.Name,
		Email: user.Email,
		Phone: user.Phone,
	}

	query := `
		INSERT INTO users (id, name, email, phone, created_at, updated_at)
		VALUES (:id, :name, :email, :phone, :created_at, :updated_at)
	`
	if _, err := g.db.NamedExecContext(ctx, query, created); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", translate(err))
	}
	return &created, nil
}

func (g *Gateway) GetUser(ctx context.Context, id string) (u *model.User, err error) {
	defer func(start time.Time) { g.observe("get_user", start, err) }(time.Now())

	var user model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := g.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, translate(err))
	}
	return &user, nil
}

func (g *Gateway) FindUserByEmail(ctx context.Context, email string) (u *model.User, err error) {
	defer func(start time.Time) { g.observe("find_user_by_email", start, err) }(time.Now())

	var user model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	if err := g.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", translate(err))
	}
	return &user, nil
}
