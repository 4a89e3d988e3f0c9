package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finance_tracker/internal/apperr"
	"finance_tracker/internal/models"
	"finance_tracker/internal/repository"
)

const (
	msgCategoryNotFound  = "Category not found"
	msgCategoryNameEmpty = "Category name must not be empty"
)

type CategoryService struct {
	repo repository.Categories
	now  func() time.Time
}

func NewCategoryService(repo repository.Categories) *CategoryService {
	return &CategoryService{repo: repo, now: time.Now}
}

func (s *CategoryService) CreateCategory(ctx context.Context, userID int64, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.BadRequest(msgCategoryNameEmpty)
	}
	icon := in.Icon
	if icon == "" {
		icon = models.DefaultCategoryIcon
	}

	now := s.now().UTC()
	c := models.Category{
		UserID:      userID,
		Name:        name,
		Description: in.Description,
		Icon:        icon,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	id, err := s.repo.Create(ctx, c)
	if err != nil {
		if errors.Is(err, repository.ErrNoOwner) {
			// access token outlived the account
			return nil, apperr.Unauthorized(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	c.ID = id
	return &c, nil
}

func (s *CategoryService) ListCategories(ctx context.Context, userID int64, page Page) ([]models.Category, error) {
	page = page.normalize()
	out, err := s.repo.List(ctx, userID, page.Skip, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func (s *CategoryService) GetCategory(ctx context.Context, userID, id int64) (*models.Category, error) {
	c, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if c == nil {
		return nil, apperr.NotFound(msgCategoryNotFound)
	}
	return c, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, userID, id int64, p CategoryPatch) (*models.Category, error) {
	c, err := s.GetCategory(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, apperr.BadRequest(msgCategoryNameEmpty)
		}
		c.Name = name
	}
	if p.Description != nil {
		c.Description = p.Description
	}
	if p.Icon != nil && *p.Icon != "" {
		c.Icon = *p.Icon
	}
	c.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, *c); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(msgCategoryNotFound)
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

func (s *CategoryService) DeleteCategory(ctx context.Context, userID, id int64) error {
	ok, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if !ok {
		return apperr.NotFound(msgCategoryNotFound)
	}
	return nil
}
