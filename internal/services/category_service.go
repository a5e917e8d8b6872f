// Package services contains the business logic behind the dashboard
// controllers: categories, transactions, reports, passwords, files, and the
// scheduled notification jobs.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/core"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/storage"
)

// CategoryService manages the per-user category taxonomy.
type CategoryService struct {
	storage *storage.Repository
}

func NewCategoryService(storage *storage.Repository) *CategoryService {
	return &CategoryService{storage: storage}
}

// Create validates the category, resolves its parent, and enforces the
// depth bound and the per-user name uniqueness before inserting.
func (s *CategoryService) Create(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Depth = 0

	if c.ParentID != "" {
		parent, err := s.storage.GetCategory(ctx, c.UserID, c.ParentID)
		if err != nil {
			return core.Category{}, fmt.Errorf("resolve parent: %w", err)
		}
		if parent.Type != c.Type {
			return core.Category{}, core.Validationf("parent category has type %s, want %s", parent.Type, c.Type)
		}
		c.Depth = parent.Depth + 1
		if c.Depth > core.MaxCategoryDepth {
			return core.Category{}, core.Validationf("category nesting exceeds %d levels", core.MaxCategoryDepth+1)
		}
	}

	if err := c.Validate(); err != nil {
		return core.Category{}, core.Validationf("invalid category: %v", err)
	}

	if _, err := s.storage.GetCategoryByName(ctx, c.UserID, c.Type, c.Name); err == nil {
		return core.Category{}, core.Conflictf("category %q already exists", c.Name)
	} else if !core.IsNotFound(err) {
		return core.Category{}, fmt.Errorf("check name uniqueness: %w", err)
	}

	c.ID = uuid.NewString()
	c.Active = true
	if err := s.storage.CreateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	slog.InfoContext(ctx, "Category created",
		"id", c.ID,
		"user_id", c.UserID,
		"name", c.Name,
		"type", c.Type,
		"depth", c.Depth)

	return c, nil
}

func (s *CategoryService) Get(ctx context.Context, userID, id string) (core.Category, error) {
	return s.storage.GetCategory(ctx, userID, id)
}

func (s *CategoryService) List(ctx context.Context, userID string, typ core.TransactionType, activeOnly bool) ([]core.Category, error) {
	return s.storage.ListCategories(ctx, userID, typ, activeOnly)
}

// UpdateRequest carries the mutable category fields. Nil pointers leave the
// current value untouched; an explicit empty ParentID moves the category to
// the root.
type CategoryUpdate struct {
	Name     *string
	ParentID *string
	Color    *string
	Icon     *string
	Active   *bool
}

// Update applies the changes, re-checking name uniqueness on rename and depth
// and cycles on reparent.
func (s *CategoryService) Update(ctx context.Context, userID, id string, upd CategoryUpdate) (core.Category, error) {
	c, err := s.storage.GetCategory(ctx, userID, id)
	if err != nil {
		return core.Category{}, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name != c.Name {
			if existing, err := s.storage.GetCategoryByName(ctx, userID, c.Type, name); err == nil && existing.ID != id {
				return core.Category{}, core.Conflictf("category %q already exists", name)
			} else if err != nil && !core.IsNotFound(err) {
				return core.Category{}, fmt.Errorf("check name uniqueness: %w", err)
			}
			c.Name = name
		}
	}
	if upd.Color != nil {
		c.Color = *upd.Color
	}
	if upd.Icon != nil {
		c.Icon = *upd.Icon
	}
	if upd.Active != nil {
		c.Active = *upd.Active
	}

	if upd.ParentID != nil && *upd.ParentID != c.ParentID {
		newDepth, err := s.checkReparent(ctx, c, *upd.ParentID)
		if err != nil {
			return core.Category{}, err
		}
		c.ParentID = *upd.ParentID
		c.Depth = newDepth
	}

	if err := c.Validate(); err != nil {
		return core.Category{}, core.Validationf("invalid category: %v", err)
	}
	if err := s.storage.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

// checkReparent validates the new parent and returns the category's new
// depth. It rejects cycles (parent inside the category's own subtree) and
// depth overflows of the whole subtree.
func (s *CategoryService) checkReparent(ctx context.Context, c core.Category, newParentID string) (int, error) {
	if newParentID == "" {
		return 0, nil
	}
	if newParentID == c.ID {
		return 0, core.Validationf("category cannot be its own parent")
	}

	parent, err := s.storage.GetCategory(ctx, c.UserID, newParentID)
	if err != nil {
		return 0, fmt.Errorf("resolve parent: %w", err)
	}
	if parent.Type != c.Type {
		return 0, core.Validationf("parent category has type %s, want %s", parent.Type, c.Type)
	}

	all, err := s.storage.ListCategories(ctx, c.UserID, c.Type, false)
	if err != nil {
		return 0, fmt.Errorf("list categories: %w", err)
	}
	children := make(map[string][]core.Category)
	for _, cat := range all {
		if cat.ParentID != "" {
			children[cat.ParentID] = append(children[cat.ParentID], cat)
		}
	}

	// Walking the subtree both detects cycles and measures its height.
	height := 0
	var walk func(id string, depth int) bool
	walk = func(id string, depth int) bool {
		if depth > height {
			height = depth
		}
		for _, child := range children[id] {
			if child.ID == newParentID {
				return false
			}
			if !walk(child.ID, depth+1) {
				return false
			}
		}
		return true
	}
	if !walk(c.ID, 0) {
		return 0, core.Validationf("cannot move category under its own descendant")
	}

	newDepth := parent.Depth + 1
	if newDepth+height > core.MaxCategoryDepth {
		return 0, core.Validationf("category nesting exceeds %d levels", core.MaxCategoryDepth+1)
	}
	return newDepth, nil
}

// Delete removes a category. Categories with children are never deletable;
// categories with transactions require a reassignment target (same user and
// type) or the call is a conflict.
func (s *CategoryService) Delete(ctx context.Context, userID, id, reassignTo string) error {
	c, err := s.storage.GetCategory(ctx, userID, id)
	if err != nil {
		return err
	}

	childCount, err := s.storage.CountCategoryChildren(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("count children: %w", err)
	}
	if childCount > 0 {
		return core.Conflictf("category %q has %d child categories", c.Name, childCount)
	}

	txCount, err := s.storage.CountCategoryTransactions(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("count transactions: %w", err)
	}
	if txCount > 0 {
		if reassignTo == "" {
			return core.Conflictf("category %q has %d transactions; provide a reassignment target", c.Name, txCount)
		}
		target, err := s.storage.GetCategory(ctx, userID, reassignTo)
		if err != nil {
			return fmt.Errorf("resolve reassignment target: %w", err)
		}
		if target.Type != c.Type {
			return core.Validationf("reassignment target has type %s, want %s", target.Type, c.Type)
		}
		moved, err := s.storage.ReassignTransactions(ctx, userID, id, reassignTo)
		if err != nil {
			return fmt.Errorf("reassign transactions: %w", err)
		}
		slog.InfoContext(ctx, "Transactions reassigned before category delete",
			"from", id, "to", reassignTo, "count", moved)
	}

	return s.storage.DeleteCategory(ctx, userID, id)
}

// Tree returns the user's categories as a nested structure, parents before
// children, siblings ordered by name.
func (s *CategoryService) Tree(ctx context.Context, userID string, typ core.TransactionType) ([]*core.CategoryNode, error) {
	all, err := s.storage.ListCategories(ctx, userID, typ, false)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	nodes := make(map[string]*core.CategoryNode, len(all))
	var roots []*core.CategoryNode
	// The list is ordered by depth, so parents are always seen first.
	for _, c := range all {
		node := &core.CategoryNode{Category: c}
		nodes[c.ID] = node
		if c.ParentID == "" {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[c.ParentID]
		if !ok {
			slog.WarnContext(ctx, "Category has unknown parent, treating as root",
				"id", c.ID, "parent_id", c.ParentID)
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	return roots, nil
}

// SetKeywords replaces the auto-categorization keywords for a category the
// user owns. Keywords are matched case-insensitively, so they are stored
// lowercased.
func (s *CategoryService) SetKeywords(ctx context.Context, userID, categoryID string, keywords []string) error {
	if _, err := s.storage.GetCategory(ctx, userID, categoryID); err != nil {
		return err
	}
	normalized := make([]string, 0, len(keywords))
	seen := make(map[string]bool)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		normalized = append(normalized, kw)
	}
	if err := s.storage.SetCategoryKeywords(ctx, categoryID, normalized); err != nil {
		return fmt.Errorf("set keywords: %w", err)
	}
	return nil
}
