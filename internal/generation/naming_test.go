package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uigen/internal/adapter/memory"
	"uigen/internal/domain"
)

func TestPascalName(t *testing.T) {
	cases := map[string]string{
		"UserTable":        "UserTable",
		"user table":       "UserTable",
		"pricing-card v2":  "PricingCardV2",
		"  ":               "Component",
		"404 page":         "Component404Page",
		"already_snake_it": "AlreadySnakeIt",
	}
	for in, want := range cases {
		if got := PascalName(in); got != want {
			t.Fatalf("PascalName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNamerProbesSuffixesThenTimestamp(t *testing.T) {
	ctx := context.Background()
	store := memory.NewComponentStore()
	n := NewNamer(store, 2)
	n.now = func() time.Time { return time.UnixMilli(1700000000123) }

	want := []string{"Button", "Button1", "Button2", "Button_1700000000123"}
	for i, expected := range want {
		name, err := n.Unique(ctx, "Button")
		require.NoError(t, err)
		require.Equal(t, expected, name, "probe %d", i)
		c := domain.NewComponent(name, name, domain.GeneratedArtifact{Category: domain.CategoryButton}, domain.SourceModel)
		require.NoError(t, store.Create(ctx, c))
	}
}

func TestNamerDefaultProbeBound(t *testing.T) {
	n := NewNamer(memory.NewComponentStore(), 0)
	assert.Equal(t, MaxNameProbes, n.maxProbes)
}

// racingStore reports every name as free but rejects the first creates, as if a
// concurrent writer took the name in between.
type racingStore struct {
	*memory.ComponentStore
	conflicts int
}

func (r *racingStore) FindByName(context.Context, string) (*domain.Component, error) {
	return nil, domain.ErrNotFound
}

func (r *racingStore) Create(ctx context.Context, c *domain.Component) error {
	if r.conflicts > 0 {
		r.conflicts--
		return domain.ErrDuplicateName
	}
	return r.ComponentStore.Create(ctx, c)
}

func TestNamerSaveReprobesOnConflict(t *testing.T) {
	ctx := context.Background()

	store := &racingStore{ComponentStore: memory.NewComponentStore(), conflicts: 2}
	c := domain.NewComponent("id-1", "Card", domain.GeneratedArtifact{Code: cardCode}, domain.SourceModel)
	require.NoError(t, NewNamer(store, 0).Save(ctx, c))
	assert.Equal(t, "Card", c.Name)

	store = &racingStore{ComponentStore: memory.NewComponentStore(), conflicts: saveAttempts}
	c = domain.NewComponent("id-2", "Card", domain.GeneratedArtifact{Code: cardCode}, domain.SourceModel)
	err := NewNamer(store, 0).Save(ctx, c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicateName))
}

func TestNamerSaveRenamesDeclaredComponent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewComponentStore()
	taken := domain.NewComponent("id-0", "UserTable", domain.GeneratedArtifact{Category: domain.CategoryTable}, domain.SourceModel)
	require.NoError(t, store.Create(ctx, taken))

	code := "import React from 'react';\nexport interface UserTableProps {}\nexport default function UserTable(p: UserTableProps) { return null; }\n"
	c := domain.NewComponent("id-1", "user table", domain.GeneratedArtifact{Code: code}, domain.SourceModel)
	require.NoError(t, NewNamer(store, 0).Save(ctx, c))

	assert.Equal(t, "UserTable1", c.Name)
	assert.Contains(t, c.Code, "function UserTable1(p: UserTable1Props)")
	assert.NotContains(t, c.Code, "function UserTable(")

	code = "export default function Widget() { return null; }\n"
	c = domain.NewComponent("id-2", "Pricing", domain.GeneratedArtifact{Code: code}, domain.SourceModel)
	require.NoError(t, NewNamer(store, 0).Save(ctx, c))
	assert.Equal(t, "Pricing", c.Name)
	assert.Contains(t, c.Code, "function Pricing()")
}

func TestRenameComponent(t *testing.T) {
	code := "import Card from '@mui/material/Card';\nexport interface CardProps {}\nexport default function Card(p: CardProps) { return <CardHeader />; }"
	got := RenameComponent(code, "Card", "Card2")
	assert.Contains(t, got, "'@mui/material/Card'")
	assert.Contains(t, got, "interface Card2Props")
	assert.Contains(t, got, "function Card2(p: Card2Props)")
	assert.Contains(t, got, "<CardHeader />")
	assert.Equal(t, code, RenameComponent(code, "Card", "Card"))
}
