package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"uigen/internal/domain"
	"uigen/internal/infra"
	"uigen/internal/sqlinline"
)

// DefaultListLimit caps catalog listings that do not ask for a limit.
const DefaultListLimit = 50

// ComponentRepositoryPG implements domain.ComponentRepository on Postgres.
// Name uniqueness is enforced by the components.name unique index.
type ComponentRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewComponentRepository(sql infra.SQLExecutor) *ComponentRepositoryPG {
	return &ComponentRepositoryPG{sql: sql}
}

func (r *ComponentRepositoryPG) Create(ctx context.Context, c *domain.Component) error {
	cols, err := encodeComponent(c)
	if err != nil {
		return fmt.Errorf("create component %s: %w", c.Name, err)
	}
	_, err = r.sql.Exec(ctx, sqlinline.QInsertComponent,
		c.ID,
		c.Name,
		string(c.Category),
		c.Description,
		c.Code,
		cols.props,
		cols.examples,
		c.PreviewHTML,
		cols.tags,
		string(c.GeneratedBy),
		c.JobID,
		c.OwnerID,
		cols.validation,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if infra.IsUniqueViolation(err) {
		return domain.ErrDuplicateName
	}
	return err
}

func (r *ComponentRepositoryPG) FindByName(ctx context.Context, name string) (*domain.Component, error) {
	return r.one(ctx, sqlinline.QSelectComponentByName, name)
}

func (r *ComponentRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Component, error) {
	return r.one(ctx, sqlinline.QSelectComponentByID, id)
}

func (r *ComponentRepositoryPG) Update(ctx context.Context, c *domain.Component) error {
	cols, err := encodeComponent(c)
	if err != nil {
		return fmt.Errorf("update component %s: %w", c.ID, err)
	}
	c.UpdatedAt = time.Now().UTC()
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateComponent,
		c.ID,
		c.Name,
		string(c.Category),
		c.Description,
		c.Code,
		cols.props,
		cols.examples,
		c.PreviewHTML,
		cols.tags,
		cols.validation,
		c.UpdatedAt,
	)
	if infra.IsUniqueViolation(err) {
		return domain.ErrDuplicateName
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns the newest components first.
func (r *ComponentRepositoryPG) List(ctx context.Context, f domain.ComponentFilter) ([]domain.Component, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListComponents, string(f.Category), f.OwnerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Component{}
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *ComponentRepositoryPG) one(ctx context.Context, query string, arg string) (*domain.Component, error) {
	c, err := scanComponent(r.sql.QueryRow(ctx, query, arg))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

type componentColumns struct {
	props      []byte
	examples   []byte
	tags       []byte
	validation []byte
}

func encodeComponent(c *domain.Component) (componentColumns, error) {
	var cols componentColumns
	var err error
	if cols.props, err = marshalList(c.Props); err != nil {
		return cols, err
	}
	if cols.examples, err = marshalList(c.Examples); err != nil {
		return cols, err
	}
	if cols.tags, err = marshalList(c.Tags); err != nil {
		return cols, err
	}
	cols.validation, err = json.Marshal(c.Validation)
	return cols, err
}

// marshalList encodes nil slices as [] so the NOT NULL jsonb columns accept them.
func marshalList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

func scanComponent(row rowScanner) (*domain.Component, error) {
	var (
		c        domain.Component
		category string
		source   string
		cols     componentColumns
	)
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&category,
		&c.Description,
		&c.Code,
		&cols.props,
		&cols.examples,
		&c.PreviewHTML,
		&cols.tags,
		&source,
		&c.JobID,
		&c.OwnerID,
		&cols.validation,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Category = domain.Category(category)
	c.GeneratedBy = domain.Source(source)
	for _, field := range []struct {
		raw  []byte
		dest any
		name string
	}{
		{cols.props, &c.Props, "props"},
		{cols.examples, &c.Examples, "examples"},
		{cols.tags, &c.Tags, "tags"},
		{cols.validation, &c.Validation, "validation"},
	} {
		if len(field.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(field.raw, field.dest); err != nil {
			return nil, fmt.Errorf("decode component %s %s: %w", c.ID, field.name, err)
		}
	}
	if len(c.Props) == 0 {
		c.Props = nil
	}
	if len(c.Examples) == 0 {
		c.Examples = nil
	}
	if len(c.Tags) == 0 {
		c.Tags = nil
	}
	return &c, nil
}

var _ domain.ComponentRepository = (*ComponentRepositoryPG)(nil)
