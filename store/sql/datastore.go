package sqlstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/goliatone/go-uow/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunDatastore adapts a bun.DB to the coordinator's Datastore
// contract. Entities handed to Save/SoftRemove/Remove must be
// bun-annotated structs; soft deletion relies on the model carrying a
// soft_delete column tag.
type BunDatastore struct {
	db *bun.DB
}

func NewBunDatastore(db *bun.DB) (*BunDatastore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &BunDatastore{db: db}, nil
}

func (d *BunDatastore) DB() *bun.DB {
	if d == nil {
		return nil
	}
	return d.db
}

func (d *BunDatastore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx core.Tx) error) error {
	if d == nil || d.db == nil {
		return fmt.Errorf("sqlstore: datastore is not configured")
	}
	return d.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &bunTx{tx: tx})
	})
}

type bunTx struct {
	tx bun.Tx
}

func (t *bunTx) Save(ctx context.Context, target any, cfg core.SaveConfig) error {
	switch typed := target.(type) {
	case core.Entity:
		return t.saveEntity(ctx, typed)
	case []core.Entity:
		for _, chunk := range chunkEntities(typed, cfg.Chunk) {
			for _, entity := range chunk {
				if err := t.saveEntity(ctx, entity); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		return fmt.Errorf("sqlstore: unsupported save target %T", target)
	}
}

// saveEntity upserts by identity: a zero identity inserts, a set one
// updates the entity's own row.
func (t *bunTx) saveEntity(ctx context.Context, entity core.Entity) error {
	if entity == nil {
		return fmt.Errorf("sqlstore: save entity is required")
	}
	if isZeroIdentity(entity.Identity()) {
		_, err := t.tx.NewInsert().Model(entity).Exec(ctx)
		return err
	}
	_, err := t.tx.NewUpdate().Model(entity).WherePK().Exec(ctx)
	return err
}

func (t *bunTx) SoftRemove(ctx context.Context, target any, cfg core.RemoveConfig) error {
	return t.remove(ctx, target, cfg, false)
}

func (t *bunTx) Remove(ctx context.Context, target any, cfg core.RemoveConfig) error {
	return t.remove(ctx, target, cfg, true)
}

func (t *bunTx) remove(ctx context.Context, target any, cfg core.RemoveConfig, force bool) error {
	switch typed := target.(type) {
	case core.Entity:
		return t.removeEntity(ctx, typed, force)
	case []core.Entity:
		for _, chunk := range chunkEntities(typed, cfg.Chunk) {
			for _, entity := range chunk {
				if err := t.removeEntity(ctx, entity, force); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		return fmt.Errorf("sqlstore: unsupported remove target %T", target)
	}
}

func (t *bunTx) removeEntity(ctx context.Context, entity core.Entity, force bool) error {
	if entity == nil {
		return fmt.Errorf("sqlstore: remove entity is required")
	}
	query := t.tx.NewDelete().Model(entity).WherePK()
	if force {
		query = query.ForceDelete()
	}
	_, err := query.Exec(ctx)
	return err
}

func (t *bunTx) Update(ctx context.Context, desc core.EntityDescriptor, criteria core.Criteria, fields map[string]any) error {
	if desc.Table == "" {
		return fmt.Errorf("sqlstore: entity descriptor table is required")
	}
	if len(fields) == 0 {
		return fmt.Errorf("sqlstore: update field map is required")
	}
	query := t.tx.NewUpdate().Table(desc.Table)
	for _, column := range sortedKeys(fields) {
		query = query.Set("? = ?", bun.Ident(column), fields[column])
	}
	switch {
	case criteria.Expr != "":
		query = query.Where(criteria.Expr, criteria.Args...)
	case len(criteria.Fields) > 0:
		for _, column := range sortedKeys(criteria.Fields) {
			query = query.Where("? = ?", bun.Ident(column), criteria.Fields[column])
		}
	default:
		return fmt.Errorf("sqlstore: update criteria is required")
	}
	_, err := query.Exec(ctx)
	return err
}

func (t *bunTx) Insert(ctx context.Context, desc core.EntityDescriptor, fields map[string]any) (map[string]any, error) {
	if desc.Table == "" {
		return nil, fmt.Errorf("sqlstore: entity descriptor table is required")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("sqlstore: insert field map is required")
	}
	values := make(map[string]any, len(fields))
	for key, value := range fields {
		values[key] = value
	}
	generated := map[string]any{}
	if _, err := t.tx.NewInsert().
		Model(&values).
		TableExpr(desc.Table).
		Returning("*").
		Exec(ctx, &generated); err != nil {
		return nil, err
	}
	return generated, nil
}

func (t *bunTx) Query(ctx context.Context, text string, params []any) error {
	_, err := t.tx.NewRaw(text, params...).Exec(ctx)
	return err
}

func chunkEntities(entities []core.Entity, size int) [][]core.Entity {
	if size <= 0 || size >= len(entities) {
		return [][]core.Entity{entities}
	}
	var chunks [][]core.Entity
	for start := 0; start < len(entities); start += size {
		end := start + size
		if end > len(entities) {
			end = len(entities)
		}
		chunks = append(chunks, entities[start:end])
	}
	return chunks
}

func isZeroIdentity(identity any) bool {
	switch typed := identity.(type) {
	case nil:
		return true
	case string:
		return typed == ""
	case uuid.UUID:
		return typed == uuid.Nil
	case int:
		return typed == 0
	case int64:
		return typed == 0
	case uint64:
		return typed == 0
	default:
		value := reflect.ValueOf(identity)
		return value.IsZero()
	}
}

func sortedKeys(fields map[string]any) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
