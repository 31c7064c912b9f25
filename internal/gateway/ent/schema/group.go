package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Group holds the schema definition for an accepted query group.
type Group struct {
	ent.Schema
}

// Fields of the Group.
func (Group) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("owner_id").
			NotEmpty(),
		field.String("name").
			NotEmpty(),
		field.Bool("ai_generated").
			Default(false),
		field.Int64("impressions").
			NonNegative().
			Default(0),
		field.Int64("clicks").
			NonNegative().
			Default(0),
		field.Float("ctr").
			Default(0),
		field.Float("avg_position").
			Default(0),
		field.Int("query_count").
			NonNegative().
			Default(0),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the Group.
func (Group) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("items", GroupItem.Type),
	}
}

// Indexes of the Group.
func (Group) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("owner_id"),
	}
}
