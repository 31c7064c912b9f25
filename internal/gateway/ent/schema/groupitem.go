package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// GroupItem is one query membership row inside a group.
type GroupItem struct {
	ent.Schema
}

func (GroupItem) Fields() []ent.Field {
	return []ent.Field{
		field.Int("id").
			Unique().
			Immutable(),
		field.String("group_id").
			NotEmpty(),
		field.String("query_id").
			NotEmpty(),
	}
}

func (GroupItem) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("group", Group.Type).
			Ref("items").
			Unique(),
	}
}

func (GroupItem) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("group_id", "query_id").Unique(),
	}
}
