package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// QueryRecord holds the schema definition for one search query row.
type QueryRecord struct {
	ent.Schema
}

// Fields of the QueryRecord.
func (QueryRecord) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("text").
			NotEmpty(),
		field.String("url").
			Default(""),
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
		field.Bool("is_opportunity").
			Default(false),
		field.Time("last_seen").
			Default(time.Now),
	}
}

// Indexes of the QueryRecord.
func (QueryRecord) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("impressions"),
		index.Fields("last_seen"),
	}
}
