package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Rrens/nlsql/internal/security"
	"github.com/Rrens/nlsql/internal/source"
)

type fakeDocuments struct {
	docs   []bson.D
	pos    int
	err    error
	closed bool
}

func (f *fakeDocuments) Next(ctx context.Context) bool {
	if f.pos >= len(f.docs) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeDocuments) Decode(v any) error {
	raw, err := bson.Marshal(f.docs[f.pos-1])
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, v)
}

func (f *fakeDocuments) Err() error { return f.err }

func (f *fakeDocuments) Close(ctx context.Context) error {
	f.closed = true
	return nil
}

func TestCursor_ColumnsFromFirstDocument(t *testing.T) {
	id := primitive.NewObjectID()
	docs := &fakeDocuments{docs: []bson.D{
		{{Key: "_id", Value: id}, {Key: "name", Value: "Bob"}, {Key: "age", Value: int32(30)}},
		{{Key: "_id", Value: id}, {Key: "name", Value: "Ann"}, {Key: "extra", Value: true}},
	}}

	c, err := newCursor(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, []string{"_id", "name", "age"}, c.Columns())

	require.True(t, c.Next())
	assert.Equal(t, []any{id.Hex(), "Bob", int32(30)}, c.Values())

	require.True(t, c.Next())
	assert.Equal(t, []any{id.Hex(), "Ann", nil}, c.Values())

	assert.False(t, c.Next())
	require.NoError(t, c.Err())

	require.NoError(t, c.Close())
	assert.True(t, docs.closed)
}

func TestCursor_EmptyCollection(t *testing.T) {
	c, err := newCursor(context.Background(), &fakeDocuments{})
	require.NoError(t, err)

	assert.Equal(t, []string{"_id"}, c.Columns())
	assert.False(t, c.Next())
	assert.NoError(t, c.Err())
}

func TestCursor_FirstFetchError(t *testing.T) {
	docs := &fakeDocuments{err: errors.New("cursor killed")}

	_, err := newCursor(context.Background(), docs)
	require.Error(t, err)
	assert.True(t, docs.closed)
}

func TestNormalize(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	dec, err := primitive.ParseDecimal128("12.50")
	require.NoError(t, err)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"datetime", primitive.NewDateTimeFromTime(when), when},
		{"decimal", dec, "12.50"},
		{"binary", primitive.Binary{Data: []byte("hi")}, "aGk="},
		{"null", primitive.Null{}, nil},
		{"nested document", bson.D{{Key: "city", Value: "Oslo"}}, map[string]any{"city": "Oslo"}},
		{"array", bson.A{int32(1), "x"}, []any{int32(1), "x"}},
		{"plain", "text", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize(tt.in))
		})
	}
}

func TestAdapter_NotConnected(t *testing.T) {
	adapter := NewAdapter()
	ctx := context.Background()
	table := security.MustIdentifier("users", security.KindTable)

	_, err := adapter.ListTables(ctx)
	assert.EqualError(t, err, "no database selected")

	_, err = adapter.TableExists(ctx, table)
	assert.EqualError(t, err, "no database selected")

	cursor, err := adapter.OpenTable(ctx, table, source.ReadOptions{MaxRows: 5})
	assert.EqualError(t, err, "no database selected")
	assert.Nil(t, cursor)
}
