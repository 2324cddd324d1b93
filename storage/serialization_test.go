package storage

import (
	"testing"
	"time"

	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := UnmarshalID(MarshalID(tt.id))
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}

	_, err := UnmarshalID([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestEntityRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	entity := &core.Entity{
		Id:       core.EntityIDFor("Low-Rank Adaptation", core.EntityTypeConcept),
		Name:     "Low-Rank Adaptation",
		Type:     core.EntityTypeConcept,
		Aliases:  []string{"Low-Rank Adaptation", "LoRA", "低秩适应"},
		Vector:   []float32{0.6, -0.8, 0},
		Salience: 0.42,
		SourceSpans: []core.SourceSpan{
			{DocID: "doc-a", Start: 0, End: 120},
			{DocID: "doc-b", Start: 300, End: 512},
		},
		Summary:   "Parameter-efficient fine-tuning method.",
		CreatedAt: now,
		UpdatedAt: now.Add(time.Second),
	}

	decoded, err := UnmarshalEntity(MarshalEntity(entity))
	require.NoError(t, err)

	assert.Equal(t, entity.Id, decoded.Id)
	assert.Equal(t, entity.Name, decoded.Name)
	assert.Equal(t, entity.Type, decoded.Type)
	assert.Equal(t, entity.Aliases, decoded.Aliases)
	assert.Equal(t, entity.Vector, decoded.Vector)
	assert.Equal(t, entity.Salience, decoded.Salience)
	assert.Equal(t, entity.SourceSpans, decoded.SourceSpans)
	assert.Equal(t, entity.Summary, decoded.Summary)
	assert.True(t, entity.CreatedAt.Equal(decoded.CreatedAt))
	assert.True(t, entity.UpdatedAt.Equal(decoded.UpdatedAt))
}

func TestEntityRoundTrip_Empty(t *testing.T) {
	decoded, err := UnmarshalEntity(MarshalEntity(&core.Entity{Name: "x", Type: core.EntityTypeMetric}))
	require.NoError(t, err)

	assert.Equal(t, "x", decoded.Name)
	assert.Nil(t, decoded.Aliases)
	assert.Nil(t, decoded.Vector)
	assert.Nil(t, decoded.SourceSpans)
}

func TestRelationshipRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	rel := &core.Relationship{
		From:       1,
		To:         2,
		Predicate:  core.PredicateImplements,
		Confidence: 0.91,
		Evidence: []core.Evidence{
			{DocID: "doc-a", Quote: "PEFT implements LoRA", Offset: 17},
			{DocID: "doc-b", Quote: "not located", Offset: -1},
		},
		Directional: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	decoded, err := UnmarshalRelationship(MarshalRelationship(rel))
	require.NoError(t, err)

	assert.Equal(t, rel.Key(), decoded.Key())
	assert.Equal(t, rel.Confidence, decoded.Confidence)
	assert.Equal(t, rel.Evidence, decoded.Evidence)
	assert.True(t, decoded.Directional)
	assert.True(t, rel.CreatedAt.Equal(decoded.CreatedAt))
}

func TestVectorRoundTrip(t *testing.T) {
	v := []float32{0.25, -0.5, 1}
	decoded, err := UnmarshalVector(MarshalVector(v))
	require.NoError(t, err)
	assert.Equal(t, v, decoded)
}

func TestCheckpointRoundTrip(t *testing.T) {
	cp := &core.Checkpoint{Name: "reembed", LastID: 99, Processed: 12, UpdatedAt: time.Now().UTC().Truncate(time.Microsecond)}

	decoded, err := UnmarshalCheckpoint(MarshalCheckpoint(cp))
	require.NoError(t, err)
	assert.Equal(t, cp.Name, decoded.Name)
	assert.Equal(t, cp.LastID, decoded.LastID)
	assert.Equal(t, cp.Processed, decoded.Processed)
}

func TestUnmarshal_Corrupt(t *testing.T) {
	data := MarshalEntity(&core.Entity{Name: "Transformer", Type: core.EntityTypeConcept, Aliases: []string{"Transformers"}})

	_, err := UnmarshalEntity(data[:len(data)/2])
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalRelationship(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)

	bad := append([]byte{}, data...)
	bad[0] = 9 // version
	_, err = UnmarshalEntity(bad)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}
