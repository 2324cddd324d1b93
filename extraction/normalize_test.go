package extraction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CSorel-Catalyte/graphdemo/ai"
	"github.com/CSorel-Catalyte/graphdemo/core"
)

func ptr[T any](v T) *T { return &v }

func testChunk(text string) core.Chunk {
	return core.Chunk{DocID: "doc", Index: 0, Text: text, Start: 100, End: 100 + len(text)}
}

func TestNormalize_Entities(t *testing.T) {
	chunk := testChunk("LoRA adapts Transformers cheaply.")
	raw := &ai.Extraction{
		Entities: []ai.ExtractedEntity{
			{Name: "LoRA", Type: "concept", Aliases: []string{"Low-Rank Adaptation"}, Summary: strings.Repeat("word ", 40)},
			{Name: "Transformer", Type: "Concept", Salience: ptr(1.7)},
			{Name: "Widget", Type: "Gadget"},
			{Name: "lora", Type: "Concept", Aliases: []string{"LoRA adapters"}},
		},
		SalienceHints:   []ai.SalienceHint{{Name: "LORA", Salience: 0.6}},
		InvalidEntities: 2,
	}

	out := Normalize(raw, chunk)
	require.Len(t, out.Entities, 2)

	lora := out.Entities[0]
	assert.Equal(t, "LoRA", lora.Name)
	assert.Equal(t, core.EntityTypeConcept, lora.Type)
	assert.Equal(t, []string{"Low-Rank Adaptation", "LoRA adapters"}, lora.Aliases)
	assert.Len(t, strings.Fields(lora.Summary), core.MaxSummaryWords)
	assert.InDelta(t, 0.6, lora.Salience, 1e-9)
	assert.Equal(t, 100, lora.Start)
	assert.Equal(t, chunk.End, lora.End)

	assert.InDelta(t, 1.0, out.Entities[1].Salience, 1e-9, "salience is clamped")
	assert.Equal(t, 1, out.Dropped.UnknownTypes)
	assert.Equal(t, 2, out.Dropped.InvalidEntities)
}

func TestNormalize_Relations(t *testing.T) {
	text := "The adapter library uses low rank updates so that LoRA can adapt a Transformer without retraining."
	chunk := testChunk(text)
	quote := "LoRA can adapt a Transformer"

	raw := &ai.Extraction{
		Entities: []ai.ExtractedEntity{
			{Name: "LoRA", Type: "Concept", Aliases: []string{"Low-Rank Adaptation"}},
			{Name: "Transformer", Type: "Concept"},
		},
		Relations: []ai.ExtractedRelation{
			{From: "low-rank adaptation", To: "transformer", Predicate: "Depends On",
				Evidence: []ai.ExtractedEvidence{{Quote: quote, Offset: ptr(3)}}},
			{From: "LoRA", To: "Transformer", Predicate: "uses", Confidence: ptr(0.9), Directional: ptr(false),
				Evidence: []ai.ExtractedEvidence{{Quote: "not in the chunk"}, {Quote: "low rank updates", Offset: ptr(-1)}}},
			{From: "LoRA", To: "GPT", Predicate: "uses",
				Evidence: []ai.ExtractedEvidence{{Quote: quote}}},
			{From: "LoRA", To: "Transformer", Predicate: "likes",
				Evidence: []ai.ExtractedEvidence{{Quote: quote}}},
		},
		InvalidRelations: 1,
	}

	out := Normalize(raw, chunk)
	require.Len(t, out.Relations, 2)

	first := out.Relations[0]
	assert.Equal(t, "LoRA", first.From)
	assert.Equal(t, "Transformer", first.To)
	assert.Equal(t, core.PredicateDependsOn, first.Predicate)
	assert.Equal(t, DefaultConfidence, first.Confidence)
	assert.True(t, first.Directional)
	require.Len(t, first.Evidence, 1)
	assert.Equal(t, "doc", first.Evidence[0].DocID)
	assert.Equal(t, 100+strings.Index(text, quote), first.Evidence[0].Offset)

	second := out.Relations[1]
	assert.False(t, second.Directional)
	assert.InDelta(t, 0.9, second.Confidence, 1e-9)
	require.Len(t, second.Evidence, 1, "the quote missing from the chunk is discarded")
	assert.Equal(t, "low rank updates", second.Evidence[0].Quote)
	assert.Equal(t, 100+strings.Index(text, "low rank updates"), second.Evidence[0].Offset)

	assert.Equal(t, 1, out.Dropped.DanglingRelations)
	assert.Equal(t, 1, out.Dropped.UnknownPredicates)
	assert.Equal(t, 1, out.Dropped.InvalidRelations)
	assert.Equal(t, 1, out.Dropped.UnlocatedQuotes)
	assert.Equal(t, 4, out.Dropped.Total())
}

func TestNormalize_TrustsCorrectOffset(t *testing.T) {
	chunk := testChunk("abc abc")
	raw := &ai.Extraction{
		Entities: []ai.ExtractedEntity{{Name: "A", Type: "Concept"}},
		Relations: []ai.ExtractedRelation{{From: "A", To: "A", Predicate: "relates_to",
			Evidence: []ai.ExtractedEvidence{{Quote: "abc", Offset: ptr(4)}}}},
	}

	out := Normalize(raw, chunk)
	require.Len(t, out.Relations, 1)
	assert.Equal(t, 104, out.Relations[0].Evidence[0].Offset)
}

func TestNormalize_DropsRelationWithOnlyUnlocatedEvidence(t *testing.T) {
	chunk := testChunk("BERT builds on the Transformer encoder stack.")
	fabricated := "BERT was trained on every book ever written by a human author in history."
	raw := &ai.Extraction{
		Entities: []ai.ExtractedEntity{{Name: "BERT", Type: "System"}, {Name: "Transformer", Type: "Concept"}},
		Relations: []ai.ExtractedRelation{{From: "BERT", To: "Transformer", Predicate: "uses", Confidence: ptr(0.9),
			Evidence: []ai.ExtractedEvidence{{Quote: fabricated}, {Quote: fabricated, Offset: ptr(0)}}}},
	}

	out := Normalize(raw, chunk)
	assert.Empty(t, out.Relations)
	assert.Equal(t, 2, out.Dropped.UnlocatedQuotes)
	assert.Equal(t, 1, out.Dropped.InvalidRelations)
}

func TestNormalize_RelationEndpointTypes(t *testing.T) {
	chunk := testChunk("NASA flew Mercury capsules.")
	raw := &ai.Extraction{
		Entities: []ai.ExtractedEntity{
			{Name: "NASA", Type: "Organization"},
			{Name: "Mercury", Type: "System"},
			{Name: "Mercury", Type: "Concept"},
		},
		Relations: []ai.ExtractedRelation{{From: "NASA", To: "mercury", Predicate: "uses",
			Evidence: []ai.ExtractedEvidence{{Quote: "NASA flew Mercury"}}}},
	}

	out := Normalize(raw, chunk)
	require.Len(t, out.Entities, 3)
	require.Len(t, out.Relations, 1)
	rel := out.Relations[0]
	assert.Equal(t, core.EntityTypeOrganization, rel.FromType)
	assert.Equal(t, "Mercury", rel.To)
	assert.Equal(t, core.EntityTypeSystem, rel.ToType, "the first entity with the name wins")
}

func TestNormalize_TruncatesQuotes(t *testing.T) {
	long := strings.Repeat("x", 300)
	chunk := testChunk(long)
	raw := &ai.Extraction{
		Entities: []ai.ExtractedEntity{{Name: "A", Type: "Concept"}, {Name: "B", Type: "Concept"}},
		Relations: []ai.ExtractedRelation{{From: "A", To: "B", Predicate: "uses",
			Evidence: []ai.ExtractedEvidence{{Quote: long}}}},
	}

	out := Normalize(raw, chunk)
	require.Len(t, out.Relations, 1)
	assert.Len(t, out.Relations[0].Evidence[0].Quote, core.MaxQuoteChars)
	assert.Equal(t, 100, out.Relations[0].Evidence[0].Offset)
}

func TestNormalize_Nil(t *testing.T) {
	out := Normalize(nil, testChunk("x"))
	assert.Empty(t, out.Entities)
	assert.Zero(t, out.Dropped.Total())
}
