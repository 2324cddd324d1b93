package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitials(t *testing.T) {
	assert.Equal(t, []string{"LRA"}, Initials("Low-Rank Adaptation"))
	assert.Equal(t, []string{"BOW", "BW"}, Initials("bag of words"))
	assert.Equal(t, []string{"NLP"}, Initials("Natural Language Processing"))
	assert.Nil(t, Initials("Transformer"))
}

func TestShortForms(t *testing.T) {
	assert.Equal(t, []string{"LORA", "LRA"}, ShortForms("LoRA"))
	assert.Equal(t, []string{"NLP"}, ShortForms("NLP"))
	assert.Equal(t, []string{"BERT"}, ShortForms("bert"))
	assert.Nil(t, ShortForms("Low-Rank Adaptation"))
}

func TestLexicalKeys(t *testing.T) {
	keys := LexicalKeys("Low-Rank  Adaptation", "LoRA")

	assert.Contains(t, keys, "low-rank adaptation")
	assert.Contains(t, keys, "lora")
	assert.Contains(t, keys, "#LRA")
	assert.Contains(t, keys, "#LORA")

	assert.Equal(t, []string{"bert", "#BERT"}, LexicalKeys("BERT", "bert"))
}
