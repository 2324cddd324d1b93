package openai

import (
	"fmt"
	"strings"

	"github.com/CSorel-Catalyte/graphdemo/core"
)

const extractionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "entities": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "type": {"type": "string"},
          "aliases": {"type": "array", "items": {"type": "string"}},
          "summary": {"type": "string"},
          "salience": {"type": "number", "minimum": 0, "maximum": 1}
        },
        "required": ["name", "type"]
      }
    },
    "relations": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "from": {"type": "string"},
          "to": {"type": "string"},
          "predicate": {"type": "string"},
          "confidence": {"type": "number", "minimum": 0, "maximum": 1},
          "evidence": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "properties": {
                "quote": {"type": "string", "maxLength": 200},
                "offset": {"type": "integer", "minimum": 0}
              },
              "required": ["quote"]
            }
          },
          "directional": {"type": "boolean"}
        },
        "required": ["from", "to", "predicate", "confidence", "evidence"]
      }
    }
  },
  "required": ["entities", "relations"]
}`

const extractionPromptTemplate = `Extract entities and relations from the given text and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Entity type must match exactly one of: %s.
- Predicate must match exactly one of: %s.
- Use the most canonical entity name ("Low-Rank Adaptation", not "LoRA") and list other surface forms in aliases.
- Extract only entities explicitly mentioned in the text. Do not hallucinate.
- Relations may only connect entities listed in "entities".
- Evidence quotes must be copied verbatim from the text, at most 200 characters. Offset is the character position of the quote in the text.
- Confidence is 0.0-1.0 and reflects how clearly the text states the relation.
- Salience is 0.0-1.0 and reflects how central the entity is to the text.
- Summary is at most 30 words.
- If nothing can be extracted, return {"entities": [], "relations": []}.
- The JSON must parse without errors; no trailing commas and no extraneous text outside the object.

Example:
Input: "Hugging Face's PEFT library implements Low-Rank Adaptation (LoRA) to fine-tune large models cheaply."
Output:
{
  "entities": [
    {"name":"PEFT","type":"Library","aliases":["Hugging Face PEFT"],"summary":"Parameter-efficient fine-tuning library.","salience":0.8},
    {"name":"Low-Rank Adaptation","type":"Concept","aliases":["LoRA"],"summary":"Fine-tuning method using low-rank weight updates.","salience":0.9},
    {"name":"Hugging Face","type":"Organization","aliases":[],"summary":"AI company.","salience":0.5}
  ],
  "relations": [
    {"from":"PEFT","to":"Low-Rank Adaptation","predicate":"implements","confidence":0.9,
     "evidence":[{"quote":"Hugging Face's PEFT library implements Low-Rank Adaptation (LoRA) to fine-tune large models cheaply.","offset":0}],
     "directional":true}
  ]
}`

// buildSystemPrompt creates the system prompt with the closed type and predicate sets embedded.
func buildSystemPrompt() string {
	types := make([]string, len(core.EntityTypes))
	for i, t := range core.EntityTypes {
		types[i] = string(t)
	}
	predicates := make([]string, len(core.Predicates))
	for i, p := range core.Predicates {
		predicates[i] = string(p)
	}
	return fmt.Sprintf(extractionPromptTemplate,
		extractionResponseSchema,
		strings.Join(types, ", "),
		strings.Join(predicates, ", "))
}
