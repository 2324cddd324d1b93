package extraction

import (
	"strings"

	"github.com/CSorel-Catalyte/graphdemo/ai"
	"github.com/CSorel-Catalyte/graphdemo/core"
)

// DefaultConfidence is used when the model omits a relation's confidence.
const DefaultConfidence = 0.5

// Normalize validates a decoded response against the chunk it was extracted from.
//
// Entities with an unknown type and relations with an unknown predicate or an
// endpoint that is not an entity of the same response are dropped and counted.
// Entity mentions are attributed to the whole chunk span. Evidence offsets are
// located in the chunk text when missing or wrong and made document-relative;
// quotes that do not occur in the chunk are discarded, and a relation left
// without evidence is dropped.
func Normalize(raw *ai.Extraction, chunk core.Chunk) *core.Extraction {
	out := &core.Extraction{}
	if raw == nil {
		return out
	}
	out.Dropped.InvalidEntities = raw.InvalidEntities
	out.Dropped.InvalidRelations = raw.InvalidRelations

	hints := make(map[string]float64, len(raw.SalienceHints))
	for _, h := range raw.SalienceHints {
		key := strings.ToLower(h.Name)
		hints[key] = max(hints[key], core.ClampUnit(h.Salience))
	}

	// byName resolves any name or alias of the response to its entity index.
	byName := make(map[string]int)
	index := make(map[string]int)
	for _, e := range raw.Entities {
		entityType, ok := core.ParseEntityType(e.Type)
		if !ok {
			out.Dropped.UnknownTypes++
			continue
		}

		key := core.EntityKey(e.Name, entityType)
		i, seen := index[key]
		if !seen {
			i = len(out.Entities)
			index[key] = i
			out.Entities = append(out.Entities, core.CandidateEntity{
				Name:    e.Name,
				Type:    entityType,
				Summary: core.TruncateSummary(e.Summary),
				Start:   chunk.Start,
				End:     chunk.End,
			})
		}
		candidate := &out.Entities[i]
		candidate.Aliases = appendUnique(candidate.Aliases, e.Aliases...)
		if candidate.Summary == "" {
			candidate.Summary = core.TruncateSummary(e.Summary)
		}
		if e.Salience != nil {
			candidate.Salience = max(candidate.Salience, core.ClampUnit(*e.Salience))
		}
		candidate.Salience = max(candidate.Salience, hints[strings.ToLower(e.Name)])

		for _, name := range append([]string{e.Name}, e.Aliases...) {
			if _, taken := byName[strings.ToLower(name)]; !taken {
				byName[strings.ToLower(name)] = i
			}
		}
	}

	for _, r := range raw.Relations {
		predicate, ok := core.ParsePredicate(r.Predicate)
		if !ok {
			out.Dropped.UnknownPredicates++
			continue
		}
		from, okFrom := byName[strings.ToLower(r.From)]
		to, okTo := byName[strings.ToLower(r.To)]
		if !okFrom || !okTo {
			out.Dropped.DanglingRelations++
			continue
		}

		evidence := make([]core.Evidence, 0, len(r.Evidence))
		for _, ev := range r.Evidence {
			quote := core.TruncateQuote(ev.Quote)
			if quote == "" {
				continue
			}
			offset := locate(chunk, quote, ev.Offset)
			if offset < 0 {
				out.Dropped.UnlocatedQuotes++
				continue
			}
			evidence = append(evidence, core.Evidence{
				DocID:  chunk.DocID,
				Quote:  quote,
				Offset: offset,
			})
		}
		if len(evidence) == 0 {
			out.Dropped.InvalidRelations++
			continue
		}

		confidence := DefaultConfidence
		if r.Confidence != nil {
			confidence = core.ClampUnit(*r.Confidence)
		}
		directional := true
		if r.Directional != nil {
			directional = *r.Directional
		}

		out.Relations = append(out.Relations, core.CandidateRelation{
			From:        out.Entities[from].Name,
			FromType:    out.Entities[from].Type,
			To:          out.Entities[to].Name,
			ToType:      out.Entities[to].Type,
			Predicate:   predicate,
			Confidence:  confidence,
			Evidence:    evidence,
			Directional: directional,
		})
	}

	return out
}

// locate returns the document offset of quote, or -1 when the chunk does not
// contain it. A model-supplied offset is trusted only when the chunk text
// actually has the quote there.
func locate(chunk core.Chunk, quote string, offset *int) int {
	if offset != nil && *offset >= 0 && *offset <= len(chunk.Text) &&
		strings.HasPrefix(chunk.Text[*offset:], quote) {
		return chunk.Start + *offset
	}
	if i := strings.Index(chunk.Text, quote); i >= 0 {
		return chunk.Start + i
	}
	return -1
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		dup := false
		for _, d := range dst {
			if strings.EqualFold(d, v) {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}
