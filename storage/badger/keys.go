package badger

import (
	"encoding/binary"

	"github.com/CSorel-Catalyte/graphdemo/core"
)

// Key prefixes for different data types
const (
	entityPrefix     = "ent:"
	lexicalPrefix    = "entlex:"
	relationPrefix   = "rel:"
	incidencePrefix  = "relinc:"
	vectorPrefix     = "vec:"
	checkpointPrefix = "chkpt:"
	spoPrefix        = "spo:"
	ospPrefix        = "osp:"
)

const sep = 0x00

func appendID(buf []byte, id core.ID) []byte {
	return binary.BigEndian.AppendUint64(buf, uint64(id))
}

func readID(buf []byte) core.ID {
	return core.ID(binary.BigEndian.Uint64(buf))
}

// makeEntityKey generates a key for an entity by ID.
// IDs are big-endian so prefix scans return entities in ID order.
func makeEntityKey(id core.ID) []byte {
	return appendID([]byte(entityPrefix), id)
}

// makeLexicalPrefix generates the scan prefix for one lexical key of a type.
// Format: prefix type 0x00 key 0x00
func makeLexicalPrefix(entityType core.EntityType, key string) []byte {
	buf := make([]byte, 0, len(lexicalPrefix)+len(entityType)+len(key)+2)
	buf = append(buf, lexicalPrefix...)
	buf = append(buf, entityType...)
	buf = append(buf, sep)
	buf = append(buf, key...)
	return append(buf, sep)
}

// makeLexicalKey generates an index key mapping a lexical key to an entity.
// Format: prefix type 0x00 key 0x00 id
func makeLexicalKey(entityType core.EntityType, key string, id core.ID) []byte {
	return appendID(makeLexicalPrefix(entityType, key), id)
}

// makeRelationKey generates a key for a relationship.
// Format: prefix from to predicate
func makeRelationKey(key core.RelationKey) []byte {
	buf := make([]byte, 0, len(relationPrefix)+16+len(key.Predicate))
	buf = append(buf, relationPrefix...)
	return appendRelationKey(buf, key)
}

func appendRelationKey(buf []byte, key core.RelationKey) []byte {
	buf = appendID(buf, key.From)
	buf = appendID(buf, key.To)
	return append(buf, key.Predicate...)
}

func parseRelationKey(buf []byte) (core.RelationKey, bool) {
	if len(buf) < 17 {
		return core.RelationKey{}, false
	}
	return core.RelationKey{
		From:      readID(buf[:8]),
		To:        readID(buf[8:16]),
		Predicate: core.Predicate(buf[16:]),
	}, true
}

// makeIncidencePrefix generates the scan prefix for relations touching id.
func makeIncidencePrefix(id core.ID) []byte {
	return appendID([]byte(incidencePrefix), id)
}

// makeIncidenceKey generates an index key from an endpoint to a relationship.
// Format: prefix endpoint from to predicate
func makeIncidenceKey(endpoint core.ID, key core.RelationKey) []byte {
	return appendRelationKey(makeIncidencePrefix(endpoint), key)
}

// makeVectorPrefix generates the scan prefix for the vectors of a type.
// An empty type covers every type.
func makeVectorPrefix(entityType core.EntityType) []byte {
	if entityType == "" {
		return []byte(vectorPrefix)
	}
	return []byte(vectorPrefix + string(entityType) + ":")
}

// makeVectorKey generates a key for an entity vector.
// Format: prefix type ':' id
func makeVectorKey(entityType core.EntityType, id core.ID) []byte {
	return appendID(makeVectorPrefix(entityType), id)
}

// makeCheckpointKey generates a key for a named checkpoint.
func makeCheckpointKey(name string) []byte {
	return []byte(checkpointPrefix + name)
}

// makeTripleKey joins three terms under an index prefix.
func makeTripleKey(prefix, a, b, c string) []byte {
	buf := make([]byte, 0, len(prefix)+len(a)+len(b)+len(c)+2)
	buf = append(buf, prefix...)
	buf = append(buf, a...)
	buf = append(buf, sep)
	buf = append(buf, b...)
	buf = append(buf, sep)
	return append(buf, c...)
}

// makeTriplePrefix returns the scan prefix for triples whose first term is a.
func makeTriplePrefix(prefix, a string) []byte {
	buf := make([]byte, 0, len(prefix)+len(a)+1)
	buf = append(buf, prefix...)
	buf = append(buf, a...)
	return append(buf, sep)
}
