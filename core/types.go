package core

import "strings"

// EntityType is the closed set of entity categories.
type EntityType string

const (
	EntityTypeConcept      EntityType = "Concept"
	EntityTypeLibrary      EntityType = "Library"
	EntityTypePerson       EntityType = "Person"
	EntityTypeOrganization EntityType = "Organization"
	EntityTypePaper        EntityType = "Paper"
	EntityTypeSystem       EntityType = "System"
	EntityTypeMetric       EntityType = "Metric"
)

// EntityTypes lists every valid EntityType in declaration order.
var EntityTypes = []EntityType{
	EntityTypeConcept,
	EntityTypeLibrary,
	EntityTypePerson,
	EntityTypeOrganization,
	EntityTypePaper,
	EntityTypeSystem,
	EntityTypeMetric,
}

// ParseEntityType resolves s to an EntityType, ignoring case and surrounding space.
func ParseEntityType(s string) (EntityType, bool) {
	s = strings.TrimSpace(s)
	for _, t := range EntityTypes {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return "", false
}

// Valid reports whether t is one of EntityTypes.
func (t EntityType) Valid() bool {
	for _, v := range EntityTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Predicate is the closed set of relationship kinds.
type Predicate string

const (
	PredicateUses         Predicate = "uses"
	PredicateImplements   Predicate = "implements"
	PredicateExtends      Predicate = "extends"
	PredicateContains     Predicate = "contains"
	PredicateRelatesTo    Predicate = "relates_to"
	PredicateAuthoredBy   Predicate = "authored_by"
	PredicatePublishedBy  Predicate = "published_by"
	PredicateComparesWith Predicate = "compares_with"
	PredicateDependsOn    Predicate = "depends_on"
	PredicateInfluences   Predicate = "influences"
)

// Predicates lists every valid Predicate in declaration order.
var Predicates = []Predicate{
	PredicateUses,
	PredicateImplements,
	PredicateExtends,
	PredicateContains,
	PredicateRelatesTo,
	PredicateAuthoredBy,
	PredicatePublishedBy,
	PredicateComparesWith,
	PredicateDependsOn,
	PredicateInfluences,
}

// ParsePredicate resolves s to a Predicate. Case is ignored and
// spaces or hyphens are treated as underscores ("Depends On" -> depends_on).
func ParsePredicate(s string) (Predicate, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	for _, p := range Predicates {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}
