package search

import (
	"iter"

	"github.com/CSorel-Catalyte/graphdemo/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterSemanticSearch(ids []core.ID)
	AfterLexicalSearch(ids iter.Seq[core.ID])
	AfterEntityRetrieval(entities []*core.Entity)
	SemanticAndLexicalHit(entity *core.Entity)
	SemanticHit(entity *core.Entity)
	LexicalHit(entity *core.Entity)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                         {}
func (n *noopMonitor) AfterSemanticSearch(_ []core.ID)        {}
func (n *noopMonitor) AfterLexicalSearch(_ iter.Seq[core.ID]) {}
func (n *noopMonitor) AfterEntityRetrieval(_ []*core.Entity)  {}
func (n *noopMonitor) SemanticAndLexicalHit(_ *core.Entity)   {}
func (n *noopMonitor) SemanticHit(_ *core.Entity)             {}
func (n *noopMonitor) LexicalHit(_ *core.Entity)              {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)          {}
