package ingestion

import (
	"github.com/CSorel-Catalyte/graphdemo/admission"
	"github.com/CSorel-Catalyte/graphdemo/broadcast"
	"github.com/CSorel-Catalyte/graphdemo/canonical"
	"github.com/CSorel-Catalyte/graphdemo/core"
)

// Observer receives pipeline events, typically to export metrics.
// Methods are called from the goroutine applying the document.
type Observer interface {
	broadcast.MessageObserver

	// ChunkApplied is called once per chunk; err is nil on success.
	ChunkApplied(err error)
	EntityResolved(outcome *canonical.Outcome)
	RelationDecided(decision admission.Decision)
	CandidatesDropped(counts core.DropCounts)
}

type noopObserver struct{}

func (noopObserver) BroadcastMessage(broadcast.MessageType) {}
func (noopObserver) ChunkApplied(error)                     {}
func (noopObserver) EntityResolved(*canonical.Outcome)      {}
func (noopObserver) RelationDecided(admission.Decision)     {}
func (noopObserver) CandidatesDropped(core.DropCounts)      {}
