// Copyright 2026 The graphdemo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package broadcast

import (
	"context"
	"log/slog"
	"time"

	"github.com/CSorel-Catalyte/graphdemo/core"
)

// DefaultNodeCap bounds the newly created nodes in one upsert_nodes message.
const DefaultNodeCap = 80

// Update is the graph delta of one applied chunk.
type Update struct {
	ChunkIndex   int
	Created      []*core.Entity       // Minted in this chunk
	Modified     []*core.Entity       // Existing entities whose record changed
	Relations    []*core.Relationship // Admitted or updated relationships
	NewRelations int                  // Relations admitted for the first time
	Rejected     int                  // Relations rejected by admission
}

// Summary closes a document.
type Summary struct {
	Elapsed time.Duration
	Err     error // Set when the document failed as a whole
}

// MessageObserver is told about every published message.
type MessageObserver interface {
	BroadcastMessage(t MessageType)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithNodeCap replaces DefaultNodeCap.
func WithNodeCap(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.nodeCap = n
		}
	}
}

// WithObserver registers an observer for published messages.
func WithObserver(observer MessageObserver) Option {
	return func(c *Coordinator) {
		c.observer = observer
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Coordinator turns chunk updates of one document into ordered messages.
//
// Each chunk produces upsert_nodes, upsert_edges and status, in that order.
// At most nodeCap created nodes go out per chunk; the rest are queued and sent
// first with later chunks. An edge touching a queued node is held until the
// node has been sent. A Coordinator is not safe for concurrent use.
type Coordinator struct {
	docID     string
	total     int
	nodeCap   int
	publisher Publisher
	observer  MessageObserver
	logger    *slog.Logger

	queue  []*core.Entity
	queued map[core.ID]bool
	held   []*core.Relationship

	processed int
	failed    int
	entities  int
	relations int
	rejected  int
}

// NewCoordinator creates a Coordinator for a document of total chunks.
func NewCoordinator(docID string, total int, publisher Publisher, opts ...Option) *Coordinator {
	c := &Coordinator{
		docID:     docID,
		total:     total,
		nodeCap:   DefaultNodeCap,
		publisher: publisher,
		queued:    make(map[core.ID]bool),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "broadcast", "doc_id", docID)
	return c
}

// EmitChunk publishes the messages of one successfully applied chunk.
func (c *Coordinator) EmitChunk(ctx context.Context, u Update) {
	c.processed++
	c.entities += len(u.Created)
	c.relations += u.NewRelations
	c.rejected += u.Rejected

	for _, e := range u.Created {
		if !c.queued[e.Id] {
			c.queued[e.Id] = true
			c.queue = append(c.queue, e)
		}
	}
	nodes := c.takeQueued()
	for _, e := range u.Modified {
		if c.queued[e.Id] {
			c.replaceQueued(e)
			continue
		}
		nodes = appendNode(nodes, e)
	}
	c.publishNodes(ctx, nodes)

	c.hold(u.Relations...)
	c.publishEdges(ctx, c.releasable())

	c.publishStatus(ctx, StageChunkProcessed, u.ChunkIndex, c.processed, "")
}

// EmitFailure publishes the failure of one chunk.
func (c *Coordinator) EmitFailure(ctx context.Context, chunkIndex int, err error) {
	c.failed++
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	c.publishStatus(ctx, StageChunkFailed, chunkIndex, c.failed, msg)
}

// Finish flushes queued nodes and held edges and publishes the final status.
func (c *Coordinator) Finish(ctx context.Context, s Summary) {
	for len(c.queue) > 0 {
		c.publishNodes(ctx, c.takeQueued())
	}
	c.publishEdges(ctx, c.releasable())

	if s.Err != nil {
		c.publish(ctx, Message{Type: TypeError, DocID: c.docID, Error: s.Err.Error()})
		c.publishFinal(ctx, StageFailed, s, s.Err.Error())
		return
	}
	c.publishFinal(ctx, StageComplete, s, "")
}

// Pending reports how many created nodes are still queued.
func (c *Coordinator) Pending() int {
	return len(c.queue)
}

// takeQueued removes up to nodeCap nodes from the head of the queue.
func (c *Coordinator) takeQueued() []Node {
	n := min(c.nodeCap, len(c.queue))
	nodes := make([]Node, 0, n)
	for _, e := range c.queue[:n] {
		delete(c.queued, e.Id)
		nodes = append(nodes, NodeFrom(e))
	}
	c.queue = c.queue[n:]
	return nodes
}

func (c *Coordinator) replaceQueued(e *core.Entity) {
	for i, q := range c.queue {
		if q.Id == e.Id {
			c.queue[i] = e
			return
		}
	}
}

// hold adds relationships to the held set, replacing older copies.
func (c *Coordinator) hold(rels ...*core.Relationship) {
	for _, r := range rels {
		replaced := false
		for i, h := range c.held {
			if h.Key() == r.Key() {
				c.held[i] = r
				replaced = true
				break
			}
		}
		if !replaced {
			c.held = append(c.held, r)
		}
	}
}

// releasable removes and returns held edges whose endpoints are not queued.
func (c *Coordinator) releasable() []Edge {
	var edges []Edge
	kept := c.held[:0]
	for _, r := range c.held {
		if c.queued[r.From] || c.queued[r.To] {
			kept = append(kept, r)
			continue
		}
		edges = append(edges, EdgeFrom(r))
	}
	c.held = kept
	return edges
}

func (c *Coordinator) publishNodes(ctx context.Context, nodes []Node) {
	if len(nodes) == 0 {
		return
	}
	c.publish(ctx, Message{Type: TypeUpsertNodes, DocID: c.docID, Nodes: nodes})
}

func (c *Coordinator) publishEdges(ctx context.Context, edges []Edge) {
	if len(edges) == 0 {
		return
	}
	c.publish(ctx, Message{Type: TypeUpsertEdges, DocID: c.docID, Edges: edges})
}

func (c *Coordinator) publishStatus(ctx context.Context, stage Stage, chunkIndex, count int, text string) {
	c.publish(ctx, Message{Type: TypeStatus, DocID: c.docID, Status: c.status(stage, chunkIndex, count, text)})
}

func (c *Coordinator) publishFinal(ctx context.Context, stage Stage, s Summary, text string) {
	status := c.status(stage, max(c.total-1, 0), c.processed, text)
	status.ElapsedMS = s.Elapsed.Milliseconds()
	c.publish(ctx, Message{Type: TypeStatus, DocID: c.docID, Status: status})
}

func (c *Coordinator) status(stage Stage, chunkIndex, count int, text string) *Status {
	return &Status{
		Stage:             stage,
		Count:             count,
		ChunkIndex:        chunkIndex,
		Total:             c.total,
		Entities:          c.entities,
		Relations:         c.relations,
		FailedChunks:      c.failed,
		RejectedRelations: c.rejected,
		Message:           text,
	}
}

func (c *Coordinator) publish(ctx context.Context, msg Message) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.Publish(ctx, msg); err != nil {
		c.logger.Warn("failed to publish message", "type", msg.Type, "err", err)
	}
	if c.observer != nil {
		c.observer.BroadcastMessage(msg.Type)
	}
}

func appendNode(nodes []Node, e *core.Entity) []Node {
	id := FormatID(e.Id)
	for i, n := range nodes {
		if n.ID == id {
			nodes[i] = NodeFrom(e)
			return nodes
		}
	}
	return append(nodes, NodeFrom(e))
}
