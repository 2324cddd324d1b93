package ingestion

import "github.com/CSorel-Catalyte/graphdemo/extraction"

// sequencer reorders extraction results so they are applied by chunk index.
type sequencer struct {
	next    int
	pending map[int]extraction.Result
}

func newSequencer() *sequencer {
	return &sequencer{pending: make(map[int]extraction.Result)}
}

// push buffers a result. Results for indexes already released are ignored.
func (s *sequencer) push(r extraction.Result) {
	if r.Chunk.Index < s.next {
		return
	}
	s.pending[r.Chunk.Index] = r
}

// pop returns the result for the next index once it has arrived.
func (s *sequencer) pop() (extraction.Result, bool) {
	r, ok := s.pending[s.next]
	if !ok {
		return extraction.Result{}, false
	}
	delete(s.pending, s.next)
	s.next++
	return r, true
}

// buffered returns the number of results waiting for an earlier index.
func (s *sequencer) buffered() int {
	return len(s.pending)
}
