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


package storage

import (
	"fmt"
	"time"

	"github.com/CSorel-Catalyte/graphdemo/core"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

const recordVersion = 1

// writer appends MUS-encoded fields to a buffer.
type writer struct {
	bs []byte
}

func (w *writer) grow(size int) []byte {
	start := len(w.bs)
	w.bs = append(w.bs, make([]byte, size)...)
	return w.bs[start:]
}

func (w *writer) uint64(v uint64) {
	varint.Uint64.Marshal(v, w.grow(varint.Uint64.Size(v)))
}

func (w *writer) int64(v int64) {
	varint.Int64.Marshal(v, w.grow(varint.Int64.Size(v)))
}

func (w *writer) int(v int) {
	w.int64(int64(v))
}

func (w *writer) string(v string) {
	ord.String.Marshal(v, w.grow(ord.String.Size(v)))
}

func (w *writer) bool(v bool) {
	ord.Bool.Marshal(v, w.grow(ord.Bool.Size(v)))
}

func (w *writer) float64(v float64) {
	raw.Float64.Marshal(v, w.grow(raw.Float64.Size(v)))
}

func (w *writer) float32(v float32) {
	raw.Float32.Marshal(v, w.grow(raw.Float32.Size(v)))
}

// time stores microseconds since the Unix epoch.
func (w *writer) time(v time.Time) {
	w.int64(v.UnixMicro())
}

func (w *writer) strings(vs []string) {
	w.int(len(vs))
	for _, v := range vs {
		w.string(v)
	}
}

func (w *writer) vector(vs []float32) {
	w.int(len(vs))
	for _, v := range vs {
		w.float32(v)
	}
}

// reader consumes MUS-encoded fields. The first error sticks.
type reader struct {
	bs  []byte
	err error
}

func (r *reader) advance(n int, err error) bool {
	if err != nil {
		r.err = err
		return false
	}
	r.bs = r.bs[n:]
	return true
}

func (r *reader) uint64() uint64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(r.bs)
	if !r.advance(n, err) {
		return 0
	}
	return v
}

func (r *reader) int64() int64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(r.bs)
	if !r.advance(n, err) {
		return 0
	}
	return v
}

func (r *reader) int() int {
	return int(r.int64())
}

func (r *reader) string() string {
	if r.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(r.bs)
	if !r.advance(n, err) {
		return ""
	}
	return v
}

func (r *reader) bool() bool {
	if r.err != nil {
		return false
	}
	v, n, err := ord.Bool.Unmarshal(r.bs)
	if !r.advance(n, err) {
		return false
	}
	return v
}

func (r *reader) float64() float64 {
	if r.err != nil {
		return 0
	}
	v, n, err := raw.Float64.Unmarshal(r.bs)
	if !r.advance(n, err) {
		return 0
	}
	return v
}

func (r *reader) float32() float32 {
	if r.err != nil {
		return 0
	}
	v, n, err := raw.Float32.Unmarshal(r.bs)
	if !r.advance(n, err) {
		return 0
	}
	return v
}

func (r *reader) time() time.Time {
	us := r.int64()
	if r.err != nil {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}

// length reads a slice length and rejects values the remaining bytes cannot hold.
func (r *reader) length() int {
	n := r.int()
	if r.err == nil && (n < 0 || n > len(r.bs)) {
		r.err = ErrTruncatedData
		return 0
	}
	return n
}

func (r *reader) strings() []string {
	n := r.length()
	if n == 0 {
		return nil
	}
	vs := make([]string, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		vs = append(vs, r.string())
	}
	return vs
}

func (r *reader) vector() []float32 {
	n := r.length()
	if n == 0 {
		return nil
	}
	vs := make([]float32, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		vs = append(vs, r.float32())
	}
	return vs
}

func (r *reader) version() {
	if v := r.uint64(); r.err == nil && v != recordVersion {
		r.err = fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
}

func (r *reader) done() error {
	if r.err != nil {
		return fmt.Errorf("%w: %w", ErrSerializationFailed, r.err)
	}
	return nil
}

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	w := &writer{}
	w.uint64(uint64(id))
	return w.bs
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	r := &reader{bs: data}
	id := core.ID(r.uint64())
	return id, r.done()
}

// MarshalEntity serializes an Entity to bytes.
func MarshalEntity(entity *core.Entity) []byte {
	w := &writer{bs: make([]byte, 0, 64+len(entity.Vector)*4)}
	w.uint64(recordVersion)
	w.uint64(uint64(entity.Id))
	w.string(entity.Name)
	w.string(string(entity.Type))
	w.strings(entity.Aliases)
	w.vector(entity.Vector)
	w.float64(entity.Salience)
	w.int(len(entity.SourceSpans))
	for _, span := range entity.SourceSpans {
		w.string(span.DocID)
		w.int(span.Start)
		w.int(span.End)
	}
	w.string(entity.Summary)
	w.time(entity.CreatedAt)
	w.time(entity.UpdatedAt)
	return w.bs
}

// UnmarshalEntity deserializes an Entity from bytes.
func UnmarshalEntity(data []byte) (*core.Entity, error) {
	r := &reader{bs: data}
	r.version()
	e := &core.Entity{}
	e.Id = core.ID(r.uint64())
	e.Name = r.string()
	e.Type = core.EntityType(r.string())
	e.Aliases = r.strings()
	e.Vector = r.vector()
	e.Salience = r.float64()
	if n := r.length(); n > 0 {
		e.SourceSpans = make([]core.SourceSpan, 0, n)
		for i := 0; i < n && r.err == nil; i++ {
			e.SourceSpans = append(e.SourceSpans, core.SourceSpan{
				DocID: r.string(),
				Start: r.int(),
				End:   r.int(),
			})
		}
	}
	e.Summary = r.string()
	e.CreatedAt = r.time()
	e.UpdatedAt = r.time()
	if err := r.done(); err != nil {
		return nil, err
	}
	return e, nil
}

// MarshalRelationship serializes a Relationship to bytes.
func MarshalRelationship(rel *core.Relationship) []byte {
	w := &writer{}
	w.uint64(recordVersion)
	w.uint64(uint64(rel.From))
	w.uint64(uint64(rel.To))
	w.string(string(rel.Predicate))
	w.float64(rel.Confidence)
	w.int(len(rel.Evidence))
	for _, ev := range rel.Evidence {
		w.string(ev.DocID)
		w.string(ev.Quote)
		w.int(ev.Offset)
	}
	w.bool(rel.Directional)
	w.time(rel.CreatedAt)
	w.time(rel.UpdatedAt)
	return w.bs
}

// UnmarshalRelationship deserializes a Relationship from bytes.
func UnmarshalRelationship(data []byte) (*core.Relationship, error) {
	r := &reader{bs: data}
	r.version()
	rel := &core.Relationship{}
	rel.From = core.ID(r.uint64())
	rel.To = core.ID(r.uint64())
	rel.Predicate = core.Predicate(r.string())
	rel.Confidence = r.float64()
	if n := r.length(); n > 0 {
		rel.Evidence = make([]core.Evidence, 0, n)
		for i := 0; i < n && r.err == nil; i++ {
			rel.Evidence = append(rel.Evidence, core.Evidence{
				DocID:  r.string(),
				Quote:  r.string(),
				Offset: r.int(),
			})
		}
	}
	rel.Directional = r.bool()
	rel.CreatedAt = r.time()
	rel.UpdatedAt = r.time()
	if err := r.done(); err != nil {
		return nil, err
	}
	return rel, nil
}

// MarshalVector serializes an embedding to bytes.
func MarshalVector(vector []float32) []byte {
	w := &writer{bs: make([]byte, 0, 2+len(vector)*4)}
	w.vector(vector)
	return w.bs
}

// UnmarshalVector deserializes an embedding from bytes.
func UnmarshalVector(data []byte) ([]float32, error) {
	r := &reader{bs: data}
	v := r.vector()
	if err := r.done(); err != nil {
		return nil, err
	}
	return v, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *core.Checkpoint) []byte {
	w := &writer{}
	w.uint64(recordVersion)
	w.string(checkpoint.Name)
	w.uint64(uint64(checkpoint.LastID))
	w.int(checkpoint.Processed)
	w.time(checkpoint.UpdatedAt)
	return w.bs
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	r := &reader{bs: data}
	r.version()
	c := &core.Checkpoint{
		Name:      r.string(),
		LastID:    core.ID(r.uint64()),
		Processed: r.int(),
		UpdatedAt: r.time(),
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return c, nil
}
