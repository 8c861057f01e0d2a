// Package runtime is the seam to the host agent runtime. The engine only
// ever writes normalized records and reads bounded lists through it; the
// host's own memory and embedding machinery stays on the other side.
package runtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Record is one normalized memory record as the host runtime stores it.
type Record struct {
	ID        uuid.UUID
	AgentID   uuid.UUID
	EntityID  uuid.UUID
	RoomID    string
	Table     string
	Kind      string
	Content   string
	Metadata  map[string]interface{}
	CreatedAt int64
}

// Query is a bounded read against one runtime table.
type Query struct {
	Table    string
	RoomID   string
	EntityID uuid.UUID
	Count    int
}

// Search is a text/embedding lookup against one runtime table.
type Search struct {
	Table string
	Text  string
	Room  string
	Count int
}

type AgentRuntime interface {
	CreateMemory(ctx context.Context, rec Record, table string) error
	GetMemories(ctx context.Context, q Query) ([]Record, error)
	SearchMemories(ctx context.Context, s Search) ([]Record, error)
	AgentID() uuid.UUID
}

// NullRuntime is wired when the engine runs without a host. Writes vanish,
// reads come back empty.
type NullRuntime struct{}

func (NullRuntime) CreateMemory(context.Context, Record, string) error { return nil }
func (NullRuntime) GetMemories(context.Context, Query) ([]Record, error) {
	return nil, nil
}
func (NullRuntime) SearchMemories(context.Context, Search) ([]Record, error) {
	return nil, nil
}
func (NullRuntime) AgentID() uuid.UUID { return uuid.Nil }

// MemoryRuntime is an in-process AgentRuntime backed by plain maps. Used in
// tests and local runs without a host agent.
type MemoryRuntime struct {
	mu      sync.Mutex
	agentID uuid.UUID
	tables  map[string][]Record
}

func NewMemoryRuntime() *MemoryRuntime {
	return &MemoryRuntime{
		agentID: uuid.New(),
		tables:  make(map[string][]Record),
	}
}

func (m *MemoryRuntime) CreateMemory(_ context.Context, rec Record, table string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.Table = table
	m.tables[table] = append(m.tables[table], rec)
	return nil
}

func (m *MemoryRuntime) GetMemories(_ context.Context, q Query) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, rec := range m.tables[q.Table] {
		if q.EntityID != uuid.Nil && rec.EntityID != q.EntityID {
			continue
		}
		if q.RoomID != "" && rec.RoomID != q.RoomID {
			continue
		}
		out = append(out, rec)
		if q.Count > 0 && len(out) >= q.Count {
			break
		}
	}
	return out, nil
}

func (m *MemoryRuntime) SearchMemories(ctx context.Context, s Search) ([]Record, error) {
	return m.GetMemories(ctx, Query{Table: s.Table, RoomID: s.Room, Count: s.Count})
}

func (m *MemoryRuntime) AgentID() uuid.UUID { return m.agentID }
