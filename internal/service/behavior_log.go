package service

import (
	"sync"
	"time"

	"pacekeeper/internal/model"
)

// CompletionRecord is one milestone completion as seen by the engine.
type CompletionRecord struct {
	MilestoneID int       `json:"milestone_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// BehaviorLog is the in-process completion and adjustment history the engine
// consults. It is advisory, not a ledger of record: retention is bounded to
// the most recent entries per goal so memory stays flat.
type BehaviorLog struct {
	mu          sync.Mutex
	capacity    int
	completions map[int][]CompletionRecord
	audits      map[int][]model.AdjustmentAudit
}

func NewBehaviorLog(capacity int) *BehaviorLog {
	if capacity <= 0 {
		capacity = 200
	}
	return &BehaviorLog{
		capacity:    capacity,
		completions: map[int][]CompletionRecord{},
		audits:      map[int][]model.AdjustmentAudit{},
	}
}

func (l *BehaviorLog) RecordCompletion(goalID, milestoneID int, at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := append(l.completions[goalID], CompletionRecord{
		MilestoneID: milestoneID,
		CompletedAt: at,
	})
	if len(entries) > l.capacity {
		entries = entries[len(entries)-l.capacity:]
	}
	l.completions[goalID] = entries
}

// Completions returns a copy of the goal's completion records in
// chronological order.
func (l *BehaviorLog) Completions(goalID int) []CompletionRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := l.completions[goalID]
	out := make([]CompletionRecord, len(entries))
	copy(out, entries)
	return out
}

func (l *BehaviorLog) RecordAudit(a model.AdjustmentAudit) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := append(l.audits[a.GoalID], a)
	if len(entries) > l.capacity {
		entries = entries[len(entries)-l.capacity:]
	}
	l.audits[a.GoalID] = entries
}

func (l *BehaviorLog) Audits(goalID int) []model.AdjustmentAudit {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := l.audits[goalID]
	out := make([]model.AdjustmentAudit, len(entries))
	copy(out, entries)
	return out
}
