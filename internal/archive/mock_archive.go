package archive

import (
	"context"
	"errors"
	"sync"

	"example.com/twitterfeed/internal/models"
)

// MockArchive keeps appended events in memory.
type MockArchive struct {
	mu     sync.Mutex
	Events []models.TweetEvent
	Closed bool
}

func (m *MockArchive) Append(ctx context.Context, ev models.TweetEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
	return nil
}

func (m *MockArchive) Close() {
	m.mu.Lock()
	m.Closed = true
	m.mu.Unlock()
}

// Snapshot returns a copy of the archived events.
func (m *MockArchive) Snapshot() []models.TweetEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.TweetEvent(nil), m.Events...)
}

// MockArchiveFail always fails to append.
type MockArchiveFail struct{}

func (m *MockArchiveFail) Append(ctx context.Context, ev models.TweetEvent) error {
	return errors.New("mock archive failed")
}

func (m *MockArchiveFail) Close() {}

var (
	_ Archive = (*CassandraArchive)(nil)
	_ Archive = (*MockArchive)(nil)
	_ Archive = (*MockArchiveFail)(nil)
)
