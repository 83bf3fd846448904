package repositories

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/mock"

	driver "github.com/Qubut/IP-Claim/internal/infrastructure/database/neo4j"
)

// mockDriver implements driver.DriverInterface by handing every unit of
// work the same mock transaction.
type mockDriver struct {
	tx *MockTransaction
}

func newMockDriver() (*mockDriver, *MockTransaction) {
	tx := new(MockTransaction)
	return &mockDriver{tx: tx}, tx
}

func (d *mockDriver) ExecuteRead(_ context.Context, work driver.TransactionWork) (any, error) {
	return work(d.tx)
}

func (d *mockDriver) ExecuteWrite(_ context.Context, work driver.TransactionWork) (any, error) {
	return work(d.tx)
}

func (d *mockDriver) HealthCheck(_ context.Context) error { return nil }
func (d *mockDriver) Close() error                        { return nil }

// MockTransaction implements driver.Transaction.
type MockTransaction struct {
	mock.Mock
}

func (m *MockTransaction) Run(ctx context.Context, cypher string, params map[string]any) (driver.Result, error) {
	args := m.Called(ctx, cypher, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(driver.Result), args.Error(1)
}

// MockResult implements driver.Result over a fixed record slice.
type MockResult struct {
	Records []*neo4j.Record
	Current int
	Summary neo4j.ResultSummary
}

func (m *MockResult) Next(ctx context.Context) bool {
	return m.Current < len(m.Records)
}

func (m *MockResult) Record() *neo4j.Record {
	if m.Current < len(m.Records) {
		rec := m.Records[m.Current]
		m.Current++
		return rec
	}
	return nil
}

func (m *MockResult) Err() error { return nil }

func (m *MockResult) Consume(ctx context.Context) (neo4j.ResultSummary, error) {
	return m.Summary, nil
}

// MockResultSummary implements neo4j.ResultSummary.
type MockResultSummary struct {
	CountersObj neo4j.Counters
}

func (m *MockResultSummary) Counters() neo4j.Counters { return m.CountersObj }

func (m *MockResultSummary) Query() neo4j.Query {
	var q neo4j.Query
	return q
}

func (m *MockResultSummary) Database() neo4j.DatabaseInfo        { return nil }
func (m *MockResultSummary) Notifications() []neo4j.Notification { return nil }
func (m *MockResultSummary) Plan() neo4j.Plan                    { return nil }
func (m *MockResultSummary) Profile() neo4j.ProfiledPlan         { return nil }
func (m *MockResultSummary) ResultAvailableAfter() time.Duration { return 0 }
func (m *MockResultSummary) ResultConsumedAfter() time.Duration  { return 0 }
func (m *MockResultSummary) Server() neo4j.ServerInfo            { return nil }
func (m *MockResultSummary) StatementType() neo4j.StatementType  { return neo4j.StatementTypeUnknown }

// MockCounters implements neo4j.Counters.
type MockCounters struct {
	NodesCreatedVal         int
	RelationshipsCreatedVal int
}

func (m *MockCounters) NodesCreated() int           { return m.NodesCreatedVal }
func (m *MockCounters) NodesDeleted() int           { return 0 }
func (m *MockCounters) RelationshipsCreated() int   { return m.RelationshipsCreatedVal }
func (m *MockCounters) RelationshipsDeleted() int   { return 0 }
func (m *MockCounters) PropertiesSet() int          { return 0 }
func (m *MockCounters) LabelsAdded() int            { return 0 }
func (m *MockCounters) LabelsRemoved() int          { return 0 }
func (m *MockCounters) IndexesAdded() int           { return 0 }
func (m *MockCounters) IndexesRemoved() int         { return 0 }
func (m *MockCounters) ConstraintsAdded() int       { return 0 }
func (m *MockCounters) ConstraintsRemoved() int     { return 0 }
func (m *MockCounters) SystemUpdates() int          { return 0 }
func (m *MockCounters) ContainsSystemUpdates() bool { return false }
func (m *MockCounters) ContainsUpdates() bool {
	return m.NodesCreatedVal > 0 || m.RelationshipsCreatedVal > 0
}

func newRecord(keys []string, values []any) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}

func summaryWithNodes(n int) neo4j.ResultSummary {
	return &MockResultSummary{CountersObj: &MockCounters{NodesCreatedVal: n}}
}

func summaryWithRelationships(n int) neo4j.ResultSummary {
	return &MockResultSummary{CountersObj: &MockCounters{RelationshipsCreatedVal: n}}
}
