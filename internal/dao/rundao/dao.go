// Package rundao persists release pipeline run records. History is strictly
// optional: the pipeline itself carries no state across runs, and with no
// table configured nothing here is ever called.
package rundao

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/savaki/ddb/v2"
	"github.com/savaki/gox/slicex"
)

// PK represents a partition key in format {package}/{index}
// Example: sampleproject/staging
type PK string

// NewPK creates a new partition key from package and index names
func NewPK(pkg, index string) PK {
	return PK(fmt.Sprintf("%s/%s", pkg, index))
}

// ParsePK parses a partition key into its package and index components
func ParsePK(pk PK) (pkg, index string, err error) {
	s := string(pk)
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid PK format: %s, expected {package}/{index}", s)
	}
	return parts[0], parts[1], nil
}

// String returns the string representation of the partition key
func (pk PK) String() string {
	return string(pk)
}

// ID represents a run ID in format {package}/{index}:{ksuid}
// Example: sampleproject/staging:2HFj3kLmNoPqRsTuVwXy
type ID string

func (id ID) String() string {
	return string(id)
}

// ParseID parses a run ID into its partition key (pk) and sort key (sk) components
func ParseID(id ID) (pk PK, sk string, err error) {
	s := string(id)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid run ID format: %s, expected {package}/{index}:{ksuid}", s)
	}
	return PK(parts[0]), parts[1], nil
}

// NewID constructs an ID from partition key and sort key
func NewID(pk PK, sk string) ID {
	return ID(fmt.Sprintf("%s:%s", pk, sk))
}

// RunStatus represents the overall status of a pipeline run
type RunStatus string

const (
	RunStatusPending    RunStatus = "PENDING"
	RunStatusInProgress RunStatus = "IN_PROGRESS"
	RunStatusSuccess    RunStatus = "SUCCESS"
	RunStatusFailed     RunStatus = "FAILED"
)

// Record represents a pipeline run record in DynamoDB
type Record struct {
	PK          PK                `ddb:"hash" dynamodbav:"pk"`  // {package}/{index} - partition key
	SK          string            `ddb:"range" dynamodbav:"sk"` // KSUID - sort key
	Package     string            `dynamodbav:"package,omitempty"`
	Index       string            `dynamodbav:"index,omitempty"` // target index (staging, production, or "-" for build-only runs)
	TriggerKind string            `dynamodbav:"trigger_kind,omitempty"`
	TestPyPI    string            `dynamodbav:"test_pypi,omitempty"` // raw dispatch input, as serialized by the platform
	Status      RunStatus         `dynamodbav:"status,omitempty"`
	Stages      map[string]string `dynamodbav:"stages,omitempty"` // per-stage outcome
	ErrorMsg    *string           `dynamodbav:"error_msg,omitempty"`
	CreatedAt   int64             `dynamodbav:"created_at,omitempty"`   // Unix epoch timestamp of creation
	FinishedAt  *int64            `dynamodbav:"finished_at,omitempty"`  // Unix epoch timestamp of completion
	UpdatedAt   int64             `dynamodbav:"updated_at,omitempty"`
}

// GetID returns the full run ID in format: {package}/{index}:{ksuid}
func (r *Record) GetID() ID {
	return NewID(r.PK, r.SK)
}

// CreateInput contains the fields needed to create a new run record
type CreateInput struct {
	Package     string // Distribution name being released
	Index       string // Target index for the run ("-" when no publish stage is eligible)
	SK          string // KSUID sort key
	TriggerKind string // Trigger event kind
	TestPyPI    string // Raw test_pypi input
}

// UpdateInput contains the fields that can be updated on a run record
type UpdateInput struct {
	PK       PK                // Partition key (package/index)
	SK       string            // Sort key (KSUID)
	Status   *RunStatus        // New status
	Stages   map[string]string // Per-stage outcomes
	ErrorMsg *string           // Error message (optional)
}

// TableName returns the run history table for an environment
func TableName(env string) string {
	return fmt.Sprintf("%s-relgate-runs", env)
}

// DAO provides data access operations for run records
type DAO struct {
	db    *ddb.DDB
	table *ddb.Table
}

// New creates a new DAO instance
func New(client *dynamodb.Client, tableName string) *DAO {
	db := ddb.New(client)
	table := db.MustTable(tableName, &Record{})
	return &DAO{
		db:    db,
		table: table,
	}
}

// Create creates a new run record with initial status PENDING
func (d *DAO) Create(ctx context.Context, input CreateInput) (Record, error) {
	pk := NewPK(input.Package, input.Index)
	now := time.Now().Unix()

	record := Record{
		PK:          pk,
		SK:          input.SK,
		Package:     input.Package,
		Index:       input.Index,
		TriggerKind: input.TriggerKind,
		TestPyPI:    input.TestPyPI,
		Status:      RunStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := d.table.Put(&record).RunWithContext(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("failed to create run record: %w", err)
	}

	return record, nil
}

// Find retrieves a run record by ID
func (d *DAO) Find(ctx context.Context, id ID) (Record, error) {
	pk, sk, err := ParseID(id)
	if err != nil {
		return Record{}, err
	}

	var record Record

	err = d.table.Get(pk.String()).
		Range(sk).
		ConsistentRead(true).
		ScanWithContext(ctx, &record)
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "item not found") || strings.Contains(errStr, "ItemNotFound") {
			return Record{}, fmt.Errorf("run record not found: %s", id)
		}
		return Record{}, fmt.Errorf("failed to find run record: %w", err)
	}

	if record.PK == "" && record.SK == "" {
		return Record{}, fmt.Errorf("run record not found: %s", id)
	}

	return record, nil
}

// UpdateStatus updates the status and per-stage outcomes of a run record
func (d *DAO) UpdateStatus(ctx context.Context, input UpdateInput) error {
	if input.Status == nil {
		return fmt.Errorf("status is required")
	}

	now := time.Now().Unix()

	update := d.table.Update(input.PK.String()).
		Range(input.SK).
		Set("#Status = ?", string(*input.Status)).
		Set("#UpdatedAt = ?", now)

	// Set finishedAt for terminal states (SUCCESS or FAILED)
	if *input.Status == RunStatusSuccess || *input.Status == RunStatusFailed {
		update = update.Set("#FinishedAt = ?", now)
	}

	if input.Stages != nil {
		update = update.Set("#Stages = ?", input.Stages)
	}

	if input.ErrorMsg != nil {
		update = update.Set("#ErrorMsg = ?", *input.ErrorMsg)
	}

	if err := update.RunWithContext(ctx); err != nil {
		return fmt.Errorf("failed to update run record: %w", err)
	}

	return nil
}

// Query returns all runs for a given package/index partition key
func (d *DAO) Query(ctx context.Context, pk PK) ([]Record, error) {
	var records []Record

	err := d.table.Query("#PK = ?", pk.String()).
		FindAllWithContext(ctx, &records)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	return records, nil
}

// QueryByPackage returns the runs for a package against a given index,
// most recent first
func (d *DAO) QueryByPackage(ctx context.Context, pkg, index string) ([]Record, error) {
	records, err := d.Query(ctx, NewPK(pkg, index))
	if err != nil {
		return nil, err
	}

	// KSUIDs sort chronologically, so reverse SK order is reverse time order
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	return records, nil
}

// IDs returns the run IDs for a set of records
func IDs(records []Record) []ID {
	return slicex.Map(records, func(r Record) ID {
		return r.GetID()
	})
}
