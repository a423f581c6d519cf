package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by point lookups that match no row.
var ErrNotFound = errors.New("store: not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit     int       // max results (0 = unlimited)
	Purpose   string    // exact purpose match when set
	AttemptID string    // events issued on behalf of one attempt
	From      time.Time // timestamp >= From
	To        time.Time // timestamp <= To
}

// Item sources.
const (
	SourceCurated   = "curated"
	SourceGenerated = "generated"
)

// ItemRecord is one bank-resident assessment item.
type ItemRecord struct {
	ItemID       string
	Topic        string
	Subtopic     string
	Difficulty   string
	Question     string
	Choices      []string
	CorrectIndex int
	Explanation  string
	Embedding    []float32
	A            *float64
	B            *float64
	Source       string
	CreatedAt    time.Time
}

// ItemFilter selects one (topic, subtopic, difficulty) cell. Empty fields
// match everything; Limit 0 is unbounded.
type ItemFilter struct {
	Topic      string
	Subtopic   string
	Difficulty string
	Limit      int
}

// ItemRepo is the item bank.
type ItemRepo interface {
	// Get returns ErrNotFound when no item has the identifier.
	Get(ctx context.Context, itemID string) (*ItemRecord, error)

	// Scan returns items in insertion order.
	Scan(ctx context.Context, f ItemFilter) ([]ItemRecord, error)

	// Upsert inserts items whose identifier is not yet present and leaves
	// existing ones untouched. It returns the number of new rows.
	Upsert(ctx context.Context, items ...ItemRecord) (int, error)

	// Cells counts items per (topic, subtopic, difficulty).
	Cells(ctx context.Context) ([]CellCount, error)
}

// CellCount is the number of bank items in one cell.
type CellCount struct {
	Topic      string
	Subtopic   string
	Difficulty string
	Items      int
}

// TopicRecord is a topic with its ordered subtopics.
type TopicRecord struct {
	Name      string
	Subtopics []string
}

// EdgeRecord is one prerequisite edge. Subtopics may be the wildcard "ANY".
type EdgeRecord struct {
	PrereqTopic    string
	PrereqSubtopic string
	TargetTopic    string
	TargetSubtopic string
}

// CurriculumRepo persists topics, subtopics and prerequisite edges.
type CurriculumRepo interface {
	// Seed replaces the whole curriculum atomically.
	Seed(ctx context.Context, topics []TopicRecord, edges []EdgeRecord) error
	Topics(ctx context.Context) ([]TopicRecord, error)
	Subtopics(ctx context.Context, topic string) ([]string, error)
	Edges(ctx context.Context) ([]EdgeRecord, error)
}

// ProgressRecord is a learner's standing on one (topic, subtopic).
type ProgressRecord struct {
	LearnerID string
	Topic     string
	Subtopic  string
	Attempts  int
	Completed bool
	LastScore float64
	UpdatedAt time.Time
}

// ProgressUpdate is one finished attempt forwarded to bookkeeping.
type ProgressUpdate struct {
	LearnerID string
	Topic     string
	Subtopic  string
	Score     float64
	Passed    bool
}

// ProgressRepo is the progress bookkeeping store.
type ProgressRepo interface {
	// Get returns nil, nil when the learner has no record for the cell.
	Get(ctx context.Context, learnerID, topic, subtopic string) (*ProgressRecord, error)
	List(ctx context.Context, learnerID string) ([]ProgressRecord, error)

	// Record increments the attempt counter, sets the last score and sets
	// the completion flag when the attempt passed. Completion is never
	// cleared.
	Record(ctx context.Context, u ProgressUpdate) error
}

// TranscriptRecord is the immutable record of a finished attempt.
type TranscriptRecord struct {
	AttemptID    string
	LearnerID    string
	Topic        string
	Subtopic     string
	Difficulty   string
	Policy       string
	Target       int
	ServedCount  int
	CorrectCount int
	Score        float64
	PassMark     float64
	Passed       bool
	Theta        *float64
	StartedAt    time.Time
	FinishedAt   time.Time
	Responses    []ResponseRecord

	// ProgressForwarded is set once the attempt has been counted in the
	// learner's progress.
	ProgressForwarded bool
}

// ResponseRecord is one served item in a transcript. ChosenIndex and
// IsCorrect are nil when the learner never answered.
type ResponseRecord struct {
	Position     int
	ItemID       string
	Question     string
	Choices      []string
	CorrectIndex int
	ChosenIndex  *int
	IsCorrect    *bool
}

// TranscriptRepo stores attempt transcripts.
type TranscriptRepo interface {
	// Save writes the transcript and all responses in one transaction.
	// It returns false without writing when the attempt is already
	// recorded.
	Save(ctx context.Context, t *TranscriptRecord) (bool, error)

	// Get returns ErrNotFound for an unrecorded attempt.
	Get(ctx context.Context, attemptID string) (*TranscriptRecord, error)

	// MarkForwarded records that the attempt reached progress
	// bookkeeping. It returns ErrNotFound for an unrecorded attempt.
	MarkForwarded(ctx context.Context, attemptID string) error

	// ListByLearner returns transcripts without responses, newest first.
	ListByLearner(ctx context.Context, learnerID string, limit int) ([]TranscriptRecord, error)
}

// CheckpointRecord is a persisted engine state.
type CheckpointRecord struct {
	AttemptID string
	State     []byte
	Phase     string
	UpdatedAt time.Time
	Abandoned bool
}

// CheckpointRepo is the SQL checkpoint backend.
type CheckpointRepo interface {
	Save(ctx context.Context, attemptID string, state []byte, phase string) error

	// Load returns nil, nil when no checkpoint exists.
	Load(ctx context.Context, attemptID string) (*CheckpointRecord, error)

	// MarkAbandoned flags checkpoints last written before cutoff whose
	// phase is not listed in skip. State is left untouched.
	MarkAbandoned(ctx context.Context, cutoff time.Time, skip []string) (int, error)
}

// LLM event kinds.
const (
	LLMKindGenerate = "generate"
	LLMKindEmbed    = "embed"
)

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Kind         string
	Provider     string
	Model        string
	Purpose      string
	AttemptID    string // empty for requests made outside an attempt
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStats aggregates calls per purpose.
type LLMUsageStats struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMModelUsage aggregates calls per model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns nil, nil for an unknown id.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)
}
