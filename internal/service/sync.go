package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"BabyKeeper/internal/model"
	"BabyKeeper/internal/repo"
)

var ErrNoAccess = errors.New("no access to baby")

const (
	// pullPageMax caps a single pull page no matter what the client asks for.
	pullPageMax = 500
	// bootstrapWindow is how much activity history a cold client receives.
	bootstrapWindow = 14 * 24 * time.Hour
)

// Mutation result statuses.
const (
	ResultSuccess  = "success"
	ResultConflict = "conflict"
	ResultDenied   = "denied"
	ResultInvalid  = "invalid"
)

// SyncService implements the server half of the delta protocol.
type SyncService struct {
	babies  repo.BabyRepository
	logs    repo.LogEntryRepository
	changes repo.ChangeLogRepository
	log     *zap.SugaredLogger
}

func NewSyncService(babies repo.BabyRepository, logs repo.LogEntryRepository, changes repo.ChangeLogRepository, log *zap.SugaredLogger) *SyncService {
	return &SyncService{babies: babies, logs: logs, changes: changes, log: log}
}

// PullPage is one page of the change stream.
type PullPage struct {
	Changes    []model.ChangeEntry
	NextCursor int64
	HasMore    bool
}

// Pull returns changes for a baby after the cursor. Readers only need a
// grant of any level.
func (s *SyncService) Pull(ctx context.Context, userID int64, babyID string, since int64, limit int) (*PullPage, error) {
	level, err := s.babies.AccessLevel(ctx, babyID, userID)
	if err != nil {
		return nil, err
	}
	if level == "" {
		return nil, ErrNoAccess
	}
	if limit <= 0 || limit > pullPageMax {
		limit = pullPageMax
	}
	// One extra row decides hasMore without a second query.
	entries, err := s.changes.ListAfter(ctx, babyID, since, limit+1)
	if err != nil {
		return nil, err
	}
	page := &PullPage{NextCursor: since}
	if len(entries) > limit {
		page.HasMore = true
		entries = entries[:limit]
	}
	page.Changes = entries
	if len(entries) > 0 {
		page.NextCursor = entries[len(entries)-1].Seq
	}
	return page, nil
}

// Mutation is one queued client write.
type Mutation struct {
	MutationID string
	EntityType string
	EntityID   string
	Op         string
	Payload    json.RawMessage
}

// MutationOutcome is the per-mutation verdict.
type MutationOutcome struct {
	MutationID string
	Status     string
	EntityType string
	ServerData json.RawMessage
	Error      string
}

// payloadEnvelope is the part of a log payload the server interprets. The
// rest of the JSON travels through untouched.
type payloadEnvelope struct {
	ID        string `json:"id"`
	BabyID    string `json:"babyId"`
	StartedAt string `json:"startedAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Push applies mutations one at a time, each with its own verdict, so a
// single bad or forbidden mutation never poisons the rest of the batch.
func (s *SyncService) Push(ctx context.Context, userID int64, mutations []Mutation) ([]MutationOutcome, error) {
	outcomes := make([]MutationOutcome, 0, len(mutations))
	for _, m := range mutations {
		outcomes = append(outcomes, s.applyOne(ctx, userID, m))
	}
	return outcomes, nil
}

func (s *SyncService) applyOne(ctx context.Context, userID int64, m Mutation) MutationOutcome {
	out := MutationOutcome{MutationID: m.MutationID, EntityType: m.EntityType}

	var env payloadEnvelope
	if err := json.Unmarshal(m.Payload, &env); err != nil {
		out.Status = ResultInvalid
		out.Error = "payload is not valid JSON"
		return out
	}
	if env.ID == "" || env.ID != m.EntityID {
		out.Status = ResultInvalid
		out.Error = "payload id does not match mutation"
		return out
	}

	existing, err := s.logs.GetByID(ctx, m.EntityID)
	if err != nil {
		out.Status = ResultInvalid
		out.Error = "lookup failed"
		return out
	}

	// The baby a mutation belongs to is authoritative from the stored row
	// for updates and deletes; the payload only names it on first create.
	babyID := env.BabyID
	if existing != nil {
		babyID = existing.BabyID
	}
	if babyID == "" {
		out.Status = ResultInvalid
		out.Error = "mutation names no baby"
		return out
	}

	level, err := s.babies.AccessLevel(ctx, babyID, userID)
	if err != nil {
		out.Status = ResultInvalid
		out.Error = "access lookup failed"
		return out
	}
	if level == "" || !model.CanEdit(level) {
		out.Status = ResultDenied
		return out
	}

	if m.Op == "delete" {
		if existing == nil {
			// Deleting what is already gone is a success, not an error.
			out.Status = ResultSuccess
			return out
		}
		if err := s.logs.ApplyMutation(ctx, existing, "delete"); err != nil {
			s.log.Errorw("failed to apply delete", "entityId", m.EntityID, "err", err)
			out.Status = ResultInvalid
			out.Error = "delete failed"
			return out
		}
		out.Status = ResultSuccess
		return out
	}

	entry := &model.LogEntry{
		ID:     m.EntityID,
		BabyID: babyID,
		Type:   m.EntityType,
		UserID: userID,
		Data:   append(json.RawMessage(nil), m.Payload...),
	}
	if t, err := time.Parse(time.RFC3339, env.StartedAt); err == nil {
		entry.StartedAt = t
	}

	// Last-writer-wins on the entity's own updatedAt. An older write loses
	// and gets the winning state back so the client can converge.
	if existing != nil && !existing.Deleted {
		if incoming, err := time.Parse(time.RFC3339, env.UpdatedAt); err == nil {
			var current payloadEnvelope
			if json.Unmarshal(existing.Data, &current) == nil {
				if stored, err := time.Parse(time.RFC3339, current.UpdatedAt); err == nil && stored.After(incoming) {
					out.Status = ResultConflict
					out.ServerData = append(json.RawMessage(nil), existing.Data...)
					return out
				}
			}
		}
	}

	op := "create"
	if existing != nil {
		op = "update"
	}
	if err := s.logs.ApplyMutation(ctx, entry, op); err != nil {
		s.log.Errorw("failed to apply mutation", "entityId", m.EntityID, "err", err)
		out.Status = ResultInvalid
		out.Error = "write failed"
		return out
	}
	out.Status = ResultSuccess
	return out
}

// AccessCheck is the verify-access verdict.
type AccessCheck struct {
	HasAccess bool
	Reason    string // no_access | baby_not_found
}

// VerifyAccess answers the authoritative does-this-user-still-see-this-baby
// question clients ask before purging local data.
func (s *SyncService) VerifyAccess(ctx context.Context, userID int64, babyID string) (AccessCheck, error) {
	b, err := s.babies.GetBaby(ctx, babyID)
	if err != nil {
		return AccessCheck{}, err
	}
	if b == nil {
		return AccessCheck{Reason: "baby_not_found"}, nil
	}
	level, err := s.babies.AccessLevel(ctx, babyID, userID)
	if err != nil {
		return AccessCheck{}, err
	}
	if level == "" {
		return AccessCheck{Reason: "no_access"}, nil
	}
	return AccessCheck{HasAccess: true}, nil
}

// Snapshot is the cold-start bundle.
type Snapshot struct {
	User       *model.User
	Babies     []model.Baby
	Grants     []model.BabyAccess
	RecentLogs []model.LogEntry
	Cursors    map[string]int64
}

// BuildSnapshot assembles the bootstrap payload: everything the user can
// see, a recent window of activity, and per-baby cursors taken at the same
// moment so the first delta pull continues seamlessly.
func (s *SyncService) BuildSnapshot(ctx context.Context, user *model.User) (*Snapshot, error) {
	babies, grants, err := s.babies.ListForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{User: user, Babies: babies, Grants: grants, Cursors: make(map[string]int64, len(babies))}
	cutoff := time.Now().Add(-bootstrapWindow)
	for _, b := range babies {
		// Cursor first: logs written between these two reads will be
		// replayed by the first pull, which is harmless, while the reverse
		// order could lose them.
		seq, err := s.changes.LatestSeq(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		snap.Cursors[b.ID] = seq
		logs, err := s.logs.RecentForBaby(ctx, b.ID, cutoff)
		if err != nil {
			return nil, err
		}
		snap.RecentLogs = append(snap.RecentLogs, logs...)
	}
	return snap, nil
}

// CreateBaby registers a new baby owned by the user.
func (s *SyncService) CreateBaby(ctx context.Context, userID int64, name string, birthDate *time.Time) (*model.Baby, *model.BabyAccess, error) {
	if name == "" {
		return nil, nil, errors.New("baby needs a name")
	}
	b := &model.Baby{
		ID:          uuid.NewString(),
		Name:        name,
		BirthDate:   birthDate,
		OwnerUserID: userID,
	}
	g := &model.BabyAccess{BabyID: b.ID, UserID: userID, Level: model.AccessOwner}
	if err := s.babies.CreateBaby(ctx, b, g); err != nil {
		return nil, nil, err
	}
	return b, g, nil
}
