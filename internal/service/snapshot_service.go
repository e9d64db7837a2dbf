package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"user-api/internal/domain"
	"user-api/internal/repository"
	"user-api/internal/storage"
)

// ErrSnapshotsDisabled is returned when no object storage bucket is configured.
var ErrSnapshotsDisabled = errors.New("snapshot storage is not configured")

// SnapshotRecord is the serialized form of a user inside a snapshot.
type SnapshotRecord struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Snapshot describes an exported copy of the user table.
type Snapshot struct {
	Location string
	Users    int
}

// SnapshotService exports the user table to object storage.
type SnapshotService interface {
	Export(ctx context.Context) (*Snapshot, error)
	List(ctx context.Context) ([]storage.ObjectInfo, error)
}

type snapshotService struct {
	users     repository.UserRepository
	store     storage.Service
	bucket    string
	keyPrefix string
	now       Clock
}

// NewSnapshotService returns a SnapshotService. A nil store or empty bucket
// yields a service whose methods report ErrSnapshotsDisabled.
func NewSnapshotService(users repository.UserRepository, store storage.Service, bucket, keyPrefix string, clock Clock) SnapshotService {
	if clock == nil {
		clock = SystemClock
	}
	return &snapshotService{
		users:     users,
		store:     store,
		bucket:    strings.TrimSpace(bucket),
		keyPrefix: strings.Trim(keyPrefix, "/"),
		now:       clock,
	}
}

func (s *snapshotService) enabled() bool {
	return s.store != nil && s.bucket != ""
}

func (s *snapshotService) Export(ctx context.Context) (*Snapshot, error) {
	if !s.enabled() {
		return nil, ErrSnapshotsDisabled
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]SnapshotRecord, len(users))
	for i := range users {
		records[i] = SnapshotRecord{
			ID:        users[i].ID,
			Name:      users[i].Name,
			Email:     users[i].Email,
			Username:  users[i].Username,
			CreatedAt: domain.FormatTimestamp(users[i].CreatedAt),
			UpdatedAt: domain.FormatTimestamp(users[i].UpdatedAt),
		}
	}

	body, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	name := fmt.Sprintf("users-%s-%s.json", s.now().UTC().Format("20060102T150405Z"), uuid.NewString()[:8])
	key := name
	if s.keyPrefix != "" {
		key = path.Join(s.keyPrefix, name)
	}

	location, err := s.store.PutObject(ctx, bytes.NewReader(body), storage.PutOptions{
		Bucket:      s.bucket,
		Key:         key,
		ContentType: "application/json",
	})
	if err != nil {
		return nil, err
	}

	return &Snapshot{Location: location, Users: len(records)}, nil
}

func (s *snapshotService) List(ctx context.Context) ([]storage.ObjectInfo, error) {
	if !s.enabled() {
		return nil, ErrSnapshotsDisabled
	}
	prefix := s.keyPrefix
	if prefix != "" {
		prefix += "/"
	}
	return s.store.ListObjects(ctx, s.bucket, prefix)
}
