// Package project stores CutSprite project files for signed-in users and
// opens them as live editing sessions.
package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cutsprite/cutsprite/internal/db"
	"github.com/cutsprite/cutsprite/internal/document"
	"github.com/cutsprite/cutsprite/internal/typeid"
)

var (
	ErrNotFound          = errors.New("project not found")
	ErrForbidden         = errors.New("forbidden")
	ErrNotMember         = errors.New("not a project member")
	ErrUserNotFound      = errors.New("user not found")
	ErrCannotRemoveOwner = errors.New("cannot remove project owner")
	ErrVersionConflict   = errors.New("project was saved concurrently")
)

// Store is the project storage the service needs. *db.Queries implements it.
type Store interface {
	CreateProject(ctx context.Context, arg db.CreateProjectParams) (db.Project, error)
	GetProject(ctx context.Context, id string) (db.Project, error)
	ListProjectsForUser(ctx context.Context, userID string) ([]db.Project, error)
	TouchProject(ctx context.Context, id string) error
	DeleteProject(ctx context.Context, id string) error

	AddProjectMember(ctx context.Context, arg db.AddProjectMemberParams) error
	GetProjectMember(ctx context.Context, arg db.GetProjectMemberParams) (db.ProjectMember, error)
	ListProjectMembers(ctx context.Context, projectID string) ([]db.ProjectMemberRow, error)
	RemoveProjectMember(ctx context.Context, arg db.RemoveProjectMemberParams) error

	CreateSnapshot(ctx context.Context, arg db.CreateSnapshotParams) (db.Snapshot, error)
	GetLatestSnapshot(ctx context.Context, projectID string) (db.Snapshot, error)

	GetUserByEmail(ctx context.Context, email string) (db.User, error)
}

// Sessions opens project files as live sessions and snapshots them back.
// *session.Hub implements it.
type Sessions interface {
	Open(data []byte) (string, error)
	Snapshot(sessionID string) ([]byte, error)
}

type Service struct {
	store    Store
	sessions Sessions
	now      func() time.Time
}

func NewService(store Store, sessions Sessions) *Service {
	return &Service{store: store, sessions: sessions, now: time.Now}
}

type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type Member struct {
	UserID      string `json:"userId"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// Saved describes a stored project file version.
type Saved struct {
	ProjectID string `json:"projectId"`
	Version   int    `json:"version"`
}

// Create stores a new project owned by ownerID. An empty data starts from a
// project with one empty group; otherwise data must be a valid project file.
func (s *Service) Create(ctx context.Context, name, ownerID string, data []byte) (*Project, error) {
	doc, err := s.normalize(data)
	if err != nil {
		return nil, err
	}

	projectID := typeid.NewProjectID()
	p, err := s.store.CreateProject(ctx, db.CreateProjectParams{
		ID:      projectID,
		Name:    name,
		OwnerID: ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	err = s.store.AddProjectMember(ctx, db.AddProjectMemberParams{
		ProjectID: projectID,
		UserID:    ownerID,
		Role:      db.ProjectRoleOwner,
	})
	if err != nil {
		return nil, fmt.Errorf("add owner as member: %w", err)
	}

	if _, err := s.writeSnapshot(ctx, projectID, 1, doc); err != nil {
		return nil, err
	}

	return toProject(p), nil
}

// normalize validates a project file and re-encodes it in canonical form.
func (s *Service) normalize(data []byte) ([]byte, error) {
	p := document.NewEmptyProject()
	if len(data) > 0 {
		var err error
		if p, err = document.DecodeProject(data); err != nil {
			return nil, err
		}
	}
	return document.EncodeProject(p, s.now())
}

func (s *Service) Get(ctx context.Context, projectID, userID string) (*Project, error) {
	if err := s.checkMembership(ctx, projectID, userID); err != nil {
		return nil, err
	}

	p, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return toProject(p), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Project, error) {
	rows, err := s.store.ListProjectsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	projects := make([]Project, len(rows))
	for i, p := range rows {
		projects[i] = *toProject(p)
	}
	return projects, nil
}

func (s *Service) Delete(ctx context.Context, projectID, userID string) error {
	if _, err := s.requireOwner(ctx, projectID, userID); err != nil {
		return err
	}
	return s.store.DeleteProject(ctx, projectID)
}

func (s *Service) InviteByEmail(ctx context.Context, projectID, ownerID, inviteeEmail string) error {
	if _, err := s.requireOwner(ctx, projectID, ownerID); err != nil {
		return err
	}

	invitee, err := s.store.GetUserByEmail(ctx, inviteeEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	return s.store.AddProjectMember(ctx, db.AddProjectMemberParams{
		ProjectID: projectID,
		UserID:    invitee.ID,
		Role:      db.ProjectRoleEditor,
	})
}

func (s *Service) ListMembers(ctx context.Context, projectID, userID string) ([]Member, error) {
	if err := s.checkMembership(ctx, projectID, userID); err != nil {
		return nil, err
	}

	rows, err := s.store.ListProjectMembers(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	members := make([]Member, len(rows))
	for i, m := range rows {
		members[i] = Member{
			UserID:      m.UserID,
			Role:        string(m.Role),
			DisplayName: m.DisplayName,
			Email:       m.Email,
		}
	}
	return members, nil
}

func (s *Service) RemoveMember(ctx context.Context, projectID, ownerID, targetUserID string) error {
	if _, err := s.requireOwner(ctx, projectID, ownerID); err != nil {
		return err
	}
	if targetUserID == ownerID {
		return ErrCannotRemoveOwner
	}

	return s.store.RemoveProjectMember(ctx, db.RemoveProjectMemberParams{
		ProjectID: projectID,
		UserID:    targetUserID,
	})
}

// GetDocument returns the latest stored project file.
func (s *Service) GetDocument(ctx context.Context, projectID, userID string) (json.RawMessage, error) {
	if err := s.checkMembership(ctx, projectID, userID); err != nil {
		return nil, err
	}

	snap, err := s.store.GetLatestSnapshot(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snap.Document, nil
}

// SaveDocument stores data as the next version of the project. Invalid
// project files are rejected with document.ErrInvalidFormat.
func (s *Service) SaveDocument(ctx context.Context, projectID, userID string, data []byte) (*Saved, error) {
	if err := s.checkMembership(ctx, projectID, userID); err != nil {
		return nil, err
	}
	doc, err := s.normalize(data)
	if err != nil {
		return nil, err
	}

	next := int32(1)
	latest, err := s.store.GetLatestSnapshot(ctx, projectID)
	switch {
	case err == nil:
		next = latest.Version + 1
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	return s.writeSnapshot(ctx, projectID, next, doc)
}

func (s *Service) writeSnapshot(ctx context.Context, projectID string, version int32, doc []byte) (*Saved, error) {
	_, err := s.store.CreateSnapshot(ctx, db.CreateSnapshotParams{
		ID:        typeid.NewSnapshotID(),
		ProjectID: projectID,
		Version:   version,
		Document:  doc,
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrVersionConflict
		}
		return nil, fmt.Errorf("create snapshot: %w", err)
	}
	if err := s.store.TouchProject(ctx, projectID); err != nil {
		return nil, fmt.Errorf("touch project: %w", err)
	}
	return &Saved{ProjectID: projectID, Version: int(version)}, nil
}

// Open starts a live session from the latest stored version and returns
// its id.
func (s *Service) Open(ctx context.Context, projectID, userID string) (string, error) {
	doc, err := s.GetDocument(ctx, projectID, userID)
	if err != nil {
		return "", err
	}
	sessionID, err := s.sessions.Open(doc)
	if err != nil {
		return "", fmt.Errorf("open session: %w", err)
	}
	return sessionID, nil
}

// SaveSession stores the current state of a live session as the next
// version of the project.
func (s *Service) SaveSession(ctx context.Context, projectID, userID, sessionID string) (*Saved, error) {
	data, err := s.sessions.Snapshot(sessionID)
	if err != nil {
		return nil, fmt.Errorf("snapshot session: %w", err)
	}
	return s.SaveDocument(ctx, projectID, userID, data)
}

func (s *Service) getProject(ctx context.Context, projectID string) (db.Project, error) {
	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.Project{}, ErrNotFound
		}
		return db.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (s *Service) requireOwner(ctx context.Context, projectID, userID string) (db.Project, error) {
	p, err := s.getProject(ctx, projectID)
	if err != nil {
		return db.Project{}, err
	}
	if p.OwnerID != userID {
		return db.Project{}, ErrForbidden
	}
	return p, nil
}

func (s *Service) checkMembership(ctx context.Context, projectID, userID string) error {
	_, err := s.store.GetProjectMember(ctx, db.GetProjectMemberParams{
		ProjectID: projectID,
		UserID:    userID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotMember
		}
		return fmt.Errorf("check membership: %w", err)
	}
	return nil
}

func toProject(p db.Project) *Project {
	return &Project{
		ID:        p.ID,
		Name:      p.Name,
		OwnerID:   p.OwnerID,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
