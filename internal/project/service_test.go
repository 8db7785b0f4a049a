package project

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cutsprite/cutsprite/internal/db"
	"github.com/cutsprite/cutsprite/internal/document"
)

type memberKey struct{ project, user string }

// memStore is an in-memory Store.
type memStore struct {
	mu        sync.Mutex
	users     map[string]db.User // email -> user
	projects  map[string]db.Project
	members   map[memberKey]db.ProjectRole
	snapshots map[string][]db.Snapshot
}

func newMemStore(users ...db.User) *memStore {
	s := &memStore{
		users:     make(map[string]db.User),
		projects:  make(map[string]db.Project),
		members:   make(map[memberKey]db.ProjectRole),
		snapshots: make(map[string][]db.Snapshot),
	}
	for _, u := range users {
		s.users[u.Email] = u
	}
	return s
}

func (s *memStore) CreateProject(_ context.Context, arg db.CreateProjectParams) (db.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	p := db.Project{ID: arg.ID, Name: arg.Name, OwnerID: arg.OwnerID, CreatedAt: now, UpdatedAt: now}
	s.projects[p.ID] = p
	return p, nil
}

func (s *memStore) GetProject(_ context.Context, id string) (db.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return db.Project{}, pgx.ErrNoRows
	}
	return p, nil
}

func (s *memStore) ListProjectsForUser(_ context.Context, userID string) ([]db.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []db.Project
	for k := range s.members {
		if k.user == userID {
			out = append(out, s.projects[k.project])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) TouchProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.projects[id]
	p.UpdatedAt = time.Now()
	s.projects[id] = p
	return nil
}

func (s *memStore) DeleteProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.projects, id)
	delete(s.snapshots, id)
	for k := range s.members {
		if k.project == id {
			delete(s.members, k)
		}
	}
	return nil
}

func (s *memStore) AddProjectMember(_ context.Context, arg db.AddProjectMemberParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := memberKey{arg.ProjectID, arg.UserID}
	if _, ok := s.members[k]; !ok {
		s.members[k] = arg.Role
	}
	return nil
}

func (s *memStore) GetProjectMember(_ context.Context, arg db.GetProjectMemberParams) (db.ProjectMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.members[memberKey{arg.ProjectID, arg.UserID}]
	if !ok {
		return db.ProjectMember{}, pgx.ErrNoRows
	}
	return db.ProjectMember{ProjectID: arg.ProjectID, UserID: arg.UserID, Role: role}, nil
}

func (s *memStore) ListProjectMembers(_ context.Context, projectID string) ([]db.ProjectMemberRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []db.ProjectMemberRow
	for _, u := range s.users {
		if role, ok := s.members[memberKey{projectID, u.ID}]; ok {
			out = append(out, db.ProjectMemberRow{UserID: u.ID, Role: role, DisplayName: u.DisplayName, Email: u.Email})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out, nil
}

func (s *memStore) RemoveProjectMember(_ context.Context, arg db.RemoveProjectMemberParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, memberKey{arg.ProjectID, arg.UserID})
	return nil
}

func (s *memStore) CreateSnapshot(_ context.Context, arg db.CreateSnapshotParams) (db.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snap := range s.snapshots[arg.ProjectID] {
		if snap.Version == arg.Version {
			return db.Snapshot{}, &pgconn.PgError{Code: "23505"}
		}
	}
	snap := db.Snapshot{ID: arg.ID, ProjectID: arg.ProjectID, Version: arg.Version, Document: arg.Document, CreatedAt: time.Now()}
	s.snapshots[arg.ProjectID] = append(s.snapshots[arg.ProjectID], snap)
	return snap, nil
}

func (s *memStore) GetLatestSnapshot(_ context.Context, projectID string) (db.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snaps := s.snapshots[projectID]
	if len(snaps) == 0 {
		return db.Snapshot{}, pgx.ErrNoRows
	}
	latest := snaps[0]
	for _, snap := range snaps[1:] {
		if snap.Version > latest.Version {
			latest = snap
		}
	}
	return latest, nil
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return db.User{}, pgx.ErrNoRows
	}
	return u, nil
}

// fakeSessions records opened documents and serves fixed snapshots.
type fakeSessions struct {
	opened    [][]byte
	snapshots map[string][]byte
}

func (f *fakeSessions) Open(data []byte) (string, error) {
	if _, err := document.DecodeProject(data); err != nil {
		return "", err
	}
	f.opened = append(f.opened, data)
	return "sess_opened", nil
}

func (f *fakeSessions) Snapshot(id string) ([]byte, error) {
	data, ok := f.snapshots[id]
	if !ok {
		return nil, errors.New("session not found")
	}
	return data, nil
}

var (
	owner  = db.User{ID: "user_owner", Email: "owner@example.com", DisplayName: "Owner"}
	editor = db.User{ID: "user_editor", Email: "editor@example.com", DisplayName: "Editor"}
)

func newTestService(t *testing.T) (*Service, *memStore, *fakeSessions) {
	t.Helper()
	store := newMemStore(owner, editor)
	sessions := &fakeSessions{snapshots: make(map[string][]byte)}
	return NewService(store, sessions), store, sessions
}

func sampleProject(t *testing.T) []byte {
	t.Helper()
	data, err := document.EncodeProject(document.NewSampleProject(), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestCreateSeedsEmptyDocument(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, "Hero", owner.ID, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	doc, err := svc.GetDocument(ctx, p.ID, owner.ID)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	pf, err := document.DecodeProject(doc)
	if err != nil {
		t.Fatalf("stored document invalid: %v", err)
	}
	if len(pf.Groups) != 1 || len(pf.Groups[0].Slices) != 0 {
		t.Fatalf("seed document groups = %+v", pf.Groups)
	}
}

func TestCreateRejectsInvalidDocument(t *testing.T) {
	svc, store, _ := newTestService(t)
	_, err := svc.Create(context.Background(), "Hero", owner.ID, []byte(`{"groups": []}`))
	if !errors.Is(err, document.ErrInvalidFormat) {
		t.Fatalf("Create = %v, want ErrInvalidFormat", err)
	}
	if len(store.projects) != 0 {
		t.Fatal("project stored despite invalid document")
	}
}

func TestSaveDocumentVersions(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	p, _ := svc.Create(ctx, "Hero", owner.ID, nil)

	saved, err := svc.SaveDocument(ctx, p.ID, owner.ID, sampleProject(t))
	if err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	if saved.Version != 2 {
		t.Fatalf("version = %d, want 2", saved.Version)
	}

	doc, _ := svc.GetDocument(ctx, p.ID, owner.ID)
	pf, _ := document.DecodeProject(doc)
	if len(pf.Groups) != 2 {
		t.Fatalf("latest groups = %d, want 2", len(pf.Groups))
	}

	if _, err := svc.SaveDocument(ctx, p.ID, owner.ID, []byte("{")); !errors.Is(err, document.ErrInvalidFormat) {
		t.Fatalf("SaveDocument(bad) = %v", err)
	}
	if _, err := svc.SaveDocument(ctx, p.ID, editor.ID, sampleProject(t)); !errors.Is(err, ErrNotMember) {
		t.Fatalf("SaveDocument(non-member) = %v", err)
	}
}

func TestOpenAndSaveSession(t *testing.T) {
	svc, _, sessions := newTestService(t)
	ctx := context.Background()
	p, _ := svc.Create(ctx, "Hero", owner.ID, sampleProject(t))

	id, err := svc.Open(ctx, p.ID, owner.ID)
	if err != nil || id != "sess_opened" || len(sessions.opened) != 1 {
		t.Fatalf("Open = %q, %v", id, err)
	}
	if _, err := svc.Open(ctx, p.ID, editor.ID); !errors.Is(err, ErrNotMember) {
		t.Fatalf("Open(non-member) = %v", err)
	}

	empty, _ := document.EncodeProject(document.NewEmptyProject(), time.Now())
	sessions.snapshots["sess_live"] = empty
	saved, err := svc.SaveSession(ctx, p.ID, owner.ID, "sess_live")
	if err != nil || saved.Version != 2 {
		t.Fatalf("SaveSession = %+v, %v", saved, err)
	}
	if _, err := svc.SaveSession(ctx, p.ID, owner.ID, "sess_gone"); err == nil {
		t.Fatal("SaveSession accepted an unknown session")
	}
}

func TestVersionConflict(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	p, _ := svc.Create(ctx, "Hero", owner.ID, nil)

	if _, err := svc.writeSnapshot(ctx, p.ID, 1, sampleProject(t)); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("writeSnapshot(existing version) = %v", err)
	}
	if len(store.snapshots[p.ID]) != 1 {
		t.Fatalf("snapshots = %d", len(store.snapshots[p.ID]))
	}
}

func TestMembership(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	p, _ := svc.Create(ctx, "Hero", owner.ID, nil)

	if _, err := svc.Get(ctx, p.ID, editor.ID); !errors.Is(err, ErrNotMember) {
		t.Fatalf("Get(non-member) = %v", err)
	}
	if err := svc.InviteByEmail(ctx, p.ID, editor.ID, editor.Email); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Invite by non-owner = %v", err)
	}
	if err := svc.InviteByEmail(ctx, p.ID, owner.ID, "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Invite unknown = %v", err)
	}
	if err := svc.InviteByEmail(ctx, p.ID, owner.ID, editor.Email); err != nil {
		t.Fatalf("Invite: %v", err)
	}

	members, err := svc.ListMembers(ctx, p.ID, editor.ID)
	if err != nil || len(members) != 2 {
		t.Fatalf("ListMembers = %+v, %v", members, err)
	}
	if list, _ := svc.List(ctx, editor.ID); len(list) != 1 || list[0].ID != p.ID {
		t.Fatalf("editor's projects = %+v", list)
	}

	if err := svc.RemoveMember(ctx, p.ID, owner.ID, owner.ID); !errors.Is(err, ErrCannotRemoveOwner) {
		t.Fatalf("remove owner = %v", err)
	}
	if err := svc.Delete(ctx, p.ID, editor.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Delete by editor = %v", err)
	}
	if err := svc.RemoveMember(ctx, p.ID, owner.ID, editor.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(ctx, p.ID, editor.ID); !errors.Is(err, ErrNotMember) {
		t.Fatalf("Get after removal = %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	p, _ := svc.Create(ctx, "Hero", owner.ID, nil)

	if err := svc.Delete(ctx, p.ID, owner.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, p.ID, owner.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete = %v", err)
	}
}
