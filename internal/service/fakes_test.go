package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"stepable/internal/model"
)

type fakeProjectRepo struct {
	mu       sync.Mutex
	projects map[string]*model.Project
	members  map[string]map[string]*model.ProjectMember // project -> user -> member
	nextID   int
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: map[string]*model.Project{}, members: map[string]map[string]*model.ProjectMember{}}
}

func (f *fakeProjectRepo) seed(p model.Project, members map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := p
	f.projects[p.ID] = &cp
	f.members[p.ID] = map[string]*model.ProjectMember{}
	for user, role := range members {
		f.members[p.ID][user] = &model.ProjectMember{ProjectID: p.ID, UserID: user, Role: role}
	}
}

func (f *fakeProjectRepo) list(userID string, member bool) []model.Project {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Project{}
	for _, id := range sortedKeys(f.projects) {
		_, isMember := f.members[id][userID]
		if isMember == member {
			out = append(out, *f.projects[id])
		}
	}
	return out
}

func (f *fakeProjectRepo) ListByMember(_ context.Context, userID string) ([]model.Project, error) {
	return f.list(userID, true), nil
}

func (f *fakeProjectRepo) ListNotMember(_ context.Context, userID string) ([]model.Project, error) {
	return f.list(userID, false), nil
}

func (f *fakeProjectRepo) CreateWithOwner(_ context.Context, p *model.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = fmt.Sprintf("p%d", f.nextID)
	p.MemberCount = 1
	p.MyRole = model.MemberRoleOwner
	cp := *p
	f.projects[p.ID] = &cp
	f.members[p.ID] = map[string]*model.ProjectMember{
		p.CreatedBy: {ProjectID: p.ID, UserID: p.CreatedBy, Role: model.MemberRoleOwner},
	}
	return nil
}

func (f *fakeProjectRepo) GetByID(_ context.Context, projectID string) (*model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[projectID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjectRepo) UpdateStatus(_ context.Context, projectID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects[projectID].Status = status
	return nil
}

func (f *fakeProjectRepo) GetMember(_ context.Context, projectID, userID string) (*model.ProjectMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[projectID][userID]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeProjectRepo) ListMembers(_ context.Context, projectID string) ([]model.ProjectMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.ProjectMember{}
	for _, id := range sortedKeys(f.members[projectID]) {
		out = append(out, *f.members[projectID][id])
	}
	return out, nil
}

func (f *fakeProjectRepo) AddMember(_ context.Context, m *model.ProjectMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members[m.ProjectID] == nil {
		f.members[m.ProjectID] = map[string]*model.ProjectMember{}
	}
	cp := *m
	f.members[m.ProjectID][m.UserID] = &cp
	return nil
}

func (f *fakeProjectRepo) UpdateMemberRole(_ context.Context, projectID, userID, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[projectID][userID].Role = role
	return nil
}

func (f *fakeProjectRepo) RemoveMember(_ context.Context, projectID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members[projectID], userID)
	return nil
}

type fakeModuleRepo struct {
	modules []model.Module
	lessons []model.Lesson
}

func (f *fakeModuleRepo) ListModulesByProject(_ context.Context, projectID string) ([]model.Module, error) {
	out := []model.Module{}
	for _, m := range f.modules {
		if m.ProjectID == projectID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeModuleRepo) GetModuleByID(_ context.Context, moduleID string) (*model.Module, error) {
	for _, m := range f.modules {
		if m.ID == moduleID {
			cp := m
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeModuleRepo) CreateModule(_ context.Context, m *model.Module) error {
	f.modules = append(f.modules, *m)
	return nil
}

func (f *fakeModuleRepo) ListLessonsByProject(_ context.Context, projectID string) ([]model.Lesson, error) {
	out := []model.Lesson{}
	for _, m := range f.modules {
		if m.ProjectID != projectID {
			continue
		}
		for _, l := range f.lessons {
			if l.ModuleID == m.ID {
				out = append(out, l)
			}
		}
	}
	return out, nil
}

func (f *fakeModuleRepo) ListLessonsByModule(_ context.Context, moduleID string) ([]model.Lesson, error) {
	out := []model.Lesson{}
	for _, l := range f.lessons {
		if l.ModuleID == moduleID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeModuleRepo) GetLessonByID(_ context.Context, lessonID string) (*model.Lesson, error) {
	for _, l := range f.lessons {
		if l.ID == lessonID {
			cp := l
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeModuleRepo) CreateLesson(_ context.Context, l *model.Lesson) error {
	f.lessons = append(f.lessons, *l)
	return nil
}

type fakeProgressRepo struct {
	mu      sync.Mutex
	rows    map[string]*model.UserProgress // user|lesson
	modules int
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{rows: map[string]*model.UserProgress{}}
}

func (f *fakeProgressRepo) Get(_ context.Context, userID, lessonID string) (*model.UserProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[userID+"|"+lessonID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProgressRepo) Upsert(_ context.Context, p *model.UserProgress) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := p.UserID + "|" + p.LessonID
	prev := model.ProgressNotStarted
	if old, ok := f.rows[key]; ok {
		prev = old.Status
		if old.CompletedAt != nil {
			p.CompletedAt = old.CompletedAt
		}
	}
	cp := *p
	f.rows[key] = &cp
	return prev, nil
}

func (f *fakeProgressRepo) ListByUser(_ context.Context, userID string) ([]model.UserProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.UserProgress{}
	for _, k := range sortedKeys(f.rows) {
		if f.rows[k].UserID == userID {
			out = append(out, *f.rows[k])
		}
	}
	return out, nil
}

func (f *fakeProgressRepo) RecentCompletions(ctx context.Context, userID string, limit int) ([]model.UserProgress, error) {
	all, _ := f.ListByUser(ctx, userID)
	out := []model.UserProgress{}
	for _, p := range all {
		if p.Status == model.ProgressCompleted && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProgressRepo) CountCompletedModules(context.Context, string) (int, error) {
	return f.modules, nil
}

type fakeAchievementRepo struct {
	earned map[string]time.Time
}

func (f *fakeAchievementRepo) ListByUser(_ context.Context, userID string) ([]model.Achievement, error) {
	out := []model.Achievement{}
	for _, code := range sortedKeys(f.earned) {
		out = append(out, model.Achievement{UserID: userID, Code: code, EarnedAt: f.earned[code]})
	}
	return out, nil
}

func (f *fakeAchievementRepo) Award(_ context.Context, _ string, code string) (bool, error) {
	if f.earned == nil {
		f.earned = map[string]time.Time{}
	}
	if _, ok := f.earned[code]; ok {
		return false, nil
	}
	f.earned[code] = time.Now()
	return true, nil
}

type fakeDocumentRepo struct {
	docs    map[string]*model.Document
	deleted []string
}

func (f *fakeDocumentRepo) Create(_ context.Context, d *model.Document) error {
	if f.docs == nil {
		f.docs = map[string]*model.Document{}
	}
	d.ID = fmt.Sprintf("d%d", len(f.docs)+1)
	cp := *d
	f.docs[d.ID] = &cp
	return nil
}

func (f *fakeDocumentRepo) GetByID(_ context.Context, id string) (*model.Document, error) {
	d, ok := f.docs[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDocumentRepo) ListByProject(_ context.Context, projectID string) ([]model.Document, error) {
	out := []model.Document{}
	for _, id := range sortedKeys(f.docs) {
		if f.docs[id].ProjectID == projectID {
			out = append(out, *f.docs[id])
		}
	}
	return out, nil
}

func (f *fakeDocumentRepo) IncrementViews(_ context.Context, id string) (int, error) {
	f.docs[id].Views++
	return f.docs[id].Views, nil
}

func (f *fakeDocumentRepo) UpdateStoragePath(_ context.Context, id, path string) error {
	f.docs[id].StoragePath = path
	return nil
}

func (f *fakeDocumentRepo) Delete(_ context.Context, id string) error {
	delete(f.docs, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeObjectStore struct {
	objects   map[string]bool
	deleted   []string
	deleteErr error
}

func (f *fakeObjectStore) PresignPut(_ context.Context, key, _ string) (string, error) {
	return "https://storage.test/put/" + key, nil
}

func (f *fakeObjectStore) PresignGet(_ context.Context, key string) (string, error) {
	return "https://storage.test/get/" + key, nil
}

func (f *fakeObjectStore) Exists(_ context.Context, key string) (bool, error) {
	return f.objects[key], nil
}

func (f *fakeObjectStore) Delete(_ context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, key)
	return nil
}

type fakeIntegrationRepo struct {
	rows map[string]*model.Integration // project|type
}

func (f *fakeIntegrationRepo) ListByProject(_ context.Context, projectID string) ([]model.Integration, error) {
	out := []model.Integration{}
	for _, k := range sortedKeys(f.rows) {
		if f.rows[k].ProjectID == projectID {
			out = append(out, *f.rows[k])
		}
	}
	return out, nil
}

func (f *fakeIntegrationRepo) Get(_ context.Context, projectID, kind string) (*model.Integration, error) {
	i, ok := f.rows[projectID+"|"+kind]
	if !ok {
		return nil, nil
	}
	cp := *i
	return &cp, nil
}

func (f *fakeIntegrationRepo) Upsert(_ context.Context, i *model.Integration) error {
	if f.rows == nil {
		f.rows = map[string]*model.Integration{}
	}
	cp := *i
	f.rows[i.ProjectID+"|"+i.Type] = &cp
	return nil
}

func (f *fakeIntegrationRepo) SetActive(_ context.Context, projectID, kind string, active bool) error {
	f.rows[projectID+"|"+kind].IsActive = active
	return nil
}

func (f *fakeIntegrationRepo) Delete(_ context.Context, projectID, kind string) error {
	delete(f.rows, projectID+"|"+kind)
	return nil
}

type fakeSecrets struct {
	values map[string]string
}

func (f *fakeSecrets) StoreSecret(_ context.Context, id, value string) error {
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[id] = value
	return nil
}

func (f *fakeSecrets) GetSecret(_ context.Context, id string) (string, error) {
	v, ok := f.values[id]
	if !ok {
		return "", errors.New("secret not found")
	}
	return v, nil
}

func (f *fakeSecrets) DeleteSecret(_ context.Context, id string) error {
	delete(f.values, id)
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	messages [][]byte
	attrs    []map[string]string
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, _ string, payload []byte, attrs map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.messages = append(f.messages, payload)
	f.attrs = append(f.attrs, attrs)
	return fmt.Sprintf("msg-%d", len(f.messages)), nil
}

type fakeQueue struct {
	mu   sync.Mutex
	sent [][]byte
	err  error
}

func (f *fakeQueue) Send(_ context.Context, _ string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, payload)
	return nil
}

type fakeAssistantRepo struct {
	messages []model.AssistantMessage
}

func (f *fakeAssistantRepo) CreateMessage(_ context.Context, m *model.AssistantMessage) error {
	m.CreatedAt = time.Now()
	f.messages = append(f.messages, *m)
	return nil
}

func (f *fakeAssistantRepo) ListMessages(_ context.Context, userID string, limit int) ([]model.AssistantMessage, error) {
	out := []model.AssistantMessage{}
	for _, m := range f.messages {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type fakeUserRepo struct {
	users map[string]*model.User
}

func (f *fakeUserRepo) UpsertUser(_ context.Context, u *model.User) error {
	if f.users == nil {
		f.users = map[string]*model.User{}
	}
	cp := *u
	f.users[u.UserID] = &cp
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
