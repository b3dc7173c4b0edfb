package bot

import (
	"context"
	"sync"
	"time"

	"github.com/kiranshivaraju/testopsbot/internal/monitor"
	"github.com/kiranshivaraju/testopsbot/internal/store"
	"github.com/kiranshivaraju/testopsbot/pkg/models"
)

// --- transport ---

type editCall struct {
	ChatID    int64
	MessageID int
	Msg       Message
}

type answerCall struct {
	CallbackID string
	Text       string
	Alert      bool
}

type fakeTransport struct {
	mu      sync.Mutex
	nextID  int
	sends   []Message
	edits   []editCall
	deletes []int
	answers []answerCall
	typing  int

	sendErr error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{nextID: 1000}
}

func (f *fakeTransport) Send(_ context.Context, msg Message) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, msg)
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.nextID++
	return f.nextID, nil
}

func (f *fakeTransport) Edit(_ context.Context, chatID int64, messageID int, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, editCall{ChatID: chatID, MessageID: messageID, Msg: msg})
	return nil
}

func (f *fakeTransport) Delete(_ context.Context, _ int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, messageID)
	return nil
}

func (f *fakeTransport) Answer(_ context.Context, callbackID, text string, alert bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, answerCall{CallbackID: callbackID, Text: text, Alert: alert})
	return nil
}

func (f *fakeTransport) Typing(context.Context, int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typing++
	return nil
}

func (f *fakeTransport) lastSend() Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sends) == 0 {
		return Message{}
	}
	return f.sends[len(f.sends)-1]
}

func (f *fakeTransport) lastEdit() editCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.edits) == 0 {
		return editCall{}
	}
	return f.edits[len(f.edits)-1]
}

func (f *fakeTransport) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends) + len(f.edits) + len(f.deletes) + len(f.answers)
}

// --- store ---

type fakeStore struct {
	mu       sync.Mutex
	allowed  map[string]bool
	projects map[int64]map[int64]string

	allowedErr error
	projectErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		allowed:  map[string]bool{},
		projects: map[int64]map[int64]string{},
	}
}

func (s *fakeStore) Ping(context.Context) error { return nil }

func (s *fakeStore) IsUserAllowed(_ context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.allowedErr != nil {
		return false, s.allowedErr
	}
	return s.allowed[username], nil
}

func (s *fakeStore) AddAllowedUser(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowed[username] = true
	return nil
}

func (s *fakeStore) RemoveAllowedUser(_ context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.allowed[username]
	delete(s.allowed, username)
	return ok, nil
}

func (s *fakeStore) ListAllowedUsers(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []string{}
	for u := range s.allowed {
		out = append(out, u)
	}
	return out, nil
}

func (s *fakeStore) GetUserProjects(_ context.Context, userID int64) ([]*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.projectErr != nil {
		return nil, s.projectErr
	}
	out := []*models.Project{}
	for pid, name := range s.projects[userID] {
		out = append(out, &models.Project{UserID: userID, ProjectID: pid, ProjectName: name})
	}
	return out, nil
}

func (s *fakeStore) FindProject(_ context.Context, userID, projectID int64) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.projectErr != nil {
		return nil, s.projectErr
	}
	name, ok := s.projects[userID][projectID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &models.Project{UserID: userID, ProjectID: projectID, ProjectName: name}, nil
}

func (s *fakeStore) AddProject(_ context.Context, userID, projectID int64, projectName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[userID][projectID]; ok {
		return store.ErrDuplicateProject
	}
	if s.projects[userID] == nil {
		s.projects[userID] = map[int64]string{}
	}
	s.projects[userID][projectID] = projectName
	return nil
}

func (s *fakeStore) DeleteProject(_ context.Context, userID, projectID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[userID][projectID]; !ok {
		return false, nil
	}
	delete(s.projects[userID], projectID)
	return true, nil
}

var _ store.Store = (*fakeStore)(nil)

// --- watcher and counter ---

type fakeWatcher struct {
	mu      sync.Mutex
	watched []monitor.Descriptor
}

func (w *fakeWatcher) Watch(d monitor.Descriptor) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watched = append(w.watched, d)
	return nil
}

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	keys   []string
	err    error
}

func (c *fakeCounter) IncrWithExpiry(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	if c.counts == nil {
		c.counts = map[string]int64{}
	}
	c.counts[key]++
	c.keys = append(c.keys, key)
	return c.counts[key], nil
}
