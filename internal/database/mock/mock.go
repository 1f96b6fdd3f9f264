package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/jon4hz/taskbox/internal/database"
	"gorm.io/gorm"
)

var _ database.DB = (*MockDB)(nil)

// MockDB is a mock implementation of database.DB for testing.
type MockDB struct {
	mu sync.RWMutex

	// User storage
	users      map[uint]*database.User
	nextUserID uint

	// Task storage
	tasks      map[uint]*database.Task
	nextTaskID uint

	// Error simulation
	CreateUserError            error
	GetUserByIDError           error
	GetUserByUsernameError     error
	UpdateUserPreferencesError error
	DeleteUserError            error
	CreateTaskError            error
	GetTasksByUserIDError      error
	GetTaskByIDError           error
	UpdateTaskError            error
	DeleteTaskError            error
	DeleteTasksByUserIDError   error
	PingError                  error
}

// NewMockDB creates a new MockDB instance.
func NewMockDB() *MockDB {
	return &MockDB{
		users:      make(map[uint]*database.User),
		nextUserID: 1,
		tasks:      make(map[uint]*database.Task),
		nextTaskID: 1,
	}
}

// Reset clears all data and errors from the mock database.
func (m *MockDB) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users = make(map[uint]*database.User)
	m.nextUserID = 1
	m.tasks = make(map[uint]*database.Task)
	m.nextTaskID = 1

	m.CreateUserError = nil
	m.GetUserByIDError = nil
	m.GetUserByUsernameError = nil
	m.UpdateUserPreferencesError = nil
	m.DeleteUserError = nil
	m.CreateTaskError = nil
	m.GetTasksByUserIDError = nil
	m.GetTaskByIDError = nil
	m.UpdateTaskError = nil
	m.DeleteTaskError = nil
	m.DeleteTasksByUserIDError = nil
	m.PingError = nil
}

// Transaction runs fn against the mock itself. Nothing is rolled back.
func (m *MockDB) Transaction(ctx context.Context, fn func(tx database.DB) error) error {
	return fn(m)
}

func (m *MockDB) Ping(ctx context.Context) error {
	return m.PingError
}

func (m *MockDB) Close() error {
	return nil
}

// User operations

func (m *MockDB) CreateUser(ctx context.Context, user *database.User) error {
	if m.CreateUserError != nil {
		return m.CreateUserError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}

	user.ID = m.nextUserID
	m.nextUserID++
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *MockDB) GetUserByID(ctx context.Context, id uint) (*database.User, error) {
	if m.GetUserByIDError != nil {
		return nil, m.GetUserByIDError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	u := *user
	return &u, nil
}

func (m *MockDB) GetUserByUsername(ctx context.Context, username string) (*database.User, error) {
	if m.GetUserByUsernameError != nil {
		return nil, m.GetUserByUsernameError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Username == username {
			u := *user
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockDB) GetOrCreateSSOUser(ctx context.Context, subject, username, email string) (*database.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var byName *database.User
	for _, u := range m.users {
		if u.OIDCSubject != nil && *u.OIDCSubject == subject {
			if email != "" {
				u.Email = email
			}
			user := *u
			return &user, nil
		}
		if u.Username == username {
			byName = u
		}
	}

	if byName != nil {
		if byName.PasswordHash != "" || byName.OIDCSubject != nil {
			return nil, database.ErrUsernameTaken
		}
		byName.OIDCSubject = &subject
		if email != "" {
			byName.Email = email
		}
		user := *byName
		return &user, nil
	}

	user := &database.User{ID: m.nextUserID, Username: username, Email: email, OIDCSubject: &subject}
	m.nextUserID++
	stored := *user
	m.users[user.ID] = &stored
	return user, nil
}

func (m *MockDB) UpdateUserPreferences(ctx context.Context, id uint, prefs database.Preferences) error {
	if m.UpdateUserPreferencesError != nil {
		return m.UpdateUserPreferencesError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.Preferences = prefs
	return nil
}

func (m *MockDB) ToggleUserDarkMode(ctx context.Context, id uint) (database.Preferences, error) {
	if m.UpdateUserPreferencesError != nil {
		return database.Preferences{}, m.UpdateUserPreferencesError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return database.Preferences{}, gorm.ErrRecordNotFound
	}
	user.Preferences.DarkMode = !user.Preferences.DarkMode
	return user.Preferences, nil
}

func (m *MockDB) DeleteUser(ctx context.Context, id uint) error {
	if m.DeleteUserError != nil {
		return m.DeleteUserError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *MockDB) CountUsers(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.users)), nil
}

// Task operations

func (m *MockDB) CreateTask(ctx context.Context, task *database.Task) error {
	if m.CreateTaskError != nil {
		return m.CreateTaskError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	task.ID = m.nextTaskID
	m.nextTaskID++
	stored := *task
	m.tasks[task.ID] = &stored
	return nil
}

func (m *MockDB) GetTasksByUserID(ctx context.Context, userID uint) ([]database.Task, error) {
	if m.GetTasksByUserIDError != nil {
		return nil, m.GetTasksByUserIDError
	}

	return m.filterTasks(func(t *database.Task) bool {
		return t.UserID == userID
	}), nil
}

func (m *MockDB) GetTaskByID(ctx context.Context, id, userID uint) (*database.Task, error) {
	if m.GetTaskByIDError != nil {
		return nil, m.GetTaskByIDError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	task, ok := m.tasks[id]
	if !ok || task.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	t := *task
	return &t, nil
}

func (m *MockDB) UpdateTask(ctx context.Context, task *database.Task) (bool, error) {
	if m.UpdateTaskError != nil {
		return false, m.UpdateTaskError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.tasks[task.ID]
	if !ok || stored.UserID != task.UserID {
		return false, nil
	}
	stored.Content = task.Content
	stored.Category = task.Category
	stored.DueDate = task.DueDate
	stored.Status = task.Status
	return true, nil
}

func (m *MockDB) DeleteTask(ctx context.Context, id, userID uint) (bool, error) {
	if m.DeleteTaskError != nil {
		return false, m.DeleteTaskError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok || task.UserID != userID {
		return false, nil
	}
	delete(m.tasks, id)
	return true, nil
}

func (m *MockDB) DeleteTasksByUserID(ctx context.Context, userID uint) (int64, error) {
	if m.DeleteTasksByUserIDError != nil {
		return 0, m.DeleteTasksByUserIDError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, task := range m.tasks {
		if task.UserID == userID {
			delete(m.tasks, id)
			n++
		}
	}
	return n, nil
}

func (m *MockDB) CountTasksByStatus(ctx context.Context) (map[database.TaskStatus]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[database.TaskStatus]int64)
	for _, s := range database.TaskStatuses {
		counts[s] = 0
	}
	for _, task := range m.tasks {
		counts[task.Status]++
	}
	return counts, nil
}

// filterTasks returns copies of the matching tasks, newest first.
func (m *MockDB) filterTasks(match func(*database.Task) bool) []database.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var tasks []database.Task
	for _, task := range m.tasks {
		if match(task) {
			tasks = append(tasks, *task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedDate.Time.Equal(tasks[j].CreatedDate.Time) {
			return tasks[i].CreatedDate.Time.After(tasks[j].CreatedDate.Time)
		}
		return tasks[i].ID > tasks[j].ID
	})
	return tasks
}
