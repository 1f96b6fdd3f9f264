package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jon4hz/taskbox/internal/config"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type DatabaseTestSuite struct {
	suite.Suite
	ctx context.Context
	db  *Client
}

func (s *DatabaseTestSuite) SetupTest() {
	s.ctx = context.Background()

	db, err := New(&config.DatabaseConfig{
		Driver: config.DatabaseDriverSQLite,
		Path:   filepath.Join(s.T().TempDir(), "data", "taskbox.db"),
	})
	s.Require().NoError(err)
	s.db = db
}

func (s *DatabaseTestSuite) TearDownTest() {
	if s.db != nil {
		s.NoError(s.db.Close())
	}
}

func (s *DatabaseTestSuite) createUser(username string) *User {
	user := &User{Username: username, PasswordHash: "hash"}
	s.Require().NoError(s.db.CreateUser(s.ctx, user))
	s.Require().NotZero(user.ID)
	return user
}

func (s *DatabaseTestSuite) createTask(userID uint, content string, created time.Time) *Task {
	task := &Task{
		UserID:      userID,
		Content:     content,
		CreatedDate: NewNullTime(created),
		Status:      TaskStatusUpcoming,
	}
	s.Require().NoError(s.db.CreateTask(s.ctx, task))
	return task
}

func (s *DatabaseTestSuite) TestPing() {
	s.NoError(s.db.Ping(s.ctx))
}

func (s *DatabaseTestSuite) TestCreateUser_Defaults() {
	user := s.createUser("alice")

	got, err := s.db.GetUserByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal("alice", got.Username)
	s.False(got.Preferences.DarkMode)
	s.Empty(got.Email)
}

func (s *DatabaseTestSuite) TestCreateUser_DuplicateUsername() {
	s.createUser("alice")

	err := s.db.CreateUser(s.ctx, &User{Username: "alice"})
	s.ErrorIs(err, gorm.ErrDuplicatedKey)

	count, err := s.db.CountUsers(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(1, count)
}

func (s *DatabaseTestSuite) TestGetUserByUsername_NotFound() {
	_, err := s.db.GetUserByUsername(s.ctx, "nobody")
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *DatabaseTestSuite) TestGetOrCreateSSOUser() {
	created, err := s.db.GetOrCreateSSOUser(s.ctx, "sub-bob", "bob", "bob@example.com")
	s.Require().NoError(err)
	s.Empty(created.PasswordHash)
	s.Require().NotNil(created.OIDCSubject)
	s.Equal("sub-bob", *created.OIDCSubject)

	// a renamed identity keeps its account
	again, err := s.db.GetOrCreateSSOUser(s.ctx, "sub-bob", "robert", "new@example.com")
	s.Require().NoError(err)
	s.Equal(created.ID, again.ID)

	stored, err := s.db.GetUserByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("bob", stored.Username)
	s.Equal("new@example.com", stored.Email)
}

func (s *DatabaseTestSuite) TestGetOrCreateSSOUser_LocalAccountIsNotAdopted() {
	local := s.createUser("alice")

	_, err := s.db.GetOrCreateSSOUser(s.ctx, "sub-mallory", "alice", "mallory@example.com")
	s.ErrorIs(err, ErrUsernameTaken)

	stored, err := s.db.GetUserByID(s.ctx, local.ID)
	s.Require().NoError(err)
	s.Empty(stored.Email)
	s.Nil(stored.OIDCSubject)
}

func (s *DatabaseTestSuite) TestGetOrCreateSSOUser_OtherSubjectIsNotAdopted() {
	_, err := s.db.GetOrCreateSSOUser(s.ctx, "sub-1", "carol", "")
	s.Require().NoError(err)

	_, err = s.db.GetOrCreateSSOUser(s.ctx, "sub-2", "carol", "")
	s.ErrorIs(err, ErrUsernameTaken)
}

func (s *DatabaseTestSuite) TestGetOrCreateSSOUser_AdoptsUnlinkedPasswordlessAccount() {
	user := &User{Username: "dave"}
	s.Require().NoError(s.db.CreateUser(s.ctx, user))

	linked, err := s.db.GetOrCreateSSOUser(s.ctx, "sub-dave", "dave", "dave@example.com")
	s.Require().NoError(err)
	s.Equal(user.ID, linked.ID)

	again, err := s.db.GetOrCreateSSOUser(s.ctx, "sub-dave", "dave", "")
	s.Require().NoError(err)
	s.Equal(user.ID, again.ID)
	s.Equal("dave@example.com", again.Email)
}

func (s *DatabaseTestSuite) TestToggleUserDarkMode() {
	user := s.createUser("alice")

	prefs, err := s.db.ToggleUserDarkMode(s.ctx, user.ID)
	s.Require().NoError(err)
	s.True(prefs.DarkMode)

	prefs, err = s.db.ToggleUserDarkMode(s.ctx, user.ID)
	s.Require().NoError(err)
	s.False(prefs.DarkMode)

	_, err = s.db.ToggleUserDarkMode(s.ctx, user.ID+100)
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *DatabaseTestSuite) TestUpdateUserPreferences() {
	user := s.createUser("alice")

	s.Require().NoError(s.db.UpdateUserPreferences(s.ctx, user.ID, Preferences{DarkMode: true}))
	got, err := s.db.GetUserByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.True(got.Preferences.DarkMode)

	s.ErrorIs(s.db.UpdateUserPreferences(s.ctx, user.ID+100, Preferences{}), gorm.ErrRecordNotFound)
}

func (s *DatabaseTestSuite) TestTaskOwnershipScoping() {
	alice := s.createUser("alice")
	bob := s.createUser("bob")
	task := s.createTask(alice.ID, "Buy milk", time.Now())

	_, err := s.db.GetTaskByID(s.ctx, task.ID, bob.ID)
	s.ErrorIs(err, gorm.ErrRecordNotFound)

	updated, err := s.db.UpdateTask(s.ctx, &Task{ID: task.ID, UserID: bob.ID, Content: "hijacked", Status: TaskStatusCompleted})
	s.Require().NoError(err)
	s.False(updated)

	deleted, err := s.db.DeleteTask(s.ctx, task.ID, bob.ID)
	s.Require().NoError(err)
	s.False(deleted)

	got, err := s.db.GetTaskByID(s.ctx, task.ID, alice.ID)
	s.Require().NoError(err)
	s.Equal("Buy milk", got.Content)
	s.Equal(TaskStatusUpcoming, got.Status)

	deleted, err = s.db.DeleteTask(s.ctx, task.ID, alice.ID)
	s.Require().NoError(err)
	s.True(deleted)
}

func (s *DatabaseTestSuite) TestGetTasksByUserID_NewestFirst() {
	user := s.createUser("alice")
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.createTask(user.ID, "old", base)
	s.createTask(user.ID, "new", base.Add(time.Hour))
	s.createTask(user.ID, "middle", base.Add(time.Minute))

	tasks, err := s.db.GetTasksByUserID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Require().Len(tasks, 3)
	s.Equal("new", tasks[0].Content)
	s.Equal("middle", tasks[1].Content)
	s.Equal("old", tasks[2].Content)
	s.True(tasks[0].CreatedDate.Time.Equal(base.Add(time.Hour)))
}

func (s *DatabaseTestSuite) TestMalformedDatesReadAsAbsent() {
	user := s.createUser("alice")
	task := s.createTask(user.ID, "legacy", time.Now())

	s.Require().NoError(s.db.db.Exec("UPDATE tasks SET due_date = ?, created_date = ? WHERE id = ?", "next tuesday", "", task.ID).Error)

	got, err := s.db.GetTaskByID(s.ctx, task.ID, user.ID)
	s.Require().NoError(err)
	s.False(got.DueDate.Valid)
	s.False(got.CreatedDate.Valid)
}

func (s *DatabaseTestSuite) TestDeleteUserCascadesTasks() {
	user := s.createUser("alice")
	s.createTask(user.ID, "a", time.Now())
	s.createTask(user.ID, "b", time.Now())

	s.Require().NoError(s.db.DeleteUser(s.ctx, user.ID))

	tasks, err := s.db.GetTasksByUserID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Empty(tasks)
	s.ErrorIs(s.db.DeleteUser(s.ctx, user.ID), gorm.ErrRecordNotFound)
}

func (s *DatabaseTestSuite) TestTransactionRollback() {
	user := s.createUser("alice")
	s.createTask(user.ID, "a", time.Now())

	err := s.db.Transaction(s.ctx, func(tx DB) error {
		n, err := tx.DeleteTasksByUserID(s.ctx, user.ID)
		s.Require().NoError(err)
		s.EqualValues(1, n)
		return gorm.ErrInvalidTransaction
	})
	s.ErrorIs(err, gorm.ErrInvalidTransaction)

	tasks, err := s.db.GetTasksByUserID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Len(tasks, 1)
}

func (s *DatabaseTestSuite) TestCountTasksByStatus() {
	user := s.createUser("alice")
	s.createTask(user.ID, "a", time.Now())
	done := s.createTask(user.ID, "b", time.Now())
	done.Status = TaskStatusCompleted
	ok, err := s.db.UpdateTask(s.ctx, done)
	s.Require().NoError(err)
	s.True(ok)

	counts, err := s.db.CountTasksByStatus(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(1, counts[TaskStatusUpcoming])
	s.EqualValues(0, counts[TaskStatusInProcess])
	s.EqualValues(1, counts[TaskStatusCompleted])
}

func TestDatabaseTestSuite(t *testing.T) {
	suite.Run(t, new(DatabaseTestSuite))
}
