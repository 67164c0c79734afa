package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/core/automation"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/model"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/config"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/database"
	"github.com/derril-tech/ai-powered-project-management-tool/internal/repository"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	db          *gorm.DB
	teams       repository.TeamRepository
	users       repository.UserRepository
	projects    repository.ProjectRepository
	sprints     repository.SprintRepository
	tasks       repository.TaskRepository
	automations repository.AutomationRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	return &testEnv{
		db:          db,
		teams:       repository.NewTeamRepository(db),
		users:       repository.NewUserRepository(db),
		projects:    repository.NewProjectRepository(db),
		sprints:     repository.NewSprintRepository(db),
		tasks:       repository.NewTaskRepository(db),
		automations: repository.NewAutomationRepository(db),
	}
}

func setupJWT(t *testing.T) {
	t.Helper()
	prev := config.GlobalConfig
	config.GlobalConfig = &config.Config{
		Auth: config.AuthConfig{
			JWT: config.JWTConfig{
				Secret:             "service-test-secret",
				Algorithm:          "HS256",
				AccessTokenExpire:  1800,
				RefreshTokenExpire: 3600,
			},
		},
	}
	t.Cleanup(func() { config.GlobalConfig = prev })
}

type seeded struct {
	team    *model.Team
	owner   *model.User
	project *model.Project
}

func (e *testEnv) seed(t *testing.T) *seeded {
	t.Helper()
	team := &model.Team{Name: "Core"}
	require.NoError(t, e.teams.Create(team))
	owner := &model.User{Email: "owner@example.com", Name: "Owner", HashedPassword: "x", Role: model.UserRoleOwner, TeamID: team.ID, IsActive: true}
	require.NoError(t, e.users.Create(owner))
	project := &model.Project{Name: "Apollo", Status: model.ProjectStatusActive, OwnerID: owner.ID, TeamID: team.ID}
	require.NoError(t, e.projects.Create(project))
	return &seeded{team: team, owner: owner, project: project}
}

func (e *testEnv) addUser(t *testing.T, teamID, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, Name: email, HashedPassword: "x", Role: model.UserRoleContributor, TeamID: teamID, IsActive: true}
	require.NoError(t, e.users.Create(user))
	return user
}

// recordingDispatcher 记录分发的事件
type recordingDispatcher struct {
	mu     sync.Mutex
	events []automation.Event
}

func (r *recordingDispatcher) Dispatch(_ context.Context, ev automation.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingDispatcher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func nopLogger() *zap.Logger {
	return zap.NewNop()
}

func strPtr(s string) *string {
	return &s
}

func intPtr(i int) *int {
	return &i
}

func boolPtr(b bool) *bool {
	return &b
}
