//go:build integration

package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func dockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, "docker", "info").Run() == nil
}

// startMongo runs a throwaway mongod and returns a fresh database on it.
func startMongo(t *testing.T) *mongo.Database {
	t.Helper()
	if !dockerAvailable() {
		t.Skip("Skipping test: Docker not available")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	uri, err := container.PortEndpoint(ctx, "27017/tcp", "mongodb")
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	return client.Database("saviya_test")
}

func TestGroupRepositoryIntegration(t *testing.T) {
	db := startMongo(t)
	ctx := context.Background()
	repo := NewGroupRepository(db)
	require.NoError(t, repo.EnsureIndexes(ctx))

	owner := primitive.NewObjectID()
	g := &models.LearningGroup{
		Grade:      "10",
		Subject:    "maths",
		Topic:      "algebra",
		CreatedBy:  owner,
		Members:    []models.GroupMember{{UserID: owner, Role: models.GroupRoleOwner, JoinedAt: time.Now()}},
		MaxMembers: 50,
		Status:     models.GroupStatusActive,
	}
	require.NoError(t, repo.CreateGroup(ctx, g))
	assert.False(t, g.ID.IsZero())

	dup := *g
	dup.ID = primitive.NilObjectID
	assert.ErrorIs(t, repo.CreateGroup(ctx, &dup), ErrDuplicate)

	found, err := repo.FindByKey(ctx, "10", "maths", "algebra")
	require.NoError(t, err)
	assert.Equal(t, g.ID, found.ID)

	student := primitive.NewObjectID()
	members := append(found.Members, models.GroupMember{UserID: student, Role: models.GroupRoleMember, JoinedAt: time.Now()})
	require.NoError(t, repo.SaveMembers(ctx, g.ID, members))

	mine, err := repo.ListGroupsForMember(ctx, student)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.NotNil(t, mine[0].Member(student))

	require.NoError(t, repo.DeleteGroup(ctx, g.ID))
	_, err = repo.GetGroupByID(ctx, g.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNotificationRepositoryIntegration(t *testing.T) {
	db := startMongo(t)
	ctx := context.Background()
	repo := NewNotificationRepository(db)
	require.NoError(t, repo.EnsureIndexes(ctx))

	user := primitive.NewObjectID()
	fresh := &models.Notification{UserID: user, Type: "group_joined", Title: "t", Message: "m", Priority: "low"}
	require.NoError(t, repo.CreateNotification(ctx, fresh))

	stale := &models.Notification{UserID: user, Type: "group_joined", Title: "old", Message: "m", Priority: "low",
		CreatedAt: time.Now().Add(-2 * models.NotificationTTL)}
	require.NoError(t, repo.CreateNotification(ctx, stale))

	n, err := repo.CountUnread(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	read, err := repo.MarkAsRead(ctx, fresh.ID, user)
	require.NoError(t, err)
	assert.True(t, read.Read)

	_, err = repo.MarkAsRead(ctx, fresh.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)

	deleted, err := repo.DeleteExpiredNotifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	list, total, err := repo.ListForUser(ctx, user, models.NotificationFilter{}, models.NewPagination(1, 10, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, fresh.ID, list[0].ID)
}
