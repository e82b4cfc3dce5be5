package repository

import (
	"testing"

	"github.com/Dias221467/Saviya_Learn/internal/database"
	"github.com/stretchr/testify/assert"
)

// Every repository is handed to database.EnsureAll at startup.
var (
	_ database.Indexer = (*UserRepository)(nil)
	_ database.Indexer = (*TokenRepository)(nil)
	_ database.Indexer = (*GroupRepository)(nil)
	_ database.Indexer = (*SessionRepository)(nil)
	_ database.Indexer = (*NotificationRepository)(nil)
	_ database.Indexer = (*PreferencesRepository)(nil)
	_ database.Indexer = (*ChatRepository)(nil)
	_ database.Indexer = (*ResourceRepository)(nil)
	_ database.Indexer = (*ResourceGroupRepository)(nil)
	_ database.Indexer = (*ResourceRequestRepository)(nil)
	_ database.Indexer = (*ReportRepository)(nil)
	_ database.Indexer = (*FeedbackRepository)(nil)
	_ database.Indexer = (*ActivityRepository)(nil)
)

func TestRepositoriesOwnIndexes(t *testing.T) {
	indexers := []database.Indexer{
		&UserRepository{}, &TokenRepository{}, &GroupRepository{}, &SessionRepository{},
		&NotificationRepository{}, &PreferencesRepository{}, &ChatRepository{}, &ResourceRepository{},
		&ResourceGroupRepository{}, &ResourceRequestRepository{}, &ReportRepository{},
		&FeedbackRepository{}, &ActivityRepository{},
	}
	assert.Len(t, indexers, 13)
}
