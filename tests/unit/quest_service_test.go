package unit

import (
	"testing"

	"github.com/calebmorris/questdesk/internal/database/repository"
	"github.com/calebmorris/questdesk/internal/models"
	"github.com/calebmorris/questdesk/internal/services"
	"github.com/calebmorris/questdesk/tests/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateQuest_Success(t *testing.T) {
	env := utils.NewTestEnv(t)

	quest, err := env.QuestService.CreateQuest(env.Ctx, models.NewQuest("Dragon Hunt", "dragon-hunt", "<p>Slay it</p>", 500))

	require.NoError(t, err)
	require.NotNil(t, quest)
	assert.Equal(t, models.QuestStatusDraft, quest.Status)

	stored, err := env.QuestService.GetQuestBySlug(env.Ctx, "dragon-hunt")
	require.NoError(t, err)
	assert.Equal(t, quest.ID, stored.ID)
}

func TestCreateQuest_DuplicateSlug(t *testing.T) {
	env := utils.NewTestEnv(t)

	env.CreateTestQuest("Dragon Hunt", "dragon-hunt")

	_, err := env.QuestService.CreateQuest(env.Ctx, models.NewQuest("Other", "dragon-hunt", "", 0))

	assert.Error(t, err)
	assert.Equal(t, services.ErrSlugAlreadyExists, err)
}

func TestCreateQuest_InvalidSlug(t *testing.T) {
	env := utils.NewTestEnv(t)

	_, err := env.QuestService.CreateQuest(env.Ctx, models.NewQuest("Bad", "Not A Slug!", "", 0))

	assert.Error(t, err)
	assert.Equal(t, services.ErrInvalidSlug, err)
}

func TestUpdateQuest_SlugConflict(t *testing.T) {
	env := utils.NewTestEnv(t)

	env.CreateTestQuest("First", "first")
	second := env.CreateTestQuest("Second", "second")

	second.Slug = "first"
	err := env.QuestService.UpdateQuest(env.Ctx, second)

	assert.Error(t, err)
	assert.Equal(t, services.ErrSlugAlreadyExists, err)
}

func TestSetQuestStatus(t *testing.T) {
	env := utils.NewTestEnv(t)

	quest := env.CreateTestQuest("Dragon Hunt", "dragon-hunt")

	updated, err := env.QuestService.SetQuestStatus(env.Ctx, quest.ID, models.QuestStatusActive)
	require.NoError(t, err)
	assert.Equal(t, models.QuestStatusActive, updated.Status)

	_, err = env.QuestService.SetQuestStatus(env.Ctx, quest.ID, "bogus")
	assert.Equal(t, services.ErrInvalidStatus, err)
}

func TestDeleteQuest_ThenNotFound(t *testing.T) {
	env := utils.NewTestEnv(t)

	quest := env.CreateTestQuest("Dragon Hunt", "dragon-hunt")

	require.NoError(t, env.QuestService.DeleteQuest(env.Ctx, quest.ID))

	_, err := env.QuestService.GetQuestByID(env.Ctx, quest.ID)
	assert.Equal(t, services.ErrQuestNotFound, err)
}

func TestListQuests_StatusFilter(t *testing.T) {
	env := utils.NewTestEnv(t)

	active := env.CreateTestQuest("Active Quest", "active-quest")
	env.CreateTestQuest("Draft Quest", "draft-quest")

	_, err := env.QuestService.SetQuestStatus(env.Ctx, active.ID, models.QuestStatusActive)
	require.NoError(t, err)

	quests, total, err := env.QuestService.ListQuests(env.Ctx, repository.QuestFilter{Status: models.QuestStatusActive}, 1, 10)

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, quests, 1)
	assert.Equal(t, active.ID, quests[0].ID)
}

func TestListQuests_TitleFilter(t *testing.T) {
	env := utils.NewTestEnv(t)

	env.CreateTestQuest("Dragon Hunt", "dragon-hunt")
	env.CreateTestQuest("Goblin Raid", "goblin-raid")

	quests, total, err := env.QuestService.ListQuests(env.Ctx, repository.QuestFilter{Title: "dragon"}, 1, 10)

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, quests, 1)
	assert.Equal(t, "Dragon Hunt", quests[0].Title)
}

func TestReplaceAllowedEmails_Success(t *testing.T) {
	env := utils.NewTestEnv(t)

	user := env.CreateTestUser("alice", false)
	quest := env.CreateTestQuest("Dragon Hunt", "dragon-hunt")

	err := env.QuestService.ReplaceAllowedEmails(env.Ctx, quest.ID, []string{user.Email})
	require.NoError(t, err)

	stored, err := env.QuestService.GetQuestByID(env.Ctx, quest.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{user.Email}, stored.AllowedEmails)
}

func TestReplaceAllowedEmails_UnknownEmail(t *testing.T) {
	env := utils.NewTestEnv(t)

	quest := env.CreateTestQuest("Dragon Hunt", "dragon-hunt")

	err := env.QuestService.ReplaceAllowedEmails(env.Ctx, quest.ID, []string{"stranger@example.com"})

	assert.Error(t, err)
	assert.Equal(t, services.ErrUnknownEmail, err)
}
