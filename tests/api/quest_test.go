package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateQuestEndpoint(t *testing.T) {
	router, env := setupTestRouter(t)

	user := env.CreateTestUser("alice", false)
	token := env.AccessTokenFor(user)

	w := doJSON(router, "POST", "/api/v1/quests", token, map[string]interface{}{
		"title":       "Dragon Hunt",
		"slug":        "dragon-hunt",
		"description": "<p>Slay the dragon</p>",
		"reward":      500,
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	envelope := decodeEnvelope(t, w)
	assert.True(t, envelope.Success)

	quest := envelope.Data.(map[string]interface{})
	assert.Equal(t, "Dragon Hunt", quest["title"])
	assert.Equal(t, "dragon-hunt", quest["slug"])
	assert.Equal(t, "draft", quest["status"])
	assert.NotEmpty(t, quest["id"])
}

func TestCreateQuestEndpoint_RequiresAuth(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doJSON(router, "POST", "/api/v1/quests", "", map[string]interface{}{
		"title": "Dragon Hunt",
		"slug":  "dragon-hunt",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	envelope := decodeEnvelope(t, w)
	assert.False(t, envelope.Success)
	assert.Equal(t, http.StatusUnauthorized, envelope.Code)
}

func TestCreateQuestEndpoint_DuplicateSlug(t *testing.T) {
	router, env := setupTestRouter(t)

	user := env.CreateTestUser("alice", false)
	token := env.AccessTokenFor(user)
	env.CreateTestQuest("Dragon Hunt", "dragon-hunt")

	w := doJSON(router, "POST", "/api/v1/quests", token, map[string]interface{}{
		"title": "Another Hunt",
		"slug":  "dragon-hunt",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, decodeEnvelope(t, w).Success)
}

func TestGetQuestEndpoint(t *testing.T) {
	router, env := setupTestRouter(t)

	user := env.CreateTestUser("alice", false)
	token := env.AccessTokenFor(user)
	quest := env.CreateTestQuest("Dragon Hunt", "dragon-hunt")

	w := doJSON(router, "GET", "/api/v1/quests/"+quest.ID.String(), token, nil)

	assert.Equal(t, http.StatusOK, w.Code)

	data := decodeEnvelope(t, w).Data.(map[string]interface{})
	assert.Equal(t, quest.ID.String(), data["id"])
	assert.Equal(t, "Dragon Hunt", data["title"])
}

func TestGetQuestEndpoint_NotFound(t *testing.T) {
	router, env := setupTestRouter(t)

	user := env.CreateTestUser("alice", false)
	token := env.AccessTokenFor(user)

	w := doJSON(router, "GET", "/api/v1/quests/00000000-0000-0000-0000-000000000000", token, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateQuestEndpoint(t *testing.T) {
	router, env := setupTestRouter(t)

	user := env.CreateTestUser("alice", false)
	token := env.AccessTokenFor(user)
	quest := env.CreateTestQuest("Dragon Hunt", "dragon-hunt")

	w := doJSON(router, "PUT", "/api/v1/quests/"+quest.ID.String(), token, map[string]interface{}{
		"title":  "Dragon Hunt II",
		"slug":   "dragon-hunt",
		"reward": 750,
		"status": "active",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	data := decodeEnvelope(t, w).Data.(map[string]interface{})
	assert.Equal(t, "Dragon Hunt II", data["title"])
	assert.Equal(t, "active", data["status"])
	assert.Equal(t, float64(750), data["reward"])
}

func TestUpdateQuestEndpoint_InvalidStatus(t *testing.T) {
	router, env := setupTestRouter(t)

	user := env.CreateTestUser("alice", false)
	token := env.AccessTokenFor(user)
	quest := env.CreateTestQuest("Dragon Hunt", "dragon-hunt")

	w := doJSON(router, "PUT", "/api/v1/quests/"+quest.ID.String(), token, map[string]interface{}{
		"title":  "Dragon Hunt",
		"slug":   "dragon-hunt",
		"status": "finished",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteQuestEndpoint(t *testing.T) {
	router, env := setupTestRouter(t)

	user := env.CreateTestUser("alice", false)
	token := env.AccessTokenFor(user)
	quest := env.CreateTestQuest("Dragon Hunt", "dragon-hunt")

	w := doJSON(router, "DELETE", "/api/v1/quests/"+quest.ID.String(), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Deleted quests are no longer retrievable
	w = doJSON(router, "GET", "/api/v1/quests/"+quest.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListQuestsEndpoint(t *testing.T) {
	router, env := setupTestRouter(t)

	user := env.CreateTestUser("alice", false)
	token := env.AccessTokenFor(user)
	env.CreateTestQuest("Dragon Hunt", "dragon-hunt")
	env.CreateTestQuest("Goblin Patrol", "goblin-patrol")

	w := doJSON(router, "GET", "/api/v1/quests?page=1&page_size=10", token, nil)

	assert.Equal(t, http.StatusOK, w.Code)

	data := decodeEnvelope(t, w).Data.(map[string]interface{})
	assert.Equal(t, float64(2), data["total_count"])
	assert.Len(t, data["quests"], 2)
}

func TestListQuestsEndpoint_FilterByStatus(t *testing.T) {
	router, env := setupTestRouter(t)

	user := env.CreateTestUser("alice", false)
	token := env.AccessTokenFor(user)
	env.CreateTestQuest("Dragon Hunt", "dragon-hunt")
	active := env.CreateTestQuest("Goblin Patrol", "goblin-patrol")

	_, err := env.QuestService.SetQuestStatus(env.Ctx, active.ID, "active")
	require.NoError(t, err)

	w := doJSON(router, "GET", "/api/v1/quests?status=active", token, nil)

	assert.Equal(t, http.StatusOK, w.Code)

	data := decodeEnvelope(t, w).Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["total_count"])
}

func TestReplaceAllowedEmailsEndpoint(t *testing.T) {
	router, env := setupTestRouter(t)

	user := env.CreateTestUser("alice", false)
	env.CreateTestUser("bob", false)
	token := env.AccessTokenFor(user)
	quest := env.CreateTestQuest("Dragon Hunt", "dragon-hunt")

	w := doJSON(router, "PUT", "/api/v1/quests/"+quest.ID.String()+"/allowed-emails", token, map[string]interface{}{
		"emails": []string{"bob@example.com"},
	})

	assert.Equal(t, http.StatusOK, w.Code)

	// The allow-list is attached when the quest is fetched
	w = doJSON(router, "GET", "/api/v1/quests/"+quest.ID.String(), token, nil)
	data := decodeEnvelope(t, w).Data.(map[string]interface{})
	assert.Equal(t, []interface{}{"bob@example.com"}, data["allowed_emails"])
}

func TestReplaceAllowedEmailsEndpoint_UnknownEmail(t *testing.T) {
	router, env := setupTestRouter(t)

	user := env.CreateTestUser("alice", false)
	token := env.AccessTokenFor(user)
	quest := env.CreateTestQuest("Dragon Hunt", "dragon-hunt")

	w := doJSON(router, "PUT", "/api/v1/quests/"+quest.ID.String()+"/allowed-emails", token, map[string]interface{}{
		"emails": []string{"stranger@example.com"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
