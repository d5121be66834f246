package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/xelth-com/wooassist/internal/tenant"
)

// ChatRequest is the body of POST /chat
type ChatRequest struct {
	Message        string `json:"message"`
	ClientKey      string `json:"clientKey"`
	ConversationID string `json:"conversationId"`
}

// ChatResponse is the reply to POST /chat
type ChatResponse struct {
	Reply          string         `json:"reply"`
	ConversationID string         `json:"conversationId"`
	Debug          map[string]any `json:"debug,omitempty"`
}

// postChat answers one message. Messages of one conversation are handled
// one at a time.
func (r *Router) postChat(w http.ResponseWriter, req *http.Request) {
	var body ChatRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	tc, ok := r.resolveTenant(w, req, body.ClientKey)
	if !ok {
		return
	}
	convID := strings.TrimSpace(body.ConversationID)
	if convID == "" {
		convID = uuid.NewString()
	}
	key := tenant.SessionKey(tc.ID, convID)

	unlock := r.Locks.Lock(key)
	reply := r.Chat.Handle(req.Context(), body.Message, key, tc)
	unlock()

	resp := ChatResponse{Reply: reply.Text, ConversationID: convID}
	if r.Debug {
		resp.Debug = reply.Debug
	}
	respondJSON(w, http.StatusOK, resp)
}

// deleteSession drops the conversation's wizard and history
func (r *Router) deleteSession(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	var body ChatRequest
	if req.ContentLength > 0 {
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	if body.ClientKey == "" {
		body.ClientKey = q.Get("clientKey")
	}
	if body.ConversationID == "" {
		body.ConversationID = q.Get("conversationId")
	}
	if strings.TrimSpace(body.ConversationID) == "" {
		respondError(w, http.StatusBadRequest, "conversationId is required")
		return
	}

	tc, ok := r.resolveTenant(w, req, body.ClientKey)
	if !ok {
		return
	}
	key := tenant.SessionKey(tc.ID, strings.TrimSpace(body.ConversationID))

	unlock := r.Locks.Lock(key)
	err := r.Chat.ClearSession(req.Context(), key)
	unlock()
	if err != nil {
		r.Log.Error("failed to clear session", "session", key, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to clear session")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":         "cleared",
		"conversationId": body.ConversationID,
	})
}
