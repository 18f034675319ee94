package http

import (
	"agora/auth"
	"agora/domain"
	"agora/errors"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type createConversationRequest struct {
	MemberIDs []string `json:"memberIds" validate:"required,min=1,max=256,dive,required,max=128"`
	IsGroup   bool     `json:"isGroup"`
	Name      string   `json:"name" validate:"max=128"`
}

type appendMessageRequest struct {
	Content  string `json:"content" validate:"max=8000"`
	MediaRef string `json:"mediaRef" validate:"max=1024"`
}

type reactionRequest struct {
	Emoji string `json:"emoji" validate:"required,max=64"`
}

type preferencesRequest struct {
	Likes    *bool `json:"likes"`
	Comments *bool `json:"comments"`
	Follows  *bool `json:"follows"`
	Messages *bool `json:"messages"`
}

type notificationRequest struct {
	Recipient string                  `json:"recipient" validate:"required,max=128"`
	Actor     string                  `json:"actor" validate:"max=128"`
	Type      domain.NotificationType `json:"type" validate:"required,oneof=like comment follow mention message system tag gift"`
	Data      map[string]any          `json:"data"`
	Message   string                  `json:"message" validate:"max=1024"`
}

type mentionsRequest struct {
	AuthorID string         `json:"authorId" validate:"required,max=128"`
	Text     string         `json:"text" validate:"required,max=8000"`
	Data     map[string]any `json:"data"`
}

type identityRequest struct {
	Handle      string `json:"handle" validate:"required,max=32"`
	DisplayName string `json:"displayName" validate:"max=128"`
	AvatarRef   string `json:"avatarRef" validate:"max=1024"`
	Role        string `json:"role" validate:"max=32"`
	Banned      bool   `json:"banned"`
	Deactivated bool   `json:"deactivated"`
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ok"}
	if h.stats != nil {
		body["node"] = h.stats.Latest()
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handler) listConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.chat.ListConversations(r.Context(), requester(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": orEmpty(conversations)})
}

func (h *Handler) createConversation(w http.ResponseWriter, r *http.Request) {
	var body createConversationRequest
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	conversation, err := h.chat.CreateConversation(r.Context(), requester(r), body.MemberIDs, body.IsGroup, body.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, conversation)
}

func (h *Handler) getConversation(w http.ResponseWriter, r *http.Request) {
	before, err := beforeParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	conversation, err := h.chat.GetConversation(r.Context(), requester(r), chi.URLParam(r, "conversationID"), before)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conversation)
}

func (h *Handler) deleteConversation(w http.ResponseWriter, r *http.Request) {
	if err := h.chat.DeleteConversation(r.Context(), requester(r), chi.URLParam(r, "conversationID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) leaveConversation(w http.ResponseWriter, r *http.Request) {
	if err := h.chat.LeaveConversation(r.Context(), requester(r), chi.URLParam(r, "conversationID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) markConversationRead(w http.ResponseWriter, r *http.Request) {
	marked, err := h.chat.MarkRead(r.Context(), requester(r), chi.URLParam(r, "conversationID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messageIds": orEmpty(marked)})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	before, err := beforeParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	messages, err := h.chat.History(r.Context(), requester(r), chi.URLParam(r, "conversationID"), before)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": orEmpty(messages)})
}

func (h *Handler) appendMessage(w http.ResponseWriter, r *http.Request) {
	var body appendMessageRequest
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	message, err := h.chat.AppendMessage(r.Context(), requester(r), chi.URLParam(r, "conversationID"), body.Content, body.MediaRef)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, message)
}

func (h *Handler) unsend(w http.ResponseWriter, r *http.Request) {
	err := h.chat.Unsend(r.Context(), requester(r), chi.URLParam(r, "conversationID"), chi.URLParam(r, "messageID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) toggleReaction(w http.ResponseWriter, r *http.Request) {
	var body reactionRequest
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	change, err := h.chat.ToggleReaction(r.Context(), requester(r),
		chi.URLParam(r, "conversationID"), chi.URLParam(r, "messageID"), body.Emoji)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"change": change.String()})
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	before, err := beforeParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			h.writeError(w, r, fmt.Errorf("%w: limit", errors.ErrInvalidPayload))
			return
		}
	}
	notifications, err := h.notifications.List(r.Context(), requester(r), before, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": orEmpty(notifications)})
}

func (h *Handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.notifications.CountUnread(r.Context(), requester(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (h *Handler) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	marked, err := h.notifications.MarkAllRead(r.Context(), requester(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"marked": marked})
}

func (h *Handler) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notifications.MarkRead(r.Context(), requester(r), chi.URLParam(r, "notificationID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.notifications.Preferences(r.Context(), requester(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// updatePreferences changes only the switches present in the body.
func (h *Handler) updatePreferences(w http.ResponseWriter, r *http.Request) {
	var body preferencesRequest
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	prefs, err := h.notifications.Preferences(r.Context(), requester(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if body.Likes != nil {
		prefs.Likes = *body.Likes
	}
	if body.Comments != nil {
		prefs.Comments = *body.Comments
	}
	if body.Follows != nil {
		prefs.Follows = *body.Follows
	}
	if body.Messages != nil {
		prefs.Messages = *body.Messages
	}
	prefs, err = h.notifications.UpdatePreferences(r.Context(), prefs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (h *Handler) registerPushSubscription(w http.ResponseWriter, r *http.Request) {
	descriptor, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil || !json.Valid(descriptor) {
		h.writeError(w, r, errors.ErrInvalidPayload)
		return
	}
	subscription, err := h.notifications.RegisterPushSubscription(r.Context(), requester(r), descriptor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, subscription)
}

func (h *Handler) removePushSubscription(w http.ResponseWriter, r *http.Request) {
	if err := h.notifications.RemovePushSubscription(r.Context(), requester(r), chi.URLParam(r, "subscriptionID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ingestNotification(w http.ResponseWriter, r *http.Request) {
	var body notificationRequest
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	err := h.notifications.Generate(r.Context(), domain.NotificationRequest{
		Recipient: body.Recipient,
		Actor:     body.Actor,
		Type:      body.Type,
		Data:      body.Data,
		Message:   body.Message,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) ingestMentions(w http.ResponseWriter, r *http.Request) {
	var body mentionsRequest
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	notified := h.notifications.ProcessMentions(r.Context(), body.AuthorID, body.Text, body.Data)
	writeJSON(w, http.StatusOK, map[string]int{"notified": notified})
}

func (h *Handler) putIdentity(w http.ResponseWriter, r *http.Request) {
	var body identityRequest
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	err := h.identities.Put(r.Context(), domain.Identity{
		ID:          chi.URLParam(r, "identityID"),
		Handle:      body.Handle,
		DisplayName: body.DisplayName,
		AvatarRef:   body.AvatarRef,
		Role:        body.Role,
		Banned:      body.Banned,
		Deactivated: body.Deactivated,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) block(w http.ResponseWriter, r *http.Request) {
	err := h.identities.Block(r.Context(), chi.URLParam(r, "identityID"), chi.URLParam(r, "blockedID"), time.Now().UTC())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) unblock(w http.ResponseWriter, r *http.Request) {
	if err := h.identities.Unblock(r.Context(), chi.URLParam(r, "identityID"), chi.URLParam(r, "blockedID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requester is set by authMiddleware on every /v1 route.
func requester(r *http.Request) string {
	identity, _ := auth.IdentityFrom(r.Context())
	return identity.ID
}

func beforeParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("before")
	if raw == "" {
		return time.Time{}, nil
	}
	before, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: before must be RFC3339", errors.ErrInvalidPayload)
	}
	return before, nil
}

func decodeBody(r *http.Request, out any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("%w: invalid json body", errors.ErrInvalidPayload)
	}
	return auth.Validate(out)
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", "path", r.URL.Path, "error", err)
		message = http.StatusText(status)
	}
	writeJSON(w, status, map[string]errorBody{"error": {Code: errors.Code(err), Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
