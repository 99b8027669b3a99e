// ABOUTME: Feedback tool pack: the domain handlers exposed through the tool registry.
// ABOUTME: Read tools list/search/fetch items; write tools mutate them, all tenant-scoped.

package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quillboard/agentgate/internal/auth"
	"github.com/quillboard/agentgate/internal/protocol"
	"github.com/quillboard/agentgate/internal/store"
	"github.com/quillboard/agentgate/internal/tools"
)

// maxTitleLen caps feedback titles; longer submissions are rejected with a
// domain validation error.
const maxTitleLen = 200

// Register adds the feedback tools to the registry.
func Register(registry *tools.Registry, s store.FeedbackStore) error {
	h := &handlers{store: s}

	entries := []struct {
		def     tools.Definition
		handler tools.Handler
	}{
		{
			def: tools.Definition{
				Name:        "list_feedback",
				Description: "List feedback items for your organization, newest first. Optionally filter by status.",
				Scope:       auth.ScopeRead,
				Params: []tools.ParamSpec{
					{Name: "status", Type: tools.ParamString, Description: "Only return items with this status", Enum: store.FeedbackStatuses},
					{Name: "limit", Type: tools.ParamNumber, Description: "Maximum items to return", Minimum: tools.Float(1), Maximum: tools.Float(100), Default: float64(20)},
					{Name: "offset", Type: tools.ParamNumber, Description: "Items to skip for pagination", Minimum: tools.Float(0), Default: float64(0)},
				},
			},
			handler: h.list,
		},
		{
			def: tools.Definition{
				Name:        "get_feedback",
				Description: "Fetch a single feedback item with its comments.",
				Scope:       auth.ScopeRead,
				Params: []tools.ParamSpec{
					{Name: "feedback_id", Type: tools.ParamString, Description: "ID of the feedback item", Required: true},
				},
			},
			handler: h.get,
		},
		{
			def: tools.Definition{
				Name:        "search_feedback",
				Description: "Search feedback items by title and description text.",
				Scope:       auth.ScopeRead,
				Params: []tools.ParamSpec{
					{Name: "query", Type: tools.ParamString, Description: "Text to search for", Required: true},
					{Name: "limit", Type: tools.ParamNumber, Description: "Maximum items to return", Minimum: tools.Float(1), Maximum: tools.Float(100), Default: float64(20)},
				},
			},
			handler: h.search,
		},
		{
			def: tools.Definition{
				Name:        "submit_feedback",
				Description: "Create a new feedback item. New items start in the open status.",
				Scope:       auth.ScopeWrite,
				Params: []tools.ParamSpec{
					{Name: "title", Type: tools.ParamString, Description: "Short summary of the feedback", Required: true},
					{Name: "description", Type: tools.ParamString, Description: "Full feedback text", Default: ""},
				},
			},
			handler: h.submit,
		},
		{
			def: tools.Definition{
				Name:        "update_feedback_status",
				Description: "Move a feedback item to a new status.",
				Scope:       auth.ScopeWrite,
				Params: []tools.ParamSpec{
					{Name: "feedback_id", Type: tools.ParamString, Description: "ID of the feedback item", Required: true},
					{Name: "status", Type: tools.ParamString, Description: "New status", Required: true, Enum: store.FeedbackStatuses},
				},
			},
			handler: h.updateStatus,
		},
		{
			def: tools.Definition{
				Name:        "add_comment",
				Description: "Add a comment to a feedback item.",
				Scope:       auth.ScopeWrite,
				Params: []tools.ParamSpec{
					{Name: "feedback_id", Type: tools.ParamString, Description: "ID of the feedback item", Required: true},
					{Name: "body", Type: tools.ParamString, Description: "Comment text", Required: true},
					{Name: "author", Type: tools.ParamString, Description: "Display name for the comment author", Default: "agent"},
				},
			},
			handler: h.comment,
		},
		{
			def: tools.Definition{
				Name:        "vote_feedback",
				Description: "Add one vote to a feedback item.",
				Scope:       auth.ScopeWrite,
				Params: []tools.ParamSpec{
					{Name: "feedback_id", Type: tools.ParamString, Description: "ID of the feedback item", Required: true},
				},
			},
			handler: h.vote,
		},
	}

	for _, e := range entries {
		if err := registry.Register(e.def, e.handler); err != nil {
			return fmt.Errorf("registering %s: %w", e.def.Name, err)
		}
	}
	return nil
}

type handlers struct {
	store store.FeedbackStore
}

// itemPayload is the wire shape of a feedback item.
type itemPayload struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Votes       int    `json:"votes"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// commentPayload is the wire shape of a comment.
type commentPayload struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

func toItemPayload(item *store.FeedbackItem) itemPayload {
	return itemPayload{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		Status:      item.Status,
		Votes:       item.Votes,
		CreatedAt:   item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toItemPayloads(items []*store.FeedbackItem) []itemPayload {
	out := make([]itemPayload, len(items))
	for i, item := range items {
		out[i] = toItemPayload(item)
	}
	return out
}

// domainErr maps store errors to typed protocol errors. Anything
// unrecognized passes through for the dispatcher to wrap generically.
func domainErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return protocol.NewError(protocol.CodeNotFound, "feedback item not found")
	}
	return err
}

func (h *handlers) list(ctx context.Context, args map[string]any, ictx auth.Context) (any, error) {
	status, _ := args["status"].(string)
	limit, _ := args["limit"].(float64)
	offset, _ := args["offset"].(float64)

	items, err := h.store.ListFeedback(ctx, ictx.TenantID, store.FeedbackFilter{
		Status: status,
		Limit:  int(limit),
		Offset: int(offset),
	})
	if err != nil {
		return nil, domainErr(err)
	}

	return map[string]any{
		"items": toItemPayloads(items),
		"count": len(items),
	}, nil
}

func (h *handlers) get(ctx context.Context, args map[string]any, ictx auth.Context) (any, error) {
	id, _ := args["feedback_id"].(string)

	item, err := h.store.GetFeedback(ctx, ictx.TenantID, id)
	if err != nil {
		return nil, domainErr(err)
	}

	comments, err := h.store.ListComments(ctx, ictx.TenantID, id)
	if err != nil {
		return nil, domainErr(err)
	}

	payloads := make([]commentPayload, len(comments))
	for i, c := range comments {
		payloads[i] = commentPayload{
			ID:        c.ID,
			Author:    c.Author,
			Body:      c.Body,
			CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
		}
	}

	return map[string]any{
		"item":     toItemPayload(item),
		"comments": payloads,
	}, nil
}

func (h *handlers) search(ctx context.Context, args map[string]any, ictx auth.Context) (any, error) {
	query, _ := args["query"].(string)
	limit, _ := args["limit"].(float64)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, protocol.NewError(protocol.CodeValidationError, "search query must not be empty")
	}

	items, err := h.store.SearchFeedback(ctx, ictx.TenantID, query, int(limit))
	if err != nil {
		return nil, domainErr(err)
	}

	return map[string]any{
		"items": toItemPayloads(items),
		"count": len(items),
	}, nil
}

func (h *handlers) submit(ctx context.Context, args map[string]any, ictx auth.Context) (any, error) {
	title, _ := args["title"].(string)
	description, _ := args["description"].(string)

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, protocol.NewError(protocol.CodeValidationError, "title must not be empty")
	}
	if len(title) > maxTitleLen {
		return nil, protocol.NewErrorWithData(protocol.CodeValidationError,
			fmt.Sprintf("title must be at most %d characters", maxTitleLen),
			map[string]any{"max_length": maxTitleLen})
	}

	now := time.Now()
	item := &store.FeedbackItem{
		ID:          uuid.New().String(),
		TenantID:    ictx.TenantID,
		Title:       title,
		Description: description,
		Status:      store.FeedbackStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.store.CreateFeedback(ctx, item); err != nil {
		return nil, domainErr(err)
	}

	return map[string]any{"item": toItemPayload(item)}, nil
}

func (h *handlers) updateStatus(ctx context.Context, args map[string]any, ictx auth.Context) (any, error) {
	id, _ := args["feedback_id"].(string)
	status, _ := args["status"].(string)

	item, err := h.store.UpdateFeedbackStatus(ctx, ictx.TenantID, id, status)
	if err != nil {
		return nil, domainErr(err)
	}

	return map[string]any{"item": toItemPayload(item)}, nil
}

func (h *handlers) comment(ctx context.Context, args map[string]any, ictx auth.Context) (any, error) {
	id, _ := args["feedback_id"].(string)
	body, _ := args["body"].(string)
	author, _ := args["author"].(string)

	if strings.TrimSpace(body) == "" {
		return nil, protocol.NewError(protocol.CodeValidationError, "comment body must not be empty")
	}

	c := &store.Comment{
		ID:         uuid.New().String(),
		FeedbackID: id,
		TenantID:   ictx.TenantID,
		Author:     author,
		Body:       body,
		CreatedAt:  time.Now(),
	}

	if err := h.store.AddComment(ctx, c); err != nil {
		return nil, domainErr(err)
	}

	return map[string]any{
		"comment": commentPayload{
			ID:        c.ID,
			Author:    c.Author,
			Body:      c.Body,
			CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
		},
	}, nil
}

func (h *handlers) vote(ctx context.Context, args map[string]any, ictx auth.Context) (any, error) {
	id, _ := args["feedback_id"].(string)

	item, err := h.store.VoteFeedback(ctx, ictx.TenantID, id)
	if err != nil {
		return nil, domainErr(err)
	}

	return map[string]any{"item": toItemPayload(item)}, nil
}
