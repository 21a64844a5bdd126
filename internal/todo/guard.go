package todo

import "github.com/ovaphlow/pitchfork/service-todo-go/internal/todo/entity"

// scopeToOwner returns item only if ownerID owns it. A missing item and an
// item owned by someone else produce the same ErrNotFound so callers cannot
// probe for other users' ids.
func scopeToOwner(item *entity.TodoItem, ownerID string) (*entity.TodoItem, error) {
	if item == nil || ownerID == "" || item.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return item, nil
}
