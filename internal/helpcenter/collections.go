package helpcenter

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/RobinCoderZhao/intercom-mcp/pkg/intercom"
)

func (s *Service) listCollections(ctx context.Context, args map[string]any) (any, error) {
	page := pageArg(args, "page", defaultPage, math.MaxInt32)
	perPage := pageArg(args, "per_page", defaultCollectionsPerPage, maxCollectionsPerPage)

	raw, err := s.api.Call(ctx, http.MethodGet, fmt.Sprintf("/help_center/collections?page=%d&per_page=%d", page, perPage), nil)
	if err != nil {
		return nil, err
	}
	logPage[intercom.Collection](ctx, s.logger, "collections", raw)
	return raw, nil
}

func (s *Service) getCollection(ctx context.Context, args map[string]any) (any, error) {
	id := pathID(args)
	return s.api.Call(ctx, http.MethodGet, "/help_center/collections/"+id, nil)
}

// updateCollection sends every field present in args, unlike updateArticle
// which drops empty values.
func (s *Service) updateCollection(ctx context.Context, args map[string]any) (any, error) {
	id := pathID(args)

	update := intercom.CollectionUpdate{
		Name:              presentString(args, "name"),
		Description:       presentString(args, "description"),
		ParentID:          presentString(args, "parent_id"),
		TranslatedContent: presentObject(args, "translated_content"),
	}
	if update.Empty() {
		return nil, ErrEmptyUpdate
	}

	return s.api.Call(ctx, http.MethodPut, "/help_center/collections/"+id, update)
}

func (s *Service) deleteCollection(ctx context.Context, args map[string]any) (any, error) {
	id := pathID(args)

	raw, err := s.api.Call(ctx, http.MethodDelete, "/help_center/collections/"+id, nil)
	if err != nil {
		return nil, err
	}

	result := map[string]any{
		"success": true,
		"message": fmt.Sprintf("Collection %s has been deleted successfully", stringArg(args, "id")),
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err == nil {
		for k, v := range fields {
			result[k] = v
		}
	}
	return result, nil
}
