package helpcenter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"

	"github.com/RobinCoderZhao/intercom-mcp/pkg/intercom"
)

func (s *Service) getArticle(ctx context.Context, args map[string]any) (any, error) {
	id := pathID(args)
	return s.api.Call(ctx, http.MethodGet, "/articles/"+id, nil)
}

func (s *Service) listArticles(ctx context.Context, args map[string]any) (any, error) {
	page := pageArg(args, "page", defaultPage, math.MaxInt32)
	perPage := pageArg(args, "per_page", defaultArticlesPerPage, maxArticlesPerPage)

	raw, err := s.api.Call(ctx, http.MethodGet, fmt.Sprintf("/articles?page=%d&per_page=%d", page, perPage), nil)
	if err != nil {
		return nil, err
	}
	logPage[intercom.Article](ctx, s.logger, "articles", raw)
	return raw, nil
}

func (s *Service) createArticle(ctx context.Context, args map[string]any) (any, error) {
	authorID, err := idArg(args, "author_id")
	if err != nil {
		return nil, err
	}

	payload := intercom.ArticleCreate{
		Title:             stringArg(args, "title"),
		Body:              stringArg(args, "body"),
		AuthorID:          authorID,
		Description:       stringArg(args, "description"),
		State:             intercom.ArticleState(stringArg(args, "state")),
		ParentID:          stringArg(args, "parent_id"),
		ParentType:        stringArg(args, "parent_type"),
		TranslatedContent: objectArg(args, "translated_content"),
	}

	if wantsMarkdown(args) {
		if payload.Body, err = s.renderMarkdown(payload.Body); err != nil {
			return nil, err
		}
		if payload.TranslatedContent, err = s.renderTranslations(payload.TranslatedContent); err != nil {
			return nil, err
		}
	}

	return s.api.Call(ctx, http.MethodPost, "/articles", payload)
}

func (s *Service) updateArticle(ctx context.Context, args map[string]any) (any, error) {
	id := pathID(args)
	authorID, err := idArg(args, "author_id")
	if err != nil {
		return nil, err
	}

	update := intercom.ArticleUpdate{
		Title:             stringArg(args, "title"),
		Body:              stringArg(args, "body"),
		Description:       stringArg(args, "description"),
		State:             intercom.ArticleState(stringArg(args, "state")),
		AuthorID:          authorID,
		TranslatedContent: objectArg(args, "translated_content"),
	}
	if update.Empty() {
		return nil, ErrEmptyUpdate
	}

	if wantsMarkdown(args) {
		if update.Body, err = s.renderMarkdown(update.Body); err != nil {
			return nil, err
		}
		if update.TranslatedContent, err = s.renderTranslations(update.TranslatedContent); err != nil {
			return nil, err
		}
	}

	return s.api.Call(ctx, http.MethodPut, "/articles/"+id, update)
}

// logPage logs the size of a list response at debug level. Responses that
// do not decode as a list are skipped; the raw body is returned regardless.
func logPage[T any](ctx context.Context, logger *slog.Logger, kind string, raw json.RawMessage) {
	if !logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	var list intercom.List[T]
	if err := json.Unmarshal(raw, &list); err != nil {
		return
	}
	attrs := []any{"kind", kind, "count", len(list.Data)}
	if list.Pages != nil {
		attrs = append(attrs, "page", list.Pages.Page, "total_pages", list.Pages.TotalPages)
	}
	logger.Debug("listed "+kind, attrs...)
}
