package intercom

import "encoding/json"

// ArticleState is the publication state of an article.
type ArticleState string

const (
	StateDraft     ArticleState = "draft"
	StatePublished ArticleState = "published"
)

// Article is a Help Center article as returned by the API.
type Article struct {
	ID                string                     `json:"id"`
	Title             string                     `json:"title"`
	Body              string                     `json:"body,omitempty"`
	Description       string                     `json:"description,omitempty"`
	AuthorID          int64                      `json:"author_id"`
	State             ArticleState               `json:"state"`
	CreatedAt         int64                      `json:"created_at"`
	UpdatedAt         int64                      `json:"updated_at"`
	TranslatedContent map[string]json.RawMessage `json:"translated_content,omitempty"`
}

// Collection is a top-level Help Center category.
type Collection struct {
	ID                string                     `json:"id"`
	WorkspaceID       string                     `json:"workspace_id"`
	Name              string                     `json:"name"`
	Description       string                     `json:"description,omitempty"`
	ParentID          *string                    `json:"parent_id,omitempty"`
	CreatedAt         int64                      `json:"created_at"`
	UpdatedAt         int64                      `json:"updated_at"`
	URL               string                     `json:"url,omitempty"`
	Icon              string                     `json:"icon,omitempty"`
	Order             int                        `json:"order,omitempty"`
	DefaultLocale     string                     `json:"default_locale,omitempty"`
	TranslatedContent map[string]json.RawMessage `json:"translated_content,omitempty"`
}

// Pages is the pagination block of a list response.
type Pages struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

// List is the envelope of list endpoints.
type List[T any] struct {
	Type  string `json:"type"`
	Data  []T    `json:"data"`
	Pages *Pages `json:"pages,omitempty"`
}

// ArticleCreate is the body of POST /articles. Optional fields are only
// sent when non-empty.
type ArticleCreate struct {
	Title             string         `json:"title"`
	Body              string         `json:"body"`
	AuthorID          int64          `json:"author_id"`
	Description       string         `json:"description,omitempty"`
	State             ArticleState   `json:"state,omitempty"`
	ParentID          string         `json:"parent_id,omitempty"`
	ParentType        string         `json:"parent_type,omitempty"`
	TranslatedContent map[string]any `json:"translated_content,omitzero"`
}

// ArticleUpdate is the body of PUT /articles/{id}. Empty fields are left
// untouched upstream, so an article field cannot be cleared to "".
type ArticleUpdate struct {
	Title             string         `json:"title,omitempty"`
	Body              string         `json:"body,omitempty"`
	Description       string         `json:"description,omitempty"`
	State             ArticleState   `json:"state,omitempty"`
	AuthorID          int64          `json:"author_id,omitempty"`
	TranslatedContent map[string]any `json:"translated_content,omitzero"`
}

// Empty reports whether the update carries no fields.
func (u ArticleUpdate) Empty() bool {
	return u.Title == "" && u.Body == "" && u.Description == "" &&
		u.State == "" && u.AuthorID == 0 && u.TranslatedContent == nil
}

// CollectionUpdate is the body of PUT /help_center/collections/{id}.
// Every field that was supplied is sent, including "" and null.
type CollectionUpdate struct {
	Name              Optional[*string]        `json:"name,omitzero"`
	Description       Optional[*string]        `json:"description,omitzero"`
	ParentID          Optional[*string]        `json:"parent_id,omitzero"`
	TranslatedContent Optional[map[string]any] `json:"translated_content,omitzero"`
}

// Empty reports whether the update carries no fields.
func (u CollectionUpdate) Empty() bool {
	return !u.Name.Set && !u.Description.Set && !u.ParentID.Set && !u.TranslatedContent.Set
}

// Optional marks whether a field was supplied, independently of its value.
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some returns a supplied Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// IsZero lets `omitzero` drop fields that were never supplied.
func (o Optional[T]) IsZero() bool { return !o.Set }

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Value)
}
