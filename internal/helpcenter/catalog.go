// Package helpcenter exposes Intercom Help Center articles and collections
// as MCP tools.
//
// The catalog below is the single source for every tool: its name, the
// schema advertised by tools/list, and the handler. Required arguments and
// enums are enforced from the schema by mcpserver before a handler runs.
package helpcenter

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/RobinCoderZhao/intercom-mcp/pkg/intercom"
	"github.com/RobinCoderZhao/intercom-mcp/pkg/mcpserver"
)

const (
	CategoryArticles    = "Articles"
	CategoryCollections = "Collections"
)

// Caller issues one request against the Intercom API.
type Caller interface {
	Call(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error)
}

// Service implements the Help Center tools on top of a Caller.
type Service struct {
	api    Caller
	logger *slog.Logger
	md     goldmark.Markdown
}

// NewService creates a Service. A nil logger uses slog.Default().
func NewService(api Caller, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		api:    api,
		logger: logger,
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

type handlerFunc func(s *Service, ctx context.Context, args map[string]any) (any, error)

// Tool is one catalog entry bound to a Service.
type Tool struct {
	mcpserver.BaseTool
	svc    *Service
	handle handlerFunc
}

// Execute runs the handler and renders its result as pretty-printed JSON.
func (t *Tool) Execute(ctx context.Context, args map[string]any) (*mcpserver.ToolCallResult, error) {
	data, err := t.handle(t.svc, ctx, args)
	if err != nil {
		return nil, err
	}
	return mcpserver.SuccessResult(data), nil
}

// Tools returns the catalog in advertised order.
func (s *Service) Tools() []*Tool {
	tools := make([]*Tool, 0, len(catalog))
	for _, entry := range catalog {
		tools = append(tools, &Tool{
			BaseTool: mcpserver.BaseTool{
				ToolName:        entry.name,
				ToolDescription: entry.description,
				ToolSchema:      entry.schema,
				Category:        entry.category,
			},
			svc:    s,
			handle: entry.handle,
		})
	}
	return tools
}

// Register adds every catalog tool to srv.
func (s *Service) Register(srv *mcpserver.Server) {
	for _, t := range s.Tools() {
		srv.RegisterTool(t)
	}
}

type catalogEntry struct {
	name        string
	category    string
	description string
	schema      *mcpserver.Schema
	handle      handlerFunc
}

var catalog = []catalogEntry{
	{
		name:        "get_article",
		category:    CategoryArticles,
		description: "Get a single Intercom article by ID. Returns full article details including title, body, author, and state.",
		schema: requiredMessage(object(props{
			"id": str(`The article ID (e.g., "123456")`),
		}, "id"), articleIDRequired),
		handle: (*Service).getArticle,
	},
	{
		name:        "list_articles",
		category:    CategoryArticles,
		description: "List Intercom articles with pagination. Returns a list of articles with basic information.",
		schema: object(props{
			"page":     numDefault("Page number (default: 1)", defaultPage),
			"per_page": numDefault("Number of articles per page (default: 10, max: 50)", defaultArticlesPerPage),
		}),
		handle: (*Service).listArticles,
	},
	{
		name:        "create_article",
		category:    CategoryArticles,
		description: "Create a new Intercom Help Center article. Supports multilingual content and draft/published states.",
		schema: requiredMessage(object(props{
			"title":       str("Article title (required)"),
			"body":        str("Article content in HTML format, or Markdown when body_format is markdown (required)"),
			"author_id":   num("Author ID - must be a valid Intercom team member ID (required)"),
			"description": str("Article description (optional)"),
			"state":       enum("Article state (optional, default: draft)", articleStates...),
			"parent_id":   str("Parent ID - collection or section ID (optional)"),
			"parent_type": enum("Parent type (optional, default: collection)", "collection"),
			"body_format": bodyFormat,
			"translated_content": translations(
				`Multilingual content. Key is locale code (e.g., "zh-TW"), value is translation object`,
				object(props{
					"title":       str("Translated title"),
					"body":        str("Translated content in HTML"),
					"description": str("Translated description"),
					"author_id":   num("Author ID for translation"),
					"state":       enum("Translation state", articleStates...),
				}, "title", "body", "author_id"),
			),
		}, "title", "body", "author_id"), "title, body, and author_id are required fields"),
		handle: (*Service).createArticle,
	},
	{
		name:        "update_article",
		category:    CategoryArticles,
		description: "Update an existing Intercom Help Center article. Supports partial updates and multilingual content. Empty values are ignored, so a field cannot be cleared.",
		schema: requiredMessage(object(props{
			"id":          str("Article ID (required)"),
			"title":       str("Updated article title (optional)"),
			"body":        str("Updated article content in HTML format, or Markdown when body_format is markdown (optional)"),
			"description": str("Updated article description (optional)"),
			"state":       enum("Updated article state (optional)", articleStates...),
			"author_id":   num("Updated author ID (optional)"),
			"body_format": bodyFormat,
			"translated_content": translations(
				"Updated multilingual content. Only provided fields will be updated.",
				object(props{
					"title":       str("Updated translated title"),
					"body":        str("Updated translated content in HTML"),
					"description": str("Updated translated description"),
					"state":       enum("Updated translation state", articleStates...),
				}),
			),
		}, "id"), articleIDRequired),
		handle: (*Service).updateArticle,
	},
	{
		name:        "list_collections",
		category:    CategoryCollections,
		description: "List all Intercom Help Center collections. Collections are top-level categories that contain sections and articles.",
		schema: object(props{
			"page":     numDefault("Page number (default: 1)", defaultPage),
			"per_page": numDefault("Number of collections per page (default: 50, max: 150)", defaultCollectionsPerPage),
		}),
		handle: (*Service).listCollections,
	},
	{
		name:        "get_collection",
		category:    CategoryCollections,
		description: "Get a single Intercom Help Center collection by ID. Returns full collection details including name, description, and metadata.",
		schema: requiredMessage(object(props{
			"id": str(`The collection ID (e.g., "123456")`),
		}, "id"), collectionIDRequired),
		handle: (*Service).getCollection,
	},
	{
		name:        "update_collection",
		category:    CategoryCollections,
		description: "Update an existing Intercom Help Center collection. Supports updating name, description, and multilingual translations. Any field that is provided is sent, including empty strings and null.",
		schema: requiredMessage(object(props{
			"id":          str("Collection ID (required)"),
			"name":        str("Updated collection name (optional, updates default language)"),
			"description": str("Updated collection description (optional, updates default language)"),
			"parent_id":   str("Updated parent collection ID (optional, null for top-level)"),
			"translated_content": translations(
				`Updated multilingual content. Key is locale code (e.g., "zh-TW"), value is translation object`,
				object(props{
					"name":        str("Translated collection name"),
					"description": str("Translated collection description"),
				}),
			),
		}, "id"), collectionIDRequired),
		handle: (*Service).updateCollection,
	},
	{
		name:        "delete_collection",
		category:    CategoryCollections,
		description: "Delete an Intercom Help Center collection. WARNING: This action cannot be undone. The collection and all its contents will be permanently removed.",
		schema: requiredMessage(object(props{
			"id": str("Collection ID to delete (required)"),
		}, "id"), collectionIDRequired),
		handle: (*Service).deleteCollection,
	},
}

var articleStates = []string{string(intercom.StateDraft), string(intercom.StatePublished)}

const (
	articleIDRequired    = "Article ID is required"
	collectionIDRequired = "Collection ID is required"
)

var bodyFormat = enum("Format of body and translated bodies (optional, default: html). Markdown is rendered to HTML before sending.",
	bodyFormatHTML, bodyFormatMarkdown)

// Schema builders

type props = map[string]*mcpserver.Schema

func object(properties props, required ...string) *mcpserver.Schema {
	return &mcpserver.Schema{Type: "object", Properties: properties, Required: required}
}

func requiredMessage(s *mcpserver.Schema, msg string) *mcpserver.Schema {
	s.RequiredMessage = msg
	return s
}

func str(desc string) *mcpserver.Schema {
	return &mcpserver.Schema{Type: "string", Description: desc}
}

func num(desc string) *mcpserver.Schema {
	return &mcpserver.Schema{Type: "number", Description: desc}
}

func numDefault(desc string, def int) *mcpserver.Schema {
	return &mcpserver.Schema{Type: "number", Description: desc, Default: def}
}

func enum(desc string, values ...string) *mcpserver.Schema {
	return &mcpserver.Schema{Type: "string", Description: desc, Enum: values}
}

func translations(desc string, entry *mcpserver.Schema) *mcpserver.Schema {
	return &mcpserver.Schema{Type: "object", Description: desc, AdditionalProperties: entry}
}
