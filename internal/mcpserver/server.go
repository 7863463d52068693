// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Docuflow catalog tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/docuflow/internal/apperr"
	"github.com/starford/docuflow/internal/filter"
	"github.com/starford/docuflow/internal/organizer"
)

// CatalogFormatURI names the catalog contract resource.
const CatalogFormatURI = "docuflow://catalog-format"

// Server wraps the MCP server with Docuflow tools.
type Server struct {
	mcp  *server.MCPServer
	sess *organizer.Session
}

// New creates a new MCP server with all Docuflow tools registered.
func New(sess *organizer.Session, version string) *Server {
	s := &Server{sess: sess}

	s.mcp = server.NewMCPServer(
		"Docuflow",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List documents, newest first. Optionally filter by category id "+
			"and a case-insensitive name substring."),
		mcp.WithString("category", mcp.Description("Category id, or \"all\" (default)")),
		mcp.WithString("query", mcp.Description("Substring to match against document names")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("create_document",
		mcp.WithDescription("Record a new document. Only metadata is stored; the type is "+
			"always pdf and the size 1.2 MB."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Document name, usually a filename")),
		mcp.WithString("category_id", mcp.Description("Category id (defaults to the first category)")),
	), s.createDocument)

	s.mcp.AddTool(mcp.NewTool("delete_document",
		mcp.WithDescription("Delete a document by id. Deletion is permanent and requires confirm=true."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithBoolean("confirm", mcp.Description("Must be true to actually delete")),
	), s.deleteDocument)

	s.mcp.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List all categories in display order."),
	), s.listCategories)

	s.mcp.AddTool(mcp.NewTool("create_category",
		mcp.WithDescription("Create a category. Names need not be unique."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Category name")),
		mcp.WithString("color", mcp.Required(), mcp.Description("Hex color such as #3b82f6")),
	), s.createCategory)

	s.mcp.AddTool(mcp.NewTool("get_catalog_contract",
		mcp.WithDescription("Returns the Docuflow catalog format contract. "+
			"Call this to learn the document and category fields."),
	), s.getCatalogContract)

	// Resource: catalog format contract.
	s.mcp.AddResource(
		mcp.NewResource(CatalogFormatURI, "Catalog Format Contract",
			mcp.WithResourceDescription("Shape of the persisted documents and categories."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCatalogFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

// actionError turns an organizer error into a tool error. Validation
// messages are passed through as the user would have seen them.
func actionError(p *organizer.Scripted, err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrInvalid) && len(p.Notices) > 0 {
		return mcp.NewToolResultError(strings.Join(p.Notices, "; "))
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", filter.All)
	if category == "" {
		category = filter.All
	}
	docs := filter.Apply(s.sess.Store().Documents(), category, req.GetString("query", ""))
	return jsonResult(docs), nil
}

func (s *Server) createDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	categoryID := req.GetString("category_id", "")
	if categoryID != "" {
		if _, ok := s.sess.Store().Category(categoryID); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown category: %s", categoryID)), nil
		}
	}

	p := &organizer.Scripted{}
	doc, err := s.sess.AddDocument(name, categoryID, p)
	if err != nil {
		return actionError(p, err), nil
	}
	return jsonResult(doc), nil
}

func (s *Server) deleteDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p := &organizer.Scripted{Answer: req.GetBool("confirm", false)}
	removed, err := s.sess.DeleteDocument(id, p)
	if err != nil {
		return actionError(p, err), nil
	}
	if !p.Answer {
		return mcp.NewToolResultError(organizer.MsgConfirmDelete + " Call again with confirm=true."), nil
	}
	if !removed {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) listCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.sess.Store().Categories()), nil
}

func (s *Server) createCategory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := &organizer.Scripted{}
	cat, err := s.sess.AddCategory(req.GetString("name", ""), req.GetString("color", ""), p)
	if err != nil {
		return actionError(p, err), nil
	}
	return jsonResult(cat), nil
}

func (s *Server) getCatalogContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(CatalogFormatContract), nil
}

func (s *Server) readCatalogFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      CatalogFormatURI,
			MIMEType: "text/markdown",
			Text:     CatalogFormatContract,
		},
	}, nil
}
