package annotator

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/annotator/kit"
)

// RegisterMCP registers the annotator tools on an MCP server. Every call
// goes through kit.Logging.
func (c *Controller) RegisterMCP(srv *mcp.Server) {
	c.registerListTool(srv)
	c.registerAnnotateTool(srv)
	c.registerEditTool(srv)
	c.registerDeleteTool(srv)
	c.registerExportTool(srv)
	c.registerInspectTool(srv)
	c.registerMeasureTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func (c *Controller) register(srv *mcp.Server, tool *mcp.Tool, endpoint kit.Endpoint, decode func(*mcp.CallToolRequest) (*kit.MCPDecodeResult, error)) {
	kit.RegisterMCPTool(srv, tool, kit.Logging(c.logger, tool.Name)(endpoint), decode)
}

var (
	selectorProp = map[string]any{"type": "string", "description": "CSS selector of the element"}
	commentProp  = map[string]any{"type": "string", "description": "Annotation text"}
	idProp       = map[string]any{"type": "string", "description": "Annotation id"}
	xProp        = map[string]any{"type": "number", "description": "Viewport x in CSS px"}
	yProp        = map[string]any{"type": "number", "description": "Viewport y in CSS px"}
)

// --- list ---

func (c *Controller) registerListTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "annotator_list",
		Description: "List the annotations of the current page in creation order.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	endpoint := func(_ context.Context, _ any) (any, error) {
		return map[string]any{"annotations": c.Annotations()}, nil
	}
	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{}, nil
	}
	c.register(srv, tool, endpoint, decode)
}

// --- annotate ---

type annotateReq struct {
	Selector string   `json:"selector"`
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	Comment  string   `json:"comment"`
}

func (c *Controller) registerAnnotateTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "annotator_annotate",
		Description: "Attach a comment to an element, addressed by CSS selector or by viewport point.",
		InputSchema: inputSchema(map[string]any{
			"selector": selectorProp,
			"x":        xProp,
			"y":        yProp,
			"comment":  commentProp,
		}, []string{"comment"}),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*annotateReq)
		if r.Selector == "" && r.X != nil && r.Y != nil {
			in, err := c.Inspect(*r.X, *r.Y)
			if err != nil {
				return nil, err
			}
			r.Selector = in.Selector
		}
		return c.CreateAt(ctx, r.Selector, r.Comment)
	}
	c.register(srv, tool, endpoint, kit.DecodeJSON[annotateReq])
}

// --- edit ---

type editReq struct {
	ID      string `json:"id"`
	Comment string `json:"comment"`
}

func (c *Controller) registerEditTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "annotator_edit",
		Description: "Replace the comment of an annotation.",
		InputSchema: inputSchema(map[string]any{"id": idProp, "comment": commentProp}, []string{"id", "comment"}),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*editReq)
		return c.Edit(ctx, r.ID, r.Comment)
	}
	c.register(srv, tool, endpoint, kit.DecodeJSON[editReq])
}

// --- delete ---

type deleteReq struct {
	ID  string `json:"id"`
	All bool   `json:"all"`
}

func (c *Controller) registerDeleteTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "annotator_delete",
		Description: "Delete one annotation by id, or all of them with all=true.",
		InputSchema: inputSchema(map[string]any{
			"id":  idProp,
			"all": map[string]any{"type": "boolean", "description": "Delete every annotation of the page"},
		}, nil),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*deleteReq)
		if r.All {
			c.ClearAll(ctx)
			return map[string]any{"deleted": "all"}, nil
		}
		if err := c.Delete(ctx, r.ID); err != nil {
			return nil, err
		}
		return map[string]any{"deleted": r.ID}, nil
	}
	c.register(srv, tool, endpoint, kit.DecodeJSON[deleteReq])
}

// --- export ---

type exportReq struct {
	Format string `json:"format"`
}

func (c *Controller) registerExportTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "annotator_export",
		Description: "Export the annotations as a markdown review document or a JSON payload.",
		InputSchema: inputSchema(map[string]any{
			"format": map[string]any{"type": "string", "enum": []string{"markdown", "json"}, "description": "Output format (default markdown)"},
		}, nil),
	}
	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*exportReq)
		if r.Format == "" {
			r.Format = "markdown"
		}
		b, err := c.Export(r.Format)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	c.register(srv, tool, endpoint, kit.DecodeJSON[exportReq])
}

// --- inspect ---

type pointReq struct {
	Selector string  `json:"selector"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

func (c *Controller) registerInspectTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "annotator_inspect",
		Description: "Describe an element: locator, display path, box model, spacing to neighbours, tracked styles and typography.",
		InputSchema: inputSchema(map[string]any{"selector": selectorProp, "x": xProp, "y": yProp}, nil),
	}
	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*pointReq)
		if r.Selector != "" {
			return c.InspectSelector(r.Selector)
		}
		return c.Inspect(r.X, r.Y)
	}
	c.register(srv, tool, endpoint, kit.DecodeJSON[pointReq])
}

// --- measure ---

func (c *Controller) registerMeasureTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "annotator_measure",
		Description: "Measure the painted region around a viewport point (crosshair) and the box model and distances of the element under it.",
		InputSchema: inputSchema(map[string]any{"x": xProp, "y": yProp}, []string{"x", "y"}),
	}
	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*pointReq)
		return c.Measure(r.X, r.Y), nil
	}
	c.register(srv, tool, endpoint, kit.DecodeJSON[pointReq])
}
