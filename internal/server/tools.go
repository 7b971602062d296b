package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
	"github.com/VeganGarden/MyGarden-sub002/internal/engine"
	"github.com/VeganGarden/MyGarden-sub002/internal/factor"
	"github.com/VeganGarden/MyGarden-sub002/internal/validation"
)

// Tool names.
const (
	ToolCalculate   = "calculate_menu_item_carbon"
	ToolRecalculate = "recalculate_menu_items"
	ToolFactors     = "get_carbon_factors"
)

type toolHandler func(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error)

// RecalculateParams are the arguments of recalculate_menu_items.
type RecalculateParams struct {
	RestaurantID string   `json:"restaurantId" description:"Restaurant whose menu items are recalculated"`
	MenuItemIDs  []string `json:"menuItemIds,omitempty" description:"Only these menu items; all when empty"`
}

// FactorsParams are the arguments of get_carbon_factors.
type FactorsParams struct {
	Items  []factor.LookupItem `json:"items" description:"Ingredients to look up, each with name and optional category"`
	Region string              `json:"region" description:"Factor region code, e.g. CN-East"`
}

func (s *Server) registerTools() {
	s.handlers = map[string]toolHandler{
		ToolCalculate:   s.handleCalculate,
		ToolRecalculate: s.handleRecalculate,
		ToolFactors:     s.handleFactors,
	}
}

// Names returns the registered tool names.
func (s *Server) Names() []string {
	return []string{ToolCalculate, ToolRecalculate, ToolFactors}
}

// extractParams converts the request arguments into target.
func extractParams(req *protocol.CallToolRequest, target any) error {
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("failed to marshal arguments: %w", err)
	}
	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("%w: %v", carbon.ErrInvalidRequest, err)
	}
	return nil
}

func (s *Server) handleCalculate(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	raw, err := json.Marshal(req.Arguments)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal arguments: %w", err)
	}
	request, err := validation.DecodeRequest(raw)
	if err != nil {
		return createJSONResponse(invalid[*engine.Data](err))
	}
	return createJSONResponse(s.tools.CalculateMenuItemCarbon(ctx, request))
}

func (s *Server) handleRecalculate(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params RecalculateParams
	if err := extractParams(req, &params); err != nil {
		return createJSONResponse(invalid[*carbon.BatchSummary](err))
	}
	return createJSONResponse(s.tools.RecalculateMenuItems(ctx, params.RestaurantID, params.MenuItemIDs))
}

func (s *Server) handleFactors(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params FactorsParams
	if err := extractParams(req, &params); err != nil {
		return createJSONResponse(invalid[[]factor.LookupRecord](err))
	}
	return createJSONResponse(s.tools.GetCarbonFactors(ctx, params.Items, params.Region))
}

func invalid[T any](err error) engine.Response[T] {
	return engine.Response[T]{Code: engine.CodeInvalid, Message: "invalid request", Error: err.Error()}
}

func createJSONResponse[T any](resp engine.Response[T]) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
		IsError: !resp.OK(),
	}, nil
}
