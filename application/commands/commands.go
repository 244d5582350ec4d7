// Package commands contains command objects for operations that generate or
// change graphs. Each command validates its own input; the command bus calls
// Validate before dispatching, so handlers can trust what they receive.
package commands

import (
	"strings"

	"topicgraph/domain/graph"
	apperrors "topicgraph/pkg/errors"
	"topicgraph/pkg/utils"
)

// Layout carries the optional presentation fields shared by commands
type Layout struct {
	Direction string `json:"direction,omitempty" validate:"omitempty,oneof=LR TB lr tb"`
	View      string `json:"view,omitempty" validate:"omitempty,oneof=2d 3d 2D 3D"`
}

// GenerateGraphCommand asks for a new fragment about a topic. BaseGraph is
// the caller's working graph, if any; the fragment is then positioned
// within it and kept from reusing its ids.
type GenerateGraphCommand struct {
	Topic     string       `json:"topic" validate:"required"`
	BaseGraph *graph.Graph `json:"baseGraph,omitempty"`
	Layout
}

// Validate checks the command
func (c GenerateGraphCommand) Validate() error {
	if strings.TrimSpace(c.Topic) == "" {
		return apperrors.NewValidationError("topic is required")
	}
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}
	if c.BaseGraph != nil {
		if err := c.BaseGraph.Validate(); err != nil {
			return apperrors.NewValidationError("baseGraph is invalid: " + err.Error())
		}
	}
	return nil
}

// ExpandNodeCommand asks for new nodes around a node of a client-held graph
type ExpandNodeCommand struct {
	FullGraph      *graph.Graph `json:"fullGraph" validate:"required"`
	SelectedNodeID string       `json:"selectedNodeId" validate:"required"`
	Layout
}

// Validate checks the command. The graph is parsed strictly: every node
// needs an id and ids must be unique.
func (c ExpandNodeCommand) Validate() error {
	if c.FullGraph == nil {
		return apperrors.NewValidationError("fullGraph is required")
	}
	if strings.TrimSpace(c.SelectedNodeID) == "" {
		return apperrors.NewValidationError("selectedNodeId is required")
	}
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}
	if err := c.FullGraph.Validate(); err != nil {
		return apperrors.NewValidationError("fullGraph is invalid: " + err.Error())
	}
	return nil
}

// CreateWorkspaceCommand creates a server-side working graph, generating
// its first fragment when a topic is given
type CreateWorkspaceCommand struct {
	Topic string `json:"topic,omitempty"`
	Layout
}

// Validate checks the command
func (c CreateWorkspaceCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// ExpandWorkspaceCommand expands a node of a stored workspace. Version must
// match the stored version unless it is zero.
type ExpandWorkspaceCommand struct {
	WorkspaceID string `json:"workspaceId" validate:"required"`
	NodeID      string `json:"nodeId" validate:"required"`
	Version     int64  `json:"version" validate:"gte=0"`
	Layout
}

// Validate checks the command
func (c ExpandWorkspaceCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DeleteWorkspaceNodeCommand removes a node and every edge touching it
type DeleteWorkspaceNodeCommand struct {
	WorkspaceID string `json:"workspaceId" validate:"required"`
	NodeID      string `json:"nodeId" validate:"required"`
	Version     int64  `json:"version" validate:"gte=0"`
}

// Validate checks the command
func (c DeleteWorkspaceNodeCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// LoadIntoWorkspaceCommand merges the stored graph into a workspace
type LoadIntoWorkspaceCommand struct {
	WorkspaceID string `json:"workspaceId" validate:"required"`
	Version     int64  `json:"version" validate:"gte=0"`
	Layout
}

// Validate checks the command
func (c LoadIntoWorkspaceCommand) Validate() error {
	return utils.ValidateStruct(c)
}
