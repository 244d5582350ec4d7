package events

import (
	"time"

	"topicgraph/domain/graph"
)

// Source identifies this service on the event bus
const Source = "topicgraph.api"

// Event type names
const (
	TypeGraphGenerated = "graph.generated"
	TypeGraphExpanded  = "graph.expanded"
	TypeNodeDeleted    = "node.deleted"
	TypeGraphPersisted = "graph.persisted"
)

// DomainEvent is the base interface for all domain events
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int64
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int64     `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int64       { return e.Version }

// GraphGenerated is raised when a topic produced a new fragment
type GraphGenerated struct {
	BaseEvent
	Topic string      `json:"topic"`
	Stats graph.Stats `json:"stats"`
}

// NewGraphGenerated creates a GraphGenerated event. aggregateID is the
// workspace id, or the topic for stateless calls.
func NewGraphGenerated(aggregateID, topic string, stats graph.Stats, version int64, at time.Time) GraphGenerated {
	return GraphGenerated{
		BaseEvent: BaseEvent{AggregateID: aggregateID, EventType: TypeGraphGenerated, Timestamp: at, Version: version},
		Topic:     topic,
		Stats:     stats,
	}
}

// GraphExpanded is raised when a node was expanded into new nodes
type GraphExpanded struct {
	BaseEvent
	NodeID string      `json:"node_id"`
	Added  graph.Stats `json:"added"`
}

// NewGraphExpanded creates a GraphExpanded event
func NewGraphExpanded(aggregateID, nodeID string, added graph.Stats, version int64, at time.Time) GraphExpanded {
	return GraphExpanded{
		BaseEvent: BaseEvent{AggregateID: aggregateID, EventType: TypeGraphExpanded, Timestamp: at, Version: version},
		NodeID:    nodeID,
		Added:     added,
	}
}

// NodeDeleted is raised when a node and its edges were removed from a workspace
type NodeDeleted struct {
	BaseEvent
	NodeID string `json:"node_id"`
}

// NewNodeDeleted creates a NodeDeleted event
func NewNodeDeleted(workspaceID, nodeID string, version int64, at time.Time) NodeDeleted {
	return NodeDeleted{
		BaseEvent: BaseEvent{AggregateID: workspaceID, EventType: TypeNodeDeleted, Timestamp: at, Version: version},
		NodeID:    nodeID,
	}
}

// GraphPersisted is raised after a fragment was written to the graph store
type GraphPersisted struct {
	BaseEvent
	Stats graph.Stats `json:"stats"`
}

// NewGraphPersisted creates a GraphPersisted event
func NewGraphPersisted(aggregateID string, stats graph.Stats, at time.Time) GraphPersisted {
	return GraphPersisted{
		BaseEvent: BaseEvent{AggregateID: aggregateID, EventType: TypeGraphPersisted, Timestamp: at, Version: 1},
		Stats:     stats,
	}
}
