// Package dynamodb persists workspaces in a single DynamoDB table with
// conditional writes on the version attribute.
package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"topicgraph/application/ports"
	"topicgraph/domain/graph"
	"topicgraph/domain/workspace"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

const sortKey = "WORKSPACE"

// Client is the subset of the DynamoDB API the repository uses
type Client interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// ddbWorkspaceItem is the stored shape. The graph is kept as a JSON document
// so positions survive the round trip.
type ddbWorkspaceItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	Topic     string `dynamodbav:"Topic,omitempty"`
	Version   int64  `dynamodbav:"Version"`
	Graph     string `dynamodbav:"Graph"`
	NodeCount int    `dynamodbav:"NodeCount"`
	CreatedAt string `dynamodbav:"CreatedAt"`
	UpdatedAt string `dynamodbav:"UpdatedAt"`
}

// WorkspaceRepository implements ports.WorkspaceRepository
type WorkspaceRepository struct {
	client    Client
	tableName string
	logger    *zap.Logger
}

var _ ports.WorkspaceRepository = (*WorkspaceRepository)(nil)

func NewWorkspaceRepository(client Client, tableName string, logger *zap.Logger) *WorkspaceRepository {
	return &WorkspaceRepository{
		client:    client,
		tableName: tableName,
		logger:    logger.Named("workspaces"),
	}
}

func partitionKey(id string) string { return "WORKSPACE#" + id }

func (r *WorkspaceRepository) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: partitionKey(id)},
		"SK": &types.AttributeValueMemberS{Value: sortKey},
	}
}

func (r *WorkspaceRepository) Get(ctx context.Context, id string) (workspace.Workspace, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            r.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return workspace.Workspace{}, fmt.Errorf("failed to get workspace: %w", err)
	}
	if out.Item == nil {
		return workspace.Workspace{}, workspace.ErrNotFound
	}

	var item ddbWorkspaceItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return workspace.Workspace{}, fmt.Errorf("failed to unmarshal workspace: %w", err)
	}
	return fromItem(id, item)
}

// Create writes ws only if no item exists under its id
func (r *WorkspaceRepository) Create(ctx context.Context, ws workspace.Workspace) error {
	cond := expression.Name("PK").AttributeNotExists()
	err := r.put(ctx, ws, cond)
	if isConditionFailure(err) {
		return fmt.Errorf("workspace %s already exists: %w", ws.ID, workspace.ErrVersionConflict)
	}
	return err
}

// Save writes ws only if the stored Version equals expectedVersion
func (r *WorkspaceRepository) Save(ctx context.Context, ws workspace.Workspace, expectedVersion int64) error {
	cond := expression.Name("PK").AttributeExists().
		And(expression.Name("Version").Equal(expression.Value(expectedVersion)))
	err := r.put(ctx, ws, cond)
	if !isConditionFailure(err) {
		return err
	}

	// The condition covers both a missing item and a stale version.
	if _, getErr := r.Get(ctx, ws.ID); errors.Is(getErr, workspace.ErrNotFound) {
		return workspace.ErrNotFound
	}
	r.logger.Debug("Optimistic lock failed",
		zap.String("workspaceID", ws.ID),
		zap.Int64("expectedVersion", expectedVersion),
	)
	return fmt.Errorf("%w: expected %d", workspace.ErrVersionConflict, expectedVersion)
}

func (r *WorkspaceRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       r.key(id),
	})
	if err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}
	return nil
}

func (r *WorkspaceRepository) put(ctx context.Context, ws workspace.Workspace, cond expression.ConditionBuilder) error {
	item, err := toItem(ws)
	if err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal workspace: %w", err)
	}
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.tableName),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailure(err) {
			return err
		}
		return fmt.Errorf("failed to save workspace: %w", err)
	}
	return nil
}

func isConditionFailure(err error) bool {
	if err == nil {
		return false
	}
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException"
}

func toItem(ws workspace.Workspace) (ddbWorkspaceItem, error) {
	doc, err := json.Marshal(ws.Graph)
	if err != nil {
		return ddbWorkspaceItem{}, fmt.Errorf("failed to encode graph: %w", err)
	}
	return ddbWorkspaceItem{
		PK:        partitionKey(ws.ID),
		SK:        sortKey,
		Topic:     ws.Topic,
		Version:   ws.Version,
		Graph:     string(doc),
		NodeCount: len(ws.Graph.Nodes),
		CreatedAt: ws.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: ws.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

func fromItem(id string, item ddbWorkspaceItem) (workspace.Workspace, error) {
	var g graph.Graph
	if err := json.Unmarshal([]byte(item.Graph), &g); err != nil {
		return workspace.Workspace{}, fmt.Errorf("failed to decode graph: %w", err)
	}
	if err := g.Validate(); err != nil {
		return workspace.Workspace{}, fmt.Errorf("stored graph is invalid: %w", err)
	}
	created, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)
	updated, _ := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	return workspace.Workspace{
		ID:        id,
		Topic:     item.Topic,
		Version:   item.Version,
		Graph:     g,
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}
