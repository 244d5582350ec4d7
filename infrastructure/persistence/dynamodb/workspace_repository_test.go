package dynamodb

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"topicgraph/domain/graph"
	"topicgraph/domain/workspace"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeTable evaluates the two condition shapes the repository issues:
// attribute_not_exists on create, and exists-with-version on save.
type fakeTable struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
	err   error
}

func newFakeTable() *fakeTable {
	return &fakeTable{items: make(map[string]map[string]types.AttributeValue)}
}

func pk(key map[string]types.AttributeValue) string {
	return key["PK"].(*types.AttributeValueMemberS).Value
}

func (f *fakeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.items[pk(in.Key)]}, nil
}

func (f *fakeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	key := pk(in.Item)
	current, exists := f.items[key]
	failed := &types.ConditionalCheckFailedException{Message: strPtr("The conditional request failed")}
	if len(in.ExpressionAttributeValues) == 0 {
		if exists {
			return nil, failed
		}
	} else {
		if !exists {
			return nil, failed
		}
		var expected string
		for _, v := range in.ExpressionAttributeValues {
			expected = v.(*types.AttributeValueMemberN).Value
		}
		if current["Version"].(*types.AttributeValueMemberN).Value != expected {
			return nil, failed
		}
	}
	f.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, pk(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func strPtr(s string) *string { return &s }

func sample() workspace.Workspace {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	ws := workspace.New("w1", "Photosynthesis", now)
	n := graph.NewNode("1", "Photosynthesis")
	n.Position = graph.Position{X: 10, Y: 20}
	ws.Graph.Nodes = append(ws.Graph.Nodes, n)
	return ws
}

func TestWorkspaceRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewWorkspaceRepository(newFakeTable(), "tbl", zap.NewNop())
	ws := sample()

	require.NoError(t, repo.Create(ctx, ws))
	got, err := repo.Get(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, ws.Topic, got.Topic)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, ws.CreatedAt, got.CreatedAt)
	require.Len(t, got.Graph.Nodes, 1)
	assert.Equal(t, graph.Position{X: 10, Y: 20}, got.Graph.Nodes[0].Position)

	err = repo.Create(ctx, ws)
	assert.ErrorIs(t, err, workspace.ErrVersionConflict)

	require.NoError(t, repo.Delete(ctx, "w1"))
	_, err = repo.Get(ctx, "w1")
	assert.ErrorIs(t, err, workspace.ErrNotFound)
}

func TestWorkspaceRepository_Save(t *testing.T) {
	ctx := context.Background()
	repo := NewWorkspaceRepository(newFakeTable(), "tbl", zap.NewNop())
	ws := sample()
	require.NoError(t, repo.Create(ctx, ws))

	next, err := ws.DeleteNode("1", ws.UpdatedAt)
	require.NoError(t, err)

	tests := []struct {
		name     string
		ws       workspace.Workspace
		expected int64
		wantErr  error
	}{
		{"current version wins", next, 1, nil},
		{"stale version conflicts", next, 1, workspace.ErrVersionConflict},
		{"missing workspace", workspace.New("nope", "", ws.CreatedAt), 1, workspace.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Save(ctx, tt.ws, tt.expected)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	got, err := repo.Get(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.Empty(t, got.Graph.Nodes)
}

func TestWorkspaceRepository_TransportError(t *testing.T) {
	table := newFakeTable()
	table.err = errors.New("throttled")
	repo := NewWorkspaceRepository(table, "tbl", zap.NewNop())

	_, err := repo.Get(context.Background(), "w1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, workspace.ErrNotFound)

	err = repo.Save(context.Background(), sample(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, workspace.ErrVersionConflict)
}

func TestIsConditionFailure(t *testing.T) {
	assert.False(t, isConditionFailure(nil))
	assert.False(t, isConditionFailure(errors.New("x")))
	assert.True(t, isConditionFailure(&types.ConditionalCheckFailedException{}))
}
