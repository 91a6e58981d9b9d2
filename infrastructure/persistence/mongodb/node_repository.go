// Package mongodb implements the node repository against the MongoDB
// document store.
package mongodb

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"nexusboard/application/ports"
	"nexusboard/domain/node"
	pkgerrors "nexusboard/pkg/errors"
)

const collectionName = "nodes"

// NodeRepository stores nodes in the "nodes" collection. Every call runs
// through a circuit breaker so a down store degrades sessions to best-effort
// local-only mode instead of hanging them on timeouts.
type NodeRepository struct {
	coll    *mongo.Collection
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewNodeRepository creates a repository on the given database.
func NewNodeRepository(db *mongo.Database, logger *zap.Logger) *NodeRepository {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "mongodb-nodes",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.8
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &NodeRepository{
		coll:    db.Collection(collectionName),
		breaker: cb,
		logger:  logger,
	}
}

// EnsureIndexes creates the query indexes the board depends on.
func (r *NodeRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "lastModified", Value: -1}}},
		{Keys: bson.D{{Key: "nodeId", Value: 1}, {Key: "timestamp", Value: -1}}},
	})
	if err != nil {
		return pkgerrors.NewUnavailable("failed to create node indexes", err)
	}
	return nil
}

// FetchByProject returns every non-tombstoned node of a project.
func (r *NodeRepository) FetchByProject(ctx context.Context, projectID string) ([]node.Node, error) {
	result, err := r.breaker.Execute(func() (interface{}, error) {
		filter := bson.M{
			"projectId": projectID,
			"isDeleted": bson.M{"$ne": true},
		}

		cursor, err := r.coll.Find(ctx, filter)
		if err != nil {
			return nil, err
		}
		defer cursor.Close(ctx)

		var nodes []node.Node
		if err := cursor.All(ctx, &nodes); err != nil {
			return nil, err
		}
		return nodes, nil
	})
	if err != nil {
		return nil, pkgerrors.NewUnavailable("failed to fetch nodes for project "+projectID, err)
	}

	return result.([]node.Node), nil
}

// Create stores a full node payload, assigning the lastModified stamp.
func (r *NodeRepository) Create(ctx context.Context, n node.Node) (node.Node, error) {
	if n.ID == "" {
		return node.Node{}, pkgerrors.NewValidation("node id cannot be empty")
	}
	n.LastModified = node.NowMillis()
	if n.CreatedAt == 0 {
		n.CreatedAt = n.LastModified
	}

	_, err := r.breaker.Execute(func() (interface{}, error) {
		return r.coll.InsertOne(ctx, n)
	})
	if err != nil {
		return node.Node{}, pkgerrors.NewUnavailable("failed to create node "+n.ID, err)
	}

	return n, nil
}

// Update applies partial field updates to the latest record with the given
// node id.
func (r *NodeRepository) Update(ctx context.Context, nodeID string, update ports.NodeUpdate) (node.Node, error) {
	set := bson.M{}
	if update.Title != nil {
		set["name"] = *update.Title
	}
	if update.X != nil {
		set["x"] = *update.X
	}
	if update.Y != nil {
		set["y"] = *update.Y
	}
	if update.Status != nil {
		set["status"] = *update.Status
	}
	if update.LastModified != 0 {
		set["lastModified"] = update.LastModified
	} else {
		set["lastModified"] = node.NowMillis()
	}

	result, err := r.breaker.Execute(func() (interface{}, error) {
		// Duplicate records can exist for one node id; the freshest creation
		// wins, matching the read side.
		opts := options.FindOneAndUpdate().
			SetSort(bson.D{{Key: "timestamp", Value: -1}}).
			SetReturnDocument(options.After)

		var updated node.Node
		err := r.coll.FindOneAndUpdate(ctx, bson.M{"nodeId": nodeID}, bson.M{"$set": set}, opts).
			Decode(&updated)
		if err != nil {
			return nil, err
		}
		return updated, nil
	})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return node.Node{}, pkgerrors.NewNotFound("node not found: " + nodeID)
		}
		return node.Node{}, pkgerrors.NewUnavailable("failed to update node "+nodeID, err)
	}

	return result.(node.Node), nil
}

// Tombstone marks every record with the given node id as deleted.
func (r *NodeRepository) Tombstone(ctx context.Context, nodeID string) error {
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return r.coll.UpdateMany(ctx,
			bson.M{"nodeId": nodeID},
			bson.M{"$set": bson.M{"isDeleted": true}},
		)
	})
	if err != nil {
		return pkgerrors.NewUnavailable("failed to tombstone node "+nodeID, err)
	}
	return nil
}

// Connect dials the document store and verifies the connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, pkgerrors.NewUnavailable("failed to connect to mongodb", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, pkgerrors.NewUnavailable("document store unreachable", err)
	}

	return client, nil
}
