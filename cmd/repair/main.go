// Command repair re-attaches a project's orphaned nodes. It creates a fresh
// recovery root folder, re-parents every node whose declared parent is
// missing from the project under it, and stamps lastModified so the repaired
// nodes surface at the live end of the time slider.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"nexusboard/application/view"
	"nexusboard/domain/node"
	"nexusboard/infrastructure/config"
	"nexusboard/infrastructure/persistence/mongodb"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	projectID := cfg.DefaultProject
	if len(os.Args) > 1 {
		projectID = os.Args[1]
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logger.Fatal("Failed to connect to document store", zap.Error(err))
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.MongoDatabase)
	repo := mongodb.NewNodeRepository(db, logger)

	nodes, err := repo.FetchByProject(ctx, projectID)
	if err != nil {
		logger.Fatal("Failed to fetch project nodes", zap.Error(err))
	}

	partition := view.PartitionOrphans(nodes)
	if len(partition.Orphans) == 0 {
		logger.Info("No orphans to repair", zap.String("projectID", projectID))
		return
	}

	root, err := node.New(projectID, "Recovered Nodes", node.KindFolder, 500, 500)
	if err != nil {
		logger.Fatal("Failed to build recovery root", zap.Error(err))
	}
	if _, err := repo.Create(ctx, root); err != nil {
		logger.Fatal("Failed to store recovery root", zap.Error(err))
	}

	ids := make([]string, len(partition.Orphans))
	for i := range partition.Orphans {
		ids[i] = partition.Orphans[i].ID
	}

	result, err := db.Collection("nodes").UpdateMany(ctx,
		bson.M{"projectId": projectID, "nodeId": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"parentId": root.ID, "lastModified": node.NowMillis()}},
	)
	if err != nil {
		logger.Fatal("Failed to re-parent orphans", zap.Error(err))
	}

	logger.Info("Orphans re-attached",
		zap.String("projectID", projectID),
		zap.String("rootID", root.ID),
		zap.Int64("repaired", result.ModifiedCount),
	)
}
