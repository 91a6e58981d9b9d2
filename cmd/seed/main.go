// Command seed populates the document store with demo projects: the
// organized medhub-core facility map and the nexus-global-core 10,000-node
// mesh used for load testing the view pipeline.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"

	"nexusboard/domain/node"
	"nexusboard/infrastructure/config"
	"nexusboard/infrastructure/persistence/mongodb"
)

const (
	medhubProject = "medhub-core"
	meshProject   = "nexus-global-core"

	meshWorldWidth  float64 = 8000
	meshWorldHeight float64 = 6000
	meshSectorSize  float64 = 1000
	meshNodeCount           = 10000

	// Fraction of mesh nodes pointing at a parent that does not exist,
	// feeding the recovery view with realistic volume.
	meshOrphanRate = 0.05
)

func main() {
	dataset := "all"
	if len(os.Args) > 1 {
		dataset = os.Args[1]
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
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

	coll := client.Database(cfg.MongoDatabase).Collection("nodes")
	s := &seeder{coll: coll, logger: logger, rand: seededRand(42)}

	switch dataset {
	case "medhub":
		err = s.seedMedhub(ctx)
	case "mesh":
		err = s.seedMesh(ctx)
	case "all":
		if err = s.seedMedhub(ctx); err == nil {
			err = s.seedMesh(ctx)
		}
	default:
		logger.Fatal("Unknown dataset", zap.String("dataset", dataset))
	}
	if err != nil {
		logger.Fatal("Seeding failed", zap.Error(err))
	}

	logger.Info("Seeding complete", zap.String("dataset", dataset))
}

type seeder struct {
	coll   *mongo.Collection
	logger *zap.Logger
	rand   func() float64
}

// seededRand is a deterministic linear congruential generator so repeated
// runs produce the same layout.
func seededRand(seed int64) func() float64 {
	s := seed
	return func() float64 {
		s = (s*9301 + 49297) % 233280
		return float64(s) / 233280
	}
}

func (s *seeder) purge(ctx context.Context, projectID string) error {
	result, err := s.coll.DeleteMany(ctx, bson.M{"projectId": projectID})
	if err != nil {
		return fmt.Errorf("failed to purge project %s: %w", projectID, err)
	}
	s.logger.Info("Purged old project data",
		zap.String("projectID", projectID),
		zap.Int64("deleted", result.DeletedCount),
	)
	return nil
}

func (s *seeder) insert(ctx context.Context, batch []node.Node) error {
	docs := make([]interface{}, len(batch))
	for i := range batch {
		docs[i] = batch[i]
	}
	_, err := s.coll.InsertMany(ctx, docs)
	return err
}

type department struct {
	name   string
	status node.Status
	icon   string
}

// seedMedhub builds the organized facility map: departments in a 3-column
// grid, each with a few unit folders, each unit with a handful of staff and
// equipment leaves.
func (s *seeder) seedMedhub(ctx context.Context) error {
	if err := s.purge(ctx, medhubProject); err != nil {
		return err
	}

	departments := []department{
		{"Emergency Trauma Center (ETC)", node.StatusError, "TRM"},
		{"Critical Care / ICU Wing", node.StatusActive, "ICU"},
		{"Cardiovascular Surgery Suite", node.StatusActive, "CVO"},
		{"Neuro-Sciences Institute", node.StatusIdle, "NRO"},
		{"Diagnostic & Advanced Imaging", node.StatusActive, "RAD"},
		{"Molecular Oncology Unit", node.StatusActive, "ONC"},
		{"Pediatrics & Neonatal Care", node.StatusActive, "PED"},
		{"Clinical Pathology Labs", node.StatusIdle, "LAB"},
		{"Central Pharmacy & Logistics", node.StatusActive, "PHR"},
	}

	staffNames := []string{
		"Dr. Sarah Vance (Consultant)", "Dr. Arjun Kumar (Senior)",
		"Head Nurse Elena Rossi", "Dr. Chen Wei (Specialist)",
		"Dr. Marcus Thorne", "Senior Tech. Julian H.", "Officer Amara J.",
	}
	equipmentNames := []string{
		"Vitals Monitor", "Ventilator v4", "Digital Infusion Pump",
		"Dialysis Unit", "Portable Ultrasound", "Anesthesia Rig", "Defibrillator",
	}

	now := node.NowMillis()
	var batch []node.Node

	for index, dept := range departments {
		col := index % 3
		row := index / 3
		deptX := 1000 + float64(col)*2800 + s.rand()*200
		deptY := 800 + float64(row)*1200 + s.rand()*200

		deptID := fmt.Sprintf("dept-%d-%d", now, index)
		batch = append(batch, s.newNode(medhubProject, deptID, dept.name, node.KindFolder, "", deptX, deptY, dept.status, now))

		unitCount := 2 + int(s.rand()*3)
		for i := 0; i < unitCount; i++ {
			unitID := fmt.Sprintf("unit-%d-%d-%d", now, index, i)
			unitX := deptX + float64(i)*500 - 600
			unitY := deptY + 400 + s.rand()*150
			unitName := fmt.Sprintf("%s Section %c", firstWord(dept.name), 'A'+i)
			batch = append(batch, s.newNode(medhubProject, unitID, unitName, node.KindFolder, deptID, unitX, unitY, node.StatusActive, now))

			resCount := 3 + int(s.rand()*3)
			for j := 0; j < resCount; j++ {
				var resName string
				if s.rand() > 0.5 {
					resName = staffNames[int(s.rand()*float64(len(staffNames)))]
				} else {
					resName = fmt.Sprintf("%s [%s-%d%d]",
						equipmentNames[int(s.rand()*float64(len(equipmentNames)))], dept.icon, j, i)
				}
				status := node.StatusIdle
				if s.rand() > 0.92 {
					status = node.StatusError
				}
				resID := fmt.Sprintf("res-%d-%d-%d-%d", now, index, i, j)
				batch = append(batch, s.newNode(medhubProject, resID, resName, node.KindNode, unitID,
					unitX+float64(j)*220-300+s.rand()*50,
					unitY+300+float64(j)*40+s.rand()*50,
					status, now))
			}
		}
	}

	if err := s.insert(ctx, batch); err != nil {
		return fmt.Errorf("failed to insert medhub nodes: %w", err)
	}
	s.logger.Info("Organized facility map generated",
		zap.String("projectID", medhubProject),
		zap.Int("nodes", len(batch)),
	)
	return nil
}

// seedMesh builds the 10,000-node mesh: a hub folder at the center of every
// 1000-unit sector, scattered data points parented to random hubs, and a
// small orphan population referencing hubs that were never created.
func (s *seeder) seedMesh(ctx context.Context) error {
	if err := s.purge(ctx, meshProject); err != nil {
		return err
	}

	now := node.NowMillis()
	var batch []node.Node

	var hubs []string
	for x := 0.0; x < meshWorldWidth; x += meshSectorSize {
		for y := 0.0; y < meshWorldHeight; y += meshSectorSize {
			hubID := fmt.Sprintf("hub-%.0f-%.0f-%d", x, y, now)
			name := fmt.Sprintf("HUB [%.0f:%.0f]", x, y)
			batch = append(batch, s.newNode(meshProject, hubID, name, node.KindFolder, "", x+500, y+500, node.StatusActive, now))
			hubs = append(hubs, hubID)
		}
	}

	for i := 0; i < meshNodeCount; i++ {
		parent := hubs[int(s.rand()*float64(len(hubs)))]
		status := node.StatusIdle
		if s.rand() < meshOrphanRate {
			parent = fmt.Sprintf("hub-lost-%d", i)
			status = node.StatusOffline
		}
		n := s.newNode(
			meshProject,
			fmt.Sprintf("node-%d-%d", i, now),
			fmt.Sprintf("DP_%X", i),
			node.KindNode,
			parent,
			s.rand()*meshWorldWidth,
			s.rand()*meshWorldHeight,
			status, now)
		batch = append(batch, n)
	}

	if err := s.insert(ctx, batch); err != nil {
		return fmt.Errorf("failed to insert mesh nodes: %w", err)
	}
	s.logger.Info("Global mesh deployed",
		zap.String("projectID", meshProject),
		zap.Int("nodes", len(batch)),
	)
	return nil
}

func (s *seeder) newNode(projectID, id, name string, kind node.Kind, parentID string, x, y float64, status node.Status, ts int64) node.Node {
	return node.Node{
		ID:           id,
		Title:        name,
		Kind:         kind,
		ParentID:     parentID,
		ProjectID:    projectID,
		X:            x,
		Y:            y,
		Width:        node.DefaultWidth,
		Height:       node.DefaultHeight,
		Status:       status,
		CreatedAt:    ts,
		LastModified: ts,
	}
}

func firstWord(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			return s[:i]
		}
	}
	return s
}
