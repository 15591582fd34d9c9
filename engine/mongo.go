package engine

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoExporter 写入{prefix}_runs、{prefix}_volumes等集合
type MongoExporter struct {
	db        *mongo.Database
	prefix    string
	batchSize int
}

func NewMongoExporter(db *mongo.Database, prefix string, batchSize int) *MongoExporter {
	return &MongoExporter{db: db, prefix: prefix, batchSize: batchSize}
}

func (e *MongoExporter) coll(name string) *mongo.Collection {
	return e.db.Collection(e.prefix + "_" + name)
}

func (e *MongoExporter) Begin(ctx context.Context, run Run) error {
	_, err := e.coll("runs").InsertOne(ctx, bson.M{
		"run_id":     run.ID.String(),
		"job":        run.Job,
		"city":       run.City,
		"started_at": run.Started,
	})
	return err
}

func (e *MongoExporter) Export(ctx context.Context, run Run, flows *DayFlows) error {
	stamp := bson.M{"run_id": run.ID.String(), "job": run.Job, "day": flows.Day}
	for name, records := range map[string][]CountRecord{
		"volumes":         flows.Volumes,
		"known_edges":     flows.KnownEdges,
		"known_landmarks": flows.KnownLandmarks,
	} {
		for _, batch := range batches(records, e.batchSize) {
			docs := make([]any, len(batch))
			for i, r := range batch {
				docs[i] = bson.M{"run": stamp, "id": r.ID, "tag": r.Tag, "count": r.Count}
			}
			if _, err := e.coll(name).InsertMany(ctx, docs); err != nil {
				return fmt.Errorf("insert %s: %w", name, err)
			}
		}
	}
	for _, batch := range batches(flows.Trips, e.batchSize) {
		docs := make([]any, len(batch))
		for i, r := range batch {
			docs[i] = bson.M{
				"run":   stamp,
				"trip":  r,
				"shape": bson.M{"type": "LineString", "coordinates": r.Line},
			}
		}
		if _, err := e.coll("trips").InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("insert trips: %w", err)
		}
	}
	return nil
}

// Close 客户端由调用方管理
func (e *MongoExporter) Close(context.Context) error {
	return nil
}
