package world

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// LoadFile 读取JSON格式的地图
func LoadFile(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map %s: %w", path, err)
	}
	ds := &Dataset{}
	if err := json.Unmarshal(data, ds); err != nil {
		return nil, fmt.Errorf("decode map %s: %w", path, err)
	}
	log.Infof("map loaded from %s", path)
	return ds, nil
}

// 按class字段读取一类文档
func findClass[T any](ctx context.Context, coll *mongo.Collection, class string) ([]T, error) {
	cur, err := coll.Find(ctx, bson.M{"class": class})
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", class, err)
	}
	defer cur.Close(ctx)
	out := make([]T, 0)
	for cur.Next(ctx) {
		var v T
		if err := cur.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", class, err)
		}
		out = append(out, v)
	}
	return out, cur.Err()
}

// LoadMongo 从mongo集合读取地图，文档以class区分：node, edge, barrier, building, sightline
func LoadMongo(ctx context.Context, coll *mongo.Collection) (*Dataset, error) {
	ds := &Dataset{}
	var err error
	if ds.Nodes, err = findClass[NodeRecord](ctx, coll, "node"); err != nil {
		return nil, err
	}
	if ds.Edges, err = findClass[EdgeRecord](ctx, coll, "edge"); err != nil {
		return nil, err
	}
	if ds.Barriers, err = findClass[BarrierRecord](ctx, coll, "barrier"); err != nil {
		return nil, err
	}
	if ds.Buildings, err = findClass[BuildingRecord](ctx, coll, "building"); err != nil {
		return nil, err
	}
	if ds.SightLines, err = findClass[SightLineRecord](ctx, coll, "sightline"); err != nil {
		return nil, err
	}
	log.Infof("map loaded from %s.%s", coll.Database().Name(), coll.Name())
	return ds, nil
}
