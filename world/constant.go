package world

import "errors"

type RoadType int

const (
	ROAD_PRIMARY RoadType = iota
	ROAD_SECONDARY
	ROAD_TERTIARY
	ROAD_NEIGHBOURHOOD
	ROAD_UNKNOWN
)

func (r RoadType) String() string {
	switch r {
	case ROAD_PRIMARY:
		return "primary"
	case ROAD_SECONDARY:
		return "secondary"
	case ROAD_TERTIARY:
		return "tertiary"
	case ROAD_NEIGHBOURHOOD:
		return "neighbourhood"
	default:
		return "unknown"
	}
}

// OSM highway标签到道路等级
var roadTypeByHighway = map[string]RoadType{
	"primary":        ROAD_PRIMARY,
	"primary_link":   ROAD_PRIMARY,
	"trunk":          ROAD_PRIMARY,
	"secondary":      ROAD_SECONDARY,
	"secondary_link": ROAD_SECONDARY,
	"tertiary":       ROAD_TERTIARY,
	"tertiary_link":  ROAD_TERTIARY,
	"unclassified":   ROAD_TERTIARY,
	"residential":    ROAD_NEIGHBOURHOOD,
	"pedestrian":     ROAD_NEIGHBOURHOOD,
	"living_street":  ROAD_NEIGHBOURHOOD,
}

func ClassifyRoad(highway string) RoadType {
	if t, ok := roadTypeByHighway[highway]; ok {
		return t
	}
	// footway, bridleway, steps, corridor, path, track, service...
	return ROAD_UNKNOWN
}

type BarrierType int

const (
	BARRIER_PARK BarrierType = iota
	BARRIER_WATER
	BARRIER_ROAD
	BARRIER_RAILWAY
	BARRIER_SECONDARY_ROAD
)

var barrierTypeByName = map[string]BarrierType{
	"park":           BARRIER_PARK,
	"water":          BARRIER_WATER,
	"road":           BARRIER_ROAD,
	"railway":        BARRIER_RAILWAY,
	"secondary_road": BARRIER_SECONDARY_ROAD,
}

func ParseBarrierType(s string) (BarrierType, error) {
	if t, ok := barrierTypeByName[s]; ok {
		return t, nil
	}
	return 0, errors.New("unknown barrier type " + s)
}

func (b BarrierType) String() string {
	for k, v := range barrierTypeByName {
		if v == b {
			return k
		}
	}
	return "unknown"
}

// 自然屏障（正向）
func (b BarrierType) Positive() bool {
	return b == BARRIER_PARK || b == BARRIER_WATER
}

// 割裂性屏障（负向）
func (b BarrierType) Negative() bool {
	return b == BARRIER_ROAD || b == BARRIER_RAILWAY || b == BARRIER_SECONDARY_ROAD
}

const (
	// 跨区域的边所属区域
	NO_REGION int32 = -1
	// 无效节点
	NO_NODE int32 = -1

	MAX_DEFLECTION_ANGLE = 180.0
	MIN_DEFLECTION_ANGLE = 0.0

	// 边与屏障关联的最大距离（屏障记录未给出关联边时使用）
	BARRIER_EDGE_DISTANCE = 30.0
)

var (
	ErrUnknownNode   = errors.New("unknown node")
	ErrUnknownEdge   = errors.New("unknown edge")
	ErrEmptyDataset  = errors.New("dataset has no nodes or edges")
	ErrDanglingEdge  = errors.New("edge references a missing node")
	ErrNotContiguous = errors.New("route is not contiguous")
)
