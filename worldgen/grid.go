// Package worldgen 生成规则网格城市，用于测试、基准与无地图运行
package worldgen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"git.fiblab.net/sim/wayfinding/world"
	opensimplex "github.com/ojrac/opensimplex-go"
)

var ErrInvalidSize = errors.New("grid size must look like WxH with W, H >= 2")

type GridConfig struct {
	Width, Height int
	// 相邻节点间距（米）
	Spacing float64
	Seed    int64
	// 节点位置扰动幅度（米），0为严格网格
	Jitter float64
	// 按列等分的区域数
	Regions int
	// 每个街区中心放一栋建筑，得分来自噪声
	Buildings bool
	// 中间一行为主干道，中间一列为次干道
	MainRoads bool
	// 沿中间一列的河流（水体屏障）与沿中间一行的铁路（割裂屏障）
	River   bool
	Railway bool
}

// Plain 严格网格，无区域、建筑与屏障
func Plain(width, height int, spacing float64) GridConfig {
	return GridConfig{Width: width, Height: height, Spacing: spacing, Regions: 1}
}

// City 带区域、地标、主干道与屏障的网格
func City(width, height int, seed int64) GridConfig {
	return GridConfig{
		Width: width, Height: height, Spacing: 100, Seed: seed,
		Regions: 2, Buildings: true, MainRoads: true, River: true, Railway: true,
	}
}

// ParseSize 解析"WxH"
func ParseSize(s string) (int, int, error) {
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%q: %w", s, ErrInvalidSize)
	}
	w, err1 := strconv.Atoi(parts[0])
	h, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || w < 2 || h < 2 {
		return 0, 0, fmt.Errorf("%q: %w", s, ErrInvalidSize)
	}
	return w, h, nil
}

func NodeID(cfg GridConfig, x, y int) int32 {
	return int32(y*cfg.Width + x)
}

// octave noise，结果在[0,1]
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total, amplitude, maxVal := 0.0, 1.0, 0.0
	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}

func Grid(cfg GridConfig) *world.Dataset {
	if cfg.Regions < 1 {
		cfg.Regions = 1
	}
	jitterX := opensimplex.NewNormalized(cfg.Seed)
	jitterY := opensimplex.NewNormalized(cfg.Seed + 1)
	localNoise := opensimplex.NewNormalized(cfg.Seed + 2)
	globalNoise := opensimplex.NewNormalized(cfg.Seed + 3)

	ds := &world.Dataset{}
	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			px, py := float64(x)*cfg.Spacing, float64(y)*cfg.Spacing
			if cfg.Jitter > 0 {
				px += (jitterX.Eval2(float64(x), float64(y)) - 0.5) * 2 * cfg.Jitter
				py += (jitterY.Eval2(float64(x), float64(y)) - 0.5) * 2 * cfg.Jitter
			}
			ds.Nodes = append(ds.Nodes, world.NodeRecord{
				ID: NodeID(cfg, x, y), X: px, Y: py,
				Region: int32(x * cfg.Regions / cfg.Width),
			})
		}
	}
	midX, midY := cfg.Width/2, cfg.Height/2
	var edgeID int32
	addEdge := func(a, b int32, highway string) {
		ds.Edges = append(ds.Edges, world.EdgeRecord{ID: edgeID, From: a, To: b, Highway: highway})
		edgeID++
	}
	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			if x+1 < cfg.Width {
				highway := "residential"
				if cfg.MainRoads && y == midY {
					highway = "primary"
				}
				addEdge(NodeID(cfg, x, y), NodeID(cfg, x+1, y), highway)
			}
			if y+1 < cfg.Height {
				highway := "residential"
				if cfg.MainRoads && x == midX {
					highway = "secondary"
				}
				addEdge(NodeID(cfg, x, y), NodeID(cfg, x, y+1), highway)
			}
		}
	}
	if cfg.Buildings {
		var id int32
		for y := 0; y+1 < cfg.Height; y++ {
			for x := 0; x+1 < cfg.Width; x++ {
				fx, fy := float64(x)+0.5, float64(y)+0.5
				local := octaveNoise(localNoise, fx, fy, 3, 0.35, 0.5)
				global := octaveNoise(globalNoise, fx, fy, 2, 0.15, 0.5)
				b := world.BuildingRecord{
					ID: id, X: fx * cfg.Spacing, Y: fy * cfg.Spacing,
					Region: int32(x * cfg.Regions / cfg.Width),
				}
				// 只有噪声峰值处的建筑成为地标
				if local > 0.55 {
					b.LocalScore = (local - 0.55) / 0.45
				}
				if global > 0.6 {
					b.GlobalScore = (global - 0.6) / 0.4
				}
				ds.Buildings = append(ds.Buildings, b)
				id++
			}
		}
	}
	// 屏障略偏离中线，使其沿线的边被关联
	offset := cfg.Spacing / 10
	if cfg.River {
		x := float64(midX)*cfg.Spacing + offset
		ds.Barriers = append(ds.Barriers, world.BarrierRecord{
			ID: 0, Type: "water",
			Line: [][2]float64{{x, 0}, {x, float64(cfg.Height-1) * cfg.Spacing}},
		})
	}
	if cfg.Railway {
		y := float64(midY)*cfg.Spacing + offset
		ds.Barriers = append(ds.Barriers, world.BarrierRecord{
			ID: 1, Type: "railway",
			Line: [][2]float64{{0, y}, {float64(cfg.Width-1) * cfg.Spacing, y}},
		})
	}
	return ds
}
