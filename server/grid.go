package server

import (
	"io"

	"lukechampine.com/blake3"
)

// SeedSize 地图种子长度（字节）
const SeedSize = 32

// Tile 地形格子类型
type Tile uint8

const (
	TileFloor Tile = iota
	TileRock
	TileWater
)

// Grid 不可变地形：会话开始时生成一次，之后只读，可无锁并发访问
type Grid struct {
	width  int
	height int
	tiles  []Tile
}

// GenerateGrid 由 32 字节种子生成地形；seed 为 nil 时生成空白地图（全部 Floor）
// 同一种子在任何节点上都得到相同的地形，客户端只需拿到种子即可重建
func GenerateGrid(width, height int, seed *[SeedSize]byte) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	g := &Grid{width: width, height: height, tiles: make([]Tile, width*height)}
	if seed == nil {
		return g
	}

	h := blake3.New(SeedSize, nil)
	_, _ = h.Write(seed[:])
	raw := make([]byte, len(g.tiles))
	// XOF 输出无限长，ReadFull 不会失败
	_, _ = io.ReadFull(h.XOF(), raw)
	for i, b := range raw {
		switch {
		case b < 200:
			g.tiles[i] = TileFloor
		case b < 235:
			g.tiles[i] = TileRock
		default:
			g.tiles[i] = TileWater
		}
	}
	return g
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// At 返回 (x, y) 处的格子；越界时 ok=false
func (g *Grid) At(x, y int) (Tile, bool) {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return TileFloor, false
	}
	return g.tiles[y*g.width+x], true
}
