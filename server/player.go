package server

import "sync"

// Vec2 二维向量：位置或位移
type Vec2 struct {
	X float64 `msgpack:"x" json:"x"`
	Y float64 `msgpack:"y" json:"y"`
}

// Add 返回 v+o
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Player 会话内的玩家实体（服务端权威状态）
// ID 即其在 GameState 中的下标，会话期间不变
type Player struct {
	ID  int  `msgpack:"id" json:"id"`
	Pos Vec2 `msgpack:"pos" json:"pos"`
}

// NewDefaultPlayer 玩家工厂：每个初始连接一个，出生点为原点
func NewDefaultPlayer(index int) Player {
	return Player{ID: index}
}

// playerSlot 每个玩家独立一把锁
type playerSlot struct {
	mu sync.Mutex
	p  Player
}

func (s *playerSlot) apply(change Vec2) Vec2 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.Pos = s.p.Pos.Add(change)
	return s.p.Pos
}

func (s *playerSlot) load() Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p
}
