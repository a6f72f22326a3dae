package server

import "fmt"

// GameState 会话权威状态：玩家顺序固定，下标即玩家 ID
// 位置只允许权威循环修改，且只在该玩家自己的锁内修改
type GameState struct {
	players []*playerSlot
	grid    *Grid
}

// NewGameState 为每个初始连接创建一个玩家
func NewGameState(peers int, grid *Grid) *GameState {
	gs := &GameState{players: make([]*playerSlot, peers), grid: grid}
	for i := range gs.players {
		gs.players[i] = &playerSlot{p: NewDefaultPlayer(i)}
	}
	return gs
}

// Len 玩家数，会话期间固定
func (gs *GameState) Len() int { return len(gs.players) }

func (gs *GameState) Grid() *Grid { return gs.grid }

// Apply 将位移加到指定玩家的位置上，返回新位置
// 不做合法性校验（不裁剪、不检查碰撞）
func (gs *GameState) Apply(id int, change Vec2) (Vec2, error) {
	if id < 0 || id >= len(gs.players) {
		return Vec2{}, fmt.Errorf("unknown player %d (roster size %d)", id, len(gs.players))
	}
	return gs.players[id].apply(change), nil
}

// Player 返回玩家当前状态的副本
func (gs *GameState) Player(id int) (Player, bool) {
	if id < 0 || id >= len(gs.players) {
		return Player{}, false
	}
	return gs.players[id].load(), true
}

// Roster 逐个加锁拷贝出全部玩家
func (gs *GameState) Roster() []Player {
	out := make([]Player, len(gs.players))
	for i, s := range gs.players {
		out[i] = s.load()
	}
	return out
}
