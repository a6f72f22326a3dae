package server

// Kind 负载类型标签
type Kind uint8

const (
	KindSnapshot Kind = 1
	KindDelta    Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindSnapshot:
		return "snapshot"
	case KindDelta:
		return "delta"
	default:
		return "unknown"
	}
}

// Payload 在总线与聚合通道上流转的消息（Snapshot 或 Delta）
// 发布后视为不可变，多个 worker 共享同一个值
type Payload interface {
	Kind() Kind
}

// Snapshot 会话开始时的完整初始状态，每个会话只发布一次，且先于任何 Delta
type Snapshot struct {
	Roster     []Player       `msgpack:"roster"`
	MapSeed    [SeedSize]byte `msgpack:"seed"`
	AssignedID *int           `msgpack:"assigned,omitempty"`
}

func (*Snapshot) Kind() Kind { return KindSnapshot }

// WithAssignedID 返回标注了接收方下标的副本；Roster 共享底层数组，不可修改
func (s *Snapshot) WithAssignedID(id int) *Snapshot {
	cp := *s
	cp.AssignedID = &id
	return &cp
}

// DeltaEntry 某个玩家的位移
type DeltaEntry struct {
	PlayerID int  `msgpack:"pid"`
	Change   Vec2 `msgpack:"d"`
}

// Delta 一批位移，按列表顺序应用
type Delta struct {
	Entries []DeltaEntry `msgpack:"entries"`
}

func (*Delta) Kind() Kind { return KindDelta }
