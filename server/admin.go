package server

import (
	"encoding/json"
	"net/http"
)

// HandleAdminState 只读地输出当前会话状态
// GET /admin/state  返回玩家位置、存活计数、地图尺寸
func (l *Lobby) HandleAdminState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s := l.Session()
	if s == nil {
		writeJSON(w, map[string]any{
			"started": false,
			"joined":  l.Joined(),
			"peers":   l.Peers(),
		})
		return
	}

	gs := s.State()
	writeJSON(w, map[string]any{
		"started": true,
		"session": s.ID.String(),
		"players": gs.Roster(),
		"live":    s.Live().Load(),
		"grid":    map[string]int{"width": gs.Grid().Width(), "height": gs.Grid().Height()},
	})
}

// HandleMetrics 输出会话运行指标
// GET /metrics
func (l *Lobby) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	s := l.Session()
	if s == nil {
		writeJSON(w, map[string]any{"started": false})
		return
	}
	writeJSON(w, map[string]any{
		"session": s.ID.String(),
		"metrics": s.Metrics().Snapshot(),
	})
}

// writeJSON 先完整编码再写出；编码失败（例如位置为 Inf/NaN）返回 500
func writeJSON(w http.ResponseWriter, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		Log.Errorw("encode admin response", "err", err)
		http.Error(w, "encode response: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(append(b, '\n'))
}
