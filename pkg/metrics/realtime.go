package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RealtimeMetrics tracks websocket gateway activity.
type RealtimeMetrics struct {
	connections prometheus.Gauge
	onlineUsers prometheus.Gauge
	pushed      *prometheus.CounterVec
	dropped     *prometheus.CounterVec
}

// NewRealtimeMetrics registers the gateway metrics on the provided registerer.
func NewRealtimeMetrics(reg prometheus.Registerer) *RealtimeMetrics {
	if reg == nil {
		return &RealtimeMetrics{}
	}
	connections := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_connections",
		Help: "Open websocket connections.",
	})
	onlineUsers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_online_users",
		Help: "Users with at least one open connection.",
	})
	pushed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_pushed_total",
		Help: "Notifications pushed over websockets.",
	}, []string{"type"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_dropped_total",
		Help: "Notifications dropped because a connection send buffer was full.",
	}, []string{"type"})
	reg.MustRegister(connections, onlineUsers, pushed, dropped)
	return &RealtimeMetrics{
		connections: connections,
		onlineUsers: onlineUsers,
		pushed:      pushed,
		dropped:     dropped,
	}
}

// SetConnections records the current number of open connections.
func (r *RealtimeMetrics) SetConnections(n int) {
	if r == nil || r.connections == nil {
		return
	}
	r.connections.Set(float64(n))
}

// SetOnlineUsers records the current number of distinct online users.
func (r *RealtimeMetrics) SetOnlineUsers(n int) {
	if r == nil || r.onlineUsers == nil {
		return
	}
	r.onlineUsers.Set(float64(n))
}

// IncPushed increments the pushed counter for the notification type.
func (r *RealtimeMetrics) IncPushed(notificationType string) {
	if r == nil || r.pushed == nil {
		return
	}
	r.pushed.WithLabelValues(normalizeLabel(notificationType)).Inc()
}

// IncDropped increments the dropped counter for the notification type.
func (r *RealtimeMetrics) IncDropped(notificationType string) {
	if r == nil || r.dropped == nil {
		return
	}
	r.dropped.WithLabelValues(normalizeLabel(notificationType)).Inc()
}
