package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dietbet/nfl-betting-platform/internal/feedsync"
	"github.com/dietbet/nfl-betting-platform/internal/shared/config"
	"github.com/dietbet/nfl-betting-platform/internal/shared/logger"
)

var (
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	// Confrontos fixos da rodada simulada; kickoffs escalonados a partir do boot
	matchups = [][2]string{
		{"Chiefs", "Bills"},
		{"Eagles", "Cowboys"},
		{"49ers", "Seahawks"},
		{"Packers", "Bears"},
		{"Ravens", "Bengals"},
		{"Lions", "Vikings"},
	}

	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "feed_sim_ws_connections",
		Help: "Clientes WebSocket conectados",
	})
	wsMessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feed_sim_ws_messages_sent_total",
		Help: "Total de mensagens WS enviadas",
	})
	gamesFinal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feed_sim_games_final_total",
		Help: "Jogos encerrados pela simulação",
	})
)

type clientConn struct {
	id   string
	conn *websocket.Conn
}

// hub gerencia os clientes WebSocket e faz broadcast de cada update de jogo
type hub struct {
	mu      sync.RWMutex
	clients map[string]*clientConn
	log     *zap.Logger
}

func newHub(log *zap.Logger) *hub {
	return &hub{clients: make(map[string]*clientConn), log: log}
}

func (h *hub) add(c *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
	wsConnections.Inc()
	h.log.Info("ws client connected", zap.String("client_id", c.id))
}

func (h *hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[id]; ok {
		delete(h.clients, id)
		wsConnections.Dec()
		h.log.Info("ws client disconnected", zap.String("client_id", id))
	}
}

func (h *hub) broadcast(v any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	msg, _ := json.Marshal(v)
	for id, c := range h.clients {
		c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Warn("ws write failed", zap.String("client_id", id), zap.Error(err))
			_ = c.conn.Close()
		} else {
			wsMessagesSent.Inc()
		}
	}
}

// season guarda o estado mutável dos jogos simulados. Cada tick avança o
// relógio dos jogos: kickoff vira in_progress, fim de jogo vira final com
// placar e vencedor sorteados.
type season struct {
	mu    sync.RWMutex
	games []feedsync.ScoreboardGame
}

func newSeason(now time.Time) *season {
	s := &season{}
	for i, m := range matchups {
		s.games = append(s.games, feedsync.ScoreboardGame{
			ID:        fmt.Sprintf("nfl-2026-wk1-%03d", i+1),
			HomeTeam:  m[0],
			AwayTeam:  m[1],
			StartTime: now.Add(time.Duration(8+2*i) * time.Minute),
			Status:    "scheduled",
			Week:      1,
			Season:    2026,
		})
	}
	return s
}

// tick avança o estado dos jogos e retorna os que mudaram neste passo
func (s *season) tick(now time.Time, gameLength time.Duration) []feedsync.ScoreboardGame {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed []feedsync.ScoreboardGame
	for i := range s.games {
		g := &s.games[i]
		switch g.Status {
		case "scheduled":
			if !now.Before(g.StartTime) {
				g.Status = "in_progress"
				changed = append(changed, *g)
			}
		case "in_progress":
			g.HomeScore += rand.Intn(8)
			g.AwayScore += rand.Intn(8)
			if now.Sub(g.StartTime) >= gameLength {
				g.Status = "final"
				switch {
				case g.HomeScore > g.AwayScore:
					g.Winner = g.HomeTeam
				case g.AwayScore > g.HomeScore:
					g.Winner = g.AwayTeam
				default:
					g.Tie = true
				}
				gamesFinal.Inc()
			}
			changed = append(changed, *g)
		}
	}
	return changed
}

func (s *season) snapshot() feedsync.Scoreboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := feedsync.Scoreboard{Games: make([]feedsync.ScoreboardGame, len(s.games))}
	copy(out.Games, s.games)
	return out
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(wsConnections, wsMessagesSent, gamesFinal)

	h := newHub(log)
	se := newSeason(time.Now().UTC())

	// Avança a simulação e empurra cada jogo alterado pelos clientes WS
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			for _, g := range se.tick(time.Now().UTC(), 10*time.Minute) {
				h.broadcast(g)
			}
		}
	}()

	// ==== MUX PÚBLICO: /scoreboard e /ws
	appMux := http.NewServeMux()

	appMux.HandleFunc("/scoreboard", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(se.snapshot())
	})

	appMux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("ws upgrade failed", zap.Error(err))
			return
		}
		id := fmt.Sprintf("%d", time.Now().UnixNano())
		c := &clientConn{id: id, conn: conn}
		h.add(c)

		go func() {
			defer func() {
				h.remove(id)
				_ = conn.Close()
			}()
			_ = conn.SetReadDeadline(time.Time{})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})

	// ==== MUX DE MÉTRICAS (/healthz, /metrics)
	metricsMux := http.NewServeMux()
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	metricsMux.Handle("/metrics", promhttp.Handler())

	go func() {
		metricsAddr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("feed simulator (metrics) running", zap.String("addr", metricsAddr))
		if err := http.ListenAndServe(metricsAddr, metricsMux); err != nil {
			log.Fatal("metrics server error", zap.Error(err))
		}
	}()

	publicAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	log.Info("feed simulator (public) running",
		zap.String("addr", publicAddr),
		zap.String("paths", "/scoreboard,/ws"),
	)
	if err := http.ListenAndServe(publicAddr, appMux); err != nil {
		log.Fatal("public server error", zap.Error(err))
	}
}
