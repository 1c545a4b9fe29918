package analysis

import (
	"math"

	"github.com/freeeve/chessreview/internal/classify"
	"github.com/freeeve/chessreview/internal/eco"
	"github.com/freeeve/chessreview/internal/eval"
)

// MoveRecord describes one evaluated ply.
type MoveRecord struct {
	PlyIndex    int               `json:"ply_index"` // fen_history index of the position before the move
	MoveNumber  int               `json:"move_number"`
	Side        string            `json:"side"`
	PlayedUCI   string            `json:"played_uci"`
	PlayedSAN   string            `json:"played_san"`
	BestUCI     *string           `json:"best_uci"`
	BestUCIList []string          `json:"best_uci_list"`
	CPLoss      int               `json:"cp_loss"`
	ScoreBefore *int              `json:"score_before"`
	ScoreAfter  *int              `json:"score_after"`
	Category    classify.Category `json:"category"`
	Reason      string            `json:"reason"`
}

// SideStats aggregates one side's records.
type SideStats struct {
	Counts    map[classify.Category]int   `json:"counts"`
	Moves     map[classify.Category][]int `json:"moves"`
	AvgCPLoss float64                     `json:"avg_cp_loss"`
	Accuracy  *float64                    `json:"accuracy"` // nil when the side has no records

	records   int
	totalLoss int
}

func newSideStats() SideStats {
	s := SideStats{
		Counts: make(map[classify.Category]int, len(classify.Categories)),
		Moves:  make(map[classify.Category][]int, len(classify.Categories)),
	}
	for _, c := range classify.Categories {
		s.Counts[c] = 0
		s.Moves[c] = []int{}
	}
	return s
}

func (s *SideStats) add(r MoveRecord) {
	s.Counts[r.Category]++
	s.Moves[r.Category] = append(s.Moves[r.Category], r.MoveNumber)
	s.records++
	s.totalLoss += r.CPLoss
}

// Total returns the number of records counted for the side.
func (s *SideStats) Total() int {
	n := 0
	for _, c := range s.Counts {
		n += c
	}
	return n
}

func (s *SideStats) finish() {
	if s.records == 0 {
		return
	}
	acl := float64(s.totalLoss) / float64(s.records)
	s.AvgCPLoss = round2(acl)
	acc := Accuracy(acl)
	s.Accuracy = &acc
}

// Accuracy maps average centipawn loss to a 0-100 score with the curve
// 103.3979 - 0.3820659*acl - 0.002169231*acl^2.
func Accuracy(acl float64) float64 {
	acc := 103.3979 - 0.3820659*acl - 0.002169231*acl*acl
	return round2(math.Max(0, math.Min(100, acc)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Params echoes the configuration a report was produced with.
type Params struct {
	eval.EngineConfig
	Thresholds classify.Thresholds `json:"thresholds"`
}

// Report is the result of analyzing one game.
type Report struct {
	White      SideStats    `json:"white"`
	Black      SideStats    `json:"black"`
	FENHistory []string     `json:"fen_history"`
	MovesMeta  []MoveRecord `json:"moves_meta"`
	Params     Params       `json:"analysis_params"`
	Opening    *eco.Opening `json:"opening,omitempty"`
}

func newReport(startFEN string, params Params) *Report {
	return &Report{
		White:      newSideStats(),
		Black:      newSideStats(),
		FENHistory: []string{startFEN},
		MovesMeta:  []MoveRecord{},
		Params:     params,
	}
}

func (r *Report) side(name string) *SideStats {
	if name == "black" {
		return &r.Black
	}
	return &r.White
}

func (r *Report) record(m MoveRecord) {
	r.MovesMeta = append(r.MovesMeta, m)
	r.side(m.Side).add(m)
}

// Envelope is the JSON document handed to report consumers.
type Envelope struct {
	RunID     string `json:"run_id"`
	WhiteName string `json:"white_name"`
	BlackName string `json:"black_name"`
	GameID    string `json:"game_id,omitempty"`
	GameURL   string `json:"game_url,omitempty"`
	*Report
}
