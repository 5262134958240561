/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Seednode/bankheist/scoring"
	"github.com/julienschmidt/httprouter"
	"gopkg.in/yaml.v3"
)

type Export struct {
	Board     string           `yaml:"board"`
	Exported  string           `yaml:"exported"`
	NextRound int              `yaml:"next round"`
	Finished  bool             `yaml:"finished"`
	Rules     ExportRules      `yaml:"rules"`
	Standings []ExportStanding `yaml:"standings"`
}

type ExportRules struct {
	RoundCoefficients   []scoring.TableEntry `yaml:"round coefficients"`
	CoefficientFallback int                  `yaml:"coefficient fallback"`
	PlacePoints         []scoring.TableEntry `yaml:"place points"`
}

type ExportStanding struct {
	Rank         int `yaml:"rank"`
	scoring.Team `yaml:",inline"`
}

func newExport(boardID string, snap scoring.Snapshot, now time.Time) Export {
	standings := make([]ExportStanding, 0, len(snap.Leaderboard))
	for _, s := range snap.Leaderboard {
		standings = append(standings, ExportStanding{Rank: s.Rank, Team: s.Team})
	}

	return Export{
		Board:     boardID,
		Exported:  now.Format(time.RFC3339),
		NextRound: snap.Round,
		Finished:  snap.Finished,
		Rules: ExportRules{
			RoundCoefficients:   scoring.RoundCoefficients.Entries(),
			CoefficientFallback: scoring.RoundCoefficients.Fallback(),
			PlacePoints:         scoring.PlacePoints.Entries(),
		},
		Standings: standings,
	}
}

func writeExport(w io.Writer, e Export) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	if err := encoder.Encode(&e); err != nil {
		return fmt.Errorf("encoding to YAML failed: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return fmt.Errorf("encoding to YAML failed on close: %w", err)
	}

	return nil
}

func serveExport(cfg *Config, bm *BoardManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		hub, ok := bm.lookup(ps.ByName("boardid"))
		if !ok {
			http.Error(w, "board not found", http.StatusNotFound)
			return
		}

		snap := hub.snapshot()

		var buf bytes.Buffer
		if err := writeExport(&buf, newExport(hub.id, snap, time.Now())); err != nil {
			errs <- err
			http.Error(w, "export failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "bankheist-"+hub.id+".yaml"))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		securityHeaders(cfg, w)

		written, err := w.Write(buf.Bytes())
		if err != nil {
			errs <- err
			return
		}

		logf(cfg, "SERVE: Board %s export (%s) to %s in %s",
			hub.id,
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}
