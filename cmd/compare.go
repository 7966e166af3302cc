package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cheggaaa/pb/v3"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"splitcmd/internal/model"
)

var compareMode string

var compareCmd = &cobra.Command{
	Use:   "compare <left> <right>",
	Short: "Run a full two-root compare against a running daemon and print the summary",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		left, right := args[0], args[1]

		if err := setRoot("left", left); err != nil {
			return err
		}
		if err := setRoot("right", right); err != nil {
			return err
		}

		conn, _, err := websocket.DefaultDialer.Dial(eventsURL(), nil)
		if err != nil {
			return fmt.Errorf("cannot subscribe to daemon events: %w", err)
		}
		defer conn.Close()

		body, _ := json.Marshal(map[string]string{"mode": compareMode})
		resp, err := http.Post(daemonURL("/compare/start"), "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("daemon rejected compare: status %d", resp.StatusCode)
		}

		leftBar := pb.New64(0).SetTemplateString(`left  {{counters . }} {{bar . }}`)
		rightBar := pb.New64(0).SetTemplateString(`right {{counters . }} {{bar . }}`)
		pool, err := pb.StartPool(leftBar, rightBar)
		if err != nil {
			return err
		}

		for {
			var env model.Envelope
			if err := conn.ReadJSON(&env); err != nil {
				pool.Stop()
				return fmt.Errorf("lost connection to daemon: %w", err)
			}

			switch env.Event {
			case model.EventScanProgress:
				var payload model.ScanProgressPayload
				if decodePayload(env.Payload, &payload) != nil {
					continue
				}
				bar := leftBar
				if payload.Side == model.SideRight {
					bar = rightBar
				}
				bar.SetCurrent(int64(payload.EntriesScanned))
				if payload.Phase == model.PhaseDone {
					bar.SetTotal(int64(payload.EntriesScanned))
				}

			case model.EventCompareDone:
				pool.Stop()
				var payload model.CompareDonePayload
				if decodePayload(env.Payload, &payload) == nil {
					printSummary(payload.Summary)
				}
				return nil

			case model.EventCompareError:
				pool.Stop()
				var payload model.CompareErrorPayload
				if decodePayload(env.Payload, &payload) == nil {
					return fmt.Errorf("compare failed: %s", payload.Message)
				}
				return fmt.Errorf("compare failed")
			}
		}
	},
}

func decodePayload(payload any, target any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

func setRoot(side, path string) error {
	body, _ := json.Marshal(map[string]string{"path": path})
	resp, err := http.Post(daemonURL("/roots/"+side), "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("daemon not running: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to set %s root: status %d", side, resp.StatusCode)
	}
	return nil
}

func eventsURL() string {
	return fmt.Sprintf("ws://127.0.0.1:%d/events", cfg.Port)
}

func printSummary(s model.CompareSummary) {
	fmt.Printf("same: %d  metaDiff: %d  onlyLeft: %d  onlyRight: %d  typeMismatch: %d  errors: %d\n",
		s.Same, s.MetaDiff, s.OnlyLeft, s.OnlyRight, s.TypeMismatch, s.Errors)
}

func init() {
	compareCmd.Flags().StringVar(&compareMode, "mode", "smart", "compare mode: smart or structure")
	rootCmd.AddCommand(compareCmd)
}
