package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/chaintour/internal/controls"
	"github.com/AaronLay10/chaintour/internal/logger"
	"github.com/AaronLay10/chaintour/internal/playback"
	"github.com/AaronLay10/chaintour/internal/termui"
)

var playSpeed float64

var playCmd = &cobra.Command{
	Use:   "play [scenario]",
	Short: "Play a scenario in the terminal",
	Long: `Play a scenario in the terminal until it completes or is interrupted.
Without a scenario the configured default, or the first one, is played.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := openCatalog()
		if err != nil {
			return err
		}

		speed := cfg.Speed()
		if cmd.Flags().Changed("speed") {
			speed = playSpeed
		}

		engine := playback.New(cat.Graph)
		if err := engine.SetSpeed(speed); err != nil {
			return err
		}

		var opts []controls.Option
		if cfg.Tour.DefaultScenario != "" {
			opts = append(opts, controls.WithDefaultScenario(cfg.Tour.DefaultScenario))
		}
		c := controls.New(engine, cat, opts...)
		defer c.Close()

		states, cancel := c.Watch()
		defer cancel()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		scenarioID := ""
		if len(args) == 1 {
			scenarioID = args[0]
		}
		if err := c.Play(scenarioID); err != nil {
			return err
		}

		st := c.State()
		termui.Banner(os.Stdout, cat.Title, st.Playback.ScenarioID)
		return follow(ctx, termui.NewRenderer(os.Stdout, cat.Graph), states, c)
	},
}

func init() {
	playCmd.Flags().Float64Var(&playSpeed, "speed", 1, "speed multiplier")
}

// follow renders states until playback completes or ctx ends.
func follow(ctx context.Context, r *termui.Renderer, states <-chan controls.State, c *controls.Controls) error {
	for {
		select {
		case <-ctx.Done():
			c.Reset()
			logger.Logger.Infow("playback interrupted")
			return nil
		case st, ok := <-states:
			if !ok {
				return nil
			}
			if st.Playback.Status == playback.StatusIdle {
				continue
			}
			r.Render(st)
			if st.Playback.Status == playback.StatusCompleted {
				return nil
			}
		}
	}
}
