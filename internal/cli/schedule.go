package cli

import (
	"bytes"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bespreking/internal/capture"
	"bespreking/internal/config"
	appLog "bespreking/internal/log"
	"bespreking/internal/plan"
	"bespreking/internal/render"
	"bespreking/internal/roster"
	"bespreking/internal/slots"
)

type scheduleFlags struct {
	rooms     string
	from      string
	to        string
	start     string
	end       string
	slot      int
	overlap   int
	trace     bool
	closures  string
	htmlOut   string
	icsOut    string
	xlsxOut   string
	pngOut    string
	pngWidth  int
	pngHeight int
}

func newScheduleCmd() *cobra.Command {
	var f scheduleFlags

	cmd := &cobra.Command{
		Use:   "schedule FILE",
		Short: "Schedule the classes in a spreadsheet (.xlsx or .csv)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form := formFromFlags(cmd, f, cfg)

			sheet, err := roster.ReadFile(args[0])
			if err != nil {
				return err
			}
			req, err := plan.NewRequest(cfg, sheet, form)
			if err != nil {
				return err
			}
			res, err := plan.Run(req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if f.trace {
				for _, line := range res.Trace {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out)
			}
			fmt.Fprint(out, render.Text(res))

			return writeOutputs(cmd, f, res)
		},
	}

	d := config.DefaultConfig().Defaults
	cmd.Flags().StringVar(&f.rooms, "rooms", "", "Comma separated room names (default from config)")
	cmd.Flags().StringVar(&f.from, "from", "", "First day, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&f.to, "to", "", "Last day, YYYY-MM-DD (default --from)")
	cmd.Flags().StringVar(&f.start, "start", "", "Daily start time, HH:MM (default "+d.StartTime+")")
	cmd.Flags().StringVar(&f.end, "end", "", "Daily end time, HH:MM (default "+d.EndTime+")")
	cmd.Flags().IntVar(&f.slot, "slot", d.SlotMinutes, "Timeslot length in minutes")
	cmd.Flags().IntVar(&f.overlap, "overlap", d.MaxOverlap, "Extra concurrent meetings allowed per teacher")
	cmd.Flags().StringVar(&f.closures, "closures", "", "iCalendar file of closed days (overrides closures_file)")
	cmd.Flags().BoolVar(&f.trace, "trace", false, "Print the scheduling trace before the table")
	cmd.Flags().StringVar(&f.htmlOut, "html", "", "Write the schedule as a standalone HTML page")
	cmd.Flags().StringVar(&f.icsOut, "ics", "", "Write the schedule as an iCalendar file")
	cmd.Flags().StringVar(&f.xlsxOut, "xlsx", "", "Write the schedule as an Excel workbook")
	cmd.Flags().StringVar(&f.pngOut, "png", "", "Write a PNG screenshot of the HTML schedule (needs Chromium)")
	cmd.Flags().IntVar(&f.pngWidth, "png-width", capture.DefaultWidth, "PNG viewport width")
	cmd.Flags().IntVar(&f.pngHeight, "png-height", capture.DefaultHeight, "PNG viewport height")

	return cmd
}

// formFromFlags fills a plan.Form from cfg.Defaults and overrides what was
// set on the command line.
func formFromFlags(cmd *cobra.Command, f scheduleFlags, cfg *config.Config) plan.Form {
	form := plan.DefaultForm(cfg.Defaults)
	if f.rooms != "" {
		form.Rooms = f.rooms
	}
	if f.start != "" {
		form.StartTime = f.start
	}
	if f.end != "" {
		form.EndTime = f.end
	}
	if cmd.Flags().Changed("slot") {
		form.SlotMinutes = f.slot
	}
	if cmd.Flags().Changed("overlap") {
		form.MaxOverlap = f.overlap
	}

	form.From = f.from
	if form.From == "" {
		form.From = time.Now().In(cfg.Location()).Format(slots.DateLayout)
	}
	form.To = f.to
	if form.To == "" {
		form.To = form.From
	}
	form.Debug = f.trace
	form.ClosuresFile = f.closures
	return form
}

func writeOutputs(cmd *cobra.Command, f scheduleFlags, res *plan.Result) error {
	var page bytes.Buffer
	if f.htmlOut != "" || f.pngOut != "" {
		if err := render.HTML(&page, res, "Leerlingbespreking"); err != nil {
			return err
		}
	}

	if f.htmlOut != "" {
		if err := config.WriteFileAtomic(f.htmlOut, page.Bytes(), 0o644); err != nil {
			return err
		}
		appLog.Info("schedule html written", "path", f.htmlOut)
	}
	if f.icsOut != "" {
		if err := config.WriteFileAtomic(f.icsOut, render.ICS(res), 0o644); err != nil {
			return err
		}
		appLog.Info("schedule ics written", "path", f.icsOut)
	}
	if f.xlsxOut != "" {
		data, err := render.XLSX(res)
		if err != nil {
			return err
		}
		if err := config.WriteFileAtomic(f.xlsxOut, data, 0o644); err != nil {
			return err
		}
		appLog.Info("schedule xlsx written", "path", f.xlsxOut)
	}
	if f.pngOut != "" {
		opts := capture.Options{HTML: page.Bytes(), Width: f.pngWidth, Height: f.pngHeight}
		if err := capture.WriteFile(cmd.Context(), f.pngOut, opts); err != nil {
			return err
		}
		appLog.Info("schedule png written", "path", f.pngOut)
	}
	return nil
}
