package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/askdoc/internal/transport/repl"
	voiceuc "github.com/kailas-cloud/askdoc/internal/usecase/voice"
)

var micTestCmd = &cobra.Command{
	Use:   "mictest",
	Short: "Record one phrase from the microphone and print the transcript",
	RunE:  runMicTest,
}

func init() {
	rootCmd.AddCommand(micTestCmd)
}

func runMicTest(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()
	styles := repl.NewStyles(out)

	voice := a.newVoice()
	voice.OnStage(func(stage voiceuc.Stage) {
		switch stage {
		case voiceuc.StageCalibrating:
			fmt.Fprintln(out, styles.Muted.Render("Calibrating for background noise..."))
		case voiceuc.StageListening:
			fmt.Fprintln(out, styles.Notice.Render("Listening... say something."))
		case voiceuc.StageTranscribing:
			fmt.Fprintln(out, styles.Muted.Render("Transcribing..."))
		}
	})

	text, err := voice.Capture(ctx)
	if err != nil {
		fmt.Fprintln(out, styles.Error.Render(repl.VoiceMessage(err)))
		return err
	}

	fmt.Fprintf(out, "%s %s\n", styles.Assistant.Render("Transcript:"), text)
	return nil
}
