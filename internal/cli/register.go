package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"simreg/internal/capture"
	"simreg/internal/config"
	"simreg/internal/ekyc"
	"simreg/internal/service"
	"simreg/internal/session"
	"simreg/internal/wizard"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a SIM end to end",
	Long: `Runs every wizard step in order: mobile verification, OTP, registration
type, document and selfie upload, personal information, supporting documents,
review and processing. Configuration is read from SIMREG_* variables.`,
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().StringP("profile", "p", "simreg.yaml", "Profile file")
}

func runRegister(cmd *cobra.Command, _ []string) error {
	if !verbose {
		log.SetOutput(io.Discard)
	}

	path, _ := cmd.Flags().GetString("profile")
	profile, err := LoadProfile(path)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, err := ekyc.NewClient(&cfg.Ekyc)
	if err != nil {
		return fmt.Errorf("failed to initialize eKYC client: %w", err)
	}

	wizards := service.NewWizardService(service.WizardDeps{
		Client:   client,
		Slot:     session.NewMemorySlot(),
		Previews: capture.NewMemoryPreviewStore(),
		Waiter:   wizard.NewWaiter(cfg.Processing, client),
	}, cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	tok, err := wizards.Create(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = wizards.Discard(context.Background(), tok.WizardID) }()

	w, err := wizards.Get(ctx, tok.WizardID)
	if err != nil {
		return err
	}

	r := &Runner{Wizard: w, Profile: profile, In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}
	_, err = r.Run(ctx)
	return err
}
